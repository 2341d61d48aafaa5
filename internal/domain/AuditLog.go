package domain

import "time"

// AuditLog is one persisted account event. ID is the event id, so replays
// of the same event are rejected as duplicates.
type AuditLog struct {
	ID         string    `gorm:"primaryKey;type:varchar(36)" bson:"_id" json:"id"`
	ActorID    string    `gorm:"type:varchar(36);not null;index" bson:"actorId" json:"actor_id"`
	Action     string    `gorm:"type:varchar(100);not null" bson:"action" json:"action"`
	Email      string    `gorm:"type:varchar(320)" bson:"email" json:"email"`
	OccurredAt time.Time `gorm:"not null" bson:"occurredAt" json:"occurred_at"`
	CreatedAt  time.Time `gorm:"autoCreateTime" bson:"createdAt" json:"created_at"`
}
