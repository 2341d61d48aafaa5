package domain

import "time"

type Profile struct {
	AuthID    string    `gorm:"primaryKey;type:varchar(255)" bson:"authId" json:"authId"`
	FullName  *string   `gorm:"type:varchar(255)" bson:"fullname,omitempty" json:"fullname,omitempty"`
	Phone     *string   `gorm:"type:varchar(50)" bson:"phone,omitempty" json:"phone,omitempty"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// ProfileUpdate carries the fields of a profile edit; nil means untouched.
type ProfileUpdate struct {
	FullName *string
	Phone    *string
}
