package domain

import (
	"slices"
	"strings"
	"time"
)

const RoleAdmin = "admin"

// User is the credential record. The same struct is persisted by the
// document store (bson tags) and the SQL store (gorm tags).
type User struct {
	ID            string     `gorm:"primaryKey;type:varchar(36)" bson:"_id" json:"id"`
	Email         string     `gorm:"type:varchar(320);uniqueIndex;not null" bson:"email" json:"email"`
	PasswordHash  string     `gorm:"not null" bson:"password" json:"-"`
	AccountType   int        `gorm:"not null;default:0" bson:"type" json:"type"`
	FullName      string     `gorm:"type:varchar(255)" bson:"fullname,omitempty" json:"fullname,omitempty"`
	IsActive      bool       `gorm:"not null" bson:"isActive" json:"isActive"`
	Attempt       int        `gorm:"not null;default:0" bson:"attempt" json:"-"`
	LastAttemptAt *time.Time `bson:"lastAttemptAt,omitempty" json:"-"`
	RefreshToken  string     `gorm:"index" bson:"refreshToken,omitempty" json:"-"`
	AuthID        *string    `gorm:"type:varchar(255);uniqueIndex" bson:"authId,omitempty" json:"authId,omitempty"`
	Roles         []string   `gorm:"serializer:json;type:text" bson:"roles,omitempty" json:"roles,omitempty"`
	CreatedAt     time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time  `bson:"updatedAt" json:"updatedAt"`
}

// Identity is the key of the user's profile: the linked external identity
// when there is one, the email otherwise.
func (u *User) Identity() string {
	if u.HasLinkedIdentity() {
		return *u.AuthID
	}
	return u.Email
}

func (u *User) HasLinkedIdentity() bool {
	return u.AuthID != nil && strings.TrimSpace(*u.AuthID) != ""
}

func (u *User) HasRole(role string) bool {
	return slices.ContainsFunc(u.Roles, func(r string) bool {
		return strings.EqualFold(r, role)
	})
}

// GrantRole adds role once; it reports whether the set changed.
func (u *User) GrantRole(role string) bool {
	role = strings.ToLower(strings.TrimSpace(role))
	if role == "" || u.HasRole(role) {
		return false
	}
	u.Roles = append(u.Roles, role)
	return true
}

func (u *User) RevokeRole(role string) bool {
	before := len(u.Roles)
	u.Roles = slices.DeleteFunc(u.Roles, func(r string) bool {
		return strings.EqualFold(r, role)
	})
	return len(u.Roles) != before
}
