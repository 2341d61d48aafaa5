package dto

import (
	"slices"
	"strings"
)

type SignupRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	FullName string `json:"fullname,omitempty"`
	Type     int    `json:"type,omitempty"`
}

type UserLogin struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required"`
}

// LoginResponse is returned by signup, login and refresh.
type LoginResponse struct {
	Token        string   `json:"token"`
	RefreshToken string   `json:"refreshToken"`
	Email        string   `json:"email"`
	Type         int      `json:"type"`
	FullName     string   `json:"fullName,omitempty"`
	User         string   `json:"user"`
	ID           string   `json:"id"`
	IsVerified   bool     `json:"isVerified"`
	Roles        []string `json:"role,omitempty"`
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// TokenSubject is what gets signed into a token pair.
type TokenSubject struct {
	UserID string
	Email  string
	Type   int
	Roles  []string
}

// AuthUser is the decoded access token attached to a request.
type AuthUser struct {
	UserID string   `json:"user_id"`
	Email  string   `json:"email"`
	Type   int      `json:"type"`
	Roles  []string `json:"roles"`
	Iat    int64    `json:"iat"`
	Expiry int64    `json:"expiry"`
}

// HasRole treats a missing role list as the empty set.
func (a AuthUser) HasRole(role string) bool {
	roles := a.Roles
	if roles == nil {
		roles = []string{}
	}
	return slices.ContainsFunc(roles, func(r string) bool {
		return strings.EqualFold(strings.TrimSpace(r), role)
	})
}
