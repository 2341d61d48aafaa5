package dto

const (
	EventSignup         = "user.signup"
	EventLogin          = "user.login"
	EventLogout         = "user.logout"
	EventProfileUpdated = "user.profile_updated"
	EventVerifyEmail    = "user.verify_email"
)

// AccountEvent is the payload published on the account events topic.
type AccountEvent struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	UserID     string `json:"user_id"`
	Email      string `json:"email"`
	OccurredAt string `json:"occurred_at"`
}
