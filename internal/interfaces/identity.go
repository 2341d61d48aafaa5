package interfaces

import "context"

// IdentityProvider is the slice of the external identity management API the
// auth service relies on.
type IdentityProvider interface {
	UpdateUser(ctx context.Context, id string, attrs map[string]any) error
	SendEmailVerification(ctx context.Context, id string) error
}
