package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/SundayYogurt/auth_service/internal/clients/identity"
	"github.com/SundayYogurt/auth_service/internal/domain"
	"github.com/SundayYogurt/auth_service/internal/dto"
	"github.com/SundayYogurt/auth_service/internal/helper"
	"github.com/SundayYogurt/auth_service/internal/repository"
	"github.com/gofiber/fiber/v2"
)

// IdentityTokenVerifier is satisfied by *identity.TokenVerifier.
type IdentityTokenVerifier interface {
	Verify(ctx context.Context, token string) (identity.Claims, error)
}

// FederatedAuthenticator accepts access tokens issued by the identity
// provider. The token subject is matched against User.AuthID; a verified
// email claim may link an account that has no identity yet.
type FederatedAuthenticator struct {
	verifier IdentityTokenVerifier
	users    repository.UserRepository
	linker   *IdentityLinker
	log      *slog.Logger
}

func NewFederatedAuthenticator(verifier IdentityTokenVerifier, users repository.UserRepository, linker *IdentityLinker, log *slog.Logger) *FederatedAuthenticator {
	if log == nil {
		log = slog.Default()
	}
	return &FederatedAuthenticator{
		verifier: verifier,
		users:    users,
		linker:   linker,
		log:      log.With("component", "federated-auth"),
	}
}

// Authenticate returns the local user behind token. Roles are taken from
// the token, not from the stored account.
func (a *FederatedAuthenticator) Authenticate(ctx context.Context, token string) (dto.AuthUser, error) {
	claims, err := a.verifier.Verify(ctx, token)
	if err != nil {
		return dto.AuthUser{}, &ServiceError{
			Message: helper.ErrInvalidToken.Error(),
			Status:  fiber.StatusUnauthorized,
			Err:     errors.Join(helper.ErrInvalidToken, err),
		}
	}

	user, err := a.resolve(ctx, claims)
	if err != nil {
		return dto.AuthUser{}, err
	}

	out := dto.AuthUser{
		UserID: user.ID,
		Email:  user.Email,
		Type:   user.AccountType,
		Roles:  claims.Roles,
	}
	if claims.IssuedAt != nil {
		out.Iat = claims.IssuedAt.Unix()
	}
	if claims.ExpiresAt != nil {
		out.Expiry = claims.ExpiresAt.Unix()
	}
	return out, nil
}

func (a *FederatedAuthenticator) resolve(ctx context.Context, claims identity.Claims) (*domain.User, error) {
	user, err := a.users.FindUserByAuthID(ctx, claims.Subject)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fromStoreError(a.log, "find user by auth id", err)
	}

	email := helper.NormalizeEmail(claims.Email)
	if email == "" || !claims.EmailVerified || a.linker == nil {
		return nil, ErrUnknownIdentity
	}
	user, err = a.users.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnknownIdentity
		}
		return nil, fromStoreError(a.log, "find user by email", err)
	}
	if user.HasLinkedIdentity() {
		return nil, ErrUnknownIdentity
	}
	if err := a.linker.Link(ctx, user, claims.Subject); err != nil {
		return nil, err
	}
	return user, nil
}
