package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/SundayYogurt/auth_service/internal/domain"
	"github.com/SundayYogurt/auth_service/internal/repository"
)

// IdentityLinker attaches an identity-provider id to a local account.
// Profiles are keyed by User.Identity(), so the profile moves with the link.
type IdentityLinker struct {
	users    repository.UserRepository
	profiles repository.ProfileRepository
	log      *slog.Logger
}

func NewIdentityLinker(users repository.UserRepository, profiles repository.ProfileRepository, log *slog.Logger) *IdentityLinker {
	if log == nil {
		log = slog.Default()
	}
	return &IdentityLinker{
		users:    users,
		profiles: profiles,
		log:      log.With("component", "identity-linker"),
	}
}

// Link sets user.AuthID to authID and persists it. On failure the user and
// the profile are left under their previous key.
func (l *IdentityLinker) Link(ctx context.Context, user *domain.User, authID string) error {
	authID = strings.TrimSpace(authID)
	if user == nil || authID == "" {
		return &ServiceError{Message: "auth id is required"}
	}
	if user.AuthID != nil && *user.AuthID == authID {
		return nil
	}

	owner, err := l.users.FindUserByAuthID(ctx, authID)
	switch {
	case err == nil && owner.ID != user.ID:
		return ErrIdentityInUse
	case err != nil && !errors.Is(err, repository.ErrNotFound):
		return fromStoreError(l.log, "find user by auth id", err)
	}

	from := user.Identity()
	if err := l.profiles.RekeyProfile(ctx, from, authID); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return ErrIdentityInUse
		}
		return fromStoreError(l.log, "rekey profile", err)
	}

	prev := user.AuthID
	user.AuthID = &authID
	if err := l.users.SaveUser(ctx, user); err != nil {
		user.AuthID = prev
		if rerr := l.profiles.RekeyProfile(ctx, authID, from); rerr != nil {
			l.log.Error("profile left under new key after failed link", "user_id", user.ID, "auth_id", authID, "err", rerr)
		}
		if errors.Is(err, repository.ErrDuplicateKey) {
			return ErrIdentityInUse
		}
		return fromStoreError(l.log, "save linked user", err)
	}

	l.log.Info("identity linked", "user_id", user.ID, "auth_id", authID)
	return nil
}
