package services

import (
	"context"
	"errors"
	"testing"

	"github.com/SundayYogurt/auth_service/internal/domain"
	"github.com/SundayYogurt/auth_service/internal/dto"
	"github.com/SundayYogurt/auth_service/internal/logging"
	"github.com/SundayYogurt/auth_service/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentityLinker_ProfileFollowsLink(t *testing.T) {
	f := newServiceFixture(t)
	resp := f.signup(t, "jane@example.com", "pw")
	ctx := context.Background()

	phone := "0801"
	_, err := f.svc.EditProfile(ctx, authUserOf(resp), dto.UpdateUserProfile{Phone: &phone})
	require.NoError(t, err)

	f.linkIdentity(t, resp.ID, "auth0|jane")

	got, err := f.svc.Profile(ctx, authUserOf(resp))
	require.NoError(t, err)
	assert.Equal(t, "auth0|jane", got.AuthID)
	assert.Equal(t, "0801", *got.Phone)

	_, err = f.store.FindProfileByAuthID(ctx, "jane@example.com")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	// relinking to a new id moves the profile again
	f.linkIdentity(t, resp.ID, "auth0|jane-2")
	got, err = f.svc.Profile(ctx, authUserOf(resp))
	require.NoError(t, err)
	assert.Equal(t, "auth0|jane-2", got.AuthID)
}

func TestIdentityLinker_WithoutProfile(t *testing.T) {
	f := newServiceFixture(t)
	resp := f.signup(t, "jane@example.com", "pw")

	f.linkIdentity(t, resp.ID, "auth0|jane")

	u, err := f.store.FindUserByAuthID(context.Background(), "auth0|jane")
	require.NoError(t, err)
	assert.Equal(t, resp.ID, u.ID)
}

func TestIdentityLinker_IdInUse(t *testing.T) {
	f := newServiceFixture(t)
	jane := f.signup(t, "jane@example.com", "pw")
	john := f.signup(t, "john@example.com", "pw")
	f.linkIdentity(t, jane.ID, "auth0|jane")
	ctx := context.Background()

	u, _ := f.store.FindUserById(ctx, john.ID)
	err := NewIdentityLinker(f.store, f.store, logging.Discard()).Link(ctx, u, "auth0|jane")
	assert.ErrorIs(t, err, ErrIdentityInUse)
	assert.Nil(t, u.AuthID)
}

func TestIdentityLinker_Idempotent(t *testing.T) {
	f := newServiceFixture(t)
	resp := f.signup(t, "jane@example.com", "pw")
	f.linkIdentity(t, resp.ID, "auth0|jane")
	f.linkIdentity(t, resp.ID, "auth0|jane")
}

func TestIdentityLinker_RequiresId(t *testing.T) {
	l := NewIdentityLinker(repository.NewMemoryStore(), repository.NewMemoryStore(), nil)
	assert.Error(t, l.Link(context.Background(), &domain.User{ID: "u-1"}, " "))
	assert.Error(t, l.Link(context.Background(), nil, "auth0|1"))
}

type failingSaveStore struct {
	*repository.MemoryStore
}

func (failingSaveStore) SaveUser(context.Context, *domain.User) error {
	return errors.New("disk full")
}

func TestIdentityLinker_SaveFailureRestoresProfileKey(t *testing.T) {
	f := newServiceFixture(t)
	resp := f.signup(t, "jane@example.com", "pw")
	ctx := context.Background()

	phone := "0801"
	_, err := f.store.UpsertProfile(ctx, "jane@example.com", domain.ProfileUpdate{Phone: &phone})
	require.NoError(t, err)

	u, _ := f.store.FindUserById(ctx, resp.ID)
	l := NewIdentityLinker(failingSaveStore{f.store}, f.store, logging.Discard())
	err = l.Link(ctx, u, "auth0|jane")
	assert.ErrorIs(t, err, ErrStore)
	assert.Nil(t, u.AuthID)

	p, err := f.store.FindProfileByAuthID(ctx, "jane@example.com")
	require.NoError(t, err)
	assert.Equal(t, "0801", *p.Phone)
}
