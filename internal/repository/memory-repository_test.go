package repository

import (
	"context"
	"testing"
	"time"

	"github.com/SundayYogurt/auth_service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Users(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	u := &domain.User{ID: "u-1", Email: "a@example.com", Roles: []string{"admin"}}
	require.NoError(t, s.CreateUser(ctx, u))
	assert.ErrorIs(t, s.CreateUser(ctx, &domain.User{ID: "u-2", Email: "a@example.com"}), ErrDuplicateKey)

	got, err := s.FindUserByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	got.Roles[0] = "mutated"

	again, err := s.FindUserById(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"admin"}, again.Roles, "store must not share slices with callers")

	again.RefreshToken = "rt-1"
	require.NoError(t, s.SaveUser(ctx, again))

	byToken, err := s.FindUserByRefreshToken(ctx, "rt-1")
	require.NoError(t, err)
	assert.Equal(t, "u-1", byToken.ID)

	_, err = s.FindUserByRefreshToken(ctx, "")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.SetActive(ctx, "u-1", false))
	inactive, _ := s.FindUserById(ctx, "u-1")
	assert.False(t, inactive.IsActive)

	assert.ErrorIs(t, s.SetActive(ctx, "nope", true), ErrNotFound)
	assert.ErrorIs(t, s.SaveUser(ctx, &domain.User{ID: "nope"}), ErrNotFound)
}

func TestMemoryStore_ProfileUpsertKeepsUntouchedFields(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	name, phone1, phone2 := "Jane", "0801", "0802"
	_, err := s.UpsertProfile(ctx, "auth0|1", domain.ProfileUpdate{FullName: &name, Phone: &phone1})
	require.NoError(t, err)

	p, err := s.UpsertProfile(ctx, "auth0|1", domain.ProfileUpdate{Phone: &phone2})
	require.NoError(t, err)
	assert.Equal(t, "Jane", *p.FullName)
	assert.Equal(t, "0802", *p.Phone)

	_, err = s.FindProfileByAuthID(ctx, "auth0|2")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_Audit(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"e-1", "e-2", "e-3"} {
		require.NoError(t, s.CreateAuditLog(ctx, &domain.AuditLog{
			ID: id, ActorID: "u-1", Action: "user.login", OccurredAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}
	assert.ErrorIs(t, s.CreateAuditLog(ctx, &domain.AuditLog{ID: "e-1", ActorID: "u-1"}), ErrDuplicateKey)

	logs, err := s.ListByActor(ctx, "u-1", 2)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "e-3", logs[0].ID)
	assert.Equal(t, "e-2", logs[1].ID)
}

func TestMemoryStore_LinkedIdentity(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.CreateUser(ctx, &domain.User{ID: "u-1", Email: "a@example.com"}))
	require.NoError(t, s.CreateUser(ctx, &domain.User{ID: "u-2", Email: "b@example.com"}))

	_, err := s.FindUserByAuthID(ctx, "auth0|1")
	assert.ErrorIs(t, err, ErrNotFound)

	u, _ := s.FindUserById(ctx, "u-1")
	id := "auth0|1"
	u.AuthID = &id
	require.NoError(t, s.SaveUser(ctx, u))

	got, err := s.FindUserByAuthID(ctx, "auth0|1")
	require.NoError(t, err)
	assert.Equal(t, "u-1", got.ID)

	other, _ := s.FindUserById(ctx, "u-2")
	other.AuthID = &id
	assert.ErrorIs(t, s.SaveUser(ctx, other), ErrDuplicateKey)
}

func TestMemoryStore_RekeyProfile(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	phone := "0801"
	_, err := s.UpsertProfile(ctx, "a@example.com", domain.ProfileUpdate{Phone: &phone})
	require.NoError(t, err)

	require.NoError(t, s.RekeyProfile(ctx, "a@example.com", "auth0|1"))

	_, err = s.FindProfileByAuthID(ctx, "a@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
	p, err := s.FindProfileByAuthID(ctx, "auth0|1")
	require.NoError(t, err)
	assert.Equal(t, "auth0|1", p.AuthID)
	assert.Equal(t, "0801", *p.Phone)

	// nothing to move
	require.NoError(t, s.RekeyProfile(ctx, "missing@example.com", "auth0|2"))

	_, err = s.UpsertProfile(ctx, "b@example.com", domain.ProfileUpdate{Phone: &phone})
	require.NoError(t, err)
	assert.ErrorIs(t, s.RekeyProfile(ctx, "b@example.com", "auth0|1"), ErrDuplicateKey)
}
