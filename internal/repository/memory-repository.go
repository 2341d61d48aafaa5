package repository

import (
	"context"
	"errors"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/SundayYogurt/auth_service/internal/domain"
)

// MemoryStore keeps everything in process memory. It backs local runs with
// DATABASE_DRIVER=memory and the HTTP tests; it is not durable.
type MemoryStore struct {
	mu       sync.Mutex
	users    map[string]domain.User
	profiles map[string]domain.Profile
	audit    map[string]domain.AuditLog
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    map[string]domain.User{},
		profiles: map[string]domain.Profile{},
		audit:    map[string]domain.AuditLog{},
	}
}

func (m *MemoryStore) CreateUser(_ context.Context, user *domain.User) error {
	if user == nil {
		return errors.New("nil user")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[user.ID]; ok {
		return ErrDuplicateKey
	}
	for _, u := range m.users {
		if u.Email == user.Email {
			return ErrDuplicateKey
		}
	}
	m.users[user.ID] = cloneUser(*user)
	return nil
}

func (m *MemoryStore) FindUserByEmail(_ context.Context, email string) (*domain.User, error) {
	return m.findUser(func(u domain.User) bool { return u.Email == email })
}

func (m *MemoryStore) FindUserById(_ context.Context, id string) (*domain.User, error) {
	return m.findUser(func(u domain.User) bool { return u.ID == id })
}

func (m *MemoryStore) FindUserByRefreshToken(_ context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, ErrNotFound
	}
	return m.findUser(func(u domain.User) bool { return u.RefreshToken == token })
}

func (m *MemoryStore) FindUserByAuthID(_ context.Context, authID string) (*domain.User, error) {
	if authID == "" {
		return nil, ErrNotFound
	}
	return m.findUser(func(u domain.User) bool { return u.AuthID != nil && *u.AuthID == authID })
}

func (m *MemoryStore) findUser(match func(domain.User) bool) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if match(u) {
			out := cloneUser(u)
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) SaveUser(_ context.Context, user *domain.User) error {
	if user == nil {
		return errors.New("nil user")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[user.ID]; !ok {
		return ErrNotFound
	}
	if user.AuthID != nil && *user.AuthID != "" {
		for id, u := range m.users {
			if id != user.ID && u.AuthID != nil && *u.AuthID == *user.AuthID {
				return ErrDuplicateKey
			}
		}
	}
	user.UpdatedAt = time.Now()
	m.users[user.ID] = cloneUser(*user)
	return nil
}

func (m *MemoryStore) SetActive(_ context.Context, id string, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	u.IsActive = active
	u.UpdatedAt = time.Now()
	m.users[id] = u
	return nil
}

func (m *MemoryStore) FindProfileByAuthID(_ context.Context, authID string) (*domain.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.profiles[authID]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (m *MemoryStore) UpsertProfile(_ context.Context, authID string, update domain.ProfileUpdate) (*domain.Profile, error) {
	if authID == "" {
		return nil, errors.New("empty auth id")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	p, ok := m.profiles[authID]
	if !ok {
		p = domain.Profile{AuthID: authID, CreatedAt: now}
	}
	if update.FullName != nil {
		v := *update.FullName
		p.FullName = &v
	}
	if update.Phone != nil {
		v := *update.Phone
		p.Phone = &v
	}
	p.UpdatedAt = now
	m.profiles[authID] = p

	out := p
	return &out, nil
}

func (m *MemoryStore) RekeyProfile(_ context.Context, from, to string) error {
	if from == "" || to == "" {
		return errors.New("empty auth id")
	}
	if from == to {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.profiles[from]
	if !ok {
		return nil
	}
	if _, taken := m.profiles[to]; taken {
		return ErrDuplicateKey
	}
	delete(m.profiles, from)
	p.AuthID = to
	p.UpdatedAt = time.Now()
	m.profiles[to] = p
	return nil
}

func (m *MemoryStore) CreateAuditLog(_ context.Context, entry *domain.AuditLog) error {
	if entry == nil {
		return errors.New("nil audit log")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.audit[entry.ID]; ok {
		return ErrDuplicateKey
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	m.audit[entry.ID] = *entry
	return nil
}

func (m *MemoryStore) ListByActor(_ context.Context, actorID string, limit int) ([]domain.AuditLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	logs := []domain.AuditLog{}
	for _, l := range m.audit {
		if l.ActorID == actorID {
			logs = append(logs, l)
		}
	}
	sort.Slice(logs, func(i, j int) bool { return logs[i].OccurredAt.After(logs[j].OccurredAt) })
	if limit > 0 && len(logs) > limit {
		logs = logs[:limit]
	}
	return logs, nil
}

func cloneUser(u domain.User) domain.User {
	u.Roles = slices.Clone(u.Roles)
	if u.LastAttemptAt != nil {
		t := *u.LastAttemptAt
		u.LastAttemptAt = &t
	}
	if u.AuthID != nil {
		s := *u.AuthID
		u.AuthID = &s
	}
	return u
}
