package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/SundayYogurt/auth_service/internal/domain"
	"github.com/SundayYogurt/auth_service/internal/helper"
	"gorm.io/gorm"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrDuplicateKey = errors.New("duplicate key")
)

type UserRepository interface {
	CreateUser(ctx context.Context, user *domain.User) error
	FindUserByEmail(ctx context.Context, email string) (*domain.User, error)
	FindUserById(ctx context.Context, id string) (*domain.User, error)
	FindUserByRefreshToken(ctx context.Context, token string) (*domain.User, error)
	FindUserByAuthID(ctx context.Context, authID string) (*domain.User, error)
	SaveUser(ctx context.Context, user *domain.User) error
	SetActive(ctx context.Context, id string, active bool) error
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) CreateUser(ctx context.Context, user *domain.User) error {
	if user == nil {
		return errors.New("nil user")
	}

	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if helper.IsDuplicateKey(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *userRepository) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *userRepository) FindUserById(ctx context.Context, id string) (*domain.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *userRepository) FindUserByRefreshToken(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, ErrNotFound
	}
	return r.first(ctx, "refresh_token = ?", token)
}

func (r *userRepository) FindUserByAuthID(ctx context.Context, authID string) (*domain.User, error) {
	if authID == "" {
		return nil, ErrNotFound
	}
	return r.first(ctx, "auth_id = ?", authID)
}

func (r *userRepository) first(ctx context.Context, query string, args ...any) (*domain.User, error) {
	user := &domain.User{}
	if err := r.db.WithContext(ctx).Where(query, args...).First(user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

func (r *userRepository) SaveUser(ctx context.Context, user *domain.User) error {
	if user == nil {
		return errors.New("nil user")
	}

	if err := r.db.WithContext(ctx).Save(user).Error; err != nil {
		if helper.IsDuplicateKey(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

func (r *userRepository) SetActive(ctx context.Context, id string, active bool) error {
	res := r.db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id = ?", id).
		Updates(map[string]any{"is_active": active})
	if res.Error != nil {
		return fmt.Errorf("set user active: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
