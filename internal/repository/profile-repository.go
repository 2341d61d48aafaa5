package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SundayYogurt/auth_service/internal/domain"
	"github.com/SundayYogurt/auth_service/internal/helper"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProfileRepository interface {
	FindProfileByAuthID(ctx context.Context, authID string) (*domain.Profile, error)
	// UpsertProfile creates the profile when missing and applies the non-nil
	// fields of update; it returns the stored profile.
	UpsertProfile(ctx context.Context, authID string, update domain.ProfileUpdate) (*domain.Profile, error)
	// RekeyProfile moves the profile stored under from to to. A missing
	// source is not an error; an occupied target is ErrDuplicateKey.
	RekeyProfile(ctx context.Context, from, to string) error
}

type profileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) FindProfileByAuthID(ctx context.Context, authID string) (*domain.Profile, error) {
	var p domain.Profile
	if err := r.db.WithContext(ctx).Where("auth_id = ?", authID).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find profile: %w", err)
	}
	return &p, nil
}

func (r *profileRepository) UpsertProfile(ctx context.Context, authID string, update domain.ProfileUpdate) (*domain.Profile, error) {
	if authID == "" {
		return nil, errors.New("empty auth id")
	}

	now := time.Now()
	assign := map[string]any{"updated_at": now}
	if update.FullName != nil {
		assign["full_name"] = *update.FullName
	}
	if update.Phone != nil {
		assign["phone"] = *update.Phone
	}

	p := &domain.Profile{
		AuthID:    authID,
		FullName:  update.FullName,
		Phone:     update.Phone,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "auth_id"}},
			DoUpdates: clause.Assignments(assign),
		}).
		Create(p).Error
	if err != nil {
		return nil, fmt.Errorf("upsert profile: %w", err)
	}

	return r.FindProfileByAuthID(ctx, authID)
}

func (r *profileRepository) RekeyProfile(ctx context.Context, from, to string) error {
	if from == "" || to == "" {
		return errors.New("empty auth id")
	}
	if from == to {
		return nil
	}

	err := r.db.WithContext(ctx).
		Model(&domain.Profile{}).
		Where("auth_id = ?", from).
		Updates(map[string]any{"auth_id": to, "updated_at": time.Now()}).Error
	if err != nil {
		if helper.IsDuplicateKey(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("rekey profile: %w", err)
	}
	return nil
}
