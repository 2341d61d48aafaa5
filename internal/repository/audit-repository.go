package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/SundayYogurt/auth_service/internal/domain"
	"github.com/SundayYogurt/auth_service/internal/helper"
	"gorm.io/gorm"
)

type AuditRepository interface {
	CreateAuditLog(ctx context.Context, entry *domain.AuditLog) error
	ListByActor(ctx context.Context, actorID string, limit int) ([]domain.AuditLog, error)
}

type auditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) CreateAuditLog(ctx context.Context, entry *domain.AuditLog) error {
	if entry == nil {
		return errors.New("nil audit log")
	}
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		if helper.IsDuplicateKey(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create audit log: %w", err)
	}
	return nil
}

func (r *auditRepository) ListByActor(ctx context.Context, actorID string, limit int) ([]domain.AuditLog, error) {
	var logs []domain.AuditLog
	err := r.db.WithContext(ctx).
		Where("actor_id = ?", actorID).
		Order("occurred_at DESC").
		Limit(limit).
		Find(&logs).Error
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	return logs, nil
}
