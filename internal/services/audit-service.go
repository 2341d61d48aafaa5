package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SundayYogurt/auth_service/internal/domain"
	"github.com/SundayYogurt/auth_service/internal/dto"
	"github.com/SundayYogurt/auth_service/internal/interfaces"
	"github.com/SundayYogurt/auth_service/internal/repository"
)

// AuditService turns account events from the broker into audit log rows.
type AuditService struct {
	repo repository.AuditRepository
	log  *slog.Logger
	now  func() time.Time
}

var _ interfaces.ConsumerHandler = (*AuditService)(nil)

func NewAuditService(repo repository.AuditRepository, log *slog.Logger) *AuditService {
	if log == nil {
		log = slog.Default()
	}
	return &AuditService{repo: repo, log: log.With("component", "audit-service"), now: time.Now}
}

// HandleMessage stores one event. Redelivered events are acknowledged
// without a second row.
func (s *AuditService) HandleMessage(ctx context.Context, message []byte) error {
	var evt dto.AccountEvent
	if err := json.Unmarshal(message, &evt); err != nil {
		return fmt.Errorf("decode account event: %w", err)
	}
	if strings.TrimSpace(evt.ID) == "" || strings.TrimSpace(evt.Type) == "" {
		return errors.New("account event without id or type")
	}

	occurred := s.now().UTC()
	if evt.OccurredAt != "" {
		t, err := time.Parse(time.RFC3339, evt.OccurredAt)
		if err != nil {
			return fmt.Errorf("parse occurred_at: %w", err)
		}
		occurred = t.UTC()
	}

	entry := &domain.AuditLog{
		ID:         evt.ID,
		ActorID:    evt.UserID,
		Action:     evt.Type,
		Email:      evt.Email,
		OccurredAt: occurred,
	}
	if err := s.repo.CreateAuditLog(ctx, entry); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			s.log.Info("duplicate account event skipped", "event_id", evt.ID)
			return nil
		}
		return fmt.Errorf("store audit log: %w", err)
	}

	s.log.Debug("audit log stored", "event_id", evt.ID, "action", evt.Type, "actor_id", evt.UserID)
	return nil
}

func (s *AuditService) History(ctx context.Context, actorID string, limit int) ([]domain.AuditLog, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.repo.ListByActor(ctx, actorID, limit)
}
