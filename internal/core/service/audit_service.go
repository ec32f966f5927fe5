package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/altrapisos/crm/internal/core/domain"
	"github.com/altrapisos/crm/internal/core/ports"
)

// AuditService appends audit entries through the persistence facade.
type AuditService struct {
	store  ports.Store
	ids    *idClock
	logger zerolog.Logger
}

func NewAuditService(store ports.Store, logger zerolog.Logger) *AuditService {
	return &AuditService{store: store, ids: newIDClock(time.Now), logger: logger}
}

func (s *AuditService) Add(ctx context.Context, actor domain.Actor, action domain.AuditAction, details string) error {
	id, at := s.ids.next()
	entry := domain.AuditLog{
		ID:        id,
		Timestamp: at.UTC().Format(TimestampLayout),
		Username:  actor.Username,
		UserEmail: actor.Email,
		Action:    action,
		Details:   details,
	}
	s.logger.Info().
		Str("action", string(action)).
		Str("username", actor.Username).
		Str("details", details).
		Msg("audit")

	if err := s.store.AddLogEntry(ctx, entry); err != nil {
		return fmt.Errorf("audit %s: %w", action, err)
	}
	return nil
}

func (s *AuditService) List(ctx context.Context) ([]domain.AuditLog, error) {
	return s.store.GetLogs(ctx)
}

// record writes an entry and only logs a failure. Audit is best-effort for
// the operations that trigger it.
func (s *AuditService) record(ctx context.Context, actor domain.Actor, action domain.AuditAction, details string) {
	if err := s.Add(ctx, actor, action, details); err != nil {
		s.logger.Warn().Err(err).Str("action", string(action)).Msg("audit entry not stored")
	}
}
