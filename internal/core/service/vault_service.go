package service

import (
	"context"
	"io"

	"github.com/rs/zerolog"

	"github.com/altrapisos/crm/internal/core/domain"
	"github.com/altrapisos/crm/internal/core/ports"
)

// SystemActor is used by maintenance commands that run without a session.
var SystemActor = domain.Actor{Username: "system", Name: "System", Role: domain.RoleAdmin}

// VaultService exposes backup and restore to admins.
type VaultService struct {
	store   ports.Store
	records ports.RecordService
	notify  Notify
	logger  zerolog.Logger
}

func NewVaultService(store ports.Store, records ports.RecordService, notify Notify, logger zerolog.Logger) *VaultService {
	return &VaultService{store: store, records: records, notify: notify, logger: logger}
}

func (s *VaultService) Backup(ctx context.Context, actor domain.Actor) (domain.Backup, error) {
	if !actor.IsAdmin() {
		return domain.Backup{}, domain.ErrForbidden
	}
	b, err := s.store.CreateBackup(ctx)
	if err != nil {
		return domain.Backup{}, err
	}
	s.logger.Info().Str("username", actor.Username).Str("source", b.Source).Msg("backup created")
	return b, nil
}

// Restore loads a backup into local storage. In local mode the restored data
// becomes visible at once, so the record snapshot is dropped.
func (s *VaultService) Restore(ctx context.Context, actor domain.Actor, r io.Reader) (domain.RestoreResult, error) {
	if !actor.IsAdmin() {
		return domain.RestoreResult{}, domain.ErrForbidden
	}
	res, err := s.store.RestoreBackup(ctx, r)
	if err != nil {
		return domain.RestoreResult{}, err
	}
	if s.records != nil {
		s.records.Invalidate()
	}
	s.notify.send(ports.CollectionRecords)
	s.logger.Info().Str("username", actor.Username).Bool("warning", res.Warning != "").Msg("backup restored")
	return res, nil
}
