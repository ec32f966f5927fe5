package persistence

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/tomb.v2"

	"github.com/altrapisos/crm/internal/core/domain"
	"github.com/altrapisos/crm/internal/core/ports"
)

// RemoteStore routes every collection to the hosted backend. The local
// KVStore is kept for the user backup section and as the restore target.
type RemoteStore struct {
	backend ports.RemoteBackend
	local   ports.KVStore
	log     zerolog.Logger
	now     func() time.Time
}

// NewRemoteStore returns a facade backed by the remote backend.
func NewRemoteStore(backend ports.RemoteBackend, local ports.KVStore, log zerolog.Logger) *RemoteStore {
	return &RemoteStore{backend: backend, local: local, log: log, now: time.Now}
}

func (s *RemoteStore) Mode() ports.Mode { return ports.ModeRemote }

// GetRecords seeds an empty remote collection once and returns the seed
// without reading it back.
func (s *RemoteStore) GetRecords(ctx context.Context) ([]domain.Record, error) {
	records, err := s.backend.ListRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("get records: %w", err)
	}
	if len(records) > 0 {
		for i := range records {
			if records[i].Product == nil {
				records[i].Product = []string{}
			}
		}
		return records, nil
	}

	seed := domain.SeedRecords(s.now())
	if err := s.backend.InsertRecords(ctx, seed); err != nil {
		return nil, fmt.Errorf("seed remote records: %w", err)
	}
	s.log.Info().Int("count", len(seed)).Msg("seeded remote records")
	return seed, nil
}

func (s *RemoteStore) AddOrUpdateRecord(ctx context.Context, r domain.Record) error {
	if err := s.backend.UpsertRecord(ctx, r); err != nil {
		return fmt.Errorf("upsert record %s: %w", r.ID, err)
	}
	return nil
}

func (s *RemoteStore) DeleteRecord(ctx context.Context, id string) error {
	if err := s.backend.DeleteRecord(ctx, id); err != nil {
		return fmt.Errorf("delete record %s: %w", id, err)
	}
	return nil
}

// GetOptions initialises the settings row with the defaults when it is missing.
func (s *RemoteStore) GetOptions(ctx context.Context) (domain.AppOptions, error) {
	o, found, err := s.backend.GetSettings(ctx)
	if err != nil {
		return domain.AppOptions{}, fmt.Errorf("get options: %w", err)
	}
	if found {
		return o.WithDefaults(), nil
	}
	d := domain.DefaultOptions()
	if err := s.backend.InsertSettings(ctx, d); err != nil {
		s.log.Warn().Err(err).Msg("failed to initialise remote settings")
	}
	return d, nil
}

func (s *RemoteStore) SaveOptions(ctx context.Context, o domain.AppOptions) error {
	if err := s.backend.UpsertSettings(ctx, o); err != nil {
		return fmt.Errorf("save options: %w", err)
	}
	return nil
}

func (s *RemoteStore) ResetOptions(ctx context.Context) (domain.AppOptions, error) {
	d := domain.DefaultOptions()
	if err := s.SaveOptions(ctx, d); err != nil {
		return domain.AppOptions{}, err
	}
	return d, nil
}

func (s *RemoteStore) AddOwner(ctx context.Context, name string) error {
	o, err := s.GetOptions(ctx)
	if err != nil {
		return err
	}
	if o.HasOwner(name) {
		return nil
	}
	o.Owners = append(o.Owners, name)
	return s.SaveOptions(ctx, o)
}

// UpdateOwnerNameGlobally issues one update per matching row. Failed rows do
// not stop the sweep; their errors are joined and returned after the owner
// list has been rewritten, leaving a partially renamed set behind.
func (s *RemoteStore) UpdateOwnerNameGlobally(ctx context.Context, oldName, newName string) error {
	records, err := s.GetRecords(ctx)
	if err != nil {
		return err
	}

	var errs []error
	renamed := 0
	for _, r := range records {
		if r.Owner != oldName {
			continue
		}
		if err := s.backend.SetRecordOwner(ctx, r.ID, newName); err != nil {
			errs = append(errs, fmt.Errorf("rename owner on %s: %w", r.ID, err))
			continue
		}
		renamed++
	}

	o, err := s.GetOptions(ctx)
	if err != nil {
		errs = append(errs, err)
	} else if o.RenameOwner(oldName, newName) {
		if err := s.SaveOptions(ctx, o); err != nil {
			errs = append(errs, fmt.Errorf("rename owner option: %w", err))
		}
	}

	ev := s.log.Info()
	if len(errs) > 0 {
		ev = s.log.Warn().Int("failed", len(errs))
	}
	ev.Str("from", oldName).Str("to", newName).Int("records", renamed).Msg("owner renamed")
	return errors.Join(errs...)
}

func (s *RemoteStore) GetUsers(ctx context.Context) ([]domain.User, error) {
	users, err := s.backend.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("get users: %w", err)
	}
	if users == nil {
		users = []domain.User{}
	}
	return users, nil
}

// InsertUser checks for a case-insensitive duplicate before relying on the
// backend's own key constraint.
func (s *RemoteStore) InsertUser(ctx context.Context, u domain.User) error {
	users, err := s.GetUsers(ctx)
	if err != nil {
		return err
	}
	for _, existing := range users {
		if strings.EqualFold(existing.Username, u.Username) {
			return domain.ErrUserExists
		}
	}
	return s.backend.InsertUser(ctx, u)
}

// ReplaceUser rejects a new username that matches another user
// case-insensitively.
func (s *RemoteStore) ReplaceUser(ctx context.Context, originalUsername string, u domain.User) error {
	users, err := s.GetUsers(ctx)
	if err != nil {
		return err
	}
	for _, existing := range users {
		if existing.Username != originalUsername && strings.EqualFold(existing.Username, u.Username) {
			return domain.ErrUserExists
		}
	}
	return s.backend.UpdateUser(ctx, originalUsername, u)
}

func (s *RemoteStore) SyncUserProfile(ctx context.Context, username, name, email string) error {
	return s.backend.SetUserProfile(ctx, username, name, email)
}

func (s *RemoteStore) SetUserPassword(ctx context.Context, username, password string) error {
	return s.backend.SetUserPassword(ctx, username, password)
}

func (s *RemoteStore) DeleteUser(ctx context.Context, username string) error {
	return s.backend.DeleteUser(ctx, username)
}

func (s *RemoteStore) GetLogs(ctx context.Context) ([]domain.AuditLog, error) {
	logs, err := s.backend.ListLogs(ctx, domain.RemoteLogLimit)
	if err != nil {
		return nil, fmt.Errorf("get logs: %w", err)
	}
	if logs == nil {
		logs = []domain.AuditLog{}
	}
	return logs, nil
}

func (s *RemoteStore) AddLogEntry(ctx context.Context, l domain.AuditLog) error {
	if err := s.backend.InsertLog(ctx, l); err != nil {
		return fmt.Errorf("add log entry: %w", err)
	}
	return nil
}

// SubscribeToChanges runs the backend watch in a tomb-managed goroutine. The
// callback receives no payload; callers always reload everything.
func (s *RemoteStore) SubscribeToChanges(callback func()) func() {
	t, ctx := tomb.WithContext(context.Background())
	t.Go(func() error {
		err := s.backend.Watch(ctx, ports.WatchedCollections, func(collection string) {
			s.log.Debug().Str("collection", collection).Msg("realtime change received")
			callback()
		})
		if err != nil && ctx.Err() == nil {
			s.log.Error().Err(err).Msg("realtime subscription ended")
			return err
		}
		return nil
	})
	return func() {
		t.Kill(nil)
		_ = t.Wait()
	}
}

func (s *RemoteStore) CreateBackup(ctx context.Context) (domain.Backup, error) {
	return createBackup(ctx, s, s.local, domain.SourceCloud, s.now())
}

// RestoreBackup writes into local storage only and warns the caller that the
// remote store was left untouched.
func (s *RemoteStore) RestoreBackup(ctx context.Context, r io.Reader) (domain.RestoreResult, error) {
	if err := restoreBackup(ctx, s.local, r); err != nil {
		s.log.Warn().Err(err).Msg("restore rejected")
		return domain.RestoreResult{}, err
	}
	s.log.Warn().Msg("backup restored into local storage while running in remote mode")
	return domain.RestoreResult{Warning: domain.RestoreToLocalWarning}, nil
}

func (s *RemoteStore) Close(ctx context.Context) error {
	return errors.Join(s.backend.Close(ctx), s.local.Close())
}
