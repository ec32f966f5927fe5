package persistence

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/altrapisos/crm/internal/core/domain"
	"github.com/altrapisos/crm/internal/core/ports"
)

// LocalStore keeps every collection as a JSON blob in a KVStore. mu is held
// across every read-modify-write of a blob.
type LocalStore struct {
	mu  sync.Mutex
	kv  ports.KVStore
	log zerolog.Logger
	now func() time.Time
}

// NewLocalStore returns a facade backed only by kv.
func NewLocalStore(kv ports.KVStore, log zerolog.Logger) *LocalStore {
	return &LocalStore{kv: kv, log: log, now: time.Now}
}

func (s *LocalStore) Mode() ports.Mode { return ports.ModeLocal }

// GetRecords seeds an empty store, otherwise returns the stored records after
// backfilling legacy fields (persisting the upgrade when one was needed).
func (s *LocalStore) GetRecords(ctx context.Context) ([]domain.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records(ctx)
}

func (s *LocalStore) records(ctx context.Context) ([]domain.Record, error) {
	raw, ok, err := s.kv.Get(ctx, ports.KeyRecords)
	if err != nil {
		return nil, fmt.Errorf("get records: %w", err)
	}
	if !ok {
		seed := domain.SeedRecords(s.now())
		if err := writeJSON(ctx, s.kv, ports.KeyRecords, seed); err != nil {
			return nil, fmt.Errorf("seed records: %w", err)
		}
		s.log.Info().Int("count", len(seed)).Msg("seeded local records")
		return seed, nil
	}

	records, changed, err := backfillRecords([]byte(raw))
	if err != nil {
		return nil, fmt.Errorf("get records: %w", err)
	}
	if changed {
		if err := writeJSON(ctx, s.kv, ports.KeyRecords, records); err != nil {
			return nil, fmt.Errorf("persist backfilled records: %w", err)
		}
		s.log.Info().Int("count", len(records)).Msg("backfilled legacy record fields")
	}
	return records, nil
}

func (s *LocalStore) AddOrUpdateRecord(ctx context.Context, r domain.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	records, err := s.records(ctx)
	if err != nil {
		return err
	}
	replaced := false
	for i := range records {
		if records[i].ID == r.ID {
			records[i] = r
			replaced = true
			break
		}
	}
	if !replaced {
		records = append([]domain.Record{r}, records...)
	}
	return writeJSON(ctx, s.kv, ports.KeyRecords, records)
}

func (s *LocalStore) DeleteRecord(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	records, err := s.records(ctx)
	if err != nil {
		return err
	}
	kept := records[:0]
	for _, r := range records {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	return writeJSON(ctx, s.kv, ports.KeyRecords, kept)
}

func (s *LocalStore) GetOptions(ctx context.Context) (domain.AppOptions, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.options(ctx)
}

func (s *LocalStore) options(ctx context.Context) (domain.AppOptions, error) {
	var stored domain.AppOptions
	if _, err := readJSON(ctx, s.kv, ports.KeyOptions, &stored); err != nil {
		return domain.AppOptions{}, err
	}
	return stored.WithDefaults(), nil
}

func (s *LocalStore) SaveOptions(ctx context.Context, o domain.AppOptions) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeJSON(ctx, s.kv, ports.KeyOptions, o)
}

func (s *LocalStore) ResetOptions(ctx context.Context) (domain.AppOptions, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := domain.DefaultOptions()
	if err := writeJSON(ctx, s.kv, ports.KeyOptions, d); err != nil {
		return domain.AppOptions{}, err
	}
	return d, nil
}

func (s *LocalStore) AddOwner(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, err := s.options(ctx)
	if err != nil {
		return err
	}
	if o.HasOwner(name) {
		return nil
	}
	o.Owners = append(o.Owners, name)
	return writeJSON(ctx, s.kv, ports.KeyOptions, o)
}

// UpdateOwnerNameGlobally rewrites the record blob once and then the owner list.
func (s *LocalStore) UpdateOwnerNameGlobally(ctx context.Context, oldName, newName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	records, err := s.records(ctx)
	if err != nil {
		return err
	}
	changed := 0
	for i := range records {
		if records[i].Owner == oldName {
			records[i].Owner = newName
			changed++
		}
	}
	if changed > 0 {
		if err := writeJSON(ctx, s.kv, ports.KeyRecords, records); err != nil {
			return fmt.Errorf("rename owner on records: %w", err)
		}
	}

	o, err := s.options(ctx)
	if err != nil {
		return err
	}
	if o.RenameOwner(oldName, newName) {
		if err := writeJSON(ctx, s.kv, ports.KeyOptions, o); err != nil {
			return fmt.Errorf("rename owner option: %w", err)
		}
	}
	s.log.Info().Str("from", oldName).Str("to", newName).Int("records", changed).Msg("owner renamed")
	return nil
}

func (s *LocalStore) GetUsers(ctx context.Context) ([]domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users(ctx)
}

func (s *LocalStore) users(ctx context.Context) ([]domain.User, error) {
	users := []domain.User{}
	if _, err := readJSON(ctx, s.kv, ports.KeyUsers, &users); err != nil {
		return nil, err
	}
	if users == nil {
		users = []domain.User{}
	}
	return users, nil
}

func (s *LocalStore) saveUsers(ctx context.Context, users []domain.User) error {
	return writeJSON(ctx, s.kv, ports.KeyUsers, users)
}

func (s *LocalStore) InsertUser(ctx context.Context, u domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	users, err := s.users(ctx)
	if err != nil {
		return err
	}
	if findUserFold(users, u.Username) >= 0 {
		return domain.ErrUserExists
	}
	return s.saveUsers(ctx, append(users, u))
}

// ReplaceUser rejects a new username that matches another user
// case-insensitively.
func (s *LocalStore) ReplaceUser(ctx context.Context, originalUsername string, u domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	users, err := s.users(ctx)
	if err != nil {
		return err
	}
	i := findUser(users, originalUsername)
	if i < 0 {
		return domain.ErrUserNotFound
	}
	if j := findUserFold(users, u.Username); j >= 0 && j != i {
		return domain.ErrUserExists
	}
	users[i] = u
	return s.saveUsers(ctx, users)
}

func (s *LocalStore) SyncUserProfile(ctx context.Context, username, name, email string) error {
	return s.mutateUser(ctx, username, func(dst *domain.User) {
		dst.Name = name
		dst.Email = email
	})
}

func (s *LocalStore) SetUserPassword(ctx context.Context, username, password string) error {
	return s.mutateUser(ctx, username, func(dst *domain.User) { dst.Password = password })
}

func (s *LocalStore) mutateUser(ctx context.Context, username string, fn func(*domain.User)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	users, err := s.users(ctx)
	if err != nil {
		return err
	}
	i := findUser(users, username)
	if i < 0 {
		return domain.ErrUserNotFound
	}
	fn(&users[i])
	return s.saveUsers(ctx, users)
}

func (s *LocalStore) DeleteUser(ctx context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	users, err := s.users(ctx)
	if err != nil {
		return err
	}
	i := findUser(users, username)
	if i < 0 {
		return domain.ErrUserNotFound
	}
	return s.saveUsers(ctx, append(users[:i], users[i+1:]...))
}

func (s *LocalStore) GetLogs(ctx context.Context) ([]domain.AuditLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.logs(ctx)
}

func (s *LocalStore) logs(ctx context.Context) ([]domain.AuditLog, error) {
	logs := []domain.AuditLog{}
	if _, err := readJSON(ctx, s.kv, ports.KeyAuditLogs, &logs); err != nil {
		return nil, err
	}
	if logs == nil {
		logs = []domain.AuditLog{}
	}
	return logs, nil
}

// AddLogEntry prepends l and keeps only the most recent LocalLogCap entries.
func (s *LocalStore) AddLogEntry(ctx context.Context, l domain.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	logs, err := s.logs(ctx)
	if err != nil {
		return err
	}
	logs = append([]domain.AuditLog{l}, logs...)
	if len(logs) > domain.LocalLogCap {
		logs = logs[:domain.LocalLogCap]
	}
	return writeJSON(ctx, s.kv, ports.KeyAuditLogs, logs)
}

// SubscribeToChanges has nothing to watch locally.
func (s *LocalStore) SubscribeToChanges(func()) func() {
	return func() {}
}

// CreateBackup reads each collection under its own lock.
func (s *LocalStore) CreateBackup(ctx context.Context) (domain.Backup, error) {
	return createBackup(ctx, s, s.kv, domain.SourceLocal, s.now())
}

func (s *LocalStore) RestoreBackup(ctx context.Context, r io.Reader) (domain.RestoreResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := restoreBackup(ctx, s.kv, r); err != nil {
		s.log.Warn().Err(err).Msg("restore rejected")
		return domain.RestoreResult{}, err
	}
	s.log.Info().Msg("backup restored into local storage")
	return domain.RestoreResult{}, nil
}

func (s *LocalStore) Close(context.Context) error {
	return s.kv.Close()
}

func findUser(users []domain.User, username string) int {
	for i, u := range users {
		if u.Username == username {
			return i
		}
	}
	return -1
}

func findUserFold(users []domain.User, username string) int {
	for i, u := range users {
		if strings.EqualFold(u.Username, username) {
			return i
		}
	}
	return -1
}
