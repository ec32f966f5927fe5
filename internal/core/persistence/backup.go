package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/altrapisos/crm/internal/core/domain"
	"github.com/altrapisos/crm/internal/core/ports"
)

// createBackup snapshots records, options and logs through the facade. Users
// always come from the local blob, even in remote mode.
func createBackup(ctx context.Context, s ports.Store, kv ports.KVStore, source string, now time.Time) (domain.Backup, error) {
	records, err := s.GetRecords(ctx)
	if err != nil {
		return domain.Backup{}, fmt.Errorf("backup records: %w", err)
	}
	options, err := s.GetOptions(ctx)
	if err != nil {
		return domain.Backup{}, fmt.Errorf("backup options: %w", err)
	}
	logs, err := s.GetLogs(ctx)
	if err != nil {
		return domain.Backup{}, fmt.Errorf("backup logs: %w", err)
	}

	var users *string
	raw, ok, err := kv.Get(ctx, ports.KeyUsers)
	if err != nil {
		return domain.Backup{}, fmt.Errorf("backup users: %w", err)
	}
	if ok {
		users = &raw
	}

	data := &domain.BackupData{Users: users}
	if data.Records, err = embed(records); err != nil {
		return domain.Backup{}, err
	}
	if data.Options, err = embed(options); err != nil {
		return domain.Backup{}, err
	}
	if data.Logs, err = embed(logs); err != nil {
		return domain.Backup{}, err
	}

	return domain.Backup{
		Version:   domain.BackupVersion,
		Timestamp: now.UTC().Format(time.RFC3339Nano),
		Source:    source,
		Data:      data,
	}, nil
}

func embed(v any) (*string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode backup section: %w", err)
	}
	s := string(b)
	return &s, nil
}

// restoreBackup parses r and writes every present section into kv. Nothing is
// written unless the whole document parses and carries a data section.
func restoreBackup(ctx context.Context, kv ports.KVStore, r io.Reader) error {
	content, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidBackup, err)
	}
	var b domain.Backup
	if err := json.Unmarshal(content, &b); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidBackup, err)
	}
	if b.Data == nil {
		return fmt.Errorf("%w: missing data section", domain.ErrInvalidBackup)
	}

	sections := []struct {
		key string
		val *string
	}{
		{ports.KeyRecords, b.Data.Records},
		{ports.KeyOptions, b.Data.Options},
		{ports.KeyUsers, b.Data.Users},
		{ports.KeyAuditLogs, b.Data.Logs},
	}
	for _, sec := range sections {
		if sec.val == nil || *sec.val == "" {
			continue
		}
		if err := kv.Set(ctx, sec.key, *sec.val); err != nil {
			return fmt.Errorf("restore %s: %w", sec.key, err)
		}
	}
	return nil
}

// WriteBackup serialises b with two-space indentation.
func WriteBackup(w io.Writer, b domain.Backup) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(b)
}
