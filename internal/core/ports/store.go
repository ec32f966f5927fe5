package ports

import (
	"context"
	"io"

	"github.com/altrapisos/crm/internal/core/domain"
)

// Mode names the storage target chosen at startup.
type Mode string

const (
	ModeRemote Mode = "remote"
	ModeLocal  Mode = "local"
)

// Store is the persistence facade: one CRUD/query API over records, options,
// users and audit logs regardless of the backing store.
type Store interface {
	Mode() Mode

	GetRecords(ctx context.Context) ([]domain.Record, error)
	// AddOrUpdateRecord stores the full record; no merge happens here.
	AddOrUpdateRecord(ctx context.Context, r domain.Record) error
	// DeleteRecord is idempotent.
	DeleteRecord(ctx context.Context, id string) error

	// GetOptions always returns every list populated.
	GetOptions(ctx context.Context) (domain.AppOptions, error)
	SaveOptions(ctx context.Context, o domain.AppOptions) error
	ResetOptions(ctx context.Context) (domain.AppOptions, error)
	AddOwner(ctx context.Context, name string) error
	// UpdateOwnerNameGlobally renames an owner on every record and in the
	// owner vocabulary. It is not atomic across remote rows.
	UpdateOwnerNameGlobally(ctx context.Context, oldName, newName string) error

	GetUsers(ctx context.Context) ([]domain.User, error)
	InsertUser(ctx context.Context, u domain.User) error
	ReplaceUser(ctx context.Context, originalUsername string, u domain.User) error
	SyncUserProfile(ctx context.Context, username, name, email string) error
	SetUserPassword(ctx context.Context, username, password string) error
	DeleteUser(ctx context.Context, username string) error

	GetLogs(ctx context.Context) ([]domain.AuditLog, error)
	AddLogEntry(ctx context.Context, l domain.AuditLog) error

	// SubscribeToChanges invokes callback on any change to records, settings
	// or users. The returned func tears the subscription down.
	SubscribeToChanges(callback func()) (unsubscribe func())

	CreateBackup(ctx context.Context) (domain.Backup, error)
	// RestoreBackup always writes into local storage.
	RestoreBackup(ctx context.Context, r io.Reader) (domain.RestoreResult, error)

	Close(ctx context.Context) error
}
