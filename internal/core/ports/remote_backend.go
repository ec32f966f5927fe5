package ports

import (
	"context"

	"github.com/altrapisos/crm/internal/core/domain"
)

// Remote collection names. They double as realtime notification keys.
const (
	CollectionRecords   = "records"
	CollectionSettings  = "settings"
	CollectionUsers     = "users"
	CollectionAuditLogs = "audit_logs"
)

// SettingsKey identifies the single global settings row.
const SettingsKey = "global"

// WatchedCollections are the collections whose changes trigger a reload.
var WatchedCollections = []string{CollectionRecords, CollectionSettings, CollectionUsers}

// RemoteBackend is the collection-level client of the hosted store.
type RemoteBackend interface {
	ListRecords(ctx context.Context) ([]domain.Record, error)
	InsertRecords(ctx context.Context, records []domain.Record) error
	// UpsertRecord inserts r or replaces the row with the same id.
	UpsertRecord(ctx context.Context, r domain.Record) error
	// DeleteRecord removes the row with id; a missing row is not an error.
	DeleteRecord(ctx context.Context, id string) error
	SetRecordOwner(ctx context.Context, id, owner string) error

	// GetSettings returns the global settings row and whether it exists.
	GetSettings(ctx context.Context) (domain.AppOptions, bool, error)
	InsertSettings(ctx context.Context, o domain.AppOptions) error
	UpsertSettings(ctx context.Context, o domain.AppOptions) error

	ListUsers(ctx context.Context) ([]domain.User, error)
	// InsertUser returns domain.ErrUserExists on a username conflict.
	InsertUser(ctx context.Context, u domain.User) error
	// UpdateUser replaces the row keyed by username with u.
	UpdateUser(ctx context.Context, username string, u domain.User) error
	SetUserProfile(ctx context.Context, username, name, email string) error
	SetUserPassword(ctx context.Context, username, password string) error
	// DeleteUser returns domain.ErrUserNotFound when no row matched.
	DeleteUser(ctx context.Context, username string) error

	// ListLogs returns at most limit entries, newest first.
	ListLogs(ctx context.Context, limit int) ([]domain.AuditLog, error)
	InsertLog(ctx context.Context, l domain.AuditLog) error

	// Watch blocks, invoking fn on every insert/update/delete in any of the
	// given collections, until ctx is cancelled or the feed fails.
	Watch(ctx context.Context, collections []string, fn func(collection string)) error

	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
