package ports

import "context"

// Fixed keys of the local key-value store.
const (
	KeyRecords      = "crm_data"
	KeyOptions      = "crm_options"
	KeyUsers        = "crm_users"
	KeyAuditLogs    = "crm_audit_logs"
	KeyRemoteConfig = "remote_config"
)

// KVStore persists opaque string blobs (JSON documents) under fixed keys.
type KVStore interface {
	// Get returns the stored value and whether the key exists.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	// Remove deletes key. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}
