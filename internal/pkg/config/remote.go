package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/altrapisos/crm/internal/core/ports"
)

// Remote drivers.
const (
	RemoteMongo    = "mongo"
	RemotePostgres = "postgres"
)

// ErrInvalidRemote means the connection has no usable driver and URL pair.
var ErrInvalidRemote = errors.New("invalid remote connection")

// RemoteConfig is the hosted store connection. The JSON form is what gets
// persisted under the remote_config key.
type RemoteConfig struct {
	Driver   string `env:"REMOTE_DRIVER"   json:"driver"`
	URL      string `env:"REMOTE_URL"      json:"url"`
	Database string `env:"REMOTE_DATABASE" json:"database,omitempty"`
}

var driverSchemes = map[string][]string{
	RemoteMongo:    {"mongodb://", "mongodb+srv://"},
	RemotePostgres: {"postgres://", "postgresql://"},
}

func knownDriver(d string) bool {
	_, ok := driverSchemes[d]
	return ok
}

// Normalize fills in the driver from the URL scheme when it is missing.
func (r RemoteConfig) Normalize() RemoteConfig {
	r.Driver = strings.ToLower(strings.TrimSpace(r.Driver))
	r.URL = strings.TrimSpace(r.URL)
	if r.Driver != "" {
		return r
	}
	for driver, schemes := range driverSchemes {
		for _, s := range schemes {
			if strings.HasPrefix(r.URL, s) {
				r.Driver = driver
				return r
			}
		}
	}
	return r
}

// Validate requires a known driver and a URL carrying one of its schemes.
func (r RemoteConfig) Validate() error {
	schemes, ok := driverSchemes[r.Driver]
	if !ok {
		return fmt.Errorf("%w: unknown driver %q", ErrInvalidRemote, r.Driver)
	}
	for _, s := range schemes {
		if strings.HasPrefix(r.URL, s) {
			return nil
		}
	}
	return fmt.Errorf("%w: %s url must start with %s", ErrInvalidRemote, r.Driver, strings.Join(schemes, " or "))
}

// Redacted returns the URL without credentials, for logs and status output.
func (r RemoteConfig) Redacted() string {
	at := strings.LastIndex(r.URL, "@")
	scheme := strings.Index(r.URL, "://")
	if at < 0 || scheme < 0 || at < scheme {
		return r.URL
	}
	return r.URL[:scheme+3] + "***" + r.URL[at:]
}

// ResolveRemote picks the environment connection when REMOTE_URL is set,
// otherwise the manual one saved in kv. ok is false when neither yields a
// valid connection, which means the process runs in local mode.
func ResolveRemote(ctx context.Context, env RemoteConfig, kv ports.KVStore) (RemoteConfig, bool, error) {
	if env.URL != "" {
		env = env.Normalize()
		if err := env.Validate(); err != nil {
			return env, false, err
		}
		return env, true, nil
	}

	saved, found, err := LoadRemote(ctx, kv)
	if err != nil || !found {
		return RemoteConfig{}, false, err
	}
	if err := saved.Validate(); err != nil {
		return saved, false, err
	}
	return saved, true, nil
}

// LoadRemote returns the manual connection stored in kv, if any.
func LoadRemote(ctx context.Context, kv ports.KVStore) (RemoteConfig, bool, error) {
	raw, ok, err := kv.Get(ctx, ports.KeyRemoteConfig)
	if err != nil {
		return RemoteConfig{}, false, fmt.Errorf("read remote config: %w", err)
	}
	if !ok || raw == "" {
		return RemoteConfig{}, false, nil
	}
	var r RemoteConfig
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return RemoteConfig{}, false, fmt.Errorf("%w: %v", ErrInvalidRemote, err)
	}
	return r.Normalize(), true, nil
}

// SaveRemote validates r and stores it for the next start.
func SaveRemote(ctx context.Context, kv ports.KVStore, r RemoteConfig) (RemoteConfig, error) {
	r = r.Normalize()
	if err := r.Validate(); err != nil {
		return r, err
	}
	b, err := json.Marshal(r)
	if err != nil {
		return r, err
	}
	if err := kv.Set(ctx, ports.KeyRemoteConfig, string(b)); err != nil {
		return r, fmt.Errorf("save remote config: %w", err)
	}
	return r, nil
}

// ClearRemote forgets the manual connection.
func ClearRemote(ctx context.Context, kv ports.KVStore) error {
	if err := kv.Remove(ctx, ports.KeyRemoteConfig); err != nil {
		return fmt.Errorf("clear remote config: %w", err)
	}
	return nil
}
