package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	defaultTimeout  = 10 * time.Second
	defaultDatabase = "altracrm"
	appName         = "altracrm"
)

// Config selects the hosted deployment. Database defaults to altracrm.
type Config struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// Open connects, pings and prepares indexes. The returned backend owns the
// client; Close disconnects it.
func Open(ctx context.Context, cfg Config) (*Backend, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if cfg.Database == "" {
		cfg.Database = defaultDatabase
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	opts := options.Client().ApplyURI(cfg.URI).SetAppName(appName).SetServerSelectionTimeout(timeout)
	client, err := mongo.Connect(connectCtx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(connectCtx)
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	b := NewBackend(client, client.Database(cfg.Database))
	if err := b.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(connectCtx)
		return nil, fmt.Errorf("mongo indexes: %w", err)
	}
	return b, nil
}
