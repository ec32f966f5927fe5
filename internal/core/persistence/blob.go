// Package persistence implements the storage facade over either the hosted
// remote store or the local key-value store. The implementation is chosen once
// at startup by Open and injected into every consumer.
package persistence

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/altrapisos/crm/internal/core/ports"
)

// readJSON decodes the blob at key into v and reports whether it existed.
func readJSON(ctx context.Context, kv ports.KVStore, key string, v any) (bool, error) {
	raw, ok, err := kv.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", key, err)
	}
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return true, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func writeJSON(ctx context.Context, kv ports.KVStore, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := kv.Set(ctx, key, string(b)); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}
