package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

const notifyChannel = "crm_changes"

// Watch holds a dedicated connection in LISTEN mode and calls fn with the
// table name carried by each notification. Tables not in collections are
// ignored.
func (b *Backend) Watch(ctx context.Context, collections []string, fn func(collection string)) error {
	conn, err := pgx.Connect(ctx, b.dsn)
	if err != nil {
		return fmt.Errorf("listen connect: %w", err)
	}
	defer conn.Close(context.Background())

	if _, err := conn.Exec(ctx, "LISTEN "+notifyChannel); err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	wanted := make(map[string]struct{}, len(collections))
	for _, c := range collections {
		wanted[c] = struct{}{}
	}
	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("wait for notification: %w", err)
		}
		if _, ok := wanted[n.Payload]; ok {
			fn(n.Payload)
		}
	}
}
