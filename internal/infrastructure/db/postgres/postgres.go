// Package postgres is the relational remote backend: gorm for the collection
// tables and a dedicated pgx connection for LISTEN/NOTIFY change feeds.
package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const defaultTimeout = 10 * time.Second

// Config captures the settings for establishing a Postgres connection.
type Config struct {
	DSN     string
	Timeout time.Duration
}

// Connect opens the gorm handle, pings the server and migrates the schema.
func Connect(ctx context.Context, cfg Config) (*Backend, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("postgres open: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("postgres handle: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}

	b := &Backend{db: db, dsn: cfg.DSN}
	if err := b.Migrate(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return b, nil
}

const notifyFunction = `
CREATE OR REPLACE FUNCTION crm_notify_change() RETURNS trigger AS $$
BEGIN
	PERFORM pg_notify('` + notifyChannel + `', TG_TABLE_NAME);
	RETURN NULL;
END;
$$ LANGUAGE plpgsql`

// Migrate creates the tables and the change notification triggers.
func (b *Backend) Migrate(ctx context.Context) error {
	db := b.db.WithContext(ctx)
	if err := db.AutoMigrate(&recordRow{}, &settingsRow{}, &userRow{}, &auditRow{}); err != nil {
		return fmt.Errorf("postgres migrate: %w", err)
	}
	if err := db.Exec(notifyFunction).Error; err != nil {
		return fmt.Errorf("create notify function: %w", err)
	}
	for _, table := range []string{tableRecords, tableSettings, tableUsers} {
		stmts := []string{
			fmt.Sprintf(`DROP TRIGGER IF EXISTS crm_notify ON %s`, table),
			fmt.Sprintf(`CREATE TRIGGER crm_notify AFTER INSERT OR UPDATE OR DELETE ON %s FOR EACH STATEMENT EXECUTE FUNCTION crm_notify_change()`, table),
		}
		for _, stmt := range stmts {
			if err := db.Exec(stmt).Error; err != nil {
				return fmt.Errorf("install trigger on %s: %w", table, err)
			}
		}
	}
	return nil
}
