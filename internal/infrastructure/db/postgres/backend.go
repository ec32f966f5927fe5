package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/altrapisos/crm/internal/core/domain"
	"github.com/altrapisos/crm/internal/core/ports"
)

// Backend maps every CRM collection onto a table.
type Backend struct {
	db  *gorm.DB
	dsn string
}

var _ ports.RemoteBackend = (*Backend)(nil)

func (b *Backend) conn(ctx context.Context) (*gorm.DB, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	return b.db.WithContext(ctx), cancel
}

func (b *Backend) ListRecords(ctx context.Context) ([]domain.Record, error) {
	db, cancel := b.conn(ctx)
	defer cancel()

	var rows []recordRow
	if err := db.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("select records: %w", err)
	}
	records := make([]domain.Record, len(rows))
	for i, row := range rows {
		records[i] = row.toDomain()
	}
	return records, nil
}

func (b *Backend) InsertRecords(ctx context.Context, records []domain.Record) error {
	if len(records) == 0 {
		return nil
	}
	db, cancel := b.conn(ctx)
	defer cancel()

	rows := make([]recordRow, len(records))
	for i, r := range records {
		rows[i] = toRecordRow(r)
	}
	if err := db.CreateInBatches(rows, 100).Error; err != nil {
		return fmt.Errorf("insert records: %w", err)
	}
	return nil
}

func (b *Backend) UpsertRecord(ctx context.Context, r domain.Record) error {
	db, cancel := b.conn(ctx)
	defer cancel()

	row := toRecordRow(r)
	return db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error
}

func (b *Backend) DeleteRecord(ctx context.Context, id string) error {
	db, cancel := b.conn(ctx)
	defer cancel()

	return db.Delete(&recordRow{}, "id = ?", id).Error
}

func (b *Backend) SetRecordOwner(ctx context.Context, id, owner string) error {
	db, cancel := b.conn(ctx)
	defer cancel()

	return db.Model(&recordRow{}).Where("id = ?", id).Update("owner", owner).Error
}

func (b *Backend) GetSettings(ctx context.Context) (domain.AppOptions, bool, error) {
	db, cancel := b.conn(ctx)
	defer cancel()

	var row settingsRow
	err := db.Where("id = ?", ports.SettingsKey).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.AppOptions{}, false, nil
	}
	if err != nil {
		return domain.AppOptions{}, false, fmt.Errorf("select settings: %w", err)
	}
	return row.toDomain(), true, nil
}

func (b *Backend) InsertSettings(ctx context.Context, o domain.AppOptions) error {
	db, cancel := b.conn(ctx)
	defer cancel()

	row := toSettingsRow(o)
	return db.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error
}

func (b *Backend) UpsertSettings(ctx context.Context, o domain.AppOptions) error {
	db, cancel := b.conn(ctx)
	defer cancel()

	row := toSettingsRow(o)
	return db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error
}

func (b *Backend) ListUsers(ctx context.Context) ([]domain.User, error) {
	db, cancel := b.conn(ctx)
	defer cancel()

	var rows []userRow
	if err := db.Order("username").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("select users: %w", err)
	}
	users := make([]domain.User, len(rows))
	for i, row := range rows {
		users[i] = row.toDomain()
	}
	return users, nil
}

func (b *Backend) InsertUser(ctx context.Context, u domain.User) error {
	db, cancel := b.conn(ctx)
	defer cancel()

	row := toUserRow(u)
	if err := db.Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrUserExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// UpdateUser rewrites the row, moving it when the username (primary key)
// changes.
func (b *Backend) UpdateUser(ctx context.Context, username string, u domain.User) error {
	db, cancel := b.conn(ctx)
	defer cancel()

	return db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("username = ?", username).Delete(&userRow{})
		if res.Error != nil {
			return fmt.Errorf("update user: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return domain.ErrUserNotFound
		}
		row := toUserRow(u)
		if err := tx.Create(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return domain.ErrUserExists
			}
			return fmt.Errorf("update user: %w", err)
		}
		return nil
	})
}

func (b *Backend) SetUserProfile(ctx context.Context, username, name, email string) error {
	return b.updateUser(ctx, username, map[string]any{"name": name, "email": email})
}

func (b *Backend) SetUserPassword(ctx context.Context, username, password string) error {
	return b.updateUser(ctx, username, map[string]any{"password": password})
}

func (b *Backend) updateUser(ctx context.Context, username string, fields map[string]any) error {
	db, cancel := b.conn(ctx)
	defer cancel()

	res := db.Model(&userRow{}).Where("username = ?", username).Updates(fields)
	if res.Error != nil {
		return fmt.Errorf("update user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (b *Backend) DeleteUser(ctx context.Context, username string) error {
	db, cancel := b.conn(ctx)
	defer cancel()

	res := db.Where("username = ?", username).Delete(&userRow{})
	if res.Error != nil {
		return fmt.Errorf("delete user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (b *Backend) ListLogs(ctx context.Context, limit int) ([]domain.AuditLog, error) {
	db, cancel := b.conn(ctx)
	defer cancel()

	var rows []auditRow
	if err := db.Order("timestamp DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("select logs: %w", err)
	}
	logs := make([]domain.AuditLog, len(rows))
	for i, row := range rows {
		logs[i] = row.toDomain()
	}
	return logs, nil
}

func (b *Backend) InsertLog(ctx context.Context, l domain.AuditLog) error {
	db, cancel := b.conn(ctx)
	defer cancel()

	row := toAuditRow(l)
	return db.Create(&row).Error
}

func (b *Backend) Ping(ctx context.Context) error {
	sqlDB, err := b.db.DB()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	return sqlDB.PingContext(ctx)
}

func (b *Backend) Close(context.Context) error {
	sqlDB, err := b.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
