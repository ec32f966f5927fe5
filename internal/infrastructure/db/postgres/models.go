package postgres

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/altrapisos/crm/internal/core/domain"
	"github.com/altrapisos/crm/internal/core/ports"
)

const (
	tableRecords  = ports.CollectionRecords
	tableSettings = ports.CollectionSettings
	tableUsers    = ports.CollectionUsers
	tableAudit    = ports.CollectionAuditLogs
)

// stringList stores a []string as a jsonb array. nil is written as [].
type stringList []string

func (l stringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *stringList) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*l = stringList{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("stringList: unsupported source %T", src)
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("stringList: %w", err)
	}
	if out == nil {
		out = []string{}
	}
	*l = out
	return nil
}

type recordRow struct {
	ID               string `gorm:"primaryKey"`
	CompanyName      string
	Website          string
	ContactPerson    string
	ContactPhone     string
	ContactEmail     string
	City             string
	DateAdded        string
	LastActivityDate string
	NextActionDate   string
	NextAction       string
	Owner            string `gorm:"index"`
	Industry         string
	LeadSource       string
	SaleStage        string
	Product          stringList `gorm:"type:jsonb"`
	DealValue        float64
	Notes            string
}

func (recordRow) TableName() string { return tableRecords }

func toRecordRow(r domain.Record) recordRow {
	return recordRow{
		ID:               r.ID,
		CompanyName:      r.CompanyName,
		Website:          r.Website,
		ContactPerson:    r.ContactPerson,
		ContactPhone:     r.ContactPhone,
		ContactEmail:     r.ContactEmail,
		City:             r.City,
		DateAdded:        r.DateAdded,
		LastActivityDate: r.LastActivityDate,
		NextActionDate:   r.NextActionDate,
		NextAction:       r.NextAction,
		Owner:            r.Owner,
		Industry:         r.Industry,
		LeadSource:       r.LeadSource,
		SaleStage:        r.SaleStage,
		Product:          stringList(r.Product),
		DealValue:        r.DealValue,
		Notes:            r.Notes,
	}
}

func (row recordRow) toDomain() domain.Record {
	product := []string(row.Product)
	if product == nil {
		product = []string{}
	}
	return domain.Record{
		ID:               row.ID,
		CompanyName:      row.CompanyName,
		Website:          row.Website,
		ContactPerson:    row.ContactPerson,
		ContactPhone:     row.ContactPhone,
		ContactEmail:     row.ContactEmail,
		City:             row.City,
		DateAdded:        row.DateAdded,
		LastActivityDate: row.LastActivityDate,
		NextActionDate:   row.NextActionDate,
		NextAction:       row.NextAction,
		Owner:            row.Owner,
		Industry:         row.Industry,
		LeadSource:       row.LeadSource,
		SaleStage:        row.SaleStage,
		Product:          product,
		DealValue:        row.DealValue,
		Notes:            row.Notes,
	}
}

type settingsRow struct {
	ID          string     `gorm:"primaryKey"`
	Owners      stringList `gorm:"type:jsonb"`
	Products    stringList `gorm:"type:jsonb"`
	Cities      stringList `gorm:"type:jsonb"`
	Industries  stringList `gorm:"type:jsonb"`
	Stages      stringList `gorm:"type:jsonb"`
	LeadSources stringList `gorm:"type:jsonb"`
}

func (settingsRow) TableName() string { return tableSettings }

func toSettingsRow(o domain.AppOptions) settingsRow {
	return settingsRow{
		ID:          ports.SettingsKey,
		Owners:      stringList(o.Owners),
		Products:    stringList(o.Products),
		Cities:      stringList(o.Cities),
		Industries:  stringList(o.Industries),
		Stages:      stringList(o.Stages),
		LeadSources: stringList(o.LeadSources),
	}
}

func (row settingsRow) toDomain() domain.AppOptions {
	return domain.AppOptions{
		Owners:      row.Owners,
		Products:    row.Products,
		Cities:      row.Cities,
		Industries:  row.Industries,
		Stages:      row.Stages,
		LeadSources: row.LeadSources,
	}
}

type userRow struct {
	Username string `gorm:"primaryKey"`
	Email    string
	Password string
	Name     string
	Role     string
}

func (userRow) TableName() string { return tableUsers }

func toUserRow(u domain.User) userRow {
	return userRow(u)
}

func (row userRow) toDomain() domain.User {
	return domain.User(row)
}

type auditRow struct {
	ID        string `gorm:"primaryKey"`
	Timestamp string `gorm:"index:idx_audit_timestamp,sort:desc"`
	Username  string
	UserEmail string
	Action    string
	Details   string
}

func (auditRow) TableName() string { return tableAudit }

func toAuditRow(l domain.AuditLog) auditRow {
	return auditRow{
		ID:        l.ID,
		Timestamp: l.Timestamp,
		Username:  l.Username,
		UserEmail: l.UserEmail,
		Action:    string(l.Action),
		Details:   l.Details,
	}
}

func (row auditRow) toDomain() domain.AuditLog {
	return domain.AuditLog{
		ID:        row.ID,
		Timestamp: row.Timestamp,
		Username:  row.Username,
		UserEmail: row.UserEmail,
		Action:    domain.AuditAction(row.Action),
		Details:   row.Details,
	}
}
