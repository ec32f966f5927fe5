package ports

import (
	"context"
	"io"
	"time"

	"github.com/altrapisos/crm/internal/core/domain"
	"github.com/altrapisos/crm/internal/core/query"
)

// Assistant response languages.
const (
	LanguageES = "es"
	LanguageEN = "en"
)

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      domain.User `json:"user"`
}

type AuthService interface {
	Initialize(ctx context.Context) error
	Login(ctx context.Context, identifier, password string) (*LoginResult, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	CreateUser(ctx context.Context, u domain.User, actor domain.Actor) error
	UpdateUser(ctx context.Context, originalUsername string, u domain.User, actor domain.Actor) error
	DeleteUser(ctx context.Context, username string, actor domain.Actor) error
	ChangePassword(ctx context.Context, username, newPassword string, actor domain.Actor) error
}

type AuditService interface {
	Add(ctx context.Context, actor domain.Actor, action domain.AuditAction, details string) error
	List(ctx context.Context) ([]domain.AuditLog, error)
}

type RecordService interface {
	Template(actor domain.Actor) domain.Record
	List(ctx context.Context, f query.Filter, s query.Sort) ([]domain.Record, error)
	Get(ctx context.Context, id string) (domain.Record, error)
	Save(ctx context.Context, actor domain.Actor, id string, patch domain.RecordPatch) (domain.Record, error)
	Delete(ctx context.Context, actor domain.Actor, id string) error
	ExportCSV(ctx context.Context, actor domain.Actor, f query.Filter, s query.Sort, w io.Writer) (int, error)
	EmailExport(ctx context.Context, actor domain.Actor, f query.Filter, s query.Sort) (int, error)
	ApplySalesOrder(ctx context.Context, actor domain.Actor, id, text string) (domain.Record, error)
	Dashboard(ctx context.Context) (query.Summary, error)
	// Invalidate drops the cached snapshot; the next read reloads everything.
	Invalidate()
}

type OptionsService interface {
	Get(ctx context.Context) (domain.AppOptions, error)
	Save(ctx context.Context, actor domain.Actor, o domain.AppOptions) (domain.AppOptions, error)
	Add(ctx context.Context, actor domain.Actor, list, value string) (domain.AppOptions, error)
	Remove(ctx context.Context, actor domain.Actor, list, value string) (domain.AppOptions, error)
	Reset(ctx context.Context, actor domain.Actor) (domain.AppOptions, error)
}

// SalesOrder is the structured result of parsing a free-text order.
type SalesOrder struct {
	DealValue float64 `json:"dealValue"`
	SaleStage string  `json:"saleStage"`
	Notes     string  `json:"notes"`
}

// AssistantService never fails: errors become fixed fallback text.
type AssistantService interface {
	AnalyzeRecord(ctx context.Context, r domain.Record, prompt, lang string) string
	DailyBriefing(ctx context.Context, records []domain.Record, lang string) string
	ParseSalesOrder(ctx context.Context, text string) SalesOrder
}

type VaultService interface {
	Backup(ctx context.Context, actor domain.Actor) (domain.Backup, error)
	Restore(ctx context.Context, actor domain.Actor, r io.Reader) (domain.RestoreResult, error)
}
