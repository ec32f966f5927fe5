package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/altrapisos/crm/internal/api/middleware"
	"github.com/altrapisos/crm/internal/core/domain"
	"github.com/altrapisos/crm/internal/core/ports"
	"github.com/altrapisos/crm/internal/core/query"
)

var (
	testAdmin = domain.Actor{Username: "mharari", Email: "manuel@harari.mx", Name: "Manuel Harari", Role: domain.RoleAdmin}
	testUser  = domain.Actor{Username: "ana", Email: "ana@altra.mx", Name: "Ana", Role: domain.RoleUser}
)

// newContext builds an echo context with the validator installed and, when
// actor is non-nil, the actor the Auth middleware would have set.
func newContext(method, target, body string, actor *domain.Actor) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if actor != nil {
		c.Set(middleware.ActorKey, *actor)
		c.Set(middleware.RoleKey, actor.Role)
	}
	return c, rec
}

type stubAuthService struct {
	ports.AuthService
	loginFn          func(ctx context.Context, identifier, password string) (*ports.LoginResult, error)
	createFn         func(ctx context.Context, u domain.User, actor domain.Actor) error
	updateFn         func(ctx context.Context, original string, u domain.User, actor domain.Actor) error
	changePasswordFn func(ctx context.Context, username, password string, actor domain.Actor) error
}

func (s *stubAuthService) Login(ctx context.Context, identifier, password string) (*ports.LoginResult, error) {
	return s.loginFn(ctx, identifier, password)
}

func (s *stubAuthService) CreateUser(ctx context.Context, u domain.User, actor domain.Actor) error {
	return s.createFn(ctx, u, actor)
}

func (s *stubAuthService) UpdateUser(ctx context.Context, original string, u domain.User, actor domain.Actor) error {
	return s.updateFn(ctx, original, u, actor)
}

func (s *stubAuthService) ChangePassword(ctx context.Context, username, password string, actor domain.Actor) error {
	return s.changePasswordFn(ctx, username, password, actor)
}

type stubRecordService struct {
	ports.RecordService
	listFn   func(ctx context.Context, f query.Filter, s query.Sort) ([]domain.Record, error)
	getFn    func(ctx context.Context, id string) (domain.Record, error)
	saveFn   func(ctx context.Context, actor domain.Actor, id string, p domain.RecordPatch) (domain.Record, error)
	exportFn func(ctx context.Context, actor domain.Actor, f query.Filter, s query.Sort, w io.Writer) (int, error)
}

func (s *stubRecordService) List(ctx context.Context, f query.Filter, srt query.Sort) ([]domain.Record, error) {
	return s.listFn(ctx, f, srt)
}

func (s *stubRecordService) Get(ctx context.Context, id string) (domain.Record, error) {
	return s.getFn(ctx, id)
}

func (s *stubRecordService) Save(ctx context.Context, actor domain.Actor, id string, p domain.RecordPatch) (domain.Record, error) {
	return s.saveFn(ctx, actor, id, p)
}

func (s *stubRecordService) ExportCSV(ctx context.Context, actor domain.Actor, f query.Filter, srt query.Sort, w io.Writer) (int, error) {
	return s.exportFn(ctx, actor, f, srt, w)
}

type stubAssistant struct {
	analysis string
	briefing string
	order    ports.SalesOrder
	lastLang string
}

func (s *stubAssistant) AnalyzeRecord(_ context.Context, _ domain.Record, _, lang string) string {
	s.lastLang = lang
	return s.analysis
}

func (s *stubAssistant) DailyBriefing(_ context.Context, _ []domain.Record, lang string) string {
	s.lastLang = lang
	return s.briefing
}

func (s *stubAssistant) ParseSalesOrder(context.Context, string) ports.SalesOrder {
	return s.order
}

type stubVault struct {
	backupFn  func(ctx context.Context, actor domain.Actor) (domain.Backup, error)
	restoreFn func(ctx context.Context, actor domain.Actor, r io.Reader) (domain.RestoreResult, error)
}

func (s *stubVault) Backup(ctx context.Context, actor domain.Actor) (domain.Backup, error) {
	return s.backupFn(ctx, actor)
}

func (s *stubVault) Restore(ctx context.Context, actor domain.Actor, r io.Reader) (domain.RestoreResult, error) {
	return s.restoreFn(ctx, actor, r)
}

type memKV struct{ data map[string]string }

func (kv *memKV) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := kv.data[key]
	return v, ok, nil
}

func (kv *memKV) Set(_ context.Context, key, value string) error {
	kv.data[key] = value
	return nil
}

func (kv *memKV) Remove(_ context.Context, key string) error {
	delete(kv.data, key)
	return nil
}

func (kv *memKV) Ping(context.Context) error { return nil }
func (kv *memKV) Close() error               { return nil }

// isBadRequest reports whether err renders as 400: a bind failure or a
// rejected field.
func isBadRequest(err error) bool {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code == http.StatusBadRequest
	}
	var ve *ValidationError
	return errors.As(err, &ve)
}
