package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/altrapisos/crm/docs"
	"github.com/altrapisos/crm/internal/api/handler"
	"github.com/altrapisos/crm/internal/api/middleware"
	"github.com/altrapisos/crm/internal/core/domain"
	"github.com/altrapisos/crm/internal/core/ports"
	"github.com/altrapisos/crm/internal/pkg/config"
)

// Deps carries everything the HTTP surface needs.
type Deps struct {
	Logger    zerolog.Logger
	JWTSecret string

	Auth      ports.AuthService
	Audit     ports.AuditService
	Records   ports.RecordService
	Options   ports.OptionsService
	Assistant ports.AssistantService
	Vault     ports.VaultService
	Events    handler.NoticeSource

	Mode   ports.Mode
	Remote config.RemoteConfig
	KV     ports.KVStore
	Health map[string]handler.Pinger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(d.Logger))
	e.Use(echoprometheus.NewMiddleware("altracrm"))

	// --- Handlers ---
	health := handler.NewHealthHandler(d.Health)
	status := handler.NewStatusHandler(d.Mode, d.Remote, d.KV)
	auth := handler.NewAuthHandler(d.Auth)
	records := handler.NewRecordHandler(d.Records)
	options := handler.NewOptionsHandler(d.Options)
	users := handler.NewUserHandler(d.Auth, d.Audit)
	assistant := handler.NewAssistantHandler(d.Assistant, d.Records)
	vault := handler.NewVaultHandler(d.Vault)
	events := handler.NewEventsHandler(d.Events)

	// --- Public routes ---
	e.GET("/health", health.Liveness)
	e.GET("/health/ready", health.Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	v1 := e.Group("/v1")
	v1.GET("/status", status.Status)
	v1.PUT("/connection", status.SaveConnection)
	v1.DELETE("/connection", status.ClearConnection)
	v1.POST("/auth/login", auth.Login)

	// --- Authenticated routes ---
	authed := v1.Group("", middleware.Auth(d.JWTSecret))
	admin := middleware.RBAC(domain.RoleAdmin)

	authed.GET("/auth/me", auth.Me)
	authed.GET("/events", events.Stream)

	authed.GET("/records", records.List)
	authed.GET("/records/template", records.Template)
	authed.GET("/records/export.csv", records.ExportCSV)
	authed.POST("/records/export-email", records.EmailExport)
	authed.GET("/records/:id", records.Get)
	authed.PUT("/records/:id", records.Save)
	authed.DELETE("/records/:id", records.Delete)
	authed.POST("/records/:id/apply-order", records.ApplyOrder)
	authed.GET("/dashboard", records.Dashboard)

	authed.GET("/options", options.Get)
	authed.PUT("/options", options.Save, admin)
	authed.POST("/options/reset", options.Reset, admin)
	authed.POST("/options/:list", options.Add, admin)
	authed.DELETE("/options/:list", options.Remove, admin)

	authed.GET("/users", users.List, admin)
	authed.POST("/users", users.Create, admin)
	authed.PUT("/users/:username", users.Update, admin)
	authed.DELETE("/users/:username", users.Delete, admin)
	authed.PUT("/users/:username/password", users.ChangePassword)
	authed.GET("/audit-logs", users.AuditLogs, admin)

	authed.POST("/assistant/analyze", assistant.Analyze)
	authed.GET("/assistant/briefing", assistant.Briefing)
	authed.POST("/assistant/parse-order", assistant.ParseOrder)

	authed.GET("/vault/backup", vault.Backup, admin)
	authed.POST("/vault/restore", vault.Restore, admin)

	return e
}
