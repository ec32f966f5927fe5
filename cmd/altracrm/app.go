package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/altrapisos/crm/internal/core/domain"
	"github.com/altrapisos/crm/internal/core/persistence"
	"github.com/altrapisos/crm/internal/core/ports"
	"github.com/altrapisos/crm/internal/core/service"
	"github.com/altrapisos/crm/internal/infrastructure/ai/gemini"
	"github.com/altrapisos/crm/internal/infrastructure/db/mongo"
	"github.com/altrapisos/crm/internal/infrastructure/db/postgres"
	"github.com/altrapisos/crm/internal/infrastructure/kv/bolt"
	"github.com/altrapisos/crm/internal/infrastructure/kv/file"
	"github.com/altrapisos/crm/internal/infrastructure/kv/redis"
	"github.com/altrapisos/crm/internal/pkg/config"
)

const boltFile = "crm.db"

// app is the fully wired process: storage, facade and services.
type app struct {
	log zerolog.Logger

	kv        ports.KVStore
	remote    ports.RemoteBackend
	remoteCfg config.RemoteConfig
	store     ports.Store

	audit     *service.AuditService
	auth      *service.AuthService
	assistant *service.AssistantService
	records   *service.RecordService
	options   *service.OptionsService
	vault     *service.VaultService
}

// bootstrap opens local storage, tries the remote store once and builds the
// services on top of the chosen facade. notify may be nil.
func bootstrap(ctx context.Context, cfg *config.Config, log zerolog.Logger, notify service.Notify) (*app, error) {
	kv, err := openLocal(ctx, cfg.Local)
	if err != nil {
		return nil, err
	}
	a := &app{log: log, kv: kv}

	rc, ok, err := config.ResolveRemote(ctx, cfg.Remote, kv)
	if err != nil {
		log.Warn().Err(err).Msg("ignoring remote configuration")
	}
	if ok {
		remote, err := openRemote(ctx, rc)
		if err != nil {
			log.Error().Err(err).Str("driver", rc.Driver).Str("url", rc.Redacted()).Msg("remote store unreachable, falling back to local mode")
		} else {
			a.remote, a.remoteCfg = remote, rc
		}
	}
	a.store = persistence.Open(a.remote, kv, log.With().Str("component", "persistence").Logger())

	gen, err := gemini.New(ctx, cfg.Assistant.APIKey, cfg.Assistant.Model)
	if err != nil {
		log.Warn().Err(err).Msg("assistant unavailable, using fallback answers")
		gen, _ = gemini.New(ctx, "", cfg.Assistant.Model)
	}

	svcLog := log.With().Str("component", "service").Logger()
	a.audit = service.NewAuditService(a.store, svcLog)
	a.auth = service.NewAuthService(a.store, a.audit, service.AuthConfig{
		JWTSecret:     cfg.Auth.JWTSecret,
		TokenTTL:      cfg.Auth.TokenTTL,
		HashPasswords: cfg.Auth.HashPasswords,
	}, a.ownerRenamed(notify), svcLog)
	a.assistant = service.NewAssistantService(gen, cfg.Assistant.Language, svcLog)
	a.records = service.NewRecordService(a.store, a.audit, a.assistant, notify, svcLog)
	a.options = service.NewOptionsService(a.store, notify, svcLog)
	a.vault = service.NewVaultService(a.store, a.records, notify, svcLog)

	if err := a.auth.Initialize(ctx); err != nil {
		_ = a.close(ctx)
		return nil, fmt.Errorf("initialize users: %w", err)
	}
	return a, nil
}

// ownerRenamed drops the record snapshot before forwarding the topic, so the
// next save merges over the renamed owner.
func (a *app) ownerRenamed(notify service.Notify) service.Notify {
	return func(topic string) {
		if topic == ports.CollectionRecords && a.records != nil {
			a.records.Invalidate()
		}
		if notify != nil {
			notify(topic)
		}
	}
}

func (a *app) close(ctx context.Context) error {
	return a.store.Close(ctx)
}

// operator is the identity CLI commands act as.
func operator() domain.Actor {
	return domain.DefaultAdmin().Actor()
}

func openLocal(ctx context.Context, cfg config.LocalConfig) (ports.KVStore, error) {
	switch cfg.Driver {
	case config.LocalBolt:
		if err := os.MkdirAll(cfg.Path, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		return bolt.Open(filepath.Join(cfg.Path, boltFile))
	case config.LocalRedis:
		return redis.Open(ctx, redis.Config{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
	default:
		return file.Open(cfg.Path)
	}
}

// openRemote returns an untyped nil on failure so persistence.Open sees
// local mode.
func openRemote(ctx context.Context, rc config.RemoteConfig) (ports.RemoteBackend, error) {
	switch rc.Driver {
	case config.RemoteMongo:
		b, err := mongo.Open(ctx, mongo.Config{URI: rc.URL, Database: rc.Database})
		if err != nil {
			return nil, err
		}
		return b, nil
	case config.RemotePostgres:
		b, err := postgres.Connect(ctx, postgres.Config{DSN: rc.URL})
		if err != nil {
			return nil, err
		}
		return b, nil
	default:
		return nil, fmt.Errorf("%w: unknown driver %q", config.ErrInvalidRemote, rc.Driver)
	}
}
