package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/altrapisos/crm/internal/api"
	"github.com/altrapisos/crm/internal/api/handler"
	"github.com/altrapisos/crm/internal/api/metrics"
	"github.com/altrapisos/crm/internal/core/ports"
	"github.com/altrapisos/crm/internal/infrastructure/realtime"
	"github.com/altrapisos/crm/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

var httpAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Opens storage, picks remote or local mode once, and serves the JSON API,
the realtime event stream, /metrics and /swagger until interrupted.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&httpAddr, "addr", "", "listen address (default HTTP_ADDR)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	log := logger.Get()
	if httpAddr != "" {
		cfg.HTTPAddr = httpAddr
	}

	hub := realtime.NewHub(log.With().Str("component", "realtime").Logger())
	hub.OnDeliver = func(n realtime.Notice, _, dropped int) {
		metrics.RealtimeNoticesTotal.WithLabelValues(string(n.Source)).Inc()
		metrics.RealtimeDroppedTotal.Add(float64(dropped))
	}
	hub.Start(ctx)

	a, err := bootstrap(ctx, cfg, log, func(topic string) {
		hub.Publish(realtime.Notice{Source: realtime.SourceLocal, Topic: topic})
	})
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := a.close(closeCtx); err != nil {
			log.Warn().Err(err).Msg("closing storage")
		}
	}()

	remoteNotice := hub.Notifier(realtime.SourceRemote)
	unsubscribe := a.store.SubscribeToChanges(func() {
		a.records.Invalidate()
		remoteNotice()
	})
	defer unsubscribe()

	health := map[string]handler.Pinger{"local": a.kv}
	if a.remote != nil {
		health["remote"] = a.remote
	}
	if a.store.Mode() == ports.ModeRemote {
		metrics.RemoteMode.Set(1)
	} else {
		metrics.RemoteMode.Set(0)
	}

	e := api.NewRouter(api.Deps{
		Logger:    log,
		JWTSecret: cfg.Auth.JWTSecret,
		Auth:      a.auth,
		Audit:     a.audit,
		Records:   a.records,
		Options:   a.options,
		Assistant: a.assistant,
		Vault:     a.vault,
		Events:    hub,
		Mode:      a.store.Mode(),
		Remote:    a.remoteCfg,
		KV:        a.kv,
		Health:    health,
	})
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Str("mode", string(a.store.Mode())).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
