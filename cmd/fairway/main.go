package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/okian/fairway/internal/adapters/http/api"
	"github.com/okian/fairway/internal/adapters/http/swagger"
	"github.com/okian/fairway/internal/adapters/live"
	"github.com/okian/fairway/internal/adapters/upstream"
	app "github.com/okian/fairway/internal/app"
	"github.com/okian/fairway/internal/config"
	"github.com/okian/fairway/internal/domain/ranking"
	"github.com/okian/fairway/pkg/logger"
	"github.com/okian/fairway/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout           = 10 * time.Second
	writeTimeout          = 30 * time.Second
	idleTimeout           = 60 * time.Second
	readHeaderTimeout     = 5 * time.Second
	shutdownTimeout       = 30 * time.Second
	systemMetricsInterval = 10 * time.Second
	upstreamBurst         = 5
)

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		logger.Get().Error(ctx, "fairway exited", logger.Error(err))
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// Load configuration (defaults -> .env -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	if cfg.LogFormat != "" && cfg.LogFormat != "text" {
		if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
			return err
		}
	}
	log := logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	client, err := upstream.New(cfg.UpstreamURL, cfg.TournamentID,
		upstream.WithToken(cfg.UpstreamToken),
		upstream.WithTimeout(config.Duration(cfg.UpstreamTimeoutMS)),
		upstream.WithRateLimit(cfg.UpstreamRPS, upstreamBurst),
		upstream.WithLogger(log.Named("upstream")),
	)
	if err != nil {
		return err
	}

	opts := []app.Option{
		app.WithLogger(log),
		app.WithCriterion(ranking.ParseCriterion(cfg.Criterion)),
		app.WithPageSize(cfg.PageSize),
		app.WithPageInterval(config.Duration(cfg.PageIntervalMS)),
		app.WithTotalHoles(cfg.TotalHoles),
		app.WithDebounce(config.Duration(cfg.DebounceMS)),
		app.WithPollInterval(config.Duration(cfg.PollIntervalMS)),
		app.WithReconnectMax(config.Duration(cfg.ReconnectMaxMS)),
		app.WithDedupeSize(cfg.DedupeSize),
		app.WithDrainTimeout(config.Duration(cfg.DrainTimeoutMS)),
	}
	if cfg.PushURL != "" {
		opts = append(opts, app.WithPush(&live.PushStrategy{URL: cfg.PushURL, Token: cfg.PushToken}))
	}

	svc := app.New(client, opts...)
	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer svc.Stop()

	go startSystemMetricsUpdater(ctx)

	router := chi.NewRouter()
	api.NewServer(api.Dependencies{
		Board:        svc,
		Assigner:     svc,
		Refresher:    svc,
		Stats:        svc,
		WinnersLimit: cfg.WinnersLimit,
	}, 0).Register(router)
	swagger.Register(router)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "server stopped")
	return nil
}

// startSystemMetricsUpdater periodically records process metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			var m runtime.MemStats
			runtime.ReadMemStats(&m)
			metrics.UpdateSystemMemoryUsage(m.Alloc)
			metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
		}
	}
}
