package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v3"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"media-tracker/internal/config"
	"media-tracker/internal/database"
	"media-tracker/internal/metrics"
	"media-tracker/internal/middleware"
	"media-tracker/internal/repository"
	"media-tracker/internal/repository/memory"
	"media-tracker/internal/router"
	"media-tracker/internal/service"
	"media-tracker/internal/tmdb"
)

const (
	shutdownTimeout = 10 * time.Second
	sentryFlush     = 2 * time.Second
)

func newServeCommand(swaggerPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), *swaggerPath)
		},
	}
}

// backend groups the stores the services are built on.
type backend struct {
	media interface {
		service.MediaStore
		service.QueueMax
		service.ItemLookup
	}
	social   service.SocialStore
	settings service.SettingsStore
	locks    service.LockStore
}

func newBackend(ctx context.Context, cfg *config.Config, stores *database.Stores) (*backend, error) {
	if cfg.Storage == config.StorageMemory {
		slog.Warn("using in-memory storage, data is lost on exit")
		store := memory.NewStore()
		return &backend{media: store, social: store, settings: store, locks: store}, nil
	}

	if err := migrate(ctx, stores); err != nil {
		return nil, err
	}
	return &backend{
		media:    repository.NewMediaRepository(stores.SQL),
		social:   repository.NewSocialRepository(stores.SQL),
		settings: repository.NewSettingsRepository(stores.SQL),
		locks:    repository.NewLockRepository(stores.MongoDB),
	}, nil
}

func newSequencer(cfg *config.Config, stores *database.Stores, b *backend) service.Sequencer {
	if cfg.Sequencer == config.SequencerRedis {
		slog.Info("queue numbers issued by redis counter")
		return service.NewRedisSequencer(stores.Redis, b.media)
	}
	return service.NewMaxSequencer(b.media)
}

func newRateLimiter(cfg *config.Config, stores *database.Stores) middleware.Limiter {
	if stores.Redis != nil {
		return middleware.NewRateLimiter(stores.Redis, cfg.RateLimit.Max, cfg.RateLimit.WindowSeconds)
	}
	slog.Warn("Redis unavailable, rate limiting per process")
	return middleware.NewLocalRateLimiter(cfg.RateLimit.Max, cfg.RateLimit.WindowSeconds)
}

func buildDeps(ctx context.Context, cfg *config.Config, stores *database.Stores) (router.Deps, error) {
	b, err := newBackend(ctx, cfg, stores)
	if err != nil {
		return router.Deps{}, err
	}

	verifier, err := middleware.NewVerifier(ctx, cfg.OIDC)
	if err != nil {
		return router.Deps{}, err
	}

	settings := service.NewSettingsService(b.settings)
	locks := service.NewLockService(b.locks)
	media := service.NewMediaService(b.media, newSequencer(cfg, stores, b), settings, locks)
	deps := router.Deps{
		Media:       media,
		Locks:       locks,
		Social:      service.NewSocialService(b.social, b.media),
		Settings:    settings,
		Catalog:     service.NewCatalogService(tmdb.NewClient(cfg.TMDB.APIKey, cfg.TMDB.BaseURL)),
		Verifier:    verifier,
		RateLimiter: newRateLimiter(cfg, stores),
	}

	if cfg.MetricsEnabled {
		m, err := metrics.New()
		if err != nil {
			return router.Deps{}, fmt.Errorf("register metrics: %w", err)
		}
		media.WithEvents(m)
		locks.WithEvents(m)
		deps.Metrics = m
	}
	return deps, nil
}

// swaggerTitle reads info.title from an OpenAPI document.
func swaggerTitle(doc []byte) (string, error) {
	var openapi struct {
		Info struct {
			Title string `yaml:"title"`
		} `yaml:"info"`
	}
	if err := yaml.Unmarshal(doc, &openapi); err != nil {
		return "", fmt.Errorf("parse swagger document: %w", err)
	}
	return openapi.Info.Title, nil
}

func initSentry(cfg config.SentryConfig) (bool, error) {
	if cfg.DSN == "" {
		return false, nil
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		AttachStacktrace: true,
		ServerName:       "media-tracker",
	})
	if err != nil {
		return false, fmt.Errorf("init sentry: %w", err)
	}
	slog.Info("error reporting enabled", "environment", cfg.Environment)
	return true, nil
}

func runServe(ctx context.Context, swaggerPath string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.TMDB.APIKey == "" {
		slog.Warn("TMDB_API_KEY is empty, catalog lookups will fail")
	}

	reporting, err := initSentry(cfg.Sentry)
	if err != nil {
		return err
	}
	if reporting {
		defer sentry.Flush(sentryFlush)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stores, err := database.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := stores.Close(context.WithoutCancel(ctx)); err != nil {
			slog.Error("failed to close stores", "error", err)
		}
	}()

	deps, err := buildDeps(ctx, cfg, stores)
	if err != nil {
		return err
	}
	deps.AccessLog = true

	// Swagger docs
	if doc, err := os.ReadFile(swaggerPath); err != nil {
		slog.Warn("swagger.yaml not found, swagger UI will be unavailable", "error", err)
	} else if title, err := swaggerTitle(doc); err != nil {
		slog.Warn("invalid swagger.yaml, swagger UI will be unavailable", "error", err)
	} else {
		deps.SwaggerYAML, deps.SwaggerTitle = doc, title
	}

	app := router.NewApp(deps)
	addr := ":" + cfg.Port

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("starting media tracker", "addr", addr, "storage", cfg.Storage, "sequencer", cfg.Sequencer)
		return app.Listen(addr, fiber.ListenConfig{DisableStartupMessage: true})
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down media tracker...")
		return app.ShutdownWithTimeout(shutdownTimeout)
	})
	return g.Wait()
}
