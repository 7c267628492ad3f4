package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"student-records/internal/cache"
	"student-records/internal/config"
	"student-records/internal/database"
	"student-records/internal/handler"
	"student-records/internal/middleware"
	"student-records/internal/repository"
	"student-records/internal/router"
	"student-records/internal/service"
)

type App struct {
	server       *http.Server
	cleanupFuncs []func()
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	a := &App{}

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.Env,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
		}); err != nil {
			logger.Error("sentry init failed", "error", err)
		} else {
			a.cleanupFuncs = append(a.cleanupFuncs, func() { sentry.Flush(2 * time.Second) })
		}
	}

	logger.Info("connecting to PostgreSQL")
	db, err := database.New(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		a.cleanup()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	a.cleanupFuncs = append(a.cleanupFuncs, db.Close)

	if err := db.EnsureSchema(ctx); err != nil {
		a.cleanup()
		return nil, fmt.Errorf("failed to ensure database schema: %w", err)
	}

	var resultCache cache.Cache = cache.Noop{}
	if cfg.RedisURL != "" {
		client, err := cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			a.cleanup()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		a.cleanupFuncs = append(a.cleanupFuncs, func() {
			if err := client.Close(); err != nil {
				logger.Warn("redis close failed", "error", err)
			}
		})
		resultCache = cache.NewRedisCache(client, "student-records:analytics:")
		logger.Info("analytics cache enabled", "ttl", cfg.AnalyticsCacheTTL)
	}

	userRepo := repository.NewUserRepository(db.Pool)
	tokenRepo := repository.NewTokenRepository(db.Pool)
	analyticsRepo := repository.NewAnalyticsRepository(db.Pool)

	tokenService := service.NewTokenService(tokenRepo, cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)
	authService := service.NewAuthService(userRepo, tokenService)
	analyticsService := service.NewAnalyticsService(analyticsRepo, resultCache, cfg.AnalyticsCacheTTL, logger)

	metrics := middleware.NewMetrics(prometheus.DefaultRegisterer)
	if err := db.RegisterMetrics(prometheus.DefaultRegisterer); err != nil {
		a.cleanup()
		return nil, fmt.Errorf("failed to register pool metrics: %w", err)
	}
	appRouter := router.New(cfg, middleware.NewAuthMiddleware(tokenService), metrics, router.Handlers{
		Auth:    handler.NewAuthHandler(authService),
		Query:   handler.NewQueryHandler(analyticsService),
		Health:  handler.NewHealthHandler(db),
		Metrics: promhttp.Handler(),
	})

	a.server = &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           appRouter,
		ReadHeaderTimeout: cfg.ServerReadHeaderTimeout,
		WriteTimeout:      cfg.ServerWriteTimeout,
		IdleTimeout:       cfg.ServerIdleTimeout,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}
	return a, nil
}

// Run serves until SIGINT/SIGTERM, then drains in-flight requests before
// releasing the pool, the cache client and Sentry.
func (a *App) Run() error {
	serveErr := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case err := <-serveErr:
		a.cleanup()
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case sig := <-stop:
		slog.Info("shutdown requested", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := a.server.Shutdown(ctx)
	a.cleanup()
	if err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

// cleanup releases resources in reverse acquisition order.
func (a *App) cleanup() {
	for i := len(a.cleanupFuncs) - 1; i >= 0; i-- {
		a.cleanupFuncs[i]()
	}
	a.cleanupFuncs = nil
}
