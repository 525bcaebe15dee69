// Package main initializes and starts the HandMind API server,
// setting up configuration, logging, database connections, repositories,
// services, handlers, and optional TLS.
package main

import (
	"cmp"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	nethttp "net/http"

	"github.com/atinyakov/handmind/internal/auth"
	"github.com/atinyakov/handmind/internal/config"
	"github.com/atinyakov/handmind/internal/db"
	"github.com/atinyakov/handmind/internal/logger"
	"github.com/atinyakov/handmind/internal/middleware"
	"github.com/atinyakov/handmind/internal/repository"
	"github.com/atinyakov/handmind/internal/server/handler/http"
	"github.com/atinyakov/handmind/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Parse command-line, config file and environment configuration.
	options := config.Parse()

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(options.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	zapLogger := log.Log

	if err := options.Validate(); err != nil {
		zapLogger.Fatal("invalid configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize PostgreSQL connection and schema.
	postgresDB, err := db.InitPostgres(ctx, options.DatabaseDSN)
	if err != nil {
		zapLogger.Fatal("cannot init database", zap.Error(err))
	}
	defer postgresDB.Close()

	if options.Seed {
		n, err := db.Seed(ctx, postgresDB, zapLogger)
		if err != nil {
			zapLogger.Fatal("failed to seed modules", zap.Error(err))
		}
		zapLogger.Info("seeded modules", zap.Int("inserted", n))
	}

	// Token manager refuses to start without a secret.
	tokens, err := auth.NewTokenManager(options.JWTSecret, options.TokenTTL.Duration)
	if err != nil {
		zapLogger.Fatal("cannot init token manager", zap.Error(err))
	}
	hasher := auth.NewBcryptHasher(options.BcryptCost)

	// Initialize repositories.
	userRepo := repository.NewPostgresUserRepository(postgresDB)
	moduleRepo := repository.NewPostgresModuleRepository(postgresDB)

	// Initialize business-logic services.
	authService := service.NewAuthService(userRepo, hasher, tokens, zapLogger)
	moduleService := service.NewModuleService(moduleRepo, zapLogger)

	// Metrics registry with Go runtime and DB pool collectors.
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewDBStatsCollector(postgresDB, "handmind"),
	)
	metrics := middleware.NewMetrics(registry)

	trustedProxies, err := middleware.ParseTrustedProxies(options.TrustedProxies)
	if err != nil {
		zapLogger.Fatal("invalid trusted proxies", zap.Error(err))
	}

	// Optional Redis-backed rate limiting of the auth endpoints.
	var limiter *middleware.RateLimiter
	if options.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: options.RedisAddr})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			zapLogger.Warn("redis unreachable, rate limiter will fail open", zap.String("addr", options.RedisAddr), zap.Error(err))
		}
		limiter = middleware.NewRateLimiter(rdb, options.AuthRateLimit, options.AuthRateWindow.Duration, metrics, zapLogger)
	}

	// Build the router with middleware and routes.
	router := http.NewRouter(http.RouterDeps{
		Auth:           http.NewAuthHandler(authService, zapLogger),
		Modules:        http.NewModuleHandler(moduleService, zapLogger),
		Health:         &http.HealthHandler{DB: postgresDB, Logger: zapLogger},
		Verifier:       tokens,
		Users:          userRepo,
		Metrics:        metrics,
		MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		RateLimiter:    limiter,
		AllowedOrigins: options.AllowedOrigins,
		TrustedProxies: trustedProxies,
		RequestTimeout: options.RequestTimeout.Duration,
		Logger:         zapLogger,
	})

	server := &nethttp.Server{
		Addr:              options.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if options.TLSEnabled() {
			server.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
			zapLogger.Info("starting HTTPS server", zap.String("addr", options.Addr))
			errCh <- server.ListenAndServeTLS(options.TLSCert, options.TLSKey)
			return
		}
		zapLogger.Info("starting HTTP server", zap.String("addr", options.Addr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, nethttp.ErrServerClosed) {
			zapLogger.Fatal("server failed", zap.Error(err))
		}
	case <-ctx.Done():
		zapLogger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			zapLogger.Error("graceful shutdown failed", zap.Error(err))
		}
	}
}
