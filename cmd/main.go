/**
 * @description
 * Entry point for the PayID server.
 *
 * Serves PayID lookups on the public port and health/metrics on the admin
 * port. Redis (rate limiting) and RabbitMQ (lookup events) are optional; the
 * server starts without them and logs the degraded mode.
 */
package main

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

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/wangpengwen/payid/internal/api"
	"github.com/wangpengwen/payid/internal/app"
	"github.com/wangpengwen/payid/internal/config"
	"github.com/wangpengwen/payid/internal/logging"
	"github.com/wangpengwen/payid/internal/store"
	"github.com/wangpengwen/payid/pkg/rabbitmq"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg, err := config.LoadConfig(".")
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	pgConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Error("unable to parse database URL", "error", err)
		os.Exit(1)
	}
	pgConfig.MaxConns = 50
	pgConfig.MinConns = 5
	pgConfig.MaxConnLifetime = 30 * time.Minute
	pgConfig.MaxConnIdleTime = 5 * time.Minute
	pgConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	dbpool, err := pgxpool.NewWithConfig(ctx, pgConfig)
	if err != nil {
		logger.Error("unable to connect to database", "error", err)
		os.Exit(1)
	}
	defer dbpool.Close()
	logger.Info("database connection established")

	repository := store.NewRepository(dbpool)

	var limiter api.LookupRateLimiter
	if cfg.LookupRateLimitPerMinute > 0 {
		if cfg.RedisURL == "" {
			logger.Warn("redis url missing; lookup rate limiting disabled", "env", "REDIS_URL")
		} else if redisOptions, parseErr := redis.ParseURL(cfg.RedisURL); parseErr != nil {
			logger.Warn("redis url parse failed; lookup rate limiting disabled", "error", parseErr)
		} else {
			redisClient := redis.NewClient(redisOptions)
			pingCtx, cancelPing := context.WithTimeout(ctx, 5*time.Second)
			pingErr := redisClient.Ping(pingCtx).Err()
			cancelPing()
			if pingErr != nil {
				logger.Warn("redis ping failed; lookup rate limiting disabled", "error", pingErr)
				redisClient.Close()
			} else {
				defer redisClient.Close()
				limiter = app.NewRedisLookupRateLimiter(redisClient, cfg.RedisRateLimitPrefix)
				logger.Info("redis connected", "requests_per_minute", cfg.LookupRateLimitPerMinute)
			}
		}
	}

	var publisher rabbitmq.Publisher = &rabbitmq.EventProducerFallback{Logger: logger}
	if cfg.RabbitMQURL != "" {
		if producer, err := rabbitmq.NewEventProducer(cfg.RabbitMQURL); err == nil {
			publisher = producer
			logger.Info("rabbitmq connected", "exchange", cfg.EventsExchange)
		} else {
			logger.Warn("failed to connect to RabbitMQ, using fallback publisher", "error", err)
		}
	}
	defer publisher.Close()

	metrics := app.NewMetrics()
	service := app.NewService(repository, publisher, metrics, logger, cfg.EventsExchange)

	scheduler := app.NewScheduler(repository, metrics, logger, cfg.MetricsRefreshSchedule)
	if err := scheduler.Start(); err != nil {
		logger.Error("failed to start metrics scheduler", "error", err)
		os.Exit(1)
	}

	publicServer := &http.Server{
		Addr: fmt.Sprintf(":%s", cfg.ServerPort),
		Handler: api.NewPublicRouter(api.NewHandler(service, logger), api.PublicRouterConfig{
			PayIDVersion:             cfg.PayIDVersion,
			Limiter:                  limiter,
			LookupRateLimitPerMinute: cfg.LookupRateLimitPerMinute,
			Logger:                   logger,
		}),
	}
	adminServer := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.AdminPort),
		Handler: api.NewAdminRouter(repository, metrics.Registry(), cfg.InternalAPIKey),
	}

	serve := func(name string, server *http.Server) {
		logger.Info("starting server", "server", name, "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed to start", "server", name, "error", err)
			os.Exit(1)
		}
	}
	go serve("public", publicServer)
	go serve("admin", adminServer)

	<-sigCh
	logger.Info("shutdown signal received, gracefully shutting down")

	scheduler.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := publicServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("public server shutdown failed", "error", err)
	}
	if err := adminServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("admin server shutdown failed", "error", err)
	}

	logger.Info("server stopped")
}
