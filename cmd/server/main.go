/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the commission engine server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (.env, then environment)
  2. Open the store (SQLite or PostgreSQL)
  3. Create the API handler, alert sweeper and scheduler
  4. Configure HTTP router
  5. Start server with graceful shutdown

ENVIRONMENT:
  APP_PORT             HTTP server port (default: 8080)
  DB_DRIVER            sqlite | postgres (default: sqlite)
  DB_PATH              SQLite database path (default: commissions.db)
                       Use ":memory:" for in-memory database
  DATABASE_URL         PostgreSQL DSN when DB_DRIVER=postgres
  REDIS_ADDR           Alert dedup in Redis instead of the database
  JWT_SECRET           HMAC key for bearer tokens (required)
  LOG_LEVEL, LOG_PRETTY
  RECALC_WORKERS, RECALC_SALE_TIMEOUT
  RECALC_CRON          Scheduled recalculation (empty = off)
  ALERTS_CRON          Daily alert sweep (default: 0 9 * * *)
  CORS_ORIGINS         Comma-separated allowed origins

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the scheduler, waiting for a running job
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close database and Redis connections

SEE ALSO:
  - config/config.go: Configuration
  - api/server.go: Router configuration
  - api/scheduler.go: Background jobs
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/hugoalbmartins/Leiritrix-sub000/alerts"
	"github.com/hugoalbmartins/Leiritrix-sub000/api"
	"github.com/hugoalbmartins/Leiritrix-sub000/commission"
	"github.com/hugoalbmartins/Leiritrix-sub000/config"
	"github.com/hugoalbmartins/Leiritrix-sub000/logger"
	"github.com/hugoalbmartins/Leiritrix-sub000/metrics"
	"github.com/hugoalbmartins/Leiritrix-sub000/store/postgres"
	"github.com/hugoalbmartins/Leiritrix-sub000/store/sqlite"
)

// backend is what both database stores provide.
type backend interface {
	commission.Repository
	alerts.Source
	alerts.DeliveryLog
	alerts.Queue
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel, cfg.LogPretty)

	store, closeStore, err := openStore(cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DBDriver).Msg("Failed to initialize database")
	}
	defer closeStore()

	m := metrics.New()

	handler := api.NewHandler(store, log, m)
	handler.RecalcOptions = commission.RecalcOptions{
		Workers:     cfg.RecalcWorkers,
		SaleTimeout: cfg.RecalcSaleTimeout,
	}

	var dedup alerts.DeliveryLog = store
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		dedup = alerts.NewRedisLog(rdb)
		log.Info().Str("addr", cfg.RedisAddr).Msg("Alert dedup in Redis")
	}
	handler.Alerts = alerts.NewSweeper(store, dedup, store, log, m)

	scheduler := api.NewScheduler(handler, cfg.RecalcCron, cfg.AlertsCron)
	if err := scheduler.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start scheduler")
	}

	router := api.NewRouter(handler, api.NewAuthenticator(cfg.JWTSecret), api.RouterConfig{
		AllowedOrigins: cfg.CORSOrigins,
		Metrics:        promhttp.Handler(),
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Int("port", cfg.Port).Str("driver", cfg.DBDriver).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")
	scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}

func openStore(cfg *config.Config) (backend, func(), error) {
	switch cfg.DBDriver {
	case "postgres":
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		s, err := postgres.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	default:
		s, err := sqlite.New(cfg.DBPath)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	}
}
