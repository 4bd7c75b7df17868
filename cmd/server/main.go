package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/leemount96/euler-yield-bot/internal/cache"
	"github.com/leemount96/euler-yield-bot/internal/config"
	"github.com/leemount96/euler-yield-bot/internal/handler"
	"github.com/leemount96/euler-yield-bot/internal/merkl"
	"github.com/leemount96/euler-yield-bot/internal/middleware"
	"github.com/leemount96/euler-yield-bot/internal/prices"
	"github.com/leemount96/euler-yield-bot/internal/ratelimit"
	"github.com/leemount96/euler-yield-bot/internal/registry"
	"github.com/leemount96/euler-yield-bot/internal/store"
	"github.com/leemount96/euler-yield-bot/internal/telegram"
	"github.com/leemount96/euler-yield-bot/internal/yield"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	cfg := config.Load()

	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	if cfg.TelegramToken == "" {
		logger.Error("TELEGRAM_BOT_TOKEN is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	db, err := store.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	logger.Info("database connected and migrated")

	// Redis snapshot store (retry up to 30s for ExternalSecret to sync)
	var snapshots *cache.RedisStore
	for i := 0; i < 6; i++ {
		snapshots, err = cache.NewRedisStore(cfg.RedisURL, cfg.RedisPassword)
		if err == nil {
			break
		}
		logger.Warn("redis not ready, retrying...", "attempt", i+1, "error", err)
		time.Sleep(5 * time.Second)
	}
	if err != nil {
		logger.Error("failed to connect to redis after retries", "error", err)
		os.Exit(1)
	}
	defer snapshots.Close()
	logger.Info("redis connected for vault snapshots")

	// Yield pipeline
	chains := registry.ChainsFor(cfg.ChainIDs)
	limiter := ratelimit.New(1, cfg.VaultReadRate)
	agg := yield.NewAggregator(
		merkl.New(),
		prices.New(logger),
		registry.New(chains, limiter, logger),
		cache.NewDaily(snapshots, logger),
		cfg.ChainIDs,
		cfg.MinimumTVL,
		logger,
	).WithRunSink(db)

	// Telegram bot
	bot := telegram.NewBot(cfg.TelegramToken, db, agg, logger)
	go bot.Run(ctx)

	// HTTP routes
	r := chi.NewRouter()
	r.Use(middleware.Recover(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Metrics())
	r.Use(middleware.CORS(cfg.FrontendOrigin))

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", handler.Health())
	r.Get("/readyz", handler.Ready(db))

	r.Route("/api", func(r chi.Router) {
		r.Get("/opportunities", handler.ListOpportunities(agg))
		r.Get("/vaults", handler.ListVaults(agg))
		r.Get("/message/yields", handler.YieldsMessage(agg))
		r.Get("/message/vaults", handler.VaultsMessage(agg))
		r.Get("/stats", handler.Stats(db))
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down gracefully")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
}
