package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bricks/internal/api"
	"bricks/internal/clock"
	"bricks/internal/config"
	"bricks/internal/db"
	"bricks/internal/notify"
	"bricks/internal/ratelimit"
	"bricks/internal/reporting"
	"bricks/internal/store"
	"bricks/internal/wallet"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := config.LoadDotEnv(".env"); err != nil {
		slog.Error("load .env", "err", err)
		os.Exit(1)
	}
	cfg, err := config.LoadAPIFromEnv()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	if cfg.DevMode {
		logger.Warn("dev mode: telegram initData is not verified")
	}

	pool, err := db.Connect(ctx, cfg.DatabaseURL, cfg.DBSchema)
	if err != nil {
		logger.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()
	if err := db.Migrate(ctx, pool, cfg.DBSchema, logger); err != nil {
		logger.Error("db migrate failed", "err", err)
		os.Exit(1)
	}

	env := "production"
	if cfg.DevMode {
		env = "development"
	}
	sentryMW, flush, err := reporting.InitSentryMiddleware(cfg.SentryDSN, env)
	if err != nil {
		logger.Error("sentry init failed", "err", err)
		os.Exit(1)
	}
	defer flush()

	helius := wallet.NewHeliusClient(cfg.HeliusBaseURL, cfg.HeliusAPIKey, nil)
	if !helius.Configured() {
		logger.Warn("HELIUS_API_KEY not set, wallet lookups will fail")
	}
	quoter, stopQuotes := wallet.NewQuoter(helius, cfg.WalletCacheTTL, logger)
	defer stopQuotes()

	announcer, err := notify.NewDiscord(cfg.DiscordBotToken, cfg.DiscordChannelID, logger)
	if err != nil {
		logger.Error("discord init failed", "err", err)
		os.Exit(1)
	}

	limiter, stopLimiter := ratelimit.NewTokenBucketLimiter(cfg.RatePerSecond, cfg.RateBurst)
	defer stopLimiter()

	st := store.New(pool)
	server := api.New(cfg, logger, api.Deps{
		Players:     st,
		Leaderboard: st,
		Wallets:     quoter,
		Announcer:   announcer,
		Limiter:     limiter,
		Sentry:      sentryMW,
		Clock:       clock.RealClock{},
	})
	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	logger.Info("bricks api listening", "addr", cfg.Addr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server failed", "err", err)
		os.Exit(1)
	}
}
