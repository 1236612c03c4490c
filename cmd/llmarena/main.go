package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"llmarena/internal/api"
	"llmarena/internal/cache"
	"llmarena/internal/catalog"
	"llmarena/internal/config"
	"llmarena/internal/evaluator"
	"llmarena/internal/notifications"
	"llmarena/internal/provider/openrouter"
	"llmarena/internal/ratelimit"
	"llmarena/internal/secrets"
	"llmarena/internal/storage"
	"llmarena/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.LogLevel)

	slog.Info("starting llmarena", "addr", cfg.Addr, "version", "0.1.0")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTelemetry, err := telemetry.Init(ctx, "llmarena", cfg.OTLPEndpoint)
	if err != nil {
		slog.Error("failed to init telemetry", "error", err)
		os.Exit(1)
	}

	apiKey := cfg.OpenRouterAPIKey
	if apiKey == "" && cfg.OpenRouterKeySecret != "" {
		store, err := secrets.NewAWSSecretsManager(ctx, cfg.AWSRegion)
		if err != nil {
			slog.Error("failed to init secrets manager", "error", err)
			os.Exit(1)
		}
		apiKey, err = store.GetSecret(ctx, cfg.OpenRouterKeySecret)
		if err != nil {
			slog.Error("failed to fetch API key secret", "error", err)
			os.Exit(1)
		}
		slog.Info("loaded API key from secrets manager", "secret", cfg.OpenRouterKeySecret)
	}
	if apiKey == "" {
		slog.Error("no OpenRouter API key configured")
		os.Exit(1)
	}

	provider := openrouter.New(apiKey, cfg.OpenRouterBaseURL,
		openrouter.WithAttribution(cfg.AppReferer, cfg.AppTitle),
		openrouter.WithIdleTimeout(cfg.StreamIdleTimeout),
	)

	store, err := storage.New(cfg.DataDir)
	if err != nil {
		slog.Error("failed to open data dir", "error", err, "dir", cfg.DataDir)
		os.Exit(1)
	}

	var catalogCache cache.Cache
	if cfg.RedisURL != "" {
		catalogCache, err = cache.NewRedisCache(cfg.RedisURL)
		if err != nil {
			slog.Warn("failed to connect to redis for cache, using in-memory", "error", err)
			catalogCache = cache.NewInMemoryCache()
		} else {
			slog.Info("using redis catalog cache")
		}
	} else {
		catalogCache = cache.NewInMemoryCache()
		slog.Info("using in-memory catalog cache")
	}

	var rateLimiter ratelimit.RateLimiter
	if cfg.RedisURL != "" {
		rateLimiter, err = ratelimit.NewRedisRateLimiter(cfg.RedisURL)
		if err != nil {
			slog.Warn("failed to connect to redis for rate limiting, using in-memory", "error", err)
			rateLimiter = ratelimit.NewInMemoryRateLimiter()
		} else {
			slog.Info("using redis rate limiter")
		}
	} else {
		rateLimiter = ratelimit.NewInMemoryRateLimiter()
		slog.Info("using in-memory rate limiter")
	}

	var notifier notifications.Notifier
	if cfg.SNSTopicArn != "" {
		notifier, err = notifications.NewSNSNotifier(ctx, cfg.AWSRegion, cfg.SNSTopicArn)
		if err != nil {
			slog.Error("failed to init SNS notifier", "error", err)
			os.Exit(1)
		}
		slog.Info("using SNS notifications", "topic", cfg.SNSTopicArn)
	} else {
		notifier = notifications.NewInMemoryNotifier()
	}

	handler := api.NewHandler(api.HandlerConfig{
		Evaluator:   evaluator.New(provider),
		Store:       store,
		Catalog:     catalog.New(provider, catalogCache, cfg.CatalogCacheTTL),
		RateLimiter: rateLimiter,
		Notifier:    notifier,
		Upstream:    provider,
		EvaluateRPM: cfg.EvaluateRPM,
	})

	srv := &http.Server{
		Addr:        cfg.Addr,
		Handler:     handler,
		ReadTimeout: 30 * time.Second,
		// No write timeout: evaluation responses are long-lived streams.
		IdleTimeout: 120 * time.Second,
	}

	go func() {
		slog.Info("server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	if err := shutdownTelemetry(shutdownCtx); err != nil {
		slog.Warn("telemetry shutdown error", "error", err)
	}

	slog.Info("server stopped")
}

func setupLogger(level string) {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}
