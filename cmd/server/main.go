package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sellerpulse/notify-core/internal/api"
	"github.com/sellerpulse/notify-core/internal/cache"
	"github.com/sellerpulse/notify-core/internal/config"
	"github.com/sellerpulse/notify-core/internal/db"
	"github.com/sellerpulse/notify-core/internal/differ"
	"github.com/sellerpulse/notify-core/internal/gate"
	"github.com/sellerpulse/notify-core/internal/metrics"
	"github.com/sellerpulse/notify-core/internal/pipeline"
	"github.com/sellerpulse/notify-core/internal/queue"
	"github.com/sellerpulse/notify-core/internal/settings"
	"github.com/sellerpulse/notify-core/internal/webhook"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync() //nolint:errcheck

	// ---- configuration ----
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	// ---- database ----
	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}
	logger.Info("database migrations applied")

	// ---- redis ----
	store, err := cache.NewRedisStore(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logger.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer store.Close()

	// ---- core dependencies ----
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	q := queue.New(store, cfg.DedupTTL, logger)
	settingsStore := settings.NewCachedStore(
		settings.NewPgStore(pool), store, cfg.SettingsCacheTTL, logger,
	)

	orch := pipeline.NewOrchestrator(
		differ.New(cfg.CriticalStock),
		gate.New(),
		settingsStore,
		q,
		logger,
		m.ProducerHooks(),
	)

	deliverer := webhook.NewDeliverer(cfg.WebhookTimeout, cfg.WebhookSecret, webhook.DefaultFormatter{}, logger)
	limiter := rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimit)

	// ---- consumer pool ----
	// Context for all background goroutines; cancelled on shutdown signal.
	consumerCtx, cancelConsumers := context.WithCancel(ctx)
	defer cancelConsumers()

	pool2 := pipeline.NewConsumerPool(cfg.ConsumerCount, q, deliverer, limiter, pipeline.ConsumerOptions{
		EndpointURL:       cfg.WebhookURL,
		PollTimeout:       cfg.PollTimeout,
		MaxItems:          cfg.MaxItems,
		MaxProcessingTime: cfg.MaxProcessingTime,
	}, logger, m.ConsumerHooks())
	pool2.Start(consumerCtx)

	// Queue depth gauges are sampled, not event-driven.
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-consumerCtx.Done():
				return
			case <-ticker.C:
				high, medium, low, err := q.Depths(consumerCtx)
				if err != nil {
					logger.Warn("queue depth sample failed", zap.Error(err))
					continue
				}
				m.SetQueueDepths(high, medium, low)
			}
		}
	}()

	// ---- HTTP server ----
	router := api.NewRouter(orch, settingsStore, q, reg, logger)
	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	// Start server in a goroutine so it does not block the shutdown listener.
	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// ---- graceful shutdown ----
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutdown signal received")

	// 1. Stop accepting new HTTP requests (no new sync passes).
	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	// 2. Signal consumers to stop pulling new queue items.
	cancelConsumers()

	// 3. Wait for in-flight deliveries to finish their current item.
	pool2.Wait()

	logger.Info("server stopped cleanly")
}
