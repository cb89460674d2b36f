package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/getsentry/sentry-go"

	"github.com/hacklabs/hwlib/pkg/app"
	"github.com/hacklabs/hwlib/pkg/cache"
	"github.com/hacklabs/hwlib/pkg/config"
	"github.com/hacklabs/hwlib/pkg/database"
	"github.com/hacklabs/hwlib/pkg/events"
	"github.com/hacklabs/hwlib/pkg/logger"
	"github.com/hacklabs/hwlib/pkg/telemetry"
	"github.com/hacklabs/hwlib/services/hardware/application/services"
	"github.com/hacklabs/hwlib/services/hardware/application/subscribers"
	hwevents "github.com/hacklabs/hwlib/services/hardware/domain/events"
	"github.com/hacklabs/hwlib/services/hardware/infrastructure/persistence/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if err := config.ValidateForProduction(cfg); err != nil {
		slog.Error("production config validation failed", "error", err)
		os.Exit(1)
	}

	log := logger.New(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	otelShutdown, _, err := telemetry.Setup(ctx, cfg, telemetry.ProcessWorker)
	if err != nil {
		log.Error("failed to setup otel", "error", err)
		os.Exit(1)
	}
	defer otelShutdown(context.Background()) //nolint:errcheck

	if err := telemetry.SetupSentry(cfg); err != nil {
		log.Warn("failed to setup sentry, continuing without crash reporting", "error", err)
	}
	defer telemetry.SentryFlush()

	pool, err := database.NewPool(ctx, cfg.DatabaseURL, log)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1) //nolint:gocritic
	}
	defer pool.Close()
	log.Info("database pool connected")

	eventBus, err := events.NewEventBus(cfg, log)
	if err != nil {
		log.Error("failed to setup event bus", "error", err)
		os.Exit(1) //nolint:gocritic
	}
	defer eventBus.Close() //nolint:errcheck

	redisClient, err := cache.NewRedisClient(cfg)
	switch {
	case errors.Is(err, cache.ErrDisabled):
		log.Warn("redis disabled; activity events are audited without cache refresh or dedup")
	case err != nil:
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1) //nolint:gocritic
	default:
		defer redisClient.Close() //nolint:errcheck
		log.Info("redis connected")
	}

	appConfig := &app.Application{
		Config:   cfg,
		Db:       pool,
		Logger:   log,
		EventBus: eventBus,
		Redis:    redisClient,
	}

	if err := registerSubscribers(ctx, appConfig); err != nil {
		log.Error("failed to register subscribers", "error", err)
		os.Exit(1) //nolint:gocritic
	}

	pruner := services.NewTombstonePruner(postgres.NewStore(pool, nil), log, cfg.TombstoneRetention, cfg.TombstonePruneInterval)
	go pruner.Run(ctx)

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-sigCtx.Done()

	log.Info("worker shutting down; in-flight handlers get up to 30s")
	cancel()
}

type subscription struct {
	topic   string
	handler events.Handler
}

// registerSubscribers starts one consumer per topic. The poison topic of the
// activity stream is watched too, so parked events reach Sentry.
func registerSubscribers(ctx context.Context, a *app.Application) error {
	var (
		itemCache subscribers.ItemCache
		dedup     subscribers.Deduper
	)
	if a.Redis != nil {
		itemCache = cache.NewItemCache(a.Redis, a.Config.ItemCacheTTL)
		dedup = cache.NewEventDeduper(a.Redis, cache.DefaultDedupTTL)
	}
	activity := subscribers.NewActivityHandler(a.Logger, postgres.NewStore(a.Db, nil), itemCache, dedup)
	poison := subscribers.NewPoisonReporter(a.Logger, func(err error) { sentry.CaptureException(err) })

	subs := []subscription{
		{hwevents.TopicHardwareActivity, activity.Handle},
		{hwevents.TopicHardwareActivity + events.PoisonSuffix, poison.Handle},
	}
	topics := make([]string, 0, len(subs))
	for _, sub := range subs {
		errCh, err := a.EventBus.Subscribe(ctx, sub.topic, sub.handler)
		if err != nil {
			return err
		}
		go drain(ctx, a, sub.topic, errCh)
		topics = append(topics, sub.topic)
	}

	a.Logger.Info("event subscribers registered", "topics", topics)
	return nil
}

// drain reads subscriber errors until the subscription closes the channel.
func drain(ctx context.Context, a *app.Application, topic string, errCh <-chan error) {
	for err := range errCh {
		a.Logger.ErrorContext(ctx, "subscriber error", "topic", topic, "error", err)
		sentry.CaptureException(err)
	}
}
