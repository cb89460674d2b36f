package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	_ "github.com/hacklabs/hwlib/docs/swagger"
	"github.com/hacklabs/hwlib/pkg/app"
	"github.com/hacklabs/hwlib/pkg/auth"
	"github.com/hacklabs/hwlib/pkg/cache"
	"github.com/hacklabs/hwlib/pkg/config"
	"github.com/hacklabs/hwlib/pkg/database"
	"github.com/hacklabs/hwlib/pkg/events"
	"github.com/hacklabs/hwlib/pkg/httpx"
	"github.com/hacklabs/hwlib/pkg/logger"
	"github.com/hacklabs/hwlib/pkg/sse"
	"github.com/hacklabs/hwlib/pkg/telemetry"
	hardwareApi "github.com/hacklabs/hwlib/services/hardware/application/api"
)

// @title			Hardware Library API
// @version		1.0
// @description	Reservation engine for the hackathon hardware library.
// @termsOfService	http://swagger.io/terms/
// @contact.name	API Support
// @contact.email	support@hacklabs.dev
// @license.name	MIT
// @license.url	https://opensource.org/licenses/MIT
// @host			localhost:8080
// @BasePath		/api
// @schemes		http https
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

	// Telemetry: OTel tracing + metrics
	ctx := context.Background()
	otelShutdown, metricsHandler, err := telemetry.Setup(ctx, cfg, telemetry.ProcessAPI)
	if err != nil {
		log.Error("failed to setup otel", "error", err)
		os.Exit(1)
	}
	defer otelShutdown(ctx) //nolint:errcheck

	// Crash reporting: Sentry (optional, log and continue on failure)
	if err := telemetry.SetupSentry(cfg); err != nil {
		log.Warn("failed to setup sentry, continuing without crash reporting", "error", err)
	}
	defer telemetry.SentryFlush()

	pool, err := database.NewPool(ctx, cfg.DatabaseURL, log)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1) //nolint:gocritic // intentional: startup failure, deferred flushes are best-effort
	}
	defer pool.Close()
	log.Info("database pool connected")

	// Activity events are written to the forwarder queue inside each
	// hardware transaction; the forwarder moves them to their topic.
	eventBus, err := events.NewEventBusWithForwarder(cfg, log)
	if err != nil {
		log.Error("failed to setup event bus", "error", err)
		os.Exit(1) //nolint:gocritic
	}
	defer eventBus.Close() //nolint:errcheck

	if err := eventBus.StartForwarder(ctx); err != nil {
		log.Error("failed to start event forwarder", "error", err)
		os.Exit(1) //nolint:gocritic
	}

	redisClient, sessionStore, err := openSessions(cfg, log)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1) //nolint:gocritic // intentional: startup failure
	}
	defer redisClient.Close() //nolint:errcheck
	var redisHealth httpx.HealthChecker
	if redisClient != nil {
		redisHealth = redisClient
	}

	live := sse.New(log)

	appConfig := &app.Application{
		Config:       cfg,
		Db:           pool,
		Logger:       log,
		EventBus:     eventBus,
		Redis:        redisClient,
		SessionStore: sessionStore,
		Live:         live,
	}

	r := httpx.NewRouter(
		httpx.ServerConfig{
			ServiceName:        cfg.ServiceName,
			IsDevelopment:      cfg.Environment == config.EnvDevelopment,
			CORSAllowedOrigins: cfg.CORSAllowedOrigins,
			RequestsPerMinute:  cfg.RateLimit,
			MaxBodyBytes:       cfg.MaxBodyBytes,
		},
		logger.Middleware(log),
		logger.Recovery(log),
		telemetry.SentryMiddleware(),
		otelhttp.NewMiddleware(cfg.ServiceName),
	)

	r.Get("/health", httpx.HealthHandler(httpx.HealthChecks{
		Database: pool,
		Redis:    redisHealth,
		EventBus: eventBus,
		Live:     live,
	}))
	r.Get("/metrics", metricsHandler.ServeHTTP)
	if cfg.Environment != config.EnvProduction {
		r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
	}
	r.Route("/api", func(r chi.Router) {
		registerRoutes(r, appConfig)
	})

	srv := httpx.NewServer(cfg.HTTPAddr, r)
	srv.RegisterOnShutdown(live.Shutdown)

	go func() {
		log.Info("server listening", "addr", srv.Addr, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-sigCtx.Done()

	log.Info("shutting down; open live streams are closed first")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("forced shutdown", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

// openSessions picks the session backend. With Redis enabled, sessions are
// stored server-side and the client is returned for the item cache and
// health probe. Development can run without Redis; sessions then live in
// signed cookies and the returned client is nil.
func openSessions(cfg *config.Config, log logger.Logger) (*cache.RedisClient, sessions.Store, error) {
	rc, err := cache.NewRedisClient(cfg)
	switch {
	case errors.Is(err, cache.ErrDisabled):
		log.Warn("redis disabled; using cookie sessions and no item cache")
		cs := sessions.NewCookieStore([]byte(cfg.SessionAuthKey), []byte(cfg.SessionEncryptionKey))
		cs.Options.HttpOnly = true
		cs.Options.SameSite = http.SameSiteLaxMode
		cs.MaxAge(int(cfg.SessionMaxAge.Seconds()))
		return nil, cs, nil
	case err != nil:
		return nil, nil, err
	}
	log.Info("redis connected")
	return rc, auth.NewSessionStore(rc.Client(), auth.SessionConfig{
		AuthKey:       []byte(cfg.SessionAuthKey),
		EncryptionKey: []byte(cfg.SessionEncryptionKey),
		KeyPrefix:     cfg.SessionKeyPrefix,
		MaxAge:        cfg.SessionMaxAge,
		Secure:        cfg.Environment == config.EnvProduction,
	}), nil
}

func registerRoutes(r chi.Router, a *app.Application) {
	hardwareApi.HardwareRoutes(r, a)
}
