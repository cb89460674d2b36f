package app

import (
	"github.com/gorilla/sessions"

	"github.com/hacklabs/hwlib/pkg/cache"
	"github.com/hacklabs/hwlib/pkg/config"
	"github.com/hacklabs/hwlib/pkg/database"
	"github.com/hacklabs/hwlib/pkg/events"
	"github.com/hacklabs/hwlib/pkg/logger"
	"github.com/hacklabs/hwlib/pkg/sse"
)

// Application holds shared infrastructure dependencies for all services.
// It is built once in cmd/*/main.go and passed to every route and
// subscriber registration; main owns teardown of each field.
//
// Logging: app.Logger is backed by a trace-aware handler. Use the context
// methods and trace_id, span_id and request_id are injected automatically:
//
//	app.Logger.InfoContext(ctx, "reserved", "item_id", id)
//	app.Logger.ErrorContext(ctx, "failed to reserve", "error", err)
//
// Use app.Logger.Info/Error (no context) only for startup and shutdown messages.
type Application struct {
	Config       *config.Config
	Db           *database.Database
	Logger       logger.Logger
	EventBus     *events.EventBus
	Redis        *cache.RedisClient // nil when REDIS_ENABLED=false
	SessionStore sessions.Store     // nil in worker process
	Live         *sse.Broadcaster   // in-process live update hub; nil in worker process
}
