package telemetry

import (
	"fmt"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	sentryhttp "github.com/getsentry/sentry-go/http"

	"github.com/hacklabs/hwlib/pkg/config"
	"github.com/hacklabs/hwlib/pkg/redact"
)

// SetupSentry initializes the Sentry SDK. No-ops if DSN is empty.
func SetupSentry(cfg *config.Config) error {
	if cfg.SentryDSN == "" {
		return nil
	}
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.SentryDSN,
		Environment:      cfg.Environment,
		Release:          cfg.ServiceName + "@" + cfg.ServiceVersion,
		TracesSampleRate: 0.2,
		SendDefaultPII:   false,
		BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			return ScrubTokens(event)
		},
	}); err != nil {
		return fmt.Errorf("sentry init: %w", err)
	}
	return nil
}

// ScrubTokens replaces reservation tokens in the request and messages of
// event. Request bodies are dropped: take and return carry the token there.
func ScrubTokens(event *sentry.Event) *sentry.Event {
	if event == nil {
		return nil
	}
	event.Message = redact.Tokens(event.Message)
	for i := range event.Exception {
		event.Exception[i].Value = redact.Tokens(event.Exception[i].Value)
	}
	if req := event.Request; req != nil {
		req.URL = redact.Tokens(req.URL)
		req.QueryString = redact.Tokens(req.QueryString)
		req.Data = ""
		req.Cookies = ""
	}
	return event
}

// SentryFlush flushes buffered events before process exit.
func SentryFlush() {
	sentry.Flush(2 * time.Second)
}

// SentryMiddleware returns a net/http middleware that captures panics and errors.
// Repanic: true so the outer Recovery middleware still handles the 500 response.
func SentryMiddleware() func(http.Handler) http.Handler {
	h := sentryhttp.New(sentryhttp.Options{Repanic: true})
	return h.Handle
}
