package httpx

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/unrolled/secure"
)

// ServerConfig holds the options for NewRouter.
type ServerConfig struct {
	ServiceName   string
	IsDevelopment bool
	// CORSAllowedOrigins is a comma-separated list of allowed origins.
	// Pass "*" (dev only) to allow all origins.
	CORSAllowedOrigins string
	// RequestsPerMinute caps each client IP across the whole router.
	// Zero means DefaultRequestsPerMinute.
	RequestsPerMinute int
	// MaxBodyBytes caps request bodies. Zero means DefaultMaxBodyBytes.
	MaxBodyBytes int64
}

const (
	DefaultRequestsPerMinute = 100
	DefaultMaxBodyBytes      = 1 << 20
)

// NewRouter returns a chi.Mux pre-wired with the project's standard middleware
// stack. Pass app-specific middlewares (logger, recovery, sentry, otel) in order;
// they are prepended before the chi built-ins.
//
// Middleware order (outermost first):
//  1. recoveryMiddleware: catches panics that re-panic from sentry
//  2. sentryMiddleware  : captures panics, re-panics (Repanic: true)
//  3. RequestID         : unique X-Request-Id per request
//  4. otelMiddleware    : starts trace span per request
//  5. loggerMiddleware  : logs request + trace_id/span_id
//  6. RealIP            : sets RemoteAddr from X-Forwarded-For
//  7. RateLimit         : RequestsPerMinute per IP
//  8. CORS              : cross-origin preflight and headers
//  9. BodyLimit         : MaxBodyBytes request body cap
//  10. Security headers : CSP, HSTS, X-Frame-Options, Permissions-Policy, etc.
//
// There is no router-wide handler deadline: long-lived streams share this
// router. Request/response route groups add Timeout() themselves.
func NewRouter(
	cfg ServerConfig,
	loggerMiddleware func(http.Handler) http.Handler,
	recoveryMiddleware func(http.Handler) http.Handler,
	sentryMiddleware func(http.Handler) http.Handler,
	otelMiddleware func(http.Handler) http.Handler,
) *chi.Mux {
	perMinute := cfg.RequestsPerMinute
	if perMinute <= 0 {
		perMinute = DefaultRequestsPerMinute
	}
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}

	sec := secure.New(secure.Options{
		STSSeconds:            63072000,
		STSIncludeSubdomains:  true,
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		ContentSecurityPolicy: "default-src 'self'",
		PermissionsPolicy:     "geolocation=(), microphone=(), camera=(), usb=(), magnetometer=(), gyroscope=()",
		IsDevelopment:         cfg.IsDevelopment,
	})

	r := chi.NewRouter()
	r.Use(
		recoveryMiddleware,
		sentryMiddleware,
		middleware.RequestID,
		otelMiddleware,
		loggerMiddleware,
		middleware.RealIP,
		rateLimit(perMinute, httprate.KeyByIP),
		CORSMiddleware(cfg.CORSAllowedOrigins),
		RequestBodyLimit(maxBody),
		sec.Handler,
	)
	return r
}

// LimitPerEndpoint caps each client IP at n requests per minute on every
// route it wraps, counted separately per method and path.
func LimitPerEndpoint(n int) func(http.Handler) http.Handler {
	return rateLimit(n, httprate.KeyByIP, httprate.KeyByEndpoint)
}

func rateLimit(n int, keys ...httprate.KeyFunc) func(http.Handler) http.Handler {
	return httprate.Limit(n, time.Minute,
		httprate.WithKeyFuncs(keys...),
		httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
			JSONError(w, http.StatusTooManyRequests, "too many requests")
		}),
	)
}

// HandlerTimeout is the deadline Timeout applies to request/response handlers.
const HandlerTimeout = 30 * time.Second

// Timeout cancels the request context after HandlerTimeout and answers 504
// if the handler has not written a response by then.
func Timeout() func(http.Handler) http.Handler {
	return middleware.Timeout(HandlerTimeout)
}

// CORSMiddleware returns a CORS handler restricted to the given allowed origins.
// allowedOrigins is a comma-separated list (e.g. "https://app.example.com,http://localhost:3000").
// Pass "*" to allow all origins (development only).
func CORSMiddleware(allowedOrigins string) func(http.Handler) http.Handler {
	origins := parseOrigins(allowedOrigins)
	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id", "Last-Event-ID"},
		ExposedHeaders:   []string{"Link", "X-Request-Id"},
		AllowCredentials: !allowsAny(origins),
		MaxAge:           300,
	})
}

// parseOrigins splits a comma-separated origins string into a slice, trimming spaces.
func parseOrigins(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p := strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

func allowsAny(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}

// RequestBodyLimit returns middleware that caps the request body at maxBytes.
// When the limit is exceeded, reads on the body return an error that handlers
// should convert to a 413 response.
func RequestBodyLimit(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

// NewServer returns an *http.Server with production-ready timeouts.
// WriteTimeout covers ordinary responses; streaming handlers extend it per
// write through http.ResponseController.
func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:           addr,
		Handler:        handler,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   30 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20, // 1 MB
	}
}
