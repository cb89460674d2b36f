package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"

	"github.com/hacklabs/hwlib/pkg/app"
	"github.com/hacklabs/hwlib/pkg/auth"
	"github.com/hacklabs/hwlib/pkg/config"
	"github.com/hacklabs/hwlib/pkg/httpx"
	"github.com/hacklabs/hwlib/pkg/logger"
	"github.com/hacklabs/hwlib/pkg/sse"
	"github.com/hacklabs/hwlib/services/hardware/application/handlers"
	appsvcs "github.com/hacklabs/hwlib/services/hardware/application/services"
)

// Deps is everything Mount needs besides the services.
type Deps struct {
	Sessions     sessions.Store
	Log          logger.Logger
	Live         *sse.Broadcaster
	Stream       sse.StreamConfig
	IsProduction bool
	// MutationLimit caps reserve, cancel, take and return per client IP per
	// minute. Zero disables the cap.
	MutationLimit int
}

// HardwareRoutes registers the hardware endpoints on the provided chi router.
func HardwareRoutes(r chi.Router, a *app.Application) {
	Mount(r, appsvcs.New(a), Deps{
		Sessions: a.SessionStore,
		Log:      a.Logger,
		Live:     a.Live,
		Stream: sse.StreamConfig{
			WriteTimeout: a.Config.SSEWriteTimeout,
			KeepAlive:    a.Config.SSEKeepAlive,
			Buffer:       a.Config.SSEBuffer,
		},
		IsProduction:  a.Config.Environment == config.EnvProduction,
		MutationLimit: a.Config.MutationRateLimit,
	})
}

// Mount registers the hardware endpoints under /hardware. The live update
// stream is mounted outside the handler deadline group.
func Mount(r chi.Router, svcs *appsvcs.Services, d Deps) {
	cfg := handlers.Config{Log: d.Log, IsProduction: d.IsProduction}
	requireUser := auth.RequireUser(d.Sessions, d.Log)
	limit := func(next http.Handler) http.Handler { return next }
	if d.MutationLimit > 0 {
		limit = httpx.LimitPerEndpoint(d.MutationLimit)
	}

	r.Route("/hardware", func(r chi.Router) {
		if d.Live != nil {
			r.Get("/updates", d.Live.StreamHandler(d.Stream))
		}

		r.Group(func(r chi.Router) {
			r.Use(httpx.Timeout())

			// Bearer-token and public reads.
			r.Group(func(r chi.Router) {
				r.Use(auth.OptionalUser(d.Sessions, d.Log))
				r.Get("/items", handlers.NewListItemsHandler(svcs, cfg).Execute)
			})
			r.Get("/items/{id}", handlers.NewGetItemHandler(svcs, cfg).Execute)
			r.With(limit).Post("/take", handlers.NewTakeHandler(svcs, cfg).Execute)
			r.With(limit).Post("/return", handlers.NewReturnHandler(svcs, cfg).Execute)
			r.Get("/reservations/{token}", handlers.NewGetReservationHandler(svcs, cfg).Execute)

			// Session-scoped.
			r.Group(func(r chi.Router) {
				r.Use(requireUser)
				r.With(limit).Post("/reserve", handlers.NewReserveHandler(svcs, cfg).Execute)
				r.With(limit).Post("/cancel", handlers.NewCancelHandler(svcs, cfg).Execute)
				r.Post("/items", handlers.NewAddItemsHandler(svcs, cfg).Execute)
				r.Put("/items/{id}", handlers.NewUpdateItemHandler(svcs, cfg).Execute)
				r.Delete("/items/{id}", handlers.NewDeleteItemHandler(svcs, cfg).Execute)
				r.Get("/reservations", handlers.NewListReservationsHandler(svcs, cfg).Execute)
				r.Get("/items/{id}/reservations", handlers.NewListItemReservationsHandler(svcs, cfg).Execute)
			})
		})

		r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
			httpx.JSON(w, http.StatusNotFound, handlers.ErrorResponse{Error: "not found"})
		})
	})
}
