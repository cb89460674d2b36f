package httpx

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

// HealthChecker is satisfied by any infrastructure dependency that exposes
// a Ping method (database.Database, RedisClient, EventBus all qualify).
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// SubscriberCounter reports how many live-update listeners are attached.
type SubscriberCounter interface {
	Len() int
}

// HealthChecks holds the set of dependencies to probe in the health endpoint.
// A nil Redis checker is reported as "disabled" and does not degrade status.
type HealthChecks struct {
	Database HealthChecker
	Redis    HealthChecker
	EventBus HealthChecker
	Live     SubscriberCounter
}

type healthResponse struct {
	Status          string `json:"status"`
	Database        string `json:"database"`
	Redis           string `json:"redis"`
	EventBus        string `json:"event_bus"`
	LiveSubscribers *int   `json:"live_subscribers,omitempty"`
}

const healthTimeout = 2 * time.Second

// HealthHandler probes every dependency in parallel under one 2s deadline
// and answers 503 when any of them is unreachable.
func HealthHandler(checks HealthChecks) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		resp := healthResponse{Status: "ok", Redis: "disabled"}
		var g errgroup.Group
		probe := func(c HealthChecker, out *string) {
			if c == nil {
				return
			}
			g.Go(func() error {
				*out = "ok"
				if err := c.Ping(ctx); err != nil {
					*out = "unreachable"
				}
				return nil
			})
		}
		probe(checks.Database, &resp.Database)
		probe(checks.Redis, &resp.Redis)
		probe(checks.EventBus, &resp.EventBus)
		_ = g.Wait()

		for _, s := range []string{resp.Database, resp.Redis, resp.EventBus} {
			if s == "unreachable" {
				resp.Status = "degraded"
			}
		}
		if checks.Live != nil {
			n := checks.Live.Len()
			resp.LiveSubscribers = &n
		}

		status := http.StatusOK
		if resp.Status != "ok" {
			status = http.StatusServiceUnavailable
		}
		JSON(w, status, resp)
	}
}
