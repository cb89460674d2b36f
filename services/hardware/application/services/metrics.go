package services

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	hwdomain "github.com/hacklabs/hwlib/services/hardware/domain"
)

const meterName = "github.com/hacklabs/hwlib/services/hardware"

// metrics counts lifecycle operations by outcome and reports the live
// update subscriber count. Instruments come from the global MeterProvider,
// which telemetry.Setup points at the Prometheus reader.
type metrics struct {
	ops     metric.Int64Counter
	expired metric.Int64Counter
}

func newMetrics(live Broadcaster) *metrics {
	meter := otel.Meter(meterName)

	ops, _ := meter.Int64Counter("hwlib.hardware.operations",
		metric.WithDescription("Reservation lifecycle operations by result"),
	)
	expired, _ := meter.Int64Counter("hwlib.hardware.reservations.expired",
		metric.WithDescription("Reservations released because their hold window elapsed"),
	)
	if live != nil {
		_, _ = meter.Int64ObservableGauge("hwlib.live.subscribers",
			metric.WithDescription("Registered live update listeners"),
			metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
				o.Observe(int64(live.Len()))
				return nil
			}),
		)
	}
	return &metrics{ops: ops, expired: expired}
}

func (m *metrics) record(ctx context.Context, op string, err error) {
	if m == nil || m.ops == nil {
		return
	}
	m.ops.Add(ctx, 1, metric.WithAttributes(
		attribute.String("op", op),
		attribute.String("result", resultOf(err)),
	))
}

func (m *metrics) expiredN(ctx context.Context, n int) {
	if m == nil || m.expired == nil || n == 0 {
		return
	}
	m.expired.Add(ctx, int64(n))
}

func resultOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, hwdomain.ErrNotEnoughStock):
		return "not_enough_stock"
	case errors.Is(err, hwdomain.ErrAlreadyReserved):
		return "already_reserved"
	case errors.Is(err, hwdomain.ErrReservationExpired):
		return "expired"
	case errors.Is(err, hwdomain.ErrReservationNotFound), errors.Is(err, hwdomain.ErrReservationInactive):
		return "unknown_token"
	case errors.Is(err, hwdomain.ErrStoreUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}
