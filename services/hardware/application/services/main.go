package services

import (
	"github.com/hacklabs/hwlib/pkg/app"
	"github.com/hacklabs/hwlib/pkg/cache"
	"github.com/hacklabs/hwlib/services/hardware/infrastructure/persistence/postgres"
)

// Services is the application-layer service container for this bounded context.
// It wires domain services with their infrastructure implementations.
type Services struct {
	Hardware *HardwareService
}

// New wires all hardware application services with infrastructure from the
// Application container.
func New(a *app.Application) *Services {
	store := postgres.NewStore(a.Db, a.EventBus)

	opts := []Option{WithHoldWindow(a.Config.ReservationHold)}
	if a.Redis != nil {
		opts = append(opts, WithCache(cache.NewItemCache(a.Redis, a.Config.ItemCacheTTL)))
	}
	if a.Live != nil {
		opts = append(opts, WithBroadcaster(a.Live))
	}

	return &Services{
		Hardware: NewHardwareService(store, a.Logger, opts...),
	}
}
