package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/hacklabs/hwlib/pkg/config"
)

// ErrDisabled is returned by NewRedisClient when REDIS_ENABLED is false.
// Callers run without the item cache and activity dedup.
var ErrDisabled = errors.New("redis disabled")

const connectTimeout = 2 * time.Second

// RedisClient is the connection pool shared by sessions, ItemCache and
// EventDeduper.
type RedisClient struct {
	client *redis.Client
}

// NewRedisClient connects to cfg.RedisURL and pings it before returning.
// Pool occupancy is exported as OTel gauges under hwlib.redis.pool.*.
func NewRedisClient(cfg *config.Config) (*RedisClient, error) {
	if !cfg.RedisEnabled {
		return nil, ErrDisabled
	}
	opts, err := clientOptions(cfg)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", opts.Addr, err)
	}

	rc := &RedisClient{client: rdb}
	rc.observePool()
	return rc, nil
}

func clientOptions(cfg *config.Config) (*redis.Options, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if n := cfg.RedisPoolSize; n > 0 {
		opts.PoolSize = n
		opts.MinIdleConns = max(1, n/5)
	}
	// Reads sit on the request path of GET /items/{id}; fail fast and let
	// the caller fall back to Postgres.
	opts.MaxRetries = 2
	opts.DialTimeout = 3 * time.Second
	opts.ReadTimeout = time.Second
	opts.WriteTimeout = time.Second
	opts.PoolTimeout = 2 * time.Second
	return opts, nil
}

func (r *RedisClient) observePool() {
	meter := otel.Meter("github.com/hacklabs/hwlib/pkg/cache")
	_, _ = meter.Int64ObservableGauge("hwlib.redis.pool.total",
		metric.WithDescription("Open Redis connections"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(int64(r.client.PoolStats().TotalConns))
			return nil
		}),
	)
	_, _ = meter.Int64ObservableGauge("hwlib.redis.pool.idle",
		metric.WithDescription("Idle Redis connections"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(int64(r.client.PoolStats().IdleConns))
			return nil
		}),
	)
}

// Ping backs the Redis check of /health.
func (r *RedisClient) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// Close is safe on a nil client, so callers can defer it even when Redis
// is disabled.
func (r *RedisClient) Close() error {
	if r == nil || r.client == nil {
		return nil
	}
	if err := r.client.Close(); err != nil {
		return fmt.Errorf("redis close: %w", err)
	}
	return nil
}

func (r *RedisClient) Client() *redis.Client {
	return r.client
}
