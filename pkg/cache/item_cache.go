package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// DefaultItemCacheTTL is used when NewItemCache is given a non-positive TTL.
	DefaultItemCacheTTL = 10 * time.Minute

	itemCacheKeyPrefix = "hardware_item"
)

// CachedItem is the denormalized read model of a hardware item stored in
// Redis as a hash. Stock counts are a snapshot; writers invalidate the key
// after every committed adjustment.
type CachedItem struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	URL           string    `json:"url"`
	TotalStock    int       `json:"total_stock"`
	ReservedStock int       `json:"reserved_stock"`
	TakenStock    int       `json:"taken_stock"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ItemCache provides structured read/write operations for item cache entries.
// Key format: "hardware_item:{itemID}"
type ItemCache struct {
	client *RedisClient
	ttl    time.Duration
}

// NewItemCache creates a new ItemCache backed by the given RedisClient.
func NewItemCache(r *RedisClient, ttl time.Duration) *ItemCache {
	if ttl <= 0 {
		ttl = DefaultItemCacheTTL
	}
	return &ItemCache{client: r, ttl: ttl}
}

// Get retrieves a cached item by ID.
// Returns redis.Nil error when the key does not exist or has expired.
func (c *ItemCache) Get(ctx context.Context, itemID int64) (*CachedItem, error) {
	vals, err := c.client.Client().HGetAll(ctx, c.key(itemID)).Result()
	if err != nil {
		return nil, fmt.Errorf("cache get: %w", err)
	}
	if len(vals) == 0 {
		return nil, redis.Nil
	}

	id, err := strconv.ParseInt(vals["id"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("cache parse id: %w", err)
	}
	counts := make(map[string]int, 3)
	for _, f := range []string{"total_stock", "reserved_stock", "taken_stock"} {
		n, err := strconv.Atoi(vals[f])
		if err != nil {
			return nil, fmt.Errorf("cache parse %s: %w", f, err)
		}
		counts[f] = n
	}
	updatedAt, err := time.Parse(time.RFC3339Nano, vals["updated_at"])
	if err != nil {
		return nil, fmt.Errorf("cache parse updated_at: %w", err)
	}

	return &CachedItem{
		ID:            id,
		Name:          vals["name"],
		URL:           vals["url"],
		TotalStock:    counts["total_stock"],
		ReservedStock: counts["reserved_stock"],
		TakenStock:    counts["taken_stock"],
		UpdatedAt:     updatedAt,
	}, nil
}

// Set writes a cached item as a Redis hash with the configured TTL.
// Uses a pipeline to set all fields and the TTL atomically.
func (c *ItemCache) Set(ctx context.Context, item *CachedItem) error {
	key := c.key(item.ID)
	pipe := c.client.Client().TxPipeline()
	pipe.HSet(ctx, key,
		"id", strconv.FormatInt(item.ID, 10),
		"name", item.Name,
		"url", item.URL,
		"total_stock", strconv.Itoa(item.TotalStock),
		"reserved_stock", strconv.Itoa(item.ReservedStock),
		"taken_stock", strconv.Itoa(item.TakenStock),
		"updated_at", item.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	pipe.Expire(ctx, key, c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// Delete removes a cached item.
func (c *ItemCache) Delete(ctx context.Context, itemID int64) error {
	if err := c.client.Client().Del(ctx, c.key(itemID)).Err(); err != nil {
		return fmt.Errorf("cache delete: %w", err)
	}
	return nil
}

// key builds the Redis key: "hardware_item:{itemID}"
func (c *ItemCache) key(itemID int64) string {
	return itemCacheKeyPrefix + ":" + strconv.FormatInt(itemID, 10)
}
