package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	// DefaultDedupTTL bounds how long a handled event id is remembered.
	DefaultDedupTTL = 24 * time.Hour

	dedupKeyPrefix = "hardware_activity"
)

// EventDeduper remembers which outbox events a subscriber has handled, so
// redelivered messages are acknowledged without repeating side effects.
// Key format: "hardware_activity:{eventID}"
type EventDeduper struct {
	client *RedisClient
	ttl    time.Duration
}

// NewEventDeduper returns an EventDeduper backed by r.
func NewEventDeduper(r *RedisClient, ttl time.Duration) *EventDeduper {
	if ttl <= 0 {
		ttl = DefaultDedupTTL
	}
	return &EventDeduper{client: r, ttl: ttl}
}

// Claim records eventID as handled. It reports false when the id was
// already claimed by an earlier delivery.
func (d *EventDeduper) Claim(ctx context.Context, eventID string) (bool, error) {
	ok, err := d.client.Client().SetNX(ctx, d.key(eventID), 1, d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("dedup claim %s: %w", eventID, err)
	}
	return ok, nil
}

// Release forgets eventID so a failed handler runs again on redelivery.
func (d *EventDeduper) Release(ctx context.Context, eventID string) error {
	if err := d.client.Client().Del(ctx, d.key(eventID)).Err(); err != nil {
		return fmt.Errorf("dedup release %s: %w", eventID, err)
	}
	return nil
}

func (d *EventDeduper) key(eventID string) string {
	return dedupKeyPrefix + ":" + eventID
}
