// Package subscribers holds the worker-side consumers of hardware events.
package subscribers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/hacklabs/hwlib/pkg/cache"
	"github.com/hacklabs/hwlib/pkg/logger"
	hwdomain "github.com/hacklabs/hwlib/services/hardware/domain"
	"github.com/hacklabs/hwlib/services/hardware/domain/events"
	"github.com/hacklabs/hwlib/services/hardware/domain/models"
)

// ItemReader loads the committed state of an item.
type ItemReader interface {
	GetItem(ctx context.Context, itemID int64) (*models.HardwareItem, error)
}

// ItemCache is the read-model cache the handler keeps warm.
type ItemCache interface {
	Set(ctx context.Context, item *cache.CachedItem) error
	Delete(ctx context.Context, itemID int64) error
}

// Deduper suppresses repeated side effects for redelivered events.
type Deduper interface {
	Claim(ctx context.Context, eventID string) (bool, error)
	Release(ctx context.Context, eventID string) error
}

// ActivityHandler consumes events.TopicHardwareActivity. It writes the audit
// log line for every mutation and refreshes the item's cache entry.
type ActivityHandler struct {
	log     logger.Logger
	items   ItemReader
	cache   ItemCache
	dedup   Deduper
	handled metric.Int64Counter
}

// NewActivityHandler returns a handler. cache and dedup may be nil.
func NewActivityHandler(log logger.Logger, items ItemReader, c ItemCache, d Deduper) *ActivityHandler {
	counter, _ := otel.Meter("github.com/hacklabs/hwlib/services/hardware/subscribers").Int64Counter(
		"hwlib.worker.activity.handled",
		metric.WithDescription("Hardware activity events handled by the worker, by activity"),
	)
	return &ActivityHandler{log: log, items: items, cache: c, dedup: d, handled: counter}
}

// Handle processes one message. A payload that cannot be decoded is logged
// and acknowledged; it would fail the same way on every retry.
func (h *ActivityHandler) Handle(ctx context.Context, msg *message.Message) (err error) {
	var evt events.HardwareActivityEvent
	if dErr := json.Unmarshal(msg.Payload, &evt); dErr != nil {
		h.log.ErrorContext(ctx, "hardware: undecodable activity event",
			"message_uuid", msg.UUID, "error", dErr)
		return nil
	}

	if h.dedup != nil {
		id := evt.EventID.String()
		first, claimErr := h.dedup.Claim(ctx, id)
		if claimErr != nil {
			h.log.WarnContext(ctx, "hardware: dedup unavailable, handling anyway", "event_id", id, "error", claimErr)
		} else if !first {
			h.log.DebugContext(ctx, "hardware: duplicate activity event", "event_id", id)
			return nil
		} else {
			defer func() {
				if err == nil {
					return
				}
				if rErr := h.dedup.Release(ctx, id); rErr != nil {
					h.log.WarnContext(ctx, "hardware: dedup release failed", "event_id", id, "error", rErr)
				}
			}()
		}
	}

	h.audit(ctx, evt)

	if err = h.refresh(ctx, evt); err != nil {
		return err
	}
	if h.handled != nil {
		h.handled.Add(ctx, 1, metric.WithAttributes(attribute.String("activity", string(evt.Activity))))
	}
	return nil
}

func (h *ActivityHandler) audit(ctx context.Context, evt events.HardwareActivityEvent) {
	h.log.InfoContext(ctx, auditLine(evt),
		"activity", evt.Activity,
		"event_id", evt.EventID.String(),
		"user_id", evt.UserID,
		"item_id", evt.ItemID,
		"quantity", evt.Quantity,
		"occurred_at", evt.OccurredAt,
	)
}

// auditLine renders the human-readable form of evt.
func auditLine(evt events.HardwareActivityEvent) string {
	switch evt.Activity {
	case events.ActivityReserved:
		return fmt.Sprintf("user %d reserved %d of item %d", evt.UserID, evt.Quantity, evt.ItemID)
	case events.ActivityTaken:
		return fmt.Sprintf("user %d took %d of item %d", evt.UserID, evt.Quantity, evt.ItemID)
	case events.ActivityReturned:
		return fmt.Sprintf("user %d returned %d of item %d", evt.UserID, evt.Quantity, evt.ItemID)
	case events.ActivityCancelled:
		return fmt.Sprintf("user %d cancelled %d of item %d", evt.UserID, evt.Quantity, evt.ItemID)
	case events.ActivityExpired:
		return fmt.Sprintf("reservation of %d of item %d by user %d expired", evt.Quantity, evt.ItemID, evt.UserID)
	case events.ActivityItemAdded:
		return fmt.Sprintf("item %d added", evt.ItemID)
	case events.ActivityItemUpdated:
		return fmt.Sprintf("item %d updated", evt.ItemID)
	case events.ActivityItemDeleted:
		return fmt.Sprintf("item %d deleted", evt.ItemID)
	default:
		return fmt.Sprintf("item %d: %s", evt.ItemID, evt.Activity)
	}
}

// refresh rewrites the cache entry of the event's item from the database.
func (h *ActivityHandler) refresh(ctx context.Context, evt events.HardwareActivityEvent) error {
	if h.cache == nil {
		return nil
	}
	if evt.Activity == events.ActivityItemDeleted {
		return h.drop(ctx, evt.ItemID)
	}

	item, err := h.items.GetItem(ctx, evt.ItemID)
	if errors.Is(err, hwdomain.ErrItemNotFound) {
		return h.drop(ctx, evt.ItemID)
	}
	if err != nil {
		return fmt.Errorf("load item %d: %w", evt.ItemID, err)
	}

	if err := h.cache.Set(ctx, &cache.CachedItem{
		ID:            item.ID,
		Name:          item.Name.String(),
		URL:           item.URL,
		TotalStock:    item.TotalStock,
		ReservedStock: item.ReservedStock,
		TakenStock:    item.TakenStock,
		UpdatedAt:     item.UpdatedAt,
	}); err != nil {
		// Cache warming is best-effort; log but do not fail the handler.
		h.log.WarnContext(ctx, "hardware: cache warm failed", "item_id", evt.ItemID, "error", err)
	}
	return nil
}

func (h *ActivityHandler) drop(ctx context.Context, itemID int64) error {
	if err := h.cache.Delete(ctx, itemID); err != nil {
		h.log.WarnContext(ctx, "hardware: cache invalidate failed", "item_id", itemID, "error", err)
	}
	return nil
}
