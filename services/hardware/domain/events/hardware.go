package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/hacklabs/hwlib/services/hardware/domain/models"
)

// TopicHardwareActivity is the Watermill topic every committed hardware
// mutation is recorded to, in the same transaction as the mutation.
const TopicHardwareActivity = "hardware.activity"

// Activity names a hardware mutation.
type Activity string

const (
	ActivityItemAdded   Activity = "item_added"
	ActivityItemUpdated Activity = "item_updated"
	ActivityItemDeleted Activity = "item_deleted"
	ActivityReserved    Activity = "reserved"
	ActivityTaken       Activity = "taken"
	ActivityReturned    Activity = "returned"
	ActivityCancelled   Activity = "cancelled"
	ActivityExpired     Activity = "expired"
)

// HardwareActivityEvent is published for every committed hardware mutation.
// Consumers subscribe via EventBus.Subscribe(ctx, events.TopicHardwareActivity).
type HardwareActivityEvent struct {
	EventID    uuid.UUID `json:"event_id"` // Unique publish-time identifier for deduplication
	Version    int       `json:"version"`  // Schema version; increment on breaking changes
	Activity   Activity  `json:"activity"`
	ItemID     int64     `json:"item_id"`
	UserID     int64     `json:"user_id,omitempty"`
	Quantity   int       `json:"quantity,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewActivity builds a version-1 activity event.
func NewActivity(activity Activity, itemID, userID int64, quantity int, at time.Time) HardwareActivityEvent {
	return HardwareActivityEvent{
		EventID:    uuid.New(),
		Version:    1,
		Activity:   activity,
		ItemID:     itemID,
		UserID:     userID,
		Quantity:   quantity,
		OccurredAt: at.UTC(),
	}
}

// PacketType is the kind of live update pushed to stream listeners.
type PacketType int

const (
	PacketItemAdd    PacketType = 0
	PacketItemDelete PacketType = 1
	PacketItemUpdate PacketType = 2
)

// SSEHardwareItem is the item snapshot carried by a live update.
type SSEHardwareItem struct {
	ItemID       int64  `json:"itemID"`
	ItemName     string `json:"itemName"`
	ItemURL      string `json:"itemURL"`
	ItemStock    int    `json:"itemStock"`
	ItemsLeft    int    `json:"itemsLeft"`
	ItemHasStock bool   `json:"itemHasStock"`
}

// Packet is one live update frame payload.
type Packet struct {
	Type PacketType      `json:"type"`
	Item SSEHardwareItem `json:"item"`
}

// NewPacket snapshots item into a packet of the given type.
func NewPacket(t PacketType, item *models.HardwareItem) Packet {
	return Packet{
		Type: t,
		Item: SSEHardwareItem{
			ItemID:       item.ID,
			ItemName:     item.Name.String(),
			ItemURL:      item.URL,
			ItemStock:    item.TotalStock,
			ItemsLeft:    item.ItemsLeft(),
			ItemHasStock: item.HasStock(),
		},
	}
}
