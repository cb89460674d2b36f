package subscribers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/hacklabs/hwlib/pkg/cache"
	"github.com/hacklabs/hwlib/pkg/logger"
	"github.com/hacklabs/hwlib/services/hardware/domain/events"
	"github.com/hacklabs/hwlib/services/hardware/domain/models"
	"github.com/hacklabs/hwlib/services/hardware/domain/repositories"
	"github.com/hacklabs/hwlib/services/hardware/infrastructure/persistence/memory"
)

type fakeCache struct {
	set     map[int64]*cache.CachedItem
	deleted []int64
	err     error
}

func (c *fakeCache) Set(_ context.Context, it *cache.CachedItem) error {
	if c.err != nil {
		return c.err
	}
	if c.set == nil {
		c.set = map[int64]*cache.CachedItem{}
	}
	c.set[it.ID] = it
	return nil
}

func (c *fakeCache) Delete(_ context.Context, id int64) error {
	c.deleted = append(c.deleted, id)
	return nil
}

type fakeDedup struct {
	seen     map[string]bool
	released []string
}

func (d *fakeDedup) Claim(_ context.Context, id string) (bool, error) {
	if d.seen == nil {
		d.seen = map[string]bool{}
	}
	if d.seen[id] {
		return false, nil
	}
	d.seen[id] = true
	return true, nil
}

func (d *fakeDedup) Release(_ context.Context, id string) error {
	delete(d.seen, id)
	d.released = append(d.released, id)
	return nil
}

type failingReader struct{}

func (failingReader) GetItem(context.Context, int64) (*models.HardwareItem, error) {
	return nil, errors.New("connection reset")
}

func seededStore(t *testing.T) *memory.Store {
	t.Helper()
	s := memory.NewStore()
	err := s.WithinTx(context.Background(), func(tx repositories.Tx) error {
		_, err := tx.Catalog().AddItems(context.Background(), []models.NewItem{
			{Name: "Arduino Uno", URL: "https://store.arduino.cc/uno", TotalStock: 5},
		})
		if err != nil {
			return err
		}
		return tx.Ledger().Reserve(context.Background(), 1, 2)
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return s
}

func newMessage(t *testing.T, evt events.HardwareActivityEvent) *message.Message {
	t.Helper()
	payload, err := json.Marshal(evt)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return message.NewMessage(watermill.NewUUID(), payload)
}

func TestHandle_AuditsAndWarmsCache(t *testing.T) {
	var buf bytes.Buffer
	c := &fakeCache{}
	h := NewActivityHandler(logger.NewWithWriter(&buf, "info"), seededStore(t), c, &fakeDedup{})

	evt := events.NewActivity(events.ActivityTaken, 1, 42, 2, time.Now())
	if err := h.Handle(context.Background(), newMessage(t, evt)); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if !strings.Contains(buf.String(), "user 42 took 2 of item 1") {
		t.Errorf("audit line missing from log: %s", buf.String())
	}
	got := c.set[1]
	if got == nil || got.ReservedStock != 2 || got.TotalStock != 5 || got.Name != "Arduino Uno" {
		t.Fatalf("cache entry: %+v", got)
	}
}

func TestHandle_SkipsDuplicates(t *testing.T) {
	var buf bytes.Buffer
	c := &fakeCache{}
	h := NewActivityHandler(logger.NewWithWriter(&buf, "info"), seededStore(t), c, &fakeDedup{})

	msg := newMessage(t, events.NewActivity(events.ActivityReserved, 1, 7, 1, time.Now()))
	for i := 0; i < 2; i++ {
		if err := h.Handle(context.Background(), msg); err != nil {
			t.Fatalf("Handle #%d: %v", i, err)
		}
	}
	if n := strings.Count(buf.String(), "user 7 reserved 1 of item 1"); n != 1 {
		t.Fatalf("audit lines: got %d, want 1", n)
	}
}

func TestHandle_InvalidatesMissingAndDeletedItems(t *testing.T) {
	tests := []struct {
		name   string
		evt    events.HardwareActivityEvent
		itemID int64
	}{
		{"deleted", events.NewActivity(events.ActivityItemDeleted, 1, 7, 0, time.Now()), 1},
		{"no longer exists", events.NewActivity(events.ActivityItemUpdated, 9, 7, 0, time.Now()), 9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &fakeCache{}
			h := NewActivityHandler(logger.Nop(), seededStore(t), c, nil)
			if err := h.Handle(context.Background(), newMessage(t, tt.evt)); err != nil {
				t.Fatalf("Handle: %v", err)
			}
			if len(c.deleted) != 1 || c.deleted[0] != tt.itemID {
				t.Fatalf("deleted: got %v, want [%d]", c.deleted, tt.itemID)
			}
			if len(c.set) != 0 {
				t.Fatalf("unexpected cache writes: %v", c.set)
			}
		})
	}
}

func TestHandle_ReadFailureReleasesClaim(t *testing.T) {
	d := &fakeDedup{}
	h := NewActivityHandler(logger.Nop(), failingReader{}, &fakeCache{}, d)

	evt := events.NewActivity(events.ActivityReturned, 1, 7, 1, time.Now())
	if err := h.Handle(context.Background(), newMessage(t, evt)); err == nil {
		t.Fatal("expected error so the bus retries")
	}
	if len(d.released) != 1 || d.released[0] != evt.EventID.String() {
		t.Fatalf("released: got %v", d.released)
	}
}

func TestHandle_CacheFailureIsNotFatal(t *testing.T) {
	h := NewActivityHandler(logger.Nop(), seededStore(t), &fakeCache{err: errors.New("redis down")}, nil)
	evt := events.NewActivity(events.ActivityCancelled, 1, 7, 1, time.Now())
	if err := h.Handle(context.Background(), newMessage(t, evt)); err != nil {
		t.Fatalf("Handle: %v", err)
	}
}

func TestHandle_UndecodablePayloadIsAcked(t *testing.T) {
	h := NewActivityHandler(logger.Nop(), seededStore(t), &fakeCache{}, nil)
	if err := h.Handle(context.Background(), message.NewMessage(watermill.NewUUID(), []byte("{"))); err != nil {
		t.Fatalf("Handle: %v", err)
	}
}

func TestAuditLine(t *testing.T) {
	tests := []struct {
		activity events.Activity
		want     string
	}{
		{events.ActivityReserved, "user 3 reserved 2 of item 5"},
		{events.ActivityTaken, "user 3 took 2 of item 5"},
		{events.ActivityReturned, "user 3 returned 2 of item 5"},
		{events.ActivityCancelled, "user 3 cancelled 2 of item 5"},
		{events.ActivityExpired, "reservation of 2 of item 5 by user 3 expired"},
		{events.ActivityItemAdded, "item 5 added"},
	}
	for _, tt := range tests {
		t.Run(string(tt.activity), func(t *testing.T) {
			got := auditLine(events.NewActivity(tt.activity, 5, 3, 2, time.Now()))
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
