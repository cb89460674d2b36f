package models

import (
	"fmt"
	"time"
)

// HardwareItem is a stocked piece of hardware in the library.
// Counts move only through the ledger; TotalStock is fixed at import time
// unless an organiser edits the item.
type HardwareItem struct {
	ID            int64
	Name          ItemName
	URL           string
	TotalStock    int
	ReservedStock int // held, not yet picked up
	TakenStock    int // physically checked out
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewItem describes an item to be bulk-imported.
type NewItem struct {
	Name       ItemName
	URL        string
	TotalStock int
}

// ItemsLeft is the number of units neither reserved nor taken.
func (i *HardwareItem) ItemsLeft() int {
	return i.TotalStock - (i.ReservedStock + i.TakenStock)
}

// HasStock reports whether at least one unit is free.
func (i *HardwareItem) HasStock() bool {
	return i.ItemsLeft() > 0
}

// CanDelete reports whether no units are reserved or taken.
func (i *HardwareItem) CanDelete() bool {
	return i.ReservedStock == 0 && i.TakenStock == 0
}

// Validate checks the stock invariant:
// 0 <= reserved, 0 <= taken, reserved + taken <= total.
func (i *HardwareItem) Validate() error {
	switch {
	case i.TotalStock < 0:
		return fmt.Errorf("total stock %d is negative", i.TotalStock)
	case i.ReservedStock < 0:
		return fmt.Errorf("reserved stock %d is negative", i.ReservedStock)
	case i.TakenStock < 0:
		return fmt.Errorf("taken stock %d is negative", i.TakenStock)
	case i.ReservedStock+i.TakenStock > i.TotalStock:
		return fmt.Errorf("reserved %d + taken %d exceeds total %d", i.ReservedStock, i.TakenStock, i.TotalStock)
	}
	return nil
}
