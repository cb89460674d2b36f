package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the hardware domain. Use errors.Is() to check these.
var (
	// ErrItemNotFound indicates the requested hardware item does not exist.
	ErrItemNotFound = errors.New("hardware item not found")

	// ErrInvalidItemName indicates the item name violates domain constraints.
	ErrInvalidItemName = errors.New("invalid item name")

	// ErrInvalidItem indicates an item definition (url, stock) is unusable.
	ErrInvalidItem = errors.New("invalid hardware item")

	// ErrItemHasReservations indicates an item cannot be deleted while units
	// are reserved or taken.
	ErrItemHasReservations = errors.New("cannot delete an item that has reservations")

	// ErrInvalidQuantity indicates a requested quantity below 1.
	ErrInvalidQuantity = errors.New("quantity must be at least 1")

	// ErrNotEnoughStock indicates the item has fewer free units than requested.
	ErrNotEnoughStock = errors.New("not enough items in stock")

	// ErrAlreadyReserved indicates the user already holds an active
	// reservation for the item.
	ErrAlreadyReserved = errors.New("item already reserved by this user")

	// ErrReservationNotFound indicates no reservation was ever issued for the token.
	ErrReservationNotFound = errors.New("reservation not found")

	// ErrReservationInactive indicates the token once existed but its
	// reservation has since been returned, cancelled or expired.
	ErrReservationInactive = errors.New("reservation is no longer active")

	// ErrReservationExpired indicates the hold window elapsed before pickup.
	// The reserved units have been released.
	ErrReservationExpired = errors.New("reservation has expired")

	// ErrAlreadyTaken indicates a take on a reservation that was already picked up.
	ErrAlreadyTaken = errors.New("this item is already taken")

	// ErrNotYetTaken indicates a return on a reservation that was never picked up.
	ErrNotYetTaken = errors.New("this item has not been taken yet")

	// ErrNotCancellable indicates a cancel on a reservation that was already picked up.
	ErrNotCancellable = errors.New("this reservation cannot be cancelled")

	// ErrDuplicateToken indicates a token collision on insert.
	ErrDuplicateToken = errors.New("duplicate reservation token")

	// ErrInvalidAdjustment indicates a ledger adjustment would break the stock
	// invariant. It always means the caller acted on stale state.
	ErrInvalidAdjustment = errors.New("invalid stock adjustment")

	// ErrConcurrentModification indicates a reservation changed underneath an
	// operation that expected to own it.
	ErrConcurrentModification = errors.New("reservation was modified concurrently")

	// ErrStoreUnavailable indicates the persistence layer could not be reached.
	ErrStoreUnavailable = errors.New("hardware store unavailable")
)

// InactiveError reports how a no-longer-active reservation was closed.
// It matches ErrReservationInactive with errors.Is.
type InactiveError struct {
	Token   string
	Outcome string
}

func (e *InactiveError) Error() string {
	return fmt.Sprintf("%s (%s)", ErrReservationInactive.Error(), e.Outcome)
}

func (e *InactiveError) Is(target error) bool {
	return target == ErrReservationInactive
}
