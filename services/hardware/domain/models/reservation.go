package models

import (
	"time"
)

// DefaultHoldWindow is how long a reservation stays valid before pickup.
const DefaultHoldWindow = 30 * time.Minute

// Outcome records how a reservation left the store.
type Outcome string

const (
	OutcomeReturned  Outcome = "returned"
	OutcomeCancelled Outcome = "cancelled"
	OutcomeExpired   Outcome = "expired"
)

// Reservation is a hold on Quantity units of one item. Possession of Token
// authorises take, return and cancel.
type Reservation struct {
	Token      string
	UserID     int64
	UserName   string
	ItemID     int64
	Quantity   int
	IsReserved bool // false once the units have been picked up
	ExpiresAt  time.Time
	CreatedAt  time.Time
}

// NewReservation builds a held reservation expiring hold after now.
func NewReservation(token string, user User, itemID int64, quantity int, now time.Time, hold time.Duration) *Reservation {
	return &Reservation{
		Token:      token,
		UserID:     user.ID,
		UserName:   user.Name,
		ItemID:     itemID,
		Quantity:   quantity,
		IsReserved: true,
		ExpiresAt:  now.Add(hold),
		CreatedAt:  now,
	}
}

// IsExpired reports whether a held reservation is past its expiry.
// Taken reservations never expire.
func (r *Reservation) IsExpired(now time.Time) bool {
	return r.IsReserved && now.After(r.ExpiresAt)
}

// IsActive reports whether the reservation still counts against the user's
// one-per-item allowance.
func (r *Reservation) IsActive(now time.Time) bool {
	return !r.IsExpired(now)
}

// ExpiresIn is the number of whole minutes until expiry, floored.
// Zero once taken.
func (r *Reservation) ExpiresIn(now time.Time) int {
	if !r.IsReserved {
		return 0
	}
	d := r.ExpiresAt.Sub(now)
	if d <= 0 {
		return 0
	}
	return int(d / time.Minute)
}

// Tombstone is what remains of a reservation after it left the store.
type Tombstone struct {
	Token    string
	ItemID   int64
	UserID   int64
	Outcome  Outcome
	ClosedAt time.Time
}

// User is the authenticated caller as supplied by the identity service.
type User struct {
	ID   int64
	Name string
}
