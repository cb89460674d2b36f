package repositories

import (
	"context"
	"time"

	"github.com/hacklabs/hwlib/services/hardware/domain/events"
	"github.com/hacklabs/hwlib/services/hardware/domain/models"
)

// Ledger owns the stock-count invariant of every item. Each adjustment is a
// single conditional statement; a failed guard returns ErrNotEnoughStock or
// ErrInvalidAdjustment and leaves the counts untouched.
//
// Lock order: a transaction locks an item before any reservation of that
// item, and locks several items in ascending id order.
type Ledger interface {
	// LockItem reads the item and holds its row lock until the transaction ends.
	LockItem(ctx context.Context, itemID int64) (*models.HardwareItem, error)
	GetItem(ctx context.Context, itemID int64) (*models.HardwareItem, error)

	// Reserve adds qty to reserved stock only if qty units are free.
	Reserve(ctx context.Context, itemID int64, qty int) error
	// MarkTaken moves qty units from reserved to taken.
	MarkTaken(ctx context.Context, itemID int64, qty int) error
	// MarkReturned removes qty units from taken.
	MarkReturned(ctx context.Context, itemID int64, qty int) error
	// Release removes qty units from reserved.
	Release(ctx context.Context, itemID int64, qty int) error
}

// Catalog manages item definitions.
type Catalog interface {
	AddItems(ctx context.Context, items []models.NewItem) ([]*models.HardwareItem, error)
	ListItems(ctx context.Context) ([]*models.HardwareItem, error)

	// UpdateItem rewrites the descriptive fields and total stock. Fails with
	// ErrInvalidAdjustment when totalStock would drop below reserved + taken.
	UpdateItem(ctx context.Context, itemID int64, name models.ItemName, url string, totalStock int) (*models.HardwareItem, error)

	// DeleteItem removes an item with no reserved or taken units.
	DeleteItem(ctx context.Context, itemID int64) error
}

// ReservationStore maps tokens to reservation records.
type ReservationStore interface {
	// Create inserts r. Returns ErrDuplicateToken on token collision.
	Create(ctx context.Context, r *models.Reservation) error

	// GetByToken returns the reservation or ErrReservationNotFound. Inside a
	// transaction the row stays locked until commit.
	GetByToken(ctx context.Context, token string) (*models.Reservation, error)

	// Peek reads the reservation without locking it, so the caller can lock
	// its item first.
	Peek(ctx context.Context, token string) (*models.Reservation, error)

	// FindByUserAndItem returns the user's reservation for the item, expired or not.
	FindByUserAndItem(ctx context.Context, userID, itemID int64) (*models.Reservation, error)
	HasActiveReservation(ctx context.Context, userID, itemID int64, now time.Time) (bool, error)

	ListByItem(ctx context.Context, itemID int64) ([]*models.Reservation, error)
	ListByUser(ctx context.Context, userID int64) ([]*models.Reservation, error)
	ListAll(ctx context.Context) ([]*models.Reservation, error)

	// ListExpired returns held reservations past expiry ordered by item id.
	// Rows are not locked; resolve each one only after locking its item and
	// re-reading it with GetByToken.
	ListExpired(ctx context.Context, now time.Time) ([]*models.Reservation, error)

	// PruneTombstones deletes tombstones closed before cutoff and returns how
	// many went. Their tokens then read as never issued.
	PruneTombstones(ctx context.Context, cutoff time.Time) (int64, error)

	// MarkTaken flips is_reserved to false. Returns rows affected.
	MarkTaken(ctx context.Context, token string) (int64, error)

	// DeleteByToken removes the record and leaves a tombstone carrying
	// outcome. Returns rows affected; 0 means someone else got there first.
	DeleteByToken(ctx context.Context, token string, outcome models.Outcome, now time.Time) (int64, error)

	GetTombstone(ctx context.Context, token string) (*models.Tombstone, error)
}

// Tx is one transaction's view of the hardware store. Everything done
// through a Tx commits or rolls back together.
type Tx interface {
	Ledger() Ledger
	Catalog() Catalog
	Reservations() ReservationStore

	// Record appends an activity event to the transactional outbox.
	Record(ctx context.Context, evt events.HardwareActivityEvent) error
}

// UnitOfWork runs fn inside a single transaction. fn returning an error
// rolls back every change made through tx.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
}

// Reader serves the non-transactional read paths.
type Reader interface {
	GetItem(ctx context.Context, itemID int64) (*models.HardwareItem, error)
	ListItems(ctx context.Context) ([]*models.HardwareItem, error)
	GetByToken(ctx context.Context, token string) (*models.Reservation, error)
	GetTombstone(ctx context.Context, token string) (*models.Tombstone, error)
	ListByItem(ctx context.Context, itemID int64) ([]*models.Reservation, error)
	ListAll(ctx context.Context) ([]*models.Reservation, error)
}

// Store is the full persistence surface the hardware service depends on.
type Store interface {
	UnitOfWork
	Reader
}
