package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/hacklabs/hwlib/pkg/database"
	"github.com/hacklabs/hwlib/pkg/events"
	domainevents "github.com/hacklabs/hwlib/services/hardware/domain/events"
	"github.com/hacklabs/hwlib/services/hardware/domain/models"
	"github.com/hacklabs/hwlib/services/hardware/domain/repositories"
	"github.com/hacklabs/hwlib/services/hardware/infrastructure/persistence/postgres/db"
)

// Store implements repositories.Store against PostgreSQL.
type Store struct {
	db  *database.Database
	bus *events.EventBus
}

// NewStore returns a Store backed by the given connection pool and event bus.
// The bus is used to record activity events in the outbox of the same
// transaction as the mutation; a nil bus disables recording.
func NewStore(database *database.Database, bus *events.EventBus) *Store {
	return &Store{db: database, bus: bus}
}

// WithinTx runs fn in a READ COMMITTED transaction. Row locks taken through
// the Tx (LockItem, GetByToken) are held until fn returns.
func (s *Store) WithinTx(ctx context.Context, fn func(tx repositories.Tx) error) error {
	err := s.db.WithTx(ctx, func(sqlTx *sql.Tx) error {
		return fn(&txView{q: db.New(sqlTx), sqlTx: sqlTx, bus: s.bus})
	})
	return storeErr(err)
}

func (s *Store) reader() *reservationStore {
	return &reservationStore{q: db.New(s.db.DB())}
}

// GetItem reads an item outside any transaction.
func (s *Store) GetItem(ctx context.Context, itemID int64) (*models.HardwareItem, error) {
	return (&ledger{q: db.New(s.db.DB())}).GetItem(ctx, itemID)
}

// ListItems reads every item ordered by id.
func (s *Store) ListItems(ctx context.Context) ([]*models.HardwareItem, error) {
	return (&catalog{q: db.New(s.db.DB())}).ListItems(ctx)
}

// GetByToken reads a reservation without locking it.
func (s *Store) GetByToken(ctx context.Context, token string) (*models.Reservation, error) {
	return s.reader().GetByToken(ctx, token)
}

// GetTombstone reads what remains of a closed reservation.
func (s *Store) GetTombstone(ctx context.Context, token string) (*models.Tombstone, error) {
	return s.reader().GetTombstone(ctx, token)
}

// ListByItem reads every reservation for the item.
func (s *Store) ListByItem(ctx context.Context, itemID int64) ([]*models.Reservation, error) {
	return s.reader().ListByItem(ctx, itemID)
}

// ListAll reads every reservation.
func (s *Store) ListAll(ctx context.Context) ([]*models.Reservation, error) {
	return s.reader().ListAll(ctx)
}

// txView binds the three stores to one *sql.Tx.
type txView struct {
	q     *db.Queries
	sqlTx *sql.Tx
	bus   *events.EventBus
}

func (t *txView) Ledger() repositories.Ledger {
	return &ledger{q: t.q}
}

func (t *txView) Catalog() repositories.Catalog {
	return &catalog{q: t.q}
}

func (t *txView) Reservations() repositories.ReservationStore {
	return &reservationStore{q: t.q, lock: true}
}

// Record publishes evt through a Watermill publisher bound to the open
// transaction, so the event exists if and only if the mutation commits.
func (t *txView) Record(ctx context.Context, evt domainevents.HardwareActivityEvent) error {
	if t.bus == nil {
		return nil
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set("event_id", evt.EventID.String())
	msg.Metadata.Set("event_version", strconv.Itoa(evt.Version))
	msg.Metadata.Set("activity", string(evt.Activity))
	msg.SetContext(ctx)
	events.InjectTrace(ctx, msg)

	p, err := t.bus.NewTxPublisher(t.sqlTx)
	if err != nil {
		return fmt.Errorf("create publisher: %w", err)
	}
	if err := p.Publish(domainevents.TopicHardwareActivity, msg); err != nil {
		return fmt.Errorf("record %s: %w", evt.Activity, err)
	}
	return nil
}

func rowToItem(row db.HardwareItem) *models.HardwareItem {
	return &models.HardwareItem{
		ID:            row.ID,
		Name:          models.ItemName(row.Name),
		URL:           row.ItemUrl,
		TotalStock:    int(row.TotalStock),
		ReservedStock: int(row.ReservedStock),
		TakenStock:    int(row.TakenStock),
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}
}

func rowToReservation(row db.HardwareReservation) *models.Reservation {
	return &models.Reservation{
		Token:      row.Token,
		UserID:     row.UserID,
		UserName:   row.UserName,
		ItemID:     row.ItemID,
		Quantity:   int(row.Quantity),
		IsReserved: row.IsReserved,
		ExpiresAt:  row.ExpiresAt,
		CreatedAt:  row.CreatedAt,
	}
}

func rowsToReservations(rows []db.HardwareReservation) []*models.Reservation {
	out := make([]*models.Reservation, len(rows))
	for i, row := range rows {
		out[i] = rowToReservation(row)
	}
	return out
}

func utc(t time.Time) time.Time {
	return t.UTC()
}
