// Package memory is an in-process implementation of the hardware store.
// Transactions are serialised behind one mutex and run against a private copy
// of the state that replaces the live state only on commit, so a failed
// transaction leaves nothing behind.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	hwdomain "github.com/hacklabs/hwlib/services/hardware/domain"
	"github.com/hacklabs/hwlib/services/hardware/domain/events"
	"github.com/hacklabs/hwlib/services/hardware/domain/models"
	"github.com/hacklabs/hwlib/services/hardware/domain/repositories"
)

type state struct {
	nextID       int64
	items        map[int64]models.HardwareItem
	reservations map[string]models.Reservation
	tombstones   map[string]models.Tombstone
}

func newState() *state {
	return &state{
		items:        make(map[int64]models.HardwareItem),
		reservations: make(map[string]models.Reservation),
		tombstones:   make(map[string]models.Tombstone),
	}
}

func (s *state) clone() *state {
	c := &state{
		nextID:       s.nextID,
		items:        make(map[int64]models.HardwareItem, len(s.items)),
		reservations: make(map[string]models.Reservation, len(s.reservations)),
		tombstones:   make(map[string]models.Tombstone, len(s.tombstones)),
	}
	for k, v := range s.items {
		c.items[k] = v
	}
	for k, v := range s.reservations {
		c.reservations[k] = v
	}
	for k, v := range s.tombstones {
		c.tombstones[k] = v
	}
	return c
}

// Store implements repositories.Store in memory.
type Store struct {
	mu       sync.Mutex
	st       *state
	recorded []events.HardwareActivityEvent
	fail     error
}

var _ repositories.Store = (*Store)(nil)

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{st: newState()}
}

// FailWith makes every subsequent call return err until called with nil.
func (s *Store) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = err
}

// Recorded returns the activity events of every committed transaction, in
// commit order.
func (s *Store) Recorded() []events.HardwareActivityEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]events.HardwareActivityEvent(nil), s.recorded...)
}

// WithinTx runs fn against a private copy of the state and installs the copy
// only when fn returns nil.
func (s *Store) WithinTx(ctx context.Context, fn func(tx repositories.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	tx := &memTx{st: s.st.clone()}
	if err := fn(tx); err != nil {
		return err
	}
	s.st = tx.st
	s.recorded = append(s.recorded, tx.recorded...)
	return nil
}

func (s *Store) read(fn func(st *state) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	return fn(s.st)
}

func (s *Store) GetItem(_ context.Context, itemID int64) (*models.HardwareItem, error) {
	var out *models.HardwareItem
	err := s.read(func(st *state) error {
		it, ok := st.items[itemID]
		if !ok {
			return hwdomain.ErrItemNotFound
		}
		out = &it
		return nil
	})
	return out, err
}

func (s *Store) ListItems(_ context.Context) ([]*models.HardwareItem, error) {
	var out []*models.HardwareItem
	err := s.read(func(st *state) error {
		out = listItems(st)
		return nil
	})
	return out, err
}

func (s *Store) GetByToken(_ context.Context, token string) (*models.Reservation, error) {
	var out *models.Reservation
	err := s.read(func(st *state) error {
		r, ok := st.reservations[token]
		if !ok {
			return hwdomain.ErrReservationNotFound
		}
		out = &r
		return nil
	})
	return out, err
}

func (s *Store) GetTombstone(_ context.Context, token string) (*models.Tombstone, error) {
	var out *models.Tombstone
	err := s.read(func(st *state) error {
		t, ok := st.tombstones[token]
		if !ok {
			return hwdomain.ErrReservationNotFound
		}
		out = &t
		return nil
	})
	return out, err
}

func (s *Store) ListByItem(_ context.Context, itemID int64) ([]*models.Reservation, error) {
	var out []*models.Reservation
	err := s.read(func(st *state) error {
		out = filterReservations(st, func(r models.Reservation) bool { return r.ItemID == itemID })
		return nil
	})
	return out, err
}

func (s *Store) ListAll(_ context.Context) ([]*models.Reservation, error) {
	var out []*models.Reservation
	err := s.read(func(st *state) error {
		out = filterReservations(st, func(models.Reservation) bool { return true })
		return nil
	})
	return out, err
}

func listItems(st *state) []*models.HardwareItem {
	out := make([]*models.HardwareItem, 0, len(st.items))
	for _, it := range st.items {
		it := it
		out = append(out, &it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func filterReservations(st *state, keep func(models.Reservation) bool) []*models.Reservation {
	out := make([]*models.Reservation, 0)
	for _, r := range st.reservations {
		if keep(r) {
			r := r
			out = append(out, &r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].Token < out[j].Token
	})
	return out
}

// memTx is one transaction's private view. It is only touched while the
// Store mutex is held.
type memTx struct {
	st       *state
	recorded []events.HardwareActivityEvent
}

func (t *memTx) Ledger() repositories.Ledger                 { return (*ledger)(t) }
func (t *memTx) Catalog() repositories.Catalog               { return (*catalog)(t) }
func (t *memTx) Reservations() repositories.ReservationStore { return (*reservations)(t) }

func (t *memTx) Record(_ context.Context, evt events.HardwareActivityEvent) error {
	t.recorded = append(t.recorded, evt)
	return nil
}

type ledger memTx

func (l *ledger) LockItem(ctx context.Context, itemID int64) (*models.HardwareItem, error) {
	return l.GetItem(ctx, itemID)
}

func (l *ledger) GetItem(_ context.Context, itemID int64) (*models.HardwareItem, error) {
	it, ok := l.st.items[itemID]
	if !ok {
		return nil, hwdomain.ErrItemNotFound
	}
	return &it, nil
}

// adjust applies one guarded change; the guard sees the current counts.
func (l *ledger) adjust(itemID int64, qty int, rejected error, guard func(models.HardwareItem) bool, apply func(*models.HardwareItem)) error {
	if qty < 1 {
		return hwdomain.ErrInvalidQuantity
	}
	it, ok := l.st.items[itemID]
	if !ok {
		return hwdomain.ErrItemNotFound
	}
	if !guard(it) {
		return rejected
	}
	apply(&it)
	it.UpdatedAt = time.Now().UTC()
	l.st.items[itemID] = it
	return nil
}

func (l *ledger) Reserve(_ context.Context, itemID int64, qty int) error {
	return l.adjust(itemID, qty, hwdomain.ErrNotEnoughStock,
		func(it models.HardwareItem) bool { return it.ItemsLeft() >= qty },
		func(it *models.HardwareItem) { it.ReservedStock += qty })
}

func (l *ledger) MarkTaken(_ context.Context, itemID int64, qty int) error {
	return l.adjust(itemID, qty, hwdomain.ErrInvalidAdjustment,
		func(it models.HardwareItem) bool { return it.ReservedStock >= qty },
		func(it *models.HardwareItem) { it.ReservedStock -= qty; it.TakenStock += qty })
}

func (l *ledger) MarkReturned(_ context.Context, itemID int64, qty int) error {
	return l.adjust(itemID, qty, hwdomain.ErrInvalidAdjustment,
		func(it models.HardwareItem) bool { return it.TakenStock >= qty },
		func(it *models.HardwareItem) { it.TakenStock -= qty })
}

func (l *ledger) Release(_ context.Context, itemID int64, qty int) error {
	return l.adjust(itemID, qty, hwdomain.ErrInvalidAdjustment,
		func(it models.HardwareItem) bool { return it.ReservedStock >= qty },
		func(it *models.HardwareItem) { it.ReservedStock -= qty })
}

type catalog memTx

func (c *catalog) AddItems(_ context.Context, items []models.NewItem) ([]*models.HardwareItem, error) {
	now := time.Now().UTC()
	out := make([]*models.HardwareItem, 0, len(items))
	for _, n := range items {
		c.st.nextID++
		it := models.HardwareItem{
			ID:         c.st.nextID,
			Name:       n.Name,
			URL:        n.URL,
			TotalStock: n.TotalStock,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		c.st.items[it.ID] = it
		out = append(out, &it)
	}
	return out, nil
}

func (c *catalog) ListItems(_ context.Context) ([]*models.HardwareItem, error) {
	return listItems(c.st), nil
}

func (c *catalog) UpdateItem(_ context.Context, itemID int64, name models.ItemName, url string, totalStock int) (*models.HardwareItem, error) {
	it, ok := c.st.items[itemID]
	if !ok {
		return nil, hwdomain.ErrItemNotFound
	}
	if totalStock < it.ReservedStock+it.TakenStock {
		return nil, hwdomain.ErrInvalidAdjustment
	}
	it.Name = name
	it.URL = url
	it.TotalStock = totalStock
	it.UpdatedAt = time.Now().UTC()
	c.st.items[itemID] = it
	return &it, nil
}

func (c *catalog) DeleteItem(_ context.Context, itemID int64) error {
	it, ok := c.st.items[itemID]
	if !ok {
		return hwdomain.ErrItemNotFound
	}
	if !it.CanDelete() {
		return hwdomain.ErrItemHasReservations
	}
	delete(c.st.items, itemID)
	return nil
}

type reservations memTx

func (s *reservations) Create(_ context.Context, r *models.Reservation) error {
	if _, ok := s.st.reservations[r.Token]; ok {
		return hwdomain.ErrDuplicateToken
	}
	if _, ok := s.st.tombstones[r.Token]; ok {
		return hwdomain.ErrDuplicateToken
	}
	if _, ok := s.st.items[r.ItemID]; !ok {
		return hwdomain.ErrItemNotFound
	}
	s.st.reservations[r.Token] = *r
	return nil
}

func (s *reservations) GetByToken(_ context.Context, token string) (*models.Reservation, error) {
	r, ok := s.st.reservations[token]
	if !ok {
		return nil, hwdomain.ErrReservationNotFound
	}
	return &r, nil
}

func (s *reservations) Peek(ctx context.Context, token string) (*models.Reservation, error) {
	return s.GetByToken(ctx, token)
}

func (s *reservations) FindByUserAndItem(_ context.Context, userID, itemID int64) (*models.Reservation, error) {
	var found *models.Reservation
	for _, r := range s.st.reservations {
		if r.UserID != userID || r.ItemID != itemID {
			continue
		}
		if found == nil || r.CreatedAt.After(found.CreatedAt) {
			r := r
			found = &r
		}
	}
	if found == nil {
		return nil, hwdomain.ErrReservationNotFound
	}
	return found, nil
}

func (s *reservations) HasActiveReservation(_ context.Context, userID, itemID int64, now time.Time) (bool, error) {
	for _, r := range s.st.reservations {
		if r.UserID == userID && r.ItemID == itemID && r.IsActive(now) {
			return true, nil
		}
	}
	return false, nil
}

func (s *reservations) ListByItem(_ context.Context, itemID int64) ([]*models.Reservation, error) {
	return filterReservations(s.st, func(r models.Reservation) bool { return r.ItemID == itemID }), nil
}

func (s *reservations) ListByUser(_ context.Context, userID int64) ([]*models.Reservation, error) {
	return filterReservations(s.st, func(r models.Reservation) bool { return r.UserID == userID }), nil
}

func (s *reservations) ListAll(_ context.Context) ([]*models.Reservation, error) {
	return filterReservations(s.st, func(models.Reservation) bool { return true }), nil
}

func (s *reservations) ListExpired(_ context.Context, now time.Time) ([]*models.Reservation, error) {
	out := filterReservations(s.st, func(r models.Reservation) bool { return r.IsExpired(now) })
	sort.SliceStable(out, func(i, j int) bool { return out[i].ItemID < out[j].ItemID })
	return out, nil
}

func (s *reservations) MarkTaken(_ context.Context, token string) (int64, error) {
	r, ok := s.st.reservations[token]
	if !ok || !r.IsReserved {
		return 0, nil
	}
	r.IsReserved = false
	s.st.reservations[token] = r
	return 1, nil
}

func (s *reservations) DeleteByToken(_ context.Context, token string, outcome models.Outcome, now time.Time) (int64, error) {
	r, ok := s.st.reservations[token]
	if !ok {
		return 0, nil
	}
	delete(s.st.reservations, token)
	if _, exists := s.st.tombstones[token]; !exists {
		s.st.tombstones[token] = models.Tombstone{
			Token:    token,
			ItemID:   r.ItemID,
			UserID:   r.UserID,
			Outcome:  outcome,
			ClosedAt: now,
		}
	}
	return 1, nil
}

func (s *reservations) PruneTombstones(_ context.Context, cutoff time.Time) (int64, error) {
	var n int64
	for tok, t := range s.st.tombstones {
		if t.ClosedAt.Before(cutoff) {
			delete(s.st.tombstones, tok)
			n++
		}
	}
	return n, nil
}

func (s *reservations) GetTombstone(_ context.Context, token string) (*models.Tombstone, error) {
	t, ok := s.st.tombstones[token]
	if !ok {
		return nil, hwdomain.ErrReservationNotFound
	}
	return &t, nil
}
