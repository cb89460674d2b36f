package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	pkgcache "github.com/hacklabs/hwlib/pkg/cache"
	"github.com/hacklabs/hwlib/pkg/logger"
	hwdomain "github.com/hacklabs/hwlib/services/hardware/domain"
	"github.com/hacklabs/hwlib/services/hardware/domain/events"
	"github.com/hacklabs/hwlib/services/hardware/domain/models"
	"github.com/hacklabs/hwlib/services/hardware/domain/repositories"
	domainsvcs "github.com/hacklabs/hwlib/services/hardware/domain/services"
)

// maxTokenAttempts bounds reservation inserts that collide on token.
const maxTokenAttempts = 3

// ItemCache is the read-through cache of GetItem. Entries are only written
// by the activity worker; the service reads and invalidates them.
type ItemCache interface {
	Get(ctx context.Context, itemID int64) (*pkgcache.CachedItem, error)
	Delete(ctx context.Context, itemID int64) error
}

// Broadcaster receives a packet after every committed stock change.
type Broadcaster interface {
	Broadcast(v any)
	Len() int
}

// ItemView is one row of the item listing, personalised for the caller.
type ItemView struct {
	ItemID              int64  `json:"itemID"`
	ItemName            string `json:"itemName"`
	ItemURL             string `json:"itemURL"`
	ItemStock           int    `json:"itemStock"`
	ItemsLeft           int    `json:"itemsLeft"`
	ItemHasStock        bool   `json:"itemHasStock"`
	Reserved            bool   `json:"reserved"`
	Taken               bool   `json:"taken"`
	ReservationQuantity int    `json:"reservationQuantity"`
	ReservationToken    string `json:"reservationToken"`
	ExpiresIn           int    `json:"expiresIn"`
}

// HardwareService runs the reservation lifecycle. Every operation is one
// unit of work: the ledger adjustment, the reservation change and the
// activity record commit or roll back together. Live updates and cache
// invalidation happen only after commit.
type HardwareService struct {
	store    repositories.Store
	cache    ItemCache
	live     Broadcaster
	log      logger.Logger
	metrics  *metrics
	now      func() time.Time
	newToken func() (string, error)
	hold     time.Duration
}

// Option customises a HardwareService.
type Option func(*HardwareService)

// WithCache enables the Redis read-through cache for GetItem.
func WithCache(c ItemCache) Option {
	return func(s *HardwareService) {
		if c != nil {
			s.cache = c
		}
	}
}

// WithBroadcaster sets the live update sink.
func WithBroadcaster(b Broadcaster) Option {
	return func(s *HardwareService) { s.live = b }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *HardwareService) { s.now = now }
}

// WithTokenGenerator replaces the random token source.
func WithTokenGenerator(gen func() (string, error)) Option {
	return func(s *HardwareService) { s.newToken = gen }
}

// WithHoldWindow sets how long a reservation stays valid before pickup.
func WithHoldWindow(d time.Duration) Option {
	return func(s *HardwareService) {
		if d > 0 {
			s.hold = d
		}
	}
}

// NewHardwareService returns a HardwareService over store.
func NewHardwareService(store repositories.Store, log logger.Logger, opts ...Option) *HardwareService {
	s := &HardwareService{
		store:    store,
		log:      log,
		now:      time.Now,
		newToken: domainsvcs.NewReservationToken,
		hold:     models.DefaultHoldWindow,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.metrics = newMetrics(s.live)
	return s
}

// Reserve holds qty units of itemID for user and returns the new reservation.
// A previous reservation of the same item that has expired is released
// first; one that is still active yields ErrAlreadyReserved.
func (s *HardwareService) Reserve(ctx context.Context, user models.User, itemID int64, qty int) (res *models.Reservation, err error) {
	defer func() { s.metrics.record(ctx, "reserve", err) }()

	if err := domainsvcs.ValidateQuantity(qty); err != nil {
		return nil, fmt.Errorf("%w: %w", hwdomain.ErrInvalidQuantity, err)
	}

	now := s.now()
	var item *models.HardwareItem
	for attempt := 1; attempt <= maxTokenAttempts; attempt++ {
		err = s.store.WithinTx(ctx, func(tx repositories.Tx) error {
			if _, err := tx.Ledger().LockItem(ctx, itemID); err != nil {
				return err
			}

			prev, err := tx.Reservations().FindByUserAndItem(ctx, user.ID, itemID)
			switch {
			case errors.Is(err, hwdomain.ErrReservationNotFound):
			case err != nil:
				return fmt.Errorf("find reservation: %w", err)
			case prev.IsExpired(now):
				if err := s.expire(ctx, tx, prev, now); err != nil {
					return err
				}
			default:
				return hwdomain.ErrAlreadyReserved
			}

			active, err := tx.Reservations().HasActiveReservation(ctx, user.ID, itemID, now)
			if err != nil {
				return fmt.Errorf("check active reservation: %w", err)
			}
			if active {
				return hwdomain.ErrAlreadyReserved
			}

			if err := tx.Ledger().Reserve(ctx, itemID, qty); err != nil {
				return err
			}

			token, err := s.newToken()
			if err != nil {
				return err
			}
			res = models.NewReservation(token, user, itemID, qty, now, s.hold)
			if err := tx.Reservations().Create(ctx, res); err != nil {
				return err
			}

			if err := tx.Record(ctx, events.NewActivity(events.ActivityReserved, itemID, user.ID, qty, now)); err != nil {
				return err
			}
			item, err = tx.Ledger().GetItem(ctx, itemID)
			return err
		})
		if !errors.Is(err, hwdomain.ErrDuplicateToken) {
			break
		}
		s.log.WarnContext(ctx, "hardware: reservation token collision", "attempt", attempt)
	}
	if err != nil {
		return nil, fmt.Errorf("reserve item %d: %w", itemID, err)
	}

	s.log.InfoContext(ctx, "hardware: reserved", "user_id", user.ID, "item_id", itemID, "quantity", qty)
	s.published(ctx, events.PacketItemUpdate, item)
	return res, nil
}

// Take marks a held reservation as picked up. An expired reservation is
// released instead, and ErrReservationExpired is returned after the release
// has committed.
func (s *HardwareService) Take(ctx context.Context, token string) (err error) {
	defer func() { s.metrics.record(ctx, "take", err) }()

	tok, ok := domainsvcs.NormalizeToken(token)
	if !ok {
		return hwdomain.ErrReservationNotFound
	}

	now := s.now()
	var (
		item    *models.HardwareItem
		res     *models.Reservation
		expired bool
	)
	err = s.store.WithinTx(ctx, func(tx repositories.Tx) error {
		r, err := s.lookup(ctx, tx, tok, nil)
		if err != nil {
			return err
		}
		res = r

		if r.IsExpired(now) {
			if err := s.expire(ctx, tx, r, now); err != nil {
				return err
			}
			expired = true
			item, err = tx.Ledger().GetItem(ctx, r.ItemID)
			return err
		}
		if !r.IsReserved {
			return hwdomain.ErrAlreadyTaken
		}

		n, err := tx.Reservations().MarkTaken(ctx, tok)
		if err != nil {
			return err
		}
		if n != 1 {
			return hwdomain.ErrConcurrentModification
		}
		if err := tx.Ledger().MarkTaken(ctx, r.ItemID, r.Quantity); err != nil {
			return err
		}
		if err := tx.Record(ctx, events.NewActivity(events.ActivityTaken, r.ItemID, r.UserID, r.Quantity, now)); err != nil {
			return err
		}
		item, err = tx.Ledger().GetItem(ctx, r.ItemID)
		return err
	})
	if err != nil {
		return fmt.Errorf("take reservation: %w", err)
	}

	s.published(ctx, events.PacketItemUpdate, item)
	if expired {
		s.metrics.expiredN(ctx, 1)
		return hwdomain.ErrReservationExpired
	}
	s.log.InfoContext(ctx, "hardware: taken", "user_id", res.UserID, "item_id", res.ItemID, "quantity", res.Quantity)
	return nil
}

// Return closes a taken reservation and puts its units back on the shelf.
func (s *HardwareService) Return(ctx context.Context, token string) (err error) {
	defer func() { s.metrics.record(ctx, "return", err) }()

	tok, ok := domainsvcs.NormalizeToken(token)
	if !ok {
		return hwdomain.ErrReservationNotFound
	}

	now := s.now()
	var (
		item *models.HardwareItem
		res  *models.Reservation
	)
	err = s.store.WithinTx(ctx, func(tx repositories.Tx) error {
		r, err := s.lookup(ctx, tx, tok, nil)
		if err != nil {
			return err
		}
		res = r
		if r.IsReserved {
			return hwdomain.ErrNotYetTaken
		}

		if err := tx.Ledger().MarkReturned(ctx, r.ItemID, r.Quantity); err != nil {
			return err
		}
		n, err := tx.Reservations().DeleteByToken(ctx, tok, models.OutcomeReturned, now)
		if err != nil {
			return err
		}
		if n != 1 {
			return hwdomain.ErrConcurrentModification
		}
		if err := tx.Record(ctx, events.NewActivity(events.ActivityReturned, r.ItemID, r.UserID, r.Quantity, now)); err != nil {
			return err
		}
		item, err = tx.Ledger().GetItem(ctx, r.ItemID)
		return err
	})
	if err != nil {
		return fmt.Errorf("return reservation: %w", err)
	}

	s.log.InfoContext(ctx, "hardware: returned", "user_id", res.UserID, "item_id", res.ItemID, "quantity", res.Quantity)
	s.published(ctx, events.PacketItemUpdate, item)
	return nil
}

// Cancel releases a held reservation owned by userID. Cancelling a
// reservation that has already expired succeeds; the expiry is resolved
// instead. If the record disappears between read and delete the whole
// transaction rolls back and ErrConcurrentModification is returned.
func (s *HardwareService) Cancel(ctx context.Context, token string, userID int64) (err error) {
	defer func() { s.metrics.record(ctx, "cancel", err) }()

	tok, ok := domainsvcs.NormalizeToken(token)
	if !ok {
		return hwdomain.ErrReservationNotFound
	}

	now := s.now()
	var (
		item    *models.HardwareItem
		expired bool
	)
	err = s.store.WithinTx(ctx, func(tx repositories.Tx) error {
		r, err := s.lookup(ctx, tx, tok, &userID)
		if err != nil {
			return err
		}
		if r.UserID != userID {
			return hwdomain.ErrReservationNotFound
		}
		if !r.IsReserved {
			return hwdomain.ErrNotCancellable
		}

		if r.IsExpired(now) {
			if err := s.expire(ctx, tx, r, now); err != nil {
				return err
			}
			expired = true
		} else {
			n, err := tx.Reservations().DeleteByToken(ctx, tok, models.OutcomeCancelled, now)
			if err != nil {
				return err
			}
			if n != 1 {
				return hwdomain.ErrConcurrentModification
			}
			if err := tx.Ledger().Release(ctx, r.ItemID, r.Quantity); err != nil {
				return err
			}
			if err := tx.Record(ctx, events.NewActivity(events.ActivityCancelled, r.ItemID, r.UserID, r.Quantity, now)); err != nil {
				return err
			}
		}
		item, err = tx.Ledger().GetItem(ctx, r.ItemID)
		return err
	})
	if err != nil {
		return fmt.Errorf("cancel reservation: %w", err)
	}

	if expired {
		s.metrics.expiredN(ctx, 1)
	}
	s.log.InfoContext(ctx, "hardware: cancelled", "user_id", userID, "item_id", item.ID)
	s.published(ctx, events.PacketItemUpdate, item)
	return nil
}

// ListItems releases every expired hold, then lists all items. When userID
// is set, the caller's own reservation of each item fills the reservation
// fields of its row.
func (s *HardwareService) ListItems(ctx context.Context, userID *int64) ([]ItemView, error) {
	now := s.now()
	var (
		items   []*models.HardwareItem
		mine    map[int64]*models.Reservation
		touched []int64
	)
	err := s.store.WithinTx(ctx, func(tx repositories.Tx) error {
		var err error
		touched, err = s.sweep(ctx, tx, now)
		if err != nil {
			return err
		}

		items, err = tx.Catalog().ListItems(ctx)
		if err != nil {
			return fmt.Errorf("list items: %w", err)
		}

		if userID == nil {
			return nil
		}
		rs, err := tx.Reservations().ListByUser(ctx, *userID)
		if err != nil {
			return fmt.Errorf("list user reservations: %w", err)
		}
		mine = make(map[int64]*models.Reservation, len(rs))
		for _, r := range rs {
			if r.IsActive(now) {
				mine[r.ItemID] = r
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]*models.HardwareItem, len(items))
	views := make([]ItemView, len(items))
	for i, it := range items {
		byID[it.ID] = it
		v := ItemView{
			ItemID:       it.ID,
			ItemName:     it.Name.String(),
			ItemURL:      it.URL,
			ItemStock:    it.TotalStock,
			ItemsLeft:    it.ItemsLeft(),
			ItemHasStock: it.HasStock(),
		}
		if r, ok := mine[it.ID]; ok {
			v.Reserved = r.IsReserved
			v.Taken = !r.IsReserved
			v.ReservationQuantity = r.Quantity
			v.ReservationToken = r.Token
			v.ExpiresIn = r.ExpiresIn(now)
		}
		views[i] = v
	}

	for _, id := range touched {
		if it, ok := byID[id]; ok {
			s.published(ctx, events.PacketItemUpdate, it)
		}
	}
	return views, nil
}

// GetItem reads one item through the Redis cache when one is configured.
// A miss or a cache error falls back to the store. The miss is not written
// back: a read taken here can be older than a mutation committed meanwhile,
// so entries are filled only by the activity worker.
func (s *HardwareService) GetItem(ctx context.Context, itemID int64) (*models.HardwareItem, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, itemID)
		if err == nil {
			return &models.HardwareItem{
				ID:            cached.ID,
				Name:          models.ItemName(cached.Name),
				URL:           cached.URL,
				TotalStock:    cached.TotalStock,
				ReservedStock: cached.ReservedStock,
				TakenStock:    cached.TakenStock,
				UpdatedAt:     cached.UpdatedAt,
			}, nil
		}
		if !errors.Is(err, redis.Nil) {
			s.log.WarnContext(ctx, "hardware: item cache read failed", "item_id", itemID, "error", err)
		}
	}

	item, err := s.store.GetItem(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

// NewItemInput is one row of a bulk import.
type NewItemInput struct {
	Name  string
	URL   string
	Stock int
}

// AddItems validates and imports items with zero reserved and taken units.
func (s *HardwareService) AddItems(ctx context.Context, in []NewItemInput) ([]*models.HardwareItem, error) {
	if len(in) == 0 {
		return nil, fmt.Errorf("%w: no items given", hwdomain.ErrInvalidItem)
	}
	defs := make([]models.NewItem, len(in))
	for i, row := range in {
		def, err := newItemDef(row.Name, row.URL, row.Stock)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		defs[i] = def
	}

	now := s.now()
	var created []*models.HardwareItem
	err := s.store.WithinTx(ctx, func(tx repositories.Tx) error {
		var err error
		created, err = tx.Catalog().AddItems(ctx, defs)
		if err != nil {
			return err
		}
		for _, it := range created {
			if err := tx.Record(ctx, events.NewActivity(events.ActivityItemAdded, it.ID, 0, it.TotalStock, now)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("add items: %w", err)
	}

	s.log.InfoContext(ctx, "hardware: items added", "count", len(created))
	s.published(ctx, events.PacketItemAdd, created...)
	return created, nil
}

// UpdateItem rewrites an item's name, URL and total stock. Total stock can
// not drop below the units currently reserved or taken.
func (s *HardwareService) UpdateItem(ctx context.Context, itemID int64, name, url string, stock int) (*models.HardwareItem, error) {
	def, err := newItemDef(name, url, stock)
	if err != nil {
		return nil, err
	}

	now := s.now()
	var item *models.HardwareItem
	err = s.store.WithinTx(ctx, func(tx repositories.Tx) error {
		var err error
		item, err = tx.Catalog().UpdateItem(ctx, itemID, def.Name, def.URL, def.TotalStock)
		if err != nil {
			return err
		}
		return tx.Record(ctx, events.NewActivity(events.ActivityItemUpdated, itemID, 0, item.TotalStock, now))
	})
	if err != nil {
		return nil, fmt.Errorf("update item %d: %w", itemID, err)
	}

	s.published(ctx, events.PacketItemUpdate, item)
	return item, nil
}

// DeleteItem removes an item that has nothing reserved or taken.
func (s *HardwareService) DeleteItem(ctx context.Context, itemID int64) error {
	now := s.now()
	var item *models.HardwareItem
	err := s.store.WithinTx(ctx, func(tx repositories.Tx) error {
		var err error
		item, err = tx.Ledger().LockItem(ctx, itemID)
		if err != nil {
			return err
		}
		if !item.CanDelete() {
			return hwdomain.ErrItemHasReservations
		}
		if err := tx.Catalog().DeleteItem(ctx, itemID); err != nil {
			return err
		}
		return tx.Record(ctx, events.NewActivity(events.ActivityItemDeleted, itemID, 0, 0, now))
	})
	if err != nil {
		return fmt.Errorf("delete item %d: %w", itemID, err)
	}

	s.log.InfoContext(ctx, "hardware: item deleted", "item_id", itemID)
	s.published(ctx, events.PacketItemDelete, item)
	return nil
}

// ListReservations returns every reservation, held and taken.
func (s *HardwareService) ListReservations(ctx context.Context) ([]*models.Reservation, error) {
	rs, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	return rs, nil
}

// ListItemReservations returns the reservations of one item.
func (s *HardwareService) ListItemReservations(ctx context.Context, itemID int64) ([]*models.Reservation, error) {
	if _, err := s.store.GetItem(ctx, itemID); err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	rs, err := s.store.ListByItem(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("list item reservations: %w", err)
	}
	return rs, nil
}

// GetReservation looks a reservation up by token. Closed reservations
// report ErrReservationInactive with their outcome.
func (s *HardwareService) GetReservation(ctx context.Context, token string) (*models.Reservation, error) {
	tok, ok := domainsvcs.NormalizeToken(token)
	if !ok {
		return nil, hwdomain.ErrReservationNotFound
	}
	r, err := s.store.GetByToken(ctx, tok)
	if errors.Is(err, hwdomain.ErrReservationNotFound) {
		ts, tErr := s.store.GetTombstone(ctx, tok)
		if tErr != nil {
			return nil, tErr
		}
		return nil, &hwdomain.InactiveError{Token: tok, Outcome: string(ts.Outcome)}
	}
	if err != nil {
		return nil, fmt.Errorf("get reservation: %w", err)
	}
	return r, nil
}

// Now is the service clock, exposed so callers render ExpiresIn consistently.
func (s *HardwareService) Now() time.Time {
	return s.now()
}

// lookup locks the item behind tok, then reads and locks the reservation
// itself. Items are always locked before their reservations. A miss is
// reported as ErrReservationInactive when a tombstone exists (and, with
// owner set, the tombstone belongs to owner), and as ErrReservationNotFound
// otherwise.
func (s *HardwareService) lookup(ctx context.Context, tx repositories.Tx, tok string, owner *int64) (*models.Reservation, error) {
	peeked, err := tx.Reservations().Peek(ctx, tok)
	if err == nil {
		if _, err := tx.Ledger().LockItem(ctx, peeked.ItemID); err != nil {
			return nil, fmt.Errorf("lock item %d: %w", peeked.ItemID, err)
		}
		// The row may have been closed while the item lock was awaited.
		var r *models.Reservation
		r, err = tx.Reservations().GetByToken(ctx, tok)
		if err == nil {
			return r, nil
		}
	}
	if !errors.Is(err, hwdomain.ErrReservationNotFound) {
		return nil, fmt.Errorf("get reservation: %w", err)
	}
	ts, tErr := tx.Reservations().GetTombstone(ctx, tok)
	if tErr != nil {
		return nil, tErr
	}
	if owner != nil && ts.UserID != *owner {
		return nil, hwdomain.ErrReservationNotFound
	}
	return nil, &hwdomain.InactiveError{Token: tok, Outcome: string(ts.Outcome)}
}

// expire deletes an expired hold and releases its units. Zero rows deleted
// means another transaction already resolved it, which is not an error.
func (s *HardwareService) expire(ctx context.Context, tx repositories.Tx, r *models.Reservation, now time.Time) error {
	n, err := tx.Reservations().DeleteByToken(ctx, r.Token, models.OutcomeExpired, now)
	if err != nil {
		return fmt.Errorf("expire reservation: %w", err)
	}
	if n == 0 {
		return nil
	}
	if err := tx.Ledger().Release(ctx, r.ItemID, r.Quantity); err != nil {
		return fmt.Errorf("release expired reservation: %w", err)
	}
	return tx.Record(ctx, events.NewActivity(events.ActivityExpired, r.ItemID, r.UserID, r.Quantity, now))
}

// sweep expires every overdue hold and returns the ids of items it touched.
// Candidates come back unlocked and ordered by item; each item is locked in
// that order and its holds are re-read before they are released, so a hold
// resolved by a concurrent transaction is skipped.
func (s *HardwareService) sweep(ctx context.Context, tx repositories.Tx, now time.Time) ([]int64, error) {
	overdue, err := tx.Reservations().ListExpired(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("list expired: %w", err)
	}
	var (
		locked  = make(map[int64]bool)
		touched []int64
		n       int
	)
	for _, stale := range overdue {
		if !locked[stale.ItemID] {
			if _, err := tx.Ledger().LockItem(ctx, stale.ItemID); err != nil {
				return nil, fmt.Errorf("lock item %d: %w", stale.ItemID, err)
			}
			locked[stale.ItemID] = true
		}
		r, err := tx.Reservations().GetByToken(ctx, stale.Token)
		if errors.Is(err, hwdomain.ErrReservationNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("get reservation: %w", err)
		}
		if !r.IsExpired(now) {
			continue
		}
		if err := s.expire(ctx, tx, r, now); err != nil {
			return nil, err
		}
		n++
		if len(touched) == 0 || touched[len(touched)-1] != r.ItemID {
			touched = append(touched, r.ItemID)
		}
	}
	if n > 0 {
		s.metrics.expiredN(ctx, n)
		s.log.InfoContext(ctx, "hardware: released expired reservations", "count", n)
	}
	return touched, nil
}

// published runs the post-commit side effects for each item: drop its cache
// entry, then push a live update. Neither can fail the operation.
func (s *HardwareService) published(ctx context.Context, t events.PacketType, items ...*models.HardwareItem) {
	for _, it := range items {
		if it == nil {
			continue
		}
		if s.cache != nil {
			if err := s.cache.Delete(ctx, it.ID); err != nil {
				s.log.WarnContext(ctx, "hardware: item cache invalidate failed", "item_id", it.ID, "error", err)
			}
		}
		if s.live != nil {
			s.live.Broadcast(events.NewPacket(t, it))
		}
	}
}

func newItemDef(name, url string, stock int) (models.NewItem, error) {
	n, err := models.NewItemName(name)
	if err != nil {
		return models.NewItem{}, fmt.Errorf("%w: %w", hwdomain.ErrInvalidItemName, err)
	}
	if err := domainsvcs.ValidateName(n); err != nil {
		return models.NewItem{}, fmt.Errorf("%w: %w", hwdomain.ErrInvalidItemName, err)
	}
	def := models.NewItem{Name: n, URL: url, TotalStock: stock}
	if err := domainsvcs.ValidateNewItem(def); err != nil {
		return models.NewItem{}, fmt.Errorf("%w: %w", hwdomain.ErrInvalidItem, err)
	}
	return def, nil
}
