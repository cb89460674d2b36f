package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	hwdomain "github.com/hacklabs/hwlib/services/hardware/domain"
	"github.com/hacklabs/hwlib/services/hardware/domain/models"
	"github.com/hacklabs/hwlib/services/hardware/infrastructure/persistence/postgres/db"
)

// ledger applies every stock adjustment as one guarded UPDATE. The guard is
// in the WHERE clause, so zero rows affected means the adjustment would have
// broken the stock invariant (or the item is gone).
type ledger struct {
	q *db.Queries
}

func (l *ledger) LockItem(ctx context.Context, itemID int64) (*models.HardwareItem, error) {
	row, err := l.q.LockItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, hwdomain.ErrItemNotFound
		}
		return nil, storeErr(fmt.Errorf("lock item: %w", err))
	}
	return rowToItem(row), nil
}

func (l *ledger) GetItem(ctx context.Context, itemID int64) (*models.HardwareItem, error) {
	row, err := l.q.GetItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, hwdomain.ErrItemNotFound
		}
		return nil, storeErr(fmt.Errorf("query item: %w", err))
	}
	return rowToItem(row), nil
}

func (l *ledger) Reserve(ctx context.Context, itemID int64, qty int) error {
	q32, err := quantity32(qty)
	if err != nil {
		return err
	}
	n, err := l.q.ReserveStock(ctx, db.ReserveStockParams{Qty: q32, ID: itemID})
	if err != nil {
		return storeErr(fmt.Errorf("reserve stock: %w", err))
	}
	if n == 0 {
		return l.guardFailed(ctx, itemID, hwdomain.ErrNotEnoughStock)
	}
	return nil
}

func (l *ledger) MarkTaken(ctx context.Context, itemID int64, qty int) error {
	q32, err := quantity32(qty)
	if err != nil {
		return err
	}
	n, err := l.q.TakeStock(ctx, db.TakeStockParams{Qty: q32, ID: itemID})
	if err != nil {
		return storeErr(fmt.Errorf("take stock: %w", err))
	}
	if n == 0 {
		return l.guardFailed(ctx, itemID, hwdomain.ErrInvalidAdjustment)
	}
	return nil
}

func (l *ledger) MarkReturned(ctx context.Context, itemID int64, qty int) error {
	q32, err := quantity32(qty)
	if err != nil {
		return err
	}
	n, err := l.q.ReturnStock(ctx, db.ReturnStockParams{Qty: q32, ID: itemID})
	if err != nil {
		return storeErr(fmt.Errorf("return stock: %w", err))
	}
	if n == 0 {
		return l.guardFailed(ctx, itemID, hwdomain.ErrInvalidAdjustment)
	}
	return nil
}

func (l *ledger) Release(ctx context.Context, itemID int64, qty int) error {
	q32, err := quantity32(qty)
	if err != nil {
		return err
	}
	n, err := l.q.ReleaseStock(ctx, db.ReleaseStockParams{Qty: q32, ID: itemID})
	if err != nil {
		return storeErr(fmt.Errorf("release stock: %w", err))
	}
	if n == 0 {
		return l.guardFailed(ctx, itemID, hwdomain.ErrInvalidAdjustment)
	}
	return nil
}

// guardFailed tells a missing item apart from a rejected adjustment.
func (l *ledger) guardFailed(ctx context.Context, itemID int64, rejected error) error {
	if _, err := l.GetItem(ctx, itemID); err != nil {
		return err
	}
	return rejected
}
