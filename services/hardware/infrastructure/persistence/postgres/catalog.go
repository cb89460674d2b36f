package postgres

import (
	"context"
	"fmt"

	hwdomain "github.com/hacklabs/hwlib/services/hardware/domain"
	"github.com/hacklabs/hwlib/services/hardware/domain/models"
	"github.com/hacklabs/hwlib/services/hardware/infrastructure/persistence/postgres/db"
)

type catalog struct {
	q *db.Queries
}

func (c *catalog) AddItems(ctx context.Context, items []models.NewItem) ([]*models.HardwareItem, error) {
	out := make([]*models.HardwareItem, 0, len(items))
	for _, it := range items {
		stock, err := stock32(it.TotalStock)
		if err != nil {
			return nil, err
		}
		row, err := c.q.InsertItem(ctx, db.InsertItemParams{
			Name:       it.Name.String(),
			ItemUrl:    it.URL,
			TotalStock: stock,
		})
		if err != nil {
			return nil, storeErr(fmt.Errorf("insert item %q: %w", it.Name, err))
		}
		out = append(out, rowToItem(row))
	}
	return out, nil
}

func (c *catalog) ListItems(ctx context.Context) ([]*models.HardwareItem, error) {
	rows, err := c.q.ListItems(ctx)
	if err != nil {
		return nil, storeErr(fmt.Errorf("query items: %w", err))
	}
	items := make([]*models.HardwareItem, len(rows))
	for i, row := range rows {
		items[i] = rowToItem(row)
	}
	return items, nil
}

// UpdateItem locks the row first so the total-stock check and the write see
// the same reserved and taken counts.
func (c *catalog) UpdateItem(ctx context.Context, itemID int64, name models.ItemName, url string, totalStock int) (*models.HardwareItem, error) {
	stock, err := stock32(totalStock)
	if err != nil {
		return nil, err
	}
	current, err := (&ledger{q: c.q}).LockItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if totalStock < current.ReservedStock+current.TakenStock {
		return nil, fmt.Errorf("%w: total %d below reserved %d + taken %d",
			hwdomain.ErrInvalidAdjustment, totalStock, current.ReservedStock, current.TakenStock)
	}
	row, err := c.q.UpdateItem(ctx, db.UpdateItemParams{
		ID:         itemID,
		Name:       name.String(),
		ItemUrl:    url,
		TotalStock: stock,
	})
	if err != nil {
		return nil, storeErr(fmt.Errorf("update item: %w", err))
	}
	return rowToItem(row), nil
}

func (c *catalog) DeleteItem(ctx context.Context, itemID int64) error {
	n, err := c.q.DeleteItem(ctx, itemID)
	if err != nil {
		return storeErr(fmt.Errorf("delete item: %w", err))
	}
	if n == 0 {
		return (&ledger{q: c.q}).guardFailed(ctx, itemID, hwdomain.ErrItemHasReservations)
	}
	return nil
}
