package services

import (
	"context"
	"fmt"
	"time"

	"github.com/hacklabs/hwlib/pkg/logger"
	"github.com/hacklabs/hwlib/services/hardware/domain/repositories"
)

// TombstonePruner deletes tombstones once they are older than the retention
// window. A pruned token reads as never issued.
type TombstonePruner struct {
	store     repositories.UnitOfWork
	log       logger.Logger
	retention time.Duration
	every     time.Duration
}

func NewTombstonePruner(store repositories.UnitOfWork, log logger.Logger, retention, every time.Duration) *TombstonePruner {
	return &TombstonePruner{store: store, log: log, retention: retention, every: every}
}

// Prune deletes every tombstone closed before now minus the retention window.
func (p *TombstonePruner) Prune(ctx context.Context, now time.Time) (int64, error) {
	cutoff := now.Add(-p.retention)
	var n int64
	err := p.store.WithinTx(ctx, func(tx repositories.Tx) error {
		var err error
		n, err = tx.Reservations().PruneTombstones(ctx, cutoff)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("prune tombstones: %w", err)
	}
	return n, nil
}

// Run prunes immediately and then on every tick until ctx is cancelled.
func (p *TombstonePruner) Run(ctx context.Context) {
	ticker := time.NewTicker(p.every)
	defer ticker.Stop()
	for {
		n, err := p.Prune(ctx, time.Now())
		switch {
		case err != nil && ctx.Err() == nil:
			p.log.ErrorContext(ctx, "hardware: tombstone prune failed", "error", err)
		case n > 0:
			p.log.InfoContext(ctx, "hardware: pruned tombstones", "count", n, "retention", p.retention.String())
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
