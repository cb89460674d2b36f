package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	hwdomain "github.com/hacklabs/hwlib/services/hardware/domain"
	"github.com/hacklabs/hwlib/services/hardware/domain/models"
	"github.com/hacklabs/hwlib/services/hardware/infrastructure/persistence/postgres/db"
)

// reservationStore reads and writes hardware_reservations. With lock set,
// GetByToken takes a row lock held until the transaction ends.
type reservationStore struct {
	q    *db.Queries
	lock bool
}

func (s *reservationStore) Create(ctx context.Context, r *models.Reservation) error {
	qty, err := quantity32(r.Quantity)
	if err != nil {
		return err
	}
	n, err := s.q.InsertReservation(ctx, db.InsertReservationParams{
		Token:      r.Token,
		UserID:     r.UserID,
		UserName:   r.UserName,
		ItemID:     r.ItemID,
		Quantity:   qty,
		IsReserved: r.IsReserved,
		ExpiresAt:  utc(r.ExpiresAt),
		CreatedAt:  utc(r.CreatedAt),
	})
	if err != nil {
		if isUniqueViolation(err) {
			return hwdomain.ErrDuplicateToken
		}
		return storeErr(fmt.Errorf("insert reservation: %w", err))
	}
	// The insert is skipped when the token has a tombstone.
	if n == 0 {
		return hwdomain.ErrDuplicateToken
	}
	return nil
}

func (s *reservationStore) GetByToken(ctx context.Context, token string) (*models.Reservation, error) {
	var (
		row db.HardwareReservation
		err error
	)
	if s.lock {
		row, err = s.q.LockReservation(ctx, token)
	} else {
		row, err = s.q.GetReservation(ctx, token)
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, hwdomain.ErrReservationNotFound
		}
		return nil, storeErr(fmt.Errorf("query reservation: %w", err))
	}
	return rowToReservation(row), nil
}

// Peek reads the row without locking it, whatever the store's lock mode.
func (s *reservationStore) Peek(ctx context.Context, token string) (*models.Reservation, error) {
	row, err := s.q.GetReservation(ctx, token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, hwdomain.ErrReservationNotFound
		}
		return nil, storeErr(fmt.Errorf("query reservation: %w", err))
	}
	return rowToReservation(row), nil
}

func (s *reservationStore) FindByUserAndItem(ctx context.Context, userID, itemID int64) (*models.Reservation, error) {
	row, err := s.q.FindReservationByUserAndItem(ctx, db.FindReservationByUserAndItemParams{
		UserID: userID,
		ItemID: itemID,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, hwdomain.ErrReservationNotFound
		}
		return nil, storeErr(fmt.Errorf("query reservation: %w", err))
	}
	return rowToReservation(row), nil
}

func (s *reservationStore) HasActiveReservation(ctx context.Context, userID, itemID int64, now time.Time) (bool, error) {
	ok, err := s.q.HasActiveReservation(ctx, db.HasActiveReservationParams{
		UserID: userID,
		ItemID: itemID,
		Now:    utc(now),
	})
	if err != nil {
		return false, storeErr(fmt.Errorf("query active reservation: %w", err))
	}
	return ok, nil
}

func (s *reservationStore) ListByItem(ctx context.Context, itemID int64) ([]*models.Reservation, error) {
	rows, err := s.q.ListReservationsByItem(ctx, itemID)
	if err != nil {
		return nil, storeErr(fmt.Errorf("query reservations by item: %w", err))
	}
	return rowsToReservations(rows), nil
}

func (s *reservationStore) ListByUser(ctx context.Context, userID int64) ([]*models.Reservation, error) {
	rows, err := s.q.ListReservationsByUser(ctx, userID)
	if err != nil {
		return nil, storeErr(fmt.Errorf("query reservations by user: %w", err))
	}
	return rowsToReservations(rows), nil
}

func (s *reservationStore) ListAll(ctx context.Context) ([]*models.Reservation, error) {
	rows, err := s.q.ListReservations(ctx)
	if err != nil {
		return nil, storeErr(fmt.Errorf("query reservations: %w", err))
	}
	return rowsToReservations(rows), nil
}

func (s *reservationStore) ListExpired(ctx context.Context, now time.Time) ([]*models.Reservation, error) {
	rows, err := s.q.ListExpiredReservations(ctx, utc(now))
	if err != nil {
		return nil, storeErr(fmt.Errorf("query expired reservations: %w", err))
	}
	return rowsToReservations(rows), nil
}

func (s *reservationStore) MarkTaken(ctx context.Context, token string) (int64, error) {
	n, err := s.q.MarkReservationTaken(ctx, token)
	if err != nil {
		return 0, storeErr(fmt.Errorf("mark reservation taken: %w", err))
	}
	return n, nil
}

// DeleteByToken deletes the row and writes its tombstone in the caller's
// transaction. The tombstone is only written when a row was deleted.
func (s *reservationStore) DeleteByToken(ctx context.Context, token string, outcome models.Outcome, now time.Time) (int64, error) {
	r, err := s.GetByToken(ctx, token)
	if errors.Is(err, hwdomain.ErrReservationNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	n, err := s.q.DeleteReservation(ctx, token)
	if err != nil {
		return 0, storeErr(fmt.Errorf("delete reservation: %w", err))
	}
	if n == 0 {
		return 0, nil
	}
	if err := s.q.InsertTombstone(ctx, db.InsertTombstoneParams{
		Token:    token,
		ItemID:   r.ItemID,
		UserID:   r.UserID,
		Outcome:  string(outcome),
		ClosedAt: utc(now),
	}); err != nil {
		return 0, storeErr(fmt.Errorf("insert tombstone: %w", err))
	}
	return n, nil
}

func (s *reservationStore) GetTombstone(ctx context.Context, token string) (*models.Tombstone, error) {
	row, err := s.q.GetTombstone(ctx, token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, hwdomain.ErrReservationNotFound
		}
		return nil, storeErr(fmt.Errorf("query tombstone: %w", err))
	}
	return &models.Tombstone{
		Token:    row.Token,
		ItemID:   row.ItemID,
		UserID:   row.UserID,
		Outcome:  models.Outcome(row.Outcome),
		ClosedAt: row.ClosedAt,
	}, nil
}

func (s *reservationStore) PruneTombstones(ctx context.Context, cutoff time.Time) (int64, error) {
	n, err := s.q.PruneTombstones(ctx, utc(cutoff))
	if err != nil {
		return 0, storeErr(fmt.Errorf("prune tombstones: %w", err))
	}
	return n, nil
}
