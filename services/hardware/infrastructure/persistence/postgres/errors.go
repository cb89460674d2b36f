package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"math"
	"net"

	"github.com/jackc/pgx/v5/pgconn"

	hwdomain "github.com/hacklabs/hwlib/services/hardware/domain"
)

const uniqueViolation = "23505"

// storeErr tags connectivity failures with ErrStoreUnavailable and passes
// every other error through unchanged.
func storeErr(err error) error {
	if err == nil || !isUnavailable(err) {
		return err
	}
	if errors.Is(err, hwdomain.ErrStoreUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", hwdomain.ErrStoreUnavailable, err)
}

func isUnavailable(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return true
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// quantity32 narrows a ledger adjustment to the column type.
func quantity32(qty int) (int32, error) {
	if qty < 1 || qty > math.MaxInt32 {
		return 0, hwdomain.ErrInvalidQuantity
	}
	return int32(qty), nil
}

// stock32 narrows a total stock to the column type.
func stock32(n int) (int32, error) {
	if n < 0 || n > math.MaxInt32 {
		return 0, fmt.Errorf("%w: stock %d out of range", hwdomain.ErrInvalidItem, n)
	}
	return int32(n), nil
}
