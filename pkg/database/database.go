// Package database owns the shared PostgreSQL connection pool and the
// transaction helper every repository runs its unit of work through.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver

	"github.com/hacklabs/hwlib/pkg/logger"
)

// Database wraps the pooled *sql.DB opened through the pgx stdlib driver.
type Database struct {
	db  *sql.DB
	log logger.Logger
}

// NewPool opens a pgx-backed connection pool and verifies connectivity with a
// 5 second deadline.
func NewPool(ctx context.Context, url string, log logger.Logger) (*Database, error) {
	db, err := sql.Open("pgx", url)
	if err != nil {
		return nil, fmt.Errorf("database: open: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("database: ping: %w", err)
	}

	return &Database{db: db, log: log}, nil
}

// FromDB wraps an already-open *sql.DB. Used by integration tests.
func FromDB(db *sql.DB, log logger.Logger) *Database {
	return &Database{db: db, log: log}
}

// DB returns the underlying *sql.DB for non-transactional reads.
func (d *Database) DB() *sql.DB {
	return d.db
}

// WithTx runs fn inside a READ COMMITTED transaction. The transaction is
// rolled back when fn returns an error or panics, and committed otherwise.
func (d *Database) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := d.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("database: begin tx: %w", err)
	}

	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && d.log != nil {
			d.log.ErrorContext(ctx, "database: rollback failed", "error", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("database: commit: %w", err)
	}
	return nil
}

// Ping checks the database connection health.
func (d *Database) Ping(ctx context.Context) error {
	if err := d.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database: ping: %w", err)
	}
	return nil
}

// Close closes every pooled connection.
func (d *Database) Close() {
	if err := d.db.Close(); err != nil && d.log != nil {
		d.log.Error("database: close", "error", err)
	}
}
