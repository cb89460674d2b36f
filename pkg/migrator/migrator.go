// Package migrator applies the embedded goose migrations of a bounded context.
package migrator

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// Applied names one migration and its state.
type Applied struct {
	Version int64
	Path    string
	Applied bool
}

func withProvider(ctx context.Context, dbURL string, files fs.FS, fn func(*goose.Provider) error) error {
	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close() //nolint:errcheck

	p, err := goose.NewProvider(goose.DialectPostgres, db, files)
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}
	return fn(p)
}

// Up applies every pending migration in files and returns the versions it ran.
func Up(ctx context.Context, dbURL string, files fs.FS) ([]int64, error) {
	var ran []int64
	err := withProvider(ctx, dbURL, files, func(p *goose.Provider) error {
		results, err := p.Up(ctx)
		for _, r := range results {
			ran = append(ran, r.Source.Version)
		}
		if err != nil {
			return fmt.Errorf("failed to up migrations: %w", err)
		}
		return nil
	})
	return ran, err
}

// RunMigrations is Up without the result list.
func RunMigrations(dbURL string, files fs.FS) error {
	_, err := Up(context.Background(), dbURL, files)
	return err
}

// Status reports every migration in files in version order.
func Status(ctx context.Context, dbURL string, files fs.FS) ([]Applied, error) {
	var out []Applied
	err := withProvider(ctx, dbURL, files, func(p *goose.Provider) error {
		statuses, err := p.Status(ctx)
		if err != nil {
			return fmt.Errorf("failed to read migration status: %w", err)
		}
		for _, s := range statuses {
			out = append(out, Applied{
				Version: s.Source.Version,
				Path:    s.Source.Path,
				Applied: s.State == goose.StateApplied,
			})
		}
		return nil
	})
	return out, err
}
