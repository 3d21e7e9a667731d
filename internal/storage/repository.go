package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"

	"journal/internal/core"
	"journal/internal/ledger"
	applog "journal/internal/log"

	_ "modernc.org/sqlite"
)

// SQLiteRepository is a ledger.Store backed by a single SQLite table. Row order is
// kept in the position column.
type SQLiteRepository struct {
	db   *sql.DB
	path string
}

var _ ledger.Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, path: dbPath}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Load implements ledger.Store
func (r *SQLiteRepository) Load(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT date, description, debit, credit FROM transactions ORDER BY position`)
	if err != nil {
		return nil, &ledger.StorageError{Op: "load", Path: r.path, Err: err}
	}
	defer rows.Close()

	out := []core.Transaction{}
	for rows.Next() {
		var (
			date                sql.NullString
			desc, debit, credit string
		)
		if err := rows.Scan(&date, &desc, &debit, &credit); err != nil {
			return nil, &ledger.StorageError{Op: "load", Path: r.path, Err: err}
		}
		tx := core.Transaction{Date: date.String, Description: desc}
		if tx.Debit, err = decimal.NewFromString(debit); err != nil {
			return nil, &ledger.StorageError{Op: "load", Path: r.path, Err: fmt.Errorf("%w: debit %q", ledger.ErrCorrupt, debit)}
		}
		if tx.Credit, err = decimal.NewFromString(credit); err != nil {
			return nil, &ledger.StorageError{Op: "load", Path: r.path, Err: fmt.Errorf("%w: credit %q", ledger.ErrCorrupt, credit)}
		}
		if err := errors.Join(core.CheckAmount(tx.Debit), core.CheckAmount(tx.Credit)); err != nil {
			return nil, &ledger.StorageError{Op: "load", Path: r.path, Err: fmt.Errorf("%w: %v", ledger.ErrCorrupt, err)}
		}
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, &ledger.StorageError{Op: "load", Path: r.path, Err: err}
	}
	return out, nil
}

// Save implements ledger.Store. The table is replaced inside one transaction.
func (r *SQLiteRepository) Save(ctx context.Context, records []core.Transaction) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return &ledger.StorageError{Op: "save", Path: r.path, Err: err}
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM transactions`); err != nil {
		return &ledger.StorageError{Op: "save", Path: r.path, Err: err}
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO transactions (position, date, description, debit, credit) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return &ledger.StorageError{Op: "save", Path: r.path, Err: err}
	}
	defer stmt.Close()

	for i, rec := range records {
		date := sql.NullString{String: rec.Date, Valid: rec.Date != ""}
		if _, err := stmt.ExecContext(ctx, i, date, rec.Description, rec.Debit.String(), rec.Credit.String()); err != nil {
			return &ledger.StorageError{Op: "save", Path: r.path, Err: fmt.Errorf("insert row %d: %w", i, err)}
		}
	}

	if err := tx.Commit(); err != nil {
		return &ledger.StorageError{Op: "save", Path: r.path, Err: err}
	}

	applog.Default(applog.ComponentStorage).DebugContext(ctx, "Journal saved to SQLite", "rows", len(records), "path", r.path)
	return nil
}

// Ping checks the database connection.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
