// Package store persists normalized transactions in the local ledger
// database. Upserts key on the deterministic transaction id, so re-importing
// the same file is a no-op rather than a duplication.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tharunjacob/firetrackspendz/internal/domain"
)

// SQLite is the local ledger store. It shares its *sql.DB with the mapping
// cache and the rule store.
type SQLite struct {
	db *sql.DB
}

// NewSQLite prepares the transactions table on db.
func NewSQLite(ctx context.Context, db *sql.DB) (*SQLite, error) {
	const schema = `
		CREATE TABLE IF NOT EXISTS transactions (
			id           TEXT PRIMARY KEY,
			owner        TEXT NOT NULL,
			type         TEXT NOT NULL,
			date         TEXT NOT NULL,
			time         TEXT NOT NULL DEFAULT '00:00',
			category     TEXT NOT NULL,
			sub_category TEXT NOT NULL,
			notes        TEXT NOT NULL,
			amount       REAL NOT NULL,
			project      TEXT NOT NULL,
			imported_ts  TEXT NOT NULL
		)`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("store: create transactions table: %w", err)
	}
	return &SQLite{db: db}, nil
}

// Upsert writes the batch inside one transaction. Existing ids are
// overwritten, which lets a re-import pick up categorization changes.
func (s *SQLite) Upsert(ctx context.Context, txs []*domain.Transaction) error {
	if len(txs) == 0 {
		return nil
	}
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin: %w", err)
	}
	defer dbTx.Rollback()

	stmt, err := dbTx.PrepareContext(ctx, `
		INSERT INTO transactions
			(id, owner, type, date, time, category, sub_category, notes, amount, project, imported_ts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			owner = excluded.owner,
			type = excluded.type,
			date = excluded.date,
			time = excluded.time,
			category = excluded.category,
			sub_category = excluded.sub_category,
			notes = excluded.notes,
			amount = excluded.amount,
			project = excluded.project,
			imported_ts = excluded.imported_ts`)
	if err != nil {
		return fmt.Errorf("store: prepare upsert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, t := range txs {
		if _, err := stmt.ExecContext(ctx,
			t.ID, t.Owner, string(t.Type), t.Date, t.Time,
			t.Category, t.SubCategory, t.Notes, t.Amount, t.Project, now); err != nil {
			return fmt.Errorf("store: upsert %s: %w", t.ID, err)
		}
	}
	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("store: commit: %w", err)
	}
	return nil
}

// List returns all transactions, optionally filtered by owner, newest date
// first.
func (s *SQLite) List(ctx context.Context, owner string) ([]*domain.Transaction, error) {
	query := `
		SELECT id, owner, type, date, time, category, sub_category, notes, amount, project
		FROM transactions`
	args := []any{}
	if owner != "" {
		query += ` WHERE owner = ?`
		args = append(args, owner)
	}
	query += ` ORDER BY date DESC, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: list: %w", err)
	}
	defer rows.Close()

	var out []*domain.Transaction
	for rows.Next() {
		var t domain.Transaction
		var typ string
		if err := rows.Scan(&t.ID, &t.Owner, &typ, &t.Date, &t.Time,
			&t.Category, &t.SubCategory, &t.Notes, &t.Amount, &t.Project); err != nil {
			return nil, fmt.Errorf("store: scan: %w", err)
		}
		t.Type = domain.TransactionType(typ)
		out = append(out, &t)
	}
	return out, rows.Err()
}

// DeleteOwner removes every transaction imported for owner and reports how
// many rows went away.
func (s *SQLite) DeleteOwner(ctx context.Context, owner string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM transactions WHERE owner = ?`, owner)
	if err != nil {
		return 0, fmt.Errorf("store: delete owner %q: %w", owner, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("store: rows affected: %w", err)
	}
	return n, nil
}
