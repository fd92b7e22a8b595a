package mapping

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/tharunjacob/firetrackspendz/internal/domain"
)

// SQLite persists mappings in a local database shared with the rule store and
// the ledger. Mappings are stored as JSON under their signature.
type SQLite struct {
	db *sql.DB
}

// NewSQLite prepares the mappings table on db.
func NewSQLite(ctx context.Context, db *sql.DB) (*SQLite, error) {
	const schema = `
		CREATE TABLE IF NOT EXISTS file_mappings (
			signature  TEXT PRIMARY KEY,
			mapping    TEXT NOT NULL,
			updated_ts TEXT NOT NULL
		)`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("mapping: create table: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Lookup(ctx context.Context, signature string) (*domain.FileMapping, error) {
	if signature == "" {
		return nil, nil
	}
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT mapping FROM file_mappings WHERE signature = ?`, signature).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("mapping: lookup %q: %w", signature, err)
	}
	var fm domain.FileMapping
	if err := json.Unmarshal([]byte(raw), &fm); err != nil {
		// A corrupt row behaves like a miss; the pipeline re-learns and
		// overwrites it.
		return nil, nil
	}
	return &fm, nil
}

func (s *SQLite) Store(ctx context.Context, signature string, fm domain.FileMapping) error {
	if signature == "" {
		return nil
	}
	raw, err := json.Marshal(fm)
	if err != nil {
		return fmt.Errorf("mapping: marshal: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO file_mappings (signature, mapping, updated_ts)
		VALUES (?, ?, ?)
		ON CONFLICT(signature) DO UPDATE SET
			mapping = excluded.mapping,
			updated_ts = excluded.updated_ts`,
		signature, string(raw), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("mapping: store %q: %w", signature, err)
	}
	return nil
}
