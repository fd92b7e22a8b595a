package categorize

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"
)

// RuleRepository holds user-learned keyword-to-category rules. Match scans a
// description and returns the category of the longest stored keyword it
// contains, or "" when no keyword applies. Keywords are stored lowercase.
type RuleRepository interface {
	Match(ctx context.Context, description string) (string, error)
	Put(ctx context.Context, keyword, category string) error
	All(ctx context.Context) (map[string]string, error)
}

// bestMatch implements the longest-contained-keyword policy shared by both
// repository implementations. Longer keywords are more specific: a rule for
// "netflix gift card" beats one for "netflix".
func bestMatch(description string, rules map[string]string) string {
	desc := strings.ToLower(description)
	best, bestLen := "", 0
	for keyword, category := range rules {
		if len(keyword) > bestLen && strings.Contains(desc, keyword) {
			best, bestLen = category, len(keyword)
		}
	}
	return best
}

// MemoryRules is an in-process RuleRepository.
type MemoryRules struct {
	mu    sync.Mutex
	rules map[string]string
}

func NewMemoryRules() *MemoryRules {
	return &MemoryRules{rules: make(map[string]string)}
}

func (m *MemoryRules) Match(_ context.Context, description string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return bestMatch(description, m.rules), nil
}

func (m *MemoryRules) Put(_ context.Context, keyword, category string) error {
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	if keyword == "" || category == "" {
		return fmt.Errorf("categorize: rule needs keyword and category")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules[keyword] = category
	return nil
}

func (m *MemoryRules) All(_ context.Context) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]string, len(m.rules))
	for k, v := range m.rules {
		out[k] = v
	}
	return out, nil
}

// SQLiteRules persists learned rules in the shared local database.
type SQLiteRules struct {
	db *sql.DB
}

func NewSQLiteRules(ctx context.Context, db *sql.DB) (*SQLiteRules, error) {
	const schema = `
		CREATE TABLE IF NOT EXISTS category_rules (
			keyword    TEXT PRIMARY KEY,
			category   TEXT NOT NULL,
			updated_ts TEXT NOT NULL
		)`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("categorize: create rules table: %w", err)
	}
	return &SQLiteRules{db: db}, nil
}

func (s *SQLiteRules) Match(ctx context.Context, description string) (string, error) {
	rules, err := s.All(ctx)
	if err != nil {
		return "", err
	}
	return bestMatch(description, rules), nil
}

func (s *SQLiteRules) Put(ctx context.Context, keyword, category string) error {
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	if keyword == "" || category == "" {
		return fmt.Errorf("categorize: rule needs keyword and category")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO category_rules (keyword, category, updated_ts)
		VALUES (?, ?, ?)
		ON CONFLICT(keyword) DO UPDATE SET
			category = excluded.category,
			updated_ts = excluded.updated_ts`,
		keyword, category, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("categorize: store rule %q: %w", keyword, err)
	}
	return nil
}

func (s *SQLiteRules) All(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT keyword, category FROM category_rules`)
	if err != nil {
		return nil, fmt.Errorf("categorize: list rules: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var keyword, category string
		if err := rows.Scan(&keyword, &category); err != nil {
			return nil, fmt.Errorf("categorize: scan rule: %w", err)
		}
		out[keyword] = category
	}
	return out, rows.Err()
}
