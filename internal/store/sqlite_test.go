package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/tharunjacob/firetrackspendz/internal/domain"
)

func newTestStore(t *testing.T) *SQLite {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	s, err := NewSQLite(context.Background(), db)
	require.NoError(t, err)
	return s
}

func sampleTx(id, owner, date string, amount float64) *domain.Transaction {
	return &domain.Transaction{
		ID:          id,
		Owner:       owner,
		Type:        domain.Expense,
		Date:        date,
		Time:        "00:00",
		Category:    "Food",
		SubCategory: "General",
		Notes:       "swiggy order",
		Amount:      amount,
		Project:     "None",
	}
}

func TestUpsertAndList(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.Upsert(ctx, []*domain.Transaction{
		sampleTx("a-1", "alice", "2024-05-01", 120),
		sampleTx("a-2", "alice", "2024-05-03", 80),
		sampleTx("b-1", "bob", "2024-05-02", 300),
	}))

	all, err := s.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "a-2", all[0].ID, "newest date first")
	assert.Equal(t, "b-1", all[1].ID)
	assert.Equal(t, "a-1", all[2].ID)

	alice, err := s.List(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, alice, 2)
	for _, tx := range alice {
		assert.Equal(t, "alice", tx.Owner)
	}
}

func TestUpsertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	tx := sampleTx("a-1", "alice", "2024-05-01", 120)
	require.NoError(t, s.Upsert(ctx, []*domain.Transaction{tx}))

	// A re-import with updated categorization overwrites, never duplicates.
	tx.Category = "Groceries"
	tx.Type = domain.Transfer
	require.NoError(t, s.Upsert(ctx, []*domain.Transaction{tx}))

	all, err := s.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Groceries", all[0].Category)
	assert.Equal(t, domain.Transfer, all[0].Type)
}

func TestUpsertEmptyBatch(t *testing.T) {
	s := newTestStore(t)
	assert.NoError(t, s.Upsert(context.Background(), nil))
}

func TestDeleteOwner(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.Upsert(ctx, []*domain.Transaction{
		sampleTx("a-1", "alice", "2024-05-01", 120),
		sampleTx("a-2", "alice", "2024-05-02", 80),
		sampleTx("b-1", "bob", "2024-05-02", 300),
	}))

	n, err := s.DeleteOwner(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	all, err := s.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "bob", all[0].Owner)
}
