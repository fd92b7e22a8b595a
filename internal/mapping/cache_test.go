package mapping

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/tharunjacob/firetrackspendz/internal/domain"
)

func TestSignature(t *testing.T) {
	tests := []struct {
		name    string
		headers []string
		want    string
	}{
		{name: "sorted lowered joined", headers: []string{"Date", "Amount"}, want: "amount|date"},
		{name: "order independent", headers: []string{"Amount", "Date"}, want: "amount|date"},
		{name: "whitespace trimmed", headers: []string{"  Date ", "Amount"}, want: "amount|date"},
		{name: "empty header set", headers: nil, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Signature(tt.headers))
		})
	}
}

func TestMemoryRoundtrip(t *testing.T) {
	ctx := context.Background()
	repo := NewMemory()

	missing, err := repo.Lookup(ctx, "amount|date")
	require.NoError(t, err)
	assert.Nil(t, missing, "miss must be (nil, nil)")

	fm := domain.FileMapping{DateColumn: "Date", AmountColumn: "Amount"}
	require.NoError(t, repo.Store(ctx, "amount|date", fm))

	got, err := repo.Lookup(ctx, "amount|date")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, fm, *got)

	// Empty signatures are never cached.
	require.NoError(t, repo.Store(ctx, "", fm))
	got, err = repo.Lookup(ctx, "")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSQLiteRoundtrip(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	repo, err := NewSQLite(ctx, db)
	require.NoError(t, err)

	missing, err := repo.Lookup(ctx, "amount|date|narration")
	require.NoError(t, err)
	assert.Nil(t, missing)

	fm := domain.FileMapping{
		DateColumn:            "Date",
		DescriptionColumn:     "Narration",
		IsCreditDebitSeparate: true,
		CreditColumn:          "Deposit Amt",
		DebitColumn:           "Withdrawal Amt",
	}
	require.NoError(t, repo.Store(ctx, "amount|date|narration", fm))

	got, err := repo.Lookup(ctx, "amount|date|narration")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, fm, *got)

	// Last write wins.
	fm.DateColumn = "Txn Date"
	require.NoError(t, repo.Store(ctx, "amount|date|narration", fm))
	got, err = repo.Lookup(ctx, "amount|date|narration")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Txn Date", got.DateColumn)
}

func TestSQLiteCorruptRowIsMiss(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	repo, err := NewSQLite(ctx, db)
	require.NoError(t, err)

	_, err = db.ExecContext(ctx,
		`INSERT INTO file_mappings (signature, mapping, updated_ts) VALUES (?, ?, ?)`,
		"bad|sig", "{not json", "2024-01-01T00:00:00Z")
	require.NoError(t, err)

	got, err := repo.Lookup(ctx, "bad|sig")
	require.NoError(t, err)
	assert.Nil(t, got)
}
