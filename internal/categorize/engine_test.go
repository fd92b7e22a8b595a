package categorize

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tharunjacob/firetrackspendz/internal/domain"
)

func newTestEngine(t *testing.T, rules RuleRepository) *Engine {
	t.Helper()
	e, err := NewEngine(rules)
	require.NoError(t, err)
	return e
}

func TestApplyLearnedRuleBeatsEverything(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRules()
	require.NoError(t, repo.Put(ctx, "netflix", "Streaming"))
	e := newTestEngine(t, repo)

	// The source file already categorized this row; a learned rule still wins.
	tx := &domain.Transaction{Type: domain.Expense, Category: "Entertainment", Notes: "NETFLIX monthly"}
	_, err := e.Apply(ctx, tx)
	require.NoError(t, err)
	assert.Equal(t, "Streaming", tx.Category)
	assert.Equal(t, "General", tx.SubCategory)
}

func TestApplyLearnedRuleLongestKeywordWins(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRules()
	require.NoError(t, repo.Put(ctx, "netflix", "Streaming"))
	require.NoError(t, repo.Put(ctx, "netflix gift card", "Shopping"))
	e := newTestEngine(t, repo)

	tx := &domain.Transaction{Type: domain.Expense, Notes: "Netflix Gift Card purchase"}
	_, err := e.Apply(ctx, tx)
	require.NoError(t, err)
	assert.Equal(t, "Shopping", tx.Category)
}

func TestApplyDictionary(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, nil)

	tests := []struct {
		name     string
		tx       domain.Transaction
		wantCat  string
		wantSub  string
		wantType domain.TransactionType
	}{
		{
			name:     "merchant keyword fills generic category",
			tx:       domain.Transaction{Type: domain.Expense, Notes: "Swiggy order 4417"},
			wantCat:  "Food",
			wantSub:  "Swiggy order 4417",
			wantType: domain.Expense,
		},
		{
			name:     "source category blocks the dictionary",
			tx:       domain.Transaction{Type: domain.Expense, Category: "Dining", Notes: "swiggy order"},
			wantCat:  "Dining",
			wantSub:  "General",
			wantType: domain.Expense,
		},
		{
			name:     "existing subcategory is preserved on a hit",
			tx:       domain.Transaction{Type: domain.Expense, SubCategory: "Takeaway", Notes: "zomato delivery"},
			wantCat:  "Food",
			wantSub:  "Takeaway",
			wantType: domain.Expense,
		},
		{
			name:     "unclassified counts as generic",
			tx:       domain.Transaction{Type: domain.Expense, Category: "Unclassified", Notes: "Uber trip home"},
			wantCat:  "Transport",
			wantSub:  "Uber trip home",
			wantType: domain.Expense,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := tt.tx
			_, err := e.Apply(ctx, &tx)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCat, tx.Category)
			assert.Equal(t, tt.wantSub, tx.SubCategory)
			assert.Equal(t, tt.wantType, tx.Type)
		})
	}
}

func TestApplyPatternFallback(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, nil)

	tests := []struct {
		name     string
		notes    string
		wantCat  string
		wantType domain.TransactionType
	}{
		{name: "bare rail is a transfer", notes: "UPI-419223372036", wantCat: "Transfer", wantType: domain.Transfer},
		{name: "rail plus merchant is no transfer", notes: "UPI-SWIGGY-419223", wantCat: "Food", wantType: domain.Expense},
		{name: "atm withdrawal", notes: "ATM WDL 004417 MG ROAD", wantCat: "Cash", wantType: domain.Expense},
		{name: "interest paid", notes: "INT.PD 01JAN-31MAR", wantCat: "Income", wantType: domain.Income},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := &domain.Transaction{Type: domain.Expense, Notes: tt.notes}
			_, err := e.Apply(ctx, tx)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCat, tx.Category)
			assert.Equal(t, tt.wantType, tx.Type)
		})
	}
}

func TestApplyFinalizers(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, nil)

	tests := []struct {
		name    string
		tx      domain.Transaction
		wantCat string
		wantSub string
	}{
		{
			name:    "empty category with no signal",
			tx:      domain.Transaction{Type: domain.Expense, Notes: "xq 9 zzt"},
			wantCat: "Unclassified",
			wantSub: "General",
		},
		{
			name:    "nan category from a spreadsheet",
			tx:      domain.Transaction{Type: domain.Expense, Category: "nan", Notes: "qqqq"},
			wantCat: "Unclassified",
			wantSub: "General",
		},
		{
			name:    "lowercase source category is title cased",
			tx:      domain.Transaction{Type: domain.Expense, Category: "holidays", Notes: "qqqq"},
			wantCat: "Holidays",
			wantSub: "General",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := tt.tx
			_, err := e.Apply(ctx, &tx)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCat, tx.Category)
			assert.Equal(t, tt.wantSub, tx.SubCategory)
		})
	}
}

func TestApplyTypeCorrection(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, nil)

	t.Run("salary marked expense becomes income", func(t *testing.T) {
		tx := &domain.Transaction{Type: domain.Expense, Notes: "salary credited for june"}
		_, err := e.Apply(ctx, tx)
		require.NoError(t, err)
		assert.Equal(t, "Salary", tx.Category)
		assert.Equal(t, domain.Income, tx.Type)
	})

	t.Run("explicit type column disables correction", func(t *testing.T) {
		tx := &domain.Transaction{Type: domain.Expense, TypeExplicit: true, Notes: "salary credited for june"}
		_, err := e.Apply(ctx, tx)
		require.NoError(t, err)
		assert.Equal(t, "Salary", tx.Category)
		assert.Equal(t, domain.Expense, tx.Type)
	})

	t.Run("credit card payment is a transfer", func(t *testing.T) {
		tx := &domain.Transaction{Type: domain.Expense, Category: "Credit Card Payment", Notes: "autopay"}
		_, err := e.Apply(ctx, tx)
		require.NoError(t, err)
		assert.Equal(t, domain.Transfer, tx.Type)
	})

	t.Run("income stays income", func(t *testing.T) {
		tx := &domain.Transaction{Type: domain.Income, Notes: "dividend payout"}
		_, err := e.Apply(ctx, tx)
		require.NoError(t, err)
		assert.Equal(t, domain.Income, tx.Type)
	})
}

func TestApplyAll(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, nil)

	txs := []*domain.Transaction{
		{Type: domain.Expense, Notes: "swiggy order"},
		{Type: domain.Expense, Notes: "uber trip"},
	}
	require.NoError(t, e.ApplyAll(ctx, txs))
	assert.Equal(t, "Food", txs[0].Category)
	assert.Equal(t, "Transport", txs[1].Category)
}
