// Package normalize converts raw grid rows into canonical transactions given a
// resolved column mapping. Per-row failures (bad dates, zero amounts) skip the
// row and keep going; a statement with one mangled line still imports.
package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/tharunjacob/firetrackspendz/internal/domain"
)

// Rows normalizes every data row under mapping and returns the surviving
// transactions. Row indexes feed the deterministic id, so re-importing an
// unchanged file reproduces identical ids.
func Rows(dataRows [][]string, header []string, m domain.FileMapping, owner string) []*domain.Transaction {
	index := make(map[string]int, len(header))
	for i, col := range header {
		if _, seen := index[col]; !seen {
			index[col] = i
		}
	}
	cell := func(row []string, colName string) string {
		if colName == "" {
			return ""
		}
		i, ok := index[colName]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	var out []*domain.Transaction
	for idx, row := range dataRows {
		t := normalizeRow(row, m, owner, idx, cell)
		if t != nil {
			out = append(out, t)
		}
	}
	return out
}

func normalizeRow(row []string, m domain.FileMapping, owner string, idx int, cell func([]string, string) string) *domain.Transaction {
	isoDate, err := ParseDate(cell(row, m.DateColumn))
	if err != nil {
		return nil
	}

	amount, txType := resolveAmount(row, m, cell)

	// An unambiguous type cell always wins over the amount-shape inference.
	explicit := explicitType(cell(row, m.TypeColumn))
	if explicit != "" {
		txType = explicit
	}
	if amount == 0 {
		return nil
	}

	category := strings.TrimSpace(cell(row, m.CategoryColumn))
	if category == "" {
		category = "Unclassified"
	}
	subCategory := strings.TrimSpace(cell(row, m.SubcategoryColumn))
	notes := strings.TrimSpace(cell(row, m.DescriptionColumn))
	project := strings.TrimSpace(cell(row, m.ProjectColumn))
	if project == "" {
		project = "None"
	}

	return &domain.Transaction{
		ID:           ID(owner, isoDate, amount, notes, idx),
		Owner:        owner,
		Type:         txType,
		Date:         isoDate,
		Time:         "00:00",
		Category:     category,
		SubCategory:  subCategory,
		Notes:        notes,
		Amount:       amount,
		Project:      project,
		TypeExplicit: explicit != "",
	}
}

// resolveAmount determines magnitude and direction from whichever of the three
// schema shapes the mapping describes.
func resolveAmount(row []string, m domain.FileMapping, cell func([]string, string) string) (float64, domain.TransactionType) {
	switch {
	case m.ExpenseTransferColumn != "" && m.IncomeTransferColumn != "" && m.AmountColumn != "":
		amount := abs(CleanAmount(cell(row, m.AmountColumn)))
		expenseAcc := strings.TrimSpace(cell(row, m.ExpenseTransferColumn))
		incomeAcc := strings.TrimSpace(cell(row, m.IncomeTransferColumn))
		switch {
		case expenseAcc != "" && incomeAcc != "":
			return amount, domain.Transfer
		case incomeAcc != "":
			return amount, domain.Income
		default:
			return amount, domain.Expense
		}

	case m.IsCreditDebitSeparate && m.CreditColumn != "" && m.DebitColumn != "":
		cr := CleanAmount(cell(row, m.CreditColumn))
		dr := CleanAmount(cell(row, m.DebitColumn))
		switch {
		case cr > 0:
			return cr, domain.Income
		case dr > 0:
			return dr, domain.Expense
		default:
			return 0, domain.Expense
		}

	case m.AmountColumn != "":
		raw := cell(row, m.AmountColumn)
		hasPlus := strings.HasPrefix(strings.TrimSpace(raw), "+")
		val := CleanAmount(raw)
		amount := abs(val)

		switch {
		case drMarker.MatchString(raw):
			return amount, domain.Expense
		case crMarker.MatchString(raw) || hasPlus:
			return amount, domain.Income
		case headerIsIncomeish(m.AmountColumn):
			if val >= 0 {
				return amount, domain.Income
			}
			return amount, domain.Expense
		default:
			// Deliberate ledger convention: an unmarked positive amount is an
			// outflow, a negative one an inflow.
			if val >= 0 {
				return amount, domain.Expense
			}
			return amount, domain.Income
		}
	}
	return 0, domain.Expense
}

func explicitType(raw string) domain.TransactionType {
	t := strings.ToLower(strings.TrimSpace(raw))
	if t == "" {
		return ""
	}
	switch {
	case containsAnyOf(t, "income", "credit", "deposit", "cr"):
		return domain.Income
	case containsAnyOf(t, "expense", "debit", "payment", "dr", "withdrawal"):
		return domain.Expense
	case strings.Contains(t, "transfer"):
		return domain.Transfer
	}
	return ""
}

func containsAnyOf(s string, keys ...string) bool {
	for _, k := range keys {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

var alnumOnly = regexp.MustCompile(`[^a-zA-Z0-9]`)

// ID builds the deterministic transaction id:
// {owner}-{isoDate}-{amount}-{first 10 chars of description}-{rowIndex},
// with owner and description reduced to plain alphanumerics. The description
// is truncated before sanitizing, so punctuation inside the first ten
// characters never pulls later text into the id.
func ID(owner, isoDate string, amount float64, description string, rowIdx int) string {
	desc := []rune(description)
	if len(desc) > 10 {
		desc = desc[:10]
	}
	return fmt.Sprintf("%s-%s-%s-%s-%d",
		Sanitize(owner), isoDate, strconv.FormatFloat(amount, 'f', -1, 64), Sanitize(string(desc)), rowIdx)
}

// Sanitize strips accents via Unicode NFD mark removal, then drops everything
// outside [a-zA-Z0-9], so "Café Müller" and "Cafe Muller" collapse to the
// same id fragment.
func Sanitize(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if normalized, _, err := transform.String(t, s); err == nil {
		s = normalized
	}
	return alnumOnly.ReplaceAllString(s, "")
}
