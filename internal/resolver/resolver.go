// Package resolver deterministically maps semantic transaction fields onto the
// actual header strings of an export file. It is the zero-cost fallback used
// when neither the mapping cache nor the schema oracle produces a usable
// mapping.
package resolver

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tharunjacob/firetrackspendz/internal/domain"
)

//go:embed synonyms.yaml
var embeddedSynonyms []byte

// Synonyms holds the candidate header names per semantic field. Candidate
// order is priority order.
type Synonyms struct {
	Date        []string `yaml:"date"`
	Amount      []string `yaml:"amount"`
	Income      []string `yaml:"income"`
	Expense     []string `yaml:"expense"`
	Credit      []string `yaml:"credit"`
	Debit       []string `yaml:"debit"`
	Type        []string `yaml:"type"`
	Category    []string `yaml:"category"`
	Subcategory []string `yaml:"subcategory"`
	Description []string `yaml:"description"`
	Project     []string `yaml:"project"`
	Ignore      []string `yaml:"ignore"`
}

// Resolver scores header columns against the synonym tables.
type Resolver struct {
	syn Synonyms
}

// New loads the embedded synonym tables.
func New() (*Resolver, error) {
	return fromYAML(embeddedSynonyms)
}

// NewFromFile loads synonym tables from an override file.
func NewFromFile(path string) (*Resolver, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("resolver: read synonyms %s: %w", path, err)
	}
	return fromYAML(data)
}

func fromYAML(data []byte) (*Resolver, error) {
	var syn Synonyms
	if err := yaml.Unmarshal(data, &syn); err != nil {
		return nil, fmt.Errorf("resolver: parse synonyms: %w", err)
	}
	if len(syn.Date) == 0 || len(syn.Amount) == 0 {
		return nil, fmt.Errorf("resolver: synonym tables missing date or amount candidates")
	}
	return &Resolver{syn: syn}, nil
}

// HeaderKeywords returns the vocabulary the grid extractor rewards when
// scoring header-row candidates.
func (r *Resolver) HeaderKeywords() []string {
	out := make([]string, 0, len(r.syn.Date)+len(r.syn.Amount)+len(r.syn.Description))
	out = append(out, r.syn.Date...)
	out = append(out, r.syn.Amount...)
	out = append(out, r.syn.Description...)
	return out
}

// Resolve assembles a full mapping by matching every semantic field
// independently against the header.
func (r *Resolver) Resolve(header []string) domain.FileMapping {
	creditCol := r.BestColumn(header, r.syn.Credit)
	debitCol := r.BestColumn(header, r.syn.Debit)

	// A combined Income/Expense column matches both transfer vocabularies; it
	// is a type column, not an account pair. Likewise a Withdrawal/Deposit pair
	// already claimed as credit/debit is not a transfer ledger.
	expenseCol := r.BestColumn(header, r.syn.Expense)
	incomeCol := r.BestColumn(header, r.syn.Income)
	if expenseCol == incomeCol || expenseCol == debitCol || incomeCol == creditCol {
		expenseCol, incomeCol = "", ""
	}

	// A lone Amount column satisfies both the credit and the debit vocabulary
	// through containment. One shared column is a single-amount schema, not a
	// split ledger; claiming it as both sides would misread every signed row.
	if creditCol == debitCol {
		creditCol, debitCol = "", ""
	}

	return domain.FileMapping{
		DateColumn:            r.BestColumn(header, r.syn.Date),
		AmountColumn:          r.BestColumn(header, r.syn.Amount),
		CategoryColumn:        r.BestColumn(header, r.syn.Category),
		SubcategoryColumn:     r.BestColumn(header, r.syn.Subcategory),
		DescriptionColumn:     r.BestColumn(header, r.syn.Description),
		TypeColumn:            r.BestColumn(header, r.syn.Type),
		ProjectColumn:         r.BestColumn(header, r.syn.Project),
		IsCreditDebitSeparate: creditCol != "" && debitCol != "",
		CreditColumn:          creditCol,
		DebitColumn:           debitCol,
		ExpenseTransferColumn: expenseCol,
		IncomeTransferColumn:  incomeCol,
	}
}

// BestColumn picks the header column that best matches any candidate synonym.
// Exact case-insensitive match wins immediately; substring containment either
// direction (min length 3) scores 0.9; otherwise normalized edit-distance
// similarity must clear 0.7. Ignore-listed columns (running balances) are
// never matched.
func (r *Resolver) BestColumn(header []string, candidates []string) string {
	best := ""
	bestScore := 0.0

	for _, col := range header {
		colLower := strings.ToLower(strings.TrimSpace(col))
		if colLower == "" || r.ignored(colLower) {
			continue
		}
		for _, cand := range candidates {
			candLower := strings.ToLower(strings.TrimSpace(cand))
			if colLower == candLower {
				return col
			}
			if strings.Contains(colLower, candLower) || strings.Contains(candLower, colLower) {
				if min(len(colLower), len(candLower)) >= 3 && 0.9 > bestScore {
					bestScore = 0.9
					best = col
				}
			}
			if score := similarity(colLower, candLower); score > 0.7 && score > bestScore {
				bestScore = score
				best = col
			}
		}
	}
	return best
}

func (r *Resolver) ignored(colLower string) bool {
	for _, ig := range r.syn.Ignore {
		if strings.Contains(colLower, strings.ToLower(ig)) {
			return true
		}
	}
	return false
}

// similarity is (maxLen - levenshtein) / maxLen over the longer string.
func similarity(a, b string) float64 {
	longer, shorter := a, b
	if len(b) > len(a) {
		longer, shorter = b, a
	}
	if len(longer) == 0 {
		return 1.0
	}
	return float64(len(longer)-levenshtein(longer, shorter)) / float64(len(longer))
}

func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(ra)+1)
	curr := make([]int, len(ra)+1)
	for i := range prev {
		prev[i] = i
	}
	for j := 1; j <= len(rb); j++ {
		curr[0] = j
		for i := 1; i <= len(ra); i++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[i] = min(curr[i-1]+1, min(prev[i]+1, prev[i-1]+cost))
		}
		prev, curr = curr, prev
	}
	return prev[len(ra)]
}
