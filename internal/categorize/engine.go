// Package categorize assigns categories to normalized transactions. Resolution
// order: user-learned rules beat the built-in dictionary, the dictionary beats
// the regex patterns, and a type-correction pass runs last unless the source
// file pinned the direction explicitly.
package categorize

import (
	"context"
	_ "embed"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tharunjacob/firetrackspendz/internal/domain"
)

//go:embed rules.yaml
var embeddedRules []byte

// DictEntry is one keyword-to-category pair. The dictionary is a slice, not a
// map: earlier entries shadow later ones and that ordering is load-bearing.
type DictEntry struct {
	Keyword  string `yaml:"keyword"`
	Category string `yaml:"category"`
}

// PatternEntry is one compiled-on-load regex classifier.
type PatternEntry struct {
	Regexp   string `yaml:"regexp"`
	Category string `yaml:"category"`

	re *regexp.Regexp
}

type ruleFile struct {
	Dictionary     []DictEntry    `yaml:"dictionary"`
	Patterns       []PatternEntry `yaml:"patterns"`
	IncomeKeywords []string       `yaml:"income_keywords"`
}

// Engine classifies transactions. Learned rules come from the injected
// repository; the dictionary and patterns ship embedded.
type Engine struct {
	rules RuleRepository

	dictionary []DictEntry
	patterns   []PatternEntry
	incomeRe   []*regexp.Regexp
}

// NewEngine compiles the embedded rule tables. rules may be nil, which
// disables learned-rule lookup.
func NewEngine(rules RuleRepository) (*Engine, error) {
	var rf ruleFile
	if err := yaml.Unmarshal(embeddedRules, &rf); err != nil {
		return nil, fmt.Errorf("categorize: parse rules: %w", err)
	}
	for i := range rf.Patterns {
		re, err := regexp.Compile(rf.Patterns[i].Regexp)
		if err != nil {
			return nil, fmt.Errorf("categorize: pattern %q: %w", rf.Patterns[i].Regexp, err)
		}
		rf.Patterns[i].re = re
	}
	incomeRe := make([]*regexp.Regexp, 0, len(rf.IncomeKeywords))
	for _, k := range rf.IncomeKeywords {
		incomeRe = append(incomeRe, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(k)+`\b`))
	}
	return &Engine{
		rules:      rules,
		dictionary: rf.Dictionary,
		patterns:   rf.Patterns,
		incomeRe:   incomeRe,
	}, nil
}

// Apply classifies tx in place and returns it. The transaction's Category,
// SubCategory, and Type are the only fields touched.
func (e *Engine) Apply(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	combined := strings.ToLower(strings.TrimSpace(
		tx.Category + " " + tx.SubCategory + " " + tx.Notes))

	learned, err := e.learnedCategory(ctx, tx.Notes)
	if err != nil {
		return nil, err
	}

	switch {
	case learned != "":
		tx.Category = learned
	case isGeneric(tx.Category):
		if hit := e.dictionaryMatch(combined); hit != "" {
			tx.Category = hit
			if tx.SubCategory == "" && tx.Notes != "" {
				tx.SubCategory = tx.Notes
			}
		}
		if tx.Category == "" || tx.Category == "Unclassified" {
			if hit := e.patternMatch(combined); hit != "" {
				tx.Category = hit
			}
		}
	}

	tx.Category = titleFirst(tx.Category)
	if tx.SubCategory == "" {
		tx.SubCategory = "General"
	}
	if tx.Category == "" || strings.EqualFold(tx.Category, "nan") {
		tx.Category = "Unclassified"
	}

	if !tx.TypeExplicit {
		e.correctType(tx, combined)
	}
	return tx, nil
}

// ApplyAll classifies a whole batch in place.
func (e *Engine) ApplyAll(ctx context.Context, txs []*domain.Transaction) error {
	for _, tx := range txs {
		if _, err := e.Apply(ctx, tx); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) learnedCategory(ctx context.Context, description string) (string, error) {
	if e.rules == nil || description == "" {
		return "", nil
	}
	cat, err := e.rules.Match(ctx, description)
	if err != nil {
		return "", fmt.Errorf("categorize: learned rule lookup: %w", err)
	}
	return cat, nil
}

func (e *Engine) dictionaryMatch(combined string) string {
	for _, entry := range e.dictionary {
		if strings.Contains(combined, entry.Keyword) {
			return entry.Category
		}
	}
	return ""
}

func (e *Engine) patternMatch(combined string) string {
	for _, p := range e.patterns {
		if p.re.MatchString(combined) {
			return p.Category
		}
	}
	return ""
}

func (e *Engine) correctType(tx *domain.Transaction, combined string) {
	if tx.Type == domain.Expense &&
		(e.hasIncomeSignal(combined) || tx.Category == "Salary" || tx.Category == "Income") {
		tx.Type = domain.Income
	}
	if tx.Category == "Transfer" || tx.Category == "Credit Card Payment" {
		tx.Type = domain.Transfer
	}
}

func (e *Engine) hasIncomeSignal(text string) bool {
	for _, re := range e.incomeRe {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// isGeneric reports whether the source-provided category carries no real
// information, which is what unlocks dictionary and pattern classification.
func isGeneric(category string) bool {
	switch category {
	case "", "Unclassified", "General", "SYSTEM":
		return true
	}
	return false
}

func titleFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
