// Package reconcile detects money moving between a user's own accounts inside
// one import batch. A combined family import otherwise counts each internal
// move twice, as income in one file and expense in another, which inflates
// both sides of every savings calculation.
package reconcile

import (
	"regexp"
	"strings"

	"github.com/tharunjacob/firetrackspendz/internal/domain"
)

// Banking rail vocabulary. Two legs that both speak it are close enough when
// the amounts and dates already agree.
var transferVocabulary = []string{
	"transfer", "upi", "neft", "imps", "rtgs", "payment", "trf", "self",
	"funds", "p2a", "a2a", "sent to", "received from",
	"zelle", "venmo", "wire", "sepa", "faster payment", "cash app",
}

// Transfers pairs Income legs with Expense legs across owners and rewrites
// both as Transfer/Inter-Account, mutating the slice elements in place. Match
// criteria within one calendar date: equal magnitude within 0.01, different
// owner, and similar descriptions. Each expense leg is consumed by at most one
// match. Returns the input slice and the pair count.
func Transfers(txs []*domain.Transaction) ([]*domain.Transaction, int) {
	matched := 0

	byDate := make(map[string][]*domain.Transaction)
	for _, t := range txs {
		byDate[t.Date] = append(byDate[t.Date], t)
	}

	for _, group := range byDate {
		if len(group) < 2 {
			continue
		}
		var incomes, expenses []*domain.Transaction
		for _, t := range group {
			switch t.Type {
			case domain.Income:
				incomes = append(incomes, t)
			case domain.Expense:
				expenses = append(expenses, t)
			}
		}
		if len(incomes) == 0 || len(expenses) == 0 {
			continue
		}

		for _, inc := range incomes {
			idx := findCounterpart(inc, expenses)
			if idx < 0 {
				continue
			}
			exp := expenses[idx]
			markTransfer(inc)
			markTransfer(exp)
			matched++
			expenses = append(expenses[:idx], expenses[idx+1:]...)
		}
	}
	return txs, matched
}

func findCounterpart(inc *domain.Transaction, expenses []*domain.Transaction) int {
	incAmt := abs(inc.Amount)
	for i, exp := range expenses {
		if diff := incAmt - abs(exp.Amount); diff > 0.01 || diff < -0.01 {
			continue
		}
		if inc.Owner == exp.Owner {
			continue
		}
		if similar(describe(inc), describe(exp)) {
			return i
		}
	}
	return -1
}

// describe falls back to the category when a leg has no notes, so a bare
// "Transfer" category row can still pair.
func describe(t *domain.Transaction) string {
	if t.Notes != "" {
		return t.Notes
	}
	return t.Category
}

func markTransfer(t *domain.Transaction) {
	t.Type = domain.Transfer
	t.Category = "Transfer"
	t.SubCategory = "Inter-Account"
}

func similar(d1, d2 string) bool {
	if hasVocabulary(d1) && hasVocabulary(d2) {
		return true
	}
	t2 := tokens(d2)
	for tok := range tokens(d1) {
		if t2[tok] {
			return true
		}
	}
	return false
}

func hasVocabulary(s string) bool {
	lower := strings.ToLower(s)
	for _, k := range transferVocabulary {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

var nonToken = regexp.MustCompile(`[^a-z0-9 ]`)

// tokens splits a description into lowercase alphanumeric words longer than
// two characters, the ones likely to be names rather than connectives.
func tokens(s string) map[string]bool {
	cleaned := nonToken.ReplaceAllString(strings.ToLower(s), " ")
	out := make(map[string]bool)
	for _, tok := range strings.Fields(cleaned) {
		if len(tok) > 2 {
			out[tok] = true
		}
	}
	return out
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
