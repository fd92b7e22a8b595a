package normalize

import (
	"regexp"
	"strconv"
	"strings"
)

var nonNumeric = regexp.MustCompile(`[^0-9.\-]`)

// CleanAmount parses a raw amount cell into a signed value. Currency symbols,
// grouping separators, and trailing markers are stripped; a leading minus or
// accountant parentheses make the value negative. Unparseable cells clean to
// zero, which downstream treats as a skipped row.
func CleanAmount(raw string) float64 {
	s := strings.TrimSpace(raw)
	if s == "" || strings.EqualFold(s, "nan") {
		return 0
	}
	negative := (strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")")) || strings.HasPrefix(s, "-")

	stripped := nonNumeric.ReplaceAllString(s, "")
	stripped = strings.ReplaceAll(stripped, "-", "")
	if stripped == "" {
		return 0
	}
	num, err := strconv.ParseFloat(stripped, 64)
	if err != nil {
		return 0
	}
	if negative {
		return -num
	}
	return num
}

var (
	drMarker = regexp.MustCompile(`(?i)\b(dr|debit)\b`)
	crMarker = regexp.MustCompile(`(?i)\b(cr|credit)\b`)
)

// incomeishHeaders flips the sign convention for amount columns whose own name
// says they hold inflows.
var incomeishHeaders = []string{"income", "credit", "deposit", "inflow", "received", "cr"}

func headerIsIncomeish(colName string) bool {
	lower := strings.ToLower(colName)
	for _, k := range incomeishHeaders {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}
