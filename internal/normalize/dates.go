package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Supported ledgers are overwhelmingly day-first, so the US month-first form
// is tried last and only rescues strings the day-first parse cannot accept.
var (
	compactDate = regexp.MustCompile(`^(\d{4})(\d{2})(\d{2})$`)
	monthName   = regexp.MustCompile(`^(\d{1,2})[-/ ]([A-Za-z]{3})[-/ ](\d{2,4})`)
	isoDate     = regexp.MustCompile(`^(\d{4})[-/.](\d{1,2})[-/.](\d{1,2})`)
	dayFirst    = regexp.MustCompile(`^(\d{1,2})[-/.](\d{1,2})[-/.](\d{2,4})`)
	usDate      = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})`)
)

var monthTable = map[string]int{
	"jan": 1, "feb": 2, "mar": 3, "apr": 4, "may": 5, "jun": 6,
	"jul": 7, "aug": 8, "sep": 9, "oct": 10, "nov": 11, "dec": 12,
}

// ParseDate normalizes a raw date cell to ISO YYYY-MM-DD. Accepted encodings,
// in priority order: 8-digit YYYYMMDD, DD-MMM-YY(YY), ISO YYYY-MM-DD,
// DD-MM-YYYY / DD-MM-YY, and finally MM/DD/YYYY. Years outside [1990, 2100]
// are rejected.
func ParseDate(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" || strings.EqualFold(s, "nan") {
		return "", fmt.Errorf("empty date cell")
	}

	if m := compactDate.FindStringSubmatch(s); m != nil {
		return buildDate(m[1], m[2], m[3])
	}

	if m := monthName.FindStringSubmatch(s); m != nil {
		month, ok := monthTable[strings.ToLower(m[2])]
		if ok {
			return buildDate(expandYear(m[3]), strconv.Itoa(month), m[1])
		}
	}

	if m := isoDate.FindStringSubmatch(s); m != nil {
		return buildDate(m[1], m[2], m[3])
	}

	if m := dayFirst.FindStringSubmatch(s); m != nil {
		if iso, err := buildDate(expandYear(m[3]), m[2], m[1]); err == nil {
			return iso, nil
		}
		// Structurally invalid as day-first (month > 12): fall through to the
		// US form.
	}

	if m := usDate.FindStringSubmatch(s); m != nil {
		return buildDate(m[3], m[1], m[2])
	}

	return "", fmt.Errorf("unrecognized date %q", raw)
}

func expandYear(y string) string {
	if len(y) == 2 {
		return "20" + y
	}
	return y
}

func buildDate(year, month, day string) (string, error) {
	y, err := strconv.Atoi(year)
	if err != nil {
		return "", fmt.Errorf("bad year %q", year)
	}
	m, err := strconv.Atoi(month)
	if err != nil || m < 1 || m > 12 {
		return "", fmt.Errorf("bad month %q", month)
	}
	d, err := strconv.Atoi(day)
	if err != nil || d < 1 || d > 31 {
		return "", fmt.Errorf("bad day %q", day)
	}
	if y < 1990 || y > 2100 {
		return "", fmt.Errorf("year %d out of range", y)
	}
	return fmt.Sprintf("%04d-%02d-%02d", y, m, d), nil
}
