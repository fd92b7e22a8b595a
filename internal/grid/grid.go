// Package grid turns raw export bytes into a rectangular grid of cell strings
// and locates the real header row among preamble rows. It sniffs the format
// from content, never from the file extension alone: real-world exports are
// routinely misnamed.
package grid

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/xuri/excelize/v2"
)

// maxHeaderScan bounds the header search; bank preambles never run longer.
const maxHeaderScan = 100

var ErrEmptyFile = errors.New("file appears empty or unreadable")

// Extract converts file bytes into a grid of cell strings. XLSX workbooks use
// the first sheet; OFX/QFX statements are flattened into a synthetic
// Date/Description/Amount/Type table; everything else is treated as delimited
// text.
func Extract(data []byte, filename string) ([][]string, error) {
	switch {
	case isXLSX(data):
		return extractXLSX(data)
	case isOFX(data, filename):
		return extractOFX(data)
	default:
		return extractCSV(data)
	}
}

// IsPDF reports whether the bytes are a PDF document. PDF statements skip the
// grid entirely and go to the document-understanding service.
func IsPDF(data []byte) bool {
	return bytes.HasPrefix(data, []byte("%PDF"))
}

// IsEncryptedPDF detects the standard PDF encryption marker. Password-protected
// statements fail fast before any expensive call.
func IsEncryptedPDF(data []byte) bool {
	return bytes.Contains(data, []byte("/Encrypt")) && !bytes.Contains(data, []byte("/Encrypt null"))
}

func isXLSX(data []byte) bool {
	return bytes.HasPrefix(data, []byte("PK\x03\x04"))
}

func isOFX(data []byte, filename string) bool {
	head := strings.ToUpper(string(data[:min(len(data), 512)]))
	if strings.Contains(head, "OFXHEADER") || strings.Contains(head, "<?OFX") || strings.Contains(head, "<OFX>") {
		return true
	}
	lower := strings.ToLower(filename)
	return strings.HasSuffix(lower, ".ofx") || strings.HasSuffix(lower, ".qfx")
}

func extractXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("extractXLSX: open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyFile
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("extractXLSX: read sheet %q: %w", sheets[0], err)
	}
	if len(rows) < 2 {
		return nil, ErrEmptyFile
	}
	return rows, nil
}

func extractCSV(data []byte) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = sniffDelimiter(data)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var rows [][]string
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Malformed lines in a preamble should not sink the file.
			if errors.Is(err, csv.ErrFieldCount) {
				continue
			}
			return nil, fmt.Errorf("extractCSV: %w", err)
		}
		rows = append(rows, record)
	}
	if len(rows) < 2 {
		return nil, ErrEmptyFile
	}
	return rows, nil
}

// sniffDelimiter counts candidate separators on the first non-empty line.
func sniffDelimiter(data []byte) rune {
	line := data
	if idx := bytes.IndexByte(data, '\n'); idx != -1 {
		line = data[:idx]
	}
	best, bestCount := ',', 0
	for _, cand := range []rune{',', ';', '\t', '|'} {
		if n := bytes.Count(line, []byte(string(cand))); n > bestCount {
			best, bestCount = cand, n
		}
	}
	return best
}

var numericCell = regexp.MustCompile(`^\d+$`)

// LocateHeader scores each of the first 100 rows as a header candidate and
// returns the argmax index. Cells containing a known field keyword score +3,
// purely numeric cells −3, other non-trivial text +0.5; rows with at least
// three non-empty cells additionally score their non-empty count. Returns 0
// when nothing qualifies, leaving downstream resolution to fail gracefully.
func LocateHeader(rows [][]string, keywords []string) int {
	lowered := make([]string, len(keywords))
	for i, k := range keywords {
		lowered[i] = strings.ToLower(k)
	}

	headerIdx := 0
	maxScore := float64(-1 << 30)
	limit := min(len(rows), maxHeaderScan)

	for i := 0; i < limit; i++ {
		row := rows[i]
		score := 0.0
		nonEmpty := 0
		for _, cell := range row {
			text := strings.ToLower(strings.TrimSpace(cell))
			if text == "" {
				continue
			}
			nonEmpty++
			stripped := strings.NewReplacer(".", "", ",", "", "-", "", "/", "").Replace(text)
			switch {
			case numericCell.MatchString(stripped):
				score -= 3
			case containsAny(text, lowered):
				score += 3
			case len(text) > 2:
				score += 0.5
			}
		}
		if nonEmpty >= 3 {
			score += float64(nonEmpty)
		}
		if score > maxScore {
			maxScore = score
			headerIdx = i
		}
	}
	return headerIdx
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if k != "" && strings.Contains(text, k) {
			return true
		}
	}
	return false
}

// Cell fetches row[i] tolerating ragged rows.
func Cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}
