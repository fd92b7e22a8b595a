// Package oracle wraps the generative model behind narrow interfaces so the
// pipeline can fall back to AI-assisted schema resolution without knowing the
// vendor, and tests can substitute deterministic fakes.
package oracle

import (
	"context"

	"github.com/tharunjacob/firetrackspendz/internal/domain"
)

// Structure is the model's answer to "where does the transaction table start
// in this mess of preamble rows". HeaderIndex is the 0-based row index of the
// header, -1 when the model found no table.
type Structure struct {
	HeaderIndex int                `json:"headerIndex"`
	Mapping     domain.FileMapping `json:"mapping"`
}

// SchemaOracle resolves column mappings a deterministic matcher cannot. Both
// methods return (nil, nil) when the model declines to answer, which the
// caller treats as a miss rather than a failure.
type SchemaOracle interface {
	// MapColumns infers a mapping from a known header row plus sample data.
	MapColumns(ctx context.Context, headers []string, sampleRows [][]string) (*domain.FileMapping, error)

	// DetectStructure locates the header row inside raw rows that may begin
	// with bank-branding preamble, then maps the columns it found.
	DetectStructure(ctx context.Context, rawRows [][]string) (*Structure, error)
}

// StatementExtractor pulls structured rows out of a PDF statement, a document
// no grid extractor can read.
type StatementExtractor interface {
	ExtractStatement(ctx context.Context, pdf []byte) ([]domain.StatementRow, error)
}
