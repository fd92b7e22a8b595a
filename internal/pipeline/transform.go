package pipeline

import (
	"context"
	"errors"
	"strings"

	"github.com/tharunjacob/firetrackspendz/internal/domain"
	"github.com/tharunjacob/firetrackspendz/internal/grid"
	"github.com/tharunjacob/firetrackspendz/internal/logger"
	"github.com/tharunjacob/firetrackspendz/internal/mapping"
	"github.com/tharunjacob/firetrackspendz/internal/normalize"
)

// ErrEncryptedPDF aborts a PDF import before any model call is spent on it.
var ErrEncryptedPDF = errors.New("pdf is password protected, remove the password and try again")

// errExhausted is the single user-facing failure after every resolution
// strategy came up empty.
var errExhausted = errors.New("could not extract valid transactions, check if the file has date and amount columns or is password protected")

// sampleRowLimit is how many data rows accompany an oracle request.
const sampleRowLimit = 50

// TransformFile runs the full resolution ladder on one file and returns its
// normalized transactions. Strategies in order: cached mapping by header
// signature, oracle column mapping, deterministic synonym resolution, oracle
// structure recovery on the raw rows. The first strategy that yields at least
// one transaction wins and its mapping is cached; if all four miss the caller
// gets one descriptive error. PDFs bypass the ladder entirely.
func (imp *Importer) TransformFile(ctx context.Context, data []byte, filename, owner string) ([]*domain.Transaction, error) {
	if grid.IsPDF(data) {
		return imp.transformPDF(ctx, data, owner)
	}

	log := logger.FromContext(ctx)

	rows, err := grid.Extract(data, filename)
	if err != nil {
		return nil, err
	}

	headerIdx := grid.LocateHeader(rows, imp.resolver.HeaderKeywords())
	header := rows[headerIdx]
	dataRows := rows[headerIdx+1:]
	signature := mapping.Signature(header)

	// 1. Cached mapping.
	if cached, err := imp.cache.Lookup(ctx, signature); err != nil {
		log.Warn().Err(err).Msg("mapping cache lookup failed")
	} else if cached.Valid() {
		if txs := normalize.Rows(dataRows, header, *cached, owner); len(txs) > 0 {
			log.Info().Str("file", filename).Int("rows", len(txs)).Msg("resolved via cached mapping")
			return imp.classify(ctx, txs)
		}
		log.Info().Str("file", filename).Msg("cached mapping yielded no rows, escalating")
	}

	// 2. Oracle mapping from the located header plus sample data.
	if imp.oracle != nil {
		sample := dataRows
		if len(sample) > sampleRowLimit {
			sample = sample[:sampleRowLimit]
		}
		fm, err := imp.oracle.MapColumns(ctx, header, sample)
		if err != nil {
			log.Warn().Err(err).Msg("oracle mapping failed, falling back")
		} else if fm.Valid() {
			if txs := normalize.Rows(dataRows, header, *fm, owner); len(txs) > 0 {
				imp.learnMapping(ctx, signature, *fm)
				log.Info().Str("file", filename).Int("rows", len(txs)).Msg("resolved via oracle mapping")
				return imp.classify(ctx, txs)
			}
		}
	}

	// 3. Deterministic synonym matching.
	if fm := imp.resolver.Resolve(header); fm.Valid() {
		if txs := normalize.Rows(dataRows, header, fm, owner); len(txs) > 0 {
			imp.learnMapping(ctx, signature, fm)
			log.Info().Str("file", filename).Int("rows", len(txs)).Msg("resolved via synonym matching")
			return imp.classify(ctx, txs)
		}
	}

	// 4. Oracle structure recovery on the raw rows, header location included.
	if imp.oracle != nil {
		preview := rows
		if len(preview) > sampleRowLimit {
			preview = preview[:sampleRowLimit]
		}
		st, err := imp.oracle.DetectStructure(ctx, preview)
		if err != nil {
			log.Warn().Err(err).Msg("oracle structure recovery failed")
		} else if st != nil && st.HeaderIndex >= 0 && st.HeaderIndex < len(rows)-1 && st.Mapping.Valid() {
			newHeader := rows[st.HeaderIndex]
			newData := rows[st.HeaderIndex+1:]
			if txs := normalize.Rows(newData, newHeader, st.Mapping, owner); len(txs) > 0 {
				imp.learnMapping(ctx, mapping.Signature(newHeader), st.Mapping)
				log.Info().Str("file", filename).Int("rows", len(txs)).
					Int("header_index", st.HeaderIndex).Msg("resolved via structure recovery")
				return imp.classify(ctx, txs)
			}
		}
	}

	return nil, errExhausted
}

// learnMapping caches a mapping that just produced transactions. Failures are
// logged and swallowed: losing a cache write never fails an import.
func (imp *Importer) learnMapping(ctx context.Context, signature string, fm domain.FileMapping) {
	if signature == "" {
		return
	}
	if err := imp.cache.Store(ctx, signature, fm); err != nil {
		log := logger.FromContext(ctx)
		log.Warn().Err(err).Str("signature", signature).Msg("mapping cache store failed")
	}
}

// transformPDF routes a PDF statement through the document-understanding
// service and normalizes its already-structured rows.
func (imp *Importer) transformPDF(ctx context.Context, data []byte, owner string) ([]*domain.Transaction, error) {
	if grid.IsEncryptedPDF(data) {
		return nil, ErrEncryptedPDF
	}
	if imp.extractor == nil {
		return nil, errors.New("pdf import requires the statement extraction service")
	}
	rows, err := imp.extractor.ExtractStatement(ctx, data)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errors.New("no transactions extracted, ensure the pdf contains a readable bank statement, not just images")
	}
	return imp.classify(ctx, fromStatementRows(rows, owner))
}

// classify runs the categorization layer over a file's transactions before
// they join the batch.
func (imp *Importer) classify(ctx context.Context, txs []*domain.Transaction) ([]*domain.Transaction, error) {
	if err := imp.engine.ApplyAll(ctx, txs); err != nil {
		return nil, err
	}
	return txs, nil
}

// fromStatementRows converts extractor rows into transactions, applying the
// same strict date parsing and direction post-processing as the grid path.
func fromStatementRows(rows []domain.StatementRow, owner string) []*domain.Transaction {
	var out []*domain.Transaction
	for idx, row := range rows {
		isoDate, err := normalize.ParseDate(row.Date)
		if err != nil {
			continue
		}
		amount := normalize.CleanAmount(row.RawAmount)
		if amount < 0 {
			amount = -amount
		}
		if amount == 0 {
			continue
		}

		txType := statementDirection(row)

		category := strings.TrimSpace(row.Category)
		if category == "" {
			category = "Unclassified"
		}
		// The extractor is asked for two-word categories; enforce it anyway.
		if words := strings.Fields(category); len(words) > 2 {
			category = strings.Join(words[:2], " ")
		}

		out = append(out, &domain.Transaction{
			ID:          normalize.ID(owner, isoDate, amount, row.Description, idx),
			Owner:       owner,
			Type:        txType,
			Date:        isoDate,
			Time:        "00:00",
			Category:    category,
			SubCategory: "General",
			Notes:       row.Description,
			Amount:      amount,
		})
	}
	for _, t := range out {
		if t.Project == "" {
			t.Project = "None"
		}
	}
	return out
}

// statementDirection distrusts the extractor's type wherever the raw amount
// string carries its own markers, then rescues obvious refunds.
func statementDirection(row domain.StatementRow) domain.TransactionType {
	txType := domain.Expense
	if strings.EqualFold(row.Type, "Income") {
		txType = domain.Income
	}

	rawLower := strings.ToLower(row.RawAmount)
	switch {
	case strings.Contains(row.RawAmount, "+"),
		strings.Contains(rawLower, "cr"),
		strings.Contains(rawLower, "credit"):
		txType = domain.Income
	case strings.Contains(rawLower, "dr"), strings.Contains(rawLower, "debit"):
		txType = domain.Expense
	}

	if txType != domain.Income {
		descLower := strings.ToLower(row.Description)
		for _, k := range []string{"refund", "cashback", "reversal", "money back"} {
			if strings.Contains(descLower, k) {
				return domain.Income
			}
		}
	}
	return txType
}
