// Package analytics exports the local ledger to BigQuery for dashboarding.
// The warehouse is write-mostly: the local database stays the source of
// truth, exports are idempotent on batch id.
package analytics

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"google.golang.org/api/iterator"

	"github.com/tharunjacob/firetrackspendz/internal/domain"
)

const transactionsTable = "transactions"

// TransactionRow is the warehouse schema for one ledger entry.
type TransactionRow struct {
	TransactionID string     `bigquery:"transaction_id"`
	BatchID       string     `bigquery:"batch_id"`
	Owner         string     `bigquery:"owner"`
	Type          string     `bigquery:"type"`
	Date          civil.Date `bigquery:"date"`
	Category      string     `bigquery:"category"`
	SubCategory   string     `bigquery:"sub_category"`
	Notes         string     `bigquery:"notes"`
	Amount        *big.Rat   `bigquery:"amount"`
	Project       string     `bigquery:"project"`
	ExportedTS    time.Time  `bigquery:"exported_ts"`
}

// Exporter streams ledger batches into a BigQuery dataset.
type Exporter struct {
	client  *bigquery.Client
	dataset string
}

func NewExporter(ctx context.Context, projectID, dataset string) (*Exporter, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("analytics: bigquery client: %w", err)
	}
	return &Exporter{client: client, dataset: dataset}, nil
}

func (e *Exporter) Close() error {
	return e.client.Close()
}

// Export inserts the batch. Rows carry the batch id so a re-export of the
// same batch can be filtered downstream.
func (e *Exporter) Export(ctx context.Context, batchID string, txs []*domain.Transaction) error {
	if len(txs) == 0 {
		return nil
	}
	rows := make([]*TransactionRow, 0, len(txs))
	now := time.Now().UTC()
	for _, t := range txs {
		row, err := toRow(batchID, t, now)
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}

	inserter := e.client.Dataset(e.dataset).Table(transactionsTable).Inserter()
	if err := inserter.Put(ctx, rows); err != nil {
		return fmt.Errorf("analytics: inserting %d rows: %w", len(rows), err)
	}
	return nil
}

func toRow(batchID string, t *domain.Transaction, now time.Time) (*TransactionRow, error) {
	date, err := civil.ParseDate(t.Date)
	if err != nil {
		return nil, fmt.Errorf("analytics: transaction %s has unparseable date %q: %w", t.ID, t.Date, err)
	}
	return &TransactionRow{
		TransactionID: t.ID,
		BatchID:       batchID,
		Owner:         t.Owner,
		Type:          string(t.Type),
		Date:          date,
		Category:      t.Category,
		SubCategory:   t.SubCategory,
		Notes:         t.Notes,
		Amount:        new(big.Rat).SetFloat64(t.Amount),
		Project:       t.Project,
		ExportedTS:    now,
	}, nil
}

// QueryByDateRange reads exported rows back, ordered by date. Used by the
// inspect command to verify an export landed.
func (e *Exporter) QueryByDateRange(ctx context.Context, start, end time.Time) ([]*TransactionRow, error) {
	q := e.client.Query(fmt.Sprintf(`
		SELECT
			transaction_id, batch_id, owner, type, date,
			category, sub_category, notes, amount, project, exported_ts
		FROM %s.%s
		WHERE date >= @start_date AND date <= @end_date
		ORDER BY date, transaction_id
	`, e.dataset, transactionsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "start_date", Value: start.Format("2006-01-02")},
		{Name: "end_date", Value: end.Format("2006-01-02")},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("analytics: query read: %w", err)
	}

	var rows []*TransactionRow
	for {
		var r TransactionRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("analytics: iter next: %w", err)
		}
		rows = append(rows, &r)
	}
	return rows, nil
}
