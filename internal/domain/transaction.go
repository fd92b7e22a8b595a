// Package domain holds the canonical records shared by every stage of the
// import pipeline. A Transaction is the sole contract handed to the analytics
// exporter and the ledger store.
package domain

// TransactionType classifies the direction of money movement.
type TransactionType string

const (
	Income   TransactionType = "Income"
	Expense  TransactionType = "Expense"
	Transfer TransactionType = "Transfer"
)

// Transaction is one normalized ledger entry. Amount is always a positive
// magnitude; direction lives in Type. After creation only the categorization
// layer (Category, SubCategory, Type) and the transfer reconciler (Type,
// Category, SubCategory) mutate it.
type Transaction struct {
	ID          string          `json:"id"`
	Owner       string          `json:"owner"`
	Type        TransactionType `json:"type"`
	Date        string          `json:"date"` // YYYY-MM-DD
	Time        string          `json:"time,omitempty"`
	Category    string          `json:"category"`
	SubCategory string          `json:"subCategory"`
	Notes       string          `json:"notes"`
	Amount      float64         `json:"amount"`
	Project     string          `json:"project,omitempty"`

	// TypeExplicit records that an explicit type column pinned the direction,
	// which disables the categorizer's type-correction pass. Not persisted.
	TypeExplicit bool `json:"-"`
}

// FileMapping binds the semantic fields of a transaction to the actual header
// column names of one file schema. The JSON field names double as the wire
// shape the schema oracle is asked to produce, so keep them stable.
type FileMapping struct {
	DateColumn        string `json:"dateColumn"`
	DateFormat        string `json:"dateFormat,omitempty"`
	AmountColumn      string `json:"amountColumn,omitempty"`
	CategoryColumn    string `json:"categoryColumn,omitempty"`
	SubcategoryColumn string `json:"subcategoryColumn,omitempty"`
	DescriptionColumn string `json:"descriptionColumn,omitempty"`
	TypeColumn        string `json:"typeColumn,omitempty"`
	ProjectColumn     string `json:"projectColumn,omitempty"`

	IsCreditDebitSeparate bool   `json:"isCreditDebitSeparate"`
	CreditColumn          string `json:"creditColumn,omitempty"`
	DebitColumn           string `json:"debitColumn,omitempty"`

	// Dual-amount ledgers (AndroMoney style) mark transfers by populating both
	// of these account columns on the same row while the amount stays in
	// AmountColumn.
	ExpenseTransferColumn string `json:"expenseTransferColumn,omitempty"`
	IncomeTransferColumn  string `json:"incomeTransferColumn,omitempty"`
}

// Valid reports whether the mapping can drive normalization at all.
func (m *FileMapping) Valid() bool {
	return m != nil && m.DateColumn != ""
}

// StatementRow is one already-structured row returned by the external
// document-understanding service for PDF statements. RawAmount keeps the
// amount exactly as printed (signs and Cr/Dr markers intact).
type StatementRow struct {
	Date        string `json:"date"`
	Description string `json:"description"`
	RawAmount   string `json:"amount"`
	Type        string `json:"type"`
	Category    string `json:"category"`
}
