package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerType is the accounting classification of a category.
type LedgerType string

const (
	LedgerTypeIncome     LedgerType = "INCOME"
	LedgerTypeExpense    LedgerType = "EXPENSE"
	LedgerTypeTransfer   LedgerType = "TRANSFER"
	LedgerTypeAdjustment LedgerType = "ADJUSTMENT"
)

// UncategorizedCategoryName is the designated fallback category. It must exist
// in the category table; its absence is a configuration error, not a silent no-op.
const UncategorizedCategoryName = "Uncategorized"

// Transaction is one imported bank transaction. Records are immutable once
// imported except for CategoryID/CategoryConfidence, which classification may
// rewrite. Amounts are signed: deposits positive, withdrawals negative. The
// sign is set at import time and classification must never flip it.
type Transaction struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	Date        time.Time       `json:"date"`
	Description string          `json:"description"`
	Merchant    string          `json:"merchant,omitempty"`
	Amount      decimal.Decimal `json:"amount"`

	CategoryID         string  `json:"category_id,omitempty"`
	CategoryConfidence float64 `json:"category_confidence,omitempty"`

	// Aggregator-provided category hints (Plaid-style), optional.
	AggregatorPrimary    string  `json:"aggregator_primary,omitempty"`
	AggregatorDetailed   string  `json:"aggregator_detailed,omitempty"`
	AggregatorConfidence float64 `json:"aggregator_confidence,omitempty"`

	Source string `json:"source,omitempty"` // e.g. PLAID, CSV_IMPORT, MANUAL
}

// IsIncome reports whether the transaction is money in. The recurring detector
// only considers outflows.
func (t Transaction) IsIncome() bool {
	return t.Amount.IsPositive()
}

// Category is one row of the category reference table.
type Category struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	LedgerType LedgerType `json:"ledger_type"`
	SortOrder  int        `json:"sort_order"`
}

// CategoryRule maps either an aggregator category code or a keyword group to a
// category. Rules are evaluated in Priority order, lowest first, first match
// wins (same contract as the statement-categorization rule table).
type CategoryRule struct {
	ID             int64      `json:"id"`
	Priority       int        `json:"priority"`
	CategoryID     string     `json:"category_id"`
	CategoryName   string     `json:"category_name"`
	LedgerType     LedgerType `json:"ledger_type"`
	AggregatorCode string     `json:"aggregator_code,omitempty"`
	Keywords       []string   `json:"keywords,omitempty"`
	Confidence     float64    `json:"confidence"`
}
