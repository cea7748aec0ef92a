package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Sentinel field values substituted when the raw export carries no usable
// value. The literals are the aggregator's own UI strings and must match the
// export byte for byte.
const (
	// CategoryUncategorized marks a transaction whose category could not be
	// recovered from the detail lines.
	CategoryUncategorized = "未分類"

	// CategoryTransfer is the default category for blocks carrying the
	// transfer marker.
	CategoryTransfer = "振替"

	// SourceUnset marks a transaction whose account/payment-method label
	// could not be recovered.
	SourceUnset = "未設定"
)

// TransferMarker is the literal detail line flagging movement between the
// user's own accounts rather than income or expense.
const TransferMarker = "(振替)"

// CurrencyJPY is the only currency this pipeline produces.
const CurrencyJPY = "JPY"

// DateLayout is the date serialization format shared by the store and the
// canonical CSV.
const DateLayout = "2006-01-02"

// Transaction is one normalized record recovered from a raw export block.
type Transaction struct {
	Date        time.Time
	Description string
	// Sign convention:
	//   Positive = income/inflow
	//   Negative = expense/outflow
	// Parsers must normalize to this convention regardless of source file
	// representation.
	Amount   decimal.Decimal
	Category string
	Source   string
	Currency string
	// IsTransfer marks movement between the user's own accounts. Set from
	// the transfer marker during parsing; sinks persist it only through the
	// category, so a record read back reports true exactly when its
	// category is the transfer sentinel.
	IsTransfer bool
}

// NewTransaction creates a validated transaction with sentinel defaults for
// category and source and the fixed pipeline currency.
func NewTransaction(date time.Time, description string, amount decimal.Decimal) (*Transaction, error) {
	if date.IsZero() {
		return nil, fmt.Errorf("transaction date cannot be zero")
	}
	if strings.TrimSpace(description) == "" {
		return nil, fmt.Errorf("description cannot be empty")
	}
	return &Transaction{
		Date:        date,
		Description: description,
		Amount:      amount,
		Category:    CategoryUncategorized,
		Source:      SourceUnset,
		Currency:    CurrencyJPY,
	}, nil
}

// NaturalKey returns the composite identity used for deduplication.
// Format: "{date}|{description}|{amount}|{source}". Two records with the
// same key are the same transaction as far as the importer is concerned.
func (t Transaction) NaturalKey() string {
	return fmt.Sprintf("%s|%s|%s|%s",
		t.Date.Format(DateLayout), t.Description, t.Amount.String(), t.Source)
}

// Validate checks the invariants every emitted transaction must hold:
// a non-zero date and a non-empty description. Amounts are validated at
// parse time; a zero amount is legal here.
func (t Transaction) Validate() error {
	if t.Date.IsZero() {
		return fmt.Errorf("transaction date cannot be zero")
	}
	if strings.TrimSpace(t.Description) == "" {
		return fmt.Errorf("description cannot be empty")
	}
	return nil
}
