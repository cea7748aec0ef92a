package validate

import (
	"fmt"
	"strings"
	"time"

	"github.com/KAFKA2306/expense2/internal/domain"
)

// ValidationResult contains all validation errors and warnings for a batch
// of parsed transactions
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationWarning
}

// ValidationError represents a validation error
type ValidationError struct {
	Index   int // position of the transaction in the batch
	Field   string
	Value   string
	Message string
}

// ValidationWarning represents a non-critical validation issue
type ValidationWarning struct {
	Index   int
	Field   string
	Value   string
	Message string
}

// HasErrors reports whether the batch failed validation.
func (r *ValidationResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// ValidateTransactions checks a parsed batch before import. Errors mark
// records that must not be imported; warnings mark suspicious records that
// are still importable. now anchors the future-date check.
func ValidateTransactions(txs []domain.Transaction, now time.Time) *ValidationResult {
	result := &ValidationResult{
		Errors:   []ValidationError{},
		Warnings: []ValidationWarning{},
	}

	// First occurrence of each natural key, for in-batch collision warnings
	seen := make(map[string]int)

	for i, txn := range txs {
		if txn.Date.IsZero() {
			result.Errors = append(result.Errors, ValidationError{
				Index:   i,
				Field:   "Date",
				Value:   "",
				Message: "transaction date cannot be zero",
			})
		}

		if strings.TrimSpace(txn.Description) == "" {
			result.Errors = append(result.Errors, ValidationError{
				Index:   i,
				Field:   "Description",
				Value:   txn.Description,
				Message: "transaction description cannot be empty",
			})
		}

		// Zero amounts survive parsing (fee reversals, point adjustments)
		// but usually indicate a mangled amount line
		if txn.Amount.IsZero() {
			result.Warnings = append(result.Warnings, ValidationWarning{
				Index:   i,
				Field:   "Amount",
				Value:   txn.Amount.String(),
				Message: "transaction amount is zero",
			})
		}

		if !txn.Date.IsZero() && txn.Date.After(now.Add(24*time.Hour)) {
			result.Warnings = append(result.Warnings, ValidationWarning{
				Index:   i,
				Field:   "Date",
				Value:   txn.Date.Format(domain.DateLayout),
				Message: fmt.Sprintf("transaction date %s is in the future", txn.Date.Format(domain.DateLayout)),
			})
		}

		key := txn.NaturalKey()
		if first, ok := seen[key]; ok {
			result.Warnings = append(result.Warnings, ValidationWarning{
				Index:   i,
				Field:   "NaturalKey",
				Value:   key,
				Message: fmt.Sprintf("duplicate of transaction %d in this batch; the importer will skip it", first),
			})
		} else {
			seen[key] = i
		}
	}

	return result
}
