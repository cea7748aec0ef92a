// Package transform normalizes parsed block fields into domain transactions.
package transform

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/width"

	"github.com/KAFKA2306/expense2/internal/domain"
)

// bareNumberPattern matches a cleaned amount: optional sign, digits only.
// The raw export never carries decimal points; yen amounts are integral.
var bareNumberPattern = regexp.MustCompile(`^-?\d+$`)

// FoldWidth converts full-width characters to their narrow equivalents
// (１２３ → 123, ， → ,). The aggregator export mixes widths depending on
// which screen the text was copied from.
func FoldWidth(s string) string {
	return width.Fold.String(s)
}

// CleanAmount strips everything that decorates an amount for display: width
// variants, the trailing currency glyph, and thousands separators.
func CleanAmount(s string) string {
	cleaned := FoldWidth(strings.TrimSpace(s))
	cleaned = strings.TrimSuffix(cleaned, "円")
	return strings.ReplaceAll(cleaned, ",", "")
}

// ParseAmount parses an amount line into a signed decimal. Sign is
// preserved; negative means expense. Returns an error for anything that is
// not a bare integer after cleaning, including the empty string.
func ParseAmount(s string) (decimal.Decimal, error) {
	cleaned := CleanAmount(s)
	if !bareNumberPattern.MatchString(cleaned) {
		return decimal.Decimal{}, fmt.Errorf("amount %q is not numeric", s)
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return d, nil
}

// ComposeCategory joins category and subcategory into the stored form
// "<category> / <subcategory>". A missing or uncategorized subcategory
// leaves the category untouched.
func ComposeCategory(category, subcategory string) string {
	if subcategory != "" && subcategory != domain.CategoryUncategorized {
		return category + " / " + subcategory
	}
	return category
}

// Normalize assembles the final transaction from resolved block fields.
// Category and source arrive with sentinel defaults already applied by the
// field heuristics; the composite category is built here so the stored shape
// is decided in exactly one place.
func Normalize(date time.Time, description string, amount decimal.Decimal, category, subcategory, source string, isTransfer bool) (*domain.Transaction, error) {
	tx, err := domain.NewTransaction(date, description, amount)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize block: %w", err)
	}
	if category != "" {
		tx.Category = ComposeCategory(category, subcategory)
	}
	if source != "" {
		tx.Source = source
	}
	tx.IsTransfer = isTransfer
	return tx, nil
}
