// Package parser defines the strategy interface implemented by all input
// format parsers.
package parser

import (
	"context"
	"io"

	"github.com/KAFKA2306/expense2/internal/domain"
)

// Parser is the strategy interface for all input format parsers
type Parser interface {
	// Name returns the parser identifier (e.g., "mf-text", "csv-canonical")
	Name() string

	// CanParse checks if this parser can handle the file.
	// header holds the first bytes of the file for content sniffing.
	CanParse(path string, header []byte) bool

	// Parse extracts normalized transactions from the input, preserving
	// block-encounter order. Implementations drop malformed blocks and
	// continue; only unreadable input is an error.
	Parse(ctx context.Context, r io.Reader, meta *Metadata) ([]domain.Transaction, error)
}
