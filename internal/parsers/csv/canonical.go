// Package csv provides canonical CSV transaction parsing for expense2
package csv

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/KAFKA2306/expense2/internal/domain"
	"github.com/KAFKA2306/expense2/internal/output"
	"github.com/KAFKA2306/expense2/internal/parser"
)

// Parser implements canonical CSV parsing with a stateless design.
// The struct has no fields because CSV parsing requires no configuration state.
// Each method operates solely on the input data provided, making the parser safe
// for concurrent use without locking.
type Parser struct{}

var parserInstance = &Parser{}

// NewParser returns the shared CSV parser instance.
// Safe for concurrent use due to stateless design.
func NewParser() *Parser {
	return parserInstance
}

// getFileInfo returns a formatted file path string for error messages
func getFileInfo(meta *parser.Metadata) string {
	if meta != nil && meta.FilePath() != "" {
		return fmt.Sprintf(" from %s", meta.FilePath())
	}
	return ""
}

// Name returns the parser identifier
func (p *Parser) Name() string {
	return "csv-canonical"
}

// CanParse checks if this parser can handle the file based on extension and header
func (p *Parser) CanParse(path string, header []byte) bool {
	// Check file extension (.csv, case-insensitive)
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".csv" {
		return false
	}

	// First line must be the canonical export header
	line := string(header)
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	return strings.TrimSpace(line) == output.Header
}

// Parse extracts transactions from a canonical CSV export
func (p *Parser) Parse(ctx context.Context, r io.Reader, meta *parser.Metadata) ([]domain.Transaction, error) {
	// Check if context was cancelled before parsing
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	csvReader := csv.NewReader(r)
	csvReader.TrimLeadingSpace = true
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV content%s: %w", getFileInfo(meta), err)
	}

	if len(records) < 1 {
		return nil, fmt.Errorf("CSV file is empty%s", getFileInfo(meta))
	}

	if got := strings.Join(records[0], ","); got != output.Header {
		return nil, fmt.Errorf("unexpected CSV header %q%s", got, getFileInfo(meta))
	}

	transactions := make([]domain.Transaction, 0, len(records)-1)
	for i, record := range records[1:] {
		// Skip empty rows
		if len(record) == 0 || (len(record) == 1 && strings.TrimSpace(record[0]) == "") {
			continue
		}

		tx, err := output.UnmarshalRow(record)
		if err != nil {
			return nil, fmt.Errorf("failed to parse transaction at row %d%s: %w", i+2, getFileInfo(meta), err)
		}
		transactions = append(transactions, tx)
	}

	return transactions, nil
}
