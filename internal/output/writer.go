package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/KAFKA2306/expense2/internal/domain"
)

// Header is the canonical CSV header for exported transactions.
const Header = "date,description,amount,category,source,currency"

const (
	numFields   = 6
	colDate     = 0
	colDesc     = 1
	colAmount   = 2
	colCategory = 3
	colSource   = 4
	colCurrency = 5
)

// WriteOptions configures where and how exported transactions are written.
type WriteOptions struct {
	MergeMode bool   // If true, load the existing export and merge into it
	FilePath  string // Output path (empty = stdout)
}

// MarshalRow converts a Transaction to a CSV row ([]string).
func MarshalRow(tx domain.Transaction) []string {
	row := make([]string, numFields)
	row[colDate] = tx.Date.Format(domain.DateLayout)
	row[colDesc] = tx.Description
	row[colAmount] = tx.Amount.String()
	row[colCategory] = tx.Category
	row[colSource] = tx.Source
	row[colCurrency] = tx.Currency
	return row
}

// UnmarshalRow converts a CSV row to a Transaction. The transfer flag is
// derived from the category rather than carried as its own column.
func UnmarshalRow(record []string) (domain.Transaction, error) {
	if len(record) != numFields {
		return domain.Transaction{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	date, err := time.Parse(domain.DateLayout, record[colDate])
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("parsing date %q: %w", record[colDate], err)
	}

	amount, err := decimal.NewFromString(record[colAmount])
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("parsing amount %q: %w", record[colAmount], err)
	}

	category := record[colCategory]
	if category == "" {
		category = domain.CategoryUncategorized
	}
	source := record[colSource]
	if source == "" {
		source = domain.SourceUnset
	}
	currency := record[colCurrency]
	if currency == "" {
		currency = domain.CurrencyJPY
	}

	return domain.Transaction{
		Date:        date,
		Description: record[colDesc],
		Amount:      amount,
		Category:    category,
		Source:      source,
		Currency:    currency,
		IsTransfer:  category == domain.CategoryTransfer,
	}, nil
}

// ReadTransactions reads all transactions from a canonical CSV reader.
func ReadTransactions(r io.Reader) ([]domain.Transaction, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading transaction CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	if got := strings.Join(records[0], ","); got != Header {
		return nil, fmt.Errorf("unexpected header %q", got)
	}

	var txs []domain.Transaction
	for i, rec := range records[1:] {
		tx, err := UnmarshalRow(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

// WriteTransactions writes transactions to a canonical CSV writer (including header).
func WriteTransactions(w io.Writer, txs []domain.Transaction) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, tx := range txs {
		if err := cw.Write(MarshalRow(tx)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	return cw.Error()
}

// WriteToFile writes transactions to a file or stdout based on options.
func WriteToFile(txs []domain.Transaction, opts WriteOptions) (err error) {
	if opts.FilePath == "" {
		return WriteTransactions(os.Stdout, txs)
	}

	if opts.MergeMode {
		txs, err = mergeExisting(opts.FilePath, txs)
		if err != nil {
			return err
		}
	}

	if dir := filepath.Dir(opts.FilePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory %s: %w", dir, err)
		}
	}

	f, err := os.Create(opts.FilePath)
	if err != nil {
		return fmt.Errorf("failed to create output file %s: %w", opts.FilePath, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close output file %s: %w", opts.FilePath, closeErr)
		}
	}()

	if err = WriteTransactions(f, txs); err != nil {
		return fmt.Errorf("failed to write transactions to %s: %w", opts.FilePath, err)
	}

	return nil
}

// mergeExisting loads the current export and keeps its rows, appending only
// batch transactions whose natural key is not already present. A missing
// file degrades to a fresh write.
func mergeExisting(filePath string, txs []domain.Transaction) ([]domain.Transaction, error) {
	existing, err := LoadTransactions(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return txs, nil
		}
		return nil, fmt.Errorf("failed to load existing output for merge: %w", err)
	}

	seen := make(map[string]bool, len(existing))
	for _, tx := range existing {
		seen[tx.NaturalKey()] = true
	}

	merged := existing
	for _, tx := range txs {
		if seen[tx.NaturalKey()] {
			continue
		}
		seen[tx.NaturalKey()] = true
		merged = append(merged, tx)
	}
	return merged, nil
}

// LoadTransactions reads an existing canonical CSV export.
func LoadTransactions(filePath string) ([]domain.Transaction, error) {
	if filePath == "" {
		return nil, fmt.Errorf("file path cannot be empty")
	}

	f, err := os.Open(filePath)
	if err != nil {
		// Return unwrapped error so caller can check os.IsNotExist
		// to distinguish "file not found" from other loading errors
		return nil, err
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close %s: %v\n", filePath, closeErr)
		}
	}()

	return ReadTransactions(f)
}
