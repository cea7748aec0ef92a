// Package pipeline turns an input file into a validated transaction batch.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/KAFKA2306/expense2/internal/domain"
	"github.com/KAFKA2306/expense2/internal/logger"
	"github.com/KAFKA2306/expense2/internal/parser"
	"github.com/KAFKA2306/expense2/internal/registry"
	"github.com/KAFKA2306/expense2/internal/rules"
	"github.com/KAFKA2306/expense2/internal/validate"
)

// ParseResult contains the results of parsing a single file
type ParseResult struct {
	FileName     string
	ParserName   string
	Transactions []domain.Transaction
	Validation   *validate.ValidationResult
}

// Importable returns the transactions that passed validation. Records with
// validation errors are excluded; records with warnings are kept.
func (r *ParseResult) Importable() []domain.Transaction {
	if r.Validation == nil || len(r.Validation.Errors) == 0 {
		return r.Transactions
	}

	bad := make(map[int]bool, len(r.Validation.Errors))
	for _, e := range r.Validation.Errors {
		bad[e.Index] = true
	}

	out := make([]domain.Transaction, 0, len(r.Transactions))
	for i, txn := range r.Transactions {
		if bad[i] {
			continue
		}
		out = append(out, txn)
	}
	return out
}

// Pipeline orchestrates format detection, parsing, rule application, and
// validation for a single input file
type Pipeline struct {
	registry    *registry.Registry
	engine      *rules.Engine
	defaultYear int
}

// New creates a parsing pipeline. engine may be nil to skip rule application.
// defaultYear resolves date markers in raw exports that carry no range header.
func New(reg *registry.Registry, engine *rules.Engine, defaultYear int) *Pipeline {
	return &Pipeline{
		registry:    reg,
		engine:      engine,
		defaultYear: defaultYear,
	}
}

// ParseFile parses a single file and returns the enriched, validated batch
func (p *Pipeline) ParseFile(ctx context.Context, filePath string) (*ParseResult, error) {
	log := logger.FromContext(ctx)

	selected, err := p.registry.FindParser(filePath)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("file", filePath).Str("parser", selected.Name()).Msg("parser selected")

	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	meta, err := parser.NewMetadata(filePath, p.defaultYear, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to create metadata: %w", err)
	}

	transactions, err := selected.Parse(ctx, f, meta)
	if err != nil {
		return nil, fmt.Errorf("parsing failed: %w", err)
	}

	if p.engine != nil {
		transactions = p.engine.Apply(transactions)
	}

	// Callers report validation findings to the operator; the log carries
	// them only as part of the debug trail.
	validation := validate.ValidateTransactions(transactions, time.Now())
	for _, w := range validation.Warnings {
		log.Debug().Int("record", w.Index).Str("field", w.Field).Msg(w.Message)
	}
	for _, e := range validation.Errors {
		log.Debug().Int("record", e.Index).Str("field", e.Field).Msg(e.Message)
	}

	return &ParseResult{
		FileName:     filepath.Base(filePath),
		ParserName:   selected.Name(),
		Transactions: transactions,
		Validation:   validation,
	}, nil
}
