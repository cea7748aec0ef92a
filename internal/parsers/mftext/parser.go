package mftext

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/KAFKA2306/expense2/internal/domain"
	"github.com/KAFKA2306/expense2/internal/logger"
	"github.com/KAFKA2306/expense2/internal/parser"
)

// Parser implements the raw aggregator text export format. The struct only
// carries the rule-3 source guess, so the shared instance is safe for
// concurrent use.
type Parser struct {
	guess SourceGuess
}

var parserInstance = &Parser{guess: BareLabelAsSource}

// NewParser returns the shared text parser using BareLabelAsSource.
func NewParser() *Parser {
	return parserInstance
}

// NewParserWithGuess returns a parser with a custom rule-3 source guess.
// A nil guess falls back to BareLabelAsSource.
func NewParserWithGuess(guess SourceGuess) *Parser {
	if guess == nil {
		guess = BareLabelAsSource
	}
	return &Parser{guess: guess}
}

// Name returns the parser identifier
func (p *Parser) Name() string {
	return "mf-text"
}

// CanParse checks whether the file looks like a raw aggregator export: not a
// CSV, with at least one sniffed header line classifying as a range header
// or date marker.
func (p *Parser) CanParse(path string, header []byte) bool {
	if strings.ToLower(filepath.Ext(path)) == ".csv" {
		return false
	}
	for _, line := range strings.Split(string(header), "\n") {
		switch Classify(strings.TrimSpace(line)) {
		case LineRangeHeader, LineDateMarker:
			return true
		}
	}
	return false
}

// Parse scans the whole export and returns transactions in block-encounter
// order. Malformed blocks are dropped and scanning continues; only a failed
// read is an error.
func (p *Parser) Parse(ctx context.Context, r io.Reader, meta *parser.Metadata) ([]domain.Transaction, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if meta == nil {
		return nil, fmt.Errorf("metadata is required to resolve marker years")
	}

	var lines []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		lines = append(lines, strings.TrimSpace(sc.Text()))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read raw export %s: %w", meta.FilePath(), err)
	}

	log := logger.FromContext(ctx)
	scan := &blockScan{
		lines: lines,
		years: NewYearContext(meta.DefaultYear()),
		guess: p.guess,
		log:   log,
	}
	records := scan.run()

	log.Debug().
		Str("parser", p.Name()).
		Int("lines", len(lines)).
		Int("transactions", len(records)).
		Msg("scan complete")
	return records, nil
}
