package registry

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/KAFKA2306/expense2/internal/parser"
	"github.com/KAFKA2306/expense2/internal/parsers/csv"
	"github.com/KAFKA2306/expense2/internal/parsers/mftext"
)

// ErrNoParser is returned by FindParser when no registered parser
// recognizes the file.
var ErrNoParser = errors.New("no parser found for file")

// Registry holds all registered parsers
type Registry struct {
	parsers []parser.Parser
}

// New creates a registry with all built-in parsers.
// Raw text detection runs before canonical CSV so the order of
// ListParsers is stable for callers.
func New() (*Registry, error) {
	r := &Registry{}
	builtins := []parser.Parser{
		mftext.NewParser(),
		csv.NewParser(),
	}
	for _, p := range builtins {
		if err := r.Register(p); err != nil {
			return nil, fmt.Errorf("failed to register built-in parser: %w", err)
		}
	}
	return r, nil
}

// MustNew creates a registry with all built-in parsers, panicking on error.
// Registration of built-ins only fails on programmer error (duplicate names),
// so this is safe for use in command wiring.
func MustNew() *Registry {
	r, err := New()
	if err != nil {
		panic(err)
	}
	return r
}

// Register adds a custom parser (for extensibility)
func (r *Registry) Register(p parser.Parser) error {
	if p == nil {
		return fmt.Errorf("cannot register nil parser")
	}
	for _, existing := range r.parsers {
		if existing.Name() == p.Name() {
			return fmt.Errorf("parser %q already registered", p.Name())
		}
	}
	r.parsers = append(r.parsers, p)
	return nil
}

// FindParser returns the best parser for this file.
// Reads first 512 bytes for format detection via header inspection.
// This is sufficient to spot the range header or date markers of a raw
// text export and the header row of a canonical CSV.
func (r *Registry) FindParser(path string) (parser.Parser, error) {
	// Read file header for format detection
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	header := make([]byte, 512)
	n, err := f.Read(header)
	if err != nil && err != io.EOF {
		f.Close() // Best-effort close, ignore error since we're already failing
		return nil, fmt.Errorf("failed to read header from %s: %w", path, err)
	}
	// EOF is OK - exports smaller than 512 bytes are common.
	// Parsers receive whatever was read (0 to 512 bytes) and should handle variable header sizes.
	header = header[:n]

	// Try each parser's CanParse method
	for _, p := range r.parsers {
		if p.CanParse(path, header) {
			if err := f.Close(); err != nil {
				return nil, fmt.Errorf("failed to close file %s: %w", path, err)
			}
			return p, nil
		}
	}

	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close file %s: %w", path, err)
	}
	return nil, fmt.Errorf("%w: %s", ErrNoParser, path)
}

// ListParsers returns all registered parsers
func (r *Registry) ListParsers() []string {
	names := make([]string, len(r.parsers))
	for i, p := range r.parsers {
		names[i] = p.Name()
	}
	return names
}
