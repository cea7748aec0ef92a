package parser

import (
	"fmt"
	"time"
)

// Metadata carries per-run context into a parser.
//
// Create instances using NewMetadata(filePath, defaultYear, detectedAt). The
// constructor validates all fields so metadata is always in a usable state:
// the default year in particular has no fallback anywhere downstream, so an
// unset value must fail here rather than silently stamping transactions with
// a wrong year.
type Metadata struct {
	filePath    string
	defaultYear int
	detectedAt  time.Time
}

// NewMetadata creates a new Metadata instance with validated fields.
func NewMetadata(filePath string, defaultYear int, detectedAt time.Time) (*Metadata, error) {
	if filePath == "" {
		return nil, fmt.Errorf("file path cannot be empty")
	}
	if defaultYear < 1 {
		return nil, fmt.Errorf("default year must be a positive calendar year, got %d", defaultYear)
	}
	if detectedAt.IsZero() {
		return nil, fmt.Errorf("detected time cannot be zero")
	}
	return &Metadata{
		filePath:    filePath,
		defaultYear: defaultYear,
		detectedAt:  detectedAt,
	}, nil
}

// FilePath returns the absolute input file path
func (m *Metadata) FilePath() string {
	return m.filePath
}

// DefaultYear returns the year used to resolve month/day date markers until
// a range header is seen.
func (m *Metadata) DefaultYear() int {
	return m.defaultYear
}

// DetectedAt returns the timestamp when the file was picked up
func (m *Metadata) DetectedAt() time.Time {
	return m.detectedAt
}
