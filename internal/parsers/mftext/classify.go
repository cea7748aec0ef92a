// Package mftext parses the MoneyForward raw-text export format: irregular
// multi-line blocks with language-specific markers and no fixed schema.
package mftext

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/KAFKA2306/expense2/internal/domain"
	"github.com/KAFKA2306/expense2/internal/transform"
)

// LineClass identifies one raw export line. Every line gets exactly one
// class; anything unrecognized degrades to LinePlain.
type LineClass int

const (
	// LinePlain is any line matching no other class.
	LinePlain LineClass = iota
	// LineRangeHeader is the period header "YYYY/M/D - YYYY/M/D". Its first
	// year governs the month/day date markers that follow it.
	LineRangeHeader
	// LineDateMarker opens a transaction block: "M/D(<weekday>)".
	LineDateMarker
	// LineDetail is a tab-separated field line or the transfer marker.
	LineDetail
	// LineAmount is a signed integer with optional thousands separators and
	// an optional trailing currency glyph.
	LineAmount
)

func (c LineClass) String() string {
	switch c {
	case LineRangeHeader:
		return "range-header"
	case LineDateMarker:
		return "date-marker"
	case LineDetail:
		return "detail"
	case LineAmount:
		return "amount"
	default:
		return "plain"
	}
}

// The export renders boundary lines with trailing decorations on some
// screens, so both patterns anchor at the start only.
var (
	rangeHeaderPattern = regexp.MustCompile(`^(\d{4})/\d{1,2}/\d{1,2}\s*-\s*\d{4}/\d{1,2}/\d{1,2}`)
	dateMarkerPattern  = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})\([月火水木金土日]\)`)
	amountPattern      = regexp.MustCompile(`^-?[\d,]+$`)
)

// Classify assigns exactly one class to a trimmed raw line. Precedence
// follows the scan order: headers and markers win over detail and amount
// shapes so boundary lines are never swallowed by weaker classes.
func Classify(line string) LineClass {
	switch {
	case rangeHeaderPattern.MatchString(line):
		return LineRangeHeader
	case dateMarkerPattern.MatchString(line):
		return LineDateMarker
	case strings.Contains(line, "\t") || line == domain.TransferMarker:
		return LineDetail
	case amountShaped(line):
		return LineAmount
	default:
		return LinePlain
	}
}

// amountShaped reports whether the line consists only of an optional minus
// sign, digits, and comma separators, optionally suffixed with 円. Width
// variants are folded first so full-width amounts classify the same way.
func amountShaped(line string) bool {
	cleaned := strings.TrimSuffix(transform.FoldWidth(line), "円")
	return amountPattern.MatchString(cleaned) && strings.ContainsAny(cleaned, "0123456789")
}

// parseMarker extracts the month and day from a date-marker line.
func parseMarker(line string) (month, day int, ok bool) {
	m := dateMarkerPattern.FindStringSubmatch(line)
	if m == nil {
		return 0, 0, false
	}
	month, _ = strconv.Atoi(m[1])
	day, _ = strconv.Atoi(m[2])
	return month, day, true
}
