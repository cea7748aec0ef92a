package mftext

import (
	"strings"

	"github.com/KAFKA2306/expense2/internal/domain"
)

// Fields holds what the detail-line heuristics recovered from one block.
// Absent values carry the domain sentinels, never empty strings.
type Fields struct {
	Category    string
	Subcategory string
	Source      string
	IsTransfer  bool
}

// SourceGuess decides whether a bare single-field detail line should be
// treated as the transaction's source label.
type SourceGuess func(line string) bool

// BareLabelAsSource is the default SourceGuess: a line that does not look
// like a date marker, a range header, or a bare number is taken as a source
// label. This is a known ambiguity inherited from the export format: a
// free-text detail line may equally be a continuation of the description,
// and nothing in the text distinguishes the two. Callers needing different
// behavior pass their own SourceGuess to NewParserWithGuess, or correct the
// result with a category rules file.
func BareLabelAsSource(line string) bool {
	switch Classify(line) {
	case LineRangeHeader, LineDateMarker, LineAmount:
		return false
	}
	return true
}

// resolveFields applies the detail-line heuristics in their fixed order:
//
//  1. a transfer-marker line sets IsTransfer and the transfer category
//  2. the first line with two or more tab-separated fields supplies
//     source / category / subcategory, overriding the transfer default
//  3. with no tabbed line anywhere, the first bare line accepted by the
//     SourceGuess becomes the source
//  4. a transfer block still missing a source takes the first line that is
//     neither the transfer marker nor the unset sentinel
//  5. whatever stays unresolved keeps the sentinels
//
// Later rules fire only when earlier ones found nothing; rule 4 deliberately
// skips rule 3's guess so an account label that looks like a bare number is
// still rescued on transfer blocks.
func resolveFields(details []string, guess SourceGuess) Fields {
	f := Fields{
		Category: domain.CategoryUncategorized,
		Source:   domain.SourceUnset,
	}

	for _, d := range details {
		if d == domain.TransferMarker {
			f.IsTransfer = true
			f.Category = domain.CategoryTransfer
			break
		}
	}

	sourceFound := false
	tabbedSeen := false
	for _, d := range details {
		parts := strings.Split(d, "\t")
		if len(parts) < 2 {
			continue
		}
		tabbedSeen = true
		if v := strings.TrimSpace(parts[0]); v != "" {
			f.Source = v
			sourceFound = true
		}
		if v := strings.TrimSpace(parts[1]); v != "" {
			f.Category = v
		}
		if len(parts) > 2 {
			if v := strings.TrimSpace(parts[2]); v != "" {
				f.Subcategory = v
			}
		}
		break
	}

	if !tabbedSeen {
		for _, d := range details {
			// The marker and unset-sentinel literals carry no source
			// information, so they never satisfy rule 3.
			if d == "" || d == domain.TransferMarker || d == domain.SourceUnset {
				continue
			}
			if guess(d) {
				f.Source = d
				sourceFound = true
				break
			}
		}
	}

	if f.IsTransfer && !sourceFound {
		for _, d := range details {
			if d == "" || d == domain.TransferMarker || d == domain.SourceUnset {
				continue
			}
			f.Source = d
			break
		}
	}

	return f
}
