package mftext

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/KAFKA2306/expense2/internal/domain"
	"github.com/KAFKA2306/expense2/internal/transform"
)

// scanState enumerates the cursor states of the block parser.
type scanState int

const (
	// stateScanning advances until a date marker or range header appears.
	stateScanning scanState = iota
	// stateBlockOpen expects the description line after a date marker.
	stateBlockOpen
	// stateAmountExpected expects the amount line after the description.
	stateAmountExpected
	// stateDetailCollect consumes detail lines up to the next boundary.
	stateDetailCollect
)

// block accumulates one in-flight transaction block. start is the index of
// the opening date marker; abandoning the block resumes scanning at start+1,
// so no line beyond the marker is ever lost to a malformed block.
type block struct {
	start       int
	date        time.Time
	description string
	amount      decimal.Decimal
	details     []string
}

// blockScan walks an immutable line buffer with an explicit integer cursor.
// Each step method is a transition from (cursor, block) to the next
// (state, cursor, block); the only mutation outside the returned values is
// the YearContext, which the format feeds strictly in document order.
type blockScan struct {
	lines []string
	years *YearContext
	guess SourceGuess
	log   zerolog.Logger
}

// run drives the state machine over the whole buffer and returns the emitted
// transactions in block-encounter order.
func (s *blockScan) run() []domain.Transaction {
	var records []domain.Transaction
	state, cur := stateScanning, 0
	var blk block
	for {
		switch state {
		case stateScanning:
			if cur >= len(s.lines) {
				return records
			}
			state, cur, blk = s.stepScanning(cur)
		case stateBlockOpen:
			state, cur, blk = s.stepBlockOpen(cur, blk)
		case stateAmountExpected:
			state, cur, blk = s.stepAmountExpected(cur, blk)
		case stateDetailCollect:
			var emitted *domain.Transaction
			state, cur, blk, emitted = s.stepDetailCollect(cur, blk)
			if emitted != nil {
				records = append(records, *emitted)
			}
		}
	}
}

// stepScanning skips plain lines, feeds range headers to the year context,
// and opens a block on a date marker. A marker whose month/day cannot exist
// in the current year is skipped like any unrecognized line.
func (s *blockScan) stepScanning(cur int) (scanState, int, block) {
	line := s.lines[cur]
	switch Classify(line) {
	case LineRangeHeader:
		s.years.Observe(line)
		return stateScanning, cur + 1, block{}
	case LineDateMarker:
		month, day, ok := parseMarker(line)
		if !ok {
			return stateScanning, cur + 1, block{}
		}
		date, err := s.years.Resolve(month, day)
		if err != nil {
			s.log.Debug().Int("line", cur+1).Err(err).Msg("skipping unresolvable date marker")
			return stateScanning, cur + 1, block{}
		}
		return stateBlockOpen, cur + 1, block{start: cur, date: date}
	default:
		return stateScanning, cur + 1, block{}
	}
}

// stepBlockOpen takes the line after the marker as the description, whatever
// it looks like. A marker at end of input fails the block silently.
func (s *blockScan) stepBlockOpen(cur int, blk block) (scanState, int, block) {
	if cur >= len(s.lines) {
		return stateScanning, cur, block{}
	}
	blk.description = s.lines[cur]
	return stateAmountExpected, cur + 1, blk
}

// stepAmountExpected parses the amount line. Failure abandons the block and
// resumes scanning right after the marker, so a malformed amount never
// terminates the whole parse and never swallows a following block.
func (s *blockScan) stepAmountExpected(cur int, blk block) (scanState, int, block) {
	if cur >= len(s.lines) {
		return stateScanning, blk.start + 1, block{}
	}
	amount, err := transform.ParseAmount(s.lines[cur])
	if err != nil {
		s.log.Debug().Int("line", blk.start+1).Err(err).Msg("abandoning block with malformed amount")
		return stateScanning, blk.start + 1, block{}
	}
	blk.amount = amount
	return stateDetailCollect, cur + 1, blk
}

// stepDetailCollect consumes lines into the detail buffer until a date
// marker, range header, or end of input. The boundary line is left
// unconsumed so the next scan reprocesses it as a fresh block.
func (s *blockScan) stepDetailCollect(cur int, blk block) (scanState, int, block, *domain.Transaction) {
	if cur < len(s.lines) {
		switch Classify(s.lines[cur]) {
		case LineRangeHeader, LineDateMarker:
		default:
			blk.details = append(blk.details, s.lines[cur])
			return stateDetailCollect, cur + 1, blk, nil
		}
	}
	return stateScanning, cur, block{}, s.emit(blk)
}

// emit resolves the detail fields and normalizes the block into a
// transaction. Blocks violating the record invariants (an empty description,
// mainly) are dropped here rather than emitted.
func (s *blockScan) emit(blk block) *domain.Transaction {
	f := resolveFields(blk.details, s.guess)
	tx, err := transform.Normalize(blk.date, blk.description, blk.amount,
		f.Category, f.Subcategory, f.Source, f.IsTransfer)
	if err != nil {
		s.log.Debug().Int("line", blk.start+1).Err(err).Msg("dropping block")
		return nil
	}
	return tx
}
