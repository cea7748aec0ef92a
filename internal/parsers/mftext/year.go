package mftext

import (
	"fmt"
	"strconv"
	"time"
)

// YearContext tracks the year that month/day date markers resolve against.
// The export states the year only in range headers, which always precede the
// markers they govern; until the first header is seen the configured default
// year applies. Lifetime is one parse run.
type YearContext struct {
	current int
}

// NewYearContext creates a year context seeded with the default year.
func NewYearContext(defaultYear int) *YearContext {
	return &YearContext{current: defaultYear}
}

// Observe updates the current year when the line is a range header,
// otherwise does nothing.
func (y *YearContext) Observe(line string) {
	if m := rangeHeaderPattern.FindStringSubmatch(line); m != nil {
		year, _ := strconv.Atoi(m[1])
		y.current = year
	}
}

// Resolve returns the concrete date for a month/day pair under the current
// year. Impossible combinations (month 13, February 30) are an error; the
// caller drops the block instead of emitting a shifted date.
func (y *YearContext) Resolve(month, day int) (time.Time, error) {
	date := time.Date(y.current, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if date.Month() != time.Month(month) || date.Day() != day {
		return time.Time{}, fmt.Errorf("no such date: month %d day %d in year %d", month, day, y.current)
	}
	return date, nil
}

// Current returns the year markers currently resolve against.
func (y *YearContext) Current() int {
	return y.current
}
