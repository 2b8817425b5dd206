package tabular

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// DateCodec binds one on-disk date layout. Monthly reports and the annual
// ledger use different layouts and must keep them for compatibility with
// files already in the document store.
type DateCodec struct {
	Layout string
}

var (
	// MonthlyDates is the day-month-year layout of monthly reports.
	MonthlyDates = DateCodec{Layout: "02-01-2006"}

	// LedgerDates is the year-month-day layout of the annual ledger.
	LedgerDates = DateCodec{Layout: "2006-01-02"}
)

func (c DateCodec) Format(t time.Time) string { return t.Format(c.Layout) }

func (c DateCodec) Parse(s string) (time.Time, error) {
	t, err := time.Parse(c.Layout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q does not match %s: %w", s, c.Layout, err)
	}
	return t, nil
}

// Convert rewrites a date from one codec's layout to another's.
func Convert(s string, from, to DateCodec) (string, error) {
	t, err := from.Parse(s)
	if err != nil {
		return "", err
	}
	return to.Format(t), nil
}

// ParseNumber reads a finite numeric cell. Empty cells report ok=false
// without error.
func ParseNumber(s string) (v float64, ok bool, err error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false, nil
	}
	v, err = strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false, fmt.Errorf("%q is not a number", s)
	}
	return v, true, nil
}

// FormatNumber writes a float the way the report files always carried them:
// shortest form, with ".0" kept on integral values.
func FormatNumber(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
