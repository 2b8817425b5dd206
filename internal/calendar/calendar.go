// Package calendar answers whether a date is a public holiday.
package calendar

import (
	"fmt"
	"time"
)

// HolidayChecker reports whether a date is a holiday.
type HolidayChecker interface {
	IsHoliday(date time.Time) bool
}

// Fixed is a HolidayChecker backed by an explicit list of dates.
type Fixed struct {
	days map[string]struct{}
}

const dayLayout = "2006-01-02"

// NewFixed builds a checker from YYYY-MM-DD strings.
func NewFixed(dates ...string) (*Fixed, error) {
	f := &Fixed{days: make(map[string]struct{}, len(dates))}
	for _, d := range dates {
		t, err := time.Parse(dayLayout, d)
		if err != nil {
			return nil, fmt.Errorf("holiday %q: %w", d, err)
		}
		f.days[t.Format(dayLayout)] = struct{}{}
	}
	return f, nil
}

func (f *Fixed) IsHoliday(date time.Time) bool {
	if f == nil {
		return false
	}
	_, ok := f.days[date.Format(dayLayout)]
	return ok
}

// Len returns the number of known holidays.
func (f *Fixed) Len() int {
	if f == nil {
		return 0
	}
	return len(f.days)
}
