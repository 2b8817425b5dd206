package models

import (
	"fmt"
	"time"
)

// Period is one reporting month.
type Period struct {
	Year  int
	Month int
}

// NewPeriod validates and builds a Period.
func NewPeriod(year, month int) (Period, error) {
	if month < 1 || month > 12 {
		return Period{}, fmt.Errorf("invalid month %d", month)
	}
	if year < 2000 || year > 9999 {
		return Period{}, fmt.Errorf("invalid year %d", year)
	}
	return Period{Year: year, Month: month}, nil
}

// MM returns the zero-padded month.
func (p Period) MM() string { return fmt.Sprintf("%02d", p.Month) }

// Previous returns the month before p.
func (p Period) Previous() Period {
	if p.Month == 1 {
		return Period{Year: p.Year - 1, Month: 12}
	}
	return Period{Year: p.Year, Month: p.Month - 1}
}

// Contains reports whether t falls inside the period.
func (p Period) Contains(t time.Time) bool {
	return t.Year() == p.Year && int(t.Month()) == p.Month
}

// Date builds the calendar date for a day of the period.
func (p Period) Date(day int) (time.Time, error) {
	d := time.Date(p.Year, time.Month(p.Month), day, 0, 0, 0, 0, time.UTC)
	if d.Month() != time.Month(p.Month) || d.Day() != day {
		return time.Time{}, fmt.Errorf("day %d does not exist in %s", day, p)
	}
	return d, nil
}

func (p Period) String() string {
	return fmt.Sprintf("%d-%02d", p.Year, p.Month)
}
