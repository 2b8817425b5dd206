package processor

import (
	"errors"
	"fmt"
)

var (
	// ErrParse marks bytes or cells that cannot be read as the expected format.
	ErrParse = errors.New("parse error")

	// ErrSchema marks a feed missing a required column.
	ErrSchema = errors.New("schema error")

	// ErrDivision marks a loss factor of zero.
	ErrDivision = errors.New("division by zero loss factor")

	// ErrParity marks a month whose feed file counts differ.
	ErrParity = errors.New("feed file count mismatch")

	// ErrMissingPair marks a feed-A day without its feed-B file.
	ErrMissingPair = errors.New("missing feed pair")
)

// DayError is the diagnostic of one skipped day.
type DayError struct {
	Day string
	Err error
}

func (e *DayError) Error() string {
	return fmt.Sprintf("day %s: %v", e.Day, e.Err)
}

func (e *DayError) Unwrap() error { return e.Err }
