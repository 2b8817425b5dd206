// Package ledger folds a month of enriched consumption into the annual
// ledger of its year.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ruitoque/fronteras/internal/models"
	"github.com/ruitoque/fronteras/internal/processor"
	"github.com/ruitoque/fronteras/internal/tabular"
)

var (
	// ErrLedgerNotFound is returned when the year has no ledger yet.
	ErrLedgerNotFound = errors.New("annual ledger not found")

	// ErrEmptyMonth is returned when the monthly table has no rows.
	ErrEmptyMonth = errors.New("monthly table is empty")

	// ErrPersist is returned when the updated ledger cannot be written.
	ErrPersist = errors.New("annual ledger not persisted")
)

// Loader reads the ledger of a year. It returns ErrLedgerNotFound when the
// ledger does not exist.
type Loader interface {
	Load(ctx context.Context, year int) (*tabular.Table, error)
}

// Writer replaces the ledger of a year.
type Writer interface {
	Save(ctx context.Context, year int, t *tabular.Table) error
}

// Result describes one applied update.
type Result struct {
	Year    int
	Removed int
	Added   int
	Rows    int
}

// Updater applies delete-then-append updates to annual ledgers.
type Updater struct {
	logger *logrus.Entry
}

func NewUpdater(logger *logrus.Logger) *Updater {
	return &Updater{logger: logger.WithField("component", "ledger")}
}

// Update replaces every ledger row of period with the rows of monthly.
// The ledger stores FECHA as year-month-day and monthly carries it as
// day-month-year; the written ledger uses the former for every row.
// Nothing is written unless the whole merge succeeds.
func (u *Updater) Update(ctx context.Context, loader Loader, writer Writer, period models.Period, monthly *tabular.Table) (Result, error) {
	res := Result{Year: period.Year}
	log := u.logger.WithFields(logrus.Fields{"year": period.Year, "month": period.MM()})

	current, err := loader.Load(ctx, period.Year)
	if err != nil {
		return res, err
	}
	if monthly.Empty() {
		return res, fmt.Errorf("%w: %s", ErrEmptyMonth, period)
	}

	retained, err := withoutPeriod(current, period)
	if err != nil {
		return res, err
	}
	res.Removed = current.Len() - retained.Len()

	incoming, err := toLedgerDates(monthly, period)
	if err != nil {
		return res, err
	}
	res.Added = incoming.Len()

	merged := tabular.Concat(retained, incoming)
	normalizeLevels(merged)
	if err := processor.SortByDateAndFrontier(merged, tabular.LedgerDates); err != nil {
		return res, err
	}
	res.Rows = merged.Len()

	if err := writer.Save(ctx, period.Year, merged); err != nil {
		return res, fmt.Errorf("%w: %w", ErrPersist, err)
	}
	log.WithFields(logrus.Fields{
		"removed": res.Removed,
		"added":   res.Added,
		"rows":    res.Rows,
	}).Info("annual ledger updated")
	return res, nil
}

// normalizeLevels writes every NT cell in integer form. Older ledgers carry
// "2.0" for days where some frontier had no level.
func normalizeLevels(t *tabular.Table) {
	nt := t.Index(processor.ColLevel)
	if nt < 0 {
		return
	}
	for _, row := range t.Rows {
		row[nt] = processor.NormalizeLevel(row[nt])
	}
}

func withoutPeriod(current *tabular.Table, period models.Period) (*tabular.Table, error) {
	out := current.Clone()
	if out.Empty() {
		return out, nil
	}
	date := out.Index(processor.ColDate)
	if date < 0 {
		return nil, fmt.Errorf("ledger has no %s column", processor.ColDate)
	}
	var parseErr error
	out.Filter(func(row []string) bool {
		d, err := tabular.LedgerDates.Parse(row[date])
		if err != nil {
			if parseErr == nil {
				parseErr = fmt.Errorf("ledger: %w", err)
			}
			return true
		}
		return !period.Contains(d)
	})
	if parseErr != nil {
		return nil, parseErr
	}
	return out, nil
}

func toLedgerDates(monthly *tabular.Table, period models.Period) (*tabular.Table, error) {
	out := monthly.Clone()
	date := out.Index(processor.ColDate)
	if date < 0 {
		return nil, fmt.Errorf("monthly table has no %s column", processor.ColDate)
	}
	for _, row := range out.Rows {
		d, err := tabular.MonthlyDates.Parse(row[date])
		if err != nil {
			return nil, fmt.Errorf("monthly table: %w", err)
		}
		if !period.Contains(d) {
			return nil, fmt.Errorf("monthly table holds %s outside %s", row[date], period)
		}
		row[date] = tabular.LedgerDates.Format(d)
	}
	return out, nil
}
