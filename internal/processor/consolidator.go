package processor

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ruitoque/fronteras/internal/inventory"
	"github.com/ruitoque/fronteras/internal/models"
	"github.com/ruitoque/fronteras/internal/progress"
	"github.com/ruitoque/fronteras/internal/resolver"
	"github.com/ruitoque/fronteras/internal/tabular"
)

// Month is the consolidated result of one period.
type Month struct {
	Period   models.Period
	Raw      *tabular.Table
	Enriched *tabular.Table

	// Pairs is the number of feed-A day files considered.
	Pairs int

	// Processed lists the MMDD keys that produced an enriched table.
	Processed []string

	// Failures holds the diagnostics of skipped days.
	Failures []*DayError
}

// Consolidator runs the Builder over every day of a month folder.
type Consolidator struct {
	builder  *Builder
	reporter progress.Reporter
	logger   *logrus.Entry
}

func NewConsolidator(builder *Builder, reporter progress.Reporter, logger *logrus.Logger) *Consolidator {
	if reporter == nil {
		reporter = progress.Nop{}
	}
	return &Consolidator{
		builder:  builder,
		reporter: reporter,
		logger:   logger.WithField("component", "consolidator"),
	}
}

// Consolidate reads the folder of a period and builds the month tables.
// Feed files are reduced to their best tier per day before the count check.
// A day that fails to parse or merge is skipped and reported in Failures;
// store errors abort the month.
func (c *Consolidator) Consolidate(ctx context.Context, store inventory.Store, folder string, period models.Period) (*Month, error) {
	log := c.logger.WithFields(logrus.Fields{"year": period.Year, "month": period.MM()})

	items, err := store.List(ctx, folder)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", folder, err)
	}
	names := inventory.Names(items)
	feedA := c.inPeriod(log, resolver.BestPerDay(resolver.Candidates(names, models.FeedAENC)), period)
	feedB := c.inPeriod(log, resolver.BestPerDay(resolver.Candidates(names, models.FeedTFROC)), period)

	if len(feedA) != len(feedB) {
		return nil, fmt.Errorf("%w: %d %s files, %d %s files", ErrParity,
			len(feedA), models.FeedAENC, len(feedB), models.FeedTFROC)
	}
	log.WithField("pairs", len(feedA)).Info("consolidating month")

	byDay := make(map[string]models.Candidate, len(feedB))
	for _, cand := range feedB {
		byDay[cand.DayKey()] = cand
	}

	month := &Month{Period: period, Pairs: len(feedA)}
	raws := make([]*tabular.Table, 0, len(feedA))
	enriched := make([]*tabular.Table, 0, len(feedA))
	for i, a := range feedA {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		key := a.DayKey()
		day, err := c.day(ctx, store, folder, period, a, byDay)
		if day.Raw != nil {
			raws = append(raws, day.Raw)
		}
		var dayErr *DayError
		switch {
		case errors.As(err, &dayErr):
			log.WithField("day", key).Warn(dayErr.Err)
			month.Failures = append(month.Failures, dayErr)
		case err != nil:
			return nil, err
		default:
			enriched = append(enriched, day.Enriched)
			month.Processed = append(month.Processed, key)
		}
		progress.Step(c.reporter, "process", period.String(), i+1, len(feedA), key)
	}

	month.Raw = tabular.Concat(raws...)
	month.Enriched = tabular.Concat(enriched...)
	if err := SortByDateAndFrontier(month.Raw, tabular.MonthlyDates); err != nil {
		return nil, err
	}
	if err := SortByDateAndFrontier(month.Enriched, tabular.MonthlyDates); err != nil {
		return nil, err
	}
	return month, nil
}

// day builds a single day. Recoverable failures come back as *DayError.
func (c *Consolidator) day(ctx context.Context, store inventory.Store, folder string, period models.Period, a models.Candidate, byDay map[string]models.Candidate) (Day, error) {
	key := a.DayKey()
	b, ok := byDay[key]
	if !ok {
		return Day{}, &DayError{Day: key, Err: fmt.Errorf("%w: no %s file for %s", ErrMissingPair, models.FeedTFROC, a.Name)}
	}
	date, err := period.Date(a.Day)
	if err != nil {
		return Day{}, &DayError{Day: key, Err: fmt.Errorf("%w: %v", ErrParse, err)}
	}

	dataA, err := store.Download(ctx, folder, a.Name)
	if err != nil {
		return Day{}, fmt.Errorf("download %s: %w", a.Name, err)
	}
	dataB, err := store.Download(ctx, folder, b.Name)
	if err != nil {
		return Day{}, fmt.Errorf("download %s: %w", b.Name, err)
	}

	day, err := c.builder.Build(dataA, dataB, date)
	if err != nil {
		return day, &DayError{Day: key, Err: err}
	}
	return day, nil
}

func (c *Consolidator) inPeriod(log *logrus.Entry, cands []models.Candidate, period models.Period) []models.Candidate {
	out := make([]models.Candidate, 0, len(cands))
	for _, cand := range cands {
		if cand.Month != period.Month {
			log.WithField("file", cand.Name).Warn("file belongs to another month, ignored")
			continue
		}
		out = append(out, cand)
	}
	return out
}

// SortByDateAndFrontier orders rows by FECHA, read with codec, then by
// frontier code. Tables without those columns are left untouched.
func SortByDateAndFrontier(t *tabular.Table, codec tabular.DateCodec) error {
	date, code := t.Index(ColDate), t.Index(ColFrontier)
	if date < 0 || code < 0 {
		return nil
	}
	keys := make(map[string]string, len(t.Rows))
	for _, row := range t.Rows {
		if _, ok := keys[row[date]]; ok {
			continue
		}
		d, err := codec.Parse(row[date])
		if err != nil {
			return fmt.Errorf("%w: %v", ErrParse, err)
		}
		keys[row[date]] = tabular.LedgerDates.Format(d)
	}
	t.SortBy(func(a, b []string) bool {
		ka, kb := keys[a[date]], keys[b[date]]
		if ka != kb {
			return ka < kb
		}
		return a[code] < b[code]
	})
	return nil
}
