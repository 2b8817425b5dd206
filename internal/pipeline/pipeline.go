// Package pipeline runs the four operator steps over the reporting cycle and
// reports each outcome as a StepResult.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ruitoque/fronteras/internal/inventory"
	"github.com/ruitoque/fronteras/internal/ledger"
	"github.com/ruitoque/fronteras/internal/models"
	"github.com/ruitoque/fronteras/internal/processor"
	"github.com/ruitoque/fronteras/internal/progress"
	"github.com/ruitoque/fronteras/internal/staging"
	"github.com/ruitoque/fronteras/internal/tabular"
	"github.com/ruitoque/fronteras/utils"
)

// Recorder persists finished steps.
type Recorder interface {
	Record(ctx context.Context, run *models.Run) error
}

// Publisher announces finished steps.
type Publisher interface {
	Publish(ctx context.Context, run *models.Run) error
}

type Options struct {
	Source  inventory.Source
	Store   inventory.Store
	Layout  inventory.Layout
	Staging staging.Area
	Builder *processor.Builder

	// Bootstrap creates a header-only ledger when the year has none.
	Bootstrap bool

	Reporter  progress.Reporter
	Recorder  Recorder
	Publisher Publisher
	Logger    *logrus.Logger
}

type Pipeline struct {
	source       inventory.Source
	store        inventory.Store
	layout       inventory.Layout
	transfer     *staging.Transfer
	consolidator *processor.Consolidator
	updater      *ledger.Updater
	ledgers      ledger.StoreLedger
	bootstrap    bool

	reporter  progress.Reporter
	recorder  Recorder
	publisher Publisher
	logger    *logrus.Entry
	now       func() time.Time
}

func New(opts Options) *Pipeline {
	if opts.Reporter == nil {
		opts.Reporter = progress.Nop{}
	}
	if opts.Builder == nil {
		opts.Builder = processor.NewBuilder(processor.DefaultTables(), nil)
	}
	return &Pipeline{
		source:       opts.Source,
		store:        opts.Store,
		layout:       opts.Layout,
		transfer:     staging.NewTransfer(opts.Store, opts.Layout, opts.Staging, opts.Reporter, opts.Logger),
		consolidator: processor.NewConsolidator(opts.Builder, opts.Reporter, opts.Logger),
		updater:      ledger.NewUpdater(opts.Logger),
		ledgers:      ledger.StoreLedger{Store: opts.Store, Layout: opts.Layout},
		bootstrap:    opts.Bootstrap,
		reporter:     opts.Reporter,
		recorder:     opts.Recorder,
		publisher:    opts.Publisher,
		logger:       opts.Logger.WithField("component", "pipeline"),
		now:          time.Now,
	}
}

// Cycle returns the previous and current month in loc.
func (p *Pipeline) Cycle(loc *time.Location) []Target {
	periods := utils.ReportingCycle(p.now(), loc)
	return []Target{
		{Period: periods[0]},
		{Period: periods[1], Current: true},
	}
}

// Run executes step for every target. StepAll runs the steps in Sequence and
// stops after the first step that failed for any target.
func (p *Pipeline) Run(ctx context.Context, step Step, targets []Target) []StepResult {
	if step != StepAll {
		return p.runStep(ctx, step, targets)
	}
	var all []StepResult
	for _, s := range Sequence {
		results := p.runStep(ctx, s, targets)
		all = append(all, results...)
		for _, r := range results {
			if r.Failed() {
				p.logger.WithField("step", s).Warn("stopping run after failed step")
				return all
			}
		}
	}
	return all
}

func (p *Pipeline) runStep(ctx context.Context, step Step, targets []Target) []StepResult {
	results := make([]StepResult, 0, len(targets))
	for i, target := range targets {
		started := p.now()
		var res StepResult
		if err := ctx.Err(); err != nil {
			res = failure(err)
		} else {
			res = p.one(ctx, step, target)
		}
		res.RunID = uuid.NewString()
		res.Step = step
		res.Period = target.Period.String()
		res.StartedAt, res.FinishedAt = started, p.now()

		p.finish(ctx, res)
		progress.Step(p.reporter, string(step), res.Period, i+1, len(targets), string(res.Status))
		results = append(results, res)
	}
	return results
}

func (p *Pipeline) one(ctx context.Context, step Step, target Target) StepResult {
	switch step {
	case StepDownload:
		return p.Download(ctx, target)
	case StepUpload:
		return p.Upload(ctx, target.Period)
	case StepProcess:
		return p.Process(ctx, target.Period)
	case StepAnnual:
		return p.Annual(ctx, target.Period)
	}
	return failure(fmt.Errorf("unknown step %q", step))
}

func (p *Pipeline) finish(ctx context.Context, res StepResult) {
	log := p.logger.WithFields(logrus.Fields{"step": res.Step, "period": res.Period, "status": res.Status})
	if res.Failed() {
		log.Error(res.Message)
	} else {
		log.Info(res.Message)
	}

	run := res.Run()
	if p.recorder != nil {
		if err := p.recorder.Record(ctx, run); err != nil {
			log.Warnf("Recording run failed: %v", err)
		}
	}
	if p.publisher != nil {
		if err := p.publisher.Publish(ctx, run); err != nil {
			log.Warnf("Publishing run failed: %v", err)
		}
	}
}

// Download fetches the best available vendor files of the period into the
// staging area. The current month skips the destination check.
func (p *Pipeline) Download(ctx context.Context, target Target) StepResult {
	res, err := p.transfer.Download(ctx, p.source, target.Period, !target.Current)
	if err != nil {
		return failure(err, res.Retrieved...)
	}
	switch {
	case res.Skipped:
		return empty("final files already in the document store")
	case len(res.Planned) == 0:
		return empty("no files published yet")
	}
	msg := fmt.Sprintf("retrieved %d of %d files", len(res.Retrieved), len(res.Planned))
	if len(res.Failed) > 0 {
		msg += fmt.Sprintf(", failed: %v", res.Failed)
	}
	return success(msg, res.Retrieved)
}

// Upload moves staged files into the month folder and removes superseded
// tiers.
func (p *Pipeline) Upload(ctx context.Context, period models.Period) StepResult {
	res, err := p.transfer.Upload(ctx, period)
	if err != nil {
		return failure(err, res.Uploaded...)
	}
	switch {
	case res.Skipped:
		return empty("final files already in the document store")
	case len(res.Uploaded) == 0:
		return empty("no staged files, not yet published")
	}
	msg := fmt.Sprintf("uploaded %d files, removed %d superseded", len(res.Uploaded), len(res.Removed))
	if len(res.Failed) > 0 {
		msg += fmt.Sprintf(", failed: %v", res.Failed)
	}
	return success(msg, res.Uploaded)
}

// Process consolidates the month folder and uploads the report artifacts
// next to the vendor files.
func (p *Pipeline) Process(ctx context.Context, period models.Period) StepResult {
	folder := p.layout.MonthFolder(period)
	month, err := p.consolidator.Consolidate(ctx, p.store, folder, period)
	if err != nil {
		return failure(err)
	}
	if month.Pairs == 0 {
		return empty("no feed files in " + folder)
	}

	artifacts, err := processor.Artifacts(month)
	if err != nil {
		return failure(err)
	}
	if len(artifacts) == 0 {
		return failure(fmt.Errorf("none of %d days could be processed: %v", month.Pairs, month.Failures))
	}

	files := make([]string, 0, len(artifacts))
	for _, a := range artifacts {
		if err := p.store.Upload(ctx, folder, a.Name, a.Data); err != nil {
			return failure(fmt.Errorf("upload %s: %w", a.Name, err), files...)
		}
		files = append(files, a.Name)
	}

	msg := fmt.Sprintf("processed %d of %d days", len(month.Processed), month.Pairs)
	if len(month.Failures) > 0 {
		msg += fmt.Sprintf(", skipped: %v", month.Failures)
	}
	return success(msg, files)
}

// Annual folds the monthly report into the ledger of its year.
func (p *Pipeline) Annual(ctx context.Context, period models.Period) StepResult {
	folder := p.layout.MonthFolder(period)
	name := processor.MonthlyName(period)
	data, err := p.store.Download(ctx, folder, name)
	if errors.Is(err, inventory.ErrNotFound) {
		return empty(name + " not generated yet")
	}
	if err != nil {
		return failure(err)
	}
	monthly, err := tabular.ReadReport(data)
	if err != nil {
		return failure(fmt.Errorf("read %s: %w", name, err))
	}

	res, err := p.updater.Update(ctx, p.ledgers, p.ledgers, period, monthly)
	if errors.Is(err, ledger.ErrLedgerNotFound) && p.bootstrap {
		p.logger.WithField("year", period.Year).Warn("annual ledger missing, bootstrapping")
		if err := ledger.Bootstrap(ctx, p.ledgers, period.Year, monthly.Columns); err != nil {
			return failure(err)
		}
		res, err = p.updater.Update(ctx, p.ledgers, p.ledgers, period, monthly)
	}
	if err != nil {
		return failure(err)
	}
	msg := fmt.Sprintf("ledger %d: removed %d, added %d, %d rows", res.Year, res.Removed, res.Added, res.Rows)
	return success(msg, []string{inventory.LedgerName(period.Year)})
}
