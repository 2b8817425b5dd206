package staging

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ruitoque/fronteras/internal/inventory"
	"github.com/ruitoque/fronteras/internal/models"
	"github.com/ruitoque/fronteras/internal/progress"
	"github.com/ruitoque/fronteras/internal/resolver"
)

// DownloadResult summarizes one period of the download step.
type DownloadResult struct {
	// Skipped is set when the destination already holds final files.
	Skipped   bool
	Planned   []string
	Retrieved []string
	Failed    []string
}

// UploadResult summarizes one period of the upload step.
type UploadResult struct {
	Skipped  bool
	Uploaded []string
	Failed   []string
	Removed  []string
}

// Transfer moves vendor files from the source through the local staging
// area into the document store.
type Transfer struct {
	reconciler *Reconciler
	store      inventory.Store
	layout     inventory.Layout
	area       Area
	reporter   progress.Reporter
	logger     *logrus.Entry
}

// NewTransfer wires a Transfer.
func NewTransfer(store inventory.Store, layout inventory.Layout, area Area, reporter progress.Reporter, logger *logrus.Logger) *Transfer {
	if reporter == nil {
		reporter = progress.Nop{}
	}
	return &Transfer{
		reconciler: NewReconciler(store, layout, logger),
		store:      store,
		layout:     layout,
		area:       area,
		reporter:   reporter,
		logger:     logger.WithField("component", "transfer"),
	}
}

// Reconciler exposes the underlying reconciler.
func (t *Transfer) Reconciler() *Reconciler { return t.reconciler }

// Download retrieves the best available files of the period into the
// staging area. With checkDestination set the fetch is skipped when the
// destination already has final files. The source session is opened and
// closed inside the call.
func (t *Transfer) Download(ctx context.Context, source inventory.Source, period models.Period, checkDestination bool) (DownloadResult, error) {
	var res DownloadResult
	log := t.logger.WithField("period", period.String())

	if checkDestination {
		needed, err := t.reconciler.NeedsFetch(ctx, period)
		if err != nil {
			return res, err
		}
		if !needed {
			res.Skipped = true
			return res, nil
		}
	}

	if err := source.Connect(ctx); err != nil {
		return res, fmt.Errorf("connect source: %w: %w", ErrTransport, err)
	}
	defer func() {
		if err := source.Close(); err != nil {
			log.Warnf("Closing source failed: %v", err)
		}
	}()

	plan, err := t.reconciler.PlanFetch(ctx, source, period)
	if err != nil {
		return res, err
	}
	res.Planned = plan
	if len(plan) == 0 {
		log.Warn("No AENC or TFROC files published for period")
		return res, nil
	}

	log.Infof("Retrieving %d files", len(plan))
	for i, name := range plan {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		data, err := source.Retrieve(ctx, name)
		if err == nil {
			err = t.area.Write(period, name, data)
		}
		if err != nil {
			log.WithField("file", name).Errorf("Retrieve failed: %v", err)
			res.Failed = append(res.Failed, name)
		} else {
			res.Retrieved = append(res.Retrieved, name)
		}
		progress.Step(t.reporter, "download", period.String(), i+1, len(plan), name)
	}

	if len(res.Retrieved) == 0 {
		return res, fmt.Errorf("none of %d planned files could be retrieved: %w", len(plan), ErrTransport)
	}
	log.Infof("Retrieved %d/%d files", len(res.Retrieved), len(plan))
	return res, nil
}

// Upload copies the staged files of the period into its month folder and then
// removes superseded tiers. Nothing is uploaded when the destination already
// holds final files.
func (t *Transfer) Upload(ctx context.Context, period models.Period) (UploadResult, error) {
	var res UploadResult
	log := t.logger.WithField("period", period.String())

	needed, err := t.reconciler.NeedsFetch(ctx, period)
	if err != nil {
		return res, err
	}
	if !needed {
		res.Skipped = true
		return res, nil
	}

	names, err := t.area.List(period)
	if err != nil {
		return res, fmt.Errorf("list staging area: %w", err)
	}
	if len(names) == 0 {
		log.Info("No staged files for period")
		return res, nil
	}

	folder := t.layout.MonthFolder(period)
	for i, name := range names {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		data, err := t.area.Read(period, name)
		if err == nil {
			err = t.store.Upload(ctx, folder, name, data)
		}
		if err != nil {
			log.WithField("file", name).Errorf("Upload failed: %v", err)
			res.Failed = append(res.Failed, name)
		} else {
			res.Uploaded = append(res.Uploaded, name)
		}
		progress.Step(t.reporter, "upload", period.String(), i+1, len(names), name)
	}

	if len(res.Uploaded) == 0 {
		return res, fmt.Errorf("none of %d staged files could be uploaded: %w", len(names), ErrTransport)
	}

	removed, err := t.Clean(ctx, period)
	if err != nil {
		return res, err
	}
	res.Removed = removed
	return res, nil
}

// Clean deletes every file of the month folder that is superseded by a
// higher tier of the same feed and day.
func (t *Transfer) Clean(ctx context.Context, period models.Period) ([]string, error) {
	folder := t.layout.MonthFolder(period)
	items, err := t.store.List(ctx, folder)
	if err != nil {
		return nil, fmt.Errorf("list destination %s: %w: %w", folder, ErrTransport, err)
	}

	var cands []models.Candidate
	for _, feed := range models.Feeds {
		cands = append(cands, resolver.Candidates(inventory.Names(items), feed)...)
	}

	removed := make([]string, 0)
	for _, name := range resolver.Superseded(cands) {
		if err := t.store.Delete(ctx, folder, name); err != nil {
			t.logger.WithField("file", name).Warnf("Could not delete superseded file: %v", err)
			continue
		}
		t.logger.WithField("file", name).Info("Deleted superseded file")
		removed = append(removed, name)
	}
	return removed, nil
}
