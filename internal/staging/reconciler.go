// Package staging decides what to transfer from the vendor source into the
// document store and performs the transfer.
package staging

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ruitoque/fronteras/internal/inventory"
	"github.com/ruitoque/fronteras/internal/models"
	"github.com/ruitoque/fronteras/internal/resolver"
)

// ErrTransport marks a source or destination failure during staging.
var ErrTransport = errors.New("transport failure")

// Reconciler compares the source and destination inventories of a period.
// The destination decides whether a fetch is needed; the source decides
// which tier is available to fetch.
type Reconciler struct {
	store  inventory.Store
	layout inventory.Layout
	logger *logrus.Entry
}

// NewReconciler creates a Reconciler over the destination store.
func NewReconciler(store inventory.Store, layout inventory.Layout, logger *logrus.Logger) *Reconciler {
	return &Reconciler{
		store:  store,
		layout: layout,
		logger: logger.WithField("component", "reconciler"),
	}
}

// NeedsFetch reports false as soon as the destination holds a tier-1 file
// for either feed. A missing folder counts as empty.
func (r *Reconciler) NeedsFetch(ctx context.Context, period models.Period) (bool, error) {
	folder := r.layout.MonthFolder(period)
	items, err := r.store.List(ctx, folder)
	if err != nil {
		return false, fmt.Errorf("list destination %s: %w: %w", folder, ErrTransport, err)
	}
	names := inventory.Names(items)

	log := r.logger.WithField("period", period.String())
	for _, feed := range models.Feeds {
		if resolver.HasTier(names, feed, models.Tier1) {
			log.WithField("feed", feed).Info("Final files already in destination, no fetch needed")
			return false, nil
		}
	}
	log.WithField("files", len(names)).Info("No final files in destination, fetch needed")
	return true, nil
}

// PlanFetch lists the source for the period and returns the best tier of
// each feed, AENC first. An empty plan means nothing was published yet.
func (r *Reconciler) PlanFetch(ctx context.Context, source inventory.Source, period models.Period) ([]string, error) {
	names, err := source.List(ctx, period)
	if err != nil {
		return nil, fmt.Errorf("list source %s: %w: %w", period, ErrTransport, err)
	}

	plan := make([]string, 0)
	for _, feed := range models.Feeds {
		picked := resolver.ResolvePriority(names, feed)
		r.logger.WithFields(logrus.Fields{
			"period": period.String(),
			"feed":   feed,
			"files":  len(picked),
		}).Info("Resolved source files")
		plan = append(plan, picked...)
	}
	return plan, nil
}
