package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/ruitoque/fronteras/internal/inventory"
	"github.com/ruitoque/fronteras/internal/tabular"
)

// StoreLedger keeps annual ledgers in the ledger folder of a document store.
type StoreLedger struct {
	Store  inventory.Store
	Layout inventory.Layout
}

func (s StoreLedger) Load(ctx context.Context, year int) (*tabular.Table, error) {
	name := inventory.LedgerName(year)
	data, err := s.Store.Download(ctx, s.Layout.LedgerFolder, name)
	if errors.Is(err, inventory.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s/%s", ErrLedgerNotFound, s.Layout.LedgerFolder, name)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	t, err := tabular.ReadReport(data)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	return t, nil
}

func (s StoreLedger) Save(ctx context.Context, year int, t *tabular.Table) error {
	data, err := tabular.Write(t)
	if err != nil {
		return err
	}
	return s.Store.Upload(ctx, s.Layout.LedgerFolder, inventory.LedgerName(year), data)
}

// Bootstrap writes a header-only ledger for year.
func Bootstrap(ctx context.Context, w Writer, year int, columns []string) error {
	if len(columns) == 0 {
		return fmt.Errorf("bootstrap %d: no columns", year)
	}
	if err := w.Save(ctx, year, tabular.New(columns...)); err != nil {
		return fmt.Errorf("%w: bootstrap %d: %w", ErrPersist, year, err)
	}
	return nil
}
