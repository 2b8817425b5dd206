package inventory

import (
	"fmt"
	"path"

	"github.com/ruitoque/fronteras/internal/models"
)

// Layout maps periods to document-store folders.
type Layout struct {
	// MonthRoot holds one {YYYY}/{MM} folder per period.
	MonthRoot string

	// LedgerFolder holds the consumos_{YYYY}.csv annual ledgers.
	LedgerFolder string
}

// MonthFolder returns the folder of a period.
func (l Layout) MonthFolder(p models.Period) string {
	return path.Join(l.MonthRoot, fmt.Sprintf("%d", p.Year), p.MM())
}

// LedgerName returns the annual ledger filename for a year.
func LedgerName(year int) string {
	return fmt.Sprintf("consumos_%d.csv", year)
}
