// Package utils holds reporting-calendar helpers.
package utils

import (
	"fmt"
	"time"

	"github.com/ruitoque/fronteras/internal/models"
)

// DefaultZone is the operator time zone.
const DefaultZone = "America/Bogota"

// LoadZone loads a time zone by name, defaulting to DefaultZone.
func LoadZone(name string) (*time.Location, error) {
	if name == "" {
		name = DefaultZone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load time zone %q: %w", name, err)
	}
	return loc, nil
}

// CurrentPeriod returns the reporting month that contains now in loc.
func CurrentPeriod(now time.Time, loc *time.Location) models.Period {
	local := now.In(loc)
	return models.Period{Year: local.Year(), Month: int(local.Month())}
}

// ReportingCycle returns the previous and the current month, in that order.
func ReportingCycle(now time.Time, loc *time.Location) []models.Period {
	current := CurrentPeriod(now, loc)
	return []models.Period{current.Previous(), current}
}
