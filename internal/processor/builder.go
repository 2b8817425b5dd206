// Package processor turns a month of vendor feed files into the enriched
// consumption reports.
package processor

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/ruitoque/fronteras/internal/calendar"
	"github.com/ruitoque/fronteras/internal/tabular"
)

// Column headers of the vendor feeds and the reports.
const (
	ColDate     = "FECHA"
	ColWeekday  = "DIA"
	ColDayType  = "TIPO_DIA"
	ColFrontier = "CODIGO FRONTERA"
	ColName     = "NOMBRE FRONTERA"
	ColMarket   = "MERCADO COMERCIALIZACIÓN QUE EXPORTA"
	ColOperator = "OR"
	ColVoltage  = "NIVEL DE TENSION"
	ColLevel    = "NT"
	ColGrouping = "TIPO DE AGRUPACIÓN"
	ColFlow     = "IMPO - EXPO"
	ColTotal    = "TOTAL CONSUMO"
	ColLoss     = "FACTOR DE PERDIDAS"

	colSIC       = "CODIGO SIC"
	colOwnCode   = "CODIGO PROPIO"
	hourFragment = "HORA"
)

// Day is the output of one day's build. Raw is set whenever feed A was
// readable, even when enrichment failed.
type Day struct {
	Raw      *tabular.Table
	Enriched *tabular.Table
}

// Builder merges one day's feed A and feed B files.
type Builder struct {
	tables   Tables
	holidays calendar.HolidayChecker
}

// NewBuilder wires a Builder. A nil checker uses the Colombian calendar.
func NewBuilder(tables Tables, holidays calendar.HolidayChecker) *Builder {
	if holidays == nil {
		holidays = calendar.NewColombia()
	}
	return &Builder{tables: tables, holidays: holidays}
}

// Weekday returns the weekday name of date.
func (b *Builder) Weekday(date time.Time) string {
	return b.tables.Weekdays[isoIndex(date)]
}

// DayType returns the day classification of date. Holidays win over weekdays.
func (b *Builder) DayType(date time.Time) string {
	if b.holidays.IsHoliday(date) {
		return b.tables.HolidayLabel
	}
	return b.tables.DayTypes[isoIndex(date)]
}

func isoIndex(date time.Time) int {
	return (int(date.Weekday()) + 6) % 7
}

// Build parses both feeds of a day and returns the raw and enriched tables.
func (b *Builder) Build(feedA, feedB []byte, date time.Time) (Day, error) {
	a, hours, err := b.readFeedA(feedA)
	if err != nil {
		return Day{}, err
	}
	raw, err := b.raw(a, hours, date)
	if err != nil {
		return Day{}, err
	}
	enriched, err := b.enrich(a, hours, feedB, date)
	if err != nil {
		return Day{Raw: raw}, err
	}
	return Day{Raw: raw, Enriched: enriched}, nil
}

func (b *Builder) readFeedA(data []byte) (*tabular.Table, []int, error) {
	a, err := tabular.ReadVendor(data)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: feed A: %v", ErrParse, err)
	}
	a.Rename(colSIC, ColFrontier)
	if a.Index(ColFrontier) < 0 {
		return nil, nil, fmt.Errorf("%w: feed A has no %s column", ErrSchema, ColFrontier)
	}
	hours := make([]int, 0, 25)
	for i, c := range a.Columns {
		if strings.Contains(c, hourFragment) {
			hours = append(hours, i)
		}
	}
	if len(hours) == 0 {
		return nil, nil, fmt.Errorf("%w: feed A has no hourly columns", ErrSchema)
	}
	return a, hours, nil
}

func (b *Builder) raw(a *tabular.Table, hours []int, date time.Time) (*tabular.Table, error) {
	columns := append([]string{ColDate, ColWeekday, ColDayType}, a.Columns...)
	out := tabular.New(append(columns, ColTotal)...)

	fecha := tabular.MonthlyDates.Format(date)
	weekday, dayType := b.Weekday(date), b.DayType(date)
	key := a.Index(ColFrontier)
	for _, row := range a.Rows {
		total := 0.0
		for _, h := range hours {
			v, _, err := tabular.ParseNumber(row[h])
			if err != nil {
				return nil, fmt.Errorf("%w: frontier %s %s: %v", ErrParse, row[key], a.Columns[h], err)
			}
			total += v
		}
		cells := make([]string, 0, len(out.Columns))
		cells = append(cells, fecha, weekday, dayType)
		cells = append(cells, row...)
		cells = append(cells, tabular.FormatNumber(total))
		out.Rows = append(out.Rows, cells)
	}
	return out, nil
}

// descriptive resolves a report column from feed B first, then feed A.
type descriptive struct {
	fromB int
	fromA int
}

func (d descriptive) value(rowA, rowB []string) string {
	if d.fromB >= 0 {
		return rowB[d.fromB]
	}
	return rowA[d.fromA]
}

func pick(a, bt *tabular.Table, column string, aliases ...string) (descriptive, error) {
	d := descriptive{fromB: bt.Index(column), fromA: a.Index(column)}
	for _, alias := range aliases {
		if d.fromA >= 0 {
			break
		}
		d.fromA = a.Index(alias)
	}
	if d.fromB < 0 && d.fromA < 0 {
		return d, fmt.Errorf("%w: neither feed has a %s column", ErrSchema, column)
	}
	return d, nil
}

func (b *Builder) enrich(a *tabular.Table, hours []int, feedB []byte, date time.Time) (*tabular.Table, error) {
	bt, err := tabular.ReadVendor(feedB)
	if err != nil {
		return nil, fmt.Errorf("%w: feed B: %v", ErrParse, err)
	}
	idx, err := bt.MustIndex(ColFrontier, ColLoss, ColMarket, ColVoltage)
	if err != nil {
		return nil, fmt.Errorf("%w: feed B: %v", ErrSchema, err)
	}
	bKey, bLoss, bMarket, bVoltage := idx[0], idx[1], idx[2], idx[3]

	name, err := pick(a, bt, ColName, colOwnCode)
	if err != nil {
		return nil, err
	}
	grouping, err := pick(a, bt, ColGrouping)
	if err != nil {
		return nil, err
	}
	flow, err := pick(a, bt, ColFlow)
	if err != nil {
		return nil, err
	}

	meta := make(map[string][]string, len(bt.Rows))
	for _, row := range bt.Rows {
		code := strings.TrimSpace(row[bKey])
		if _, dup := meta[code]; !dup {
			meta[code] = row
		}
	}

	columns := []string{
		ColDate, ColWeekday, ColDayType, ColFrontier, ColName, ColMarket,
		ColOperator, ColVoltage, ColLevel, ColGrouping, ColFlow,
	}
	for _, h := range hours {
		columns = append(columns, a.Columns[h])
	}
	out := tabular.New(append(columns, ColTotal)...)

	fecha := tabular.MonthlyDates.Format(date)
	weekday, dayType := b.Weekday(date), b.DayType(date)
	aKey := a.Index(ColFrontier)
	for _, rowA := range a.Rows {
		code := strings.TrimSpace(rowA[aKey])
		rowB, ok := meta[code]
		if !ok {
			continue
		}

		loss, ok, err := tabular.ParseNumber(rowB[bLoss])
		if err != nil || !ok {
			return nil, fmt.Errorf("%w: frontier %s has loss factor %q", ErrParse, code, rowB[bLoss])
		}
		if loss == 0 {
			return nil, fmt.Errorf("%w: frontier %s", ErrDivision, code)
		}

		market := strings.TrimSpace(rowB[bMarket])
		cells := make([]string, 0, len(out.Columns))
		cells = append(cells,
			fecha, weekday, dayType, rowA[aKey], name.value(rowA, rowB), rowB[bMarket],
			b.tables.Operators[market], rowB[bVoltage], b.level(rowB[bVoltage]),
			grouping.value(rowA, rowB), flow.value(rowA, rowB),
		)

		total := 0.0
		for _, h := range hours {
			v, ok, err := tabular.ParseNumber(rowA[h])
			if err != nil {
				return nil, fmt.Errorf("%w: frontier %s %s: %v", ErrParse, code, a.Columns[h], err)
			}
			if !ok {
				cells = append(cells, "")
				continue
			}
			corrected := v / loss
			total += corrected
			cells = append(cells, tabular.FormatNumber(corrected))
		}
		cells = append(cells, tabular.FormatNumber(total))
		out.Rows = append(out.Rows, cells)
	}
	return out, nil
}

// NormalizeLevel rewrites an NT cell stored in float form ("2.0") as the
// integer the builder writes. Other values are returned unchanged.
func NormalizeLevel(s string) string {
	v, ok, err := tabular.ParseNumber(s)
	if err != nil || !ok || v != math.Trunc(v) {
		return s
	}
	return strconv.Itoa(int(v))
}

// level renders the voltage bucket, empty when undefined.
func (b *Builder) level(raw string) string {
	v, ok, err := tabular.ParseNumber(raw)
	if err != nil || !ok {
		return ""
	}
	level, ok := b.tables.VoltageBucket(v)
	if !ok {
		return ""
	}
	return strconv.Itoa(level)
}
