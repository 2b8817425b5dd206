package calendar

import (
	"sort"
	"sync"
	"time"

	"github.com/rickar/cal/v2"
)

// emiliani moves a holiday to the following Monday unless it already falls
// on one (Ley 51 de 1983).
var emiliani = []cal.AltDay{
	{Day: time.Tuesday, Offset: 6},
	{Day: time.Wednesday, Offset: 5},
	{Day: time.Thursday, Offset: 4},
	{Day: time.Friday, Offset: 3},
	{Day: time.Saturday, Offset: 2},
	{Day: time.Sunday, Offset: 1},
}

// colombianHolidays are the national public holidays. Easter-relative
// offsets already include the move to Monday where the law applies it.
var colombianHolidays = []*cal.Holiday{
	{Name: "Año Nuevo", Month: time.January, Day: 1, Func: cal.CalcDayOfMonth},
	{Name: "Reyes Magos", Month: time.January, Day: 6, Observed: emiliani, Func: cal.CalcDayOfMonth},
	{Name: "San José", Month: time.March, Day: 19, Observed: emiliani, Func: cal.CalcDayOfMonth},
	{Name: "Jueves Santo", Offset: -3, Func: cal.CalcEasterOffset},
	{Name: "Viernes Santo", Offset: -2, Func: cal.CalcEasterOffset},
	{Name: "Día del Trabajo", Month: time.May, Day: 1, Func: cal.CalcDayOfMonth},
	{Name: "Ascensión del Señor", Offset: 43, Func: cal.CalcEasterOffset},
	{Name: "Corpus Christi", Offset: 64, Func: cal.CalcEasterOffset},
	{Name: "Sagrado Corazón", Offset: 71, Func: cal.CalcEasterOffset},
	{Name: "San Pedro y San Pablo", Month: time.June, Day: 29, Observed: emiliani, Func: cal.CalcDayOfMonth},
	{Name: "Día de la Independencia", Month: time.July, Day: 20, Func: cal.CalcDayOfMonth},
	{Name: "Batalla de Boyacá", Month: time.August, Day: 7, Func: cal.CalcDayOfMonth},
	{Name: "Asunción de la Virgen", Month: time.August, Day: 15, Observed: emiliani, Func: cal.CalcDayOfMonth},
	{Name: "Día de la Raza", Month: time.October, Day: 12, Observed: emiliani, Func: cal.CalcDayOfMonth},
	{Name: "Todos los Santos", Month: time.November, Day: 1, Observed: emiliani, Func: cal.CalcDayOfMonth},
	{Name: "Independencia de Cartagena", Month: time.November, Day: 11, Observed: emiliani, Func: cal.CalcDayOfMonth},
	{Name: "Inmaculada Concepción", Month: time.December, Day: 8, Func: cal.CalcDayOfMonth},
	{Name: "Navidad", Month: time.December, Day: 25, Func: cal.CalcDayOfMonth},
}

// Colombia reports the Colombian national holidays on the day they are
// observed. Years are computed on first use.
type Colombia struct {
	mu    sync.Mutex
	years map[int]map[string]struct{}
}

func NewColombia() *Colombia {
	return &Colombia{years: make(map[int]map[string]struct{})}
}

func (c *Colombia) IsHoliday(date time.Time) bool {
	_, ok := c.year(date.Year())[date.Format(dayLayout)]
	return ok
}

// Holidays lists the observed holiday dates of a year as YYYY-MM-DD, sorted.
func (c *Colombia) Holidays(year int) []string {
	days := c.year(year)
	out := make([]string, 0, len(days))
	for d := range days {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

func (c *Colombia) year(year int) map[string]struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	if days, ok := c.years[year]; ok {
		return days
	}
	days := make(map[string]struct{}, len(colombianHolidays))
	for _, h := range colombianHolidays {
		_, observed := h.Calc(year)
		if observed.IsZero() {
			continue
		}
		days[observed.Format(dayLayout)] = struct{}{}
	}
	c.years[year] = days
	return days
}

// Any reports a holiday when one of its checkers does.
type Any []HolidayChecker

func (a Any) IsHoliday(date time.Time) bool {
	for _, c := range a {
		if c != nil && c.IsHoliday(date) {
			return true
		}
	}
	return false
}
