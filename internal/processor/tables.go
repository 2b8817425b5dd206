package processor

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// VoltageLevel maps raw voltages strictly below Below to Level.
type VoltageLevel struct {
	Below float64 `yaml:"below"`
	Level int     `yaml:"level"`
}

// Tables holds the reference data used to enrich daily records.
type Tables struct {
	// Operators maps an exporting market code to the network operator name.
	Operators map[string]string `yaml:"operators"`

	// Weekdays and DayTypes are indexed Monday first.
	Weekdays [7]string `yaml:"weekdays"`
	DayTypes [7]string `yaml:"day_types"`

	HolidayLabel string `yaml:"holiday_label"`

	// Holidays lists YYYY-MM-DD dates.
	Holidays []string `yaml:"holidays"`

	// PassThroughLevels are raw voltages kept as their own level.
	PassThroughLevels []int `yaml:"pass_through_levels"`

	// VoltageLevels must be ordered by Below.
	VoltageLevels []VoltageLevel `yaml:"voltage_levels"`
}

// DefaultTables returns the compiled-in reference data.
func DefaultTables() Tables {
	return Tables{
		Operators: map[string]string{
			"CUNM": "ENEL",
			"SOLM": "AIRE",
			"SANM": "ESSA",
			"MARM": "AFINIA",
			"NSAM": "ESSA",
			"BOYM": "EBSA",
			"CASM": "ENERCA",
			"METM": "EMSA",
			"QUIM": "EDEQ",
			"RUIM": "RUITOQUE",
			"CHOM": "DISPAC",
			"CLOM": "EMCALI",
		},
		Weekdays:          [7]string{"Lunes", "Martes", "Miércoles", "Jueves", "Viernes", "Sábado", "Domingo"},
		DayTypes:          [7]string{"Hábil", "Hábil", "Hábil", "Hábil", "Hábil", "Sábado", "Domingo"},
		HolidayLabel:      "Festivo",
		PassThroughLevels: []int{1, 2},
		VoltageLevels: []VoltageLevel{
			{Below: 1, Level: 1},
			{Below: 30, Level: 2},
			{Below: 57.5, Level: 3},
		},
	}
}

// LoadTables reads a YAML file over the defaults. Keys absent from the file
// keep their default value.
func LoadTables(filename string) (Tables, error) {
	tables := DefaultTables()
	if filename == "" {
		return tables, nil
	}
	data, err := os.ReadFile(filename)
	if err != nil {
		return tables, fmt.Errorf("read tables: %w", err)
	}
	override := Tables{}
	if err := yaml.Unmarshal(data, &override); err != nil {
		return tables, fmt.Errorf("decode tables %s: %w", filename, err)
	}

	if override.Operators != nil {
		tables.Operators = override.Operators
	}
	if override.Weekdays != ([7]string{}) {
		tables.Weekdays = override.Weekdays
	}
	if override.DayTypes != ([7]string{}) {
		tables.DayTypes = override.DayTypes
	}
	if override.HolidayLabel != "" {
		tables.HolidayLabel = override.HolidayLabel
	}
	if override.Holidays != nil {
		tables.Holidays = override.Holidays
	}
	if override.PassThroughLevels != nil {
		tables.PassThroughLevels = override.PassThroughLevels
	}
	if override.VoltageLevels != nil {
		for i := 1; i < len(override.VoltageLevels); i++ {
			if override.VoltageLevels[i].Below <= override.VoltageLevels[i-1].Below {
				return tables, fmt.Errorf("decode tables %s: voltage_levels must be ordered", filename)
			}
		}
		tables.VoltageLevels = override.VoltageLevels
	}
	return tables, nil
}

// VoltageBucket maps a raw voltage to its level. ok is false for values
// above every range.
func (t Tables) VoltageBucket(v float64) (level int, ok bool) {
	for _, p := range t.PassThroughLevels {
		if v == float64(p) {
			return p, true
		}
	}
	for _, l := range t.VoltageLevels {
		if v < l.Below {
			return l.Level, true
		}
	}
	return 0, false
}
