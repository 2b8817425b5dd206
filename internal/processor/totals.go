package processor

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ruitoque/fronteras/internal/models"
	"github.com/ruitoque/fronteras/internal/tabular"
)

var totalKeys = []string{ColFrontier, ColName, ColGrouping, ColFlow}

// TotalByFrontier sums TOTAL CONSUMO per (frontier, name, grouping, flow).
// Groups come out sorted by their key columns.
func TotalByFrontier(enriched *tabular.Table) (*tabular.Table, error) {
	out := tabular.New(append(append([]string(nil), totalKeys...), ColTotal)...)
	if enriched.Empty() {
		return out, nil
	}
	idx, err := enriched.MustIndex(append(append([]string(nil), totalKeys...), ColTotal)...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchema, err)
	}
	keyIdx, totalIdx := idx[:len(totalKeys)], idx[len(totalKeys)]

	type group struct {
		key []string
		sum float64
	}
	groups := make(map[string]*group)
	for _, row := range enriched.Rows {
		key := make([]string, len(keyIdx))
		for i, k := range keyIdx {
			key[i] = row[k]
		}
		v, _, err := tabular.ParseNumber(row[totalIdx])
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrParse, err)
		}
		id := strings.Join(key, "\x00")
		g, ok := groups[id]
		if !ok {
			g = &group{key: key}
			groups[id] = g
		}
		g.sum += v
	}

	sorted := make([]*group, 0, len(groups))
	for _, g := range groups {
		sorted = append(sorted, g)
	}
	sort.Slice(sorted, func(i, j int) bool {
		for k := range sorted[i].key {
			if sorted[i].key[k] != sorted[j].key[k] {
				return sorted[i].key[k] < sorted[j].key[k]
			}
		}
		return false
	})
	for _, g := range sorted {
		out.Rows = append(out.Rows, append(g.key, tabular.FormatNumber(g.sum)))
	}
	return out, nil
}

// Artifact is one generated report file.
type Artifact struct {
	Name string
	Data []byte
}

// RawName is the filename of the consolidated feed-A report.
func RawName(p models.Period) string {
	return fmt.Sprintf("%s_consolidado_%s_%d.csv", models.FeedAENC, p.MM(), p.Year)
}

// MonthlyName is the filename of the enriched monthly report.
func MonthlyName(p models.Period) string {
	return fmt.Sprintf("consumos_%s_%d.csv", p.MM(), p.Year)
}

// TotalName is the filename of the per-frontier totals report.
func TotalName(p models.Period) string {
	return fmt.Sprintf("total_consumo_%s_%d.csv", p.MM(), p.Year)
}

// Artifacts renders the report files of a month. Reports whose source table
// is empty are not produced.
func Artifacts(m *Month) ([]Artifact, error) {
	out := make([]Artifact, 0, 3)
	if !m.Raw.Empty() {
		data, err := tabular.Write(m.Raw)
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", RawName(m.Period), err)
		}
		out = append(out, Artifact{Name: RawName(m.Period), Data: data})
	}
	if m.Enriched.Empty() {
		return out, nil
	}

	data, err := tabular.Write(m.Enriched)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", MonthlyName(m.Period), err)
	}
	out = append(out, Artifact{Name: MonthlyName(m.Period), Data: data})

	totals, err := TotalByFrontier(m.Enriched)
	if err != nil {
		return nil, err
	}
	data, err = tabular.Write(totals)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", TotalName(m.Period), err)
	}
	out = append(out, Artifact{Name: TotalName(m.Period), Data: data})
	return out, nil
}
