// Package tabular holds the in-memory table used by the processing steps and
// the CSV codecs for the vendor and report file formats.
package tabular

import (
	"fmt"
	"sort"
)

// Table is a header plus rows of string cells. Every row has exactly
// len(Columns) cells.
type Table struct {
	Columns []string
	Rows    [][]string
}

// New creates an empty table with the given header.
func New(columns ...string) *Table {
	return &Table{Columns: append([]string(nil), columns...)}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Empty reports whether the table has no rows.
func (t *Table) Empty() bool { return t.Len() == 0 }

// Index returns the position of a column or -1.
func (t *Table) Index(column string) int {
	for i, c := range t.Columns {
		if c == column {
			return i
		}
	}
	return -1
}

// MustIndex returns the position of each column or an error naming the
// first missing one.
func (t *Table) MustIndex(columns ...string) ([]int, error) {
	out := make([]int, len(columns))
	for i, c := range columns {
		idx := t.Index(c)
		if idx < 0 {
			return nil, fmt.Errorf("column %q not found", c)
		}
		out[i] = idx
	}
	return out, nil
}

// Rename changes a column header in place when present.
func (t *Table) Rename(from, to string) {
	if idx := t.Index(from); idx >= 0 {
		t.Columns[idx] = to
	}
}

// Append adds a row. The row must match the header width.
func (t *Table) Append(row []string) error {
	if len(row) != len(t.Columns) {
		return fmt.Errorf("row has %d cells, header has %d", len(row), len(t.Columns))
	}
	t.Rows = append(t.Rows, row)
	return nil
}

// Concat stacks tables vertically. The result header is the first table's
// header followed by columns that only appear in later tables; missing cells
// stay empty.
func Concat(tables ...*Table) *Table {
	out := &Table{}
	seen := make(map[string]bool)
	for _, t := range tables {
		if t == nil {
			continue
		}
		for _, c := range t.Columns {
			if !seen[c] {
				seen[c] = true
				out.Columns = append(out.Columns, c)
			}
		}
	}
	for _, t := range tables {
		if t == nil {
			continue
		}
		pos := make([]int, len(t.Columns))
		for i, c := range t.Columns {
			pos[i] = out.Index(c)
		}
		for _, row := range t.Rows {
			merged := make([]string, len(out.Columns))
			for i, cell := range row {
				merged[pos[i]] = cell
			}
			out.Rows = append(out.Rows, merged)
		}
	}
	return out
}

// SortBy orders the rows with a stable sort using less over two rows.
func (t *Table) SortBy(less func(a, b []string) bool) {
	sort.SliceStable(t.Rows, func(i, j int) bool { return less(t.Rows[i], t.Rows[j]) })
}

// Filter keeps the rows for which keep returns true.
func (t *Table) Filter(keep func(row []string) bool) {
	kept := t.Rows[:0]
	for _, row := range t.Rows {
		if keep(row) {
			kept = append(kept, row)
		}
	}
	t.Rows = kept
}

// Clone returns a deep copy.
func (t *Table) Clone() *Table {
	out := New(t.Columns...)
	out.Rows = make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		out.Rows[i] = append([]string(nil), row...)
	}
	return out
}
