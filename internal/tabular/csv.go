package tabular

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// ErrMalformed is returned when bytes do not form a readable table.
var ErrMalformed = errors.New("malformed table")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadVendor parses a vendor feed file: semicolon separated, ISO-8859-1.
func ReadVendor(data []byte) (*Table, error) {
	r := transform.NewReader(bytes.NewReader(data), charmap.ISO8859_1.NewDecoder())
	return read(r, ';')
}

// ReadReport parses a report file written by Write: comma separated UTF-8
// with an optional byte-order mark.
func ReadReport(data []byte) (*Table, error) {
	return read(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)), ',')
}

func read(r io.Reader, sep rune) (*Table, error) {
	cr := csv.NewReader(r)
	cr.Comma = sep
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: no header row", ErrMalformed)
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	t := &Table{Columns: make([]string, len(header))}
	for i, h := range header {
		t.Columns[i] = strings.TrimSpace(h)
	}

	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformed, line, err)
		}
		if blank(rec) {
			continue
		}
		if len(rec) > len(t.Columns) {
			return nil, fmt.Errorf("%w: line %d has %d fields, header has %d", ErrMalformed, line, len(rec), len(t.Columns))
		}
		row := make([]string, len(t.Columns))
		copy(row, rec)
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

func blank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// Write renders the table as comma-separated UTF-8 with a byte-order mark,
// a header row and no index column.
func Write(t *Table) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(utf8BOM)
	w := csv.NewWriter(&buf)
	if err := w.Write(t.Columns); err != nil {
		return nil, err
	}
	if err := w.WriteAll(t.Rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
