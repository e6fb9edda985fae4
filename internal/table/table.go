// Package table provides the in-memory spreadsheet model consumed by the
// extraction engine and the loaders that build it.
//
// A Table is an ordered header list plus rows keyed by header. Headers are
// unique within a table; loaders clean them (NBSP, "&nbsp;", line breaks and
// whitespace runs) and disambiguate repeats before any row is stored.
//
// Supported sources:
//   - CSV (UTF-8 or Windows-1252, "," or ";" delimited)
//   - XLSX workbooks
//   - legacy XLS workbooks
package table

import (
	"fmt"
	"strings"
)

// Row maps a header to its cell value. Values are string, float64, int,
// decimal.Decimal or nil.
type Row map[string]any

// Table is an ordered set of uniquely named columns.
type Table struct {
	Headers []string
	Rows    []Row
}

// New builds a table from headers and positional records. Headers are cleaned
// and made unique; short records are padded with empty strings.
func New(headers []string, records [][]any) *Table {
	t := &Table{Headers: UniqueHeaders(headers)}
	for _, rec := range records {
		row := make(Row, len(t.Headers))
		for i, h := range t.Headers {
			if i < len(rec) {
				row[h] = rec[i]
			} else {
				row[h] = ""
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// FromStrings builds a table whose first record is the header row.
func FromStrings(records [][]string) *Table {
	if len(records) == 0 {
		return &Table{}
	}
	rows := make([][]any, 0, len(records)-1)
	for _, rec := range records[1:] {
		if isEmptyRecord(rec) {
			continue
		}
		row := make([]any, len(rec))
		for i, v := range rec {
			row[i] = strings.TrimSpace(v)
		}
		rows = append(rows, row)
	}
	return New(records[0], rows)
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// HasColumn reports whether header exists.
func (t *Table) HasColumn(header string) bool {
	return t.index(header) >= 0
}

func (t *Table) index(header string) int {
	for i, h := range t.Headers {
		if h == header {
			return i
		}
	}
	return -1
}

// Column returns the values of header in row order.
func (t *Table) Column(header string) []any {
	if !t.HasColumn(header) {
		return nil
	}
	out := make([]any, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r[header]
	}
	return out
}

// Rename moves a column to a new header, keeping its position. Renaming onto
// an existing different header fails.
func (t *Table) Rename(from, to string) error {
	if from == to {
		return nil
	}
	i := t.index(from)
	if i < 0 {
		return fmt.Errorf("column %q not found", from)
	}
	if t.HasColumn(to) {
		return fmt.Errorf("column %q already exists", to)
	}
	t.Headers[i] = to
	for _, r := range t.Rows {
		r[to] = r[from]
		delete(r, from)
	}
	return nil
}

// Drop removes a column; unknown headers are ignored.
func (t *Table) Drop(header string) {
	i := t.index(header)
	if i < 0 {
		return
	}
	t.Headers = append(t.Headers[:i], t.Headers[i+1:]...)
	for _, r := range t.Rows {
		delete(r, header)
	}
}

// AddColumn appends header filled with value. Existing columns are left as is.
func (t *Table) AddColumn(header string, value any) {
	if t.HasColumn(header) {
		return
	}
	t.Headers = append(t.Headers, header)
	for _, r := range t.Rows {
		r[header] = value
	}
}

// Set overwrites every cell of header using fn(old).
func (t *Table) Set(header string, fn func(any) any) {
	if !t.HasColumn(header) {
		return
	}
	for _, r := range t.Rows {
		r[header] = fn(r[header])
	}
}

// Clone deep-copies headers and rows; cell values are shared.
func (t *Table) Clone() *Table {
	out := &Table{
		Headers: append([]string(nil), t.Headers...),
		Rows:    make([]Row, len(t.Rows)),
	}
	for i, r := range t.Rows {
		cp := make(Row, len(r))
		for k, v := range r {
			cp[k] = v
		}
		out.Rows[i] = cp
	}
	return out
}

// WithRows returns a table sharing t's headers and holding rows.
func (t *Table) WithRows(rows []Row) *Table {
	return &Table{
		Headers: append([]string(nil), t.Headers...),
		Rows:    rows,
	}
}

var headerCleaner = strings.NewReplacer(
	"&nbsp;", " ",
	" ", " ",
	"\r\n", " ",
	"\n", " ",
	"\r", " ",
	"\t", " ",
)

// CleanHeader trims a header and collapses its whitespace.
func CleanHeader(h string) string {
	return strings.Join(strings.Fields(headerCleaner.Replace(h)), " ")
}

// UniqueHeaders cleans headers, names blank ones "Coluna N" and suffixes
// repeats with " (2)", " (3)"...
func UniqueHeaders(headers []string) []string {
	out := make([]string, len(headers))
	used := make(map[string]bool, len(headers))
	for i, h := range headers {
		h = CleanHeader(h)
		if h == "" {
			h = fmt.Sprintf("Coluna %d", i+1)
		}
		name := h
		for n := 2; used[name]; n++ {
			name = fmt.Sprintf("%s (%d)", h, n)
		}
		used[name] = true
		out[i] = name
	}
	return out
}

func isEmptyRecord(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}
