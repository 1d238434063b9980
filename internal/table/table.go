package table

import (
	"errors"
	"fmt"
	"iter"
	"strings"
)

var (
	// ErrColumnNotFound is returned when a column name is not part of the table.
	ErrColumnNotFound = errors.New("column not found")
	// ErrUnsupportedFormat is returned by loaders for unknown file extensions.
	ErrUnsupportedFormat = errors.New("unsupported file format")
)

// Table is an immutable, fully materialized columnar table.
type Table struct {
	Alias string
	Path  string
	Role  string

	columns []string
	index   map[string]int
	data    [][]Value // column-major
	kinds   []Kind
	rows    int
}

// FromRecords builds a table from a header and row-major string records.
// Short rows are padded with nulls; extra cells are dropped.
func FromRecords(alias string, header []string, records [][]string) (*Table, error) {
	if len(header) == 0 {
		return nil, fmt.Errorf("table %q: empty header", alias)
	}

	t := &Table{
		Alias:   alias,
		Role:    RoleData,
		columns: make([]string, len(header)),
		index:   make(map[string]int, len(header)),
		data:    make([][]Value, len(header)),
		kinds:   make([]Kind, len(header)),
		rows:    len(records),
	}

	for i, h := range header {
		name := strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
		}

		if _, dup := t.index[name]; dup {
			return nil, fmt.Errorf("table %q: duplicate column %q", alias, name)
		}

		t.columns[i] = name
		t.index[name] = i
		t.data[i] = make([]Value, len(records))
	}

	for r, rec := range records {
		for c := range t.columns {
			raw := ""
			if c < len(rec) {
				raw = rec[c]
			}

			v := NewValue(raw)
			t.data[c][r] = v

			if !v.Null {
				t.kinds[c] = mergeKinds(t.kinds[c], v.Kind())
			}
		}
	}

	return t, nil
}

// Columns returns the column names in file order.
func (t *Table) Columns() []string {
	return append([]string(nil), t.columns...)
}

// HasColumn reports whether name is a column of t.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return t.rows
}

// Column returns every value of a column in row order.
func (t *Table) Column(name string) ([]Value, error) {
	i, ok := t.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrColumnNotFound, t.Alias, name)
	}

	return t.data[i], nil
}

// Kind returns the inferred kind of a column, or KindEmpty for unknown columns.
func (t *Table) Kind(name string) Kind {
	i, ok := t.index[name]
	if !ok {
		return KindEmpty
	}

	return t.kinds[i]
}

// NullCount returns the number of null cells in a column.
func (t *Table) NullCount(name string) int {
	i, ok := t.index[name]
	if !ok {
		return 0
	}

	n := 0
	for _, v := range t.data[i] {
		if v.Null {
			n++
		}
	}

	return n
}

// Row is a read-only view of one table row.
type Row struct {
	t *Table
	i int
}

// Get returns the cell in the named column. Unknown columns read as null.
func (r Row) Get(column string) Value {
	c, ok := r.t.index[column]
	if !ok {
		return Value{Null: true}
	}

	return r.t.data[c][r.i]
}

// Index returns the zero-based row number.
func (r Row) Index() int {
	return r.i
}

// All iterates over the rows in file order.
func (t *Table) All() iter.Seq2[int, Row] {
	return func(yield func(int, Row) bool) {
		for i := range t.rows {
			if !yield(i, Row{t: t, i: i}) {
				return
			}
		}
	}
}

// FindColumn resolves a column name case-insensitively, preferring an exact match.
func (t *Table) FindColumn(name string) (string, bool) {
	if t.HasColumn(name) {
		return name, true
	}

	for _, c := range t.columns {
		if strings.EqualFold(c, name) {
			return c, true
		}
	}

	return "", false
}
