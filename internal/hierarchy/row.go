package hierarchy

import (
	"fmt"

	"github.com/shopspring/decimal"

	"crossmap/internal/table"
)

// Row is one flat report-structure entry.
type Row struct {
	Element    string
	Parent     string // empty for roots
	Operator   Operator
	Multiplier decimal.Decimal
	Level      *int // optional explicit level
	Line       int  // 1-based source line, 0 if unknown
}

// Columns names the columns RowsFromTable reads. Operator, Multiplier and
// Level are optional; missing columns fall back to add, 1 and derived.
type Columns struct {
	Element    string `yaml:"element" json:"element"`
	Parent     string `yaml:"parent" json:"parent"`
	Operator   string `yaml:"operator" json:"operator"`
	Multiplier string `yaml:"multiplier" json:"multiplier"`
	Level      string `yaml:"level" json:"level"`
}

// DefaultColumns are the conventional hierarchy column names.
var DefaultColumns = Columns{
	Element:    "element",
	Parent:     "parent",
	Operator:   "operator",
	Multiplier: "multiplier",
	Level:      "level",
}

// WithDefaults fills blank names from DefaultColumns.
func (c Columns) WithDefaults() Columns {
	if c.Element == "" {
		c.Element = DefaultColumns.Element
	}

	if c.Parent == "" {
		c.Parent = DefaultColumns.Parent
	}

	if c.Operator == "" {
		c.Operator = DefaultColumns.Operator
	}

	if c.Multiplier == "" {
		c.Multiplier = DefaultColumns.Multiplier
	}

	if c.Level == "" {
		c.Level = DefaultColumns.Level
	}

	return c
}

// RowsFromTable reads hierarchy rows from t. Column names match
// case-insensitively. Rows whose cells are all null are skipped.
func RowsFromTable(t *table.Table, cols Columns) ([]Row, error) {
	cols = cols.WithDefaults()

	element, ok := t.FindColumn(cols.Element)
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", table.ErrColumnNotFound, t.Alias, cols.Element)
	}

	parent, ok := t.FindColumn(cols.Parent)
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", table.ErrColumnNotFound, t.Alias, cols.Parent)
	}

	operator, _ := t.FindColumn(cols.Operator)
	multiplier, _ := t.FindColumn(cols.Multiplier)
	level, _ := t.FindColumn(cols.Level)

	rows := make([]Row, 0, t.Len())

	for i, r := range t.All() {
		line := i + 2 // header is line 1

		el, par := r.Get(element), r.Get(parent)
		op, mul, lvl := r.Get(operator), r.Get(multiplier), r.Get(level)

		if el.IsBlank() && par.IsBlank() && op.Null && mul.Null && lvl.Null {
			continue
		}

		// Labels are names: only blank cells are missing.
		if el.IsBlank() {
			return nil, &InvalidRowError{Line: line, Reason: "empty element label"}
		}

		row := Row{
			Element:    el.Text,
			Multiplier: decimal.NewFromInt(1),
			Line:       line,
		}

		if !par.IsBlank() {
			row.Parent = par.Text
		}

		parsed, err := ParseOperator(op.Text)
		if err != nil {
			return nil, &InvalidRowError{Line: line, Reason: err.Error()}
		}

		row.Operator = parsed

		if !mul.Null {
			m, ok := mul.Decimal()
			if !ok {
				return nil, &InvalidRowError{Line: line, Reason: fmt.Sprintf("multiplier %q is not a number", mul.Text)}
			}

			row.Multiplier = m
		}

		if !lvl.Null {
			d, ok := lvl.Decimal()
			if !ok || !d.IsInteger() {
				return nil, &InvalidRowError{Line: line, Reason: fmt.Sprintf("level %q is not an integer", lvl.Text)}
			}

			n := int(d.IntPart())
			row.Level = &n
		}

		rows = append(rows, row)
	}

	return rows, nil
}

// NewRow returns a row with operator add and multiplier 1.
func NewRow(element, parent string) Row {
	return Row{
		Element:    element,
		Parent:     parent,
		Operator:   OperatorAdd,
		Multiplier: decimal.NewFromInt(1),
	}
}
