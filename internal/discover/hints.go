package discover

import (
	"slices"

	"crossmap/internal/hierarchy"
	"crossmap/internal/match"
	"crossmap/internal/table"
)

// MinSelfReference is the share of parent values that must appear in the
// element column for a table to look hierarchy-shaped.
const MinSelfReference = 0.5

const maxAggregationLines = 10

var (
	levelWords      = []string{"level", "lvl", "tier", "depth"}
	parentWords     = []string{"parent"}
	operatorWords   = []string{"operator", "op", "sign"}
	multiplierWords = []string{"multiplier", "factor", "weight"}
	totalWords      = []string{"total", "subtotal", "sum"}
)

// HierarchyHint describes a table that looks like a report structure.
type HierarchyHint struct {
	FileID           string   `json:"file_id"`
	ElementColumn    string   `json:"element_column"`
	ParentColumn     string   `json:"parent_column"`
	LevelColumn      string   `json:"level_column,omitempty"`
	OperatorColumn   string   `json:"operator_column,omitempty"`
	MultiplierColumn string   `json:"multiplier_column,omitempty"`
	SelfReference    float64  `json:"self_reference"`
	AggregationLines []string `json:"aggregation_lines,omitempty"`
}

// Columns returns the hint as hierarchy column names.
func (h HierarchyHint) Columns() hierarchy.Columns {
	return hierarchy.Columns{
		Element:    h.ElementColumn,
		Parent:     h.ParentColumn,
		Operator:   h.OperatorColumn,
		Multiplier: h.MultiplierColumn,
		Level:      h.LevelColumn,
	}
}

// structural reports whether column is part of the structure rather than
// the element labels.
func (h HierarchyHint) structural(column string) bool {
	switch column {
	case h.ParentColumn, h.LevelColumn, h.OperatorColumn, h.MultiplierColumn:
		return true
	}

	return false
}

func nameHas(column string, words []string) bool {
	for _, tok := range match.Tokenize(match.NormalizeLabel(column)) {
		if slices.Contains(words, tok) {
			return true
		}
	}

	return false
}

// DetectHierarchy reports whether t looks hierarchy-shaped: a parent-named
// column whose values mostly appear in another column of t, plus a level,
// operator or multiplier column.
func DetectHierarchy(t *table.Table) (HierarchyHint, bool) {
	h := HierarchyHint{FileID: t.Alias}

	for _, c := range t.Columns() {
		switch {
		case h.LevelColumn == "" && nameHas(c, levelWords) && t.Kind(c) == table.KindInteger:
			h.LevelColumn = c
		case h.ParentColumn == "" && nameHas(c, parentWords):
			h.ParentColumn = c
		case h.OperatorColumn == "" && nameHas(c, operatorWords):
			h.OperatorColumn = c
		case h.MultiplierColumn == "" && nameHas(c, multiplierWords) && t.Kind(c).IsNumeric():
			h.MultiplierColumn = c
		}
	}

	if h.ParentColumn == "" || (h.LevelColumn == "" && h.OperatorColumn == "" && h.MultiplierColumn == "") {
		return HierarchyHint{}, false
	}

	parents := distinctNormalized(t, h.ParentColumn)
	if len(parents) == 0 {
		return HierarchyHint{}, false
	}

	for _, c := range t.Columns() {
		if c == h.ParentColumn || h.structural(c) {
			continue
		}

		elements := distinctNormalized(t, c)

		hits := 0
		for p := range parents {
			if _, ok := elements[p]; ok {
				hits++
			}
		}

		if share := float64(hits) / float64(len(parents)); share > h.SelfReference {
			h.ElementColumn, h.SelfReference = c, share
		}
	}

	if h.ElementColumn == "" || h.SelfReference < MinSelfReference {
		return HierarchyHint{}, false
	}

	h.AggregationLines = aggregationLines(t, h.ElementColumn)

	return h, true
}

func distinctNormalized(t *table.Table, column string) map[string]struct{} {
	values, err := t.Column(column)
	if err != nil {
		return nil
	}

	out := make(map[string]struct{}, len(values))

	for _, v := range values {
		if v.Null {
			continue
		}

		if n := match.Normalize(v.Text); n != "" {
			out[n] = struct{}{}
		}
	}

	return out
}

// aggregationLines lists element labels that read like totals.
func aggregationLines(t *table.Table, column string) []string {
	values, _ := t.Column(column)

	var out []string

	for _, v := range values {
		if v.Null || !nameHas(v.Text, totalWords) || slices.Contains(out, v.Text) {
			continue
		}

		out = append(out, v.Text)
	}

	slices.Sort(out)

	if len(out) > maxAggregationLines {
		out = out[:maxAggregationLines]
	}

	return out
}
