package discover

import (
	"slices"
	"strings"

	"go.uber.org/zap"

	"crossmap/internal/match"
	"crossmap/internal/table"
)

// Limits on the value lists of a Gap.
const (
	MaxGapValues  = 20
	MaxGapMatches = 10
)

// Gap compares the distinct values of a source category column with the
// line items of a report column.
type Gap struct {
	Source       string  `json:"source"`
	Report       string  `json:"report"`
	SourceValues int     `json:"source_unique_values"`
	ReportValues int     `json:"report_unique_values"`
	ExactMatches int     `json:"exact_matches"`
	Coverage     float64 `json:"coverage"`
	CoveragePct  float64 `json:"coverage_percentage"`
	// SourceOnly and ReportOnly are sorted and hold at most MaxGapValues
	// entries; the counts are not truncated.
	SourceOnly      []string     `json:"source_only"`
	SourceOnlyCount int          `json:"source_only_count"`
	ReportOnly      []string     `json:"report_only"`
	ReportOnlyCount int          `json:"report_only_count"`
	PotentialFuzzy  []SamplePair `json:"potential_fuzzy_matches"`
}

// CompareStructures reports which source values appear among the report
// line items after normalization, which do not, and the closest report-only
// line for each source-only value scoring at least the threshold.
func CompareStructures(src *table.Table, sourceColumn string, report *table.Table, reportColumn string, opts Options) (Gap, error) {
	opts = opts.withDefaults()

	sv, err := distinctValues(src, sourceColumn)
	if err != nil {
		return Gap{}, err
	}

	rv, err := distinctValues(report, reportColumn)
	if err != nil {
		return Gap{}, err
	}

	g := Gap{
		Source:       src.Alias + "." + sourceColumn,
		Report:       report.Alias + "." + reportColumn,
		SourceValues: len(sv.norm),
		ReportValues: len(rv.norm),
		SourceOnly:   []string{},
		ReportOnly:   []string{},
	}

	var sourceOnly, reportOnly []string

	for _, n := range sv.norm {
		if rv.has(n) {
			g.ExactMatches++
		} else {
			sourceOnly = append(sourceOnly, sv.original[n])
		}
	}

	for _, n := range rv.norm {
		if !sv.has(n) {
			reportOnly = append(reportOnly, rv.original[n])
		}
	}

	g.Coverage = 1
	if g.SourceValues > 0 {
		g.Coverage = float64(g.ExactMatches) / float64(g.SourceValues)
	}

	g.CoveragePct = float64(int(g.Coverage*1000+0.5)) / 10

	for _, v := range sourceOnly {
		best := match.Rank(v, reportOnly).Best()
		if best != nil && best.Score >= opts.Threshold {
			g.PotentialFuzzy = append(g.PotentialFuzzy, SamplePair{SourceValue: v, TargetValue: best.Candidate, Score: best.Score})
		}
	}

	slices.SortStableFunc(g.PotentialFuzzy, func(a, b SamplePair) int {
		if a.Score != b.Score {
			if a.Score > b.Score {
				return -1
			}

			return 1
		}

		return strings.Compare(a.SourceValue, b.SourceValue)
	})

	slices.Sort(sourceOnly)
	slices.Sort(reportOnly)

	g.SourceOnlyCount, g.ReportOnlyCount = len(sourceOnly), len(reportOnly)
	g.SourceOnly = append(g.SourceOnly, sourceOnly[:min(len(sourceOnly), MaxGapValues)]...)
	g.ReportOnly = append(g.ReportOnly, reportOnly[:min(len(reportOnly), MaxGapValues)]...)
	g.PotentialFuzzy = g.PotentialFuzzy[:min(len(g.PotentialFuzzy), MaxGapMatches)]

	opts.Log.Debug("structures compared",
		zap.String("source", g.Source),
		zap.String("report", g.Report),
		zap.Int("exact", g.ExactMatches),
		zap.Int("source_only", g.SourceOnlyCount),
		zap.Int("report_only", g.ReportOnlyCount))

	return g, nil
}

func distinctValues(t *table.Table, column string) (valueSet, error) {
	values, err := t.Column(column)
	if err != nil {
		return valueSet{}, err
	}

	texts := make([]string, 0, len(values))
	for _, v := range values {
		if !v.Null {
			texts = append(texts, strings.TrimSpace(v.Text))
		}
	}

	return newValueSet(texts), nil
}
