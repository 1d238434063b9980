package equation

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crossmap/internal/hierarchy"
	"crossmap/internal/rollup"
)

var errNoSuchTotal = errors.New("no such total")

type staticSource struct {
	totals   map[string]string
	unmapped []rollup.Unmapped
	coverage float64
}

func (s staticSource) Total(name string) (decimal.Decimal, error) {
	v, ok := s.totals[name]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", errNoSuchTotal, name)
	}

	return decimal.RequireFromString(v), nil
}

func (s staticSource) Unmapped() []rollup.Unmapped { return s.unmapped }

func (s staticSource) Coverage() float64 { return s.coverage }

func TestEvaluateSets_Balanced(t *testing.T) {
	src := staticSource{
		totals:   map[string]string{"Assets": "100", "Liabilities": "60", "Equity": "40"},
		coverage: 1,
	}

	rep, err := EvaluateSets("balance", []string{"Assets"}, []string{"Liabilities", "Equity"}, DefaultTolerance, src)
	require.NoError(t, err)

	assert.True(t, rep.Passed)
	assert.True(t, rep.Difference.IsZero(), "difference = %s", rep.Difference)
	assert.True(t, rep.LHS.Equal(decimal.NewFromInt(100)))
	assert.True(t, rep.RHS.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, "balance", rep.RuleName)
	assert.InDelta(t, 100.0, rep.MappingCoveragePct, 0)
	assert.NotNil(t, rep.UnmappedValues)
}

func TestEvaluate_Tolerance(t *testing.T) {
	tests := []struct {
		rhs    string
		passed bool
	}{
		{"99.995", true},
		{"99.99", true},
		{"99.98", false},
		{"100.02", false},
	}

	for _, tt := range tests {
		t.Run(tt.rhs, func(t *testing.T) {
			src := staticSource{totals: map[string]string{"A": "100", "B": tt.rhs}}

			rep, err := Evaluate(Custom("A = B", DefaultTolerance), src)
			require.NoError(t, err)
			assert.Equal(t, tt.passed, rep.Passed, "difference %s", rep.Difference)
		})
	}

	_, err := Evaluate(Custom("A = A", decimal.NewFromInt(-1)), staticSource{totals: map[string]string{"A": "1"}})
	assert.Error(t, err)
}

func TestEvaluate_ResolutionError(t *testing.T) {
	src := staticSource{totals: map[string]string{"Total Assets": "10"}}

	rule, ok := Predefined(RuleBalanceSheet)
	require.True(t, ok)

	_, err := Evaluate(rule, src)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrResolution)
	assert.ErrorIs(t, err, errNoSuchTotal)

	var res *ResolutionError
	require.ErrorAs(t, err, &res)
	assert.Equal(t, []string{"Total Liabilities", "Total Equity"}, res.Names)
}

func TestEvaluate_SyntaxErrorNeverResolves(t *testing.T) {
	called := false
	src := resolverFunc(func(string) (decimal.Decimal, error) {
		called = true
		return decimal.Zero, nil
	})

	_, err := Evaluate(Custom("A; rm -rf /", DefaultTolerance), src)
	assert.ErrorIs(t, err, ErrSyntax)
	assert.False(t, called)
}

type resolverFunc func(string) (decimal.Decimal, error)

func (f resolverFunc) Total(name string) (decimal.Decimal, error) { return f(name) }

func (resolverFunc) Unmapped() []rollup.Unmapped { return nil }

func (resolverFunc) Coverage() float64 { return 1 }

func TestPredefined(t *testing.T) {
	assert.Equal(t, []string{RuleBalanceSheet, RuleCashFlow, RuleTrialBalance}, PredefinedNames())

	for _, name := range PredefinedNames() {
		rule, ok := Predefined(name)
		require.True(t, ok)
		assert.True(t, rule.Tolerance.Equal(decimal.RequireFromString("0.01")))

		_, err := Parse(rule.Expression)
		require.NoError(t, err, name)
	}

	_, ok := Predefined("nope")
	assert.False(t, ok)

	wide, _ := Predefined(RuleTrialBalance)
	wide = wide.WithTolerance(decimal.NewFromInt(5))
	assert.True(t, wide.Tolerance.Equal(decimal.NewFromInt(5)))
}

func TestEvaluate_OverRollup(t *testing.T) {
	forest, err := hierarchy.Build([]hierarchy.Row{
		hierarchy.NewRow("Total Assets", ""),
		hierarchy.NewRow("Cash", "Total Assets"),
		hierarchy.NewRow("Receivables", "Total Assets"),
		hierarchy.NewRow("Total Liabilities", ""),
		hierarchy.NewRow("Payables", "Total Liabilities"),
		hierarchy.NewRow("Total Equity", ""),
		hierarchy.NewRow("Capital", "Total Equity"),
	}, hierarchy.Options{})
	require.NoError(t, err)

	leaves := rollup.LeafMap{}
	for _, l := range []string{"Cash", "Receivables", "Payables", "Capital"} {
		leaves[l] = hierarchy.NodeID(l)
	}

	run, err := rollup.New(forest, leaves, []rollup.Record{
		{Category: "Cash", Amount: decimal.NewFromInt(60)},
		{Category: "Receivables", Amount: decimal.NewFromInt(40)},
		{Category: "Payables", Amount: decimal.NewFromInt(60)},
		{Category: "Capital", Amount: decimal.NewFromInt(40)},
		{Category: "Foo", Amount: decimal.NewFromInt(10)},
	})
	require.NoError(t, err)

	rule, _ := Predefined(RuleBalanceSheet)

	rep, err := Evaluate(rule, run)
	require.NoError(t, err)

	assert.True(t, rep.Passed)
	assert.True(t, rep.Difference.IsZero())
	require.Len(t, rep.UnmappedValues, 1)
	assert.Equal(t, "Foo", rep.UnmappedValues[0].Value)
	assert.InDelta(t, 95.2, rep.MappingCoveragePct, 0.05)

	out, err := json.Marshal(rep)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out, &decoded))

	for _, key := range []string{
		"rule_name", "passed", "lhs_value", "rhs_value", "difference",
		"tolerance", "unmapped_values", "mapping_coverage_pct",
	} {
		assert.Contains(t, decoded, key)
	}

	assert.Equal(t, "100", decoded["lhs_value"])
	assert.Equal(t, "0.01", decoded["tolerance"])
}
