package equation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"crossmap/internal/rollup"
)

// ErrResolution is matched by ResolutionError.
var ErrResolution = errors.New("equation references unknown totals")

// ResolutionError lists the names an equation uses that the source cannot
// resolve. Err is the first underlying failure.
type ResolutionError struct {
	Equation string
	Names    []string
	Err      error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("%v in %q: %s", ErrResolution, e.Equation, strings.Join(e.Names, ", "))
}

func (e *ResolutionError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrResolution}
	}

	return []error{ErrResolution, e.Err}
}

// Resolver supplies named totals.
type Resolver interface {
	Total(name string) (decimal.Decimal, error)
}

// Source is a Resolver that also reports the unmapped residue behind its
// totals. *rollup.Run implements it.
type Source interface {
	Resolver
	Unmapped() []rollup.Unmapped
	Coverage() float64
}

// Report is the outcome of checking one rule.
type Report struct {
	RuleName           string                     `json:"rule_name"`
	Equation           string                     `json:"equation"`
	Passed             bool                       `json:"passed"`
	LHS                decimal.Decimal            `json:"lhs_value"`
	RHS                decimal.Decimal            `json:"rhs_value"`
	Difference         decimal.Decimal            `json:"difference"`
	Tolerance          decimal.Decimal            `json:"tolerance"`
	Totals             map[string]decimal.Decimal `json:"totals"`
	UnmappedValues     []rollup.Unmapped          `json:"unmapped_values"`
	MappingCoverage    float64                    `json:"mapping_coverage"`
	MappingCoveragePct float64                    `json:"mapping_coverage_pct"`
}

// Evaluate parses rule.Expression and checks it against src.
func Evaluate(rule Rule, src Source) (Report, error) {
	eq, err := Parse(rule.Expression)
	if err != nil {
		return Report{}, err
	}

	return EvaluateEquation(rule.Name, eq, rule.Tolerance, src)
}

// EvaluateSets checks Σ lhs = Σ rhs over node names.
func EvaluateSets(name string, lhs, rhs []string, tolerance decimal.Decimal, src Source) (Report, error) {
	return EvaluateEquation(name, &Equation{LHS: Sum(lhs...), RHS: Sum(rhs...)}, tolerance, src)
}

// EvaluateEquation checks a parsed equation: difference = LHS − RHS and the
// rule passes when |difference| ≤ tolerance.
func EvaluateEquation(name string, eq *Equation, tolerance decimal.Decimal, src Source) (Report, error) {
	if tolerance.IsNegative() {
		return Report{}, fmt.Errorf("negative tolerance %s", tolerance)
	}

	values := make(map[string]decimal.Decimal)

	var (
		missing []string
		first   error
	)

	for _, n := range eq.Names() {
		v, err := src.Total(n)
		if err != nil {
			missing = append(missing, n)
			if first == nil {
				first = err
			}

			continue
		}

		values[n] = v
	}

	if len(missing) > 0 {
		return Report{}, &ResolutionError{Equation: eq.String(), Names: missing, Err: first}
	}

	lhs, rhs := eq.LHS.eval(values), eq.RHS.eval(values)
	diff := lhs.Sub(rhs)
	coverage := src.Coverage()

	unmapped := src.Unmapped()
	if unmapped == nil {
		unmapped = []rollup.Unmapped{}
	}

	return Report{
		RuleName:           name,
		Equation:           eq.String(),
		Passed:             diff.Abs().LessThanOrEqual(tolerance),
		LHS:                lhs,
		RHS:                rhs,
		Difference:         diff,
		Tolerance:          tolerance,
		Totals:             values,
		UnmappedValues:     unmapped,
		MappingCoverage:    coverage,
		MappingCoveragePct: decimal.NewFromFloat(coverage * 100).Round(1).InexactFloat64(),
	}, nil
}
