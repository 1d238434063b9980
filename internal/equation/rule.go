package equation

import (
	"slices"

	"github.com/shopspring/decimal"
)

// DefaultTolerance is the absolute difference still counted as a pass.
var DefaultTolerance = decimal.New(1, -2)

// Rule is a named equation with a tolerance.
type Rule struct {
	Name        string          `yaml:"name" json:"name"`
	Expression  string          `yaml:"expression" json:"expression"`
	Description string          `yaml:"description,omitempty" json:"description,omitempty"`
	Tolerance   decimal.Decimal `yaml:"-" json:"tolerance"`
}

// Predefined rule names.
const (
	RuleBalanceSheet = "balance_sheet_equation"
	RuleTrialBalance = "trial_balance"
	RuleCashFlow     = "cash_flow_equation"
	RuleCustom       = "custom"
)

var predefined = map[string]Rule{
	RuleBalanceSheet: {
		Name:        RuleBalanceSheet,
		Expression:  "Total Assets = Total Liabilities + Total Equity",
		Description: "Assets equal liabilities plus equity",
	},
	RuleTrialBalance: {
		Name:        RuleTrialBalance,
		Expression:  "Total Debits = Total Credits",
		Description: "Debits equal credits",
	},
	RuleCashFlow: {
		Name:        RuleCashFlow,
		Expression:  "Operating Cash Flow + Investing Cash Flow + Financing Cash Flow = Net Change in Cash",
		Description: "Cash flow sections add up to the net change in cash",
	},
}

// Predefined returns a built-in rule with DefaultTolerance.
func Predefined(name string) (Rule, bool) {
	r, ok := predefined[name]
	if !ok {
		return Rule{}, false
	}

	r.Tolerance = DefaultTolerance

	return r, true
}

// PredefinedNames returns the built-in rule names in sorted order.
func PredefinedNames() []string {
	names := make([]string, 0, len(predefined))
	for n := range predefined {
		names = append(names, n)
	}

	slices.Sort(names)

	return names
}

// Custom returns a rule for a user-supplied expression.
func Custom(expression string, tolerance decimal.Decimal) Rule {
	return Rule{Name: RuleCustom, Expression: expression, Tolerance: tolerance}
}

// WithTolerance returns a copy of r with a different tolerance.
func (r Rule) WithTolerance(tolerance decimal.Decimal) Rule {
	r.Tolerance = tolerance
	return r
}
