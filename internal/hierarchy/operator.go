package hierarchy

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"crossmap/internal/common"
)

// Operator says whether a child adds to or subtracts from its parent.
type Operator int

const (
	OperatorAdd Operator = iota
	OperatorSubtract
)

// ParseOperator accepts add, +, plus, subtract, sub, -, minus (any case).
// Blank text means add.
func ParseOperator(s string) (Operator, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "add", "+", "plus":
		return OperatorAdd, nil
	case "subtract", "sub", "-", "minus":
		return OperatorSubtract, nil
	default:
		return OperatorAdd, fmt.Errorf("unknown operator %q", s)
	}
}

// Sign returns +1 for add and -1 for subtract.
func (o Operator) Sign() decimal.Decimal {
	if o == OperatorSubtract {
		return decimal.NewFromInt(-1)
	}

	return decimal.NewFromInt(1)
}

// Valid reports whether o is a known operator.
func (o Operator) Valid() bool {
	return o == OperatorAdd || o == OperatorSubtract
}

func (o Operator) String() string {
	switch o {
	case OperatorAdd:
		return "add"
	case OperatorSubtract:
		return "subtract"
	default:
		return common.UnknownStr
	}
}

// MarshalText implements encoding.TextMarshaler.
func (o Operator) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *Operator) UnmarshalText(b []byte) error {
	op, err := ParseOperator(string(b))
	if err != nil {
		return err
	}

	*o = op

	return nil
}
