package table

import (
	"strings"
	"time"
)

//go:generate go tool stringer -type=Kind -linecomment -output=kind_string.go

// Kind is the inferred type tag of a column or value.
type Kind int

const (
	KindEmpty   Kind = iota // empty
	KindInteger             // integer
	KindDecimal             // decimal
	KindBoolean             // boolean
	KindDate                // date
	KindText                // text
)

// IsNumeric reports whether values of this kind parse as decimals.
func (k Kind) IsNumeric() bool {
	return k == KindInteger || k == KindDecimal
}

// MarshalText implements encoding.TextMarshaler so profiles serialize the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// ParseKind is the inverse of Kind.String. Unknown names yield KindText.
func ParseKind(s string) Kind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "empty":
		return KindEmpty
	case "integer":
		return KindInteger
	case "decimal":
		return KindDecimal
	case "boolean":
		return KindBoolean
	case "date":
		return KindDate
	default:
		return KindText
	}
}

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// inferValueKind classifies a single non-null value.
func inferValueKind(s string) Kind {
	if _, ok := parseInteger(s); ok {
		return KindInteger
	}

	if _, ok := parseDecimal(s); ok {
		return KindDecimal
	}

	switch strings.ToLower(s) {
	case "true", "false":
		return KindBoolean
	}

	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return KindDate
		}
	}

	return KindText
}

// mergeKinds widens the accumulated column kind with one more value kind.
// integer+decimal widens to decimal; any other disagreement widens to text.
func mergeKinds(acc, next Kind) Kind {
	switch {
	case acc == KindEmpty:
		return next
	case acc == next:
		return acc
	case acc.IsNumeric() && next.IsNumeric():
		return KindDecimal
	default:
		return KindText
	}
}
