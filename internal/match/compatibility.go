package match

import (
	"crossmap/internal/common"
	"crossmap/internal/table"
)

// Compatibility is how comparable the values of two columns are.
type Compatibility int

const (
	// Incompatible columns are never value-matched.
	Incompatible Compatibility = iota
	// Convertible columns compare through their text form.
	Convertible
	// Identical columns share an inferred kind.
	Identical
)

// String returns a human-readable name for the compatibility level.
func (c Compatibility) String() string {
	switch c {
	case Identical:
		return "identical"
	case Convertible:
		return "convertible"
	case Incompatible:
		return "incompatible"
	default:
		return common.UnknownStr
	}
}

// Compatible compares two inferred column kinds.
// Empty columns match nothing. Integer and decimal convert into each other,
// and text converts with anything, since codes such as "1010" are often
// stored as numbers on one side and text on the other.
func Compatible(a, b table.Kind) Compatibility {
	switch {
	case a == table.KindEmpty || b == table.KindEmpty:
		return Incompatible
	case a == b:
		return Identical
	case a.IsNumeric() && b.IsNumeric():
		return Convertible
	case a == table.KindText || b == table.KindText:
		return Convertible
	default:
		return Incompatible
	}
}
