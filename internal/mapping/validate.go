package mapping

import (
	"errors"
	"fmt"

	"crossmap/internal/diagnostic"
	"crossmap/internal/table"
)

// ErrUnknownColumn is matched by UnknownColumnError.
var ErrUnknownColumn = errors.New("unknown column")

// UnknownColumnError reports a definition referencing a column that is not
// part of any loaded table.
type UnknownColumnError struct {
	Key Key
	Ref ColumnRef
}

func (e *UnknownColumnError) Error() string {
	return fmt.Sprintf("%v %s in mapping %s", ErrUnknownColumn, e.Ref, e.Key)
}

func (e *UnknownColumnError) Unwrap() error { return ErrUnknownColumn }

// ErrInvalidDefinition is matched by InvalidDefinitionError.
var ErrInvalidDefinition = errors.New("invalid mapping definition")

// InvalidDefinitionError carries the errors Validate reported for one
// definition.
type InvalidDefinitionError struct {
	Key         Key
	Diagnostics diagnostic.Diagnostics
}

func (e *InvalidDefinitionError) Error() string {
	return fmt.Sprintf("%v %s: %v", ErrInvalidDefinition, e.Key, e.Diagnostics.Error())
}

func (e *InvalidDefinitionError) Unwrap() error { return ErrInvalidDefinition }

// Catalog answers whether a column is loaded.
type Catalog interface {
	HasColumn(ref ColumnRef) bool
}

// Tables is a Catalog over tables keyed by alias.
type Tables map[string]*table.Table

// HasColumn implements Catalog.
func (ts Tables) HasColumn(ref ColumnRef) bool {
	t, ok := ts[ref.Alias]
	return ok && t.HasColumn(ref.Column)
}

// Check returns an UnknownColumnError for the first column of d that cat
// does not know, checking source, target and label in that order.
func Check(d Definition, cat Catalog) error {
	refs := []ColumnRef{d.Source, d.Target}
	if d.Label != "" {
		refs = append(refs, ColumnRef{Alias: d.Target.Alias, Column: d.Label})
	}

	for _, ref := range refs {
		if !cat.HasColumn(ref) {
			return &UnknownColumnError{Key: d.Key(), Ref: ref}
		}
	}

	return nil
}

// Prepare applies the defaults a mapping file gets and checks d before it is
// attached. Structural problems return an InvalidDefinitionError and a
// missing column an UnknownColumnError.
func Prepare(d Definition, cat Catalog) (Definition, error) {
	d = d.withDefaults()

	if res := Validate([]Definition{d}, nil); res.HasErrors() {
		return d, &InvalidDefinitionError{Key: d.Key(), Diagnostics: res}
	}

	if err := Check(d, cat); err != nil {
		return d, err
	}

	return d, nil
}

// Validate checks definitions against the loaded columns. A nil catalog
// skips the column checks.
func Validate(defs []Definition, cat Catalog) diagnostic.Diagnostics {
	var res diagnostic.Diagnostics

	seen := make(map[Key]int, len(defs))

	for i, d := range defs {
		key := d.Key().String()

		if d.Source.IsZero() || d.Target.IsZero() {
			res.AddError("incomplete_definition", "definition needs both source and target", key, d.Name)
			continue
		}

		var unknown *UnknownColumnError
		if cat != nil && errors.As(Check(d, cat), &unknown) {
			res.AddError(diagnostic.CodeUnknownColumn,
				fmt.Sprintf("column %s is not loaded", unknown.Ref), key, unknown.Ref.String())
		}

		switch d.Origin {
		case OriginExplicit, OriginDiscovered:
		default:
			res.AddError("invalid_origin", fmt.Sprintf("unknown origin %q", d.Origin), key, d.Name)
		}

		if d.Confidence < 0 || d.Confidence > 1 {
			res.AddError("invalid_confidence",
				fmt.Sprintf("confidence %.3f outside [0,1]", d.Confidence), key, d.Name)
		}

		if d.Source.Alias == d.Target.Alias {
			res.AddWarning("same_table", "source and target are in the same table", key, d.Name)
		}

		if prev, dup := seen[d.Key()]; dup {
			res.AddWarning("duplicate_definition",
				fmt.Sprintf("definition %d overrides definition %d for the same column pair", i+1, prev+1), key, d.Name)
		}

		seen[d.Key()] = i
	}

	return res
}
