package mapping

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// ColumnRef names one column of one loaded table.
type ColumnRef struct {
	Alias  string `yaml:"alias" json:"alias"`
	Column string `yaml:"column" json:"column"`
}

// ParseColumnRef parses "alias.column". The alias ends at the first dot, so
// column names may contain dots; aliases that do must use the YAML mapping
// form.
func ParseColumnRef(s string) (ColumnRef, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return ColumnRef{}, errors.New("empty column reference")
	}

	alias, column, ok := strings.Cut(s, ".")
	alias, column = strings.TrimSpace(alias), strings.TrimSpace(column)

	if !ok || alias == "" || column == "" {
		return ColumnRef{}, fmt.Errorf("invalid column reference %q: want alias.column", s)
	}

	return ColumnRef{Alias: alias, Column: column}, nil
}

// String returns "alias.column".
func (r ColumnRef) String() string {
	return r.Alias + "." + r.Column
}

// IsZero reports whether r is unset.
func (r ColumnRef) IsZero() bool {
	return r.Alias == "" && r.Column == ""
}

// UnmarshalYAML accepts either "alias.column" or {alias, column}.
func (r *ColumnRef) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}

		ref, err := ParseColumnRef(s)
		if err != nil {
			return err
		}

		*r = ref

		return nil

	case yaml.MappingNode:
		type plain ColumnRef

		var p plain
		if err := node.Decode(&p); err != nil {
			return err
		}

		if p.Alias == "" || p.Column == "" {
			return fmt.Errorf("line %d: column reference needs alias and column", node.Line)
		}

		*r = ColumnRef(p)

		return nil

	default:
		return fmt.Errorf("expected string or mapping for column reference, got %v", node.Kind)
	}
}

// MarshalYAML writes the short form unless the alias contains a dot.
func (r ColumnRef) MarshalYAML() (any, error) {
	if strings.Contains(r.Alias, ".") {
		type plain ColumnRef
		return plain(r), nil
	}

	return r.String(), nil
}

// Key identifies a definition by its column pair.
type Key struct {
	Source ColumnRef
	Target ColumnRef
}

// String returns "source.alias.column -> target.alias.column".
func (k Key) String() string {
	return k.Source.String() + " -> " + k.Target.String()
}

// Less orders keys by source then target.
func (k Key) Less(o Key) bool {
	if k.Source != o.Source {
		if k.Source.Alias != o.Source.Alias {
			return k.Source.Alias < o.Source.Alias
		}

		return k.Source.Column < o.Source.Column
	}

	if k.Target.Alias != o.Target.Alias {
		return k.Target.Alias < o.Target.Alias
	}

	return k.Target.Column < o.Target.Column
}

// ParseKey parses "alias.column -> alias.column".
func ParseKey(s string) (Key, error) {
	src, dst, ok := strings.Cut(s, "->")
	if !ok {
		return Key{}, fmt.Errorf("invalid mapping key %q: want source -> target", s)
	}

	source, err := ParseColumnRef(src)
	if err != nil {
		return Key{}, err
	}

	target, err := ParseColumnRef(dst)
	if err != nil {
		return Key{}, err
	}

	return Key{Source: source, Target: target}, nil
}
