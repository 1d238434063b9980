package mapping

import (
	"crossmap/internal/discover"
)

// Origin tells where a definition came from.
type Origin string

const (
	OriginDiscovered Origin = "discovered"
	OriginExplicit   Origin = "explicit"
)

// Definition links a source category column to a target column.
type Definition struct {
	Name   string    `yaml:"name,omitempty" json:"name,omitempty"`
	Source ColumnRef `yaml:"source" json:"source"`
	Target ColumnRef `yaml:"target" json:"target"`
	// Label is an optional column of the target table holding the leaf
	// label for each target value. Empty means the target value is the label.
	Label      string             `yaml:"label,omitempty" json:"label,omitempty"`
	Origin     Origin             `yaml:"origin,omitempty" json:"origin"`
	Confidence float64            `yaml:"confidence,omitempty" json:"confidence"`
	MatchType  discover.MatchType `yaml:"match_type,omitempty" json:"match_type,omitempty"`
	// Values pins source values to leaf labels, bypassing matching.
	Values map[string]string `yaml:"values,omitempty" json:"values,omitempty"`
}

// Key returns the (source, target) column pair identifying d.
func (d Definition) Key() Key {
	return Key{Source: d.Source, Target: d.Target}
}

// IsExplicit reports whether d was authored by a user.
func (d Definition) IsExplicit() bool {
	return d.Origin == OriginExplicit
}

// withDefaults treats an empty origin as explicit and pins explicit
// definitions to confidence 1.
func (d Definition) withDefaults() Definition {
	if d.Origin == "" {
		d.Origin = OriginExplicit
	}

	if d.IsExplicit() {
		d.Confidence = 1
	}

	return d
}

// Explicit returns a user-authored definition with confidence 1.
func Explicit(source, target ColumnRef) Definition {
	return Definition{
		Source:     source,
		Target:     target,
		Origin:     OriginExplicit,
		Confidence: 1,
	}
}

// FromCandidate turns a discovery candidate into a discovered definition.
func FromCandidate(c discover.Candidate) Definition {
	return Definition{
		Source:     ColumnRef{Alias: c.SourceFile, Column: c.SourceColumn},
		Target:     ColumnRef{Alias: c.TargetFile, Column: c.TargetColumn},
		Origin:     OriginDiscovered,
		Confidence: c.Confidence,
		MatchType:  c.MatchType,
	}
}
