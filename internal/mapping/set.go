package mapping

import (
	"maps"
	"slices"
)

// Set holds at most one definition per column pair. It is not safe for
// concurrent use.
type Set struct {
	defs map[Key]Definition
}

// NewSet returns a set holding defs, applied with Put in order.
func NewSet(defs ...Definition) *Set {
	s := &Set{defs: make(map[Key]Definition, len(defs))}
	for _, d := range defs {
		s.Put(d)
	}

	return s
}

// Put stores d unless it would replace an explicit definition with a
// discovered one. It reports whether d was stored.
func (s *Set) Put(d Definition) bool {
	if s.defs == nil {
		s.defs = make(map[Key]Definition)
	}

	k := d.Key()
	if cur, ok := s.defs[k]; ok && cur.IsExplicit() && !d.IsExplicit() {
		return false
	}

	s.defs[k] = d

	return true
}

// Get returns the definition for k.
func (s *Set) Get(k Key) (Definition, bool) {
	d, ok := s.defs[k]
	return d, ok
}

// Delete removes the definition for k.
func (s *Set) Delete(k Key) bool {
	_, ok := s.defs[k]
	delete(s.defs, k)

	return ok
}

// Len returns the number of definitions.
func (s *Set) Len() int {
	return len(s.defs)
}

// All returns every definition in key order.
func (s *Set) All() []Definition {
	keys := slices.SortedFunc(maps.Keys(s.defs), func(a, b Key) int {
		switch {
		case a.Less(b):
			return -1
		case b.Less(a):
			return 1
		default:
			return 0
		}
	})

	out := make([]Definition, len(keys))
	for i, k := range keys {
		out[i] = s.defs[k]
	}

	return out
}

// Active returns definitions with confidence of at least threshold, in key
// order. Explicit definitions are always active.
func (s *Set) Active(threshold float64) []Definition {
	var out []Definition

	for _, d := range s.All() {
		if d.IsExplicit() || d.Confidence >= threshold {
			out = append(out, d)
		}
	}

	return out
}

// Clone returns an independent copy. Definitions share their Values maps.
func (s *Set) Clone() *Set {
	return &Set{defs: maps.Clone(s.defs)}
}
