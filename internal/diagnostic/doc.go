// Package diagnostic collects non-fatal findings produced while building
// hierarchies, validating mapping definitions and discovering relationships.
//
// Findings carry a stable code (for example "level_mismatch") so callers can
// filter them, a subject (a table alias, element label or definition key)
// and an optional element within that subject.
package diagnostic
