// Package mapping holds mapping definitions: the link between a source
// column carrying category values and a target column whose values name
// hierarchy leaves.
//
// Definitions come from two places. Discovery proposes them with a
// confidence; users pin them explicitly in YAML. For any (source, target)
// column pair an explicit definition always wins over a discovered one.
//
// # File format
//
//	version: "1"
//	name: balance-sheet
//	definitions:
//	  - source: ledger.account
//	    target: coa.code
//	    label: name            # optional: leaf label taken from coa.name
//	    values:                # optional: value -> leaf label overrides
//	      "1000-OLD": Cash
//	  - source:
//	      alias: report.v2     # mapping form for aliases containing dots
//	      column: line
//	    target: structure.element
//
// Explicit entries default to confidence 1.0. Discovered entries keep the
// confidence and match type reported by discovery.
//
// # Value resolution
//
// Each distinct source value resolves to a leaf label by, in order: an
// explicit override, an exact normalized match against the target values,
// the best fuzzy match at or above the threshold. Anything else stays
// unresolved; no parent is ever guessed.
package mapping
