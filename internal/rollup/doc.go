// Package rollup aggregates source amounts bottom-up through a hierarchy
// forest.
//
// Amounts attach to leaves through a LeafMap keyed by raw category value.
// Category values missing from the map land in the unmapped bucket; they
// never reach any node total and are always reported with their amounts.
//
//	node_total = direct leaf sum + Σ child_total × multiplier × sign(operator)
package rollup
