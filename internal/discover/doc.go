// Package discover proposes column mappings between loaded tables.
//
// For every column of a designated source table and every column of the
// other tables, Discover combines value evidence with column-name
// similarity:
//
//	exact  = |S ∩ T| / |S|                       over normalized samples
//	fuzzy  = share of S whose best match in T scores ≥ threshold
//	value  = max(exact, fuzzy)
//	conf   = value + NameWeight · nameScore · (1 − value)
//
// Pairs are scored in parallel. A lossless blocking index skips target
// values that provably cannot reach the threshold, so results are the same
// as comparing every value pair, and the output order never depends on
// scheduling.
package discover
