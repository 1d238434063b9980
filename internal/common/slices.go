package common

import (
	"cmp"
	"slices"
)

// Head returns at most the first n elements of s.
func Head[S ~[]E, E any](s S, n int) S {
	return s[:min(len(s), max(n, 0))]
}

// SortedKeys returns the keys of m in ascending order.
// Map iteration order is random; anything that feeds a report goes through here.
func SortedKeys[M ~map[K]V, K cmp.Ordered, V any](m M) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	slices.Sort(keys)

	return keys
}

// Clamp01 limits v to the closed interval [0, 1].
func Clamp01(v float64) float64 {
	return min(max(v, 0), 1)
}
