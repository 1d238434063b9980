package discover

import (
	"slices"
	"strings"

	"crossmap/internal/match"
)

// valueSet holds the distinct normalized sample values of one column, with
// the first original text seen for each.
type valueSet struct {
	norm     []string // sorted
	original map[string]string
	member   map[string]struct{}
}

func newValueSet(samples []string) valueSet {
	vs := valueSet{
		original: make(map[string]string, len(samples)),
		member:   make(map[string]struct{}, len(samples)),
	}

	for _, s := range samples {
		n := match.Normalize(s)
		if n == "" {
			continue
		}

		if _, dup := vs.member[n]; dup {
			continue
		}

		vs.member[n] = struct{}{}
		vs.original[n] = s
		vs.norm = append(vs.norm, n)
	}

	slices.Sort(vs.norm)

	return vs
}

func (vs valueSet) has(n string) bool {
	_, ok := vs.member[n]
	return ok
}

// blockIndex narrows the target values worth scoring against a query.
//
// Score is 0.5·Jaccard + 0.5·ratio, and ratio ≤ min(len)/max(len), so a
// target whose length ratio to the query is below 2t−1 scores below t.
// When t > 0.5 a target sharing no token has Jaccard 0 and scores at most
// 0.5. Skipping both kinds of target never changes the best match.
type blockIndex struct {
	values  []string
	lengths []int
	byToken map[string][]int
}

func newBlockIndex(values []string) *blockIndex {
	idx := &blockIndex{
		values:  values,
		lengths: make([]int, len(values)),
		byToken: make(map[string][]int),
	}

	for i, v := range values {
		idx.lengths[i] = len([]rune(v))

		for _, tok := range uniqueFields(v) {
			idx.byToken[tok] = append(idx.byToken[tok], i)
		}
	}

	return idx
}

func uniqueFields(s string) []string {
	fields := strings.Fields(s)
	slices.Sort(fields)

	return slices.Compact(fields)
}

// candidates returns indices of values that may score at least threshold
// against query, in ascending order.
func (idx *blockIndex) candidates(query string, threshold float64) []int {
	qlen := len([]rune(query))
	minRatio := 2*threshold - 1

	keep := func(i int) bool {
		if minRatio <= 0 {
			return true
		}

		lo, hi := min(qlen, idx.lengths[i]), max(qlen, idx.lengths[i])

		return hi > 0 && float64(lo)/float64(hi) >= minRatio
	}

	var out []int

	if threshold <= 0.5 {
		for i := range idx.values {
			if keep(i) {
				out = append(out, i)
			}
		}

		return out
	}

	seen := make(map[int]struct{})

	for _, tok := range uniqueFields(query) {
		for _, i := range idx.byToken[tok] {
			if _, dup := seen[i]; dup {
				continue
			}

			seen[i] = struct{}{}

			if keep(i) {
				out = append(out, i)
			}
		}
	}

	slices.Sort(out)

	return out
}

// best returns the best-scoring value for query among the blocked
// candidates, with the Rank tie-break.
func (idx *blockIndex) best(query string, threshold float64) (match.Match, bool) {
	var (
		top   match.Match
		found bool
	)

	for _, i := range idx.candidates(query, threshold) {
		m := match.Match{Candidate: idx.values[i], Score: match.ScoreNormalized(query, idx.values[i])}
		if !found || match.Better(m, top) {
			top, found = m, true
		}
	}

	return top, found
}
