package match

import (
	"strings"

	"crossmap/internal/common"
)

// Blend weights for Score. They sum to 1 so the score stays in [0,1].
const (
	tokenWeight = 0.5
	editWeight  = 0.5
)

// Score returns the similarity of two values in [0,1].
//
//	score = 0.5 * Jaccard(word tokens) + 0.5 * LevenshteinRatio
//
// computed on normalized text. Identical normalized strings score exactly 1,
// and an empty side scores 0. Both terms are symmetric, so Score(a, b) == Score(b, a).
func Score(a, b string) float64 {
	return ScoreNormalized(Normalize(a), Normalize(b))
}

// ScoreLabels is Score for column labels (see NormalizeLabel).
func ScoreLabels(a, b string) float64 {
	return ScoreNormalized(NormalizeLabel(a), NormalizeLabel(b))
}

// ScoreNormalized scores two strings that are already normalized.
func ScoreNormalized(na, nb string) float64 {
	if na == "" || nb == "" {
		return 0
	}

	if na == nb {
		return 1
	}

	s := tokenWeight*jaccard(strings.Fields(na), strings.Fields(nb)) +
		editWeight*LevenshteinRatio(na, nb)

	return common.Clamp01(s)
}

// jaccard is |A ∩ B| / |A ∪ B| over token sets.
func jaccard(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}

	set := make(map[string]uint8, len(a)+len(b))
	for _, t := range a {
		set[t] |= 1
	}

	for _, t := range b {
		set[t] |= 2
	}

	inter := 0

	for _, m := range set {
		if m == 3 {
			inter++
		}
	}

	return float64(inter) / float64(len(set))
}
