package match

import (
	"sort"
)

// Confidence thresholds shared by discovery and value resolution.
const (
	// DefaultThreshold is the minimum score for a value or column match.
	DefaultThreshold = 0.7
	// DefaultAmbiguityGap is the score difference below which two top matches are ambiguous.
	DefaultAmbiguityGap = 0.1
)

// Match is one scored candidate.
type Match struct {
	Candidate string  `json:"candidate"`
	Score     float64 `json:"score"`
}

// Ranking is a list of matches ordered best first.
type Ranking []Match

// Rank scores every candidate against value and orders them by score
// descending, then shorter candidate, then candidate text.
func Rank(value string, candidates []string) Ranking {
	nv := Normalize(value)

	ranking := make(Ranking, 0, len(candidates))
	for _, c := range candidates {
		ranking = append(ranking, Match{
			Candidate: c,
			Score:     ScoreNormalized(nv, Normalize(c)),
		})
	}

	sort.Sort(ranking)

	return ranking
}

// Len implements sort.Interface.
func (r Ranking) Len() int { return len(r) }

// Swap implements sort.Interface.
func (r Ranking) Swap(i, j int) { r[i], r[j] = r[j], r[i] }

// Less implements sort.Interface.
func (r Ranking) Less(i, j int) bool {
	return Better(r[i], r[j])
}

// Better reports whether a ranks ahead of b.
func Better(a, b Match) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}

	la, lb := runeLen(a.Candidate), runeLen(b.Candidate)
	if la != lb {
		return la < lb
	}

	return a.Candidate < b.Candidate
}

// Top returns the top n matches.
func (r Ranking) Top(n int) Ranking {
	if n >= len(r) {
		return r
	}

	return r[:n]
}

// Best returns the best match, or nil if there are none.
func (r Ranking) Best() *Match {
	if len(r) == 0 {
		return nil
	}

	return &r[0]
}

// AboveThreshold returns the matches scoring at least threshold.
func (r Ranking) AboveThreshold(threshold float64) Ranking {
	var out Ranking

	for _, m := range r {
		if m.Score >= threshold {
			out = append(out, m)
		}
	}

	return out
}

// IsAmbiguous returns true if the top two matches are within gap of each other.
func (r Ranking) IsAmbiguous(gap float64) bool {
	if len(r) < 2 {
		return false
	}

	return r[0].Score-r[1].Score < gap
}
