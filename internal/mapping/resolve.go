package mapping

import (
	"slices"

	"crossmap/internal/match"
	"crossmap/internal/table"
)

// Resolution methods.
const (
	MethodExplicit   = "explicit"
	MethodExact      = "exact"
	MethodFuzzy      = "fuzzy"
	MethodUnresolved = "unresolved"
)

// Target is one distinct value of a target column with its leaf label.
type Target struct {
	Value string
	Label string
}

// Resolution is the outcome for one distinct source value.
type Resolution struct {
	Value     string  `json:"value"`
	Label     string  `json:"label,omitempty"`
	Score     float64 `json:"score"`
	Method    string  `json:"method"`
	Ambiguous bool    `json:"ambiguous,omitempty"`
}

// Resolved reports whether a leaf label was found.
func (r Resolution) Resolved() bool {
	return r.Method != MethodUnresolved
}

// Targets reads the distinct target values of d from t, in first-seen
// order. The label comes from d.Label when set.
func Targets(d Definition, t *table.Table) ([]Target, error) {
	values, err := t.Column(d.Target.Column)
	if err != nil {
		return nil, err
	}

	var labels []table.Value
	if d.Label != "" {
		if labels, err = t.Column(d.Label); err != nil {
			return nil, err
		}
	}

	seen := make(map[string]struct{}, len(values))

	var out []Target

	for i, v := range values {
		if v.IsBlank() {
			continue
		}

		if _, dup := seen[v.Text]; dup {
			continue
		}

		seen[v.Text] = struct{}{}

		label := v.Text
		if labels != nil && !labels[i].IsBlank() {
			label = labels[i].Text
		}

		out = append(out, Target{Value: v.Text, Label: label})
	}

	return out, nil
}

// Resolve maps each distinct source value to a leaf label. Results are
// sorted by value.
func Resolve(d Definition, values []string, targets []Target, threshold float64) []Resolution {
	byNorm := make(map[string]Target, len(targets))
	candidates := make([]string, 0, len(targets))
	byValue := make(map[string]Target, len(targets))

	for _, t := range targets {
		n := match.Normalize(t.Value)
		if _, dup := byNorm[n]; !dup && n != "" {
			byNorm[n] = t
		}

		if _, dup := byValue[t.Value]; !dup {
			byValue[t.Value] = t
			candidates = append(candidates, t.Value)
		}
	}

	overrides := make(map[string]string, len(d.Values))
	for k, v := range d.Values {
		overrides[match.Normalize(k)] = v
	}

	distinct := slices.Clone(values)
	slices.Sort(distinct)
	distinct = slices.Compact(distinct)

	out := make([]Resolution, 0, len(distinct))

	for _, v := range distinct {
		out = append(out, resolveOne(v, d.Values, overrides, byNorm, byValue, candidates, threshold))
	}

	return out
}

func resolveOne(
	v string,
	exact map[string]string,
	overrides map[string]string,
	byNorm map[string]Target,
	byValue map[string]Target,
	candidates []string,
	threshold float64,
) Resolution {
	if label, ok := exact[v]; ok {
		return Resolution{Value: v, Label: label, Score: 1, Method: MethodExplicit}
	}

	n := match.Normalize(v)
	if n == "" {
		return Resolution{Value: v, Method: MethodUnresolved}
	}

	if label, ok := overrides[n]; ok {
		return Resolution{Value: v, Label: label, Score: 1, Method: MethodExplicit}
	}

	if t, ok := byNorm[n]; ok {
		return Resolution{Value: v, Label: t.Label, Score: 1, Method: MethodExact}
	}

	ranking := match.Rank(v, candidates)

	best := ranking.Best()
	if best == nil || best.Score < threshold {
		r := Resolution{Value: v, Method: MethodUnresolved}
		if best != nil {
			r.Score = best.Score
		}

		return r
	}

	return Resolution{
		Value:     v,
		Label:     byValue[best.Candidate].Label,
		Score:     best.Score,
		Method:    MethodFuzzy,
		Ambiguous: ranking.IsAmbiguous(match.DefaultAmbiguityGap),
	}
}
