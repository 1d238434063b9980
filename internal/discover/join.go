package discover

// JoinPath is a suggested join between two tables backed by a strong
// candidate.
type JoinPath struct {
	Path       string   `json:"path"`
	Files      []string `json:"files_involved"`
	Confidence float64  `json:"confidence"`
}

// JoinPaths suggests joins for candidates with confidence of at least
// JoinConfidence, in candidate order.
func JoinPaths(candidates CandidateList) []JoinPath {
	var out []JoinPath

	for _, c := range candidates {
		if c.Confidence < JoinConfidence {
			continue
		}

		out = append(out, JoinPath{
			Path:       c.SourceFile + "." + c.SourceColumn + " -> " + c.TargetFile + "." + c.TargetColumn,
			Files:      []string{c.SourceFile, c.TargetFile},
			Confidence: c.Confidence,
		})
	}

	return out
}
