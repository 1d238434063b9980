package discover

import (
	"fmt"
	"sort"
)

// MatchType says which evidence carried a candidate over the threshold.
type MatchType string

const (
	// MatchExact means enough source values appear verbatim (after
	// normalization) in the target column.
	MatchExact MatchType = "exact"
	// MatchFuzzy means enough source values have a close target value.
	MatchFuzzy MatchType = "fuzzy"
	// MatchValueOverlap means partial value overlap plus a similar column
	// name together reached the threshold.
	MatchValueOverlap MatchType = "value_overlap"
)

// SamplePair is one example value correspondence backing a candidate.
type SamplePair struct {
	SourceValue string  `json:"source_value"`
	TargetValue string  `json:"target_value"`
	Score       float64 `json:"score"`
}

// Candidate is a proposed mapping between two columns of different tables.
type Candidate struct {
	SourceFile   string       `json:"source_file"`
	SourceColumn string       `json:"source_column"`
	TargetFile   string       `json:"target_file"`
	TargetColumn string       `json:"target_column"`
	MatchType    MatchType    `json:"match_type"`
	Confidence   float64      `json:"confidence"`
	NameScore    float64      `json:"name_score"`
	ExactRatio   float64      `json:"exact_ratio"`
	FuzzyRatio   float64      `json:"fuzzy_ratio"`
	Samples      []SamplePair `json:"sample_pairs"`
}

// String renders the candidate as "src.col -> dst.col (type 0.93)".
func (c Candidate) String() string {
	return fmt.Sprintf("%s.%s -> %s.%s (%s %.2f)",
		c.SourceFile, c.SourceColumn, c.TargetFile, c.TargetColumn, c.MatchType, c.Confidence)
}

// CandidateList orders candidates by confidence descending, then by
// source file, source column, target file and target column.
type CandidateList []Candidate

// Len implements sort.Interface.
func (cl CandidateList) Len() int { return len(cl) }

// Swap implements sort.Interface.
func (cl CandidateList) Swap(i, j int) { cl[i], cl[j] = cl[j], cl[i] }

// Less implements sort.Interface.
func (cl CandidateList) Less(i, j int) bool {
	a, b := cl[i], cl[j]
	if a.Confidence != b.Confidence {
		return a.Confidence > b.Confidence
	}

	if a.SourceFile != b.SourceFile {
		return a.SourceFile < b.SourceFile
	}

	if a.SourceColumn != b.SourceColumn {
		return a.SourceColumn < b.SourceColumn
	}

	if a.TargetFile != b.TargetFile {
		return a.TargetFile < b.TargetFile
	}

	return a.TargetColumn < b.TargetColumn
}

// Sort sorts the list in place.
func (cl CandidateList) Sort() {
	sort.Sort(cl)
}

// Best returns the best candidate, or nil if the list is empty.
func (cl CandidateList) Best() *Candidate {
	if len(cl) == 0 {
		return nil
	}

	return &cl[0]
}

// AboveThreshold returns candidates with confidence of at least threshold.
func (cl CandidateList) AboveThreshold(threshold float64) CandidateList {
	var out CandidateList

	for _, c := range cl {
		if c.Confidence >= threshold {
			out = append(out, c)
		}
	}

	return out
}
