// Package match provides text normalization, edit distance, similarity
// scoring, and candidate ranking for column and value matching.
//
// Key functions:
//   - Normalize: folds case, diacritics and punctuation for value matching
//   - NormalizeLabel: additionally splits CamelCase column labels
//   - Score: symmetric [0,1] similarity blending token overlap and edit distance
//   - Rank: orders candidates by score with deterministic tie-breaks
//   - Compatible: compares inferred column kinds before value matching
//
// Everything here is a pure function; callers may use it from any goroutine.
package match
