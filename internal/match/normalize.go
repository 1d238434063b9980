package match

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize prepares a value for matching.
// The normalization pipeline:
// 1. Fold diacritics (é -> e).
// 2. Case-fold to lower.
// 3. Drop apostrophes, turn every other non-alphanumeric rune into a space.
// 4. Collapse whitespace and trim.
func Normalize(s string) string {
	s = foldDiacritics(s)

	var b strings.Builder

	b.Grow(len(s))

	pendingSpace := false

	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}

			pendingSpace = false

			b.WriteRune(r)
		case r == '\'' || r == '’':
			// "owner's" and "owners" are the same label
		default:
			pendingSpace = true
		}
	}

	return b.String()
}

// NormalizeLabel normalizes a column label. CamelCase and acronym boundaries
// become word boundaries first, so "TotalAssets" and "total_assets" agree.
func NormalizeLabel(s string) string {
	return Normalize(strings.Join(tokenizeCamelCase(s), " "))
}

// Tokenize splits a string into normalized word tokens.
func Tokenize(s string) []string {
	return strings.Fields(Normalize(s))
}

// foldDiacritics strips combining marks after canonical decomposition.
// Transformers carry state, so a fresh chain is built per call.
func foldDiacritics(s string) string {
	if isASCII(s) {
		return s
	}

	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

	folded, _, err := transform.String(t, s)
	if err != nil {
		return s
	}

	return folded
}

func isASCII(s string) bool {
	for i := range len(s) {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}

	return true
}

// tokenizeCamelCase splits a CamelCase or camelCase string into tokens.
// Examples:
//   - "TotalAssets" -> ["Total", "Assets"]
//   - "GLAccount" -> ["GL", "Account"]
//   - "account_code" -> ["account", "code"]
func tokenizeCamelCase(s string) []string {
	if s == "" {
		return nil
	}

	var tokens []string

	var current strings.Builder

	rs := []rune(s)
	for i := range rs {
		r := rs[i]

		if isSeparator(r) {
			if current.Len() > 0 {
				tokens = append(tokens, current.String())
				current.Reset()
			}

			continue
		}

		if i > 0 && shouldStartNewToken(rs, i) && current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}

		current.WriteRune(r)
	}

	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}

	return tokens
}

func isSeparator(r rune) bool {
	return r == '_' || r == '-' || r == ' ' || r == '.' || r == '/'
}

// shouldStartNewToken determines if a new token should start at position i.
func shouldStartNewToken(rs []rune, i int) bool {
	r := rs[i]
	prev := rs[i-1]

	// lower -> Upper: "orderID" splits before 'I'
	if unicode.IsUpper(r) && !unicode.IsUpper(prev) && !isSeparator(prev) {
		return true
	}

	// end of acronym: "GLAccount" splits before 'A'
	hasNextLower := i+1 < len(rs) && unicode.IsLower(rs[i+1])

	return unicode.IsUpper(r) && unicode.IsUpper(prev) && hasNextLower
}
