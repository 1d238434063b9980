package equation

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ErrSyntax is matched by SyntaxError.
var ErrSyntax = errors.New("equation syntax error")

// SyntaxError reports where parsing stopped. Pos is a byte offset.
type SyntaxError struct {
	Input string
	Pos   int
	Msg   string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%v at offset %d: %s", ErrSyntax, e.Pos, e.Msg)
}

func (e *SyntaxError) Unwrap() error { return ErrSyntax }

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokName
	tokPlus
	tokMinus
	tokLParen
	tokRParen
	tokEquals
)

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "end of input"
	case tokName:
		return "name"
	case tokPlus:
		return "'+'"
	case tokMinus:
		return "'-'"
	case tokLParen:
		return "'('"
	case tokRParen:
		return "')'"
	case tokEquals:
		return "'='"
	default:
		return "token"
	}
}

type token struct {
	kind tokenKind
	text string
	pos  int
}

func isBareRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || strings.ContainsRune("_.&'’", r)
}

// lex splits input into tokens.
func lex(input string) ([]token, error) {
	var toks []token

	for i := 0; i < len(input); {
		r, size := utf8.DecodeRuneInString(input[i:])

		switch {
		case unicode.IsSpace(r):
			i += size
		case r == '+':
			toks = append(toks, token{tokPlus, "+", i})
			i++
		case r == '-':
			toks = append(toks, token{tokMinus, "-", i})
			i++
		case r == '(':
			toks = append(toks, token{tokLParen, "(", i})
			i++
		case r == ')':
			toks = append(toks, token{tokRParen, ")", i})
			i++
		case r == '=':
			toks = append(toks, token{tokEquals, "=", i})
			i++
		case r == '[' || r == '"':
			closer := "]"
			if r == '"' {
				closer = `"`
			}

			end := strings.Index(input[i+1:], closer)
			if end < 0 {
				return nil, &SyntaxError{Input: input, Pos: i, Msg: "unterminated name"}
			}

			name := strings.TrimSpace(input[i+1 : i+1+end])
			if name == "" {
				return nil, &SyntaxError{Input: input, Pos: i, Msg: "empty name"}
			}

			toks = append(toks, token{tokName, name, i})
			i += end + 2
		case isBareRune(r):
			start := i
			for i < len(input) {
				r, size := utf8.DecodeRuneInString(input[i:])
				if !isBareRune(r) && r != ' ' && r != '\t' {
					break
				}

				i += size
			}

			toks = append(toks, token{tokName, strings.TrimSpace(input[start:i]), start})
		default:
			return nil, &SyntaxError{Input: input, Pos: i, Msg: fmt.Sprintf("unexpected character %q", r)}
		}
	}

	return append(toks, token{tokEOF, "", len(input)}), nil
}
