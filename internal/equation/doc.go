// Package equation parses and evaluates restricted arithmetic identities
// over named rollup totals.
//
// The grammar admits names, '+', '-', parentheses and a single '=':
//
//	equation := expr [ '=' expr ]      // no '=' means "expr = 0"
//	expr     := term { ('+' | '-') term }
//	term     := [ '+' | '-' ] ( name | '(' expr ')' )
//	name     := bare | '[' any ']' | '"' any '"'
//
// A bare name is a run of letters, digits, spaces and the characters
// _ . & ' with surrounding spaces trimmed. Names containing '-', '+',
// '=' or parentheses must be bracketed or quoted. Nothing else is
// accepted, and evaluation never leaves the parsed tree.
package equation
