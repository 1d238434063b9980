package equation

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Expr is a node of a parsed expression.
type Expr interface {
	eval(values map[string]decimal.Decimal) decimal.Decimal
	collect(names *[]string, seen map[string]struct{})
	format(b *strings.Builder)
}

type nameExpr struct{ name string }

type negExpr struct{ x Expr }

type binaryExpr struct {
	op          byte // '+' or '-'
	left, right Expr
}

type zeroExpr struct{}

func (e nameExpr) eval(values map[string]decimal.Decimal) decimal.Decimal { return values[e.name] }

func (e negExpr) eval(values map[string]decimal.Decimal) decimal.Decimal { return e.x.eval(values).Neg() }

func (e binaryExpr) eval(values map[string]decimal.Decimal) decimal.Decimal {
	l, r := e.left.eval(values), e.right.eval(values)
	if e.op == '-' {
		return l.Sub(r)
	}

	return l.Add(r)
}

func (zeroExpr) eval(map[string]decimal.Decimal) decimal.Decimal { return decimal.Zero }

func (e nameExpr) collect(names *[]string, seen map[string]struct{}) {
	if _, ok := seen[e.name]; !ok {
		seen[e.name] = struct{}{}
		*names = append(*names, e.name)
	}
}

func (e negExpr) collect(names *[]string, seen map[string]struct{}) { e.x.collect(names, seen) }

func (e binaryExpr) collect(names *[]string, seen map[string]struct{}) {
	e.left.collect(names, seen)
	e.right.collect(names, seen)
}

func (zeroExpr) collect(*[]string, map[string]struct{}) {}

func (e nameExpr) format(b *strings.Builder) {
	if isBareName(e.name) {
		b.WriteString(e.name)
		return
	}

	b.WriteString("[" + e.name + "]")
}

func (e negExpr) format(b *strings.Builder) {
	b.WriteString("-")

	if _, simple := e.x.(nameExpr); simple {
		e.x.format(b)
		return
	}

	b.WriteString("(")
	e.x.format(b)
	b.WriteString(")")
}

func (e binaryExpr) format(b *strings.Builder) {
	e.left.format(b)
	b.WriteString(" " + string(e.op) + " ")

	if _, nested := e.right.(binaryExpr); nested {
		b.WriteString("(")
		e.right.format(b)
		b.WriteString(")")

		return
	}

	e.right.format(b)
}

func (zeroExpr) format(b *strings.Builder) { b.WriteString("0") }

func isBareName(s string) bool {
	if s == "" || strings.TrimSpace(s) != s {
		return false
	}

	for _, r := range s {
		if !isBareRune(r) && r != ' ' {
			return false
		}
	}

	return true
}

// Equation is a parsed identity LHS = RHS.
type Equation struct {
	LHS Expr
	RHS Expr
}

// Parse parses input per the package grammar.
func Parse(input string) (*Equation, error) {
	toks, err := lex(input)
	if err != nil {
		return nil, err
	}

	p := &parser{input: input, toks: toks}

	lhs, err := p.expr()
	if err != nil {
		return nil, err
	}

	var rhs Expr = zeroExpr{}

	if p.peek().kind == tokEquals {
		p.next()

		if rhs, err = p.expr(); err != nil {
			return nil, err
		}
	}

	if t := p.peek(); t.kind != tokEOF {
		return nil, p.errorf(t, "unexpected %s", t.kind)
	}

	return &Equation{LHS: lhs, RHS: rhs}, nil
}

// Sum builds the expression n1 + n2 + ... over names.
func Sum(names ...string) Expr {
	if len(names) == 0 {
		return zeroExpr{}
	}

	var e Expr = nameExpr{names[0]}
	for _, n := range names[1:] {
		e = binaryExpr{op: '+', left: e, right: nameExpr{n}}
	}

	return e
}

// Names returns every distinct name in order of first appearance.
func (eq *Equation) Names() []string {
	var names []string

	seen := make(map[string]struct{})
	eq.LHS.collect(&names, seen)
	eq.RHS.collect(&names, seen)

	return names
}

// String returns the canonical text of the equation.
func (eq *Equation) String() string {
	var b strings.Builder

	eq.LHS.format(&b)
	b.WriteString(" = ")
	eq.RHS.format(&b)

	return b.String()
}

type parser struct {
	input string
	toks  []token
	pos   int
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}

	return t
}

func (p *parser) errorf(t token, format string, args ...any) error {
	return &SyntaxError{Input: p.input, Pos: t.pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) expr() (Expr, error) {
	left, err := p.term()
	if err != nil {
		return nil, err
	}

	for {
		t := p.peek()
		if t.kind != tokPlus && t.kind != tokMinus {
			return left, nil
		}

		p.next()

		right, err := p.term()
		if err != nil {
			return nil, err
		}

		left = binaryExpr{op: t.text[0], left: left, right: right}
	}
}

func (p *parser) term() (Expr, error) {
	negate := false

	switch p.peek().kind {
	case tokMinus:
		p.next()

		negate = true
	case tokPlus:
		p.next()
	}

	var (
		e   Expr
		err error
	)

	switch t := p.next(); t.kind {
	case tokName:
		e = nameExpr{t.text}
	case tokLParen:
		if e, err = p.expr(); err != nil {
			return nil, err
		}

		if closing := p.next(); closing.kind != tokRParen {
			return nil, p.errorf(closing, "expected ')' but found %s", closing.kind)
		}
	default:
		return nil, p.errorf(t, "expected name or '(' but found %s", t.kind)
	}

	if negate {
		return negExpr{e}, nil
	}

	return e, nil
}
