// Package calc evaluates four-function arithmetic: decimal literals, unary
// sign, + - * / and parentheses. Nothing else is accepted.
package calc

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

// ErrEval matches every evaluation failure.
var ErrEval = errors.New("evaluation error")

// Error reports where and why an expression was rejected.
type Error struct {
	Expr string // Expression being evaluated
	Pos  int    // Byte offset of the failure
	Msg  string
}

// Error implements the error interface
func (e *Error) Error() string {
	return e.Msg
}

// Is reports ErrEval so callers can use errors.Is.
func (e *Error) Is(target error) bool {
	return target == ErrEval
}

// maxDepth bounds parenthesis nesting.
const maxDepth = 256

type parser struct {
	expr  string
	pos   int
	depth int
}

// Eval evaluates expr and returns its value.
func Eval(expr string) (float64, error) {
	p := &parser{expr: expr}
	p.skipSpace()
	if p.eof() {
		return 0, p.fail("empty expression")
	}

	v, err := p.parseExpr()
	if err != nil {
		return 0, err
	}
	p.skipSpace()
	if !p.eof() {
		return 0, p.fail(fmt.Sprintf("unexpected %q at position %d", p.expr[p.pos], p.pos+1))
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, p.fail("result out of range")
	}
	return v, nil
}

// Format renders a value the way the calculator displays it.
func Format(v float64) string {
	if v == 0 {
		// avoid "-0"
		return "0"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// EvalString evaluates expr and formats the result.
func EvalString(expr string) (string, error) {
	v, err := Eval(expr)
	if err != nil {
		return "", err
	}
	return Format(v), nil
}

func (p *parser) fail(msg string) error {
	return &Error{Expr: p.expr, Pos: p.pos, Msg: msg}
}

func (p *parser) eof() bool {
	return p.pos >= len(p.expr)
}

func (p *parser) skipSpace() {
	for !p.eof() {
		switch p.expr[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *parser) peek() byte {
	p.skipSpace()
	if p.eof() {
		return 0
	}
	return p.expr[p.pos]
}

// expr := term (('+' | '-') term)*
func (p *parser) parseExpr() (float64, error) {
	left, err := p.parseTerm()
	if err != nil {
		return 0, err
	}
	for {
		op := p.peek()
		if op != '+' && op != '-' {
			return left, nil
		}
		p.pos++
		right, err := p.parseTerm()
		if err != nil {
			return 0, err
		}
		if op == '+' {
			left += right
		} else {
			left -= right
		}
	}
}

// term := unary (('*' | '/') unary)*
func (p *parser) parseTerm() (float64, error) {
	left, err := p.parseUnary()
	if err != nil {
		return 0, err
	}
	for {
		op := p.peek()
		if op != '*' && op != '/' {
			return left, nil
		}
		opPos := p.pos
		p.pos++
		right, err := p.parseUnary()
		if err != nil {
			return 0, err
		}
		if op == '*' {
			left *= right
			continue
		}
		if right == 0 {
			p.pos = opPos
			return 0, p.fail("division by zero")
		}
		left /= right
	}
}

// unary := ('+' | '-')* primary
func (p *parser) parseUnary() (float64, error) {
	negate := false
	for c := p.peek(); c == '+' || c == '-'; c = p.peek() {
		if c == '-' {
			negate = !negate
		}
		p.pos++
	}

	v, err := p.parsePrimary()
	if negate {
		v = -v
	}
	return v, err
}

// primary := number | '(' expr ')'
func (p *parser) parsePrimary() (float64, error) {
	c := p.peek()
	switch {
	case c == 0:
		return 0, p.fail("unexpected end of expression")
	case c == '(':
		p.depth++
		if p.depth > maxDepth {
			return 0, p.fail("expression nested too deeply")
		}
		p.pos++
		v, err := p.parseExpr()
		if err != nil {
			return 0, err
		}
		if p.peek() != ')' {
			return 0, p.fail("missing closing parenthesis")
		}
		p.pos++
		p.depth--
		return v, nil
	case c == '.' || isDigit(c):
		return p.parseNumber()
	default:
		return 0, p.fail(fmt.Sprintf("unexpected %q at position %d", c, p.pos+1))
	}
}

func (p *parser) parseNumber() (float64, error) {
	start := p.pos
	digits := 0
	for !p.eof() && isDigit(p.expr[p.pos]) {
		p.pos++
		digits++
	}
	if !p.eof() && p.expr[p.pos] == '.' {
		p.pos++
		for !p.eof() && isDigit(p.expr[p.pos]) {
			p.pos++
			digits++
		}
	}
	if digits == 0 {
		p.pos = start
		return 0, p.fail(fmt.Sprintf("invalid number at position %d", start+1))
	}

	literal := p.expr[start:p.pos]
	v, err := strconv.ParseFloat(literal, 64)
	if err != nil {
		p.pos = start
		return 0, p.fail(fmt.Sprintf("invalid number %q", literal))
	}
	return v, nil
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
