// Package calculator evaluates plain arithmetic expressions for the model.
//
// The accepted language is deliberately tiny: decimal literals, the binary
// operators + - * / % ^ (with ** accepted as ^), unary minus/plus and
// parentheses. Anything else is rejected before parsing starts.
//
// Precedence, tightest first:
//
//	( ... )
//	unary - +        (applies to a single atom, so -2^2 == 4)
//	^                (chained left to right, so 2^3^2 == 64)
//	* / %            (left to right)
//	+ -              (left to right)
//
// Exponent chains associate to the left; existing game content depends on it.
package calculator

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// Evaluate parses and evaluates expr. The result is always finite.
func Evaluate(expr string) (float64, error) {
	src := strings.ReplaceAll(expr, "**", "^")
	if err := checkCharacters(src); err != nil {
		return 0, err
	}

	p := &parser{src: src}
	p.skipSpace()
	if p.eof() {
		return 0, &SyntaxError{Position: p.pos, Msg: "empty expression"}
	}

	root, err := p.parseSum()
	if err != nil {
		return 0, err
	}
	p.skipSpace()
	if !p.eof() {
		return 0, &SyntaxError{Position: p.pos, Msg: "unexpected " + strconv.QuoteRune(rune(p.src[p.pos]))}
	}

	return root.eval()
}

func checkCharacters(src string) error {
	for i, r := range src {
		switch {
		case r >= '0' && r <= '9':
		case strings.ContainsRune(".+-*/%^() \t\r\n", r):
		default:
			return &InvalidCharacterError{Char: r, Position: i}
		}
	}
	return nil
}

// -- AST --

type node interface {
	eval() (float64, error)
}

type number float64

func (n number) eval() (float64, error) {
	return finite(float64(n))
}

type negate struct {
	operand node
}

func (n negate) eval() (float64, error) {
	v, err := n.operand.eval()
	if err != nil {
		return 0, err
	}
	return -v, nil
}

type binary struct {
	op          byte
	left, right node
}

func (n binary) eval() (float64, error) {
	l, err := n.left.eval()
	if err != nil {
		return 0, err
	}
	r, err := n.right.eval()
	if err != nil {
		return 0, err
	}

	switch n.op {
	case '+':
		return finite(l + r)
	case '-':
		return finite(l - r)
	case '*':
		return finite(l * r)
	case '/':
		if r == 0 {
			return 0, ErrDivisionByZero
		}
		return finite(l / r)
	case '%':
		if r == 0 {
			return 0, ErrDivisionByZero
		}
		return finite(math.Mod(l, r))
	case '^':
		return finite(math.Pow(l, r))
	}
	panic("calculator: unknown operator " + string(n.op))
}

func finite(v float64) (float64, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrNonFiniteResult
	}
	return v, nil
}

// -- Parser --

// parser is a recursive-descent parser with one method per precedence level.
// It only ever sees input that passed checkCharacters, so it can work on bytes.
type parser struct {
	src string
	pos int
}

func (p *parser) eof() bool {
	return p.pos >= len(p.src)
}

func (p *parser) skipSpace() {
	for !p.eof() {
		switch p.src[p.pos] {
		case ' ', '\t', '\r', '\n':
			p.pos++
		default:
			return
		}
	}
}

// peek returns the next non-space byte, or 0 at end of input.
func (p *parser) peek() byte {
	p.skipSpace()
	if p.eof() {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) parseSum() (node, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for {
		op := p.peek()
		if op != '+' && op != '-' {
			return left, nil
		}
		p.pos++
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = binary{op: op, left: left, right: right}
	}
}

func (p *parser) parseTerm() (node, error) {
	left, err := p.parsePower()
	if err != nil {
		return nil, err
	}
	for {
		op := p.peek()
		if op != '*' && op != '/' && op != '%' {
			return left, nil
		}
		p.pos++
		right, err := p.parsePower()
		if err != nil {
			return nil, err
		}
		left = binary{op: op, left: left, right: right}
	}
}

func (p *parser) parsePower() (node, error) {
	left, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	for p.peek() == '^' {
		p.pos++
		right, err := p.parseAtom()
		if err != nil {
			return nil, err
		}
		left = binary{op: '^', left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseAtom() (node, error) {
	switch c := p.peek(); {
	case c == 0:
		return nil, &SyntaxError{Position: p.pos, Msg: "expected operand, got end of input"}
	case c == '-':
		p.pos++
		operand, err := p.parseAtom()
		if err != nil {
			return nil, err
		}
		return negate{operand: operand}, nil
	case c == '+':
		p.pos++
		return p.parseAtom()
	case c == '(':
		open := p.pos
		p.pos++
		inner, err := p.parseSum()
		if err != nil {
			return nil, err
		}
		if p.peek() != ')' {
			return nil, &SyntaxError{Position: p.pos, Msg: "missing ')' for '(' at position " + strconv.Itoa(open)}
		}
		p.pos++
		return inner, nil
	case c == '.' || (c >= '0' && c <= '9'):
		return p.parseNumber()
	default:
		return nil, &SyntaxError{Position: p.pos, Msg: "expected operand, got " + strconv.QuoteRune(rune(c))}
	}
}

func (p *parser) parseNumber() (node, error) {
	start := p.pos
	digits, dots := 0, 0
	for !p.eof() {
		c := p.src[p.pos]
		if c == '.' {
			dots++
		} else if c >= '0' && c <= '9' {
			digits++
		} else {
			break
		}
		p.pos++
	}

	lit := p.src[start:p.pos]
	if digits == 0 || dots > 1 {
		return nil, &SyntaxError{Position: start, Msg: "malformed number " + strconv.Quote(lit)}
	}
	v, err := strconv.ParseFloat(lit, 64)
	if errors.Is(err, strconv.ErrRange) {
		return nil, ErrNonFiniteResult
	}
	if err != nil {
		return nil, &SyntaxError{Position: start, Msg: "malformed number " + strconv.Quote(lit)}
	}
	return number(v), nil
}
