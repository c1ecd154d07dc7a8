package tool

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// CalculateInput is the input for the calculate tool.
type CalculateInput struct {
	Expression string `json:"expression"`
}

// CalculateOutput is the success payload for the calculate tool.
type CalculateOutput struct {
	Result float64 `json:"result"`
}

// allowedExpression is an allow-list, not a denylist: anything outside
// digits, basic operators, parentheses, dot and space is rejected before the
// expression reaches the evaluator.
var allowedExpression = regexp.MustCompile(`^[0-9+\-*/(). ]+$`)

// NewCalculator creates the calculate tool.
// It evaluates basic arithmetic with its own parser; there is no dynamic
// code execution anywhere on this path.
func NewCalculator() Descriptor {
	return New(
		"calculate",
		"Evaluate a basic arithmetic expression containing numbers, + - * /, parentheses and decimal points. Use this for any math the user asks for.",
		func(in CalculateInput) string {
			return fmt.Sprintf("Calculating %q...", in.Expression)
		},
		func(_ context.Context, in CalculateInput) (any, error) {
			expr := strings.TrimSpace(in.Expression)
			if expr == "" {
				return nil, fmt.Errorf("empty expression")
			}
			if !allowedExpression.MatchString(expr) {
				return nil, fmt.Errorf("expression contains disallowed characters")
			}

			result, err := evalExpression(expr)
			if err != nil {
				return nil, err
			}
			if math.IsNaN(result) || math.IsInf(result, 0) {
				return nil, fmt.Errorf("expression does not produce a finite number")
			}
			return CalculateOutput{Result: result}, nil
		},
	)
}

// evalExpression evaluates an arithmetic expression with standard
// precedence using a small recursive-descent parser.
//
// Grammar:
//
//	expr   = term { ("+" | "-") term }
//	term   = factor { ("*" | "/") factor }
//	factor = number | "(" expr ")" | ("+" | "-") factor
func evalExpression(expr string) (float64, error) {
	p := &exprParser{input: expr}
	v, err := p.parseExpr()
	if err != nil {
		return 0, err
	}
	p.skipSpaces()
	if p.pos != len(p.input) {
		return 0, fmt.Errorf("unexpected character at position %d", p.pos)
	}
	return v, nil
}

type exprParser struct {
	input string
	pos   int
}

func (p *exprParser) skipSpaces() {
	for p.pos < len(p.input) && p.input[p.pos] == ' ' {
		p.pos++
	}
}

func (p *exprParser) peek() (byte, bool) {
	p.skipSpaces()
	if p.pos >= len(p.input) {
		return 0, false
	}
	return p.input[p.pos], true
}

func (p *exprParser) parseExpr() (float64, error) {
	left, err := p.parseTerm()
	if err != nil {
		return 0, err
	}
	for {
		op, ok := p.peek()
		if !ok || (op != '+' && op != '-') {
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

func (p *exprParser) parseTerm() (float64, error) {
	left, err := p.parseFactor()
	if err != nil {
		return 0, err
	}
	for {
		op, ok := p.peek()
		if !ok || (op != '*' && op != '/') {
			return left, nil
		}
		p.pos++
		right, err := p.parseFactor()
		if err != nil {
			return 0, err
		}
		if op == '*' {
			left *= right
		} else {
			// Division by zero falls through as ±Inf and is rejected by
			// the finiteness check at the tool boundary.
			left /= right
		}
	}
}

func (p *exprParser) parseFactor() (float64, error) {
	c, ok := p.peek()
	if !ok {
		return 0, fmt.Errorf("unexpected end of expression")
	}

	switch {
	case c == '(':
		p.pos++
		v, err := p.parseExpr()
		if err != nil {
			return 0, err
		}
		if c, ok := p.peek(); !ok || c != ')' {
			return 0, fmt.Errorf("missing closing parenthesis")
		}
		p.pos++
		return v, nil

	case c == '+':
		p.pos++
		return p.parseFactor()

	case c == '-':
		p.pos++
		v, err := p.parseFactor()
		return -v, err

	default:
		return p.parseNumber()
	}
}

func (p *exprParser) parseNumber() (float64, error) {
	p.skipSpaces()
	start := p.pos
	for p.pos < len(p.input) && (p.input[p.pos] >= '0' && p.input[p.pos] <= '9' || p.input[p.pos] == '.') {
		p.pos++
	}
	if start == p.pos {
		return 0, fmt.Errorf("expected a number at position %d", start)
	}
	v, err := strconv.ParseFloat(p.input[start:p.pos], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", p.input[start:p.pos])
	}
	return v, nil
}
