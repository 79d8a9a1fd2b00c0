package parser

import (
	"errors"
	"fmt"

	"github.com/example/boardcalc/internal/formula/lexer"
)

// DefaultMaxDepth bounds parenthesis and sign nesting so a pathological
// expression cannot exhaust the stack.
const DefaultMaxDepth = 256

// Error reports why an expression was rejected.
type Error struct {
	Msg string
	Pos int
}

func (e *Error) Error() string {
	return "parser: " + e.Msg
}

// ErrTooDeep is returned when nesting exceeds the configured depth.
var ErrTooDeep = errors.New("parser: expression nested too deeply")

// Parse parses an arithmetic expression using DefaultMaxDepth.
func Parse(input string) (Expression, error) {
	return ParseWithDepth(input, DefaultMaxDepth)
}

// ParseWithDepth parses an arithmetic expression consisting of numeric
// literals, + - * /, unary signs and parentheses.
func ParseWithDepth(input string, maxDepth int) (Expression, error) {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	p := &Parser{lex: lexer.New(input), maxDepth: maxDepth}
	p.nextToken()
	p.nextToken()
	if p.curToken.Type == lexer.EOF {
		return nil, &Error{Msg: "empty expression"}
	}
	expr, err := p.parseExpression(lowestPrecedence)
	if err != nil {
		return nil, err
	}
	if p.curToken.Type != lexer.EOF {
		return nil, p.unexpected()
	}
	return expr, nil
}

// Parser implements a small precedence-climbing parser.
type Parser struct {
	lex       *lexer.Lexer
	curToken  lexer.Token
	peekToken lexer.Token
	depth     int
	maxDepth  int
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.lex.Next()
}

const (
	lowestPrecedence   = 0
	additivePrecedence = 1
	multiplyPrecedence = 2
	prefixPrecedence   = 3
)

func (p *Parser) enter() error {
	p.depth++
	if p.depth > p.maxDepth {
		return ErrTooDeep
	}
	return nil
}

func (p *Parser) leave() {
	p.depth--
}

func (p *Parser) parseExpression(precedence int) (Expression, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	left, err := p.parsePrefix()
	if err != nil {
		return nil, err
	}
	for {
		op, prec, ok := binaryOpForToken(p.curToken.Type)
		if !ok || precedence >= prec {
			break
		}
		p.nextToken()
		right, err := p.parseExpression(prec)
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Left: left, Right: right, Op: op}
	}
	return left, nil
}

func (p *Parser) parsePrefix() (Expression, error) {
	switch p.curToken.Type {
	case lexer.Number:
		lit := &NumberLit{Value: p.curToken.Literal}
		p.nextToken()
		return lit, nil
	case lexer.Plus, lexer.Minus:
		op := UnaryPlus
		if p.curToken.Type == lexer.Minus {
			op = UnaryMinus
		}
		p.nextToken()
		operand, err := p.parseExpression(prefixPrecedence)
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Op: op, Expr: operand}, nil
	case lexer.LParen:
		p.nextToken()
		expr, err := p.parseExpression(lowestPrecedence)
		if err != nil {
			return nil, err
		}
		if p.curToken.Type != lexer.RParen {
			return nil, &Error{Msg: fmt.Sprintf("expected ) but found %s", describe(p.curToken)), Pos: p.curToken.Pos}
		}
		p.nextToken()
		return expr, nil
	default:
		return nil, p.unexpected()
	}
}

func (p *Parser) unexpected() error {
	return &Error{Msg: fmt.Sprintf("unexpected %s", describe(p.curToken)), Pos: p.curToken.Pos}
}

func describe(tok lexer.Token) string {
	switch tok.Type {
	case lexer.EOF:
		return "end of expression"
	case lexer.Illegal:
		return fmt.Sprintf("character %q", tok.Literal)
	default:
		return fmt.Sprintf("token %q", tok.Literal)
	}
}

func binaryOpForToken(tt lexer.TokenType) (BinaryOp, int, bool) {
	switch tt {
	case lexer.Plus:
		return BinaryAdd, additivePrecedence, true
	case lexer.Minus:
		return BinarySubtract, additivePrecedence, true
	case lexer.Star:
		return BinaryMultiply, multiplyPrecedence, true
	case lexer.Slash:
		return BinaryDivide, multiplyPrecedence, true
	default:
		return "", 0, false
	}
}

func precedenceForBinary(op BinaryOp) int {
	switch op {
	case BinaryAdd, BinarySubtract:
		return additivePrecedence
	case BinaryMultiply, BinaryDivide:
		return multiplyPrecedence
	default:
		return lowestPrecedence
	}
}
