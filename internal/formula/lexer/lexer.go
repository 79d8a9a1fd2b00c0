package lexer

import (
	"fmt"
	"unicode"
)

// TokenType identifies lexical tokens of the arithmetic sub-language.
type TokenType int

const (
	EOF TokenType = iota
	Illegal
	Number
	Plus
	Minus
	Star
	Slash
	LParen
	RParen
)

func (t TokenType) String() string {
	switch t {
	case EOF:
		return "end of expression"
	case Illegal:
		return "illegal"
	case Number:
		return "number"
	case Plus:
		return "+"
	case Minus:
		return "-"
	case Star:
		return "*"
	case Slash:
		return "/"
	case LParen:
		return "("
	case RParen:
		return ")"
	default:
		return "unknown"
	}
}

// Token represents a lexical item and its rune offset in the input.
type Token struct {
	Type    TokenType
	Literal string
	Pos     int
}

// Lexer tokenises an arithmetic expression. Only numeric literals, the four
// operators and parentheses are recognised; anything else is Illegal.
type Lexer struct {
	input []rune
	pos   int
}

// New initialises a lexer for the provided expression.
func New(input string) *Lexer {
	return &Lexer{input: []rune(input)}
}

// Next returns the next token from the stream.
func (l *Lexer) Next() Token {
	l.skipWhitespace()
	if l.pos >= len(l.input) {
		return Token{Type: EOF, Pos: l.pos}
	}

	start := l.pos
	ch := l.input[l.pos]
	switch ch {
	case '+':
		l.pos++
		return Token{Type: Plus, Literal: "+", Pos: start}
	case '-':
		l.pos++
		return Token{Type: Minus, Literal: "-", Pos: start}
	case '*':
		l.pos++
		return Token{Type: Star, Literal: "*", Pos: start}
	case '/':
		l.pos++
		return Token{Type: Slash, Literal: "/", Pos: start}
	case '(':
		l.pos++
		return Token{Type: LParen, Literal: "(", Pos: start}
	case ')':
		l.pos++
		return Token{Type: RParen, Literal: ")", Pos: start}
	}

	if isDigit(ch) || (ch == '.' && l.pos+1 < len(l.input) && isDigit(l.input[l.pos+1])) {
		return l.scanNumber()
	}

	l.pos++
	return Token{Type: Illegal, Literal: string(ch), Pos: start}
}

// Tokens drains the lexer. It stops at the first Illegal token and reports
// it as an error.
func (l *Lexer) Tokens() ([]Token, error) {
	var out []Token
	for {
		tok := l.Next()
		if tok.Type == Illegal {
			return nil, fmt.Errorf("lexer: unexpected character %q at position %d", tok.Literal, tok.Pos)
		}
		out = append(out, tok)
		if tok.Type == EOF {
			return out, nil
		}
	}
}

func (l *Lexer) scanNumber() Token {
	start := l.pos
	seenDot := false
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		if isDigit(ch) {
			l.pos++
			continue
		}
		if ch == '.' && !seenDot {
			seenDot = true
			l.pos++
			continue
		}
		break
	}
	// Optional exponent, only consumed when digits follow.
	if l.pos < len(l.input) && (l.input[l.pos] == 'e' || l.input[l.pos] == 'E') {
		j := l.pos + 1
		if j < len(l.input) && (l.input[j] == '+' || l.input[j] == '-') {
			j++
		}
		digits := j
		for j < len(l.input) && isDigit(l.input[j]) {
			j++
		}
		if j > digits {
			l.pos = j
		}
	}
	return Token{Type: Number, Literal: string(l.input[start:l.pos]), Pos: start}
}

// isDigit accepts ASCII digits only; decimal.NewFromString rejects others.
func isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.input) {
		if unicode.IsSpace(l.input[l.pos]) {
			l.pos++
			continue
		}
		break
	}
}
