// Package lexer turns minilang source text into tokens.
package lexer

import (
	"errors"
	"fmt"
	"strconv"
	"unicode"
	"unicode/utf8"

	"github.com/tenntenn/minilang/backend/token"
)

var (
	// ErrIllegalChar is reported for a character that starts no token
	ErrIllegalChar = errors.New("illegal character")
	// ErrIntOverflow is reported for an integer literal outside the int32 range
	ErrIntOverflow = errors.New("integer literal overflows int32")
)

// Error is a lexical error with its source position
type Error struct {
	Pos  token.Pos
	Char rune   // offending character, for ErrIllegalChar
	Text string // offending literal, for ErrIntOverflow
	Err  error
}

func (e *Error) Error() string {
	if errors.Is(e.Err, ErrIllegalChar) {
		return fmt.Sprintf("%s: %v %q", e.Pos, e.Err, e.Char)
	}
	return fmt.Sprintf("%s: %v: %s", e.Pos, e.Err, e.Text)
}

func (e *Error) Unwrap() error { return e.Err }

// Lexer holds the scan state over a single source text.
// It is not safe for concurrent use.
type Lexer struct {
	file string
	src  string
	off  int // byte offset of the next rune
	line int
	col  int
}

// New creates a Lexer for src. The filename is only used in positions.
func New(filename, src string) *Lexer {
	return &Lexer{file: filename, src: src, line: 1, col: 1}
}

func (l *Lexer) pos() token.Pos {
	return token.Pos{File: l.file, Line: l.line, Column: l.col, Offset: l.off}
}

// peek returns the next rune without consuming it, or 0 at end of input
func (l *Lexer) peek() rune {
	if l.off >= len(l.src) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.src[l.off:])
	return r
}

func (l *Lexer) advance() rune {
	if l.off >= len(l.src) {
		return 0
	}
	r, size := utf8.DecodeRuneInString(l.src[l.off:])
	l.off += size
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r
}

func (l *Lexer) skipWhitespace() {
	for l.off < len(l.src) && unicode.IsSpace(l.peek()) {
		l.advance()
	}
}

func isIdentStart(r rune) bool {
	return unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsNumber(r) || r == '_'
}

func isDigit(r rune) bool {
	return '0' <= r && r <= '9'
}

var singles = map[rune]token.Kind{
	'+': token.PLUS,
	'-': token.MINUS,
	'*': token.STAR,
	'/': token.SLASH,
	'(': token.LPAREN,
	')': token.RPAREN,
	'{': token.LBRACE,
	'}': token.RBRACE,
	';': token.SEMI,
	',': token.COMMA,
}

// Next scans and returns the next token. Once the input is exhausted every
// call returns an EOF token.
func (l *Lexer) Next() (token.Token, error) {
	l.skipWhitespace()
	start := l.pos()
	if l.off >= len(l.src) {
		return token.Token{Kind: token.EOF, Pos: start}, nil
	}

	r := l.peek()
	switch {
	case isIdentStart(r):
		for l.off < len(l.src) && isIdentPart(l.peek()) {
			l.advance()
		}
		text := l.src[start.Offset:l.off]
		return token.Token{Kind: token.Lookup(text), Text: text, Pos: start}, nil

	case isDigit(r):
		for l.off < len(l.src) && isDigit(l.peek()) {
			l.advance()
		}
		text := l.src[start.Offset:l.off]
		v, err := strconv.ParseInt(text, 10, 32)
		if err != nil {
			return token.Token{}, &Error{Pos: start, Text: text, Err: ErrIntOverflow}
		}
		return token.Token{Kind: token.INT, Text: text, Value: int32(v), Pos: start}, nil
	}

	l.advance()
	if r == '=' {
		if l.peek() == '=' {
			l.advance()
			return token.Token{Kind: token.EQ, Text: "==", Pos: start}, nil
		}
		return token.Token{Kind: token.ASSIGN, Text: "=", Pos: start}, nil
	}
	if k, ok := singles[r]; ok {
		return token.Token{Kind: k, Text: string(r), Pos: start}, nil
	}
	return token.Token{}, &Error{Pos: start, Char: r, Err: ErrIllegalChar}
}

// Tokenize scans src to the end and returns every token including the
// final EOF.
func Tokenize(filename, src string) ([]token.Token, error) {
	l := New(filename, src)
	var toks []token.Token
	for {
		tok, err := l.Next()
		if err != nil {
			return toks, err
		}
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			return toks, nil
		}
	}
}
