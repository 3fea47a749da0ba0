// Package parser builds an ast.Program from minilang source.
//
// The grammar is parsed by recursive descent. Binary operators are parsed
// by precedence climbing:
//
//	==      1
//	+ -     2
//	* /     3
package parser

import (
	"errors"
	"fmt"

	"github.com/tenntenn/minilang/backend/ast"
	"github.com/tenntenn/minilang/backend/diag"
	"github.com/tenntenn/minilang/backend/lexer"
	"github.com/tenntenn/minilang/backend/token"
)

// ErrSyntax is wrapped by every *Error
var ErrSyntax = errors.New("syntax error")

// Error reports a token sequence that matches no grammar production
type Error struct {
	Pos token.Pos
	Tok token.Token
	Msg string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v: %s, found %s", e.Pos, ErrSyntax, e.Msg, e.Tok)
}

func (e *Error) Unwrap() error { return ErrSyntax }

// Parser consumes tokens from a lexer one at a time
type Parser struct {
	lx       *lexer.Lexer
	file     string
	cur      token.Token
	warnings diag.List
}

// New creates a Parser reading from lx. The first token is scanned
// immediately, so a lexical error may be returned here.
func New(filename string, lx *lexer.Lexer) (*Parser, error) {
	p := &Parser{lx: lx, file: filename}
	if err := p.next(); err != nil {
		return nil, err
	}
	return p, nil
}

// ParseFile parses a whole source file
func ParseFile(filename, src string) (*ast.Program, diag.List, error) {
	p, err := New(filename, lexer.New(filename, src))
	if err != nil {
		return nil, nil, err
	}
	prog, err := p.ParseProgram()
	return prog, p.Warnings(), err
}

// Warnings returns the diagnostics reported for tolerated input
func (p *Parser) Warnings() diag.List {
	return p.warnings
}

func (p *Parser) next() error {
	tok, err := p.lx.Next()
	if err != nil {
		return err
	}
	p.cur = tok
	return nil
}

func (p *Parser) errorf(format string, args ...any) error {
	return &Error{Pos: p.cur.Pos, Tok: p.cur, Msg: fmt.Sprintf(format, args...)}
}

// expect consumes the current token if it has kind k
func (p *Parser) expect(k token.Kind, what string) (token.Token, error) {
	tok := p.cur
	if tok.Kind != k {
		return tok, p.errorf("expected %s", what)
	}
	return tok, p.next()
}

// skip consumes the current token if it has kind k
func (p *Parser) skip(k token.Kind) error {
	if p.cur.Kind != k {
		return nil
	}
	return p.next()
}

// ParseProgram parses top-level function declarations until EOF.
// Any other top-level token is skipped with a warning.
func (p *Parser) ParseProgram() (*ast.Program, error) {
	prog := &ast.Program{File: p.file}
	for p.cur.Kind != token.EOF {
		if p.cur.Kind != token.FN {
			p.warnings.Warnf(p.cur.Pos, "skipping %s outside of a function", p.cur)
			if err := p.next(); err != nil {
				return prog, err
			}
			continue
		}

		fn, err := p.parseFunction()
		if err != nil {
			return prog, err
		}
		prog.Stmts = append(prog.Stmts, fn)
	}
	return prog, nil
}
