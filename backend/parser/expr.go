package parser

import (
	"github.com/tenntenn/minilang/backend/ast"
	"github.com/tenntenn/minilang/backend/token"
)

// parseExpr parses a binary expression whose operators bind at least as
// tightly as minPrec.
func (p *Parser) parseExpr(minPrec int) (ast.Expr, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	for {
		op := p.cur
		prec := op.Kind.Precedence()
		if prec == 0 || prec < minPrec {
			return left, nil
		}
		if err := p.next(); err != nil {
			return nil, err
		}

		right, err := p.parseExpr(prec + 1)
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOp{Pos: op.Pos, Left: left, Op: op.Kind, Right: right}
	}
}

// parsePrimary parses an integer literal, a variable or a call
func (p *Parser) parsePrimary() (ast.Expr, error) {
	tok := p.cur
	switch tok.Kind {
	case token.INT:
		if err := p.next(); err != nil {
			return nil, err
		}
		return &ast.NumberLit{Pos: tok.Pos, Value: tok.Value}, nil

	case token.IDENT:
		if err := p.next(); err != nil {
			return nil, err
		}
		if p.cur.Kind != token.LPAREN {
			return &ast.VarRef{Pos: tok.Pos, Name: tok.Text}, nil
		}
		args, err := p.parseArgs()
		if err != nil {
			return nil, err
		}
		return &ast.Call{Pos: tok.Pos, Name: tok.Text, Args: args}, nil
	}

	return nil, p.errorf("invalid expression")
}

// parseArgs parses `( expr, ... )`. The current token is the (.
func (p *Parser) parseArgs() ([]ast.Expr, error) {
	if err := p.next(); err != nil {
		return nil, err
	}

	args := []ast.Expr{}
	for p.cur.Kind != token.RPAREN {
		arg, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if err := p.skip(token.COMMA); err != nil {
			return nil, err
		}
	}
	return args, p.next()
}
