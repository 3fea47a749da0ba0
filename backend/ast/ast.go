// Package ast declares the syntax tree produced by the parser.
package ast

import "github.com/tenntenn/minilang/backend/token"

// Node is implemented by every tree node
type Node interface {
	Position() token.Pos
}

// Expr is an expression node
type Expr interface {
	Node
	exprNode()
}

// Stmt is a statement node
type Stmt interface {
	Node
	stmtNode()
}

type (
	// NumberLit is an integer literal
	NumberLit struct {
		Pos   token.Pos
		Value int32
	}

	// VarRef reads a variable
	VarRef struct {
		Pos  token.Pos
		Name string
	}

	// BinaryOp applies Op to Left and Right.
	// Op is one of PLUS, MINUS, STAR, SLASH or EQ.
	BinaryOp struct {
		Pos   token.Pos // operator position
		Left  Expr
		Op    token.Kind
		Right Expr
	}

	// Call invokes a function by name
	Call struct {
		Pos  token.Pos
		Name string
		Args []Expr
	}
)

type (
	// Block is an ordered list of statements between braces
	Block struct {
		Pos   token.Pos
		Stmts []Stmt
	}

	// VarDecl is `let Name = Init`
	VarDecl struct {
		Pos  token.Pos
		Name string
		Init Expr
	}

	// If is a conditional. Else is nil when there is no else branch.
	If struct {
		Pos  token.Pos
		Cond Expr
		Then *Block
		Else *Block
	}

	// Return ends the current function with Value
	Return struct {
		Pos   token.Pos
		Value Expr
	}

	// FuncDecl declares a function
	FuncDecl struct {
		Pos    token.Pos
		Name   string
		Params []string
		Body   *Block
	}
)

// Program is the root of a parsed file
type Program struct {
	File  string
	Stmts []Stmt
}

func (n *NumberLit) Position() token.Pos { return n.Pos }
func (n *VarRef) Position() token.Pos    { return n.Pos }
func (n *BinaryOp) Position() token.Pos  { return n.Pos }
func (n *Call) Position() token.Pos      { return n.Pos }
func (n *Block) Position() token.Pos     { return n.Pos }
func (n *VarDecl) Position() token.Pos   { return n.Pos }
func (n *If) Position() token.Pos        { return n.Pos }
func (n *Return) Position() token.Pos    { return n.Pos }
func (n *FuncDecl) Position() token.Pos  { return n.Pos }

func (*NumberLit) exprNode() {}
func (*VarRef) exprNode()    {}
func (*BinaryOp) exprNode()  {}
func (*Call) exprNode()      {}

func (*VarDecl) stmtNode()  {}
func (*If) stmtNode()       {}
func (*Return) stmtNode()   {}
func (*FuncDecl) stmtNode() {}

// Funcs returns the top-level function declarations in source order
func (p *Program) Funcs() []*FuncDecl {
	var fns []*FuncDecl
	for _, s := range p.Stmts {
		if fn, ok := s.(*FuncDecl); ok {
			fns = append(fns, fn)
		}
	}
	return fns
}
