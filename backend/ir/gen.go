package ir

import (
	"fmt"
	"strconv"

	"github.com/tenntenn/minilang/backend/ast"
	"github.com/tenntenn/minilang/backend/diag"
	"github.com/tenntenn/minilang/backend/token"
)

// Generator lowers ast programs to IR
type Generator struct {
	warnings diag.List
}

// NewGenerator creates a Generator
func NewGenerator() *Generator {
	return &Generator{}
}

// Warnings returns the diagnostics reported for constructs that were
// dropped during generation
func (g *Generator) Warnings() diag.List {
	return g.warnings
}

// Generate compiles every top-level function declaration of progs, in
// order, into one Program. A later declaration replaces an earlier one of
// the same name. Other top-level statements are ignored.
func (g *Generator) Generate(progs ...*ast.Program) *Program {
	out := NewProgram()
	for _, prog := range progs {
		if prog == nil {
			continue
		}
		for _, stmt := range prog.Stmts {
			decl, ok := stmt.(*ast.FuncDecl)
			if !ok {
				g.warnings.Warnf(stmt.Position(), "ignoring top-level %T", stmt)
				continue
			}
			if out.Define(g.function(decl)) {
				g.warnings.Warnf(decl.Pos, "function %s redefined", decl.Name)
			}
		}
	}
	return out
}

func (g *Generator) function(decl *ast.FuncDecl) *Function {
	fg := &funcGen{g: g}
	if decl.Body != nil {
		fg.stmts(decl.Body.Stmts)
	}
	return &Function{
		Name:   decl.Name,
		Params: append([]string(nil), decl.Params...),
		Body:   fg.body,
	}
}

// funcGen holds the per-function generation state
type funcGen struct {
	g     *Generator
	body  []Instruction
	temps int
}

func (fg *funcGen) newTemp() string {
	t := "t" + strconv.Itoa(fg.temps)
	fg.temps++
	return t
}

func (fg *funcGen) emit(in Instruction) int {
	fg.body = append(fg.body, in)
	return len(fg.body) - 1
}

var binaryOps = map[token.Kind]Op{
	token.PLUS:  ADD,
	token.MINUS: SUB,
	token.STAR:  MUL,
	token.EQ:    EQ,
}

// expr emits code computing e and returns the temp holding the result
func (fg *funcGen) expr(e ast.Expr) string {
	switch e := e.(type) {
	case *ast.NumberLit:
		t := fg.newTemp()
		fg.emit(LoadConst(t, e.Value))
		return t

	case *ast.VarRef:
		t := fg.newTemp()
		fg.emit(LoadVar(t, e.Name))
		return t

	case *ast.BinaryOp:
		l := fg.expr(e.Left)
		r := fg.expr(e.Right)
		t := fg.newTemp()
		op, ok := binaryOps[e.Op]
		if !ok {
			// The result temp is never written; reading it fails at run time.
			fg.g.warnings.Warnf(e.Pos, "operator %s has no instruction, %s is left unset", e.Op, t)
			return t
		}
		fg.emit(Binary(op, t, l, r))
		return t

	case *ast.Call:
		args := make([]string, 0, len(e.Args))
		for _, a := range e.Args {
			args = append(args, fg.expr(a))
		}
		t := fg.newTemp()
		fg.emit(Call(e.Name, args, t))
		return t
	}

	panic(fmt.Sprintf("ir: unexpected expression %T", e))
}

func (fg *funcGen) stmts(list []ast.Stmt) {
	for _, s := range list {
		fg.stmt(s)
	}
}

func (fg *funcGen) stmt(s ast.Stmt) {
	switch s := s.(type) {
	case *ast.VarDecl:
		t := fg.expr(s.Init)
		fg.emit(StoreVar(s.Name, t))

	case *ast.Return:
		t := fg.expr(s.Value)
		fg.emit(Return(t))

	case *ast.If:
		c := fg.expr(s.Cond)
		ifFalse := fg.emit(IfFalse(c, 0))
		if s.Then != nil {
			fg.stmts(s.Then.Stmts)
		}
		if s.Else != nil {
			jump := fg.emit(Goto(0))
			fg.body[ifFalse].Target = len(fg.body)
			fg.stmts(s.Else.Stmts)
			fg.body[jump].Target = len(fg.body)
		} else {
			fg.body[ifFalse].Target = len(fg.body)
		}
		fg.emit(Label())

	default:
		fg.g.warnings.Warnf(s.Position(), "ignoring nested %T", s)
	}
}
