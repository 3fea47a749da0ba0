// Package ir defines the linear instruction set executed by the vm, its
// generator and its text format.
package ir

import (
	"fmt"
	"strconv"
	"strings"
)

// Op is an instruction opcode
type Op int

const (
	LABEL Op = iota
	LOAD_CONST
	LOAD_VAR
	STORE_VAR
	ADD
	SUB
	MUL
	EQ
	CALL
	RETURN
	IFFALSE
	GOTO
)

var opNames = [...]string{
	LABEL:      "LABEL",
	LOAD_CONST: "LOAD_CONST",
	LOAD_VAR:   "LOAD_VAR",
	STORE_VAR:  "STORE_VAR",
	ADD:        "ADD",
	SUB:        "SUB",
	MUL:        "MUL",
	EQ:         "EQ",
	CALL:       "CALL",
	RETURN:     "RETURN",
	IFFALSE:    "IFFALSE",
	GOTO:       "GOTO",
}

var opcodes = func() map[string]Op {
	m := make(map[string]Op, len(opNames))
	for op, name := range opNames {
		m[name] = Op(op)
	}
	return m
}()

func (op Op) String() string {
	if op >= 0 && int(op) < len(opNames) {
		return opNames[op]
	}
	return fmt.Sprintf("Op(%d)", int(op))
}

// IsJump reports whether the instruction carries a jump target
func (op Op) IsJump() bool {
	return op == IFFALSE || op == GOTO
}

// Instruction is a single IR instruction. Which fields are used depends on
// Op:
//
//	LOAD_CONST  Dest Value
//	LOAD_VAR    Dest Name
//	STORE_VAR   Name X
//	ADD..EQ     Dest X Y
//	CALL        Name Args Dest
//	RETURN      X
//	IFFALSE     X Target
//	GOTO        Target
//	LABEL
type Instruction struct {
	Op     Op
	Dest   string   // temp written by the instruction
	X, Y   string   // temps read by the instruction
	Name   string   // variable or function name
	Value  int32    // LOAD_CONST literal
	Target int      // absolute instruction index for IFFALSE and GOTO
	Args   []string // CALL argument temps
}

// LoadConst builds LOAD_CONST dest v
func LoadConst(dest string, v int32) Instruction {
	return Instruction{Op: LOAD_CONST, Dest: dest, Value: v}
}

// LoadVar builds LOAD_VAR dest name
func LoadVar(dest, name string) Instruction {
	return Instruction{Op: LOAD_VAR, Dest: dest, Name: name}
}

// StoreVar builds STORE_VAR name src
func StoreVar(name, src string) Instruction {
	return Instruction{Op: STORE_VAR, Name: name, X: src}
}

// Binary builds ADD, SUB, MUL or EQ
func Binary(op Op, dest, x, y string) Instruction {
	return Instruction{Op: op, Dest: dest, X: x, Y: y}
}

// Call builds CALL name dest args...
func Call(name string, args []string, dest string) Instruction {
	return Instruction{Op: CALL, Name: name, Args: args, Dest: dest}
}

// Return builds RETURN src
func Return(src string) Instruction {
	return Instruction{Op: RETURN, X: src}
}

// IfFalse builds IFFALSE cond target
func IfFalse(cond string, target int) Instruction {
	return Instruction{Op: IFFALSE, X: cond, Target: target}
}

// Goto builds GOTO target
func Goto(target int) Instruction {
	return Instruction{Op: GOTO, Target: target}
}

// Label builds a jump landing LABEL
func Label() Instruction {
	return Instruction{Op: LABEL}
}

// Fields returns the mnemonic followed by the operands in text format order
func (in Instruction) Fields() []string {
	f := []string{in.Op.String()}
	switch in.Op {
	case LOAD_CONST:
		f = append(f, in.Dest, strconv.FormatInt(int64(in.Value), 10))
	case LOAD_VAR:
		f = append(f, in.Dest, in.Name)
	case STORE_VAR:
		f = append(f, in.Name, in.X)
	case ADD, SUB, MUL, EQ:
		f = append(f, in.Dest, in.X, in.Y)
	case CALL:
		f = append(f, in.Name, in.Dest)
		f = append(f, in.Args...)
	case RETURN:
		f = append(f, in.X)
	case IFFALSE:
		f = append(f, in.X, strconv.Itoa(in.Target))
	case GOTO:
		f = append(f, strconv.Itoa(in.Target))
	}
	return f
}

func (in Instruction) String() string {
	return strings.Join(in.Fields(), " ")
}

// Function is a compiled function
type Function struct {
	Name   string
	Params []string
	Body   []Instruction
}

// Program is a table of functions keyed by name. Functions keep the order
// in which they were first defined.
type Program struct {
	funcs []*Function
	index map[string]int
}

// NewProgram returns a Program containing fns, in order
func NewProgram(fns ...*Function) *Program {
	p := &Program{index: make(map[string]int)}
	for _, fn := range fns {
		p.Define(fn)
	}
	return p
}

// Define adds fn to the table. It reports whether fn replaced an existing
// function of the same name; the replacement keeps the old position.
func (p *Program) Define(fn *Function) (replaced bool) {
	if p.index == nil {
		p.index = make(map[string]int)
	}
	if i, ok := p.index[fn.Name]; ok {
		p.funcs[i] = fn
		return true
	}
	p.index[fn.Name] = len(p.funcs)
	p.funcs = append(p.funcs, fn)
	return false
}

// Lookup returns the function named name
func (p *Program) Lookup(name string) (*Function, bool) {
	i, ok := p.index[name]
	if !ok {
		return nil, false
	}
	return p.funcs[i], true
}

// Funcs returns the functions in definition order
func (p *Program) Funcs() []*Function {
	return p.funcs
}

// Len returns the number of functions
func (p *Program) Len() int {
	return len(p.funcs)
}
