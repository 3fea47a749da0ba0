package ir

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrMalformed is wrapped by every *FormatError
var ErrMalformed = errors.New("malformed IR")

// FormatError reports a line of IR text that could not be decoded
type FormatError struct {
	Line int    // 1-based line number
	Text string // the offending line, trimmed
	Msg  string
}

func (e *FormatError) Error() string {
	if e.Text == "" {
		return fmt.Sprintf("line %d: %v: %s", e.Line, ErrMalformed, e.Msg)
	}
	return fmt.Sprintf("line %d: %v: %s: %q", e.Line, ErrMalformed, e.Msg, e.Text)
}

func (e *FormatError) Unwrap() error { return ErrMalformed }

// Format writes the text form of prog to w:
//
//	FUNC <name> <params...>
//	  <OPCODE> <operands...>
//	ENDFUNC
//
// Each function block is followed by one blank line.
func Format(w io.Writer, prog *Program) error {
	bw := bufio.NewWriter(w)
	for _, fn := range prog.Funcs() {
		header := append([]string{"FUNC", fn.Name}, fn.Params...)
		fmt.Fprintln(bw, strings.Join(header, " "))
		for _, in := range fn.Body {
			fmt.Fprintln(bw, "  "+in.String())
		}
		fmt.Fprint(bw, "ENDFUNC\n\n")
	}
	return bw.Flush()
}

// Marshal returns the text form of prog
func Marshal(prog *Program) []byte {
	var buf bytes.Buffer
	// Writes to a bytes.Buffer cannot fail.
	_ = Format(&buf, prog)
	return buf.Bytes()
}

// operand counts for the fixed-arity opcodes
var arity = map[Op]int{
	LABEL:      0,
	LOAD_CONST: 2,
	LOAD_VAR:   2,
	STORE_VAR:  2,
	ADD:        3,
	SUB:        3,
	MUL:        3,
	EQ:         3,
	RETURN:     1,
	IFFALSE:    2,
	GOTO:       1,
}

// Parse reads IR text produced by Format. Blank lines are skipped. When a
// function name repeats, the last definition wins.
func Parse(r io.Reader) (*Program, error) {
	prog := NewProgram()
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var (
		fn      *Function
		fnLine  int
		lines   []int // source line of each instruction of fn
		lineNum int
	)
	for sc.Scan() {
		lineNum++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)

		switch {
		case fields[0] == "FUNC":
			if fn != nil {
				return nil, &FormatError{Line: lineNum, Text: line, Msg: "FUNC inside function " + fn.Name}
			}
			if len(fields) < 2 {
				return nil, &FormatError{Line: lineNum, Text: line, Msg: "missing function name"}
			}
			fn = &Function{Name: fields[1], Params: fields[2:]}
			fnLine = lineNum
			lines = lines[:0]

		case fields[0] == "ENDFUNC":
			if fn == nil {
				return nil, &FormatError{Line: lineNum, Text: line, Msg: "ENDFUNC outside of a function"}
			}
			if len(fields) != 1 {
				return nil, &FormatError{Line: lineNum, Text: line, Msg: "ENDFUNC takes no operands"}
			}
			if err := checkTargets(fn, lines); err != nil {
				return nil, err
			}
			prog.Define(fn)
			fn = nil

		case fn == nil:
			return nil, &FormatError{Line: lineNum, Text: line, Msg: "instruction outside of a function"}

		default:
			in, err := parseInstruction(fields)
			if err != nil {
				return nil, &FormatError{Line: lineNum, Text: line, Msg: err.Error()}
			}
			fn.Body = append(fn.Body, in)
			lines = append(lines, lineNum)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, &FormatError{Line: lineNum + 1, Msg: err.Error()}
	}
	if fn != nil {
		return nil, &FormatError{Line: fnLine, Text: "FUNC " + fn.Name, Msg: "missing ENDFUNC"}
	}
	return prog, nil
}

// Unmarshal parses the text form of a program
func Unmarshal(data []byte) (*Program, error) {
	return Parse(bytes.NewReader(data))
}

func parseInstruction(fields []string) (Instruction, error) {
	op, ok := opcodes[fields[0]]
	if !ok {
		return Instruction{}, fmt.Errorf("unknown opcode %s", fields[0])
	}
	ops := fields[1:]

	if op == CALL {
		if len(ops) < 2 {
			return Instruction{}, fmt.Errorf("CALL needs a function and a destination, got %d operands", len(ops))
		}
		return Call(ops[0], ops[2:], ops[1]), nil
	}
	if n := arity[op]; len(ops) != n {
		return Instruction{}, fmt.Errorf("%s takes %d operands, got %d", op, n, len(ops))
	}

	switch op {
	case LOAD_CONST:
		v, err := strconv.ParseInt(ops[1], 10, 32)
		if err != nil {
			return Instruction{}, fmt.Errorf("bad constant %s", ops[1])
		}
		return LoadConst(ops[0], int32(v)), nil
	case LOAD_VAR:
		return LoadVar(ops[0], ops[1]), nil
	case STORE_VAR:
		return StoreVar(ops[0], ops[1]), nil
	case ADD, SUB, MUL, EQ:
		return Binary(op, ops[0], ops[1], ops[2]), nil
	case RETURN:
		return Return(ops[0]), nil
	case IFFALSE:
		target, err := parseTarget(ops[1])
		if err != nil {
			return Instruction{}, err
		}
		return IfFalse(ops[0], target), nil
	case GOTO:
		target, err := parseTarget(ops[0])
		if err != nil {
			return Instruction{}, err
		}
		return Goto(target), nil
	}
	return Label(), nil
}

func parseTarget(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("bad jump target %s", s)
	}
	return n, nil
}

// checkTargets verifies that every jump stays inside fn. A target equal to
// the body length falls through to the end.
func checkTargets(fn *Function, lines []int) error {
	for i, in := range fn.Body {
		if in.Op.IsJump() && in.Target > len(fn.Body) {
			return &FormatError{
				Line: lines[i],
				Text: in.String(),
				Msg:  fmt.Sprintf("jump target %d out of range in %s (%d instructions)", in.Target, fn.Name, len(fn.Body)),
			}
		}
	}
	return nil
}
