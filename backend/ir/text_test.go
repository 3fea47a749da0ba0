package ir_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/tenntenn/minilang/backend/ir"
)

const roundTripSrc = `
fn fact(n) { if (n == 0) { return 1; } return n * fact(n - 1); }
fn pick(a, b, c) { if (a == b) { return c; } else { let d = c + 1; return d; } }
fn noargs() { return noargs2(); }
fn noargs2() { let x = 2147483647; return x - 2147483647; }
fn main() { return fact(5) + pick(1, 1, 3); }
`

func TestRoundTrip(t *testing.T) {
	prog, _ := generate(t, roundTripSrc)

	text := ir.Marshal(prog)
	loaded, err := ir.Unmarshal(text)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if diff := cmp.Diff(prog.Funcs(), loaded.Funcs(), cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("round trip mismatch (-generated +loaded):\n%s", diff)
	}
	if again := ir.Marshal(loaded); !bytes.Equal(text, again) {
		t.Errorf("re-serialized text differs:\n%s\n---\n%s", text, again)
	}
}

func TestParseTolerance(t *testing.T) {
	src := `

FUNC main
    LOAD_CONST t0 -5

	RETURN   t0
ENDFUNC
FUNC id x
  LOAD_VAR t0 x
  RETURN t0
ENDFUNC
FUNC main
  LOAD_CONST t0 7
  RETURN t0
ENDFUNC
`
	prog, err := ir.Parse(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}

	want := []*ir.Function{
		{Name: "main", Body: []ir.Instruction{ir.LoadConst("t0", 7), ir.Return("t0")}},
		{Name: "id", Params: []string{"x"}, Body: []ir.Instruction{ir.LoadVar("t0", "x"), ir.Return("t0")}},
	}
	if diff := cmp.Diff(want, prog.Funcs(), cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("functions mismatch (-want +got):\n%s", diff)
	}
}

func TestParseCall(t *testing.T) {
	prog, err := ir.Unmarshal([]byte("FUNC f\n  CALL g t9 t1 t2\n  CALL h t3\nENDFUNC\n"))
	if err != nil {
		t.Fatal(err)
	}
	f, _ := prog.Lookup("f")
	want := []ir.Instruction{
		ir.Call("g", []string{"t1", "t2"}, "t9"),
		ir.Call("h", nil, "t3"),
	}
	if diff := cmp.Diff(want, f.Body, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		line int
		msg  string
	}{
		{"unknown opcode", "FUNC f\n  DIV t0 t1 t2\nENDFUNC\n", 2, "unknown opcode DIV"},
		{"too few operands", "FUNC f\n  ADD t0 t1\nENDFUNC\n", 2, "ADD takes 3 operands, got 2"},
		{"too many operands", "FUNC f\n  RETURN t0 t1\nENDFUNC\n", 2, "RETURN takes 1 operands, got 2"},
		{"label operand", "FUNC f\n  LABEL x\nENDFUNC\n", 2, "LABEL takes 0 operands"},
		{"short call", "FUNC f\n  CALL g\nENDFUNC\n", 2, "CALL needs a function and a destination"},
		{"bad constant", "FUNC f\n  LOAD_CONST t0 x\nENDFUNC\n", 2, "bad constant x"},
		{"constant overflow", "FUNC f\n  LOAD_CONST t0 4294967296\nENDFUNC\n", 2, "bad constant"},
		{"negative target", "FUNC f\n  GOTO -1\nENDFUNC\n", 2, "bad jump target -1"},
		{"target out of range", "FUNC f\n  LABEL\n\n  IFFALSE t0 3\nENDFUNC\n", 4, "jump target 3 out of range"},
		{"missing name", "FUNC\nENDFUNC\n", 1, "missing function name"},
		{"missing endfunc", "\nFUNC f\n  LABEL\n", 2, "missing ENDFUNC"},
		{"nested func", "FUNC f\nFUNC g\nENDFUNC\n", 2, "FUNC inside function f"},
		{"stray endfunc", "ENDFUNC\n", 1, "ENDFUNC outside of a function"},
		{"stray instruction", "RETURN t0\n", 1, "instruction outside of a function"},
		{"line too long", "FUNC f\n  CALL g r" + strings.Repeat(" t0", 400000) + "\nENDFUNC\n", 2, "token too long"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ir.Unmarshal([]byte(tt.src))
			if !errors.Is(err, ir.ErrMalformed) {
				t.Fatalf("expected ErrMalformed, got %v", err)
			}
			var ferr *ir.FormatError
			if !errors.As(err, &ferr) {
				t.Fatalf("expected *FormatError, got %T", err)
			}
			if ferr.Line != tt.line {
				t.Errorf("expected line %d, got %d", tt.line, ferr.Line)
			}
			if !strings.Contains(ferr.Msg, tt.msg) {
				t.Errorf("expected message containing %q, got %q", tt.msg, ferr.Msg)
			}
		})
	}
}

func TestTargetAtEndIsValid(t *testing.T) {
	_, err := ir.Unmarshal([]byte("FUNC f\n  GOTO 1\nENDFUNC\n"))
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestFormatEmpty(t *testing.T) {
	if got := ir.Marshal(ir.NewProgram()); len(got) != 0 {
		t.Errorf("expected empty output, got %q", got)
	}
}
