// Package vm executes IR programs.
//
// Each call creates an activation with its own locals and temps. Activations
// live on an explicit frame stack driven by a single dispatch loop, so deep
// recursion in the interpreted program is bounded by WithMaxDepth instead of
// the Go stack.
package vm

import (
	"context"
	"errors"
	"fmt"

	"github.com/tenntenn/minilang/backend/ir"
)

// Runtime failures wrapped by *Error
var (
	// ErrUndefinedFunction is returned when a called function does not exist
	ErrUndefinedFunction = errors.New("function not found")
	// ErrMissingTemp is returned when a temp is read before any write
	ErrMissingTemp       = errors.New("temp read before it was written")
	// ErrArity is returned when a call passes fewer arguments than parameters
	ErrArity             = errors.New("too few arguments")
	// ErrStackOverflow is returned when a call would exceed the depth limit
	ErrStackOverflow     = errors.New("call depth limit exceeded")
	// ErrStepLimit is returned when a run executes more instructions than allowed
	ErrStepLimit         = errors.New("step limit exceeded")
)

// Error is a runtime failure together with the instruction that caused it
type Error struct {
	Func string
	PC   int // -1 when the failure happened before the first instruction
	Inst ir.Instruction
	Err  error
}

func (e *Error) Error() string {
	if e.PC < 0 {
		return fmt.Sprintf("vm: %s: %v", e.Func, e.Err)
	}
	return fmt.Sprintf("vm: %s@%d (%s): %v", e.Func, e.PC, e.Inst, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// DefaultMaxDepth is the call depth limit used when WithMaxDepth is not given
const DefaultMaxDepth = 10000

// checkEvery is how many instructions run between context checks
const checkEvery = 1 << 10

// TraceFunc observes every instruction right before it executes
type TraceFunc func(fn string, pc int, in ir.Instruction, depth int)

// Option configures a VM
type Option func(*VM)

// WithMaxDepth limits the number of live activations. Values below 1
// select DefaultMaxDepth.
func WithMaxDepth(n int) Option {
	return func(m *VM) {
		if n <= 0 {
			n = DefaultMaxDepth
		}
		m.maxDepth = n
	}
}

// WithMaxSteps limits the number of executed instructions per Run.
// Zero means no limit.
func WithMaxSteps(n int64) Option {
	return func(m *VM) { m.maxSteps = n }
}

// WithTrace installs a trace hook
func WithTrace(fn TraceFunc) Option {
	return func(m *VM) { m.trace = fn }
}

// VM runs functions of a Program. The program is only read, so a VM may be
// used by several goroutines at once.
type VM struct {
	prog     *ir.Program
	maxDepth int
	maxSteps int64
	trace    TraceFunc
}

// New creates a VM for prog
func New(prog *ir.Program, opts ...Option) *VM {
	m := &VM{prog: prog, maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// frame is one activation
type frame struct {
	fn     *ir.Function
	locals map[string]int32
	temps  map[string]int32
	pc     int
	dest   string // caller temp receiving the result
}

func (f *frame) temp(name string) (int32, error) {
	v, ok := f.temps[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrMissingTemp, name)
	}
	return v, nil
}

func (m *VM) newFrame(name string, args []int32) (*frame, error) {
	fn, ok := m.prog.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUndefinedFunction, name)
	}
	if len(args) < len(fn.Params) {
		return nil, fmt.Errorf("%w: %s takes %d, got %d", ErrArity, name, len(fn.Params), len(args))
	}

	f := &frame{
		fn:     fn,
		locals: make(map[string]int32, len(fn.Params)),
		temps:  make(map[string]int32),
	}
	for i, p := range fn.Params {
		f.locals[p] = args[i]
	}
	return f, nil
}

// Run calls the function name with args and returns its result
func (m *VM) Run(ctx context.Context, name string, args ...int32) (int32, error) {
	entry, err := m.newFrame(name, args)
	if err != nil {
		return 0, &Error{Func: name, PC: -1, Err: err}
	}

	stack := []*frame{entry}
	var steps int64
	for {
		f := stack[len(stack)-1]

		// Running off the end of the body returns 0.
		if f.pc >= len(f.fn.Body) {
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return 0, nil
			}
			stack[len(stack)-1].temps[f.dest] = 0
			continue
		}

		steps++
		if m.maxSteps > 0 && steps > m.maxSteps {
			return 0, m.fail(f, ErrStepLimit)
		}
		if steps%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return 0, m.fail(f, err)
			}
		}

		in := f.fn.Body[f.pc]
		if m.trace != nil {
			m.trace(f.fn.Name, f.pc, in, len(stack))
		}

		switch in.Op {
		case ir.LOAD_CONST:
			f.temps[in.Dest] = in.Value

		case ir.LOAD_VAR:
			// Unset locals read as 0.
			f.temps[in.Dest] = f.locals[in.Name]

		case ir.STORE_VAR:
			v, err := f.temp(in.X)
			if err != nil {
				return 0, m.fail(f, err)
			}
			f.locals[in.Name] = v

		case ir.ADD, ir.SUB, ir.MUL, ir.EQ:
			x, err := f.temp(in.X)
			if err != nil {
				return 0, m.fail(f, err)
			}
			y, err := f.temp(in.Y)
			if err != nil {
				return 0, m.fail(f, err)
			}
			f.temps[in.Dest] = arith(in.Op, x, y)

		case ir.IFFALSE:
			c, err := f.temp(in.X)
			if err != nil {
				return 0, m.fail(f, err)
			}
			if c == 0 {
				f.pc = in.Target
				continue
			}

		case ir.GOTO:
			f.pc = in.Target
			continue

		case ir.RETURN:
			v, err := f.temp(in.X)
			if err != nil {
				return 0, m.fail(f, err)
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return v, nil
			}
			stack[len(stack)-1].temps[f.dest] = v
			continue

		case ir.CALL:
			args := make([]int32, len(in.Args))
			for i, a := range in.Args {
				v, err := f.temp(a)
				if err != nil {
					return 0, m.fail(f, err)
				}
				args[i] = v
			}
			if len(stack) >= m.maxDepth {
				return 0, m.fail(f, ErrStackOverflow)
			}
			callee, err := m.newFrame(in.Name, args)
			if err != nil {
				return 0, m.fail(f, err)
			}
			callee.dest = in.Dest
			f.pc++
			stack = append(stack, callee)
			continue

		case ir.LABEL:
		}
		f.pc++
	}
}

func (m *VM) fail(f *frame, err error) error {
	return &Error{Func: f.fn.Name, PC: f.pc, Inst: f.fn.Body[f.pc], Err: err}
}

func arith(op ir.Op, x, y int32) int32 {
	switch op {
	case ir.ADD:
		return x + y
	case ir.SUB:
		return x - y
	case ir.MUL:
		return x * y
	}
	if x == y {
		return 1
	}
	return 0
}
