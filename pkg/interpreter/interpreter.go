// Package interpreter executes decoded bytecode programs over frames, an
// operand stack per frame and a heap of arrays shared between calls.
package interpreter

import (
	"io"
	"os"

	"jinterp/pkg/bytecode"
	"jinterp/pkg/stack"
)

// DefaultMaxDepth bounds nested method invocations.
const DefaultMaxDepth = 1024

// Status tells how an interpreter instance stopped.
type Status int

const (
	// StatusReturned means a return instruction ended the method.
	StatusReturned Status = iota
	// StatusHalted means an unknown instruction stopped execution.
	StatusHalted
	// StatusExhausted means the call stack ran empty without a return.
	StatusExhausted
)

func (s Status) String() string {
	switch s {
	case StatusReturned:
		return "returned"
	case StatusHalted:
		return "halted"
	case StatusExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// Result is the outcome of Run. Value is void unless a non-void return
// ended the method; Halt names the instruction that halted execution.
type Result struct {
	Status Status
	Value  Value
	Halt   string
}

// Interpreter executes one program. Method invocations spawn a nested
// Interpreter sharing the heap, the method table and the options.
type Interpreter struct {
	program *bytecode.Program
	methods bytecode.Table
	heap    *Heap

	stack *stack.Stack[*Frame] // call stack

	intrinsics map[string]Intrinsic

	out io.Writer // output writer for println

	maxSteps int // maximum steps (0 = unlimited)
	steps    int // steps executed

	maxDepth int
	depth    int
}

type Option func(*Interpreter)

// WithWriter sets the output writer for println
func WithWriter(w io.Writer) Option {
	return func(i *Interpreter) { i.out = w }
}

// WithMaxSteps sets a maximum number of steps per interpreter instance
// before returning ErrMaxStepsExceeded
func WithMaxSteps(n int) Option {
	return func(i *Interpreter) { i.maxSteps = n }
}

// WithMaxDepth bounds how deeply invocations may nest before
// ErrCallDepthExceeded
func WithMaxDepth(n int) Option {
	return func(i *Interpreter) { i.maxDepth = n }
}

// WithHeap runs against an existing heap, e.g. one seeded with arrays
func WithHeap(h *Heap) Option {
	return func(i *Interpreter) { i.heap = h }
}

// New creates an interpreter for program. methods resolves invocations of
// user-defined methods.
func New(program *bytecode.Program, methods bytecode.Table, opts ...Option) *Interpreter {
	it := &Interpreter{
		program:    program,
		methods:    methods,
		stack:      stack.New[*Frame](),
		intrinsics: builtinIntrinsics,
		maxDepth:   DefaultMaxDepth,
	}

	for _, o := range opts {
		o(it)
	}

	if it.heap == nil {
		it.heap = NewHeap()
	}
	if it.out == nil {
		it.out = os.Stdout
	}

	return it
}

// Heap returns the heap this interpreter reads and writes
func (i *Interpreter) Heap() *Heap {
	return i.heap
}

// Program returns the program being executed
func (i *Interpreter) Program() *bytecode.Program {
	return i.program
}

// Run pushes f and executes until a return, a halt or an error.
func (i *Interpreter) Run(f *Frame) (Result, error) {
	i.stack.Push(f)
	for {
		res, err := i.Step()
		if err != nil {
			return Result{}, err
		}

		if res != nil {
			return *res, nil
		}
	}
}

// Step executes a single instruction. It returns a non-nil Result once the
// interpreter has stopped.
func (i *Interpreter) Step() (*Result, error) {
	if i.maxSteps > 0 && i.steps >= i.maxSteps {
		return nil, ErrMaxStepsExceeded
	}

	res, err := i.step()
	i.steps++

	return res, err
}

// currentFrame returns the top of the call stack, or nil if none
func (i *Interpreter) currentFrame() *Frame {
	f, _ := i.stack.Peek()
	return f
}

// spawn creates the nested interpreter that runs a user-defined method
func (i *Interpreter) spawn(program *bytecode.Program) (*Interpreter, error) {
	if i.depth+1 > i.maxDepth {
		return nil, ErrCallDepthExceeded
	}

	return &Interpreter{
		program:    program,
		methods:    i.methods,
		heap:       i.heap,
		stack:      stack.New[*Frame](),
		intrinsics: i.intrinsics,
		out:        i.out,
		maxSteps:   i.maxSteps,
		maxDepth:   i.maxDepth,
		depth:      i.depth + 1,
	}, nil
}
