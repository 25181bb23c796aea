package abstract

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/charmbracelet/log"

	"jinterp/pkg/bytecode"
)

var (
	ErrDivisionByZero = errors.New("division by definite zero")
	ErrNegativeIndex  = errors.New("array index is definitely negative")
	ErrStackUnderflow = errors.New("operand stack underflow")
	ErrStackMismatch  = errors.New("operand stack height differs at join")
	ErrLocalRange     = errors.New("local index out of range")
	ErrPCRange        = errors.New("jump target outside the method")

	ErrUnsupportedCondition = errors.New("unsupported condition")
)

// Error is a defect found by the analysis at a program point.
type Error struct {
	PC  int
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("pc %d (%s): %v", e.PC, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Result is the bounded approximation computed by Analyze.
type Result struct {
	States    map[int]State // program point -> abstract frame
	Returns   Sign          // join of every int value returned
	Void      bool          // a void return is reachable
	Halts     []int         // unknown instructions that were reached
	Rounds    int
	Converged bool // the last round changed nothing
}

// PCs returns the analysed program points in order.
func (r *Result) PCs() []int {
	return slices.Sorted(maps.Keys(r.States))
}

// Analyze runs at most k rounds of abstract interpretation of p, starting
// at pc 0 with the given abstract arguments. On a detected error the
// partial result is returned alongside an *Error.
func Analyze(p *bytecode.Program, args []Sign, k int) (*Result, error) {
	res := &Result{
		States: map[int]State{0: {Locals: slices.Clone(args)}},
	}

	s := res.States
	for round := 0; round < k; round++ {
		next := maps.Clone(s)
		for _, pc := range slices.Sorted(maps.Keys(s)) {
			succs, err := step(p, pc, s[pc], res)
			if err != nil {
				return res, err
			}

			for _, succ := range succs {
				prev, ok := next[succ.pc]
				if !ok {
					next[succ.pc] = succ.state
					continue
				}
				joined, err := JoinStates(prev, succ.state)
				if err != nil {
					in, _ := p.At(succ.pc)
					return res, &Error{PC: succ.pc, Op: in.Name, Err: err}
				}
				next[succ.pc] = joined
			}
		}

		res.Rounds = round + 1
		if statesEqual(s, next) {
			res.Converged = true
			break
		}
		s = next
		res.States = s
	}

	log.Debug("Analysis done", "method", p.Name, "rounds", res.Rounds, "converged", res.Converged, "points", len(res.States))
	return res, nil
}

func statesEqual(a, b map[int]State) bool {
	return maps.EqualFunc(a, b, State.Equal)
}
