package abstract

import (
	"fmt"
	"slices"
	"strings"
)

// State is the abstract frame at one program point.
type State struct {
	Locals []Sign
	Stack  []Sign
}

func (s State) clone() State {
	return State{Locals: slices.Clone(s.Locals), Stack: slices.Clone(s.Stack)}
}

// Equal reports whether two states are identical.
func (s State) Equal(o State) bool {
	return slices.Equal(s.Locals, o.Locals) && slices.Equal(s.Stack, o.Stack)
}

// JoinStates joins two states pointwise. Locals missing on one side join as
// Bottom; operand stacks of different height cannot be joined.
func JoinStates(a, b State) (State, error) {
	if len(a.Stack) != len(b.Stack) {
		return State{}, fmt.Errorf("%w: %d vs %d", ErrStackMismatch, len(a.Stack), len(b.Stack))
	}

	locals := make([]Sign, max(len(a.Locals), len(b.Locals)))
	for i := range locals {
		locals[i] = Join(at(a.Locals, i), at(b.Locals, i))
	}
	stack := make([]Sign, len(a.Stack))
	for i := range stack {
		stack[i] = Join(a.Stack[i], b.Stack[i])
	}
	return State{Locals: locals, Stack: stack}, nil
}

func at(signs []Sign, i int) Sign {
	if i < len(signs) {
		return signs[i]
	}
	return Bottom
}

func (s State) String() string {
	return fmt.Sprintf("(locals=%s stack=%s)", formatSigns(s.Locals), formatSigns(s.Stack))
}

func formatSigns(signs []Sign) string {
	parts := make([]string, len(signs))
	for i, s := range signs {
		parts[i] = s.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}
