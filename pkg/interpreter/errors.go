package interpreter

import (
	"errors"
	"fmt"
)

var (
	ErrMaxStepsExceeded     = errors.New("maximum steps exceeded")
	ErrCallDepthExceeded    = errors.New("maximum call depth exceeded")
	ErrUnknownMethod        = errors.New("unknown method")
	ErrTypeMismatch         = errors.New("type mismatch")
	ErrDivisionByZero       = errors.New("division by zero")
	ErrBadReference         = errors.New("invalid array reference")
	ErrIndexOverflow        = errors.New("index out of machine range")
	ErrUnsupportedConstant  = errors.New("unsupported constant")
	ErrUnsupportedOperator  = errors.New("unsupported arithmetic operator")
	ErrUnsupportedCondition = errors.New("unsupported condition")
	ErrMissingReturnValue   = errors.New("method returned no value")
)

// BoundsError is returned when an array or local variable slot is
// addressed outside its current length.
type BoundsError struct {
	What  string // "array" or "local"
	Array int    // heap index, for arrays
	Index int
	Len   int
}

func (e *BoundsError) Error() string {
	if e.What == "local" {
		return fmt.Sprintf("local index %d out of range (len %d)", e.Index, e.Len)
	}
	return fmt.Sprintf("index %d out of range for array @%d (len %d)", e.Index, e.Array, e.Len)
}

// StackUnderflowError is returned when an instruction needs more operands
// than the operand stack holds.
type StackUnderflowError struct {
	Need int
	Have int
}

func (e *StackUnderflowError) Error() string {
	return fmt.Sprintf("operand stack underflow: need %d, have %d", e.Need, e.Have)
}
