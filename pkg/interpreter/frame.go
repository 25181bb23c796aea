package interpreter

import "fmt"

// Frame is one method activation: locals, operand stack and program counter.
// A frame is owned by exactly one interpreter.
type Frame struct {
	Locals []Value
	Stack  []Value
	PC     int
}

// NewFrame creates an entry frame with pc 0, an empty operand stack and a
// copy of locals.
func NewFrame(locals ...Value) *Frame {
	return &Frame{Locals: append([]Value(nil), locals...)}
}

// Push pushes values onto the operand stack, in order.
func (f *Frame) Push(vs ...Value) {
	f.Stack = append(f.Stack, vs...)
}

// Pop removes and returns the top of the operand stack.
func (f *Frame) Pop() (Value, error) {
	if len(f.Stack) == 0 {
		return Value{}, &StackUnderflowError{Need: 1, Have: 0}
	}
	v := f.Stack[len(f.Stack)-1]
	f.Stack = f.Stack[:len(f.Stack)-1]
	return v, nil
}

// PopN removes the top n values and returns them oldest first.
func (f *Frame) PopN(n int) ([]Value, error) {
	if n > len(f.Stack) {
		return nil, &StackUnderflowError{Need: n, Have: len(f.Stack)}
	}
	cut := len(f.Stack) - n
	vs := append([]Value(nil), f.Stack[cut:]...)
	f.Stack = f.Stack[:cut]
	return vs, nil
}

// Peek returns the value n slots below the top without removing it.
func (f *Frame) Peek(n int) (Value, error) {
	if n >= len(f.Stack) {
		return Value{}, &StackUnderflowError{Need: n + 1, Have: len(f.Stack)}
	}
	return f.Stack[len(f.Stack)-1-n], nil
}

// Load reads local variable idx.
func (f *Frame) Load(idx int) (Value, error) {
	if idx < 0 || idx >= len(f.Locals) {
		return Value{}, &BoundsError{What: "local", Index: idx, Len: len(f.Locals)}
	}
	return f.Locals[idx], nil
}

// Store writes local variable idx, growing the locals as needed. Slots
// skipped over by the growth hold void.
func (f *Frame) Store(idx int, v Value) error {
	if idx < 0 {
		return &BoundsError{What: "local", Index: idx, Len: len(f.Locals)}
	}
	for idx >= len(f.Locals) {
		f.Locals = append(f.Locals, Value{})
	}
	f.Locals[idx] = v
	return nil
}

func (f *Frame) String() string {
	return fmt.Sprintf("(locals=%s stack=%s pc=%d)", formatValues(f.Locals), formatValues(f.Stack), f.PC)
}
