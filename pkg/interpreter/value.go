package interpreter

import (
	"fmt"
	"math/big"
	"strconv"
)

type ValueKind int

const (
	KindVoid ValueKind = iota
	KindInt
	KindRef
	KindString
	KindHandle
)

func (k ValueKind) String() string {
	switch k {
	case KindVoid:
		return "void"
	case KindInt:
		return "int"
	case KindRef:
		return "ref"
	case KindString:
		return "string"
	case KindHandle:
		return "handle"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Value represents a runtime value in the interpreter.
// Int values are never mutated once built, so they can be shared freely
// between frames and heap slots.
type Value struct {
	Kind ValueKind
	Int  *big.Int
	Ref  int    // heap index for KindRef
	Str  string // text for KindString, field type name for KindHandle
}

// Void is the absence of a value.
func Void() Value { return Value{} }

// NewInt creates a new integer Value.
func NewInt(i int64) Value {
	return Value{Kind: KindInt, Int: big.NewInt(i)}
}

// NewBig creates an integer Value owning a copy of n.
func NewBig(n *big.Int) Value {
	return Value{Kind: KindInt, Int: new(big.Int).Set(n)}
}

// NewRef creates a reference to the heap array at index ref.
func NewRef(ref int) Value {
	return Value{Kind: KindRef, Ref: ref}
}

// NewString creates a new string Value.
func NewString(s string) Value {
	return Value{Kind: KindString, Str: s}
}

// NewHandle creates the sentinel pushed for a recognised static field.
func NewHandle(name string) Value {
	return Value{Kind: KindHandle, Str: name}
}

// IsVoid reports whether v carries no value.
func (v Value) IsVoid() bool { return v.Kind == KindVoid }

// String renders the value for traces.
func (v Value) String() string {
	switch v.Kind {
	case KindInt:
		return v.Int.String()
	case KindRef:
		return fmt.Sprintf("@%d", v.Ref)
	case KindString:
		return strconv.Quote(v.Str)
	case KindHandle:
		return "<" + v.Str + ">"
	default:
		return "<void>"
	}
}

// Display renders the value the way println shows it.
func (v Value) Display() string {
	if v.Kind == KindString {
		return v.Str
	}
	return v.String()
}

// Equal reports whether two values are the same.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindInt:
		return v.Int.Cmp(o.Int) == 0
	case KindRef:
		return v.Ref == o.Ref
	case KindString, KindHandle:
		return v.Str == o.Str
	default:
		return true
	}
}

// AsInt returns the integer held by v.
func (v Value) AsInt() (*big.Int, error) {
	if v.Kind != KindInt {
		return nil, fmt.Errorf("%w: expected int, got %v", ErrTypeMismatch, v.Kind)
	}
	return v.Int, nil
}

// AsRef returns the heap index held by v.
func (v Value) AsRef() (int, error) {
	if v.Kind != KindRef {
		return 0, fmt.Errorf("%w: expected ref, got %v", ErrTypeMismatch, v.Kind)
	}
	return v.Ref, nil
}

// AsIndex converts an integer value to a slice index.
func (v Value) AsIndex() (int, error) {
	n, err := v.AsInt()
	if err != nil {
		return 0, err
	}
	if !n.IsInt64() || n.Int64() > int64(maxInt) || n.Int64() < -int64(maxInt) {
		return 0, fmt.Errorf("%w: %s", ErrIndexOverflow, n)
	}
	return int(n.Int64()), nil
}

const maxInt = int(^uint(0) >> 1)
