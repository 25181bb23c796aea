package interpreter

import (
	"fmt"
	"strings"
)

// Heap is an append-only arena of growable arrays. Indices are handed out
// in allocation order and never reused. Nested interpreters share one Heap.
type Heap struct {
	arrays [][]Value
}

func NewHeap() *Heap {
	return &Heap{}
}

// Alloc appends a new empty array and returns its index.
func (h *Heap) Alloc() int {
	h.arrays = append(h.arrays, []Value{})
	return len(h.arrays) - 1
}

// Add allocates an array holding a copy of values.
func (h *Heap) Add(values ...Value) int {
	ref := h.Alloc()
	h.arrays[ref] = append(h.arrays[ref], values...)
	return ref
}

// Size returns the number of arrays allocated so far.
func (h *Heap) Size() int {
	return len(h.arrays)
}

func (h *Heap) array(ref int) ([]Value, error) {
	if ref < 0 || ref >= len(h.arrays) {
		return nil, fmt.Errorf("%w: @%d", ErrBadReference, ref)
	}
	return h.arrays[ref], nil
}

// Len returns the current length of the array at ref.
func (h *Heap) Len(ref int) (int, error) {
	a, err := h.array(ref)
	if err != nil {
		return 0, err
	}
	return len(a), nil
}

// Load reads element idx of the array at ref.
func (h *Heap) Load(ref, idx int) (Value, error) {
	a, err := h.array(ref)
	if err != nil {
		return Value{}, err
	}
	if idx < 0 || idx >= len(a) {
		return Value{}, &BoundsError{What: "array", Array: ref, Index: idx, Len: len(a)}
	}
	return a[idx], nil
}

// Store writes v at element idx of the array at ref. Storing at or past
// the end appends v.
func (h *Heap) Store(ref, idx int, v Value) error {
	a, err := h.array(ref)
	if err != nil {
		return err
	}
	if idx < 0 {
		return &BoundsError{What: "array", Array: ref, Index: idx, Len: len(a)}
	}
	if idx >= len(a) {
		h.arrays[ref] = append(a, v)
		return nil
	}
	a[idx] = v
	return nil
}

// Array returns a copy of the array at ref.
func (h *Heap) Array(ref int) ([]Value, error) {
	a, err := h.array(ref)
	if err != nil {
		return nil, err
	}
	return append([]Value(nil), a...), nil
}

func (h *Heap) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, a := range h.arrays {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(formatValues(a))
	}
	sb.WriteByte(']')
	return sb.String()
}

func formatValues(vs []Value) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = v.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}
