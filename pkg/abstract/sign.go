// Package abstract runs a bounded sign analysis over bytecode programs,
// mirroring the concrete interpreter instruction by instruction.
package abstract

import (
	"math/big"
	"math/bits"

	"jinterp/pkg/bytecode"
	"jinterp/pkg/interpreter"
)

// Sign is an element of the sign lattice. Internally it is a set of the
// three concrete signs; any set holding two or more of them is widened to
// Top, so the lattice is flat: Bottom < {Negative, Zero, Positive} < Top.
type Sign uint8

const (
	Bottom   Sign = 0
	Negative Sign = 1 << 0
	Zero     Sign = 1 << 1
	Positive Sign = 1 << 2
	Top      Sign = Negative | Zero | Positive
)

var singles = [...]Sign{Negative, Zero, Positive}

func (s Sign) String() string {
	switch s {
	case Bottom:
		return "bottom"
	case Negative:
		return "negative"
	case Zero:
		return "zero"
	case Positive:
		return "positive"
	default:
		return "unknown"
	}
}

// widen collapses multi-sign sets to Top.
func widen(s Sign) Sign {
	if bits.OnesCount8(uint8(s)) > 1 {
		return Top
	}
	return s
}

// Join returns the least element above both a and b.
func Join(a, b Sign) Sign {
	return widen(a | b)
}

// Leq reports whether a is at least as precise as b.
func Leq(a, b Sign) bool {
	return Join(a, b) == b
}

// Has reports whether s admits the concrete sign single.
func (s Sign) Has(single Sign) bool {
	return s&single != 0
}

// FromInt abstracts a concrete integer.
func FromInt(n *big.Int) Sign {
	switch n.Sign() {
	case -1:
		return Negative
	case 0:
		return Zero
	default:
		return Positive
	}
}

// FromInt64 abstracts a concrete integer.
func FromInt64(n int64) Sign {
	return FromInt(big.NewInt(n))
}

// FromValue abstracts an interpreter value. Values other than integers
// carry no sign information.
func FromValue(v interpreter.Value) Sign {
	if v.Kind == interpreter.KindInt {
		return FromInt(v.Int)
	}
	return Top
}

// Args abstracts the arguments of an entry frame.
func Args(vs ...interpreter.Value) []Sign {
	signs := make([]Sign, len(vs))
	for i, v := range vs {
		signs[i] = FromValue(v)
	}
	return signs
}

func negate(s Sign) Sign {
	r := s & Zero
	if s.Has(Negative) {
		r |= Positive
	}
	if s.Has(Positive) {
		r |= Negative
	}
	return r
}

// exact returns the raw set of signs op can produce from single signs a and b.
// The divisor b is never Zero for div and mod.
func exact(op bytecode.Operator, a, b Sign) Sign {
	switch op {
	case bytecode.OpAdd:
		switch {
		case a == Zero:
			return b
		case b == Zero, a == b:
			return a
		default:
			return Top
		}
	case bytecode.OpSub:
		return exact(bytecode.OpAdd, a, negate(b))
	case bytecode.OpMul:
		switch {
		case a == Zero || b == Zero:
			return Zero
		case a == b:
			return Positive
		default:
			return Negative
		}
	case bytecode.OpDiv:
		switch {
		case a == Zero:
			return Zero
		case a == b:
			// floor(a/b) >= 0, and is 0 when |a| < |b|
			return Zero | Positive
		default:
			return Negative
		}
	case bytecode.OpMod:
		if a == Zero {
			return Zero
		}
		// the remainder follows the divisor's sign
		return Zero | b
	default:
		return Top
	}
}

// raw lifts exact to sets without widening. Divisors of zero are skipped.
func raw(op bytecode.Operator, a, b Sign) Sign {
	var r Sign
	for _, sa := range singles {
		if !a.Has(sa) {
			continue
		}
		for _, sb := range singles {
			if !b.Has(sb) {
				continue
			}
			if sb == Zero && (op == bytecode.OpDiv || op == bytecode.OpMod) {
				continue
			}
			r |= exact(op, sa, sb)
		}
	}
	return r
}

// Binary is the abstract counterpart of an arithmetic instruction. ok is
// false when the divisor of div or mod is definitely zero.
func Binary(op bytecode.Operator, a, b Sign) (r Sign, ok bool) {
	if (op == bytecode.OpDiv || op == bytecode.OpMod) && b == Zero {
		return Bottom, false
	}
	return widen(raw(op, a, b)), true
}

// Compare returns which branch outcomes are possible for cond applied to
// (a, b).
func Compare(cond bytecode.Condition, a, b Sign) (canTrue, canFalse bool) {
	return outcomes(cond, raw(bytecode.OpSub, a, b))
}

// CompareZero is Compare against the literal zero.
func CompareZero(cond bytecode.Condition, a Sign) (canTrue, canFalse bool) {
	return outcomes(cond, a)
}

// outcomes evaluates cond over every sign in diff, the sign set of a - b.
func outcomes(cond bytecode.Condition, diff Sign) (canTrue, canFalse bool) {
	for i, single := range singles {
		if !diff.Has(single) {
			continue
		}
		if cond.Holds(i - 1) {
			canTrue = true
		} else {
			canFalse = true
		}
	}
	return canTrue, canFalse
}
