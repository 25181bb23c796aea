package interpreter

import (
	"fmt"
	"math/big"

	"jinterp/pkg/bytecode"
)

// floorDivMod divides rounding towards negative infinity, so the
// remainder takes the sign of the divisor.
func floorDivMod(a, b *big.Int) (*big.Int, *big.Int) {
	q, r := new(big.Int).QuoRem(a, b, new(big.Int))
	if r.Sign() != 0 && r.Sign() != b.Sign() {
		q.Sub(q, big.NewInt(1))
		r.Add(r, b)
	}
	return q, r
}

// evalBinary applies an arithmetic operator to two integers
func evalBinary(op bytecode.Operator, a, b *big.Int) (*big.Int, error) {
	switch op {
	case bytecode.OpAdd:
		return new(big.Int).Add(a, b), nil
	case bytecode.OpSub:
		return new(big.Int).Sub(a, b), nil
	case bytecode.OpMul:
		return new(big.Int).Mul(a, b), nil
	case bytecode.OpDiv, bytecode.OpMod:
		if b.Sign() == 0 {
			return nil, ErrDivisionByZero
		}
		q, r := floorDivMod(a, b)
		if op == bytecode.OpDiv {
			return q, nil
		}
		return r, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedOperator, op)
	}
}
