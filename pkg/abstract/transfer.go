package abstract

import (
	"github.com/charmbracelet/log"

	"jinterp/pkg/bytecode"
	"jinterp/pkg/interpreter"
)

type successor struct {
	pc    int
	state State
}

// frame is the working copy of a state while one instruction is applied.
type frame struct {
	State
	pc int
	in bytecode.Instruction
}

func (f *frame) fail(err error) error {
	return &Error{PC: f.pc, Op: f.in.Name, Err: err}
}

func (f *frame) push(signs ...Sign) {
	f.Stack = append(f.Stack, signs...)
}

func (f *frame) pop(n int) ([]Sign, error) {
	if n > len(f.Stack) {
		return nil, f.fail(ErrStackUnderflow)
	}
	cut := len(f.Stack) - n
	signs := f.Stack[cut:]
	f.Stack = f.Stack[:cut]
	return signs, nil
}

func (f *frame) next() []successor {
	return []successor{{pc: f.pc + 1, state: f.State}}
}

// step computes the abstract successors of the state at pc, recording
// returns and halts in res.
func step(p *bytecode.Program, pc int, s State, res *Result) ([]successor, error) {
	in, ok := p.At(pc)
	if !ok {
		// falls off the end, as the concrete interpreter's exhaustion
		return nil, nil
	}

	f := &frame{State: s.clone(), pc: pc, in: in}

	switch in.Op {
	case bytecode.OpPush:
		if in.Value.Kind == bytecode.ConstInt {
			f.push(FromInt(in.Value.Int))
		} else {
			f.push(Top)
		}
		return f.next(), nil

	case bytecode.OpLoad:
		if in.Index < 0 || in.Index >= len(f.Locals) {
			return nil, f.fail(ErrLocalRange)
		}
		v := f.Locals[in.Index]
		if v == Bottom {
			v = Top
		}
		f.push(v)
		return f.next(), nil

	case bytecode.OpStore:
		v, err := f.pop(1)
		if err != nil {
			return nil, err
		}
		if in.Index < 0 {
			return nil, f.fail(ErrLocalRange)
		}
		for in.Index >= len(f.Locals) {
			f.Locals = append(f.Locals, Bottom)
		}
		f.Locals[in.Index] = v[0]
		return f.next(), nil

	case bytecode.OpIncr:
		if in.Index < 0 || in.Index >= len(f.Locals) {
			return nil, f.fail(ErrLocalRange)
		}
		f.Locals[in.Index], _ = Binary(bytecode.OpAdd, f.Locals[in.Index], FromInt64(in.Amount))
		return f.next(), nil

	case bytecode.OpBinary:
		v, err := f.pop(2)
		if err != nil {
			return nil, err
		}
		r, ok := Binary(in.Operator, v[0], v[1])
		if !ok {
			return nil, f.fail(ErrDivisionByZero)
		}
		f.push(r)
		return f.next(), nil

	case bytecode.OpIf:
		v, err := f.pop(2)
		if err != nil {
			return nil, err
		}
		if in.Condition == 0 {
			return nil, f.fail(ErrUnsupportedCondition)
		}
		canTrue, canFalse := Compare(in.Condition, v[0], v[1])
		return f.branch(p, canTrue, canFalse)

	case bytecode.OpIfz:
		v, err := f.pop(1)
		if err != nil {
			return nil, err
		}
		if in.Condition == 0 {
			return nil, f.fail(ErrUnsupportedCondition)
		}
		canTrue, canFalse := CompareZero(in.Condition, v[0])
		return f.branch(p, canTrue, canFalse)

	case bytecode.OpGoto:
		if !f.inRange(p) {
			return nil, f.fail(ErrPCRange)
		}
		return []successor{{pc: in.Target, state: f.State}}, nil

	case bytecode.OpDup:
		words := max(in.Words, 1)
		if words > len(f.Stack) {
			return nil, f.fail(ErrStackUnderflow)
		}
		f.push(f.Stack[len(f.Stack)-words:]...)
		return f.next(), nil

	case bytecode.OpNewArray, bytecode.OpGet:
		// references and handles carry no sign
		f.push(Top)
		return f.next(), nil

	case bytecode.OpArrayLoad:
		v, err := f.pop(2)
		if err != nil {
			return nil, err
		}
		if v[1] == Negative {
			return nil, f.fail(ErrNegativeIndex)
		}
		f.push(Top)
		return f.next(), nil

	case bytecode.OpArrayStore:
		v, err := f.pop(3)
		if err != nil {
			return nil, err
		}
		if v[1] == Negative {
			return nil, f.fail(ErrNegativeIndex)
		}
		return f.next(), nil

	case bytecode.OpArrayLength:
		if _, err := f.pop(1); err != nil {
			return nil, err
		}
		f.push(Top)
		return f.next(), nil

	case bytecode.OpInvoke:
		m := in.Method
		n := m.ArgNum()
		if in.Access != "dynamic" && interpreter.IsIntrinsic(m.Name, n) {
			n++ // receiver
		}
		if _, err := f.pop(n); err != nil {
			return nil, err
		}
		if !m.Returns.IsVoid() {
			f.push(Top)
		}
		return f.next(), nil

	case bytecode.OpReturn:
		if in.Type.IsVoid() {
			res.Void = true
			return nil, nil
		}
		v, err := f.pop(1)
		if err != nil {
			return nil, err
		}
		res.Returns = Join(res.Returns, v[0])
		return nil, nil

	default:
		log.Warn("Unknown instruction", "method", p.Name, "pc", pc, "opr", in.Name)
		res.Halts = appendUnique(res.Halts, pc)
		return nil, nil
	}
}

// inRange reports whether the jump target of the instruction lies in p.
func (f *frame) inRange(p *bytecode.Program) bool {
	return f.in.Target >= 0 && f.in.Target < p.Len()
}

// branch feeds the state to the feasible successors of a conditional.
func (f *frame) branch(p *bytecode.Program, canTrue, canFalse bool) ([]successor, error) {
	if !f.inRange(p) {
		return nil, f.fail(ErrPCRange)
	}
	var succs []successor
	if canTrue {
		succs = append(succs, successor{pc: f.in.Target, state: f.State})
	}
	if canFalse {
		succs = append(succs, successor{pc: f.pc + 1, state: f.State.clone()})
	}
	return succs, nil
}

func appendUnique(pcs []int, pc int) []int {
	for _, p := range pcs {
		if p == pc {
			return pcs
		}
	}
	return append(pcs, pc)
}
