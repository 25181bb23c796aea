package interpreter

import (
	"fmt"
	"math/big"

	"github.com/charmbracelet/log"

	"jinterp/pkg/bytecode"
)

// step is the main single-step execution function.
// It returns a non-nil Result once this instance has stopped.
func (i *Interpreter) step() (*Result, error) {
	f := i.currentFrame()
	if f == nil {
		return &Result{Status: StatusExhausted}, nil
	}

	// fetch current PC and instruction
	pc := f.PC
	in, ok := i.program.At(pc)
	if !ok {
		// running off the end of the method drops its frame
		log.Warn("Instruction stream exhausted", "method", i.program.Name, "pc", pc)
		i.stack.Pop()
		return &Result{Status: StatusExhausted}, nil
	}

	res, err := i.exec(f, in)
	if err != nil {
		return nil, fmt.Errorf("%s@%d (%s): %w", i.program.Name, pc, in, err)
	}

	log.Debug("Step", "method", i.program.Name, "pc", pc, "op", in, "locals", f.Locals, "stack", f.Stack, "heap", i.heap)
	return res, nil
}

// exec dispatches in against the top frame f.
func (i *Interpreter) exec(f *Frame, in bytecode.Instruction) (*Result, error) {
	switch in.Op {
	case bytecode.OpPush:
		v, err := constant(in.Value)
		if err != nil {
			return nil, err
		}
		f.Push(v)
		f.PC++

	case bytecode.OpLoad:
		// reference and primitive loads behave the same
		v, err := f.Load(in.Index)
		if err != nil {
			return nil, err
		}
		f.Push(v)
		f.PC++

	case bytecode.OpStore:
		v, err := f.Pop()
		if err != nil {
			return nil, err
		}
		if err := f.Store(in.Index, v); err != nil {
			return nil, err
		}
		f.PC++

	case bytecode.OpIncr:
		v, err := f.Load(in.Index)
		if err != nil {
			return nil, err
		}
		n, err := v.AsInt()
		if err != nil {
			return nil, err
		}
		f.Locals[in.Index] = Value{Kind: KindInt, Int: new(big.Int).Add(n, big.NewInt(in.Amount))}
		f.PC++

	case bytecode.OpBinary:
		a, b, err := popInts(f)
		if err != nil {
			return nil, err
		}
		r, err := evalBinary(in.Operator, a, b)
		if err != nil {
			return nil, err
		}
		f.Push(Value{Kind: KindInt, Int: r})
		f.PC++

	case bytecode.OpIf:
		a, b, err := popInts(f)
		if err != nil {
			return nil, err
		}
		return nil, branch(f, in, a.Cmp(b))

	case bytecode.OpIfz:
		v, err := f.Pop()
		if err != nil {
			return nil, err
		}
		n, err := v.AsInt()
		if err != nil {
			return nil, err
		}
		return nil, branch(f, in, n.Sign())

	case bytecode.OpGoto:
		f.PC = in.Target

	case bytecode.OpDup:
		words := max(in.Words, 1)
		if words > len(f.Stack) {
			return nil, &StackUnderflowError{Need: words, Have: len(f.Stack)}
		}
		f.Push(f.Stack[len(f.Stack)-words:]...)
		f.PC++

	case bytecode.OpNewArray:
		f.Push(NewRef(i.heap.Alloc()))
		f.PC++

	case bytecode.OpArrayLoad:
		ref, idx, err := popArrayIndex(f)
		if err != nil {
			return nil, err
		}
		v, err := i.heap.Load(ref, idx)
		if err != nil {
			return nil, err
		}
		f.Push(v)
		f.PC++

	case bytecode.OpArrayStore:
		v, err := f.Pop()
		if err != nil {
			return nil, err
		}
		ref, idx, err := popArrayIndex(f)
		if err != nil {
			return nil, err
		}
		if err := i.heap.Store(ref, idx, v); err != nil {
			return nil, err
		}
		f.PC++

	case bytecode.OpArrayLength:
		v, err := f.Pop()
		if err != nil {
			return nil, err
		}
		ref, err := v.AsRef()
		if err != nil {
			return nil, err
		}
		n, err := i.heap.Len(ref)
		if err != nil {
			return nil, err
		}
		f.Push(NewInt(int64(n)))
		f.PC++

	case bytecode.OpGet:
		if in.Field != nil && *in.Field == stdout {
			f.Push(NewHandle(in.Field.Type.Name))
		} else {
			log.Warn("Unsupported field", "field", in.Field)
			f.Push(Void())
		}
		f.PC++

	case bytecode.OpInvoke:
		return i.invoke(f, in)

	case bytecode.OpReturn:
		i.stack.Pop()
		if in.Type.IsVoid() {
			return &Result{Status: StatusReturned}, nil
		}
		v, err := f.Pop()
		if err != nil {
			return nil, err
		}
		return &Result{Status: StatusReturned, Value: v}, nil

	default:
		log.Warn("Unknown instruction", "method", i.program.Name, "pc", f.PC, "opr", in.Name)
		i.stack.Pop()
		return &Result{Status: StatusHalted, Halt: in.Name}, nil
	}

	return nil, nil
}

// invoke calls a built-in if one matches, otherwise the user-defined
// method of the same name in a nested interpreter.
func (i *Interpreter) invoke(f *Frame, in bytecode.Instruction) (*Result, error) {
	if i.callIntrinsic(f, in) {
		f.PC++
		return nil, nil
	}

	m := in.Method
	program, ok := i.methods[m.Name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, m.Name)
	}

	args, err := f.PopN(m.ArgNum())
	if err != nil {
		return nil, err
	}

	callee, err := i.spawn(program)
	if err != nil {
		return nil, err
	}

	res, err := callee.Run(NewFrame(args...))
	if err != nil {
		return nil, err
	}

	// a halt stops only the callee; the caller resumes unless it needs a value
	if res.Status == StatusHalted {
		log.Warn("Callee halted", "method", m.Name, "opr", res.Halt)
		if !m.Returns.IsVoid() {
			return nil, fmt.Errorf("%w: %s halted on %s", ErrMissingReturnValue, m.Name, res.Halt)
		}
	}

	if !m.Returns.IsVoid() {
		if res.Value.IsVoid() {
			return nil, fmt.Errorf("%w: %s", ErrMissingReturnValue, m.Name)
		}
		f.Push(res.Value)
	}
	f.PC++
	return nil, nil
}

// branch jumps to the target when the condition holds for cmp.
func branch(f *Frame, in bytecode.Instruction, cmp int) error {
	if in.Condition == 0 {
		return ErrUnsupportedCondition
	}
	if in.Condition.Holds(cmp) {
		f.PC = in.Target
	} else {
		f.PC++
	}
	return nil
}

// popInts pops the top two integers, returning them as (second, top).
func popInts(f *Frame) (a, b *big.Int, err error) {
	vs, err := f.PopN(2)
	if err != nil {
		return nil, nil, err
	}
	if a, err = vs[0].AsInt(); err != nil {
		return nil, nil, err
	}
	if b, err = vs[1].AsInt(); err != nil {
		return nil, nil, err
	}
	return a, b, nil
}

// popArrayIndex pops an element index and the array reference below it.
func popArrayIndex(f *Frame) (ref, idx int, err error) {
	vs, err := f.PopN(2)
	if err != nil {
		return 0, 0, err
	}
	if ref, err = vs[0].AsRef(); err != nil {
		return 0, 0, err
	}
	if idx, err = vs[1].AsIndex(); err != nil {
		return 0, 0, err
	}
	return ref, idx, nil
}

func constant(c bytecode.Constant) (Value, error) {
	switch c.Kind {
	case bytecode.ConstInt:
		return NewBig(c.Int), nil
	case bytecode.ConstString:
		return NewString(c.Str), nil
	case bytecode.ConstNull:
		return Void(), nil
	default:
		return Value{}, fmt.Errorf("%w: %s", ErrUnsupportedConstant, c.Type)
	}
}
