package interpreter

import (
	"fmt"

	"jinterp/pkg/bytecode"
)

// PrintStream is the type of the one static field get recognises.
const PrintStream = "java/io/PrintStream"

// stdout is the descriptor of System.out.
var stdout = bytecode.Field{
	Class: "java/lang/System",
	Name:  "out",
	Type:  bytecode.ClassRef{Kind: "class", Name: PrintStream},
}

// Intrinsic is a built-in method resolved by name before the method table.
type Intrinsic struct {
	Receiver string // expected receiver handle for non-dynamic calls
	Args     int
	Call     func(i *Interpreter, args []Value) Value
}

var builtinIntrinsics = map[string]Intrinsic{
	"println": {
		Receiver: PrintStream,
		Args:     1,
		Call: func(i *Interpreter, args []Value) Value {
			fmt.Fprintln(i.out, args[0].Display())
			return Void()
		},
	},
}

// callIntrinsic tries to run in as a built-in. It reports false, leaving the
// frame untouched, when the name is not built in, the argument count differs
// or the receiver on the stack is not the expected handle.
func (i *Interpreter) callIntrinsic(f *Frame, in bytecode.Instruction) bool {
	m := in.Method
	intr, ok := i.intrinsics[m.Name]
	if !ok || intr.Args != m.ArgNum() {
		return false
	}

	need := intr.Args
	dynamic := in.Access == "dynamic"
	if !dynamic {
		need++
		recv, err := f.Peek(intr.Args)
		if err != nil || recv.Kind != KindHandle || recv.Str != m.Ref.Name || recv.Str != intr.Receiver {
			return false
		}
	}

	popped, err := f.PopN(need)
	if err != nil {
		return false
	}

	if ret := intr.Call(i, popped[need-intr.Args:]); !ret.IsVoid() {
		f.Push(ret)
	}
	return true
}

// IsIntrinsic reports whether name with args arguments resolves to a
// built-in method.
func IsIntrinsic(name string, args int) bool {
	intr, ok := builtinIntrinsics[name]
	return ok && intr.Args == args
}
