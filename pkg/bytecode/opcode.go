package bytecode

// Opcode is the closed set of instructions the interpreter understands.
type Opcode int

// List of supported opcodes
const (
	OpUnknown Opcode = iota
	OpPush
	OpLoad
	OpStore
	OpIncr
	OpBinary
	OpIf
	OpIfz
	OpGoto
	OpDup
	OpNewArray
	OpArrayLoad
	OpArrayStore
	OpArrayLength
	OpGet
	OpInvoke
	OpReturn
)

var opcodeNames = map[Opcode]string{
	OpUnknown:     "unknown",
	OpPush:        "push",
	OpLoad:        "load",
	OpStore:       "store",
	OpIncr:        "incr",
	OpBinary:      "binary",
	OpIf:          "if",
	OpIfz:         "ifz",
	OpGoto:        "goto",
	OpDup:         "dup",
	OpNewArray:    "newarray",
	OpArrayLoad:   "array_load",
	OpArrayStore:  "array_store",
	OpArrayLength: "arraylength",
	OpGet:         "get",
	OpInvoke:      "invoke",
	OpReturn:      "return",
}

var opcodesByName = func() map[string]Opcode {
	m := make(map[string]Opcode, len(opcodeNames))
	for op, name := range opcodeNames {
		if op != OpUnknown {
			m[name] = op
		}
	}
	return m
}()

func (o Opcode) String() string {
	if name, ok := opcodeNames[o]; ok {
		return name
	}
	return "unknown"
}

// LookupOpcode maps an "opr" name to its opcode, OpUnknown if unsupported.
func LookupOpcode(name string) Opcode {
	return opcodesByName[name]
}

// Operator is an arithmetic operator carried by a binary instruction.
type Operator int

const (
	OpAdd Operator = iota + 1
	OpSub
	OpMul
	OpDiv
	OpMod
)

var operatorsByName = map[string]Operator{
	"add": OpAdd,
	"sub": OpSub,
	"mul": OpMul,
	"div": OpDiv,
	"mod": OpMod,
	"rem": OpMod,
}

func (o Operator) String() string {
	switch o {
	case OpAdd:
		return "add"
	case OpSub:
		return "sub"
	case OpMul:
		return "mul"
	case OpDiv:
		return "div"
	case OpMod:
		return "mod"
	default:
		return "unknown"
	}
}

// Condition is a comparator carried by if and ifz.
type Condition int

const (
	CondEq Condition = iota + 1
	CondNe
	CondLt
	CondGe
	CondGt
	CondLe
)

var conditionsByName = map[string]Condition{
	"eq": CondEq,
	"ne": CondNe,
	"lt": CondLt,
	"ge": CondGe,
	"gt": CondGt,
	"le": CondLe,
}

func (c Condition) String() string {
	switch c {
	case CondEq:
		return "eq"
	case CondNe:
		return "ne"
	case CondLt:
		return "lt"
	case CondGe:
		return "ge"
	case CondGt:
		return "gt"
	case CondLe:
		return "le"
	default:
		return "unknown"
	}
}

// Holds reports the comparator's verdict given the sign of (a - b).
func (c Condition) Holds(cmp int) bool {
	switch c {
	case CondEq:
		return cmp == 0
	case CondNe:
		return cmp != 0
	case CondLt:
		return cmp < 0
	case CondGe:
		return cmp >= 0
	case CondGt:
		return cmp > 0
	case CondLe:
		return cmp <= 0
	default:
		return false
	}
}
