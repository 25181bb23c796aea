package bytecode

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
)

// TypeName is a decoded jvm2json type. Primitive types keep their name,
// class and array types collapse to "ref", and null decodes to "" (void).
type TypeName string

const (
	TypeVoid TypeName = ""
	TypeInt  TypeName = "int"
	TypeRef  TypeName = "ref"
)

func (t *TypeName) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*t = TypeVoid
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = TypeName(s)
	case len(data) > 0 && data[0] == '{':
		*t = TypeRef
	default:
		return fmt.Errorf("unsupported type descriptor: %s", data)
	}
	return nil
}

// IsVoid reports whether the type describes no value.
func (t TypeName) IsVoid() bool { return t == TypeVoid }

type ConstKind int

const (
	ConstNull ConstKind = iota
	ConstInt
	ConstString
	ConstUnsupported
)

// Constant is the literal carried by a push instruction.
type Constant struct {
	Kind ConstKind
	Type string
	Int  *big.Int
	Str  string
}

func (c *Constant) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type  string          `json:"type"`
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	c.Type = raw.Type
	if len(raw.Value) == 0 || bytes.Equal(raw.Value, []byte("null")) {
		c.Kind = ConstNull
		return nil
	}

	switch raw.Type {
	case "integer", "int", "long", "short", "byte", "char":
		n, ok := new(big.Int).SetString(string(raw.Value), 10)
		if !ok {
			return fmt.Errorf("invalid integer constant: %s", raw.Value)
		}
		c.Kind, c.Int = ConstInt, n
	case "boolean":
		var b bool
		if err := json.Unmarshal(raw.Value, &b); err != nil {
			return fmt.Errorf("invalid boolean constant: %w", err)
		}
		c.Kind, c.Int = ConstInt, big.NewInt(0)
		if b {
			c.Int.SetInt64(1)
		}
	case "string":
		if err := json.Unmarshal(raw.Value, &c.Str); err != nil {
			return fmt.Errorf("invalid string constant: %w", err)
		}
		c.Kind = ConstString
	default:
		c.Kind = ConstUnsupported
	}
	return nil
}

func (c Constant) String() string {
	switch c.Kind {
	case ConstInt:
		return c.Int.String()
	case ConstString:
		return fmt.Sprintf("%q", c.Str)
	case ConstNull:
		return "null"
	default:
		return "<" + c.Type + ">"
	}
}

// ClassRef names a class, as used for field types and method owners.
type ClassRef struct {
	Kind string `json:"kind"`
	Name string `json:"name"`
}

// Field is a static field descriptor.
type Field struct {
	Class string   `json:"class"`
	Name  string   `json:"name"`
	Type  ClassRef `json:"type"`
}

// Method is a method descriptor carried by invoke.
type Method struct {
	Ref     ClassRef   `json:"ref"`
	Name    string     `json:"name"`
	Args    []TypeName `json:"args"`
	Returns TypeName   `json:"returns"`
}

// ArgNum is the number of declared arguments.
func (m Method) ArgNum() int { return len(m.Args) }

// Instruction is one decoded bytecode instruction.
type Instruction struct {
	Offset int
	Op     Opcode
	Name   string // raw "opr" name, kept for unknown opcodes

	Value     Constant
	Index     int
	Type      TypeName
	Target    int
	Condition Condition
	Operator  Operator
	Amount    int64
	Words     int
	Field     *Field
	Method    *Method
	Access    string
}

type rawInstruction struct {
	Offset    int             `json:"offset"`
	Opr       string          `json:"opr"`
	Value     json.RawMessage `json:"value"`
	Index     int             `json:"index"`
	Type      TypeName        `json:"type"`
	Target    int             `json:"target"`
	Condition string          `json:"condition"`
	Operant   string          `json:"operant"`
	Amount    int64           `json:"amount"`
	Words     int             `json:"words"`
	Field     *Field          `json:"field"`
	Method    *Method         `json:"method"`
	Access    string          `json:"access"`
}

func (in *Instruction) UnmarshalJSON(data []byte) error {
	var raw rawInstruction
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*in = Instruction{
		Offset:    raw.Offset,
		Op:        LookupOpcode(raw.Opr),
		Name:      raw.Opr,
		Index:     raw.Index,
		Type:      raw.Type,
		Target:    raw.Target,
		Condition: conditionsByName[raw.Condition],
		Operator:  operatorsByName[raw.Operant],
		Amount:    raw.Amount,
		Words:     raw.Words,
		Field:     raw.Field,
		Method:    raw.Method,
		Access:    raw.Access,
	}

	if in.Op == OpPush {
		if len(raw.Value) == 0 {
			return fmt.Errorf("push at offset %d: missing value", raw.Offset)
		}
		if err := json.Unmarshal(raw.Value, &in.Value); err != nil {
			return fmt.Errorf("push at offset %d: %w", raw.Offset, err)
		}
	}
	if in.Op == OpInvoke && in.Method == nil {
		return fmt.Errorf("invoke at offset %d: missing method", raw.Offset)
	}
	return nil
}

// String returns a string representation of the instruction
func (in Instruction) String() string {
	var sb strings.Builder
	sb.WriteString(in.Name)

	switch in.Op {
	case OpPush:
		sb.WriteString(" " + in.Value.String())
	case OpLoad, OpStore:
		fmt.Fprintf(&sb, " %s %d", in.Type, in.Index)
	case OpIncr:
		fmt.Fprintf(&sb, " %d %+d", in.Index, in.Amount)
	case OpBinary:
		sb.WriteString(" " + in.Operator.String())
	case OpIf, OpIfz:
		fmt.Fprintf(&sb, " %s -> %d", in.Condition, in.Target)
	case OpGoto:
		fmt.Fprintf(&sb, " -> %d", in.Target)
	case OpDup:
		fmt.Fprintf(&sb, " %d", in.Words)
	case OpGet:
		if in.Field != nil {
			fmt.Fprintf(&sb, " %s.%s", in.Field.Class, in.Field.Name)
		}
	case OpInvoke:
		fmt.Fprintf(&sb, " %s %s.%s/%d", in.Access, in.Method.Ref.Name, in.Method.Name, in.Method.ArgNum())
	case OpReturn:
		if in.Type.IsVoid() {
			sb.WriteString(" void")
		} else {
			sb.WriteString(" " + string(in.Type))
		}
	}

	return sb.String()
}
