package bytecode_test

import (
	"errors"
	"jinterp/pkg/bytecode"
	"strings"
	"testing"
)

func loadSimple(t *testing.T) bytecode.Table {
	t.Helper()
	c, err := bytecode.LoadClassFile("testdata/Simple.json")
	if err != nil {
		t.Fatalf("load class: %v", err)
	}
	table, err := c.Table(bytecode.DefaultMarker)
	if err != nil {
		t.Fatalf("build table: %v", err)
	}
	return table
}

func TestTableFiltersByMarker(t *testing.T) {
	table := loadSimple(t)

	for _, name := range []string{"noop", "zero", "factorial", "helloWorld", "newArray"} {
		if _, ok := table[name]; !ok {
			t.Errorf("expected %s in method table", name)
		}
	}
	if _, ok := table["helper"]; ok {
		t.Error("helper has no marker annotation and must be filtered out")
	}

	c, err := bytecode.LoadClassFile("testdata/Simple.json")
	if err != nil {
		t.Fatal(err)
	}
	all, err := c.Table("")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := all["helper"]; !ok {
		t.Error("empty marker should select every method")
	}
}

func TestLoadTable(t *testing.T) {
	table, err := bytecode.LoadTable(bytecode.DefaultMarker, "testdata/Simple.json", "testdata/Other.json")
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"subtract", "subtractAcross"} {
		if _, ok := table[name]; !ok {
			t.Errorf("expected %s in merged table", name)
		}
	}

	dir, err := bytecode.LoadTable(bytecode.DefaultMarker, "testdata")
	if err != nil {
		t.Fatal(err)
	}
	if len(dir) != len(table) {
		t.Errorf("directory should load the same %d methods, got %d", len(table), len(dir))
	}

	if _, err := bytecode.LoadTable(bytecode.DefaultMarker, "testdata/Missing.json"); err == nil {
		t.Error("expected an error for a missing class file")
	}
}

func TestMerge(t *testing.T) {
	first := &bytecode.Program{Name: "first"}
	second := &bytecode.Program{Name: "second"}
	t1 := bytecode.Table{"a": first, "b": first}
	t1.Merge(bytecode.Table{"b": second, "c": second})

	if len(t1) != 3 || t1["a"] != first || t1["b"] != second || t1["c"] != second {
		t.Errorf("expected later table to win on clashes, got %v", t1)
	}
}

func TestDecodeInstructions(t *testing.T) {
	table := loadSimple(t)

	tests := []struct {
		method string
		pc     int
		check  func(bytecode.Instruction) bool
		desc   string
	}{
		{"zero", 0, func(in bytecode.Instruction) bool {
			return in.Op == bytecode.OpPush && in.Value.Kind == bytecode.ConstInt && in.Value.Int.Int64() == 0
		}, "push integer 0"},
		{"noop", 0, func(in bytecode.Instruction) bool {
			return in.Op == bytecode.OpReturn && in.Type.IsVoid()
		}, "void return"},
		{"zero", 1, func(in bytecode.Instruction) bool {
			return in.Op == bytecode.OpReturn && in.Type == bytecode.TypeInt
		}, "int return"},
		{"min", 2, func(in bytecode.Instruction) bool {
			return in.Op == bytecode.OpIf && in.Condition == bytecode.CondGe && in.Target == 5
		}, "if ge"},
		{"remainder", 2, func(in bytecode.Instruction) bool {
			return in.Op == bytecode.OpBinary && in.Operator == bytecode.OpMod
		}, "rem decodes to mod"},
		{"sumTo", 8, func(in bytecode.Instruction) bool {
			return in.Op == bytecode.OpIncr && in.Index == 0 && in.Amount == -1
		}, "incr"},
		{"helloWorld", 1, func(in bytecode.Instruction) bool {
			return in.Op == bytecode.OpPush && in.Value.Kind == bytecode.ConstString && in.Value.Str == "Hello, World!"
		}, "push string"},
		{"helloWorld", 2, func(in bytecode.Instruction) bool {
			return in.Op == bytecode.OpInvoke && in.Access == "virtual" &&
				in.Method.Name == "println" && in.Method.ArgNum() == 1 && in.Method.Returns.IsVoid()
		}, "invoke println"},
		{"callWriteFirst", 3, func(in bytecode.Instruction) bool {
			return in.Op == bytecode.OpInvoke && in.Method.Args[0] == bytecode.TypeRef
		}, "array arg decodes to ref"},
		{"newArray", 2, func(in bytecode.Instruction) bool {
			return in.Op == bytecode.OpDup && in.Words == 1
		}, "dup"},
	}

	for _, test := range tests {
		in, ok := table[test.method].At(test.pc)
		if !ok {
			t.Errorf("%s: no instruction at %d", test.method, test.pc)
			continue
		}
		if !test.check(in) {
			t.Errorf("%s@%d (%s): unexpected instruction %s", test.method, test.pc, test.desc, in)
		}
	}
}

func TestDecodeProgram(t *testing.T) {
	p, err := bytecode.DecodeProgram("odd", []byte(`{"bytecode":[
		{"offset":0,"opr":"monitorenter"},
		{"offset":1,"opr":"push","value":{"type":"integer","value":123456789012345678901234567890}},
		{"offset":2,"opr":"push","value":{"type":"boolean","value":true}},
		{"offset":3,"opr":"push","value":{"type":"float","value":1.5}},
		{"offset":4,"opr":"push","value":null}
	]}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if p.Name != "odd" || p.Len() != 5 {
		t.Fatalf("unexpected program %q with %d instructions", p.Name, p.Len())
	}

	in, _ := p.At(0)
	if in.Op != bytecode.OpUnknown || in.Name != "monitorenter" {
		t.Errorf("expected unknown opcode keeping its name, got %v %q", in.Op, in.Name)
	}

	in, _ = p.At(1)
	if in.Value.Int.String() != "123456789012345678901234567890" {
		t.Errorf("big constant lost precision: %s", in.Value.Int)
	}

	in, _ = p.At(2)
	if in.Value.Kind != bytecode.ConstInt || in.Value.Int.Int64() != 1 {
		t.Errorf("expected boolean true as int 1, got %s", in.Value)
	}

	in, _ = p.At(3)
	if in.Value.Kind != bytecode.ConstUnsupported {
		t.Errorf("expected float constant to be unsupported, got %v", in.Value.Kind)
	}

	in, _ = p.At(4)
	if in.Value.Kind != bytecode.ConstNull {
		t.Errorf("expected null constant, got %v", in.Value.Kind)
	}

	if _, ok := p.At(5); ok {
		t.Error("expected At past the end to fail")
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`{"bytecode":[{"opr":"push"}]}`, "missing value"},
		{`{"bytecode":[{"opr":"invoke","access":"static"}]}`, "missing method"},
		{`{"bytecode":[{"opr":"push","value":{"type":"integer","value":"x"}}]}`, "invalid integer"},
		{`{"bytecode":[{"opr":"return","type":5}]}`, "unsupported type"},
	}

	for _, test := range tests {
		_, err := bytecode.DecodeProgram("bad", []byte(test.input))
		if err == nil || !strings.Contains(err.Error(), test.want) {
			t.Errorf("input %s: expected error containing %q, got %v", test.input, test.want, err)
		}
	}
}

func TestTableMissingCode(t *testing.T) {
	c, err := bytecode.LoadClass(strings.NewReader(`{"name":"X","methods":[
		{"name":"abstractOne","annotations":[{"type":"dtu/compute/exec/Case"}]}
	]}`))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Table(bytecode.DefaultMarker); !errors.Is(err, bytecode.ErrNoBytecode) {
		t.Errorf("expected ErrNoBytecode, got %v", err)
	}
}

func TestConditionHolds(t *testing.T) {
	tests := []struct {
		cond bytecode.Condition
		cmp  int
		want bool
	}{
		{bytecode.CondGt, 1, true},
		{bytecode.CondGt, 0, false},
		{bytecode.CondGe, 0, true},
		{bytecode.CondLe, 0, true},
		{bytecode.CondLe, 1, false},
		{bytecode.CondLt, -1, true},
		{bytecode.CondEq, 0, true},
		{bytecode.CondNe, 0, false},
	}

	for _, test := range tests {
		if got := test.cond.Holds(test.cmp); got != test.want {
			t.Errorf("%s.Holds(%d) = %v, want %v", test.cond, test.cmp, got, test.want)
		}
	}
}
