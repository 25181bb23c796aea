package abstract_test

import (
	"errors"
	"math/big"
	"slices"
	"testing"

	"jinterp/pkg/abstract"
	"jinterp/pkg/bytecode"
	"jinterp/pkg/interpreter"
)

func methods(t *testing.T) bytecode.Table {
	t.Helper()
	c, err := bytecode.LoadClassFile("../bytecode/testdata/Simple.json")
	if err != nil {
		t.Fatalf("load class: %v", err)
	}
	table, err := c.Table(bytecode.DefaultMarker)
	if err != nil {
		t.Fatalf("build table: %v", err)
	}
	return table
}

func program(code ...bytecode.Instruction) *bytecode.Program {
	return &bytecode.Program{Name: "test", Bytecode: code}
}

func push(n int64) bytecode.Instruction {
	return bytecode.Instruction{Op: bytecode.OpPush, Name: "push", Value: bytecode.Constant{Kind: bytecode.ConstInt, Int: big.NewInt(n)}}
}

func TestAnalyzeReturns(t *testing.T) {
	table := methods(t)
	P, N, Z, T := abstract.Positive, abstract.Negative, abstract.Zero, abstract.Top

	tests := []struct {
		method string
		args   []abstract.Sign
		want   abstract.Sign
	}{
		{"zero", nil, Z},
		{"hundredAndTwo", nil, P},
		{"identity", []abstract.Sign{N}, N},
		{"add", []abstract.Sign{P, P}, P},
		{"add", []abstract.Sign{P, N}, T},
		{"min", []abstract.Sign{P, N}, N},
		{"min", []abstract.Sign{N, P}, N},
		{"min", []abstract.Sign{P, P}, P},
		{"divide", []abstract.Sign{N, P}, N},
		{"divide", []abstract.Sign{P, T}, T},
		{"factorial", []abstract.Sign{P}, T},
		{"factorial", []abstract.Sign{N}, P},
		{"sumTo", []abstract.Sign{N}, Z},
		{"sumTo", []abstract.Sign{P}, T},
	}

	for _, test := range tests {
		res, err := abstract.Analyze(table[test.method], test.args, 100)
		if err != nil {
			t.Errorf("%s%v: unexpected error %v", test.method, test.args, err)
			continue
		}
		if !res.Converged {
			t.Errorf("%s%v: expected convergence within 100 rounds", test.method, test.args)
		}
		if res.Returns != test.want {
			t.Errorf("%s%v: expected %s, got %s", test.method, test.args, test.want, res.Returns)
		}
	}
}

func TestAnalyzePrunesBranches(t *testing.T) {
	table := methods(t)
	res, err := abstract.Analyze(table["min"], []abstract.Sign{abstract.Positive, abstract.Negative}, 100)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := res.PCs(), []int{0, 1, 2, 5, 6}; !slices.Equal(got, want) {
		t.Errorf("expected points %v, got %v", want, got)
	}
}

func TestAnalyzeBounded(t *testing.T) {
	table := methods(t)
	args := abstract.Args(interpreter.NewInt(5))

	res, err := abstract.Analyze(table["sumTo"], args, 0)
	if err != nil {
		t.Fatal(err)
	}
	if res.Rounds != 0 || len(res.States) != 1 {
		t.Errorf("k=0 must only seed the entry, got %d rounds and %d points", res.Rounds, len(res.States))
	}

	res, err = abstract.Analyze(table["sumTo"], args, 1)
	if err != nil {
		t.Fatal(err)
	}
	if res.Rounds != 1 || res.Converged || !slices.Equal(res.PCs(), []int{0, 1}) {
		t.Errorf("k=1: got rounds=%d converged=%v points=%v", res.Rounds, res.Converged, res.PCs())
	}

	entry := res.States[1]
	if !slices.Equal(entry.Locals, []abstract.Sign{abstract.Positive}) || !slices.Equal(entry.Stack, []abstract.Sign{abstract.Zero}) {
		t.Errorf("unexpected state after push: %s", entry)
	}
}

func TestAnalyzeVoid(t *testing.T) {
	table := methods(t)
	res, err := abstract.Analyze(table["helloWorld"], nil, 10)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Void || res.Returns != abstract.Bottom {
		t.Errorf("expected only a void return, got void=%v returns=%s", res.Void, res.Returns)
	}
}

func TestAnalyzeErrors(t *testing.T) {
	table := methods(t)
	ifz := bytecode.Instruction{Op: bytecode.OpIfz, Name: "ifz", Condition: bytecode.CondGt, Target: 4}
	load := bytecode.Instruction{Op: bytecode.OpLoad, Name: "load", Index: 0}
	ret := bytecode.Instruction{Op: bytecode.OpReturn, Name: "return", Type: bytecode.TypeInt}
	retVoid := bytecode.Instruction{Op: bytecode.OpReturn, Name: "return", Type: bytecode.TypeVoid}
	newarray := bytecode.Instruction{Op: bytecode.OpNewArray, Name: "newarray"}
	arrayLoad := bytecode.Instruction{Op: bytecode.OpArrayLoad, Name: "array_load"}
	binary := bytecode.Instruction{Op: bytecode.OpBinary, Name: "binary", Operator: bytecode.OpAdd}
	farGoto := bytecode.Instruction{Op: bytecode.OpGoto, Name: "goto", Target: 99}
	backIfz := bytecode.Instruction{Op: bytecode.OpIfz, Name: "ifz", Condition: bytecode.CondGt, Target: -3}
	bareIfz := bytecode.Instruction{Op: bytecode.OpIfz, Name: "ifz", Target: 0}

	tests := []struct {
		name string
		p    *bytecode.Program
		args []abstract.Sign
		want error
		pc   int
	}{
		{"literal division by zero", table["divideByZero"], nil, abstract.ErrDivisionByZero, 2},
		{"argument division by zero", table["divide"], []abstract.Sign{abstract.Positive, abstract.Zero}, abstract.ErrDivisionByZero, 2},
		{"remainder by zero", table["remainder"], []abstract.Sign{abstract.Top, abstract.Zero}, abstract.ErrDivisionByZero, 2},
		{"negative index", program(newarray, push(-1), arrayLoad, ret), nil, abstract.ErrNegativeIndex, 2},
		{"stack mismatch", program(load, ifz, push(1), push(2), retVoid), []abstract.Sign{abstract.Top}, abstract.ErrStackMismatch, 4},
		{"underflow", program(push(1), binary, ret), nil, abstract.ErrStackUnderflow, 1},
		{"missing local", program(load, ret), nil, abstract.ErrLocalRange, 0},
		{"goto outside method", program(farGoto), nil, abstract.ErrPCRange, 0},
		{"branch outside method", program(push(1), backIfz, ret), nil, abstract.ErrPCRange, 1},
		{"missing comparator", program(push(1), bareIfz, ret), nil, abstract.ErrUnsupportedCondition, 1},
	}

	for _, test := range tests {
		res, err := abstract.Analyze(test.p, test.args, 20)
		if !errors.Is(err, test.want) {
			t.Errorf("%s: expected %v, got %v", test.name, test.want, err)
			continue
		}
		var ae *abstract.Error
		if !errors.As(err, &ae) || ae.PC != test.pc {
			t.Errorf("%s: expected error at pc %d, got %v", test.name, test.pc, err)
		}
		if res == nil {
			t.Errorf("%s: expected the partial result alongside the error", test.name)
		}
	}
}

func TestAnalyzeUnknownInstruction(t *testing.T) {
	unknown := bytecode.Instruction{Op: bytecode.OpUnknown, Name: "monitorenter"}
	res, err := abstract.Analyze(program(push(1), unknown), nil, 10)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(res.Halts, []int{1}) || !res.Converged {
		t.Errorf("expected a halt at pc 1, got %v (converged=%v)", res.Halts, res.Converged)
	}
}

func TestAnalyzeFallsOffEnd(t *testing.T) {
	res, err := abstract.Analyze(program(push(1)), nil, 10)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(res.PCs(), []int{0, 1}) || !res.Converged || res.Returns != abstract.Bottom || res.Void {
		t.Errorf("expected the path to end silently past the last instruction, got %v returns=%s void=%v", res.PCs(), res.Returns, res.Void)
	}
}
