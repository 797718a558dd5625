package interp_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"impulse/internal/cfg"
	"impulse/internal/gcheap"
	"impulse/internal/interp"
	"impulse/internal/ir"
	"impulse/internal/ssa"
)

func buildSSA(fn *ir.Function) *ssa.Function {
	g := cfg.Build(fn)
	return ssa.Optimize(ssa.Build(fn, g))
}

func noCall(string, []interp.Value) (interp.Result, bool) {
	return interp.Result{}, false
}

func TestRunReturnsLiteral(t *testing.T) {
	fn := &ir.Function{
		Name: "answer",
		Blocks: []ir.BasicBlock{{
			Label: "entry",
			Instructions: []ir.Instruction{
				{Kind: ir.OpLiteral, Operands: []string{"42"}},
				{Kind: ir.OpReturn},
			},
		}},
	}
	built := buildSSA(fn)
	in := interp.New(built, nil, nil, noCall, nil, func() {}, nil, nil, nil)
	result := in.Run()
	require.Equal(t, interp.StatusSuccess, result.Status)
	require.True(t, result.HasValue)
	require.Equal(t, 42.0, result.Value.Number)
}

func TestRunBranchLoop(t *testing.T) {
	// x starts at parameter 0, while x < 3 { x = x + 1 } return x
	fn := &ir.Function{
		Name:       "count_to_three",
		Parameters: []ir.Parameter{{Name: ir.Identifier{Name: "x"}, Type: "int"}},
		Blocks: []ir.BasicBlock{{
			Label: "entry",
			Instructions: []ir.Instruction{
				{Kind: ir.OpComment, Operands: []string{"x arrives as a parameter"}},
				{Kind: ir.OpLabel, Operands: []string{"loop"}},
				{Kind: ir.OpReference, Operands: []string{"x"}},
				{Kind: ir.OpLiteral, Operands: []string{"3"}},
				{Kind: ir.OpBinary, Operands: []string{"<"}},
				{Kind: ir.OpBranchIf, Operands: []string{"body", "1"}},
				{Kind: ir.OpLabel, Operands: []string{"exit"}},
				{Kind: ir.OpReference, Operands: []string{"x"}},
				{Kind: ir.OpReturn},
				{Kind: ir.OpLabel, Operands: []string{"body"}},
				{Kind: ir.OpReference, Operands: []string{"x"}},
				{Kind: ir.OpLiteral, Operands: []string{"1"}},
				{Kind: ir.OpBinary, Operands: []string{"+"}},
				{Kind: ir.OpStore, Operands: []string{"x"}},
				{Kind: ir.OpBranch, Operands: []string{"loop"}},
			},
		}},
	}
	built := buildSSA(fn)
	params := map[string]interp.Value{"x": interp.NumberValue(0)}
	in := interp.New(built, params, nil, noCall, nil, func() {}, nil, nil, nil)
	result := in.Run()
	require.Equal(t, interp.StatusSuccess, result.Status)
	require.Equal(t, 3.0, result.Value.Number)
}

func TestRunCallsBuiltinPrintln(t *testing.T) {
	fn := &ir.Function{
		Name: "greet",
		Blocks: []ir.BasicBlock{{
			Label: "entry",
			Instructions: []ir.Instruction{
				{Kind: ir.OpStringLiteral, Operands: []string{"hi"}},
				{Kind: ir.OpCall, Operands: []string{"println", "1"}},
				{Kind: ir.OpDrop},
				{Kind: ir.OpLiteral, Operands: []string{"0"}},
				{Kind: ir.OpReturn},
			},
		}},
	}
	built := buildSSA(fn)
	var out strings.Builder
	in := interp.New(built, nil, nil, noCall, nil, func() {}, &out, nil, nil)
	result := in.Run()
	require.Equal(t, interp.StatusSuccess, result.Status)
	require.Equal(t, "hi\n", out.String())
}

func TestRunBuiltinArrayPush(t *testing.T) {
	// arr = array(2); arr = array_push(arr, 99); return arr[2]
	fn := &ir.Function{
		Name: "push_then_get",
		Blocks: []ir.BasicBlock{{
			Label: "entry",
			Instructions: []ir.Instruction{
				{Kind: ir.OpLiteral, Operands: []string{"2"}},
				{Kind: ir.OpMakeArray},
				{Kind: ir.OpStore, Operands: []string{"arr"}},
				{Kind: ir.OpReference, Operands: []string{"arr"}},
				{Kind: ir.OpLiteral, Operands: []string{"99"}},
				{Kind: ir.OpCall, Operands: []string{"array_push", "2"}},
				{Kind: ir.OpStore, Operands: []string{"arr"}},
				{Kind: ir.OpReference, Operands: []string{"arr"}},
				{Kind: ir.OpLiteral, Operands: []string{"2"}},
				{Kind: ir.OpArrayGet},
				{Kind: ir.OpReturn},
			},
		}},
	}
	built := buildSSA(fn)
	heap := gcheap.New()
	allocate := func(length int) *gcheap.GcObject { return heap.AllocateArray(length, gcheap.Nil()) }
	in := interp.New(built, nil, nil, noCall, allocate, func() {}, nil, nil, nil)
	result := in.Run()
	require.Equal(t, interp.StatusSuccess, result.Status)
	require.Equal(t, 99.0, result.Value.Number)
}

func TestRunBuiltinArrayPop(t *testing.T) {
	// arr = array(1); arr[0] = 7; return array_pop(arr)
	fn := &ir.Function{
		Name: "pop_last",
		Blocks: []ir.BasicBlock{{
			Label: "entry",
			Instructions: []ir.Instruction{
				{Kind: ir.OpLiteral, Operands: []string{"1"}},
				{Kind: ir.OpMakeArray},
				{Kind: ir.OpStore, Operands: []string{"arr"}},
				{Kind: ir.OpReference, Operands: []string{"arr"}},
				{Kind: ir.OpLiteral, Operands: []string{"0"}},
				{Kind: ir.OpLiteral, Operands: []string{"7"}},
				{Kind: ir.OpArraySet},
				{Kind: ir.OpDrop},
				{Kind: ir.OpReference, Operands: []string{"arr"}},
				{Kind: ir.OpCall, Operands: []string{"array_pop", "1"}},
				{Kind: ir.OpReturn},
			},
		}},
	}
	built := buildSSA(fn)
	heap := gcheap.New()
	allocate := func(length int) *gcheap.GcObject { return heap.AllocateArray(length, gcheap.Nil()) }
	in := interp.New(built, nil, nil, noCall, allocate, func() {}, nil, nil, nil)
	result := in.Run()
	require.Equal(t, interp.StatusSuccess, result.Status)
	require.Equal(t, 7.0, result.Value.Number)
}

func TestRunBuiltinArrayFill(t *testing.T) {
	// arr = array(3); arr = array_fill(arr, 9); return array_sum(arr)
	fn := &ir.Function{
		Name: "fill_then_sum",
		Blocks: []ir.BasicBlock{{
			Label: "entry",
			Instructions: []ir.Instruction{
				{Kind: ir.OpLiteral, Operands: []string{"3"}},
				{Kind: ir.OpMakeArray},
				{Kind: ir.OpStore, Operands: []string{"arr"}},
				{Kind: ir.OpReference, Operands: []string{"arr"}},
				{Kind: ir.OpLiteral, Operands: []string{"9"}},
				{Kind: ir.OpCall, Operands: []string{"array_fill", "2"}},
				{Kind: ir.OpStore, Operands: []string{"arr"}},
				{Kind: ir.OpReference, Operands: []string{"arr"}},
				{Kind: ir.OpCall, Operands: []string{"array_sum", "1"}},
				{Kind: ir.OpReturn},
			},
		}},
	}
	built := buildSSA(fn)
	heap := gcheap.New()
	allocate := func(length int) *gcheap.GcObject { return heap.AllocateArray(length, gcheap.Nil()) }
	in := interp.New(built, nil, nil, noCall, allocate, func() {}, nil, nil, nil)
	result := in.Run()
	require.Equal(t, interp.StatusSuccess, result.Status)
	require.Equal(t, 27.0, result.Value.Number)
}

func TestRunBuiltinArraySumSkipsUnsetSlots(t *testing.T) {
	// arr = array(3); arr[0] = 5; arr[2] = 7; arr[1] left Nil. return array_sum(arr)
	fn := &ir.Function{
		Name: "sum_partial",
		Blocks: []ir.BasicBlock{{
			Label: "entry",
			Instructions: []ir.Instruction{
				{Kind: ir.OpLiteral, Operands: []string{"3"}},
				{Kind: ir.OpMakeArray},
				{Kind: ir.OpStore, Operands: []string{"arr"}},

				{Kind: ir.OpReference, Operands: []string{"arr"}},
				{Kind: ir.OpLiteral, Operands: []string{"0"}},
				{Kind: ir.OpLiteral, Operands: []string{"5"}},
				{Kind: ir.OpArraySet},
				{Kind: ir.OpDrop},

				{Kind: ir.OpReference, Operands: []string{"arr"}},
				{Kind: ir.OpLiteral, Operands: []string{"2"}},
				{Kind: ir.OpLiteral, Operands: []string{"7"}},
				{Kind: ir.OpArraySet},
				{Kind: ir.OpDrop},

				{Kind: ir.OpReference, Operands: []string{"arr"}},
				{Kind: ir.OpCall, Operands: []string{"array_sum", "1"}},
				{Kind: ir.OpReturn},
			},
		}},
	}
	built := buildSSA(fn)
	heap := gcheap.New()
	allocate := func(length int) *gcheap.GcObject { return heap.AllocateArray(length, gcheap.Nil()) }
	in := interp.New(built, nil, nil, noCall, allocate, func() {}, nil, nil, nil)
	result := in.Run()
	require.Equal(t, interp.StatusSuccess, result.Status)
	require.Equal(t, 12.0, result.Value.Number)
}

func TestRunBuiltinArrayJoinSkipsUnsetSlots(t *testing.T) {
	// arr = array(3); arr[0] = 1; arr[2] = 3; arr[1] left Nil.
	// return string_length(array_join(arr, ","))  ("1,3" has length 3)
	fn := &ir.Function{
		Name: "join_partial",
		Blocks: []ir.BasicBlock{{
			Label: "entry",
			Instructions: []ir.Instruction{
				{Kind: ir.OpLiteral, Operands: []string{"3"}},
				{Kind: ir.OpMakeArray},
				{Kind: ir.OpStore, Operands: []string{"arr"}},

				{Kind: ir.OpReference, Operands: []string{"arr"}},
				{Kind: ir.OpLiteral, Operands: []string{"0"}},
				{Kind: ir.OpLiteral, Operands: []string{"1"}},
				{Kind: ir.OpArraySet},
				{Kind: ir.OpDrop},

				{Kind: ir.OpReference, Operands: []string{"arr"}},
				{Kind: ir.OpLiteral, Operands: []string{"2"}},
				{Kind: ir.OpLiteral, Operands: []string{"3"}},
				{Kind: ir.OpArraySet},
				{Kind: ir.OpDrop},

				{Kind: ir.OpReference, Operands: []string{"arr"}},
				{Kind: ir.OpStringLiteral, Operands: []string{","}},
				{Kind: ir.OpCall, Operands: []string{"array_join", "2"}},
				{Kind: ir.OpCall, Operands: []string{"string_length", "1"}},
				{Kind: ir.OpReturn},
			},
		}},
	}
	built := buildSSA(fn)
	heap := gcheap.New()
	allocate := func(length int) *gcheap.GcObject { return heap.AllocateArray(length, gcheap.Nil()) }
	in := interp.New(built, nil, nil, noCall, allocate, func() {}, nil, nil, nil)
	result := in.Run()
	require.Equal(t, interp.StatusSuccess, result.Status)
	require.Equal(t, 3.0, result.Value.Number)
}

func TestRunAllocatesAndReadsArray(t *testing.T) {
	fn := &ir.Function{
		Name: "array_roundtrip",
		Blocks: []ir.BasicBlock{{
			Label: "entry",
			Instructions: []ir.Instruction{
				{Kind: ir.OpLiteral, Operands: []string{"3"}},
				{Kind: ir.OpMakeArray},
				{Kind: ir.OpStore, Operands: []string{"arr"}},
				{Kind: ir.OpReference, Operands: []string{"arr"}},
				{Kind: ir.OpLiteral, Operands: []string{"0"}},
				{Kind: ir.OpArrayGet},
				{Kind: ir.OpReturn},
			},
		}},
	}
	built := buildSSA(fn)
	heap := gcheap.New()
	allocate := func(length int) *gcheap.GcObject { return heap.AllocateArray(length, gcheap.Nil()) }
	in := interp.New(built, nil, nil, noCall, allocate, func() {}, nil, nil, nil)
	result := in.Run()
	require.Equal(t, interp.StatusSuccess, result.Status)
	require.Equal(t, 0.0, result.Value.Number)
}
