package ssa_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"impulse/internal/cfg"
	"impulse/internal/ir"
	"impulse/internal/ssa"
)

func diamondFunction() *ir.Function {
	// if cond { x = 1 } else { x = 2 }; return x
	return &ir.Function{
		Name: "diamond",
		Blocks: []ir.BasicBlock{{
			Label: "entry",
			Instructions: []ir.Instruction{
				{Kind: ir.OpReference, Operands: []string{"cond"}},
				{Kind: ir.OpBranchIf, Operands: []string{"then", "1"}},
				{Kind: ir.OpLabel, Operands: []string{"else"}},
				{Kind: ir.OpLiteral, Operands: []string{"2"}},
				{Kind: ir.OpStore, Operands: []string{"x"}},
				{Kind: ir.OpBranch, Operands: []string{"join"}},
				{Kind: ir.OpLabel, Operands: []string{"then"}},
				{Kind: ir.OpLiteral, Operands: []string{"1"}},
				{Kind: ir.OpStore, Operands: []string{"x"}},
				{Kind: ir.OpBranch, Operands: []string{"join"}},
				{Kind: ir.OpLabel, Operands: []string{"join"}},
				{Kind: ir.OpReference, Operands: []string{"x"}},
				{Kind: ir.OpReturn},
			},
		}},
		Parameters: []ir.Parameter{{Name: ir.Identifier{Name: "cond"}, Type: "bool"}},
	}
}

func TestBuildInsertsPhiAtJoin(t *testing.T) {
	fn := diamondFunction()
	g := cfg.Build(fn)
	out := ssa.Build(fn, g)

	joinIdx := g.FindBlock("join")
	require.GreaterOrEqual(t, joinIdx, 0)

	join := out.Blocks[joinIdx]
	require.Len(t, join.Phis, 1)
	require.Equal(t, "x", out.FindSymbol(join.Phis[0].Symbol).Name)
	require.Len(t, join.Phis[0].Inputs, 2)
	for _, input := range join.Phis[0].Inputs {
		require.True(t, input.Value.Valid())
	}
}

func TestBuildLowersStackToThreeAddress(t *testing.T) {
	fn := &ir.Function{
		Name: "add_one",
		Blocks: []ir.BasicBlock{{
			Label: "entry",
			Instructions: []ir.Instruction{
				{Kind: ir.OpReference, Operands: []string{"x"}},
				{Kind: ir.OpLiteral, Operands: []string{"1"}},
				{Kind: ir.OpBinary, Operands: []string{"+"}},
				{Kind: ir.OpReturn},
			},
		}},
		Parameters: []ir.Parameter{{Name: ir.Identifier{Name: "x"}, Type: "int"}},
	}
	g := cfg.Build(fn)
	out := ssa.Build(fn, g)

	require.Len(t, out.Blocks, 1)
	block := out.Blocks[0]

	var sawBinary, sawReturn bool
	for _, inst := range block.Instructions {
		switch inst.Op {
		case ssa.OpBinary:
			sawBinary = true
			require.Len(t, inst.Args, 2)
			require.Equal(t, []string{"+"}, inst.Immediates)
			require.True(t, inst.HasResult())
		case ssa.OpReturn:
			sawReturn = true
			require.Len(t, inst.Args, 1)
		}
	}
	require.True(t, sawBinary)
	require.True(t, sawReturn)
}

func TestBuildParameterVersionOne(t *testing.T) {
	fn := &ir.Function{
		Name: "identity",
		Blocks: []ir.BasicBlock{{
			Label: "entry",
			Instructions: []ir.Instruction{
				{Kind: ir.OpReference, Operands: []string{"x"}},
				{Kind: ir.OpReturn},
			},
		}},
		Parameters: []ir.Parameter{{Name: ir.Identifier{Name: "x"}, Type: "int"}},
	}
	g := cfg.Build(fn)
	out := ssa.Build(fn, g)

	ret := out.Blocks[0].Instructions[len(out.Blocks[0].Instructions)-1]
	require.Equal(t, ssa.OpReturn, ret.Op)
	require.Equal(t, uint32(1), ret.Args[0].Version)
}
