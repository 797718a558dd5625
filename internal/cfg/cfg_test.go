package cfg_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"impulse/internal/cfg"
	"impulse/internal/ir"
)

func TestBuildEmptyFunction(t *testing.T) {
	fn := &ir.Function{Name: "empty"}
	g := cfg.Build(fn)
	require.Len(t, g.Blocks, 1)
	require.Equal(t, "entry", g.Blocks[0].Name)
}

func TestBuildBranchIf(t *testing.T) {
	// while x < 5 { x = x + 1 } return x
	fn := &ir.Function{
		Name: "loop",
		Blocks: []ir.BasicBlock{{
			Label: "entry",
			Instructions: []ir.Instruction{
				{Kind: ir.OpReference, Operands: []string{"x"}},
				{Kind: ir.OpLiteral, Operands: []string{"5"}},
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
				{Kind: ir.OpBranch, Operands: []string{"entry"}},
			},
		}},
	}

	g := cfg.Build(fn)
	require.Len(t, g.Blocks, 3)

	entry := g.Blocks[0]
	require.Equal(t, "entry", entry.Name)
	require.Len(t, entry.Successors, 2)

	exitIdx := g.FindBlock("exit")
	bodyIdx := g.FindBlock("body")
	require.GreaterOrEqual(t, exitIdx, 0)
	require.GreaterOrEqual(t, bodyIdx, 0)
	require.Contains(t, entry.Successors, bodyIdx)
	require.Contains(t, entry.Successors, exitIdx)

	require.Empty(t, g.Blocks[exitIdx].Successors)
	require.Contains(t, g.Blocks[bodyIdx].Successors, 0)
	require.Contains(t, g.Blocks[0].Predecessors, bodyIdx)
}

func TestUnknownBranchTargetDropped(t *testing.T) {
	fn := &ir.Function{
		Blocks: []ir.BasicBlock{{
			Label: "entry",
			Instructions: []ir.Instruction{
				{Kind: ir.OpBranch, Operands: []string{"nowhere"}},
			},
		}},
	}
	g := cfg.Build(fn)
	require.Empty(t, g.Blocks[0].Successors)
}
