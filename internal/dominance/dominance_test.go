package dominance_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"impulse/internal/cfg"
	"impulse/internal/dominance"
	"impulse/internal/ir"
)

// diamond builds entry -> {then, else} -> join, a standard diamond CFG.
func diamond() *cfg.Graph {
	fn := &ir.Function{
		Blocks: []ir.BasicBlock{{
			Label: "entry",
			Instructions: []ir.Instruction{
				{Kind: ir.OpLiteral, Operands: []string{"1"}},
				{Kind: ir.OpBranchIf, Operands: []string{"then", "0"}},
				{Kind: ir.OpLabel, Operands: []string{"else"}},
				{Kind: ir.OpBranch, Operands: []string{"join"}},
				{Kind: ir.OpLabel, Operands: []string{"then"}},
				{Kind: ir.OpBranch, Operands: []string{"join"}},
				{Kind: ir.OpLabel, Operands: []string{"join"}},
				{Kind: ir.OpReturn},
			},
		}},
	}
	return cfg.Build(fn)
}

func TestDiamondDominance(t *testing.T) {
	g := diamond()
	info := dominance.Compute(g)

	entry := 0
	thenIdx := g.FindBlock("then")
	elseIdx := g.FindBlock("else")
	joinIdx := g.FindBlock("join")

	require.Equal(t, entry, info.Idom[entry])
	require.Equal(t, entry, info.Idom[thenIdx])
	require.Equal(t, entry, info.Idom[elseIdx])
	require.Equal(t, entry, info.Idom[joinIdx])

	require.True(t, info.Dominates(entry, joinIdx))
	require.False(t, info.Dominates(thenIdx, joinIdx))
	require.False(t, info.Dominates(elseIdx, joinIdx))

	require.Contains(t, info.Frontier[thenIdx], joinIdx)
	require.Contains(t, info.Frontier[elseIdx], joinIdx)
}

func TestLinearChainNoFrontier(t *testing.T) {
	fn := &ir.Function{
		Blocks: []ir.BasicBlock{{
			Label: "entry",
			Instructions: []ir.Instruction{
				{Kind: ir.OpReturn},
			},
		}},
	}
	g := cfg.Build(fn)
	info := dominance.Compute(g)
	require.Empty(t, info.Frontier[0])
}
