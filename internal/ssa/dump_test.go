package ssa_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"impulse/internal/cfg"
	"impulse/internal/ssa"
)

func TestDumpIsDeterministic(t *testing.T) {
	fn := diamondFunction()
	g := cfg.Build(fn)
	out := ssa.Build(fn, g)

	first := ssa.Dump(out)
	second := ssa.Dump(out)
	require.Equal(t, first, second)
	require.True(t, strings.Contains(first, "function diamond {"))
	require.True(t, strings.Contains(first, "phi("))
}

func TestDumpFormatsPlainInstruction(t *testing.T) {
	fn := &ssa.Function{
		Name:    "lit",
		Symbols: []ssa.Symbol{{ID: 1, Name: "%t0"}},
		Blocks: []ssa.Block{{
			ID:   0,
			Name: "entry",
			Instructions: []ssa.Instruction{
				{Op: ssa.OpLiteral, Immediates: []string{"42"}, Result: ssa.Value{Symbol: 1, Version: 1}},
				{Op: ssa.OpReturn, Args: []ssa.Value{{Symbol: 1, Version: 1}}},
			},
		}},
	}
	text := ssa.Dump(fn)
	require.Contains(t, text, "literal 42")
	require.Contains(t, text, "return v1.1")
}
