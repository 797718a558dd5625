// Package cfg flattens an ir.Function's basic blocks into a control-flow
// graph: a dense array of blocks, each a half-open range over a flat
// instruction vector, wired with successor/predecessor indices.
//
// Grounded on original_source/ir/src/cfg.cpp, followed near-verbatim.
package cfg

import (
	"sort"
	"strconv"

	"impulse/internal/ir"
)

// Block is one node of the control-flow graph: a half-open instruction
// range into Graph.Instructions, a label, and successor/predecessor block
// indices.
type Block struct {
	Name         string
	Start, End   int // half-open [Start, End) into Graph.Instructions
	Successors   []int
	Predecessors []int
}

// Graph is the control-flow graph of a single function.
type Graph struct {
	Instructions []ir.Instruction
	Blocks       []Block
	labelToBlock map[string]int
}

// FindBlock resolves a label to its block index, or -1 if unknown.
func (g *Graph) FindBlock(label string) int {
	if idx, ok := g.labelToBlock[label]; ok {
		return idx
	}
	return -1
}

func isTerminator(kind ir.Opcode) bool {
	switch kind {
	case ir.OpBranch, ir.OpBranchIf, ir.OpReturn:
		return true
	default:
		return false
	}
}

func firstNonEmptyLabel(fn *ir.Function) string {
	for _, block := range fn.Blocks {
		if block.Label != "" {
			return block.Label
		}
	}
	return "entry"
}

// Build flattens fn into a Graph, per spec §4.B:
//  1. flatten instructions, tracking each instruction's source block
//  2. leaders: index 0, every Label target, the instruction after every
//     terminator
//  3. form blocks between consecutive leaders
//  4. compute successors from each block's terminator
//  5. predecessors are the transpose of successors
func Build(fn *ir.Function) *Graph {
	g := &Graph{labelToBlock: map[string]int{}}

	var flat []ir.Instruction
	instructionBlock := make([]int, 0)
	blockFirstIndex := make([]int, len(fn.Blocks))
	for i := range blockFirstIndex {
		blockFirstIndex[i] = -1
	}
	for blockIdx, block := range fn.Blocks {
		first := len(flat)
		for _, inst := range block.Instructions {
			flat = append(flat, inst)
			instructionBlock = append(instructionBlock, blockIdx)
		}
		if len(block.Instructions) > 0 {
			blockFirstIndex[blockIdx] = first
		}
	}
	g.Instructions = flat

	if len(flat) == 0 {
		name := firstNonEmptyLabel(fn)
		g.Blocks = []Block{{Name: name, Start: 0, End: 0}}
		g.labelToBlock[name] = 0
		return g
	}

	leaderSet := map[int]bool{0: true}
	for i, inst := range flat {
		switch {
		case inst.Kind == ir.OpLabel:
			leaderSet[i] = true
		case isTerminator(inst.Kind) && i+1 < len(flat):
			leaderSet[i+1] = true
		}
	}

	leaders := make([]int, 0, len(leaderSet))
	for idx := range leaderSet {
		leaders = append(leaders, idx)
	}
	sort.Ints(leaders)
	if leaders[len(leaders)-1] != len(flat) {
		leaders = append(leaders, len(flat))
	}

	for i := 0; i+1 < len(leaders); i++ {
		start, end := leaders[i], leaders[i+1]

		label := ""
		if start < len(flat) {
			first := flat[start]
			if first.Kind == ir.OpLabel && len(first.Operands) > 0 {
				label = first.Operands[0]
			}
		}
		if label == "" && start < len(instructionBlock) {
			origBlock := instructionBlock[start]
			if origBlock < len(fn.Blocks) && blockFirstIndex[origBlock] == start {
				label = fn.Blocks[origBlock].Label
			}
		}
		if label == "" {
			label = blockSynthName(len(g.Blocks))
		}

		if _, exists := g.labelToBlock[label]; !exists {
			g.labelToBlock[label] = len(g.Blocks)
		}
		g.Blocks = append(g.Blocks, Block{Name: label, Start: start, End: end})
	}

	for idx := range g.Blocks {
		block := &g.Blocks[idx]
		terminator, ok := findTerminator(g.Instructions, block.Start, block.End)
		if !ok {
			if idx+1 < len(g.Blocks) {
				block.Successors = append(block.Successors, idx+1)
			}
			continue
		}

		switch terminator.Kind {
		case ir.OpBranch:
			if len(terminator.Operands) > 0 {
				if target := g.FindBlock(terminator.Operands[0]); target >= 0 {
					block.Successors = append(block.Successors, target)
				}
			}
		case ir.OpBranchIf:
			if len(terminator.Operands) > 0 {
				if target := g.FindBlock(terminator.Operands[0]); target >= 0 {
					block.Successors = append(block.Successors, target)
				}
			}
			if idx+1 < len(g.Blocks) {
				block.Successors = append(block.Successors, idx+1)
			}
		case ir.OpReturn:
			// no successor
		default:
			if idx+1 < len(g.Blocks) {
				block.Successors = append(block.Successors, idx+1)
			}
		}
	}

	for idx, block := range g.Blocks {
		for _, succ := range block.Successors {
			if succ < len(g.Blocks) {
				g.Blocks[succ].Predecessors = append(g.Blocks[succ].Predecessors, idx)
			}
		}
	}

	return g
}

func findTerminator(instructions []ir.Instruction, start, end int) (ir.Instruction, bool) {
	for i := end; i > start; i-- {
		candidate := instructions[i-1]
		if candidate.Kind == ir.OpLabel || candidate.Kind == ir.OpComment {
			continue
		}
		return candidate, true
	}
	return ir.Instruction{}, false
}

func blockSynthName(index int) string {
	return "block" + strconv.Itoa(index)
}
