package ssa

import (
	"fmt"

	"impulse/internal/cfg"
	"impulse/internal/dominance"
)

// VerificationError describes one structural invariant violation found by
// Verify: the index of the offending block and a human-readable message.
// Grounded on ssa_verify.cpp.
type VerificationError struct {
	Block   int
	Message string
}

func (e VerificationError) Error() string {
	if e.Block >= 0 {
		return fmt.Sprintf("block %d: %s", e.Block, e.Message)
	}
	return e.Message
}

// Verify checks fn's structural invariants against g's structure and info's
// dominance metadata: successor indices in range, every block reachable from
// entry, every SSA value defined exactly once, every φ has one input per
// predecessor, and every use is dominated by its definition (or is a φ
// input, which is exempt — spec §4.F). Grounded on ssa_verify.cpp.
func Verify(fn *Function, g *cfg.Graph, info *dominance.Info) []VerificationError {
	var errs []VerificationError

	errs = append(errs, verifySuccessorRange(fn)...)
	errs = append(errs, verifyReachability(fn)...)

	defSite, defIndex, dupErrs := verifyUniqueDefinitions(fn)
	errs = append(errs, dupErrs...)

	errs = append(errs, verifyPhiArity(fn)...)
	errs = append(errs, verifyDominanceOfUse(fn, info, defSite, defIndex)...)

	return errs
}

func verifySuccessorRange(fn *Function) []VerificationError {
	var errs []VerificationError
	n := len(fn.Blocks)
	for i, block := range fn.Blocks {
		for _, succ := range block.Successors {
			if succ < 0 || succ >= n {
				errs = append(errs, VerificationError{Block: i, Message: fmt.Sprintf("successor %d out of range", succ)})
			}
		}
		for _, pred := range block.Predecessors {
			if pred < 0 || pred >= n {
				errs = append(errs, VerificationError{Block: i, Message: fmt.Sprintf("predecessor %d out of range", pred)})
			}
		}
	}
	return errs
}

func verifyReachability(fn *Function) []VerificationError {
	var errs []VerificationError
	n := len(fn.Blocks)
	if n == 0 {
		return errs
	}
	visited := make([]bool, n)
	stack := []int{0}
	visited[0] = true
	for len(stack) > 0 {
		block := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, succ := range fn.Blocks[block].Successors {
			if succ >= 0 && succ < n && !visited[succ] {
				visited[succ] = true
				stack = append(stack, succ)
			}
		}
	}
	for i, reached := range visited {
		if !reached {
			errs = append(errs, VerificationError{Block: i, Message: "unreachable from entry"})
		}
	}
	return errs
}

// verifyUniqueDefinitions checks that every SSA value is defined by exactly
// one φ-node or instruction, returning the block index and in-block
// instruction index (φ-nodes defining at index -1, before every instruction)
// each value was defined at, for the dominance-of-use pass. A parameter's
// version 1 is live on entry, so it counts as defined in block 0 at index
// -1.
func verifyUniqueDefinitions(fn *Function) (map[Value]int, map[Value]int, []VerificationError) {
	defSite := map[Value]int{}
	defIndex := map[Value]int{}
	var errs []VerificationError

	define := func(v Value, block, index int) {
		if !v.Valid() {
			return
		}
		if _, ok := defSite[v]; ok {
			errs = append(errs, VerificationError{Block: block, Message: fmt.Sprintf("value %s defined more than once", v)})
			return
		}
		defSite[v] = block
		defIndex[v] = index
	}

	for _, s := range fn.Symbols {
		if s.Type != "" { // only parameters are given a type by the builder
			define(Value{Symbol: s.ID, Version: 1}, 0, -1)
		}
	}

	for i, block := range fn.Blocks {
		for _, phi := range block.Phis {
			define(phi.Result, i, -1)
		}
		for ii, inst := range block.Instructions {
			if inst.HasResult() {
				define(inst.Result, i, ii)
			}
		}
	}
	return defSite, defIndex, errs
}

func verifyPhiArity(fn *Function) []VerificationError {
	var errs []VerificationError
	for i, block := range fn.Blocks {
		for _, phi := range block.Phis {
			if len(phi.Inputs) != len(block.Predecessors) {
				errs = append(errs, VerificationError{
					Block:   i,
					Message: fmt.Sprintf("phi for symbol %d has %d inputs, want %d (one per predecessor)", phi.Symbol, len(phi.Inputs), len(block.Predecessors)),
				})
				continue
			}
			seen := map[int]bool{}
			for _, in := range phi.Inputs {
				if seen[in.Predecessor] {
					errs = append(errs, VerificationError{Block: i, Message: fmt.Sprintf("phi has duplicate predecessor %d", in.Predecessor)})
				}
				seen[in.Predecessor] = true
			}
			for _, pred := range block.Predecessors {
				if !seen[pred] {
					errs = append(errs, VerificationError{Block: i, Message: fmt.Sprintf("phi missing input for predecessor %d", pred)})
				}
			}
		}
	}
	return errs
}

// verifyDominanceOfUse checks that every operand used by a plain
// instruction is defined in a block that dominates the use (spec §4.F).
// Same-block definitions must also precede the use in program order
// (ssa_verify.cpp's `def.instruction.value() >= inst_index` check) — a
// same-block site is not automatically fine just because it dominates
// itself. φ-node inputs are exempt from both checks: the defining block
// need only dominate the corresponding predecessor, which iterated
// dominance-frontier placement already guarantees by construction, so the
// original's verifier does not re-check it.
func verifyDominanceOfUse(fn *Function, info *dominance.Info, defSite, defIndex map[Value]int) []VerificationError {
	var errs []VerificationError
	for i, block := range fn.Blocks {
		for ii, inst := range block.Instructions {
			for _, arg := range inst.Args {
				if !arg.Valid() || arg.Version == 0 {
					continue
				}
				site, ok := defSite[arg]
				if !ok {
					errs = append(errs, VerificationError{Block: i, Message: fmt.Sprintf("use of undefined value %s", arg)})
					continue
				}
				if site == i {
					if defIndex[arg] >= ii {
						errs = append(errs, VerificationError{
							Block:   i,
							Message: fmt.Sprintf("use of %s precedes its definition in the same block", arg),
						})
					}
					continue
				}
				if !info.Dominates(site, i) {
					errs = append(errs, VerificationError{
						Block:   i,
						Message: fmt.Sprintf("use of %s not dominated by its definition in block %d", arg, site),
					})
				}
			}
		}
	}
	return errs
}
