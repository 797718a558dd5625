package ssa

import (
	"math"
	"strconv"
	"strings"
)

// constKind is the sparse constant-propagation lattice: Unknown (not yet
// visited, optimistic top), Constant (a settled value), NonConstant
// (pessimistic bottom). Grounded on constant_propagation.cpp's ConstState.
type constKind uint8

const (
	constUnknown constKind = iota
	constValue
	constNonConstant
)

type constState struct {
	kind constKind
	num  float64
	str  string
	isStr bool
}

func mergeConstState(a, b constState) constState {
	if a.kind == constUnknown {
		return b
	}
	if b.kind == constUnknown {
		return a
	}
	if a.kind == constNonConstant || b.kind == constNonConstant {
		return constState{kind: constNonConstant}
	}
	if a.isStr != b.isStr {
		return constState{kind: constNonConstant}
	}
	if a.isStr {
		if a.str == b.str {
			return a
		}
		return constState{kind: constNonConstant}
	}
	if a.num == b.num {
		return a
	}
	return constState{kind: constNonConstant}
}

// Optimize runs constant propagation, copy propagation, and dead-code
// elimination to a fixpoint, mutating fn in place and returning it.
// Grounded on the teacher's OptimizationPass pipeline shape
// (internal/ir/optimizations.go) applied over
// constant_propagation.cpp/copy_propagation.cpp/dead_code_elimination.cpp.
func Optimize(fn *Function) *Function {
	for {
		changedConst := propagateConstants(fn)
		changedCopy := propagateCopies(fn)
		changedDCE := eliminateDeadCode(fn)
		if !changedConst && !changedCopy && !changedDCE {
			break
		}
	}
	return fn
}

func propagateConstants(fn *Function) bool {
	states := map[Value]constState{}
	changed := false

	get := func(v Value) constState {
		if !v.Valid() {
			return constState{kind: constNonConstant}
		}
		if s, ok := states[v]; ok {
			return s
		}
		return constState{kind: constUnknown}
	}

	// The analysis repeats until no lattice value moves, so values carried
	// around a loop back edge settle before anything is rewritten.
	var settled bool
analyze:
	settled = true
	for _, block := range fn.Blocks {
		for _, phi := range block.Phis {
			merged := constState{kind: constUnknown}
			for _, in := range phi.Inputs {
				merged = mergeConstState(merged, get(in.Value))
			}
			if prev, ok := states[phi.Result]; !ok || prev != merged {
				states[phi.Result] = merged
				settled = false
			}
		}
		for _, inst := range block.Instructions {
			if !inst.HasResult() {
				continue
			}
			var result constState
			switch inst.Op {
			case OpLiteral:
				n, ok := parseLiteral(firstImmediate(inst))
				if ok {
					result = constState{kind: constValue, num: n}
				} else {
					result = constState{kind: constNonConstant}
				}
			case OpLiteralString:
				result = constState{kind: constValue, str: firstImmediate(inst), isStr: true}
			case OpUnary:
				operand := get(inst.Args[0])
				result = evalUnary(firstImmediate(inst), operand)
			case OpBinary:
				lhs, rhs := get(inst.Args[0]), get(inst.Args[1])
				result = evalBinary(firstImmediate(inst), lhs, rhs)
			case OpAssign:
				result = get(inst.Args[0])
			default:
				result = constState{kind: constNonConstant}
			}
			if prev, ok := states[inst.Result]; !ok || prev != result {
				states[inst.Result] = result
				settled = false
			}
		}
	}
	if !settled {
		goto analyze
	}

	for bi := range fn.Blocks {
		block := &fn.Blocks[bi]
		for ii := range block.Instructions {
			inst := &block.Instructions[ii]
			if !inst.HasResult() || inst.Op == OpLiteral || inst.Op == OpLiteralString {
				continue
			}
			s, ok := states[inst.Result]
			if !ok || s.kind != constValue {
				continue
			}
			if s.isStr {
				*inst = Instruction{Op: OpLiteralString, Immediates: []string{s.str}, Result: inst.Result}
			} else {
				*inst = Instruction{Op: OpLiteral, Immediates: []string{formatConstant(s.num)}, Result: inst.Result}
			}
			changed = true
		}
	}

	return changed
}

func firstImmediate(inst Instruction) string {
	if len(inst.Immediates) == 0 {
		return ""
	}
	return inst.Immediates[0]
}

// parseLiteral parses a numeric literal string, matching the original's
// strtod-based literal parser (constant_propagation.cpp).
func parseLiteral(s string) (float64, bool) {
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// formatConstant renders a folded numeric constant, collapsing values
// within 1e-9 of an integer to their integer text and otherwise using
// 12 significant digits with trailing zeros trimmed — the original's
// format_constant (constant_propagation.cpp).
func formatConstant(n float64) string {
	if math.Abs(n-math.Round(n)) < 1e-9 {
		return strconv.FormatInt(int64(math.Round(n)), 10)
	}
	s := strconv.FormatFloat(n, 'g', 12, 64)
	if strings.Contains(s, ".") && !strings.ContainsAny(s, "eE") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimRight(s, ".")
	}
	return s
}

func evalUnary(op string, operand constState) constState {
	if operand.kind != constValue || operand.isStr {
		if operand.kind == constUnknown {
			return constState{kind: constUnknown}
		}
		return constState{kind: constNonConstant}
	}
	switch op {
	case "-":
		return constState{kind: constValue, num: -operand.num}
	case "!":
		if operand.num == 0 {
			return constState{kind: constValue, num: 1}
		}
		return constState{kind: constValue, num: 0}
	default:
		return constState{kind: constNonConstant}
	}
}

// evalBinary folds a binary operator over two lattice values, including the
// original's 1e-12 division-by-zero guard (constant_propagation.cpp).
func evalBinary(op string, lhs, rhs constState) constState {
	if lhs.kind == constUnknown || rhs.kind == constUnknown {
		return constState{kind: constUnknown}
	}
	if lhs.kind != constValue || rhs.kind != constValue {
		return constState{kind: constNonConstant}
	}
	if lhs.isStr || rhs.isStr {
		if op == "+" && lhs.isStr && rhs.isStr {
			return constState{kind: constValue, str: lhs.str + rhs.str, isStr: true}
		}
		if op == "==" && lhs.isStr && rhs.isStr {
			return constState{kind: constValue, num: boolNum(lhs.str == rhs.str)}
		}
		return constState{kind: constNonConstant}
	}

	a, b := lhs.num, rhs.num
	switch op {
	case "+":
		return constState{kind: constValue, num: a + b}
	case "-":
		return constState{kind: constValue, num: a - b}
	case "*":
		return constState{kind: constValue, num: a * b}
	case "/":
		if math.Abs(b) < 1e-12 {
			return constState{kind: constNonConstant}
		}
		return constState{kind: constValue, num: a / b}
	case "%":
		if math.Abs(b) < 1e-12 {
			return constState{kind: constNonConstant}
		}
		return constState{kind: constValue, num: math.Mod(a, b)}
	case "<":
		return constState{kind: constValue, num: boolNum(a < b)}
	case "<=":
		return constState{kind: constValue, num: boolNum(a <= b)}
	case ">":
		return constState{kind: constValue, num: boolNum(a > b)}
	case ">=":
		return constState{kind: constValue, num: boolNum(a >= b)}
	case "==":
		return constState{kind: constValue, num: boolNum(a == b)}
	case "!=":
		return constState{kind: constValue, num: boolNum(a != b)}
	case "&&":
		return constState{kind: constValue, num: boolNum(a != 0 && b != 0)}
	case "||":
		return constState{kind: constValue, num: boolNum(a != 0 || b != 0)}
	default:
		return constState{kind: constNonConstant}
	}
}

func boolNum(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// propagateCopies resolves every use of a value defined by a bare `assign`
// to that assign's source, and every use of a φ whose resolved inputs all
// agree on a single value to that value, following chains with path
// compression. Grounded on copy_propagation.cpp's propagate_copies: φ-nodes
// sit only at iterated dominance frontiers and so always have two or more
// predecessors, making the agreeing-inputs case (not a degenerate
// single-input φ) the one that actually fires, e.g. both arms of an
// if/else assigning the same value.
func propagateCopies(fn *Function) bool {
	copyOf := map[Value]Value{}

	resolve := func(v Value) Value {
		seen := map[Value]bool{}
		for {
			next, ok := copyOf[v]
			if !ok || seen[v] {
				return v
			}
			seen[v] = true
			v = next
		}
	}

	for _, block := range fn.Blocks {
		for _, phi := range block.Phis {
			var agreed Value
			agree := true
			for _, in := range phi.Inputs {
				if !in.Value.Valid() {
					agree = false
					break
				}
				resolved := resolve(in.Value)
				if !agreed.Valid() {
					agreed = resolved
				} else if agreed != resolved {
					agree = false
					break
				}
			}
			if agree && agreed.Valid() && agreed != phi.Result {
				copyOf[phi.Result] = agreed
			}
		}
		for _, inst := range block.Instructions {
			if inst.Op == OpAssign && inst.HasResult() && len(inst.Args) == 1 {
				copyOf[inst.Result] = inst.Args[0]
			}
		}
	}

	changed := false
	for bi := range fn.Blocks {
		block := &fn.Blocks[bi]
		for pi := range block.Phis {
			phi := &block.Phis[pi]
			for ii := range phi.Inputs {
				resolved := resolve(phi.Inputs[ii].Value)
				if resolved != phi.Inputs[ii].Value {
					phi.Inputs[ii].Value = resolved
					changed = true
				}
			}
		}
		for ii := range block.Instructions {
			inst := &block.Instructions[ii]
			for ai := range inst.Args {
				resolved := resolve(inst.Args[ai])
				if resolved != inst.Args[ai] {
					inst.Args[ai] = resolved
					changed = true
				}
			}
		}
	}
	return changed
}

// eliminateDeadCode removes φ-nodes whose result is never used, and
// instructions whose opcode is in the isRemovable whitelist and whose
// result is never used, in one sweep per call; Optimize repeats the call
// until nothing changes. Everything outside that whitelist — calls, drops,
// returns, branches, and all array operations — is kept unconditionally.
// Grounded on
// dead_code_elimination.cpp.
func eliminateDeadCode(fn *Function) bool {
	used := map[Value]bool{}
	mark := func(v Value) {
		if v.Valid() {
			used[v] = true
		}
	}

	for _, block := range fn.Blocks {
		for _, phi := range block.Phis {
			for _, in := range phi.Inputs {
				mark(in.Value)
			}
		}
		for _, inst := range block.Instructions {
			for _, a := range inst.Args {
				mark(a)
			}
		}
	}

	changed := false
	for bi := range fn.Blocks {
		block := &fn.Blocks[bi]

		keptPhis := block.Phis[:0]
		for _, phi := range block.Phis {
			if used[phi.Result] {
				keptPhis = append(keptPhis, phi)
			} else {
				changed = true
			}
		}
		block.Phis = keptPhis

		keptInst := block.Instructions[:0]
		for _, inst := range block.Instructions {
			if !isRemovable(inst.Op) || used[inst.Result] {
				keptInst = append(keptInst, inst)
			} else {
				changed = true
			}
		}
		block.Instructions = keptInst
	}
	return changed
}

// isRemovable is the whitelist of opcodes DCE may erase when their result
// has no uses. Grounded on dead_code_elimination.cpp's is_removable_opcode:
// everything else — calls, drops, returns, branches, and all array
// operations (including array_make and array_get, which an earlier draft
// of this pass mistakenly let through a side-effect blacklist) — is kept
// regardless of use count.
func isRemovable(op Opcode) bool {
	switch op {
	case OpLiteral, OpUnary, OpBinary, OpAssign:
		return true
	default:
		return false
	}
}
