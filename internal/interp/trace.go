package interp

import (
	"fmt"

	"impulse/internal/ssa"
)

func (in *Interpreter) traceBlockEntry(block ssa.Block) {
	if in.trace == nil {
		return
	}
	if block.Name != "" {
		fmt.Fprintf(in.trace, "enter block %d (%s)\n", block.ID, block.Name)
		return
	}
	fmt.Fprintf(in.trace, "enter block %d\n", block.ID)
}

func (in *Interpreter) tracePhi(block ssa.Block, phi ssa.PhiNode, value Value) {
	if in.trace == nil {
		return
	}
	fmt.Fprintf(in.trace, "    phi %s := %s in block %d\n", phi.Result, value.Describe(), block.ID)
}

func (in *Interpreter) traceInstruction(inst ssa.Instruction) {
	if in.trace == nil {
		return
	}
	fmt.Fprintf(in.trace, "    %s\n", formatInstructionTrace(inst))
}

func formatInstructionTrace(inst ssa.Instruction) string {
	text := string(inst.Op)
	if inst.HasResult() {
		text = inst.Result.String() + " = " + text
	}
	return text
}

func (in *Interpreter) traceStore(destination ssa.Value, value Value) {
	if in.trace == nil {
		return
	}
	fmt.Fprintf(in.trace, "      -> %s = %s\n", destination, value.Describe())
}

func (in *Interpreter) traceReturn(value Value) {
	if in.trace == nil {
		return
	}
	fmt.Fprintf(in.trace, "    return %s\n", value.Describe())
}

func (in *Interpreter) traceBranch(target int, taken bool) {
	if in.trace == nil {
		return
	}
	name := ""
	if target >= 0 && target < len(in.fn.Blocks) {
		name = in.fn.Blocks[target].Name
	}
	state := "skipped"
	if taken {
		state = "taken"
	}
	if name != "" {
		fmt.Fprintf(in.trace, "    -> branch %d (%s) [%s]\n", target, name, state)
		return
	}
	fmt.Fprintf(in.trace, "    -> branch %d [%s]\n", target, state)
}

func (in *Interpreter) traceBuiltin(name, payload string) {
	if in.trace == nil {
		return
	}
	if payload != "" {
		fmt.Fprintf(in.trace, "    builtin %s %q\n", name, payload)
		return
	}
	fmt.Fprintf(in.trace, "    builtin %s\n", name)
}

func (in *Interpreter) appendOutput(text string, newline bool) {
	if in.output == nil {
		return
	}
	in.output.WriteString(text)
	if newline {
		in.output.WriteByte('\n')
	}
}
