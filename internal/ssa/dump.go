package ssa

import (
	"sort"
	"strings"
)

// Printer renders an SSA Function as deterministic text, matching the
// teacher's internal/ir/printer.go indentation idiom (ir.Printer).
type Printer struct {
	indent int
	output strings.Builder
}

func NewPrinter() *Printer {
	return &Printer{}
}

func (p *Printer) writeIndent() {
	p.output.WriteString(strings.Repeat("  ", p.indent))
}

func (p *Printer) writeLine(line string) {
	p.writeIndent()
	p.output.WriteString(line)
	p.output.WriteByte('\n')
}

// Dump renders fn deterministically: symbol table in id order, then each
// block's φ-nodes (inputs sorted by predecessor index) and instructions in
// program order. Determinism here backs the reproducibility property spec
// §4.F and §8 require of SSA text dumps.
func Dump(fn *Function) string {
	p := NewPrinter()
	p.dumpFunction(fn)
	return p.output.String()
}

func (p *Printer) dumpFunction(fn *Function) {
	p.writeLine("function " + fn.Name + " {")
	p.indent++

	symbols := append([]Symbol(nil), fn.Symbols...)
	sort.Slice(symbols, func(i, j int) bool { return symbols[i].ID < symbols[j].ID })
	if len(symbols) > 0 {
		p.writeLine("symbols:")
		p.indent++
		for _, s := range symbols {
			p.writeLine(formatSymbol(s))
		}
		p.indent--
	}

	for _, block := range fn.Blocks {
		p.dumpBlock(block)
	}

	p.indent--
	p.writeLine("}")
}

func formatSymbol(s Symbol) string {
	if s.Type == "" {
		return "#" + itoa(int(s.ID)) + " " + s.Name
	}
	return "#" + itoa(int(s.ID)) + " " + s.Name + ": " + s.Type
}

func (p *Printer) dumpBlock(b Block) {
	p.writeLine(blockHeader(b))
	p.indent++
	for _, phi := range b.Phis {
		p.writeLine(formatPhi(phi))
	}
	for _, inst := range b.Instructions {
		p.writeLine(formatInstruction(inst))
	}
	p.indent--
}

func blockHeader(b Block) string {
	header := "block " + b.Name + ":"
	if len(b.Predecessors) > 0 {
		preds := make([]string, len(b.Predecessors))
		for i, p := range b.Predecessors {
			preds[i] = itoa(p)
		}
		sort.Strings(preds)
		header += " ; preds=" + strings.Join(preds, ",")
	}
	return header
}

func formatPhi(phi PhiNode) string {
	inputs := append([]PhiInput(nil), phi.Inputs...)
	sort.Slice(inputs, func(i, j int) bool { return inputs[i].Predecessor < inputs[j].Predecessor })

	parts := make([]string, len(inputs))
	for i, in := range inputs {
		parts[i] = itoa(in.Predecessor) + ":" + in.Value.String()
	}
	return phi.Result.String() + " = phi(" + strings.Join(parts, ", ") + ")"
}

func formatInstruction(inst Instruction) string {
	var b strings.Builder
	if inst.HasResult() {
		b.WriteString(inst.Result.String())
		b.WriteString(" = ")
	}
	b.WriteString(string(inst.Op))

	var operands []string
	for _, a := range inst.Args {
		operands = append(operands, a.String())
	}
	operands = append(operands, inst.Immediates...)
	if len(operands) > 0 {
		b.WriteString(" ")
		b.WriteString(strings.Join(operands, ", "))
	}
	return b.String()
}
