// Package irbuild is a fluent constructor for ir.Module/ir.Function, used
// in place of the out-of-scope frontend (spec §6 names parsing/AST/codegen
// as collaborators the core never performs itself). Tests and cmd/impulse
// use this to assemble the IR the core then builds CFG/dominance/SSA from,
// the way the teacher's internal/ast package offers constructors its
// parser calls into — here hand-called directly since there is no parser.
package irbuild

import (
	"strconv"

	"impulse/internal/ir"
)

// Module accumulates an ir.Module one function/binding at a time.
type Module struct {
	path       []string
	bindings   []ir.Binding
	functions  []ir.Function
	records    []ir.Record
	interfaces []ir.Interface
}

// NewModule starts a module at the given "::"-separated path segments.
func NewModule(path ...string) *Module {
	return &Module{path: path}
}

// Binding appends a module-level constant evaluated by the VM driver's
// load-time stack interpreter.
func (m *Module) Binding(name string, instructions ...ir.Instruction) *Module {
	m.bindings = append(m.bindings, ir.Binding{
		Name:         ir.Identifier{Name: name},
		Instructions: instructions,
	})
	return m
}

// Function appends a fully built function.
func (m *Module) Function(fn ir.Function) *Module {
	m.functions = append(m.functions, fn)
	return m
}

// Record appends an opaque record/interface name (spec §3: never inspected
// by the core beyond name resolution).
func (m *Module) Record(name string) *Module {
	m.records = append(m.records, ir.Record{Name: name})
	return m
}

func (m *Module) Interface(name string) *Module {
	m.interfaces = append(m.interfaces, ir.Interface{Name: name})
	return m
}

// Build finalizes the accumulated module.
func (m *Module) Build() *ir.Module {
	return &ir.Module{
		Path:       m.path,
		Bindings:   m.bindings,
		Functions:  m.functions,
		Records:    m.records,
		Interfaces: m.interfaces,
	}
}

// Func accumulates one ir.Function's parameters and blocks.
type Func struct {
	name       string
	parameters []ir.Parameter
	returnType string
	blocks     []ir.BasicBlock
}

// NewFunc starts a function named name.
func NewFunc(name string) *Func {
	return &Func{name: name}
}

func (f *Func) Param(name, typ string) *Func {
	f.parameters = append(f.parameters, ir.Parameter{Name: ir.Identifier{Name: name}, Type: typ})
	return f
}

func (f *Func) Returns(typ string) *Func {
	f.returnType = typ
	return f
}

// Block appends a basic block labelled label with the given instructions.
func (f *Func) Block(label string, instructions ...ir.Instruction) *Func {
	f.blocks = append(f.blocks, ir.BasicBlock{Label: label, Instructions: instructions})
	return f
}

func (f *Func) Build() ir.Function {
	return ir.Function{
		Name:       f.name,
		Parameters: f.parameters,
		ReturnType: f.returnType,
		Blocks:     f.blocks,
	}
}

// Instruction constructors — one per ir.Opcode, named after the opcode's
// textual form rather than the Go identifier, matching how a frontend would
// read off its own AST node names.

func Literal(text string) ir.Instruction {
	return ir.Instruction{Kind: ir.OpLiteral, Operands: []string{text}}
}

func StringLiteral(text string) ir.Instruction {
	return ir.Instruction{Kind: ir.OpStringLiteral, Operands: []string{text}}
}

func Reference(name string) ir.Instruction {
	return ir.Instruction{Kind: ir.OpReference, Operands: []string{name}}
}

func Unary(op string) ir.Instruction {
	return ir.Instruction{Kind: ir.OpUnary, Operands: []string{op}}
}

func Binary(op string) ir.Instruction {
	return ir.Instruction{Kind: ir.OpBinary, Operands: []string{op}}
}

func Store(name string) ir.Instruction {
	return ir.Instruction{Kind: ir.OpStore, Operands: []string{name}}
}

func Drop() ir.Instruction {
	return ir.Instruction{Kind: ir.OpDrop}
}

func Branch(label string) ir.Instruction {
	return ir.Instruction{Kind: ir.OpBranch, Operands: []string{label}}
}

// BranchIf pops a condition and jumps to label when it equals compare.
func BranchIf(label, compare string) ir.Instruction {
	return ir.Instruction{Kind: ir.OpBranchIf, Operands: []string{label, compare}}
}

func Return() ir.Instruction {
	return ir.Instruction{Kind: ir.OpReturn}
}

// Call pops argCount arguments and invokes callee.
func Call(callee string, argCount int) ir.Instruction {
	return ir.Instruction{Kind: ir.OpCall, Operands: []string{callee, strconv.Itoa(argCount)}}
}

func MakeArray() ir.Instruction {
	return ir.Instruction{Kind: ir.OpMakeArray}
}

func ArrayGet() ir.Instruction {
	return ir.Instruction{Kind: ir.OpArrayGet}
}

func ArraySet() ir.Instruction {
	return ir.Instruction{Kind: ir.OpArraySet}
}

func ArrayLength() ir.Instruction {
	return ir.Instruction{Kind: ir.OpArrayLength}
}

func Label(name string) ir.Instruction {
	return ir.Instruction{Kind: ir.OpLabel, Operands: []string{name}}
}

func Comment(text string) ir.Instruction {
	return ir.Instruction{Kind: ir.OpComment, Operands: []string{text}}
}
