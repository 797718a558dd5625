// Package vm is the driver that owns loaded modules, the GC heap, and the
// execution frame stack: spec §4.I. It wires ir (module/function lookup),
// cfg+dominance+ssa (build/optimise per call), gcheap (allocation and
// collection), and interp (per-function execution) into the single
// end-to-end entry point callers use: Load then Run.
//
// Grounded on the teacher's lack of an equivalent driver — no kanso package
// owns a comparable "load then execute" lifecycle — so this follows spec §9
// ("the VM must be a value/object that holds modules, heap, and frame
// stack") and borrows the teacher's internal/errors fluent-builder idiom
// (reshaped as internal/diag) for the reported diagnostics, plus pkg/errors
// for wrapping and google/uuid for the instance identifier used in traces.
package vm

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"impulse/internal/cfg"
	"impulse/internal/diag"
	"impulse/internal/dominance"
	"impulse/internal/gcheap"
	"impulse/internal/interp"
	"impulse/internal/ir"
	"impulse/internal/ssa"
)

// VmLoadResult is the outcome of Load: spec §6's { success, diagnostics[] }.
type VmLoadResult struct {
	Success     bool
	Diagnostics []string
}

// VmResult is the outcome of Run: spec §6's { status, has_value, value,
// message }.
type VmResult struct {
	Status   interp.Status
	HasValue bool
	Value    float64
	Message  string
}

// Summary renders the stable textual form spec §6 names:
// "status=<int> value=<double>? message='<string>'?\n".
func (r VmResult) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "status=%d", int(r.Status))
	if r.HasValue {
		fmt.Fprintf(&b, " value=%s", strconv.FormatFloat(r.Value, 'g', -1, 64))
	}
	if r.Message != "" {
		fmt.Fprintf(&b, " message='%s'", r.Message)
	}
	b.WriteByte('\n')
	return b.String()
}

// LoadedModule is a module installed into a Vm: the parsed IR plus its
// evaluated global bindings.
type LoadedModule struct {
	module  *ir.Module
	globals map[string]interp.Value
}

// ExecutionFrame is one entry on the VM's frame stack: the GC root set
// contributed by one in-flight function call (spec §5 "frame stack is the
// GC root set").
type ExecutionFrame struct {
	functionName string
	liveValues   func() []interp.Value
}

// ReadLineProvider supplies one line of input for read_line, taking
// precedence over any configured input stream (spec §6).
type ReadLineProvider func() (string, bool)

// Vm drives module loading and function execution. The zero value is not
// usable; construct with New. A Vm holds no global state of its own beyond
// what's reachable from the struct, so tests can build independent
// instances freely (spec §9 "Global state: none intended").
type Vm struct {
	id uuid.UUID

	modules map[string]*LoadedModule
	heap    *gcheap.Heap
	frames  []*ExecutionFrame

	inputStream      io.Reader
	inputLines       []string
	readLineProvider ReadLineProvider
	trace            io.Writer
}

// New constructs an empty Vm with a fresh heap.
func New() *Vm {
	return &Vm{
		id:      uuid.New(),
		modules: map[string]*LoadedModule{},
		heap:    gcheap.New(),
	}
}

// ID returns the instance identifier used to tag trace output when multiple
// VMs run in the same process.
func (vm *Vm) ID() uuid.UUID { return vm.id }

// SetInputStream configures the fallback read_line source: each call reads
// one newline-delimited line. Superseded by SetReadLineProvider if both are
// set (spec §6 "the provider takes precedence").
func (vm *Vm) SetInputStream(r io.Reader) {
	vm.inputStream = r
	vm.inputLines = nil
}

// SetReadLineProvider installs the highest-priority read_line source.
func (vm *Vm) SetReadLineProvider(fn ReadLineProvider) {
	vm.readLineProvider = fn
}

// SetTraceStream enables (non-nil) or disables (nil) SSA-level execution
// tracing, also used for gcheap's collection trace.
func (vm *Vm) SetTraceStream(w io.Writer) {
	vm.trace = w
	vm.heap.SetTraceWriter(w)
}

// CollectGarbage forces an immediate collection against the current root
// set (spec §6, used by tests).
func (vm *Vm) CollectGarbage() {
	vm.heap.Collect(vm.collectRoots())
}

func (vm *Vm) collectRoots() []gcheap.Value {
	var roots []gcheap.Value
	for _, m := range vm.modules {
		for _, v := range m.globals {
			roots = append(roots, interp.ToGCValue(v))
		}
	}
	for _, frame := range vm.frames {
		for _, v := range frame.liveValues() {
			roots = append(roots, interp.ToGCValue(v))
		}
	}
	return roots
}

func (vm *Vm) maybeCollect() {
	if vm.heap.ShouldCollect() {
		vm.heap.Collect(vm.collectRoots())
	}
}

func (vm *Vm) readLine() (string, bool) {
	if vm.readLineProvider != nil {
		return vm.readLineProvider()
	}
	if vm.inputStream != nil && vm.inputLines == nil {
		data, _ := io.ReadAll(vm.inputStream)
		vm.inputLines = strings.Split(string(data), "\n")
		vm.inputStream = nil
	}
	if len(vm.inputLines) == 0 {
		return "", false
	}
	line := vm.inputLines[0]
	vm.inputLines = vm.inputLines[1:]
	return line, true
}

// Load evaluates module's bindings with the small stack interpreter (spec
// §4.I subset: literal, reference, binary arithmetic, store) and, on full
// success, installs the module, replacing any prior module at the same
// path (spec §6 "idempotent replacement").
func (vm *Vm) Load(module *ir.Module) VmLoadResult {
	globals := map[string]interp.Value{}
	var diagnostics []string

	for _, binding := range module.Bindings {
		value, err := evaluateBinding(binding, globals)
		if err != nil {
			diagnostics = append(diagnostics, err.Error())
			continue
		}
		globals[binding.Name.Name] = value
	}

	if len(diagnostics) > 0 {
		return VmLoadResult{Success: false, Diagnostics: diagnostics}
	}

	vm.modules[module.Name()] = &LoadedModule{module: module, globals: globals}
	return VmLoadResult{Success: true}
}

// Run builds, optimises, and executes entryName inside moduleName, with
// every declared parameter defaulting to numeric 0 (spec §4.I: Run is the
// external caller's entry point, distinct from in-module calls which pass
// real argument values computed by the caller's own interpreter frame).
func (vm *Vm) Run(moduleName, entryName string) VmResult {
	loaded, ok := vm.modules[moduleName]
	if !ok {
		return missingSymbol(diag.New(diag.TierLinkage, "module not found").WithSubject(moduleName).Error())
	}
	fn := loaded.module.FindFunction(entryName)
	if fn == nil {
		return missingSymbol(diag.New(diag.TierLinkage, "function not found").WithSubject(entryName).Error())
	}

	params := make(map[string]interp.Value, len(fn.Parameters))
	for _, p := range fn.Parameters {
		params[p.Name.Name] = interp.NumberValue(0)
	}

	if vm.trace != nil {
		fmt.Fprintf(vm.trace, "vm %s running %s::%s\n", vm.id, moduleName, entryName)
	}

	var output strings.Builder
	result := vm.runFunction(loaded, fn, params, &output)
	if output.Len() > 0 && result.vmResult.Message == "" {
		result.vmResult.Message = output.String()
	}
	return result.vmResult
}

// frameResult bundles the interp.Result into a VmResult while keeping the
// raw status around for the nested-call callback, which hands it back to
// the calling frame's interpreter.
type frameResult struct {
	vmResult VmResult
	status   interp.Status
}

func (vm *Vm) runFunction(loaded *LoadedModule, fn *ir.Function, params map[string]interp.Value, output *strings.Builder) frameResult {
	graph := cfg.Build(fn)
	optimized := ssa.Optimize(ssa.Build(fn, graph))
	if errs := ssa.Verify(optimized, graph, dominance.Compute(graph)); len(errs) > 0 {
		return frameResult{
			vmResult: VmResult{
				Status:  interp.StatusModuleError,
				Message: diag.New(diag.TierStructural, errs[0].Error()).WithSubject(fn.Name).Error(),
			},
			status: interp.StatusModuleError,
		}
	}

	callFn := func(name string, args []interp.Value) (interp.Result, bool) {
		callee := loaded.module.FindFunction(name)
		if callee == nil {
			return interp.Result{}, false
		}
		calleeParams := make(map[string]interp.Value, len(callee.Parameters))
		for i, p := range callee.Parameters {
			if i < len(args) {
				calleeParams[p.Name.Name] = args[i]
			} else {
				calleeParams[p.Name.Name] = interp.NumberValue(0)
			}
		}
		nested := vm.runFunction(loaded, callee, calleeParams, output)
		return interp.Result{
			Status:   nested.status,
			HasValue: nested.vmResult.HasValue,
			Value:    interp.NumberValue(nested.vmResult.Value),
			Message:  nested.vmResult.Message,
		}, true
	}

	allocate := func(length int) *gcheap.GcObject {
		return vm.heap.AllocateArray(length, gcheap.Nil())
	}

	interpreter := interp.New(optimized, params, loaded.globals, callFn, allocate, vm.maybeCollect, output, vm.trace, vm.readLine)

	frame := &ExecutionFrame{functionName: fn.Name, liveValues: interpreter.LiveValues}
	vm.frames = append(vm.frames, frame)
	result := interpreter.Run()
	vm.frames = vm.frames[:len(vm.frames)-1]

	vmResult := VmResult{Status: result.Status, HasValue: result.HasValue, Message: result.Message}
	if result.HasValue {
		vmResult.Value = result.Value.Number
	}
	return frameResult{vmResult: vmResult, status: result.Status}
}

func missingSymbol(message string) VmResult {
	return VmResult{Status: interp.StatusMissingSymbol, Message: message}
}

// evaluateBinding runs the module-binding subset of SSA semantics over a
// binding's raw IR instructions directly (no SSA construction — bindings
// are evaluated once at load time, before any function is built).
func evaluateBinding(b ir.Binding, globals map[string]interp.Value) (interp.Value, error) {
	var stack []interp.Value
	pop := func() (interp.Value, error) {
		if len(stack) == 0 {
			return interp.Value{}, errors.Errorf("binding %q: evaluation stack underflow", b.Name.Name)
		}
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return v, nil
	}

	for _, inst := range b.Instructions {
		switch inst.Kind {
		case ir.OpLiteral:
			if len(inst.Operands) == 0 {
				return interp.Value{}, errors.Errorf("binding %q: literal missing operand", b.Name.Name)
			}
			num, err := strconv.ParseFloat(inst.Operands[0], 64)
			if err != nil {
				return interp.Value{}, errors.Wrapf(err, "binding %q: invalid numeric literal", b.Name.Name)
			}
			stack = append(stack, interp.NumberValue(num))

		case ir.OpStringLiteral:
			text := ""
			if len(inst.Operands) > 0 {
				text = inst.Operands[0]
			}
			stack = append(stack, interp.StringValue(text))

		case ir.OpReference:
			if len(inst.Operands) == 0 {
				return interp.Value{}, errors.Errorf("binding %q: reference missing name", b.Name.Name)
			}
			name := inst.Operands[0]
			val, ok := globals[name]
			if !ok {
				return interp.Value{}, errors.Errorf("binding %q: reference to undefined constant %q", b.Name.Name, name)
			}
			stack = append(stack, val)

		case ir.OpUnary:
			if len(inst.Operands) == 0 {
				return interp.Value{}, errors.Errorf("binding %q: unary operator missing", b.Name.Name)
			}
			operand, err := pop()
			if err != nil {
				return interp.Value{}, err
			}
			if !operand.IsNumber() {
				return interp.Value{}, errors.Errorf("binding %q: unary operator requires a numeric operand", b.Name.Name)
			}
			switch inst.Operands[0] {
			case "-":
				stack = append(stack, interp.NumberValue(-operand.Number))
			case "!":
				if operand.Number == 0 {
					stack = append(stack, interp.NumberValue(1))
				} else {
					stack = append(stack, interp.NumberValue(0))
				}
			default:
				return interp.Value{}, errors.Errorf("binding %q: unsupported unary operator %q", b.Name.Name, inst.Operands[0])
			}

		case ir.OpBinary:
			if len(inst.Operands) == 0 {
				return interp.Value{}, errors.Errorf("binding %q: binary operator missing", b.Name.Name)
			}
			rhs, err := pop()
			if err != nil {
				return interp.Value{}, err
			}
			lhs, err := pop()
			if err != nil {
				return interp.Value{}, err
			}
			result, err := evalBindingBinary(b.Name.Name, inst.Operands[0], lhs, rhs)
			if err != nil {
				return interp.Value{}, err
			}
			stack = append(stack, result)

		case ir.OpStore:
			if len(inst.Operands) == 0 {
				return interp.Value{}, errors.Errorf("binding %q: store missing target name", b.Name.Name)
			}
			value, err := pop()
			if err != nil {
				return interp.Value{}, err
			}
			globals[inst.Operands[0]] = value
			stack = append(stack, value)

		case ir.OpDrop:
			if _, err := pop(); err != nil {
				return interp.Value{}, err
			}

		case ir.OpLabel, ir.OpComment:
			// no-op in the binding evaluator

		default:
			return interp.Value{}, errors.Errorf("binding %q: opcode %q not supported at load time", b.Name.Name, inst.Kind)
		}
	}

	if len(stack) == 0 {
		return interp.Value{}, errors.Errorf("binding %q: produced no value", b.Name.Name)
	}
	return stack[len(stack)-1], nil
}

func evalBindingBinary(bindingName, op string, lhs, rhs interp.Value) (interp.Value, error) {
	if op == "+" && lhs.IsString() && rhs.IsString() {
		return interp.StringValue(lhs.Str + rhs.Str), nil
	}
	if !lhs.IsNumber() || !rhs.IsNumber() {
		return interp.Value{}, errors.Errorf("binding %q: binary operator %q requires numeric operands", bindingName, op)
	}
	l, r := lhs.Number, rhs.Number
	switch op {
	case "+":
		return interp.NumberValue(l + r), nil
	case "-":
		return interp.NumberValue(l - r), nil
	case "*":
		return interp.NumberValue(l * r), nil
	case "/":
		if r == 0 {
			return interp.Value{}, errors.Errorf("binding %q: division by zero", bindingName)
		}
		return interp.NumberValue(l / r), nil
	case "%":
		if r == 0 {
			return interp.Value{}, errors.Errorf("binding %q: modulo by zero", bindingName)
		}
		return interp.NumberValue(float64(int64(l) % int64(r))), nil
	case "<":
		return interp.NumberValue(boolNum(l < r)), nil
	case "<=":
		return interp.NumberValue(boolNum(l <= r)), nil
	case ">":
		return interp.NumberValue(boolNum(l > r)), nil
	case ">=":
		return interp.NumberValue(boolNum(l >= r)), nil
	case "==":
		return interp.NumberValue(boolNum(l == r)), nil
	case "!=":
		return interp.NumberValue(boolNum(l != r)), nil
	default:
		return interp.Value{}, errors.Errorf("binding %q: unsupported binary operator %q", bindingName, op)
	}
}

func boolNum(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
