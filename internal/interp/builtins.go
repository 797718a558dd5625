package interp

import (
	"math"
	"strings"

	"impulse/internal/ssa"
)

// initBuiltins populates the builtin dispatch table: I/O, string_*,
// array_* (operating on gcheap arrays in place), read_line, and the
// std::math:: aliased unary/binary math functions. Grounded on
// ssa_interpreter.cpp's init_builtin_table.
func (in *Interpreter) initBuiltins() {
	in.builtins = map[string]builtinHandler{}

	in.builtins["print"] = builtinPrint(false)
	in.builtins["println"] = builtinPrint(true)

	in.builtins["string_length"] = builtinStringLength
	in.builtins["string_equals"] = builtinStringEquals
	in.builtins["string_concat"] = builtinStringConcat
	in.builtins["string_repeat"] = builtinStringRepeat
	in.builtins["string_slice"] = builtinStringSlice
	in.builtins["string_lower"] = builtinStringCase("string_lower", strings.ToLower)
	in.builtins["string_upper"] = builtinStringCase("string_upper", strings.ToUpper)
	in.builtins["string_trim"] = builtinStringCase("string_trim", strings.TrimSpace)

	in.builtins["array_push"] = builtinArrayPush
	in.builtins["array_pop"] = builtinArrayPop
	in.builtins["array_join"] = builtinArrayJoin
	in.builtins["array_fill"] = builtinArrayFill
	in.builtins["array_sum"] = builtinArraySum

	in.builtins["read_line"] = builtinReadLine

	for name, fn := range map[string]func(float64) float64{
		"sqrt":  math.Sqrt,
		"sin":   math.Sin,
		"cos":   math.Cos,
		"tan":   math.Tan,
		"abs":   math.Abs,
		"floor": math.Floor,
		"ceil":  math.Ceil,
		"round": math.Round,
		"exp":   math.Exp,
		"log":   math.Log,
		"log10": math.Log10,
	} {
		handler := builtinUnaryMath(name, fn)
		in.builtins[name] = handler
		in.builtins["std::math::"+name] = handler
	}

	in.builtins["pow"] = builtinPow
	in.builtins["std::math::pow"] = builtinPow
}

func fail(status Status, message string) (Result, bool) {
	return errorResult(status, message), true
}

func stored(in *Interpreter, dest ssa.Value, value Value) (Result, bool) {
	in.storeValue(dest, value)
	return Result{}, false
}

func builtinPrint(newline bool) builtinHandler {
	name := "print"
	if newline {
		name = "println"
	}
	return func(in *Interpreter, _ string, args []Value, dest ssa.Value) (Result, bool) {
		if !dest.Valid() {
			return fail(StatusModuleError, name+" requires destination for result")
		}
		var b strings.Builder
		for _, a := range args {
			b.WriteString(a.Describe())
		}
		text := b.String()
		in.appendOutput(text, newline)
		in.traceBuiltin(name, text)
		return stored(in, dest, Nil())
	}
}

func builtinStringLength(in *Interpreter, _ string, args []Value, dest ssa.Value) (Result, bool) {
	if len(args) != 1 {
		return fail(StatusRuntimeError, "string_length expects exactly one argument")
	}
	if !args[0].IsString() {
		return fail(StatusRuntimeError, "string_length expects a string argument")
	}
	if !dest.Valid() {
		return fail(StatusModuleError, "string_length requires destination for result")
	}
	return stored(in, dest, NumberValue(float64(len([]rune(args[0].Str)))))
}

func builtinStringEquals(in *Interpreter, _ string, args []Value, dest ssa.Value) (Result, bool) {
	if len(args) != 2 {
		return fail(StatusRuntimeError, "string_equals expects exactly two arguments")
	}
	if !args[0].IsString() || !args[1].IsString() {
		return fail(StatusRuntimeError, "string_equals expects string arguments")
	}
	if !dest.Valid() {
		return fail(StatusModuleError, "string_equals requires destination for result")
	}
	return stored(in, dest, NumberValue(boolNum(args[0].Str == args[1].Str)))
}

func builtinStringConcat(in *Interpreter, _ string, args []Value, dest ssa.Value) (Result, bool) {
	if len(args) != 2 {
		return fail(StatusRuntimeError, "string_concat expects exactly two arguments")
	}
	if !args[0].IsString() || !args[1].IsString() {
		return fail(StatusRuntimeError, "string_concat expects string arguments")
	}
	if !dest.Valid() {
		return fail(StatusModuleError, "string_concat requires destination for result")
	}
	return stored(in, dest, StringValue(args[0].Str+args[1].Str))
}

func builtinStringRepeat(in *Interpreter, _ string, args []Value, dest ssa.Value) (Result, bool) {
	if len(args) != 2 {
		return fail(StatusRuntimeError, "string_repeat expects exactly two arguments")
	}
	if !args[0].IsString() {
		return fail(StatusRuntimeError, "string_repeat expects a string value")
	}
	if !args[1].IsNumber() {
		return fail(StatusRuntimeError, "string_repeat expects a numeric repeat count")
	}
	if !dest.Valid() {
		return fail(StatusModuleError, "string_repeat requires destination for result")
	}
	count, valid := toIndex(args[1].Number)
	if !valid {
		return fail(StatusRuntimeError, "string_repeat count must be a non-negative integer")
	}
	return stored(in, dest, StringValue(strings.Repeat(args[0].Str, count)))
}

func builtinStringSlice(in *Interpreter, _ string, args []Value, dest ssa.Value) (Result, bool) {
	if len(args) != 3 {
		return fail(StatusRuntimeError, "string_slice expects exactly three arguments")
	}
	if !args[0].IsString() {
		return fail(StatusRuntimeError, "string_slice expects a string value")
	}
	if !args[1].IsNumber() || !args[2].IsNumber() {
		return fail(StatusRuntimeError, "string_slice expects numeric start/count arguments")
	}
	if !dest.Valid() {
		return fail(StatusModuleError, "string_slice requires destination for result")
	}
	start, sok := toIndex(args[1].Number)
	count, cok := toIndex(args[2].Number)
	if !sok || !cok {
		return fail(StatusRuntimeError, "string_slice start/count must be non-negative integers")
	}
	runes := []rune(args[0].Str)
	if start > len(runes) {
		return fail(StatusRuntimeError, "string_slice start exceeds string length")
	}
	if start+count > len(runes) {
		return fail(StatusRuntimeError, "string_slice exceeds string bounds")
	}
	return stored(in, dest, StringValue(string(runes[start:start+count])))
}

func builtinStringCase(name string, transform func(string) string) builtinHandler {
	return func(in *Interpreter, _ string, args []Value, dest ssa.Value) (Result, bool) {
		if len(args) != 1 {
			return fail(StatusRuntimeError, name+" expects exactly one argument")
		}
		if !args[0].IsString() {
			return fail(StatusRuntimeError, name+" expects a string argument")
		}
		if !dest.Valid() {
			return fail(StatusModuleError, name+" requires destination for result")
		}
		return stored(in, dest, StringValue(transform(args[0].Str)))
	}
}

func builtinArrayPush(in *Interpreter, _ string, args []Value, dest ssa.Value) (Result, bool) {
	if len(args) != 2 {
		return fail(StatusRuntimeError, "array_push expects exactly two arguments")
	}
	if !args[0].IsObject() {
		return fail(StatusRuntimeError, "array_push requires an array value")
	}
	if !dest.Valid() {
		return fail(StatusModuleError, "array_push requires destination for result")
	}
	if !args[1].IsNumber() && !args[1].IsObject() && !args[1].IsNil() {
		return fail(StatusRuntimeError, "array_push encountered unsupported element type")
	}
	args[0].Object.Fields = append(args[0].Object.Fields, toGcValue(args[1]))
	return stored(in, dest, args[0])
}

func builtinArrayPop(in *Interpreter, _ string, args []Value, dest ssa.Value) (Result, bool) {
	if len(args) != 1 {
		return fail(StatusRuntimeError, "array_pop expects exactly one argument")
	}
	if !args[0].IsObject() {
		return fail(StatusRuntimeError, "array_pop requires an array value")
	}
	if !dest.Valid() {
		return fail(StatusModuleError, "array_pop requires destination for result")
	}
	fields := args[0].Object.Fields
	if len(fields) == 0 {
		return fail(StatusRuntimeError, "array_pop cannot operate on an empty array")
	}
	popped := fromGcValue(fields[len(fields)-1])
	args[0].Object.Fields = fields[:len(fields)-1]
	return stored(in, dest, popped)
}

func builtinArrayJoin(in *Interpreter, _ string, args []Value, dest ssa.Value) (Result, bool) {
	if len(args) != 2 {
		return fail(StatusRuntimeError, "array_join expects exactly two arguments")
	}
	if !args[0].IsObject() {
		return fail(StatusRuntimeError, "array_join requires an array value")
	}
	if !args[1].IsString() {
		return fail(StatusRuntimeError, "array_join expects a string separator")
	}
	if !dest.Valid() {
		return fail(StatusModuleError, "array_join requires destination for result")
	}
	parts := make([]string, 0, len(args[0].Object.Fields))
	for _, field := range args[0].Object.Fields {
		v := fromGcValue(field)
		if v.IsNil() {
			continue
		}
		if !v.IsNumber() {
			return fail(StatusRuntimeError, "array_join encountered unsupported element type")
		}
		parts = append(parts, formatNumber(v.Number))
	}
	return stored(in, dest, StringValue(strings.Join(parts, args[1].Str)))
}

func builtinArrayFill(in *Interpreter, _ string, args []Value, dest ssa.Value) (Result, bool) {
	if len(args) != 2 {
		return fail(StatusRuntimeError, "array_fill expects exactly two arguments")
	}
	if !args[0].IsObject() {
		return fail(StatusRuntimeError, "array_fill requires an array value")
	}
	if !dest.Valid() {
		return fail(StatusModuleError, "array_fill requires destination for result")
	}
	if !args[1].IsNumber() && !args[1].IsObject() && !args[1].IsNil() {
		return fail(StatusRuntimeError, "array_fill encountered unsupported element type")
	}
	fill := toGcValue(args[1])
	for i := range args[0].Object.Fields {
		args[0].Object.Fields[i] = fill
	}
	return stored(in, dest, args[0])
}

func builtinArraySum(in *Interpreter, _ string, args []Value, dest ssa.Value) (Result, bool) {
	if len(args) != 1 {
		return fail(StatusRuntimeError, "array_sum expects exactly one argument")
	}
	if !args[0].IsObject() {
		return fail(StatusRuntimeError, "array_sum requires an array value")
	}
	if !dest.Valid() {
		return fail(StatusModuleError, "array_sum requires destination for result")
	}
	sum := 0.0
	for _, field := range args[0].Object.Fields {
		v := fromGcValue(field)
		if v.IsNil() {
			continue
		}
		if !v.IsNumber() {
			return fail(StatusRuntimeError, "array_sum encountered non-numeric element")
		}
		sum += v.Number
	}
	return stored(in, dest, NumberValue(sum))
}

func builtinReadLine(in *Interpreter, name string, args []Value, dest ssa.Value) (Result, bool) {
	if len(args) != 0 {
		return fail(StatusRuntimeError, "read_line expects no arguments")
	}
	if !dest.Valid() {
		return fail(StatusModuleError, "read_line requires destination for result")
	}
	line := ""
	if in.readLine != nil {
		if fetched, has := in.readLine(); has {
			line = fetched
		}
	}
	in.traceBuiltin(name, line)
	return stored(in, dest, StringValue(line))
}

func builtinUnaryMath(name string, fn func(float64) float64) builtinHandler {
	return func(in *Interpreter, _ string, args []Value, dest ssa.Value) (Result, bool) {
		if len(args) != 1 {
			return fail(StatusRuntimeError, name+" expects exactly one argument")
		}
		if !args[0].IsNumber() {
			return fail(StatusRuntimeError, name+" expects a numeric argument")
		}
		if !dest.Valid() {
			return fail(StatusModuleError, name+" requires destination for result")
		}
		return stored(in, dest, NumberValue(fn(args[0].Number)))
	}
}

func builtinPow(in *Interpreter, _ string, args []Value, dest ssa.Value) (Result, bool) {
	if len(args) != 2 {
		return fail(StatusRuntimeError, "pow expects exactly two arguments")
	}
	if !args[0].IsNumber() || !args[1].IsNumber() {
		return fail(StatusRuntimeError, "pow expects numeric arguments")
	}
	if !dest.Valid() {
		return fail(StatusModuleError, "pow requires destination for result")
	}
	return stored(in, dest, NumberValue(math.Pow(args[0].Number, args[1].Number)))
}
