// Package interp executes a built, optimised ssa.Function with a value
// cache, φ materialization on block entry, and a builtin dispatch table.
//
// Grounded on original_source/runtime/include/impulse/runtime/ssa_interpreter.h
// and runtime/src/ssa_interpreter.cpp, followed closely. The original's
// value.h omits a String ValueKind that ssa_interpreter.cpp nonetheless
// constructs via Value::make_string throughout (string literals, string_*
// builtins, read_line) — treated as a gap in the reference header rather
// than intentional, so Value here carries Nil/Number/String/Object the way
// the interpreter's actual behavior requires.
package interp

import "impulse/internal/gcheap"

// Kind tags a runtime Value's representation.
type Kind uint8

const (
	KindNil Kind = iota
	KindNumber
	KindString
	KindObject
)

// Value is the interpreter's runtime value: a tagged union of nil, a
// float64 number, an immutable string, or a heap object reference.
type Value struct {
	Kind   Kind
	Number float64
	Str    string
	Object *gcheap.GcObject
}

func Nil() Value                       { return Value{Kind: KindNil} }
func NumberValue(v float64) Value       { return Value{Kind: KindNumber, Number: v} }
func StringValue(s string) Value        { return Value{Kind: KindString, Str: s} }
func ObjectValue(o *gcheap.GcObject) Value {
	return Value{Kind: KindObject, Object: o}
}

func (v Value) IsNumber() bool { return v.Kind == KindNumber }
func (v Value) IsString() bool { return v.Kind == KindString }
func (v Value) IsObject() bool { return v.Kind == KindObject }
func (v Value) IsNil() bool    { return v.Kind == KindNil }

// Describe renders a value for trace/println output, matching the
// original's describe_value/format_number conventions: numbers print
// without a superfluous ".0" when integral, and strings always print bare
// (no quotes), in traces as well as for println/print.
func (v Value) Describe() string {
	switch v.Kind {
	case KindNumber:
		return formatNumber(v.Number)
	case KindString:
		return v.Str
	case KindObject:
		if v.Object == nil {
			return "<array>"
		}
		return "<array len=" + itoa(len(v.Object.Fields)) + ">"
	default:
		return "nil"
	}
}

// ToGCValue exposes toGcValue to callers outside the package (the VM driver
// needs it to translate frame-local roots before handing them to the heap).
func ToGCValue(v Value) gcheap.Value {
	return toGcValue(v)
}

func toGcValue(v Value) gcheap.Value {
	switch v.Kind {
	case KindNumber:
		return gcheap.NumberValue(v.Number)
	case KindObject:
		return gcheap.ObjectValue(v.Object)
	default:
		return gcheap.Nil()
	}
}
