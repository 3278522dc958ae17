// Package values implements the tagged-union value model (spec §3, §4.1):
// undefined, null, boolean, number, string, and pseudo-object references.
//
// Grounded in the teacher's Value interface (internal/interp, e.g.
// IntegerValue/StringValue/NilValue) but reshaped to JavaScript's value
// set — one boxed float64 instead of separate Integer/Float kinds, and a
// single Object reference kind instead of DWScript's many record/class/
// interface value kinds.
package values

import (
	"math"
	"strconv"
	"strings"
)

// Value is exactly one of Undefined, Null, Boolean, Number, String, or
// *Object, per spec §3.
type Value interface {
	// Type returns the typeof-style tag used by error messages and the
	// typeOf operation.
	Type() string
	String() string
}

// Undefined is the unique `undefined` value.
type Undefined struct{}

func (Undefined) Type() string   { return "undefined" }
func (Undefined) String() string { return "undefined" }

// Null is the unique `null` value.
type Null struct{}

func (Null) Type() string   { return "object" } // typeof null === "object", JS-faithful wart
func (Null) String() string { return "null" }

// Boolean is a JS boolean.
type Boolean bool

func (Boolean) Type() string    { return "boolean" }
func (b Boolean) String() string {
	if b {
		return "true"
	}
	return "false"
}

// Number is a 64-bit IEEE-754 float. -0, +Inf, -Inf, and NaN are all
// representable and distinguishable from each other (spec §3, §8).
type Number float64

func (Number) Type() string { return "number" }

func (n Number) String() string {
	f := float64(n)
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0" // toString(-0) === "0", per spec §4.1
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// IsNegativeZero reports whether n is the distinguished -0 value.
func (n Number) IsNegativeZero() bool {
	return float64(n) == 0 && math.Signbit(float64(n))
}

// String is a JS string (an arbitrary Unicode scalar sequence).
type String string

func (String) Type() string    { return "string" }
func (s String) String() string { return string(s) }

// IsPrimitive reports whether v is anything other than an *Object.
func IsPrimitive(v Value) bool {
	_, ok := v.(*Object)
	return !ok
}

// TypeOf implements the `typeof` operator, including its special-cased
// "function" result for callable objects.
func TypeOf(v Value) string {
	if obj, ok := v.(*Object); ok && obj.Class == ClassFunction {
		return "function"
	}
	return v.Type()
}

// ToBoolean implements JS's ToBoolean abstract operation.
func ToBoolean(v Value) bool {
	switch x := v.(type) {
	case Undefined:
		return false
	case Null:
		return false
	case Boolean:
		return bool(x)
	case Number:
		f := float64(x)
		return f != 0 && !math.IsNaN(f)
	case String:
		return len(x) > 0
	case *Object:
		return true
	default:
		return false
	}
}

// ToNumber implements JS's ToNumber abstract operation for primitives;
// objects go through ToPrimitive(v, "number") first.
func ToNumber(v Value) Number {
	switch x := v.(type) {
	case Undefined:
		return Number(math.NaN())
	case Null:
		return 0
	case Boolean:
		if x {
			return 1
		}
		return 0
	case Number:
		return x
	case String:
		return stringToNumber(string(x))
	case *Object:
		return ToNumber(ToPrimitive(x, "number"))
	default:
		return Number(math.NaN())
	}
}

func stringToNumber(s string) Number {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return 0
	}
	if trimmed == "Infinity" || trimmed == "+Infinity" {
		return Number(math.Inf(1))
	}
	if trimmed == "-Infinity" {
		return Number(math.Inf(-1))
	}
	f, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return Number(math.NaN())
	}
	return Number(f)
}

// ToString implements JS's ToString abstract operation for primitives;
// objects go through ToPrimitive(v, "string") first.
func ToString(v Value) String {
	switch x := v.(type) {
	case Undefined:
		return "undefined"
	case Null:
		return "null"
	case Boolean, Number, String:
		return String(x.String())
	case *Object:
		return ToString(ToPrimitive(x, "string"))
	default:
		return ""
	}
}

// Invoker calls a function value synchronously to completion and reports
// its return value. The value model has no notion of a call stack, so the
// step engine installs this hook at construction time (see
// engine.New/engine.Engine.callSync); it stays nil for code that exercises
// the value model in isolation (e.g. value-package unit tests), in which
// case ToPrimitive falls back to DefaultString as if valueOf/toString were
// never found.
var Invoker func(fn *Object, thisVal Value, args []Value) (Value, error)

// ToPrimitive implements JS's ToPrimitive abstract operation. hint is
// "number", "string", or "default". Objects try valueOf/toString in the
// hint's preferred order, calling through Invoker, and use the first
// result that comes back primitive — a method that returns an object is
// skipped in favor of the next one, per the spec's OrdinaryToPrimitive
// algorithm — falling back to the object's class-tag String() if neither
// method exists, isn't callable, or errors.
func ToPrimitive(v Value, hint string) Value {
	obj, ok := v.(*Object)
	if !ok {
		return v
	}
	methods := []string{"valueOf", "toString"}
	if hint == "string" {
		methods = []string{"toString", "valueOf"}
	}
	if Invoker != nil {
		for _, name := range methods {
			slot, ok := obj.GetProperty(name)
			if !ok {
				continue
			}
			fn, ok := slot.Value.(*Object)
			if !ok || fn.Class != ClassFunction {
				continue
			}
			result, err := Invoker(fn, obj, nil)
			if err != nil {
				continue
			}
			if IsPrimitive(result) {
				return result
			}
		}
	}
	return String(obj.DefaultString())
}

// StrictEquals implements `===`: never coerces, and NaN !== NaN.
func StrictEquals(a, b Value) bool {
	switch x := a.(type) {
	case Undefined:
		_, ok := b.(Undefined)
		return ok
	case Null:
		_, ok := b.(Null)
		return ok
	case Boolean:
		y, ok := b.(Boolean)
		return ok && x == y
	case Number:
		y, ok := b.(Number)
		if !ok {
			return false
		}
		return float64(x) == float64(y)
	case String:
		y, ok := b.(String)
		return ok && x == y
	case *Object:
		y, ok := b.(*Object)
		return ok && x == y
	default:
		return false
	}
}

// LooseEquals implements `==`, matching JavaScript's abstract equality
// comparison table (spec §4.1).
func LooseEquals(a, b Value) bool {
	if sameType(a, b) {
		return StrictEquals(a, b)
	}
	_, aUndef := a.(Undefined)
	_, aNull := a.(Null)
	_, bUndef := b.(Undefined)
	_, bNull := b.(Null)
	if (aUndef || aNull) && (bUndef || bNull) {
		return true
	}
	if aUndef || aNull || bUndef || bNull {
		return false
	}
	switch x := a.(type) {
	case Number:
		if y, ok := b.(String); ok {
			return LooseEquals(x, ToNumber(y))
		}
		if y, ok := b.(Boolean); ok {
			return LooseEquals(x, ToNumber(y))
		}
		if _, ok := b.(*Object); ok {
			return LooseEquals(x, ToPrimitive(b, "default"))
		}
	case String:
		if y, ok := b.(Number); ok {
			return LooseEquals(ToNumber(x), y)
		}
		if y, ok := b.(Boolean); ok {
			return LooseEquals(x, ToNumber(y))
		}
		if _, ok := b.(*Object); ok {
			return LooseEquals(x, ToPrimitive(b, "default"))
		}
	case Boolean:
		return LooseEquals(ToNumber(x), b)
	case *Object:
		if IsPrimitive(b) {
			return LooseEquals(ToPrimitive(x, "default"), b)
		}
	}
	return false
}

func sameType(a, b Value) bool {
	switch a.(type) {
	case Undefined:
		_, ok := b.(Undefined)
		return ok
	case Null:
		_, ok := b.(Null)
		return ok
	case Boolean:
		_, ok := b.(Boolean)
		return ok
	case Number:
		_, ok := b.(Number)
		return ok
	case String:
		_, ok := b.(String)
		return ok
	case *Object:
		_, ok := b.(*Object)
		return ok
	}
	return false
}
