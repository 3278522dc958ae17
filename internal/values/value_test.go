package values

import (
	"errors"
	"math"
	"testing"
)

func TestNumberString(t *testing.T) {
	tests := []struct {
		name string
		n    Number
		want string
	}{
		{"zero", Number(0), "0"},
		{"negative zero", Number(math.Copysign(0, -1)), "0"},
		{"nan", Number(math.NaN()), "NaN"},
		{"pos inf", Number(math.Inf(1)), "Infinity"},
		{"neg inf", Number(math.Inf(-1)), "-Infinity"},
		{"integer", Number(42), "42"},
		{"fraction", Number(0.5), "0.5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.n.String(); got != tt.want {
				t.Errorf("Number(%v).String() = %q, want %q", float64(tt.n), got, tt.want)
			}
		})
	}
}

func TestNumberIsNegativeZero(t *testing.T) {
	if !Number(math.Copysign(0, -1)).IsNegativeZero() {
		t.Error("expected -0 to report IsNegativeZero")
	}
	if Number(0).IsNegativeZero() {
		t.Error("expected +0 to not report IsNegativeZero")
	}
	if Number(1).IsNegativeZero() {
		t.Error("expected a nonzero number to not report IsNegativeZero")
	}
}

func TestTypeOf(t *testing.T) {
	fn := NewObject(nil, ClassFunction)
	plain := NewObject(nil, ClassObject)

	tests := []struct {
		name string
		v    Value
		want string
	}{
		{"undefined", Undefined{}, "undefined"},
		{"null", Null{}, "object"},
		{"boolean", Boolean(true), "boolean"},
		{"number", Number(1), "number"},
		{"string", String("x"), "string"},
		{"object", plain, "object"},
		{"function", fn, "function"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TypeOf(tt.v); got != tt.want {
				t.Errorf("TypeOf(%v) = %q, want %q", tt.v, got, tt.want)
			}
		})
	}
}

func TestToBoolean(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want bool
	}{
		{"undefined", Undefined{}, false},
		{"null", Null{}, false},
		{"zero", Number(0), false},
		{"nan", Number(math.NaN()), false},
		{"nonzero number", Number(1), true},
		{"empty string", String(""), false},
		{"nonempty string", String("x"), true},
		{"object", NewObject(nil, ClassObject), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ToBoolean(tt.v); got != tt.want {
				t.Errorf("ToBoolean(%v) = %v, want %v", tt.v, got, tt.want)
			}
		})
	}
}

func TestToNumber(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want float64
	}{
		{"null", Null{}, 0},
		{"true", Boolean(true), 1},
		{"false", Boolean(false), 0},
		{"numeric string", String("  42  "), 42},
		{"empty string", String(""), 0},
		{"infinity string", String("Infinity"), math.Inf(1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := float64(ToNumber(tt.v)); got != tt.want {
				t.Errorf("ToNumber(%v) = %v, want %v", tt.v, got, tt.want)
			}
		})
	}
	if !math.IsNaN(float64(ToNumber(Undefined{}))) {
		t.Error("ToNumber(undefined) should be NaN")
	}
	if !math.IsNaN(float64(ToNumber(String("not a number")))) {
		t.Error("ToNumber of a non-numeric string should be NaN")
	}
}

func TestStrictEquals(t *testing.T) {
	a := NewObject(nil, ClassObject)
	b := NewObject(nil, ClassObject)

	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"same number", Number(1), Number(1), true},
		{"different number", Number(1), Number(2), false},
		{"nan never equal", Number(math.NaN()), Number(math.NaN()), false},
		{"number vs string", Number(1), String("1"), false},
		{"same string", String("x"), String("x"), true},
		{"same object identity", a, a, true},
		{"different object identity", a, b, false},
		{"undefined vs undefined", Undefined{}, Undefined{}, true},
		{"null vs undefined", Null{}, Undefined{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StrictEquals(tt.a, tt.b); got != tt.want {
				t.Errorf("StrictEquals(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestLooseEquals(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"null == undefined", Null{}, Undefined{}, true},
		{"number == numeric string", Number(1), String("1"), true},
		{"string == number reversed", String("1"), Number(1), true},
		{"bool == number", Boolean(true), Number(1), true},
		{"bool false == zero", Boolean(false), Number(0), true},
		{"null != number", Null{}, Number(0), false},
		{"object != different object", NewObject(nil, ClassObject), NewObject(nil, ClassObject), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LooseEquals(tt.a, tt.b); got != tt.want {
				t.Errorf("LooseEquals(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

// withInvoker installs fn as the package's Invoker for the duration of the
// test and restores whatever was there before (nil, outside the engine
// package, which actually wires it at construction time).
func withInvoker(t *testing.T, fn func(*Object, Value, []Value) (Value, error)) {
	t.Helper()
	old := Invoker
	Invoker = fn
	t.Cleanup(func() { Invoker = old })
}

func methodObject(t *testing.T, name string, body func(Value, []Value) (Value, error)) *Object {
	t.Helper()
	proto := NewObject(nil, ClassObject)
	obj := NewObject(proto, ClassObject)
	method := NewObject(nil, ClassFunction)
	if err := obj.SetProperty(name, method); err != nil {
		t.Fatalf("SetProperty(%s) failed: %v", name, err)
	}
	withInvoker(t, func(fn *Object, thisVal Value, args []Value) (Value, error) {
		if fn == method {
			return body(thisVal, args)
		}
		return nil, errors.New("values_test: unexpected method invoked")
	})
	return obj
}

func TestToPrimitiveCallsToStringForTheStringHint(t *testing.T) {
	obj := methodObject(t, "toString", func(Value, []Value) (Value, error) {
		return String("custom"), nil
	})
	if got := ToPrimitive(obj, "string"); got != String("custom") {
		t.Errorf("ToPrimitive(obj, \"string\") = %v, want %q", got, "custom")
	}
}

func TestToPrimitiveCallsValueOfForTheNumberHint(t *testing.T) {
	obj := methodObject(t, "valueOf", func(Value, []Value) (Value, error) {
		return Number(42), nil
	})
	if got := ToPrimitive(obj, "number"); got != Number(42) {
		t.Errorf("ToPrimitive(obj, \"number\") = %v, want 42", got)
	}
}

func TestToPrimitiveSkipsAMethodThatReturnsAnObject(t *testing.T) {
	proto := NewObject(nil, ClassObject)
	obj := NewObject(proto, ClassObject)
	valueOf := NewObject(nil, ClassFunction)
	toString := NewObject(nil, ClassFunction)
	if err := obj.SetProperty("valueOf", valueOf); err != nil {
		t.Fatalf("SetProperty(valueOf) failed: %v", err)
	}
	if err := obj.SetProperty("toString", toString); err != nil {
		t.Fatalf("SetProperty(toString) failed: %v", err)
	}
	withInvoker(t, func(fn *Object, thisVal Value, args []Value) (Value, error) {
		if fn == valueOf {
			return NewObject(nil, ClassObject), nil
		}
		return String("fallback"), nil
	})
	if got := ToPrimitive(obj, "default"); got != String("fallback") {
		t.Errorf("ToPrimitive(obj, \"default\") = %v, want %q", got, "fallback")
	}
}

func TestToPrimitiveFallsBackToDefaultStringWithNoInvoker(t *testing.T) {
	withInvoker(t, nil)
	obj := NewObject(nil, ClassObject)
	got := ToPrimitive(obj, "string")
	if got != String(obj.DefaultString()) {
		t.Errorf("ToPrimitive(obj, \"string\") = %v, want %q", got, obj.DefaultString())
	}
}

func TestToPrimitivePassesThroughNonObjectValuesUnchanged(t *testing.T) {
	if got := ToPrimitive(Number(7), "number"); got != Number(7) {
		t.Errorf("ToPrimitive(7, ...) = %v, want 7", got)
	}
}
