package builtins

import (
	"math"
	"testing"

	"github.com/cwbudde/codecity/internal/engine"
	"github.com/cwbudde/codecity/internal/heap"
	"github.com/cwbudde/codecity/internal/host"
	"github.com/cwbudde/codecity/internal/natives"
	"github.com/cwbudde/codecity/internal/values"
)

func newTestEngine() *engine.Engine {
	en := engine.New(heap.New(), natives.NewTable())
	Install(en)
	return en
}

func call(t *testing.T, en *engine.Engine, id string, this values.Value, args ...values.Value) values.Value {
	t.Helper()
	v, err := en.Natives.Call(id, this, args)
	if err != nil {
		t.Fatalf("Call(%q) failed: %v", id, err)
	}
	return v
}

func TestMathNamespaceIsGlobal(t *testing.T) {
	en := newTestEngine()
	v, err := en.Global.Get("Math")
	if err != nil {
		t.Fatalf("Get(Math) failed: %v", err)
	}
	obj, ok := v.(*values.Object)
	if !ok {
		t.Fatalf("Math = %T, want *values.Object", v)
	}
	pi, ok := obj.GetOwnProperty("PI")
	if !ok || pi.Value != values.Number(math.Pi) {
		t.Errorf("Math.PI = %v, want %v", pi.Value, math.Pi)
	}
}

func TestMathPow(t *testing.T) {
	en := newTestEngine()
	got := call(t, en, "Math.pow", values.Undefined{}, values.Number(2), values.Number(10))
	if got != values.Number(1024) {
		t.Errorf("Math.pow(2,10) = %v, want 1024", got)
	}
}

func TestMathMinMaxNaNPropagation(t *testing.T) {
	en := newTestEngine()
	got := call(t, en, "Math.min", values.Undefined{}, values.Number(1), values.Number(math.NaN()))
	n, ok := got.(values.Number)
	if !ok || !math.IsNaN(float64(n)) {
		t.Errorf("Math.min(1, NaN) = %v, want NaN", got)
	}
}

func TestArrayPushPop(t *testing.T) {
	en := newTestEngine()
	arr := newArray(en, []values.Value{values.Number(1), values.Number(2)})

	newLen := call(t, en, "Array.prototype.push", arr, values.Number(3))
	if newLen != values.Number(3) {
		t.Errorf("push returned %v, want 3", newLen)
	}
	popped := call(t, en, "Array.prototype.pop", arr)
	if popped != values.Number(3) {
		t.Errorf("pop returned %v, want 3", popped)
	}
	if got := arrayLength(arr); got != 2 {
		t.Errorf("length after push+pop = %d, want 2", got)
	}
}

func TestArrayShiftUnshift(t *testing.T) {
	en := newTestEngine()
	arr := newArray(en, []values.Value{values.Number(1), values.Number(2), values.Number(3)})

	first := call(t, en, "Array.prototype.shift", arr)
	if first != values.Number(1) {
		t.Errorf("shift returned %v, want 1", first)
	}
	newLen := call(t, en, "Array.prototype.unshift", arr, values.Number(0))
	if newLen != values.Number(3) {
		t.Errorf("unshift returned %v, want 3", newLen)
	}
	elems := arrayElements(arr)
	want := []values.Value{values.Number(0), values.Number(2), values.Number(3)}
	for i, w := range want {
		if elems[i] != w {
			t.Errorf("elems[%d] = %v, want %v", i, elems[i], w)
		}
	}
}

func TestArraySlice(t *testing.T) {
	en := newTestEngine()
	arr := newArray(en, []values.Value{values.Number(1), values.Number(2), values.Number(3), values.Number(4)})

	sliced := call(t, en, "Array.prototype.slice", arr, values.Number(1), values.Number(-1))
	out, ok := sliced.(*values.Object)
	if !ok {
		t.Fatalf("slice returned %T, want *values.Object", sliced)
	}
	elems := arrayElements(out)
	if len(elems) != 2 || elems[0] != values.Number(2) || elems[1] != values.Number(3) {
		t.Errorf("slice(1,-1) = %v, want [2 3]", elems)
	}
}

func TestArrayJoin(t *testing.T) {
	en := newTestEngine()
	arr := newArray(en, []values.Value{values.String("a"), values.Undefined{}, values.String("c")})

	got := call(t, en, "Array.prototype.join", arr, values.String("-"))
	if got != values.String("a--c") {
		t.Errorf("join = %v, want \"a--c\"", got)
	}
}

func TestArrayIndexOfAndIncludes(t *testing.T) {
	en := newTestEngine()
	arr := newArray(en, []values.Value{values.Number(1), values.Number(2), values.Number(3)})

	if got := call(t, en, "Array.prototype.indexOf", arr, values.Number(2)); got != values.Number(1) {
		t.Errorf("indexOf(2) = %v, want 1", got)
	}
	if got := call(t, en, "Array.prototype.includes", arr, values.Number(9)); got != values.Boolean(false) {
		t.Errorf("includes(9) = %v, want false", got)
	}
}

func TestArrayConcat(t *testing.T) {
	en := newTestEngine()
	a := newArray(en, []values.Value{values.Number(1)})
	b := newArray(en, []values.Value{values.Number(2), values.Number(3)})

	got := call(t, en, "Array.prototype.concat", a, b, values.Number(4))
	out, ok := got.(*values.Object)
	if !ok {
		t.Fatalf("concat returned %T, want *values.Object", got)
	}
	elems := arrayElements(out)
	want := []values.Value{values.Number(1), values.Number(2), values.Number(3), values.Number(4)}
	if len(elems) != len(want) {
		t.Fatalf("concat length = %d, want %d", len(elems), len(want))
	}
	for i, w := range want {
		if elems[i] != w {
			t.Errorf("elems[%d] = %v, want %v", i, elems[i], w)
		}
	}
}

func TestObjectKeysValuesEntries(t *testing.T) {
	en := newTestEngine()
	obj := values.NewObject(en.ObjectProto, values.ClassObject)
	obj.SetProperty("a", values.Number(1))
	obj.SetProperty("b", values.Number(2))

	keys := call(t, en, "Object.keys", values.Undefined{}, obj)
	keysArr, _ := keys.(*values.Object)
	if got := arrayElements(keysArr); len(got) != 2 || got[0] != values.String("a") || got[1] != values.String("b") {
		t.Errorf("Object.keys = %v, want [a b]", got)
	}

	vals := call(t, en, "Object.values", values.Undefined{}, obj)
	valsArr, _ := vals.(*values.Object)
	if got := arrayElements(valsArr); len(got) != 2 || got[0] != values.Number(1) || got[1] != values.Number(2) {
		t.Errorf("Object.values = %v, want [1 2]", got)
	}
}

func TestObjectFreezeIsFrozen(t *testing.T) {
	en := newTestEngine()
	obj := values.NewObject(en.ObjectProto, values.ClassObject)

	call(t, en, "Object.freeze", values.Undefined{}, obj)
	if got := call(t, en, "Object.isFrozen", values.Undefined{}, obj); got != values.Boolean(true) {
		t.Errorf("isFrozen after freeze = %v, want true", got)
	}
	if err := obj.DefineOwnProperty("x", values.PropertySlot{Value: values.Number(1), Writable: true}); err == nil {
		t.Error("expected a frozen object to reject adding a new property")
	}
}

func TestObjectCreateLinksPrototype(t *testing.T) {
	en := newTestEngine()
	proto := values.NewObject(nil, values.ClassObject)
	proto.SetProperty("inherited", values.Number(1))

	got := call(t, en, "Object.create", values.Undefined{}, proto)
	obj, ok := got.(*values.Object)
	if !ok {
		t.Fatalf("Object.create returned %T, want *values.Object", got)
	}
	slot, ok := obj.GetProperty("inherited")
	if !ok || slot.Value != values.Number(1) {
		t.Errorf("expected the created object to inherit from proto, got %v, %v", slot, ok)
	}
}

func TestJSONStringifyPreservesKeyOrderAndSkipsUndefined(t *testing.T) {
	en := newTestEngine()
	obj := values.NewObject(en.ObjectProto, values.ClassObject)
	obj.SetProperty("b", values.Number(2))
	obj.SetProperty("a", values.Number(1))
	obj.SetProperty("skip", values.Undefined{})

	got := call(t, en, "JSON.stringify", values.Undefined{}, obj)
	if got != values.String(`{"b":2,"a":1}`) {
		t.Errorf("JSON.stringify = %v, want {\"b\":2,\"a\":1}", got)
	}
}

func TestJSONParseRoundTrip(t *testing.T) {
	en := newTestEngine()
	got := call(t, en, "JSON.parse", values.Undefined{}, values.String(`{"x":1,"y":[true,null,"z"]}`))
	obj, ok := got.(*values.Object)
	if !ok {
		t.Fatalf("JSON.parse returned %T, want *values.Object", got)
	}
	x, _ := obj.GetOwnProperty("x")
	if x.Value != values.Number(1) {
		t.Errorf("x = %v, want 1", x.Value)
	}
	ySlot, _ := obj.GetOwnProperty("y")
	yArr, ok := ySlot.Value.(*values.Object)
	if !ok || yArr.Class != values.ClassArray {
		t.Fatalf("y = %v, want an array", ySlot.Value)
	}
	elems := arrayElements(yArr)
	_, isNull := elems[1].(values.Null)
	if len(elems) != 3 || elems[0] != values.Boolean(true) || !isNull || elems[2] != values.String("z") {
		t.Errorf("y = %v, want [true null \"z\"]", elems)
	}
}

func TestJSONParseRejectsInvalidInput(t *testing.T) {
	en := newTestEngine()
	_, err := en.Natives.Call("JSON.parse", values.Undefined{}, []values.Value{values.String("not json")})
	if err == nil {
		t.Fatal("expected JSON.parse to reject invalid input")
	}
}

func TestNumberIsIntegerAndIsFinite(t *testing.T) {
	en := newTestEngine()
	if got := call(t, en, "Number.isInteger", values.Undefined{}, values.Number(3)); got != values.Boolean(true) {
		t.Errorf("isInteger(3) = %v, want true", got)
	}
	if got := call(t, en, "Number.isInteger", values.Undefined{}, values.Number(3.5)); got != values.Boolean(false) {
		t.Errorf("isInteger(3.5) = %v, want false", got)
	}
	if got := call(t, en, "Number.isFinite", values.Undefined{}, values.Number(math.Inf(1))); got != values.Boolean(false) {
		t.Errorf("isFinite(Infinity) = %v, want false", got)
	}
}

func TestNumberParseFloatStopsAtFirstInvalidChar(t *testing.T) {
	en := newTestEngine()
	got := call(t, en, "Number.parseFloat", values.Undefined{}, values.String("  3.14abc"))
	if got != values.Number(3.14) {
		t.Errorf("parseFloat(\"  3.14abc\") = %v, want 3.14", got)
	}
}

func TestNumberParseIntTruncates(t *testing.T) {
	en := newTestEngine()
	got := call(t, en, "Number.parseInt", values.Undefined{}, values.String("42.9px"))
	if got != values.Number(42) {
		t.Errorf("parseInt(\"42.9px\") = %v, want 42", got)
	}
}

func TestArrayIsArray(t *testing.T) {
	en := newTestEngine()
	arr := newArray(en, nil)
	if got := call(t, en, "Array.isArray", values.Undefined{}, arr); got != values.Boolean(true) {
		t.Errorf("isArray(array) = %v, want true", got)
	}
	if got := call(t, en, "Array.isArray", values.Undefined{}, values.Number(1)); got != values.Boolean(false) {
		t.Errorf("isArray(1) = %v, want false", got)
	}
}

func TestPrintWritesToSink(t *testing.T) {
	en := newTestEngine()
	var lines []string
	en.SetSink(host.FuncSink(func(line string) { lines = append(lines, line) }))

	call(t, en, "print", values.Undefined{}, values.String("hello"))
	if len(lines) != 1 || lines[0] != "hello" {
		t.Errorf("sink captured %v, want [\"hello\"]", lines)
	}
}
