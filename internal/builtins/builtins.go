// Package builtins installs the starter native-function surface into a
// running engine: global Math/Object/JSON namespace objects, Array.prototype
// methods, the Map/Set/WeakMap/WeakSet constructors, and the print family,
// all addressed through internal/natives' stable string IDs so snapshots
// can reference them without serializing a closure.
//
// Grounded in the teacher's internal/interp/builtins package (a
// Registry.Register(name, fn, category, description) call per function,
// grouped into RegisterXFunctions(r) by concern, driven from one
// RegisterAll(r) at startup); here the registration target is
// internal/natives.Table plus a property slot on a namespace object,
// instead of the teacher's standalone Registry+global-scope pair, since
// JS-family builtins live on namespace/prototype objects rather than as
// bare global identifiers.
package builtins

import (
	"strconv"

	"github.com/cwbudde/codecity/internal/engine"
	"github.com/cwbudde/codecity/internal/natives"
	"github.com/cwbudde/codecity/internal/values"
)

// Install registers every built-in native and wires the namespace objects
// (Math, Object, JSON, console), Array.prototype methods, and the
// Map/Set/WeakMap/WeakSet constructors into en's native table and global
// scope. Call once per engine, before loading any program.
func Install(en *engine.Engine) {
	registerMath(en)
	registerObjectNamespace(en)
	registerJSONNamespace(en)
	registerArrayPrototype(en)
	registerCollections(en)
	registerIO(en)
	registerSystem(en)
}

// nativeFunc builds a callable function object for a natives.Table entry
// already registered under id, linked to the engine's shared
// FunctionProto so `typeof fn.call` style lookups resolve consistently
// with source-defined functions.
func nativeFunc(en *engine.Engine, id string, fn natives.Func) *values.Object {
	en.Natives.Register(id, fn)
	obj := values.NewObject(en.FunctionProto, values.ClassFunction)
	obj.Internal = &values.FunctionData{NativeID: id}
	en.Heap.Track(obj)
	return obj
}

// defineMethod installs a native function as a non-enumerable method
// property on target, matching how JS prototype/namespace methods behave
// under for-in and Object.keys.
func defineMethod(en *engine.Engine, target *values.Object, name, id string, fn natives.Func) {
	fnObj := nativeFunc(en, id, fn)
	target.DefineOwnProperty(name, values.PropertySlot{Value: fnObj, Writable: true, Configurable: true})
}

// namespace creates a plain object meant to hold only static
// methods/constants (Math, JSON, console), rooted at ObjectProto like any
// other object literal.
func namespace(en *engine.Engine) *values.Object {
	obj := values.NewObject(en.ObjectProto, values.ClassObject)
	en.Heap.Track(obj)
	return obj
}

func argAt(args []values.Value, i int) values.Value {
	if i < 0 || i >= len(args) {
		return values.Undefined{}
	}
	return args[i]
}

func numArg(args []values.Value, i int) float64 {
	return float64(values.ToNumber(argAt(args, i)))
}

// newArray builds a fresh Array object from elems, set up the same way the
// step engine's array-literal node does (length tracks the highest
// numeric index written, via Object.SetProperty's fixArrayLength).
func newArray(en *engine.Engine, elems []values.Value) *values.Object {
	arr := values.NewObject(en.ArrayProto, values.ClassArray)
	arr.DefineOwnProperty("length", values.PropertySlot{Value: values.Number(0), Writable: true})
	en.Heap.Track(arr)
	for i, v := range elems {
		arr.SetProperty(strconv.Itoa(i), v)
	}
	return arr
}

// arrayElements reads back an Array object's dense elements in index order,
// the inverse of newArray; used by methods that need []values.Value to work
// with (join, slice, concat, indexOf).
func arrayElements(obj *values.Object) []values.Value {
	length := 0
	if slot, ok := obj.GetOwnProperty("length"); ok {
		length = int(values.ToNumber(slot.Value))
	}
	out := make([]values.Value, length)
	for i := range out {
		if slot, ok := obj.GetOwnProperty(strconv.Itoa(i)); ok {
			out[i] = slot.Value
		} else {
			out[i] = values.Undefined{}
		}
	}
	return out
}
