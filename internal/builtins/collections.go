package builtins

import (
	"fmt"

	"github.com/cwbudde/codecity/internal/engine"
	"github.com/cwbudde/codecity/internal/values"
)

// registerCollections installs Map, Set, WeakMap, and WeakSet as real
// native-backed constructors (spec §3's class tags, §4.2's associative-API
// and weak-semantics invariants). Unlike Math/Object/JSON/console, these
// are the first globals in this engine actually reachable through `new`:
// each constructor's native mutates the instance the step engine already
// allocated for it (engine.newExprStateNode.construct) in place, setting
// Class and Internal; that instance is then the value of the `new`
// expression.
func registerCollections(en *engine.Engine) {
	registerMap(en)
	registerSet(en)
	registerWeakMap(en)
	registerWeakSet(en)
}

func newConstructor(en *engine.Engine, name string, proto *values.Object, fn func(thisVal values.Value, args []values.Value) (values.Value, error)) *values.Object {
	ctor := nativeFunc(en, name, fn)
	ctor.DefineOwnProperty("prototype", values.PropertySlot{Value: proto})
	proto.DefineOwnProperty("constructor", values.PropertySlot{Value: ctor, Writable: true, Configurable: true})
	en.Global.Declare(name, ctor)
	return ctor
}

func registerMap(en *engine.Engine) {
	proto := namespace(en)

	newConstructor(en, "Map", proto, func(thisVal values.Value, _ []values.Value) (values.Value, error) {
		inst, ok := thisVal.(*values.Object)
		if !ok {
			return nil, fmt.Errorf("Map constructor requires new")
		}
		inst.Class = values.ClassMap
		inst.Internal = values.NewMapData()
		return values.Undefined{}, nil
	})

	mapData := func(thisVal values.Value) (*values.MapData, error) {
		obj, ok := thisVal.(*values.Object)
		if !ok {
			return nil, fmt.Errorf("method called on a non-object")
		}
		md, ok := obj.Internal.(*values.MapData)
		if !ok {
			return nil, fmt.Errorf("method called on a non-Map")
		}
		return md, nil
	}

	defineMethod(en, proto, "set", "Map.prototype.set", func(thisVal values.Value, args []values.Value) (values.Value, error) {
		md, err := mapData(thisVal)
		if err != nil {
			return nil, err
		}
		md.Set(argAt(args, 0), argAt(args, 1))
		return thisVal, nil
	})

	defineMethod(en, proto, "get", "Map.prototype.get", func(thisVal values.Value, args []values.Value) (values.Value, error) {
		md, err := mapData(thisVal)
		if err != nil {
			return nil, err
		}
		if v, ok := md.Get(argAt(args, 0)); ok {
			return v, nil
		}
		return values.Undefined{}, nil
	})

	defineMethod(en, proto, "has", "Map.prototype.has", func(thisVal values.Value, args []values.Value) (values.Value, error) {
		md, err := mapData(thisVal)
		if err != nil {
			return nil, err
		}
		return values.Boolean(md.Has(argAt(args, 0))), nil
	})

	defineMethod(en, proto, "delete", "Map.prototype.delete", func(thisVal values.Value, args []values.Value) (values.Value, error) {
		md, err := mapData(thisVal)
		if err != nil {
			return nil, err
		}
		return values.Boolean(md.Delete(argAt(args, 0))), nil
	})

	defineMethod(en, proto, "clear", "Map.prototype.clear", func(thisVal values.Value, _ []values.Value) (values.Value, error) {
		obj, ok := thisVal.(*values.Object)
		if !ok {
			return nil, fmt.Errorf("method called on a non-object")
		}
		obj.Internal = values.NewMapData()
		return values.Undefined{}, nil
	})

	defineMethod(en, proto, "size", "Map.prototype.size", func(thisVal values.Value, _ []values.Value) (values.Value, error) {
		md, err := mapData(thisVal)
		if err != nil {
			return nil, err
		}
		return values.Number(md.Size()), nil
	})

	defineMethod(en, proto, "keys", "Map.prototype.keys", func(thisVal values.Value, _ []values.Value) (values.Value, error) {
		md, err := mapData(thisVal)
		if err != nil {
			return nil, err
		}
		entries := md.Entries()
		out := make([]values.Value, len(entries))
		for i, e := range entries {
			out[i] = e.Key
		}
		return newArray(en, out), nil
	})

	defineMethod(en, proto, "values", "Map.prototype.values", func(thisVal values.Value, _ []values.Value) (values.Value, error) {
		md, err := mapData(thisVal)
		if err != nil {
			return nil, err
		}
		entries := md.Entries()
		out := make([]values.Value, len(entries))
		for i, e := range entries {
			out[i] = e.Value
		}
		return newArray(en, out), nil
	})

	defineMethod(en, proto, "entries", "Map.prototype.entries", func(thisVal values.Value, _ []values.Value) (values.Value, error) {
		md, err := mapData(thisVal)
		if err != nil {
			return nil, err
		}
		entries := md.Entries()
		out := make([]values.Value, len(entries))
		for i, e := range entries {
			out[i] = newArray(en, []values.Value{e.Key, e.Value})
		}
		return newArray(en, out), nil
	})
}

func registerSet(en *engine.Engine) {
	proto := namespace(en)

	newConstructor(en, "Set", proto, func(thisVal values.Value, _ []values.Value) (values.Value, error) {
		inst, ok := thisVal.(*values.Object)
		if !ok {
			return nil, fmt.Errorf("Set constructor requires new")
		}
		inst.Class = values.ClassSet
		inst.Internal = values.NewSetData()
		return values.Undefined{}, nil
	})

	setData := func(thisVal values.Value) (*values.SetData, error) {
		obj, ok := thisVal.(*values.Object)
		if !ok {
			return nil, fmt.Errorf("method called on a non-object")
		}
		sd, ok := obj.Internal.(*values.SetData)
		if !ok {
			return nil, fmt.Errorf("method called on a non-Set")
		}
		return sd, nil
	}

	defineMethod(en, proto, "add", "Set.prototype.add", func(thisVal values.Value, args []values.Value) (values.Value, error) {
		sd, err := setData(thisVal)
		if err != nil {
			return nil, err
		}
		sd.Add(argAt(args, 0))
		return thisVal, nil
	})

	defineMethod(en, proto, "has", "Set.prototype.has", func(thisVal values.Value, args []values.Value) (values.Value, error) {
		sd, err := setData(thisVal)
		if err != nil {
			return nil, err
		}
		return values.Boolean(sd.Has(argAt(args, 0))), nil
	})

	defineMethod(en, proto, "delete", "Set.prototype.delete", func(thisVal values.Value, args []values.Value) (values.Value, error) {
		sd, err := setData(thisVal)
		if err != nil {
			return nil, err
		}
		return values.Boolean(sd.Delete(argAt(args, 0))), nil
	})

	defineMethod(en, proto, "clear", "Set.prototype.clear", func(thisVal values.Value, _ []values.Value) (values.Value, error) {
		obj, ok := thisVal.(*values.Object)
		if !ok {
			return nil, fmt.Errorf("method called on a non-object")
		}
		obj.Internal = values.NewSetData()
		return values.Undefined{}, nil
	})

	defineMethod(en, proto, "size", "Set.prototype.size", func(thisVal values.Value, _ []values.Value) (values.Value, error) {
		sd, err := setData(thisVal)
		if err != nil {
			return nil, err
		}
		return values.Number(sd.Size()), nil
	})

	defineMethod(en, proto, "values", "Set.prototype.values", func(thisVal values.Value, _ []values.Value) (values.Value, error) {
		sd, err := setData(thisVal)
		if err != nil {
			return nil, err
		}
		return newArray(en, sd.Values()), nil
	})
}

func registerWeakMap(en *engine.Engine) {
	proto := namespace(en)

	newConstructor(en, "WeakMap", proto, func(thisVal values.Value, _ []values.Value) (values.Value, error) {
		inst, ok := thisVal.(*values.Object)
		if !ok {
			return nil, fmt.Errorf("WeakMap constructor requires new")
		}
		inst.Class = values.ClassWeakMap
		inst.Internal = values.NewWeakMapData()
		return values.Undefined{}, nil
	})

	weakMapData := func(thisVal values.Value) (*values.WeakMapData, error) {
		obj, ok := thisVal.(*values.Object)
		if !ok {
			return nil, fmt.Errorf("method called on a non-object")
		}
		wd, ok := obj.Internal.(*values.WeakMapData)
		if !ok {
			return nil, fmt.Errorf("method called on a non-WeakMap")
		}
		return wd, nil
	}

	// keyArg requires the key to be an object, per the spec's weak-container
	// invariant — only an object can be held weakly at all.
	keyArg := func(args []values.Value, i int) (*values.Object, error) {
		obj, ok := argAt(args, i).(*values.Object)
		if !ok {
			return nil, fmt.Errorf("weak container key must be an object")
		}
		return obj, nil
	}

	defineMethod(en, proto, "set", "WeakMap.prototype.set", func(thisVal values.Value, args []values.Value) (values.Value, error) {
		wd, err := weakMapData(thisVal)
		if err != nil {
			return nil, err
		}
		key, err := keyArg(args, 0)
		if err != nil {
			return nil, err
		}
		wd.Set(key, argAt(args, 1))
		return thisVal, nil
	})

	defineMethod(en, proto, "get", "WeakMap.prototype.get", func(thisVal values.Value, args []values.Value) (values.Value, error) {
		wd, err := weakMapData(thisVal)
		if err != nil {
			return nil, err
		}
		key, ok := argAt(args, 0).(*values.Object)
		if !ok {
			return values.Undefined{}, nil
		}
		if v, ok := wd.Get(key); ok {
			return v, nil
		}
		return values.Undefined{}, nil
	})

	defineMethod(en, proto, "has", "WeakMap.prototype.has", func(thisVal values.Value, args []values.Value) (values.Value, error) {
		wd, err := weakMapData(thisVal)
		if err != nil {
			return nil, err
		}
		key, ok := argAt(args, 0).(*values.Object)
		if !ok {
			return values.Boolean(false), nil
		}
		return values.Boolean(wd.Has(key)), nil
	})

	defineMethod(en, proto, "delete", "WeakMap.prototype.delete", func(thisVal values.Value, args []values.Value) (values.Value, error) {
		wd, err := weakMapData(thisVal)
		if err != nil {
			return nil, err
		}
		key, ok := argAt(args, 0).(*values.Object)
		if !ok {
			return values.Boolean(false), nil
		}
		return values.Boolean(wd.Delete(key)), nil
	})

	defineMethod(en, proto, "size", "WeakMap.prototype.size", func(thisVal values.Value, _ []values.Value) (values.Value, error) {
		wd, err := weakMapData(thisVal)
		if err != nil {
			return nil, err
		}
		return values.Number(wd.Size()), nil
	})

	defineMethod(en, proto, "entries", "WeakMap.prototype.entries", func(thisVal values.Value, _ []values.Value) (values.Value, error) {
		wd, err := weakMapData(thisVal)
		if err != nil {
			return nil, err
		}
		entries := wd.Entries()
		out := make([]values.Value, len(entries))
		for i, e := range entries {
			out[i] = newArray(en, []values.Value{e.Key, e.Value})
		}
		return newArray(en, out), nil
	})
}

func registerWeakSet(en *engine.Engine) {
	proto := namespace(en)

	newConstructor(en, "WeakSet", proto, func(thisVal values.Value, _ []values.Value) (values.Value, error) {
		inst, ok := thisVal.(*values.Object)
		if !ok {
			return nil, fmt.Errorf("WeakSet constructor requires new")
		}
		inst.Class = values.ClassWeakSet
		inst.Internal = values.NewWeakSetData()
		return values.Undefined{}, nil
	})

	weakSetData := func(thisVal values.Value) (*values.WeakSetData, error) {
		obj, ok := thisVal.(*values.Object)
		if !ok {
			return nil, fmt.Errorf("method called on a non-object")
		}
		wsd, ok := obj.Internal.(*values.WeakSetData)
		if !ok {
			return nil, fmt.Errorf("method called on a non-WeakSet")
		}
		return wsd, nil
	}

	defineMethod(en, proto, "add", "WeakSet.prototype.add", func(thisVal values.Value, args []values.Value) (values.Value, error) {
		wsd, err := weakSetData(thisVal)
		if err != nil {
			return nil, err
		}
		member, ok := argAt(args, 0).(*values.Object)
		if !ok {
			return nil, fmt.Errorf("weak container member must be an object")
		}
		wsd.Add(member)
		return thisVal, nil
	})

	defineMethod(en, proto, "has", "WeakSet.prototype.has", func(thisVal values.Value, args []values.Value) (values.Value, error) {
		wsd, err := weakSetData(thisVal)
		if err != nil {
			return nil, err
		}
		member, ok := argAt(args, 0).(*values.Object)
		if !ok {
			return values.Boolean(false), nil
		}
		return values.Boolean(wsd.Has(member)), nil
	})

	defineMethod(en, proto, "delete", "WeakSet.prototype.delete", func(thisVal values.Value, args []values.Value) (values.Value, error) {
		wsd, err := weakSetData(thisVal)
		if err != nil {
			return nil, err
		}
		member, ok := argAt(args, 0).(*values.Object)
		if !ok {
			return values.Boolean(false), nil
		}
		return values.Boolean(wsd.Delete(member)), nil
	})

	defineMethod(en, proto, "size", "WeakSet.prototype.size", func(thisVal values.Value, _ []values.Value) (values.Value, error) {
		wsd, err := weakSetData(thisVal)
		if err != nil {
			return nil, err
		}
		return values.Number(wsd.Size()), nil
	})

	defineMethod(en, proto, "values", "WeakSet.prototype.values", func(thisVal values.Value, _ []values.Value) (values.Value, error) {
		wsd, err := weakSetData(thisVal)
		if err != nil {
			return nil, err
		}
		members := wsd.Values()
		out := make([]values.Value, len(members))
		for i, m := range members {
			out[i] = m
		}
		return newArray(en, out), nil
	})
}
