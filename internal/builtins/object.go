package builtins

import (
	"github.com/cwbudde/codecity/internal/engine"
	"github.com/cwbudde/codecity/internal/values"
)

// registerObjectNamespace installs the global Object namespace: the
// handful of static introspection/manipulation functions that operate on
// an arbitrary pseudo-object's own-property list (spec §3's "insertion
// order" and "configurable/enumerable/writable bits" invariants).
func registerObjectNamespace(en *engine.Engine) {
	ns := namespace(en)

	defineMethod(en, ns, "keys", "Object.keys", func(_ values.Value, args []values.Value) (values.Value, error) {
		obj, ok := argAt(args, 0).(*values.Object)
		if !ok {
			return newArray(en, nil), nil
		}
		var keys []values.Value
		for _, k := range obj.OwnKeys() {
			if slot, _ := obj.GetOwnProperty(k); slot != nil && slot.Enumerable {
				keys = append(keys, values.String(k))
			}
		}
		return newArray(en, keys), nil
	})

	defineMethod(en, ns, "values", "Object.values", func(_ values.Value, args []values.Value) (values.Value, error) {
		obj, ok := argAt(args, 0).(*values.Object)
		if !ok {
			return newArray(en, nil), nil
		}
		var vals []values.Value
		for _, k := range obj.OwnKeys() {
			if slot, _ := obj.GetOwnProperty(k); slot != nil && slot.Enumerable {
				vals = append(vals, slot.Value)
			}
		}
		return newArray(en, vals), nil
	})

	defineMethod(en, ns, "entries", "Object.entries", func(_ values.Value, args []values.Value) (values.Value, error) {
		obj, ok := argAt(args, 0).(*values.Object)
		if !ok {
			return newArray(en, nil), nil
		}
		var pairs []values.Value
		for _, k := range obj.OwnKeys() {
			slot, _ := obj.GetOwnProperty(k)
			if slot == nil || !slot.Enumerable {
				continue
			}
			pairs = append(pairs, newArray(en, []values.Value{values.String(k), slot.Value}))
		}
		return newArray(en, pairs), nil
	})

	defineMethod(en, ns, "assign", "Object.assign", func(_ values.Value, args []values.Value) (values.Value, error) {
		target, ok := argAt(args, 0).(*values.Object)
		if !ok {
			return values.Undefined{}, nil
		}
		for i := 1; i < len(args); i++ {
			src, ok := args[i].(*values.Object)
			if !ok {
				continue
			}
			for _, k := range src.OwnKeys() {
				if slot, _ := src.GetOwnProperty(k); slot != nil && slot.Enumerable {
					target.SetProperty(k, slot.Value)
				}
			}
		}
		return target, nil
	})

	defineMethod(en, ns, "freeze", "Object.freeze", func(_ values.Value, args []values.Value) (values.Value, error) {
		if obj, ok := argAt(args, 0).(*values.Object); ok {
			obj.Extensible = false
		}
		return argAt(args, 0), nil
	})

	// isFrozen approximates the real check with Extensible alone: spec §3
	// tracks configurable/writable per property but freeze() here only
	// flips the object-wide extensible bit, so a frozen object's own
	// properties may still individually be writable. Good enough for the
	// common "did I freeze this" check; not a full per-property audit.
	defineMethod(en, ns, "isFrozen", "Object.isFrozen", func(_ values.Value, args []values.Value) (values.Value, error) {
		obj, ok := argAt(args, 0).(*values.Object)
		if !ok {
			return values.Boolean(true), nil
		}
		return values.Boolean(!obj.Extensible), nil
	})

	defineMethod(en, ns, "getPrototypeOf", "Object.getPrototypeOf", func(_ values.Value, args []values.Value) (values.Value, error) {
		obj, ok := argAt(args, 0).(*values.Object)
		if !ok || obj.Proto == nil {
			return values.Null{}, nil
		}
		return obj.Proto, nil
	})

	defineMethod(en, ns, "create", "Object.create", func(_ values.Value, args []values.Value) (values.Value, error) {
		proto, _ := argAt(args, 0).(*values.Object)
		obj := values.NewObject(proto, values.ClassObject)
		en.Heap.Track(obj)
		return obj, nil
	})

	en.Global.Declare("Object", ns)
}
