package builtins

import (
	"strconv"
	"strings"

	"github.com/cwbudde/codecity/internal/engine"
	"github.com/cwbudde/codecity/internal/values"
)

// registerArrayPrototype installs the subset of Array.prototype that can
// run as a synchronous native (spec §4.3): methods whose behavior doesn't
// require invoking a caller-supplied callback. Callback-taking methods
// (map, filter, reduce, forEach, sort with a comparator) need to re-enter
// the step engine to call a JS function value, which the native-function
// table's signature — thisVal plus already-evaluated args, no Engine
// handle — has no way to do; those belong to the step engine as a CallExpr-
// shaped state node, not here, and are left unimplemented for now.
func registerArrayPrototype(en *engine.Engine) {
	proto := en.ArrayProto

	defineMethod(en, proto, "push", "Array.prototype.push", func(thisVal values.Value, args []values.Value) (values.Value, error) {
		arr, ok := thisVal.(*values.Object)
		if !ok {
			return values.Undefined{}, nil
		}
		length := arrayLength(arr)
		for i, v := range args {
			arr.SetProperty(strconv.Itoa(length+i), v)
		}
		return values.Number(length + len(args)), nil
	})

	defineMethod(en, proto, "pop", "Array.prototype.pop", func(thisVal values.Value, _ []values.Value) (values.Value, error) {
		arr, ok := thisVal.(*values.Object)
		if !ok {
			return values.Undefined{}, nil
		}
		length := arrayLength(arr)
		if length == 0 {
			return values.Undefined{}, nil
		}
		key := strconv.Itoa(length - 1)
		slot, _ := arr.GetOwnProperty(key)
		arr.DeleteProperty(key)
		arr.SetProperty("length", values.Number(length-1))
		if slot == nil {
			return values.Undefined{}, nil
		}
		return slot.Value, nil
	})

	defineMethod(en, proto, "shift", "Array.prototype.shift", func(thisVal values.Value, _ []values.Value) (values.Value, error) {
		arr, ok := thisVal.(*values.Object)
		if !ok {
			return values.Undefined{}, nil
		}
		elems := arrayElements(arr)
		if len(elems) == 0 {
			return values.Undefined{}, nil
		}
		first := elems[0]
		rewriteArray(arr, elems[1:])
		return first, nil
	})

	defineMethod(en, proto, "unshift", "Array.prototype.unshift", func(thisVal values.Value, args []values.Value) (values.Value, error) {
		arr, ok := thisVal.(*values.Object)
		if !ok {
			return values.Undefined{}, nil
		}
		elems := append(append([]values.Value{}, args...), arrayElements(arr)...)
		rewriteArray(arr, elems)
		return values.Number(len(elems)), nil
	})

	defineMethod(en, proto, "slice", "Array.prototype.slice", func(thisVal values.Value, args []values.Value) (values.Value, error) {
		arr, ok := thisVal.(*values.Object)
		if !ok {
			return newArray(en, nil), nil
		}
		elems := arrayElements(arr)
		start, end := sliceBounds(len(elems), args)
		return newArray(en, append([]values.Value{}, elems[start:end]...)), nil
	})

	defineMethod(en, proto, "indexOf", "Array.prototype.indexOf", func(thisVal values.Value, args []values.Value) (values.Value, error) {
		arr, ok := thisVal.(*values.Object)
		if !ok {
			return values.Number(-1), nil
		}
		target := argAt(args, 0)
		for i, v := range arrayElements(arr) {
			if values.StrictEquals(v, target) {
				return values.Number(i), nil
			}
		}
		return values.Number(-1), nil
	})

	defineMethod(en, proto, "includes", "Array.prototype.includes", func(thisVal values.Value, args []values.Value) (values.Value, error) {
		arr, ok := thisVal.(*values.Object)
		if !ok {
			return values.Boolean(false), nil
		}
		target := argAt(args, 0)
		for _, v := range arrayElements(arr) {
			if values.StrictEquals(v, target) {
				return values.Boolean(true), nil
			}
		}
		return values.Boolean(false), nil
	})

	defineMethod(en, proto, "join", "Array.prototype.join", func(thisVal values.Value, args []values.Value) (values.Value, error) {
		arr, ok := thisVal.(*values.Object)
		if !ok {
			return values.String(""), nil
		}
		sep := ","
		if len(args) > 0 {
			if _, undef := argAt(args, 0).(values.Undefined); !undef {
				sep = string(values.ToString(argAt(args, 0)))
			}
		}
		parts := make([]string, 0, arrayLength(arr))
		for _, v := range arrayElements(arr) {
			switch v.(type) {
			case values.Undefined, values.Null:
				parts = append(parts, "")
			default:
				parts = append(parts, string(values.ToString(v)))
			}
		}
		return values.String(strings.Join(parts, sep)), nil
	})

	defineMethod(en, proto, "concat", "Array.prototype.concat", func(thisVal values.Value, args []values.Value) (values.Value, error) {
		arr, ok := thisVal.(*values.Object)
		out := []values.Value{}
		if ok {
			out = append(out, arrayElements(arr)...)
		}
		for _, a := range args {
			if other, ok := a.(*values.Object); ok && other.Class == values.ClassArray {
				out = append(out, arrayElements(other)...)
			} else {
				out = append(out, a)
			}
		}
		return newArray(en, out), nil
	})

	defineMethod(en, proto, "reverse", "Array.prototype.reverse", func(thisVal values.Value, _ []values.Value) (values.Value, error) {
		arr, ok := thisVal.(*values.Object)
		if !ok {
			return thisVal, nil
		}
		elems := arrayElements(arr)
		for i, j := 0, len(elems)-1; i < j; i, j = i+1, j-1 {
			elems[i], elems[j] = elems[j], elems[i]
		}
		rewriteArray(arr, elems)
		return arr, nil
	})
}

func arrayLength(arr *values.Object) int {
	if slot, ok := arr.GetOwnProperty("length"); ok {
		return int(values.ToNumber(slot.Value))
	}
	return 0
}

// rewriteArray replaces arr's dense elements in place: clears every
// existing numeric own key, then writes elems back from index 0, leaving
// length consistent via Object.SetProperty's fixArrayLength.
func rewriteArray(arr *values.Object, elems []values.Value) {
	oldLen := arrayLength(arr)
	for i := 0; i < oldLen; i++ {
		arr.DeleteProperty(strconv.Itoa(i))
	}
	arr.SetProperty("length", values.Number(0))
	for i, v := range elems {
		arr.SetProperty(strconv.Itoa(i), v)
	}
}

// sliceBounds normalizes JS Array.prototype.slice's (start, end) pair:
// negative indices count from the end, missing end means "to the end".
func sliceBounds(length int, args []values.Value) (int, int) {
	clamp := func(n int) int {
		if n < 0 {
			n += length
		}
		if n < 0 {
			n = 0
		}
		if n > length {
			n = length
		}
		return n
	}
	start := 0
	if len(args) > 0 {
		if _, undef := argAt(args, 0).(values.Undefined); !undef {
			start = clamp(int(numArg(args, 0)))
		}
	}
	end := length
	if len(args) > 1 {
		if _, undef := argAt(args, 1).(values.Undefined); !undef {
			end = clamp(int(numArg(args, 1)))
		}
	}
	if end < start {
		end = start
	}
	return start, end
}
