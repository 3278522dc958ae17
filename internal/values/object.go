package values

import (
	"fmt"
	"strconv"
)

// ClassTag identifies a pseudo-object's internal-slot layout (spec §3). It
// is a string, not a Go type switch on host prototype identity, per the
// REDESIGN FLAG in spec §9: "a `class tag` byte carried on the pseudo-
// object; no runtime prototype comparison is needed." Strings beyond the
// predefined set are the documented user-extensible internal tags.
type ClassTag string

const (
	ClassObject    ClassTag = "Object"
	ClassFunction  ClassTag = "Function"
	ClassArray     ClassTag = "Array"
	ClassDate      ClassTag = "Date"
	ClassRegExp    ClassTag = "RegExp"
	ClassError     ClassTag = "Error"
	ClassArguments ClassTag = "Arguments"
	ClassMap       ClassTag = "Map"
	ClassSet       ClassTag = "Set"
	ClassWeakMap   ClassTag = "WeakMap"
	ClassWeakSet   ClassTag = "WeakSet"
	ClassThread    ClassTag = "Thread"
	ClassBox       ClassTag = "Box"
	ClassServer    ClassTag = "Server"
)

// PropertySlot is one property of an Object: a value plus the three
// attribute bits spec §3 requires.
type PropertySlot struct {
	Value        Value
	Configurable bool
	Enumerable   bool
	Writable     bool
}

// Object is a pseudo-object: the single reference kind in the value model
// (spec §3). Property order is preserved for iteration, matching the
// spec's "insertion order" invariant.
type Object struct {
	Proto      *Object
	Class      ClassTag
	Extensible bool

	keys  []string
	props map[string]*PropertySlot

	// Internal holds the class-specific internal slots named in spec §3's
	// "Internal slots per tag" — e.g. *FunctionData for ClassFunction,
	// *DateData for ClassDate. Left nil for plain ClassObject instances.
	Internal any
}

// NewObject creates an object with the given prototype and class tag.
// Extensible defaults to true, as for any freshly created object.
func NewObject(proto *Object, class ClassTag) *Object {
	return &Object{
		Proto:      proto,
		Class:      class,
		Extensible: true,
		props:      make(map[string]*PropertySlot),
	}
}

// GetOwnProperty returns the object's own property slot, ignoring the
// prototype chain.
func (o *Object) GetOwnProperty(name string) (*PropertySlot, bool) {
	slot, ok := o.props[name]
	return slot, ok
}

// GetProperty walks the prototype chain and returns the first matching
// slot (spec §4.1's get semantics for member access).
func (o *Object) GetProperty(name string) (*PropertySlot, bool) {
	for cur := o; cur != nil; cur = cur.Proto {
		if slot, ok := cur.props[name]; ok {
			return slot, true
		}
	}
	return nil, false
}

// OwnKeys returns own property names in insertion order.
func (o *Object) OwnKeys() []string {
	out := make([]string, len(o.keys))
	copy(out, o.keys)
	return out
}

// HasOwnProperty reports whether name is an own property.
func (o *Object) HasOwnProperty(name string) bool {
	_, ok := o.props[name]
	return ok
}

// DefineOwnProperty installs or overwrites an own property slot. It
// enforces the non-extensible-admits-no-new-properties invariant (spec
// §3): adding a name that doesn't already exist on a non-extensible object
// is rejected.
func (o *Object) DefineOwnProperty(name string, slot PropertySlot) error {
	if _, exists := o.props[name]; !exists {
		if !o.Extensible {
			return fmt.Errorf("cannot add property %q to a non-extensible object", name)
		}
		o.keys = append(o.keys, name)
	}
	o.props[name] = &slot
	if o.Class == ClassArray {
		o.fixArrayLength(name)
	}
	return nil
}

// SetProperty writes a value through an existing own slot (respecting
// Writable) or creates a fresh enumerable/configurable/writable slot if
// none exists yet (subject to extensibility).
func (o *Object) SetProperty(name string, v Value) error {
	if slot, ok := o.props[name]; ok {
		if !slot.Writable {
			return nil // silent no-op, matching non-strict JS semantics
		}
		slot.Value = v
		if o.Class == ClassArray {
			o.fixArrayLength(name)
		}
		return nil
	}
	return o.DefineOwnProperty(name, PropertySlot{Value: v, Configurable: true, Enumerable: true, Writable: true})
}

// DeleteProperty removes an own property. Deletion is permitted even on a
// non-extensible object (spec §3: "admits ... deletions but not additions").
func (o *Object) DeleteProperty(name string) {
	if _, ok := o.props[name]; !ok {
		return
	}
	delete(o.props, name)
	for i, k := range o.keys {
		if k == name {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)
			break
		}
	}
}

// SetPrototype rewrites the prototype link, rejecting cycles (spec §3:
// "A prototype chain is acyclic; setting prototype must reject cycles").
func (o *Object) SetPrototype(proto *Object) error {
	for cur := proto; cur != nil; cur = cur.Proto {
		if cur == o {
			return fmt.Errorf("setting prototype would create a cycle")
		}
	}
	o.Proto = proto
	return nil
}

// fixArrayLength maintains the Array length invariant after a numeric-key
// write: length is one greater than the largest present integer index,
// unless explicitly overwritten (spec §3).
func (o *Object) fixArrayLength(writtenKey string) {
	if writtenKey == "length" {
		return
	}
	idx, ok := arrayIndex(writtenKey)
	if !ok {
		return
	}
	lengthSlot, ok := o.props["length"]
	if !ok {
		lengthSlot = &PropertySlot{Value: Number(0), Writable: true}
		o.props["length"] = lengthSlot
		o.keys = append(o.keys, "length")
	}
	cur, _ := lengthSlot.Value.(Number)
	if float64(idx)+1 > float64(cur) {
		lengthSlot.Value = Number(idx + 1)
	}
}

// arrayIndex reports whether key is the canonical decimal string form of a
// non-negative integer (spec §3: "numeric indices are their decimal string
// form").
func arrayIndex(key string) (int64, bool) {
	if key == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(key, 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	if strconv.FormatInt(n, 10) != key {
		return 0, false // rejects "01", "+1", etc.
	}
	return n, true
}

func (o *Object) Type() string { return "object" }

func (o *Object) String() string { return o.DefaultString() }

// DefaultString is the class-tag-driven fallback used by ToPrimitive/
// ToString when an object has no callable toString/valueOf.
func (o *Object) DefaultString() string {
	switch o.Class {
	case ClassFunction:
		return "function () { [native code] }"
	case ClassArray:
		return o.arrayString()
	case ClassError:
		return o.errorString()
	default:
		return "[object " + string(o.Class) + "]"
	}
}

func (o *Object) arrayString() string {
	length := 0
	if slot, ok := o.props["length"]; ok {
		if n, ok := slot.Value.(Number); ok {
			length = int(n)
		}
	}
	out := ""
	for i := 0; i < length; i++ {
		if i > 0 {
			out += ","
		}
		if slot, ok := o.props[strconv.Itoa(i)]; ok {
			if _, isUndef := slot.Value.(Undefined); !isUndef {
				out += ToString(slot.Value).String()
			}
		}
	}
	return out
}

func (o *Object) errorString() string {
	name := "Error"
	if slot, ok := o.GetProperty("name"); ok {
		name = ToString(slot.Value).String()
	}
	message := ""
	if slot, ok := o.GetProperty("message"); ok {
		message = ToString(slot.Value).String()
	}
	if message == "" {
		return name
	}
	return name + ": " + message
}
