package values

import (
	"fmt"
	"weak"
)

// mapKey produces a comparable key for a Value, used by MapData/SetData
// and the strong half of the weak-container bookkeeping. Objects key by
// pointer identity; primitives key by their canonical string form plus a
// type tag so "1" (string) and 1 (number) don't collide.
func mapKey(v Value) string {
	switch x := v.(type) {
	case *Object:
		return fmt.Sprintf("obj:%p", x)
	case Undefined:
		return "undef:"
	case Null:
		return "null:"
	case Boolean:
		return fmt.Sprintf("bool:%v", bool(x))
	case Number:
		return fmt.Sprintf("num:%x", float64(x)) // %x distinguishes -0/0/NaN bit patterns
	case String:
		return "str:" + string(x)
	default:
		return fmt.Sprintf("?:%v", x)
	}
}

// MapEntry is one key/value pair of a strong Map, in insertion order.
type MapEntry struct {
	Key   Value
	Value Value
}

// MapData is the internal slot of a ClassMap object: an ordered,
// strongly-referencing associative collection.
type MapData struct {
	order []string
	byKey map[string]*MapEntry
}

func NewMapData() *MapData {
	return &MapData{byKey: make(map[string]*MapEntry)}
}

func (m *MapData) Set(key, value Value) {
	k := mapKey(key)
	if e, ok := m.byKey[k]; ok {
		e.Value = value
		return
	}
	e := &MapEntry{Key: key, Value: value}
	m.byKey[k] = e
	m.order = append(m.order, k)
}

func (m *MapData) Get(key Value) (Value, bool) {
	e, ok := m.byKey[mapKey(key)]
	if !ok {
		return nil, false
	}
	return e.Value, true
}

func (m *MapData) Has(key Value) bool {
	_, ok := m.byKey[mapKey(key)]
	return ok
}

func (m *MapData) Delete(key Value) bool {
	k := mapKey(key)
	if _, ok := m.byKey[k]; !ok {
		return false
	}
	delete(m.byKey, k)
	for i, o := range m.order {
		if o == k {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return true
}

func (m *MapData) Size() int { return len(m.order) }

// Entries returns entries in insertion order.
func (m *MapData) Entries() []*MapEntry {
	out := make([]*MapEntry, 0, len(m.order))
	for _, k := range m.order {
		out = append(out, m.byKey[k])
	}
	return out
}

// SetData is the internal slot of a ClassSet object: an ordered, strongly
// referencing collection of distinct values.
type SetData struct {
	order []string
	byKey map[string]Value
}

func NewSetData() *SetData {
	return &SetData{byKey: make(map[string]Value)}
}

func (s *SetData) Add(v Value) {
	k := mapKey(v)
	if _, ok := s.byKey[k]; ok {
		return
	}
	s.byKey[k] = v
	s.order = append(s.order, k)
}

func (s *SetData) Has(v Value) bool {
	_, ok := s.byKey[mapKey(v)]
	return ok
}

func (s *SetData) Delete(v Value) bool {
	k := mapKey(v)
	if _, ok := s.byKey[k]; !ok {
		return false
	}
	delete(s.byKey, k)
	for i, o := range s.order {
		if o == k {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

func (s *SetData) Size() int { return len(s.order) }

func (s *SetData) Values() []Value {
	out := make([]Value, 0, len(s.order))
	for _, k := range s.order {
		out = append(out, s.byKey[k])
	}
	return out
}

// weakEntry pairs a weakly-held object key with its strongly-held value.
// Built on the stdlib `weak` package (Go 1.24): weak.Pointer[Object] does
// not extend the key's lifetime, matching spec §4.2's "must not extend
// object lifetime" invariant directly, with no finalizer bookkeeping of
// our own to get wrong.
type weakEntry struct {
	key   weak.Pointer[Object]
	value Value
}

// WeakMapData is the internal slot of a ClassWeakMap object.
type WeakMapData struct {
	order []*weakEntry
}

func NewWeakMapData() *WeakMapData { return &WeakMapData{} }

func (w *WeakMapData) Set(key *Object, value Value) {
	wp := weak.Make(key)
	for _, e := range w.order {
		if e.key == wp {
			e.value = value
			return
		}
	}
	w.order = append(w.order, &weakEntry{key: wp, value: value})
}

func (w *WeakMapData) Get(key *Object) (Value, bool) {
	wp := weak.Make(key)
	for _, e := range w.order {
		if e.key == wp {
			return e.value, true
		}
	}
	return nil, false
}

func (w *WeakMapData) Has(key *Object) bool {
	_, ok := w.Get(key)
	return ok
}

func (w *WeakMapData) Delete(key *Object) bool {
	wp := weak.Make(key)
	for i, e := range w.order {
		if e.key == wp {
			w.order = append(w.order[:i], w.order[i+1:]...)
			return true
		}
	}
	return false
}

// compact drops entries whose key has been collected. Size and Entries
// call it, so cleanup happens when iteration or size observes a dead key,
// without a background sweep; Has, Get, Set and Delete do not call it.
func (w *WeakMapData) compact() {
	live := w.order[:0]
	for _, e := range w.order {
		if e.key.Value() != nil {
			live = append(live, e)
		}
	}
	w.order = live
}

// Size returns the count of currently live entries.
func (w *WeakMapData) Size() int {
	w.compact()
	return len(w.order)
}

// Entries returns the currently live entries in insertion order.
func (w *WeakMapData) Entries() []struct {
	Key   *Object
	Value Value
} {
	w.compact()
	out := make([]struct {
		Key   *Object
		Value Value
	}, 0, len(w.order))
	for _, e := range w.order {
		if k := e.key.Value(); k != nil {
			out = append(out, struct {
				Key   *Object
				Value Value
			}{Key: k, Value: e.value})
		}
	}
	return out
}

// WeakSetData is the internal slot of a ClassWeakSet object.
type WeakSetData struct {
	order []weak.Pointer[Object]
}

func NewWeakSetData() *WeakSetData { return &WeakSetData{} }

func (w *WeakSetData) Add(v *Object) {
	wp := weak.Make(v)
	for _, e := range w.order {
		if e == wp {
			return
		}
	}
	w.order = append(w.order, wp)
}

func (w *WeakSetData) Has(v *Object) bool {
	wp := weak.Make(v)
	for _, e := range w.order {
		if e == wp {
			return true
		}
	}
	return false
}

func (w *WeakSetData) Delete(v *Object) bool {
	wp := weak.Make(v)
	for i, e := range w.order {
		if e == wp {
			w.order = append(w.order[:i], w.order[i+1:]...)
			return true
		}
	}
	return false
}

func (w *WeakSetData) compact() {
	live := w.order[:0]
	for _, e := range w.order {
		if e.Value() != nil {
			live = append(live, e)
		}
	}
	w.order = live
}

func (w *WeakSetData) Size() int {
	w.compact()
	return len(w.order)
}

func (w *WeakSetData) Values() []*Object {
	w.compact()
	out := make([]*Object, 0, len(w.order))
	for _, e := range w.order {
		if v := e.Value(); v != nil {
			out = append(out, v)
		}
	}
	return out
}
