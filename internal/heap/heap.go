// Package heap implements the pseudo-heap and name registry (spec §4.2):
// handle-addressed object storage plus a deterministic, bidirectional
// name-to-object registry used by host-exposed globals ("the world").
//
// Grounded in the teacher's environment/symbol-table bookkeeping style
// (internal/interp's scope chain keeps a flat name->value map per frame);
// here the registry is global rather than lexical, since spec §4.2 wants
// named heap entries reachable by dotted path independent of any scope.
package heap

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cwbudde/codecity/internal/values"
	"github.com/tidwall/gjson"
)

// Handle is the stable numeric identity Track assigns to a heap-resident
// object. Snapshot record numbers are not handles: the encoder numbers
// records in the order it visits them.
type Handle uint64

// Heap owns every tracked pseudo-object and the registry of host-assigned
// names. Its handle maps hold a strong reference to every object passed to
// Track or Register, and nothing removes an object from them, so a tracked
// object stays alive as long as the Heap does, whether or not anything else
// still reaches it.
type Heap struct {
	nextHandle Handle
	byHandle   map[Handle]*values.Object
	byObject   map[*values.Object]Handle

	// names is the registry: dotted path -> object, e.g. "world.rooms.den".
	// Paths are independent of JS property access; they're how the host
	// ("the world" process) looks up a pseudo-object without evaluating
	// code (spec §4.2, §4.9).
	names    map[string]*values.Object
	reverse  map[*values.Object]string
}

// New creates an empty heap.
func New() *Heap {
	return &Heap{
		byHandle: make(map[Handle]*values.Object),
		byObject: make(map[*values.Object]Handle),
		names:    make(map[string]*values.Object),
		reverse:  make(map[*values.Object]string),
	}
}

// Track assigns a fresh handle to obj if it doesn't already have one, and
// returns its handle either way. Called whenever the engine allocates a new
// pseudo-object (object/array/function literal, new Date(), etc.).
func (h *Heap) Track(obj *values.Object) Handle {
	if hd, ok := h.byObject[obj]; ok {
		return hd
	}
	h.nextHandle++
	hd := h.nextHandle
	h.byHandle[hd] = obj
	h.byObject[obj] = hd
	return hd
}

// Lookup resolves a handle back to its object.
func (h *Heap) Lookup(hd Handle) (*values.Object, bool) {
	obj, ok := h.byHandle[hd]
	return obj, ok
}

// HandleOf returns the handle already assigned to obj, if any.
func (h *Heap) HandleOf(obj *values.Object) (Handle, bool) {
	hd, ok := h.byObject[obj]
	return hd, ok
}

// Register binds a dotted path name to obj, replacing any previous
// occupant of that name. Registering also Tracks obj if it wasn't already.
func (h *Heap) Register(name string, obj *values.Object) {
	if old, ok := h.names[name]; ok {
		delete(h.reverse, old)
	}
	h.names[name] = obj
	h.reverse[obj] = name
	h.Track(obj)
}

// Unregister removes a name from the registry without touching the object
// itself; the object may still be reachable through other paths or scopes.
func (h *Heap) Unregister(name string) {
	if obj, ok := h.names[name]; ok {
		delete(h.names, name)
		delete(h.reverse, obj)
	}
}

// Resolve looks up a registered name, exactly.
func (h *Heap) Resolve(name string) (*values.Object, bool) {
	obj, ok := h.names[name]
	return obj, ok
}

// NameOf returns the canonical registered name for obj, if it has one. An
// object can only ever have one registered name at a time (re-registering
// under a new name evicts the old one), matching spec §4.2's "bidirectional"
// requirement.
func (h *Heap) NameOf(obj *values.Object) (string, bool) {
	name, ok := h.reverse[obj]
	return name, ok
}

// Names returns every registered path name, sorted, for deterministic
// enumeration (e.g. `codecity inspect`).
func (h *Heap) Names() []string {
	out := make([]string, 0, len(h.names))
	for name := range h.names {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Query returns the registered names matching pattern, in sorted order. A
// pattern without '*' or '?' is an exact lookup ("world.rooms.den" selects
// the same name Resolve finds); otherwise each '*' segment matches exactly
// one dot-separated segment of a name ("world.rooms.*"), and every other
// segment, '?' included, must match literally (see matchGlob).
func (h *Heap) Query(pattern string) []string {
	if !strings.ContainsAny(pattern, "*?") {
		if _, ok := h.names[pattern]; ok {
			return []string{pattern}
		}
		return nil
	}
	doc := h.asJSONSkeleton()
	var out []string
	for _, name := range h.Names() {
		if gjson.Get(doc, toGJSONPath(name)).Exists() && matchGlob(pattern, name) {
			out = append(out, name)
		}
	}
	return out
}

// asJSONSkeleton renders the registry's name set as a nested JSON object of
// booleans, purely so gjson's path syntax has something to walk for Query.
func (h *Heap) asJSONSkeleton() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, name := range h.Names() {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%q:true", name)
	}
	b.WriteByte('}')
	return b.String()
}

// toGJSONPath escapes a registry name's literal dots so gjson treats the
// whole name as a single flat key instead of a nested path — asJSONSkeleton
// builds one literal dotted key per name (e.g. "world.rooms.den":true), not
// a nested object, so an unescaped "." would make gjson look for
// doc["world"]["rooms"]["den"] and never find it.
func toGJSONPath(name string) string {
	return strings.ReplaceAll(name, ".", "\\.")
}

func matchGlob(pattern, name string) bool {
	// '*' matches one path segment; this is deliberately simpler than full
	// glob semantics since registry paths are dot-separated identifiers.
	pParts := strings.Split(pattern, ".")
	nParts := strings.Split(name, ".")
	if len(pParts) != len(nParts) {
		return false
	}
	for i, p := range pParts {
		if p == "*" {
			continue
		}
		if p != nParts[i] {
			return false
		}
	}
	return true
}

// Count returns the number of live tracked objects, for diagnostics.
func (h *Heap) Count() int { return len(h.byHandle) }
