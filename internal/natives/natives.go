// Package natives implements the native-function table (spec §4.3): a
// registry of host-implemented functions addressed by a stable string ID,
// so snapshots can reference "print" or "Array.prototype.push" without
// encoding any Go closure.
//
// Grounded in the teacher's built-in registration style (internal/interp
// wires built-ins into the global scope at interpreter construction time);
// here the table is a separate addressable registry rather than scope
// entries, since a snapshot must serialize "this is native function X"
// without a scope to walk.
package natives

import (
	"fmt"
	"sort"

	"github.com/cwbudde/codecity/internal/values"
)

// Func is a native function implementation. thisVal is the call's `this`
// binding; args are already-evaluated argument values. Natives that need to
// suspend (I/O, sleep) don't belong here — spec §4.3 restricts the table to
// synchronous, non-suspending operations; anything else is a step-engine
// state kind instead.
type Func func(thisVal values.Value, args []values.Value) (values.Value, error)

// Table is the native-function registry: bidirectional ID<->implementation,
// populated once at startup before any program runs (spec §4.3's
// "registered before execution" invariant).
type Table struct {
	byID map[string]Func
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{byID: make(map[string]Func)}
}

// Register installs fn under id. Re-registering the same id replaces the
// previous implementation, which lets tests and the host override a single
// native without rebuilding the whole table.
func (t *Table) Register(id string, fn Func) {
	t.byID[id] = fn
}

// Lookup resolves id to its implementation.
func (t *Table) Lookup(id string) (Func, bool) {
	fn, ok := t.byID[id]
	return fn, ok
}

// Has reports whether id names a registered native, used by the decoder to
// validate a snapshot's native references before trusting them (spec §4.8).
func (t *Table) Has(id string) bool {
	_, ok := t.byID[id]
	return ok
}

// IDs returns every registered ID, sorted, for deterministic enumeration
// (diagnostics, `codecity inspect`).
func (t *Table) IDs() []string {
	out := make([]string, 0, len(t.byID))
	for id := range t.byID {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Call resolves id and invokes it, returning a descriptive error if id
// isn't registered — this is the path a restored snapshot's function
// objects take when invoked, so a missing native after an upgrade surfaces
// as a catchable error rather than a panic (spec §9 decode-error policy).
func (t *Table) Call(id string, thisVal values.Value, args []values.Value) (values.Value, error) {
	fn, ok := t.byID[id]
	if !ok {
		return nil, fmt.Errorf("natives: unregistered native function %q", id)
	}
	return fn(thisVal, args)
}

// NewNativeFunction creates a ClassFunction pseudo-object whose internal
// slot names id in the native table, suitable for installing into a scope
// or registry entry as a callable value.
func NewNativeFunction(proto *values.Object, id string) *values.Object {
	fn := values.NewObject(proto, values.ClassFunction)
	fn.Internal = &values.FunctionData{NativeID: id}
	return fn
}
