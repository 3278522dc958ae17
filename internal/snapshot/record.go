// Package snapshot implements the encoder (spec §4.7) and decoder (spec
// §4.8): turning the live heap, registry, and thread population into an
// ordered JSON record array, and back.
//
// Grounded in the teacher's bytecode VM's frame/value shapes for what a
// "record" captures, reshaped into the spec's numbered-record format: a
// flat JSON array where record 0 carries the format version, the last
// record is a "Meta" record listing the registered roots and the threads,
// and every record in between is an object or scope record numbered in
// the order the encoder first visited it; scalars are written inline
// where they are used (spec §4.7's "stable numbering... shared
// substructure referenced, not duplicated").
package snapshot

import "encoding/json"

// FormatVersion is written into record 0 so the decoder can reject (or, in
// the future, migrate) snapshots from an incompatible encoder (spec §9's
// Open-Question decision: yes, carry a version tag).
const FormatVersion = 1

// Ref is how one record points at another: {"#": n}. A bare ref never
// collides with a real scalar encoding because every special scalar uses
// its own distinct key (spec §4.7).
type Ref struct {
	Index int `json:"#"`
}

// Header is record 0.
type Header struct {
	FormatVersion int      `json:"format_version"`
	Now           int64    `json:"now"`
	Root          *Ref     `json:"root,omitempty"`
	ThreadCount   int      `json:"thread_count"`
	Names         []string `json:"names,omitempty"` // registered heap names, for validation diagnostics only
}

// ObjectRecord is the on-disk shape of one pseudo-object (spec §4.7). Proto
// is nil for the null prototype. Props preserves insertion order via the
// parallel Keys slice — encoding/json maps don't, so key order rides
// alongside rather than inside the map.
type ObjectRecord struct {
	Type       string                  `json:"type"` // "Object", "Array", "Function", "Date", ...
	Class      string                  `json:"class"`
	Proto      *Ref                    `json:"proto,omitempty"`
	Extensible bool                    `json:"extensible"`
	Keys       []string                `json:"keys,omitempty"`
	Props      map[string]PropRecord   `json:"props,omitempty"`
	Internal   json.RawMessage         `json:"internal,omitempty"`
}

// PropRecord mirrors values.PropertySlot, with Value as a raw scalar/ref
// (see scalar.go).
type PropRecord struct {
	Value        json.RawMessage `json:"value"`
	Configurable bool            `json:"configurable"`
	Enumerable   bool            `json:"enumerable"`
	Writable     bool            `json:"writable"`
}

// FunctionInternal is the "internal" payload for Type=="Function" records.
type FunctionInternal struct {
	NativeID string `json:"nativeId,omitempty"`
	// DefOffset is the source byte offset of the function's body, used to
	// relink Body/Params against the freshly (re)parsed program on decode
	// — a snapshot captures runtime state, not source text, so the
	// program must be reloaded from the same source before restoring
	// (spec §4.8's decode preconditions).
	DefOffset int  `json:"defOffset,omitempty"`
	IsArrow   bool `json:"isArrow,omitempty"`
	Scope     *Ref `json:"scope,omitempty"` // captured closure scope record
}

// DateInternal is the "internal" payload for Type=="Date" records.
type DateInternal struct {
	Millis float64 `json:"millis"`
}

// RegExpInternal is the "internal" payload for Type=="RegExp" records.
type RegExpInternal struct {
	Source string `json:"source"`
	Flags  string `json:"flags"`
}

// BoxInternal is the "internal" payload for Type=="Box" records.
type BoxInternal struct {
	Value json.RawMessage `json:"value"`
}

// ScopeRecord captures one link of a function closure's lexical chain
// (spec §4.4) — only the bindings a restored closure needs to resolve free
// variables, not a full re-creation of every scope ever created.
type ScopeRecord struct {
	Type     string                     `json:"type"` // always "Scope"
	Parent   *Ref                       `json:"parent,omitempty"`
	Bindings map[string]json.RawMessage `json:"bindings,omitempty"`
	Writable map[string]bool            `json:"writable,omitempty"`
}

// CollectionInternal is the "internal" payload for Map/Set/WeakMap/WeakSet
// records (spec §4.2). Map/Set always round-trip their full content.
// WeakMap/WeakSet only ever hold entries whose key has already survived
// host GC (WeakMapData/WeakSetData.compact() drops the rest before
// Entries/Values is ever called), so encoding what's left doesn't grant a
// durability guarantee
// membership never had — it's exactly spec §8's weak-semantics invariant:
// an entry that would have been reaped stays absent, and one that
// survives stays present after restore.
type CollectionInternal struct {
	Entries []MapEntryRecord `json:"entries,omitempty"`
	Values  []json.RawMessage `json:"values,omitempty"`
}

// MapEntryRecord is one Map entry.
type MapEntryRecord struct {
	Key   json.RawMessage `json:"key"`
	Value json.RawMessage `json:"value"`
}

// ThreadRecord captures one scheduled thread (spec §4.6, §4.7). Position
// is the index of the next top-level statement to run in the program's
// body — snapshots are only taken (and restorable) at a top-level
// statement boundary; a thread paused mid-expression or mid-nested-call
// cannot be captured exactly, so Encode leaves it out of the thread list
// and the snapshot does not contain it. This is a deliberate simplification
// documented in DESIGN.md, not an oversight: full mid-expression
// continuation serialization would require walking the entire live
// engine.StateNode tree generically, which the engine package does not
// expose.
type ThreadRecord struct {
	ID       uint64          `json:"id"`
	Status   string          `json:"status"` // "runnable", "sleeping", "blocked"
	WakeAt   int64           `json:"wakeAt,omitempty"`
	Position int             `json:"position"`
	Scope    *Ref            `json:"scope"`
	This     json.RawMessage `json:"this"`
}
