package snapshot

import (
	"encoding/json"
	"sort"

	"github.com/cwbudde/codecity/internal/heap"
	"github.com/cwbudde/codecity/internal/scheduler"
	"github.com/cwbudde/codecity/internal/scope"
	"github.com/cwbudde/codecity/internal/values"
)

// Encoder walks the reachable object/scope graph from a fixed set of roots
// and serializes it to the numbered-record array format (spec §4.7).
// Every object and scope is visited at most once; a second visit just
// reuses the index already assigned ("shared substructure referenced, not
// duplicated").
type Encoder struct {
	heap *heap.Heap

	index    map[any]int // *values.Object or *scope.Scope -> record index
	queue    []any
	records  []json.RawMessage
}

// NewEncoder creates an encoder over the given heap (used to resolve
// registered names and handles into stable roots).
func NewEncoder(h *heap.Heap) *Encoder {
	return &Encoder{heap: h, index: make(map[any]int)}
}

// Encode walks every registered heap name and every scheduled thread,
// producing the record array. now is the scheduler's logical clock value,
// stamped into record 0 so a restored scheduler resumes with sleeping
// threads at the right relative offsets (spec §4.6).
func (e *Encoder) Encode(now int64, threads []*scheduler.ThreadEntry) ([]byte, error) {
	// Reserve record 0 for the header; everything else starts at index 1.
	e.records = append(e.records, nil)

	names := e.heap.Names()
	rootRefs := make(map[string]*Ref, len(names))
	for _, name := range names {
		obj, _ := e.heap.Resolve(name)
		rootRefs[name] = e.refTo(obj)
	}

	threadRecords := make([]ThreadRecord, 0, len(threads))
	for _, te := range threads {
		tr, ok := e.encodeThread(te)
		if !ok {
			continue // not at a capturable boundary; dropped with no error, spec §9 kill-policy sibling decision
		}
		threadRecords = append(threadRecords, tr)
	}

	e.drain()

	header := Header{
		FormatVersion: FormatVersion,
		Now:           now,
		ThreadCount:   len(threadRecords),
		Names:         names,
	}
	headerRaw, err := json.Marshal(header)
	if err != nil {
		return nil, err
	}
	e.records[0] = headerRaw

	rootsObj := make(map[string]*Ref, len(rootRefs))
	for k, v := range rootRefs {
		rootsObj[k] = v
	}
	rootsRaw, err := json.Marshal(struct {
		Type    string           `json:"type"`
		Roots   map[string]*Ref  `json:"roots"`
		Threads []ThreadRecord   `json:"threads"`
	}{Type: "Meta", Roots: rootsObj, Threads: threadRecords})
	if err != nil {
		return nil, err
	}
	e.records = append(e.records, rootsRaw)

	return json.Marshal(e.records)
}

// encodeThread captures one thread at its top-level statement boundary. A
// thread mid-call or mid-expression can't be captured exactly (see
// ThreadRecord's doc comment) and is skipped.
func (e *Encoder) encodeThread(te *scheduler.ThreadEntry) (ThreadRecord, bool) {
	th := te.Thread
	idx, ok := th.TopLevelIndex()
	if !ok {
		return ThreadRecord{}, false
	}
	thisRaw, err := e.encodeValue(th.This())
	if err != nil {
		return ThreadRecord{}, false
	}
	status := "runnable"
	switch te.Status {
	case scheduler.Sleeping:
		status = "sleeping"
	case scheduler.Blocked:
		status = "blocked" // BlockedOn is a host-owned identity, excluded per spec §4.7
	}
	return ThreadRecord{
		ID:       th.ID,
		Status:   status,
		WakeAt:   te.WakeAt,
		Position: idx,
		Scope:    e.refToScope(th.Scope()),
		This:     thisRaw,
	}, true
}

// refTo assigns (or reuses) an index for obj and enqueues it for expansion,
// returning a ref to that index. A nil object encodes as a nil ref, which
// marshals to JSON null downstream.
func (e *Encoder) refTo(obj *values.Object) *Ref {
	if obj == nil {
		return nil
	}
	if i, ok := e.index[obj]; ok {
		return &Ref{Index: i}
	}
	i := len(e.records)
	e.records = append(e.records, nil) // reserve the slot
	e.index[obj] = i
	e.queue = append(e.queue, obj)
	return &Ref{Index: i}
}

func (e *Encoder) refToScope(sc *scope.Scope) *Ref {
	if sc == nil {
		return nil
	}
	if i, ok := e.index[sc]; ok {
		return &Ref{Index: i}
	}
	i := len(e.records)
	e.records = append(e.records, nil)
	e.index[sc] = i
	e.queue = append(e.queue, sc)
	return &Ref{Index: i}
}

// drain processes the worklist until empty, filling in every reserved slot.
func (e *Encoder) drain() {
	for len(e.queue) > 0 {
		item := e.queue[0]
		e.queue = e.queue[1:]
		switch x := item.(type) {
		case *values.Object:
			e.records[e.index[x]], _ = e.encodeObject(x)
		case *scope.Scope:
			e.records[e.index[x]], _ = e.encodeScope(x)
		}
	}
}

// encodeValue renders any runtime value as a record payload: a scalar for
// primitives, a {"#":n} ref for objects (enqueuing it for expansion if not
// already visited).
func (e *Encoder) encodeValue(v values.Value) (json.RawMessage, error) {
	if obj, ok := v.(*values.Object); ok {
		return json.Marshal(e.refTo(obj))
	}
	return encodeScalar(v)
}

func (e *Encoder) encodeObject(obj *values.Object) (json.RawMessage, error) {
	keys := obj.OwnKeys() // insertion order, matching the spec's enumeration invariant

	props := make(map[string]PropRecord, len(keys))
	for _, k := range keys {
		slot, _ := obj.GetOwnProperty(k)
		raw, err := e.encodeValue(slot.Value)
		if err != nil {
			return nil, err
		}
		props[k] = PropRecord{
			Value:        raw,
			Configurable: slot.Configurable,
			Enumerable:   slot.Enumerable,
			Writable:     slot.Writable,
		}
	}

	rec := ObjectRecord{
		Type:       string(obj.Class),
		Class:      string(obj.Class),
		Proto:      e.refTo(obj.Proto),
		Extensible: obj.Extensible,
		Keys:       keys,
		Props:      props,
	}

	internal, err := e.encodeInternal(obj)
	if err != nil {
		return nil, err
	}
	rec.Internal = internal

	return json.Marshal(rec)
}

func (e *Encoder) encodeInternal(obj *values.Object) (json.RawMessage, error) {
	switch data := obj.Internal.(type) {
	case *values.FunctionData:
		fi := FunctionInternal{NativeID: data.NativeID, IsArrow: data.IsArrow}
		if data.NativeID == "" && data.Body != nil {
			fi.DefOffset = data.Body.Pos().Offset
			if sc, ok := data.Captured.(*scope.Scope); ok {
				fi.Scope = e.refToScope(sc)
			}
		}
		return json.Marshal(fi)
	case *values.DateData:
		return json.Marshal(DateInternal{Millis: data.Millis})
	case *values.RegExpData:
		return json.Marshal(RegExpInternal{Source: data.Source, Flags: data.Flags})
	case *values.BoxData:
		raw, err := e.encodeValue(data.Value)
		if err != nil {
			return nil, err
		}
		return json.Marshal(BoxInternal{Value: raw})
	case *values.MapData:
		entries := make([]MapEntryRecord, 0, data.Size())
		for _, me := range data.Entries() {
			kRaw, err := e.encodeValue(me.Key)
			if err != nil {
				return nil, err
			}
			vRaw, err := e.encodeValue(me.Value)
			if err != nil {
				return nil, err
			}
			entries = append(entries, MapEntryRecord{Key: kRaw, Value: vRaw})
		}
		return json.Marshal(CollectionInternal{Entries: entries})
	case *values.SetData:
		vals := make([]json.RawMessage, 0, data.Size())
		for _, v := range data.Values() {
			raw, err := e.encodeValue(v)
			if err != nil {
				return nil, err
			}
			vals = append(vals, raw)
		}
		return json.Marshal(CollectionInternal{Values: vals})
	case *values.WeakMapData:
		entries := data.Entries() // already compacted: dead keys are gone
		recs := make([]MapEntryRecord, 0, len(entries))
		for _, entry := range entries {
			kRaw, err := e.encodeValue(entry.Key)
			if err != nil {
				return nil, err
			}
			vRaw, err := e.encodeValue(entry.Value)
			if err != nil {
				return nil, err
			}
			recs = append(recs, MapEntryRecord{Key: kRaw, Value: vRaw})
		}
		return json.Marshal(CollectionInternal{Entries: recs})
	case *values.WeakSetData:
		vals := data.Values() // already compacted
		out := make([]json.RawMessage, 0, len(vals))
		for _, v := range vals {
			raw, err := e.encodeValue(v)
			if err != nil {
				return nil, err
			}
			out = append(out, raw)
		}
		return json.Marshal(CollectionInternal{Values: out})
	case *values.HostResource, nil:
		// Host resources have no serializable representation at all (spec
		// §5, §4.7's exclude-set) — the host must reconnect after restore.
		return nil, nil
	default:
		return nil, nil
	}
}

func (e *Encoder) encodeScope(sc *scope.Scope) (json.RawMessage, error) {
	names := sc.OwnNames()
	sort.Strings(names)
	bindings := make(map[string]json.RawMessage, len(names))
	writable := make(map[string]bool, len(names))
	for _, name := range names {
		v, w, _ := sc.OwnGet(name)
		raw, err := e.encodeValue(v)
		if err != nil {
			return nil, err
		}
		bindings[name] = raw
		writable[name] = w
	}
	rec := ScopeRecord{
		Type:     "Scope",
		Parent:   e.refToScope(sc.Parent),
		Bindings: bindings,
		Writable: writable,
	}
	return json.Marshal(rec)
}

// Encode is the package-level convenience entry point most callers use: it
// wraps NewEncoder for a one-shot encode of a heap/scheduler pair.
func Encode(h *heap.Heap, sch *scheduler.Scheduler) ([]byte, error) {
	return NewEncoder(h).Encode(sch.Now(), sch.Entries())
}
