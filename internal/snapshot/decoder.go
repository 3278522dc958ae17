package snapshot

import (
	"encoding/json"

	"github.com/cwbudde/codecity/internal/ast"
	"github.com/cwbudde/codecity/internal/errors"
	"github.com/cwbudde/codecity/internal/heap"
	"github.com/cwbudde/codecity/internal/natives"
	"github.com/cwbudde/codecity/internal/scope"
	"github.com/cwbudde/codecity/internal/values"
)

// FuncSite is what a source-defined function needs re-linked from the
// freshly (re)parsed program: its parameter list and body. Decode never
// parses source itself — the caller supplies a resolver over whatever
// program it already loaded (spec §4.8's decode precondition: the same
// source must be loaded before restoring).
type FuncSite struct {
	Params []*ast.Identifier
	Body   *ast.BlockStatement
}

// FuncResolver locates the function literal whose body starts at a given
// source byte offset, the value recorded by the encoder for every
// source-defined (non-native) function (spec §4.7, §4.8).
type FuncResolver func(defOffset int) (FuncSite, bool)

// RestoredThread is everything Decode recovers for one thread, at the
// top-level-statement boundary it was captured at (see ThreadRecord). The
// caller (internal/interp) has the freshly loaded *ast.Program in hand and
// builds the live *engine.Thread with engine.NewThreadAt(id, program,
// Scope, This, Position), then re-enrolls it with internal/scheduler
// according to Status/WakeAt.
type RestoredThread struct {
	ID       uint64
	Status   string // "runnable", "sleeping", "blocked"
	WakeAt   int64
	Position int
	Scope    *scope.Scope
	This     values.Value
}

// Result is everything Decode reconstructs from a record array.
type Result struct {
	Now     int64
	Threads []RestoredThread
}

// Decode rehydrates a record array produced by Encode into a fresh heap
// (h), validating every reference and native-function id along the way.
// Decode is all-or-nothing (spec §7): on any error, h and nt are left
// exactly as they were — every mutation happens against locally-built
// stubs, and nothing is registered into h until the whole array has been
// validated and fully populated.
func Decode(data []byte, h *heap.Heap, nt *natives.Table, resolve FuncResolver) (*Result, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.NewDecodeError(errors.ShapeMismatch, -1, "top-level value is not a JSON array: %v", err)
	}
	if len(raw) < 2 {
		return nil, errors.NewDecodeError(errors.ShapeMismatch, -1, "record array must have at least a header and a meta record")
	}

	var header Header
	if err := json.Unmarshal(raw[0], &header); err != nil {
		return nil, errors.NewDecodeError(errors.ShapeMismatch, 0, "record 0 is not a valid header: %v", err)
	}
	if header.FormatVersion != FormatVersion {
		return nil, errors.NewDecodeError(errors.ShapeMismatch, 0, "unsupported format version %d (want %d)", header.FormatVersion, FormatVersion)
	}

	metaIdx := len(raw) - 1
	var meta struct {
		Type    string          `json:"type"`
		Roots   map[string]*Ref `json:"roots"`
		Threads []ThreadRecord  `json:"threads"`
	}
	if err := json.Unmarshal(raw[metaIdx], &meta); err != nil || meta.Type != "Meta" {
		return nil, errors.NewDecodeError(errors.ShapeMismatch, metaIdx, "last record is not a valid meta record")
	}

	d := &decoder{
		raw:      raw,
		nt:       nt,
		resolve:  resolve,
		objs:     make(map[int]*values.Object),
		scopes:   make(map[int]*scope.Scope),
	}

	// First pass: allocate an empty stub per object/scope record so every
	// forward reference resolves to a real pointer before any property or
	// binding is populated (spec §4.8's two-pass decode).
	for i := 1; i < metaIdx; i++ {
		if err := d.allocateStub(i); err != nil {
			return nil, err
		}
	}

	// Second pass: populate every stub's contents.
	for i := 1; i < metaIdx; i++ {
		if err := d.populate(i); err != nil {
			return nil, err
		}
	}

	// Only now touch the caller's heap: register every root name against
	// its resolved object.
	names := make(map[string]*values.Object, len(meta.Roots))
	for name, ref := range meta.Roots {
		obj, err := d.resolveObjRef(ref, metaIdx)
		if err != nil {
			return nil, err
		}
		names[name] = obj
	}

	threads := make([]RestoredThread, 0, len(meta.Threads))
	for _, tr := range meta.Threads {
		sc, err := d.resolveScopeRef(tr.Scope, metaIdx)
		if err != nil {
			return nil, err
		}
		thisVal, err := d.decodeValue(tr.This, metaIdx)
		if err != nil {
			return nil, err
		}
		threads = append(threads, RestoredThread{
			ID:       tr.ID,
			Status:   tr.Status,
			WakeAt:   tr.WakeAt,
			Position: tr.Position,
			Scope:    sc,
			This:     thisVal,
		})
	}

	for name, obj := range names {
		h.Register(name, obj)
	}

	return &Result{Now: header.Now, Threads: threads}, nil
}

type decoder struct {
	raw     []json.RawMessage
	nt      *natives.Table
	resolve FuncResolver

	objs   map[int]*values.Object
	scopes map[int]*scope.Scope
}

type typeProbe struct {
	Type string `json:"type"`
}

func (d *decoder) allocateStub(i int) error {
	var probe typeProbe
	if err := json.Unmarshal(d.raw[i], &probe); err != nil || probe.Type == "" {
		return errors.NewDecodeError(errors.UnknownType, i, "record has no recognizable type tag")
	}
	if probe.Type == "Scope" {
		d.scopes[i] = scope.New(nil)
		return nil
	}
	d.objs[i] = values.NewObject(nil, values.ClassTag(probe.Type))
	return nil
}

func (d *decoder) populate(i int) error {
	if sc, ok := d.scopes[i]; ok {
		return d.populateScope(i, sc)
	}
	return d.populateObject(i, d.objs[i])
}

func (d *decoder) populateScope(i int, sc *scope.Scope) error {
	var rec ScopeRecord
	if err := json.Unmarshal(d.raw[i], &rec); err != nil {
		return errors.NewDecodeError(errors.ShapeMismatch, i, "malformed scope record: %v", err)
	}
	if rec.Parent != nil {
		parent, err := d.resolveScopeRef(rec.Parent, i)
		if err != nil {
			return err
		}
		sc.Parent = parent
	}
	for name, raw := range rec.Bindings {
		v, err := d.decodeValue(raw, i)
		if err != nil {
			return err
		}
		sc.DeclareSlot(name, v, rec.Writable[name])
	}
	return nil
}

func (d *decoder) populateObject(i int, obj *values.Object) error {
	var rec ObjectRecord
	if err := json.Unmarshal(d.raw[i], &rec); err != nil {
		return errors.NewDecodeError(errors.ShapeMismatch, i, "malformed object record: %v", err)
	}
	if rec.Proto != nil {
		proto, err := d.resolveObjRef(rec.Proto, i)
		if err != nil {
			return err
		}
		if err := obj.SetPrototype(proto); err != nil {
			return errors.NewDecodeError(errors.PrototypeCycle, i, "%v", err)
		}
	}
	for _, key := range rec.Keys {
		slot, ok := rec.Props[key]
		if !ok {
			continue
		}
		v, err := d.decodeValue(slot.Value, i)
		if err != nil {
			return err
		}
		if err := obj.DefineOwnProperty(key, values.PropertySlot{
			Value:        v,
			Configurable: slot.Configurable,
			Enumerable:   slot.Enumerable,
			Writable:     slot.Writable,
		}); err != nil {
			return errors.NewDecodeError(errors.ShapeMismatch, i, "property %q: %v", key, err)
		}
	}
	obj.Extensible = rec.Extensible

	if len(rec.Internal) == 0 {
		return nil
	}
	return d.populateInternal(i, obj, rec)
}

func (d *decoder) populateInternal(i int, obj *values.Object, rec ObjectRecord) error {
	switch obj.Class {
	case values.ClassFunction:
		var fi FunctionInternal
		if err := json.Unmarshal(rec.Internal, &fi); err != nil {
			return errors.NewDecodeError(errors.ShapeMismatch, i, "malformed function internal: %v", err)
		}
		if fi.NativeID != "" {
			if !d.nt.Has(fi.NativeID) {
				return errors.NewDecodeError(errors.MissingNative, i, "native function %q is not registered", fi.NativeID)
			}
			obj.Internal = &values.FunctionData{NativeID: fi.NativeID}
			return nil
		}
		if d.resolve == nil {
			return errors.NewDecodeError(errors.UnknownType, i, "no function resolver supplied for a source-defined function")
		}
		site, ok := d.resolve(fi.DefOffset)
		if !ok {
			return errors.NewDecodeError(errors.UnknownType, i, "no function definition at source offset %d", fi.DefOffset)
		}
		var captured *scope.Scope
		if fi.Scope != nil {
			sc, err := d.resolveScopeRef(fi.Scope, i)
			if err != nil {
				return err
			}
			captured = sc
		}
		obj.Internal = &values.FunctionData{
			Params:   site.Params,
			Body:     site.Body,
			Captured: captured,
			IsArrow:  fi.IsArrow,
		}
	case values.ClassDate:
		var di DateInternal
		if err := json.Unmarshal(rec.Internal, &di); err != nil {
			return errors.NewDecodeError(errors.InvalidDate, i, "malformed date internal: %v", err)
		}
		obj.Internal = &values.DateData{Millis: di.Millis}
	case values.ClassRegExp:
		var ri RegExpInternal
		if err := json.Unmarshal(rec.Internal, &ri); err != nil {
			return errors.NewDecodeError(errors.ShapeMismatch, i, "malformed regexp internal: %v", err)
		}
		obj.Internal = &values.RegExpData{Source: ri.Source, Flags: ri.Flags}
	case values.ClassBox:
		var bi BoxInternal
		if err := json.Unmarshal(rec.Internal, &bi); err != nil {
			return errors.NewDecodeError(errors.ShapeMismatch, i, "malformed box internal: %v", err)
		}
		v, err := d.decodeValue(bi.Value, i)
		if err != nil {
			return err
		}
		obj.Internal = &values.BoxData{Value: v}
	case values.ClassMap:
		var ci CollectionInternal
		if err := json.Unmarshal(rec.Internal, &ci); err != nil {
			return errors.NewDecodeError(errors.ShapeMismatch, i, "malformed map internal: %v", err)
		}
		md := values.NewMapData()
		for _, entry := range ci.Entries {
			k, err := d.decodeValue(entry.Key, i)
			if err != nil {
				return err
			}
			v, err := d.decodeValue(entry.Value, i)
			if err != nil {
				return err
			}
			md.Set(k, v)
		}
		obj.Internal = md
	case values.ClassSet:
		var ci CollectionInternal
		if err := json.Unmarshal(rec.Internal, &ci); err != nil {
			return errors.NewDecodeError(errors.ShapeMismatch, i, "malformed set internal: %v", err)
		}
		sd := values.NewSetData()
		for _, raw := range ci.Values {
			v, err := d.decodeValue(raw, i)
			if err != nil {
				return err
			}
			sd.Add(v)
		}
		obj.Internal = sd
	case values.ClassWeakMap:
		var ci CollectionInternal
		if len(rec.Internal) > 0 {
			if err := json.Unmarshal(rec.Internal, &ci); err != nil {
				return errors.NewDecodeError(errors.ShapeMismatch, i, "malformed weak map internal: %v", err)
			}
		}
		wd := values.NewWeakMapData()
		for _, entry := range ci.Entries {
			k, err := d.decodeValue(entry.Key, i)
			if err != nil {
				return err
			}
			keyObj, ok := k.(*values.Object)
			if !ok {
				return errors.NewDecodeError(errors.ShapeMismatch, i, "weak map key must be an object")
			}
			v, err := d.decodeValue(entry.Value, i)
			if err != nil {
				return err
			}
			wd.Set(keyObj, v)
		}
		obj.Internal = wd
	case values.ClassWeakSet:
		var ci CollectionInternal
		if len(rec.Internal) > 0 {
			if err := json.Unmarshal(rec.Internal, &ci); err != nil {
				return errors.NewDecodeError(errors.ShapeMismatch, i, "malformed weak set internal: %v", err)
			}
		}
		wsd := values.NewWeakSetData()
		for _, raw := range ci.Values {
			v, err := d.decodeValue(raw, i)
			if err != nil {
				return err
			}
			memberObj, ok := v.(*values.Object)
			if !ok {
				return errors.NewDecodeError(errors.ShapeMismatch, i, "weak set member must be an object")
			}
			wsd.Add(memberObj)
		}
		obj.Internal = wsd
	case values.ClassServer:
		obj.Internal = &values.HostResource{Conn: nil} // host must reconnect; spec §5, §4.7 exclude set
	}
	return nil
}

func (d *decoder) decodeValue(raw json.RawMessage, record int) (values.Value, error) {
	if idx, ok := asRef(raw); ok {
		return d.resolveObjRef(&Ref{Index: idx}, record)
	}
	return decodeScalar(raw, record)
}

func (d *decoder) resolveObjRef(ref *Ref, record int) (*values.Object, error) {
	if ref == nil {
		return nil, nil
	}
	obj, ok := d.objs[ref.Index]
	if !ok {
		return nil, errors.NewDecodeError(errors.DanglingReference, record, "reference #%d does not name an object record", ref.Index)
	}
	return obj, nil
}

func (d *decoder) resolveScopeRef(ref *Ref, record int) (*scope.Scope, error) {
	if ref == nil {
		return nil, nil
	}
	sc, ok := d.scopes[ref.Index]
	if !ok {
		return nil, errors.NewDecodeError(errors.DanglingReference, record, "reference #%d does not name a scope record", ref.Index)
	}
	return sc, nil
}
