package snapshot

import (
	"math"
	"testing"

	"github.com/cwbudde/codecity/internal/heap"
	"github.com/cwbudde/codecity/internal/natives"
	"github.com/cwbudde/codecity/internal/scheduler"
	"github.com/cwbudde/codecity/internal/values"
)

// TestScalarRoundTripNumericFidelity implements spec §8's numeric-fidelity
// invariant: every special number survives encodeScalar/decodeScalar
// bit-for-bit.
func TestScalarRoundTripNumericFidelity(t *testing.T) {
	tests := []struct {
		name string
		v    values.Value
	}{
		{"negative zero", values.Number(math.Copysign(0, -1))},
		{"positive infinity", values.Number(math.Inf(1))},
		{"negative infinity", values.Number(math.Inf(-1))},
		{"nan", values.Number(math.NaN())},
		{"ordinary number", values.Number(3.5)},
		{"undefined", values.Undefined{}},
		{"null", values.Null{}},
		{"true", values.Boolean(true)},
		{"string", values.String("hi")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := encodeScalar(tt.v)
			if err != nil {
				t.Fatalf("encodeScalar failed: %v", err)
			}
			got, err := decodeScalar(raw, 0)
			if err != nil {
				t.Fatalf("decodeScalar failed: %v", err)
			}
			if n, ok := tt.v.(values.Number); ok {
				gn, ok := got.(values.Number)
				if !ok {
					t.Fatalf("decoded = %T, want values.Number", got)
				}
				switch {
				case math.IsNaN(float64(n)):
					if !math.IsNaN(float64(gn)) {
						t.Errorf("decoded = %v, want NaN", gn)
					}
				case n.IsNegativeZero():
					if !gn.IsNegativeZero() {
						t.Errorf("decoded = %v, want -0", gn)
					}
				default:
					if gn != n {
						t.Errorf("decoded = %v, want %v", gn, n)
					}
				}
				return
			}
			if got != tt.v {
				t.Errorf("decoded = %v, want %v", got, tt.v)
			}
		})
	}
}

func TestEncodeDecodeHeapWithSharedReference(t *testing.T) {
	h := heap.New()
	shared := values.NewObject(nil, values.ClassObject)
	shared.SetProperty("tag", values.String("shared"))
	h.Register("world.shared", shared)

	container := values.NewObject(nil, values.ClassArray)
	container.SetProperty("0", shared)
	container.SetProperty("1", shared)
	h.Register("world.container", container)

	sch := scheduler.New(nil, 10)
	data, err := Encode(h, sch)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	h2 := heap.New()
	nt := natives.NewTable()
	resolve := func(int) (FuncSite, bool) { return FuncSite{}, false }
	result, err := Decode(data, h2, nt, resolve)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(result.Threads) != 0 {
		t.Errorf("Threads = %v, want none", result.Threads)
	}

	restoredContainer, ok := h2.Resolve("world.container")
	if !ok {
		t.Fatal("expected world.container to be registered after decode")
	}
	slot0, ok0 := restoredContainer.GetOwnProperty("0")
	slot1, ok1 := restoredContainer.GetOwnProperty("1")
	if !ok0 || !ok1 {
		t.Fatal("expected both array slots to be populated")
	}
	if slot0.Value != slot1.Value {
		t.Error("expected both slots to decode to the identical shared object")
	}

	restoredShared, ok := h2.Resolve("world.shared")
	if !ok {
		t.Fatal("expected world.shared to be registered after decode")
	}
	if restoredShared != slot0.Value {
		t.Error("expected the registered name and the array slot to resolve to the same decoded object")
	}
	tag, _ := restoredShared.GetOwnProperty("tag")
	if tag.Value != values.String("shared") {
		t.Errorf("tag = %v, want \"shared\"", tag.Value)
	}
}

// TestEncodeDecodeRoundTripsMapAndSetContent implements spec §8: Map/Set
// entries must survive a full Encode/Decode cycle, not just be present in
// memory.
func TestEncodeDecodeRoundTripsMapAndSetContent(t *testing.T) {
	h := heap.New()

	m := values.NewObject(nil, values.ClassMap)
	md := values.NewMapData()
	md.Set(values.String("a"), values.Number(1))
	md.Set(values.String("b"), values.Number(2))
	m.Internal = md
	h.Register("world.m", m)

	s := values.NewObject(nil, values.ClassSet)
	sd := values.NewSetData()
	sd.Add(values.Number(1))
	sd.Add(values.Number(2))
	s.Internal = sd
	h.Register("world.s", s)

	sch := scheduler.New(nil, 10)
	data, err := Encode(h, sch)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	h2 := heap.New()
	nt := natives.NewTable()
	resolve := func(int) (FuncSite, bool) { return FuncSite{}, false }
	if _, err := Decode(data, h2, nt, resolve); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	restoredMap, ok := h2.Resolve("world.m")
	if !ok {
		t.Fatal("expected world.m to be registered after decode")
	}
	restoredMD, ok := restoredMap.Internal.(*values.MapData)
	if !ok {
		t.Fatalf("restored map Internal = %T, want *values.MapData", restoredMap.Internal)
	}
	if v, ok := restoredMD.Get(values.String("a")); !ok || v != values.Number(1) {
		t.Errorf("restored map[a] = %v, %v, want 1, true", v, ok)
	}
	if restoredMD.Size() != 2 {
		t.Errorf("restored map size = %d, want 2", restoredMD.Size())
	}

	restoredSet, ok := h2.Resolve("world.s")
	if !ok {
		t.Fatal("expected world.s to be registered after decode")
	}
	restoredSD, ok := restoredSet.Internal.(*values.SetData)
	if !ok {
		t.Fatalf("restored set Internal = %T, want *values.SetData", restoredSet.Internal)
	}
	if !restoredSD.Has(values.Number(1)) || !restoredSD.Has(values.Number(2)) {
		t.Errorf("restored set = %v, want {1, 2}", restoredSD.Values())
	}
}

// TestEncodeDecodeRoundTripsWeakMapAndWeakSetLiveEntries implements spec
// §8's weak-semantics invariant: entries whose key is still reachable
// survive a snapshot round trip, since WeakMapData/WeakSetData.compact()
// only ever drops entries whose key has already been collected —
// previously the encoder discarded every entry unconditionally and the
// decoder always restored an empty container, which this guards against.
func TestEncodeDecodeRoundTripsWeakMapAndWeakSetLiveEntries(t *testing.T) {
	h := heap.New()

	key := values.NewObject(nil, values.ClassObject)
	h.Register("world.key", key) // kept reachable via the registry, so it survives

	wm := values.NewObject(nil, values.ClassWeakMap)
	wd := values.NewWeakMapData()
	wd.Set(key, values.String("payload"))
	wm.Internal = wd
	h.Register("world.wm", wm)

	ws := values.NewObject(nil, values.ClassWeakSet)
	wsd := values.NewWeakSetData()
	wsd.Add(key)
	ws.Internal = wsd
	h.Register("world.ws", ws)

	sch := scheduler.New(nil, 10)
	data, err := Encode(h, sch)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	h2 := heap.New()
	nt := natives.NewTable()
	resolve := func(int) (FuncSite, bool) { return FuncSite{}, false }
	if _, err := Decode(data, h2, nt, resolve); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	restoredKey, ok := h2.Resolve("world.key")
	if !ok {
		t.Fatal("expected world.key to be registered after decode")
	}

	restoredWM, ok := h2.Resolve("world.wm")
	if !ok {
		t.Fatal("expected world.wm to be registered after decode")
	}
	restoredWD, ok := restoredWM.Internal.(*values.WeakMapData)
	if !ok {
		t.Fatalf("restored weak map Internal = %T, want *values.WeakMapData", restoredWM.Internal)
	}
	if v, ok := restoredWD.Get(restoredKey); !ok || v != values.String("payload") {
		t.Errorf("restored weak map entry = %v, %v, want \"payload\", true", v, ok)
	}

	restoredWS, ok := h2.Resolve("world.ws")
	if !ok {
		t.Fatal("expected world.ws to be registered after decode")
	}
	restoredWSD, ok := restoredWS.Internal.(*values.WeakSetData)
	if !ok {
		t.Fatalf("restored weak set Internal = %T, want *values.WeakSetData", restoredWS.Internal)
	}
	if !restoredWSD.Has(restoredKey) {
		t.Error("expected the restored weak set to still contain the surviving key")
	}
}

func TestDecodeRejectsUnknownNativeID(t *testing.T) {
	h := heap.New()
	fn := natives.NewNativeFunction(nil, "does.not.exist")
	h.Register("world.fn", fn)

	sch := scheduler.New(nil, 10)
	data, err := Encode(h, sch)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	h2 := heap.New()
	nt := natives.NewTable() // deliberately empty: "does.not.exist" is unregistered
	resolve := func(int) (FuncSite, bool) { return FuncSite{}, false }
	if _, err := Decode(data, h2, nt, resolve); err == nil {
		t.Fatal("expected Decode to reject a snapshot referencing an unregistered native id")
	}
}

func TestDecodeRejectsDanglingReference(t *testing.T) {
	h2 := heap.New()
	nt := natives.NewTable()
	resolve := func(int) (FuncSite, bool) { return FuncSite{}, false }

	malformed := []byte(`[
		{"format_version":1,"now":0,"thread_count":0},
		{"type":"Object","class":"Object","extensible":true,"keys":["x"],"props":{"x":{"value":{"#":99},"configurable":true,"enumerable":true,"writable":true}}},
		{"type":"Meta","roots":{"x":{"#":1}},"threads":[]}
	]`)
	if _, err := Decode(malformed, h2, nt, resolve); err == nil {
		t.Fatal("expected Decode to reject a dangling reference index")
	}
}
