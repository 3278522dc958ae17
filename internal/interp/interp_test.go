package interp

import (
	"testing"

	"github.com/cwbudde/codecity/internal/scheduler"
	"github.com/cwbudde/codecity/internal/values"
)

// spawnAndRun loads source, spawns a single thread, and ticks the world
// until that thread finishes (or fails the test if it never does).
func spawnAndRun(t *testing.T, w *World, source string) *scheduler.ThreadEntry {
	t.Helper()
	if _, err := w.LoadProgram(source); err != nil {
		t.Fatalf("LoadProgram(%q) failed: %v", source, err)
	}
	entry, err := w.Spawn()
	if err != nil {
		t.Fatalf("Spawn failed: %v", err)
	}
	for i := 0; i < 10000 && !entry.Thread.Done; i++ {
		if w.Tick() == 0 {
			break
		}
	}
	if !entry.Thread.Done {
		t.Fatalf("thread did not finish running %q", source)
	}
	if entry.Thread.Err != nil {
		t.Fatalf("thread finished with error running %q: %v", source, entry.Thread.Err)
	}
	return entry
}

// TestArithmeticScenario implements spec §8 end-to-end scenario 1:
// (3+12/4)*(10-3) evaluates to 42.
func TestArithmeticScenario(t *testing.T) {
	w := New()
	entry := spawnAndRun(t, w, `(3+12/4)*(10-3);`)
	if entry.Thread.Result != values.Number(42) {
		t.Errorf("result = %v, want 42", entry.Thread.Result)
	}
}

// TestVariableAssignSnapshotRestore implements spec §8 end-to-end scenario
// 2: snapshot after the first of three top-level statements, restore into a
// fresh world, and confirm the remaining statements still run to the same
// final value.
func TestVariableAssignSnapshotRestore(t *testing.T) {
	source := "var x = 0;\nx = 44;\nx;"

	w := New()
	if _, err := w.LoadProgram(source); err != nil {
		t.Fatalf("LoadProgram failed: %v", err)
	}
	entry, err := w.Spawn()
	if err != nil {
		t.Fatalf("Spawn failed: %v", err)
	}

	// Advance exactly past the first top-level statement (`var x = 0;`).
	for {
		if idx, atBoundary := entry.Thread.TopLevelIndex(); atBoundary && idx == 1 {
			break
		}
		if w.Tick() == 0 {
			t.Fatal("scheduler stalled before reaching the first statement boundary")
		}
	}

	data, err := w.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}

	w2 := New()
	if _, err := w2.LoadProgram(source); err != nil {
		t.Fatalf("second LoadProgram failed: %v", err)
	}
	if err := w2.Restore(data); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}

	restored, ok := w2.Scheduler.Lookup(entry.Thread.ID)
	if !ok {
		t.Fatal("expected the restored world to carry the original thread ID")
	}
	for i := 0; i < 10000 && !restored.Thread.Done; i++ {
		if w2.Tick() == 0 {
			break
		}
	}
	if !restored.Thread.Done {
		t.Fatal("restored thread never finished")
	}
	if restored.Thread.Result != values.Number(44) {
		t.Errorf("final result after restore = %v, want 44", restored.Thread.Result)
	}
}

// TestObjectLiteralShape implements spec §8 end-to-end scenario 3.
func TestObjectLiteralShape(t *testing.T) {
	w := New()
	entry := spawnAndRun(t, w, `({foo: "bar", answer: 42});`)
	obj, ok := entry.Thread.Result.(*values.Object)
	if !ok {
		t.Fatalf("result = %T, want *values.Object", entry.Thread.Result)
	}
	keys := obj.OwnKeys()
	if len(keys) != 2 {
		t.Fatalf("OwnKeys() = %v, want exactly 2 own properties", keys)
	}
	foo, _ := obj.GetOwnProperty("foo")
	if foo.Value != values.String("bar") {
		t.Errorf("foo = %v, want \"bar\"", foo.Value)
	}
	answer, _ := obj.GetOwnProperty("answer")
	if answer.Value != values.Number(42) {
		t.Errorf("answer = %v, want 42", answer.Value)
	}
	if obj.Proto != w.Engine.ObjectProto {
		t.Error("expected the object literal's prototype to be Object.prototype")
	}
}

// TestSnapshotSharingRoundTrip implements spec §8 end-to-end scenario 4:
// two array slots referencing the same pseudo-object must still reference
// the same pseudo-object after a decode into a fresh interpreter.
func TestSnapshotSharingRoundTrip(t *testing.T) {
	source := `var a = {}; var b = [a, a]; b;`

	w := New()
	spawnAndRun(t, w, source)
	data, err := w.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}

	w2 := New()
	if _, err := w2.LoadProgram(source); err != nil {
		t.Fatalf("LoadProgram on the fresh world failed: %v", err)
	}
	if err := w2.Restore(data); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}

	bVal, err := w2.Engine.Global.Get("b")
	if err != nil {
		t.Fatalf("Get(b) after restore failed: %v", err)
	}
	arr, ok := bVal.(*values.Object)
	if !ok || arr.Class != values.ClassArray {
		t.Fatalf("b = %v, want a restored array", bVal)
	}
	slot0, ok0 := arr.GetOwnProperty("0")
	slot1, ok1 := arr.GetOwnProperty("1")
	if !ok0 || !ok1 {
		t.Fatal("expected both b[0] and b[1] to be present after restore")
	}
	if slot0.Value != slot1.Value {
		t.Error("expected b[0] and b[1] to reference the identical restored object")
	}
}

// TestLoadProgramRejectsSyntaxError confirms a parse failure surfaces as an
// error rather than panicking, and leaves no program loaded.
func TestLoadProgramRejectsSyntaxError(t *testing.T) {
	w := New()
	if _, err := w.LoadProgram(`var = ;`); err == nil {
		t.Fatal("expected a syntax error")
	}
}

// TestSpawnWithoutProgramFails confirms Spawn refuses to start a thread
// before any program has been loaded.
func TestSpawnWithoutProgramFails(t *testing.T) {
	w := New()
	if _, err := w.Spawn(); err == nil {
		t.Fatal("expected Spawn to fail with no program loaded")
	}
}

// TestKillDiscardsThreadWithoutRunningFinally exercises the kill-policy
// decision (spec §9): a killed thread's pending finally block never runs.
func TestKillDiscardsThreadWithoutRunningFinally(t *testing.T) {
	w := New()
	if _, err := w.LoadProgram(`
		var ran = false;
		try {
			while (true) {}
		} finally {
			ran = true;
		}
	`); err != nil {
		t.Fatalf("LoadProgram failed: %v", err)
	}
	entry, err := w.Spawn()
	if err != nil {
		t.Fatalf("Spawn failed: %v", err)
	}
	w.Tick()
	w.Kill(entry.Thread.ID)

	if _, ok := w.Scheduler.Lookup(entry.Thread.ID); ok {
		t.Error("expected the killed thread to be gone from the scheduler")
	}
	ran, err := w.Engine.Global.Get("ran")
	if err != nil {
		t.Fatalf("Get(ran) failed: %v", err)
	}
	if ran != values.Boolean(false) {
		t.Errorf("ran = %v, want false (finally must not run on kill)", ran)
	}
}
