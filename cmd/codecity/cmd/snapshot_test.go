package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func resetSnapshotFlags(t *testing.T) {
	t.Helper()
	old := snapshotTicks
	t.Cleanup(func() { snapshotTicks = old })
	snapshotTicks = 1
}

func resetRestoreFlags(t *testing.T) {
	t.Helper()
	old := restoreMaxTicks
	t.Cleanup(func() { restoreMaxTicks = old })
	restoreMaxTicks = 10000
}

func TestTakeSnapshotThenRestoreResumesTheProgram(t *testing.T) {
	resetSnapshotFlags(t)
	resetRestoreFlags(t)

	tempDir := t.TempDir()
	scriptPath := filepath.Join(tempDir, "main.js")
	snapPath := filepath.Join(tempDir, "world.snapshot")
	if err := os.WriteFile(scriptPath, []byte(`var x = 41; print(x + 1);`), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	captureStdout(t, func() {
		if err := takeSnapshot(snapshotCmd, []string{scriptPath, snapPath}); err != nil {
			t.Fatalf("takeSnapshot failed: %v", err)
		}
	})

	if _, err := os.Stat(snapPath); err != nil {
		t.Fatalf("expected a snapshot file: %v", err)
	}

	output := captureStdout(t, func() {
		if err := restoreSnapshot(restoreCmd, []string{scriptPath, snapPath}); err != nil {
			t.Fatalf("restoreSnapshot failed: %v", err)
		}
	})
	_ = output // restoring a quiesced thread need not reprint anything
}

func TestTakeSnapshotRejectsAMissingSourceFile(t *testing.T) {
	resetSnapshotFlags(t)
	tempDir := t.TempDir()
	err := takeSnapshot(snapshotCmd, []string{filepath.Join(tempDir, "nope.js"), filepath.Join(tempDir, "out.snapshot")})
	if err == nil {
		t.Error("expected an error for a missing source file")
	}
}

func TestRestoreSnapshotRejectsAMissingSnapshotFile(t *testing.T) {
	resetRestoreFlags(t)
	tempDir := t.TempDir()
	scriptPath := filepath.Join(tempDir, "main.js")
	if err := os.WriteFile(scriptPath, []byte(`var x = 1;`), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	err := restoreSnapshot(restoreCmd, []string{scriptPath, filepath.Join(tempDir, "missing.snapshot")})
	if err == nil {
		t.Error("expected an error for a missing snapshot file")
	}
	if !strings.Contains(err.Error(), "missing.snapshot") {
		t.Errorf("expected error %q to mention the snapshot path", err)
	}
}
