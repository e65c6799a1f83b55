package checkpoint

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	errs "subharvest/pkg/errors"
	"subharvest/pkg/kilonova"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	dir := t.TempDir()
	return NewManager(filepath.Join(dir, "data_dump.json"), filepath.Join(dir, "checkpoint.txt"))
}

func testDump(ids ...int) *kilonova.Dump {
	dump := kilonova.NewDump()
	for _, id := range ids {
		dump.Submissions = append(dump.Submissions, kilonova.Submission{
			ID:        id,
			CreatedAt: "2024-03-01T10:00:00Z",
			UserID:    1,
			ProblemID: 1,
			Status:    "finished",
		})
	}
	dump.Users["1"] = kilonova.User{ID: 1, Name: "alice", DisplayName: "Alice"}
	dump.Problems["1"] = kilonova.Problem{ID: 1, Name: "sum", TimeLimit: 0.1, MemoryLimit: 65536}
	return dump
}

func TestLoadOffsetFreshStart(t *testing.T) {
	mgr := newTestManager(t)

	offset, err := mgr.LoadOffset()
	if err != nil {
		t.Fatalf("LoadOffset on fresh state failed: %v", err)
	}
	if offset != 0 {
		t.Errorf("Expected offset 0 for fresh start, got %d", offset)
	}
	if mgr.Exists() {
		t.Error("Expected no marker file on fresh start")
	}
}

func TestSaveAndLoadOffset(t *testing.T) {
	mgr := newTestManager(t)
	dump := testDump(3, 2, 1)

	if err := mgr.Save(150, dump); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	offset, err := mgr.LoadOffset()
	if err != nil {
		t.Fatalf("LoadOffset failed: %v", err)
	}
	if offset != 150 {
		t.Errorf("Expected offset 150, got %d", offset)
	}
}

func TestOffsetRoundTripMonotonic(t *testing.T) {
	mgr := newTestManager(t)
	dump := testDump(1)

	// A load immediately following save(o) must return exactly o, for every o
	for _, offset := range []int{50, 100, 150, 200} {
		if err := mgr.Save(offset, dump); err != nil {
			t.Fatalf("Save(%d) failed: %v", offset, err)
		}
		loaded, err := mgr.LoadOffset()
		if err != nil {
			t.Fatalf("LoadOffset after Save(%d) failed: %v", offset, err)
		}
		if loaded != offset {
			t.Errorf("Expected offset %d, got %d", offset, loaded)
		}
	}
}

func TestSaveAndLoadDump(t *testing.T) {
	mgr := newTestManager(t)
	dump := testDump(5, 4, 3)

	if err := mgr.Save(50, dump); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := mgr.LoadDump()
	if err != nil {
		t.Fatalf("LoadDump failed: %v", err)
	}

	if loaded.Count() != 3 {
		t.Errorf("Expected 3 submissions, got %d", loaded.Count())
	}
	for i, want := range []int{5, 4, 3} {
		if loaded.Submissions[i].ID != want {
			t.Errorf("Submission %d: expected id %d, got %d", i, want, loaded.Submissions[i].ID)
		}
	}
	if loaded.Users["1"].Name != "alice" {
		t.Errorf("Expected user alice, got %q", loaded.Users["1"].Name)
	}
	if loaded.Problems["1"].MemoryLimit != 65536 {
		t.Errorf("Expected problem memory limit 65536, got %d", loaded.Problems["1"].MemoryLimit)
	}
}

func TestSaveOverwritesPreviousCheckpoint(t *testing.T) {
	mgr := newTestManager(t)

	if err := mgr.Save(50, testDump(1)); err != nil {
		t.Fatalf("First save failed: %v", err)
	}
	if err := mgr.Save(100, testDump(2, 1)); err != nil {
		t.Fatalf("Second save failed: %v", err)
	}

	offset, err := mgr.LoadOffset()
	if err != nil {
		t.Fatalf("LoadOffset failed: %v", err)
	}
	if offset != 100 {
		t.Errorf("Expected offset 100, got %d", offset)
	}

	loaded, err := mgr.LoadDump()
	if err != nil {
		t.Fatalf("LoadDump failed: %v", err)
	}
	if loaded.Count() != 2 {
		t.Errorf("Expected 2 submissions after overwrite, got %d", loaded.Count())
	}

	// The atomic replace must not leave a temp file behind
	if _, err := os.Stat(mgr.DataPath() + ".tmp"); !os.IsNotExist(err) {
		t.Error("Expected temp file to be cleaned up after save")
	}
}

func TestLoadOffsetInvalidMarker(t *testing.T) {
	mgr := newTestManager(t)

	if err := os.WriteFile(mgr.markerPath, []byte("not a number"), 0644); err != nil {
		t.Fatalf("Failed to write marker: %v", err)
	}

	_, err := mgr.LoadOffset()
	if err == nil {
		t.Fatal("Expected error for invalid marker content")
	}

	var typed *errs.Error
	if !errors.As(err, &typed) || typed.Type != errs.ErrorTypeCheckpoint {
		t.Errorf("Expected checkpoint error, got %v", err)
	}
}

func TestLoadDumpMissingDataFile(t *testing.T) {
	mgr := newTestManager(t)

	_, err := mgr.LoadDump()
	if err == nil {
		t.Fatal("Expected error for missing data file")
	}

	var typed *errs.Error
	if !errors.As(err, &typed) || typed.Type != errs.ErrorTypeCheckpoint {
		t.Errorf("Expected checkpoint error, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	mgr := newTestManager(t)

	if err := mgr.Save(50, testDump(1)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if !mgr.Exists() || !mgr.DataExists() {
		t.Fatal("Expected checkpoint pair to exist after save")
	}

	if err := mgr.Delete(); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if mgr.Exists() || mgr.DataExists() {
		t.Error("Expected checkpoint pair to be gone after delete")
	}

	// Deleting again is not an error
	if err := mgr.Delete(); err != nil {
		t.Errorf("Second delete failed: %v", err)
	}

	offset, err := mgr.LoadOffset()
	if err != nil {
		t.Fatalf("LoadOffset after delete failed: %v", err)
	}
	if offset != 0 {
		t.Errorf("Expected offset 0 after delete, got %d", offset)
	}
}
