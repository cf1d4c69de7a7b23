package index

import (
	"os"
	"path/filepath"
	"testing"
)

func TestOpenMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "mirror.json")
	idx, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if len(idx.Mappings) != 0 {
		t.Errorf("Expected empty index, got %v", idx.Mappings)
	}

	// Nothing changed, so nothing is written.
	if err := idx.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("Expected no file for clean index, got %v", err)
	}
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "mirror.json")
	idx, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	idx.Set("asana-1", "g1")
	idx.Set("asana-2", "g2")
	idx.Set("asana-3", "g3")
	idx.Remove("asana-3")
	idx.Remove("unknown")
	if err := idx.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	reloaded, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if got := reloaded.Get("asana-1"); got != "g1" {
		t.Errorf("Expected g1, got %s", got)
	}
	if got := reloaded.Get("asana-3"); got != "" {
		t.Errorf("Expected removed mapping to be empty, got %s", got)
	}
	ids := reloaded.SourceIDs()
	if len(ids) != 2 || ids[0] != "asana-1" || ids[1] != "asana-2" {
		t.Errorf("Expected [asana-1 asana-2], got %v", ids)
	}
}

func TestOpenCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mirror.json")
	if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(path); err == nil {
		t.Error("Expected an error for a corrupt index file")
	}
}
