package index

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// MirrorIndex remembers which destination task each source task was mirrored to.
type MirrorIndex struct {
	Mappings map[string]string `json:"mappings"`
	Path     string            `json:"-"`
	mu       sync.RWMutex
	dirty    bool
}

// NewMirrorIndex opens the index in the user's config directory.
func NewMirrorIndex() (*MirrorIndex, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return Open(filepath.Join(home, ".config", "sotasks", "mirror.json"))
}

// Open loads the index at path, starting empty if the file does not exist.
func Open(path string) (*MirrorIndex, error) {
	idx := &MirrorIndex{
		Mappings: make(map[string]string),
		Path:     path,
	}

	if _, err := os.Stat(path); err == nil {
		if err := idx.Load(); err != nil {
			return nil, err
		}
	}

	return idx, nil
}

func (idx *MirrorIndex) Load() error {
	f, err := os.Open(idx.Path)
	if err != nil {
		return err
	}
	defer f.Close()

	idx.mu.Lock()
	defer idx.mu.Unlock()
	if err := json.NewDecoder(f).Decode(&idx.Mappings); err != nil {
		return err
	}
	if idx.Mappings == nil {
		idx.Mappings = make(map[string]string)
	}
	return nil
}

// Save writes the index if it changed since the last load or save.
func (idx *MirrorIndex) Save() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if !idx.dirty {
		return nil
	}

	dir := filepath.Dir(idx.Path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	f, err := os.Create(idx.Path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(idx.Mappings); err != nil {
		return err
	}
	idx.dirty = false
	return nil
}

func (idx *MirrorIndex) Get(sourceID string) string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.Mappings[sourceID]
}

func (idx *MirrorIndex) Set(sourceID, destID string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.Mappings[sourceID] != destID {
		idx.Mappings[sourceID] = destID
		idx.dirty = true
	}
}

func (idx *MirrorIndex) Remove(sourceID string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if _, exists := idx.Mappings[sourceID]; exists {
		delete(idx.Mappings, sourceID)
		idx.dirty = true
	}
}

// SourceIDs returns the indexed source identifiers in sorted order.
func (idx *MirrorIndex) SourceIDs() []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	ids := make([]string, 0, len(idx.Mappings))
	for id := range idx.Mappings {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
