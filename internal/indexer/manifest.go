package indexer

import (
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
)

const manifestVersion = 1

// StateDir returns the directory holding manifests and locks under the
// index directory.
func StateDir(dbDir string) string {
	return filepath.Join(dbDir, "_state")
}

// ManifestPath returns the manifest location for a collection.
func ManifestPath(dbDir, collection string) string {
	return filepath.Join(StateDir(dbDir), collection+".manifest.json")
}

// FileRecord is what was last committed to the store for one file.
type FileRecord struct {
	Path        string  `json:"path"`
	Size        int64   `json:"size"`
	MTime       float64 `json:"mtime"`
	ContentHash string  `json:"contentHash"`
	ChunkCount  int     `json:"chunkCount"`
}

// Manifest maps absolute file paths to their last committed record. It is
// loaded at command start, mutated in memory by a single goroutine and
// saved at command end.
type Manifest struct {
	Version int                    `json:"version"`
	Files   map[string]*FileRecord `json:"files"`

	path string
}

// LoadManifest reads the manifest at path. A missing file yields an empty
// manifest; unreadable or corrupt JSON is an error.
func LoadManifest(path string) (*Manifest, error) {
	m := &Manifest{Version: manifestVersion, Files: make(map[string]*FileRecord), path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return m, nil
		}
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	if err := json.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	if m.Version == 0 {
		m.Version = manifestVersion
	}
	if m.Files == nil {
		m.Files = make(map[string]*FileRecord)
	}
	return m, nil
}

// Path returns where the manifest is saved.
func (m *Manifest) Path() string { return m.path }

// Save writes the manifest atomically: the JSON goes to a temporary file
// in the same directory which is then renamed over the old one.
func (m *Manifest) Save() error {
	dir := filepath.Dir(m.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(m.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp manifest: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing manifest: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	if err := os.Rename(tmp.Name(), m.path); err != nil {
		return fmt.Errorf("replacing manifest: %w", err)
	}
	return nil
}

// Get returns the record for path, or nil.
func (m *Manifest) Get(path string) *FileRecord {
	return m.Files[path]
}

// Record stores rec under its path, replacing any previous record.
func (m *Manifest) Record(rec FileRecord) {
	m.Files[rec.Path] = &rec
}

// Remove drops the record for path.
func (m *Manifest) Remove(path string) {
	delete(m.Files, path)
}

// Clear drops every record.
func (m *Manifest) Clear() {
	clear(m.Files)
}

// HashInUse reports whether any record other than except's carries hash.
// Two files with identical bytes share chunk identities, so one must not
// retire the other's vectors.
func (m *Manifest) HashInUse(hash, except string) bool {
	for p, rec := range m.Files {
		if p != except && rec.ContentHash == hash {
			return true
		}
	}
	return false
}

// Paths returns the recorded paths in sorted order.
func (m *Manifest) Paths() []string {
	return slices.Sorted(maps.Keys(m.Files))
}

// TotalChunks sums the chunk counts of every record.
func (m *Manifest) TotalChunks() int {
	total := 0
	for _, rec := range m.Files {
		total += rec.ChunkCount
	}
	return total
}
