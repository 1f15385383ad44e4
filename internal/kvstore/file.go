package kvstore

import (
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// File stores entries on disk, one file per key.
// Expired entries are treated as missing.
type File struct {
	rootDir string
	mu      sync.Mutex
}

// NewFile creates a file-backed store under rootDir.
// The directory will be created if it does not exist.
func NewFile(rootDir string) (*File, error) {
	if rootDir == "" {
		return nil, errors.New("rootDir is required")
	}
	if err := os.MkdirAll(rootDir, 0o755); err != nil {
		return nil, err
	}
	return &File{rootDir: rootDir}, nil
}

func (f *File) filenameForKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	name := fmt.Sprintf("%x.json", sum[:])
	return filepath.Join(f.rootDir, name)
}

// Get reads the entry for key from disk.
func (f *File) Get(key string) (Entry, bool) {
	fn := f.filenameForKey(key)
	b, err := os.ReadFile(fn)
	if err != nil {
		return Entry{}, false
	}
	var e Entry
	if err := json.Unmarshal(b, &e); err != nil {
		_ = os.Remove(fn)
		return Entry{}, false
	}
	if e.expired() {
		_ = os.Remove(fn)
		return Entry{}, false
	}
	return e, true
}

// Set writes the entry for key through a temp file and rename.
func (f *File) Set(key string, value Entry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn := f.filenameForKey(key)
	tmp := fn + ".tmp"
	b, _ := json.Marshal(value)
	_ = os.WriteFile(tmp, b, fs.FileMode(0o644))
	_ = os.Rename(tmp, fn)
}
