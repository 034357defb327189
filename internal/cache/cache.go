package cache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
)

// ErrNotFound is returned for names the store never issued or has expired
var ErrNotFound = errors.New("file not found")

// FileStore hands out generated files under opaque names and deletes them
// from disk when they expire. Only names it issued can be opened, so callers
// never resolve a client-supplied path.
type FileStore struct {
	dir     string
	ext     string
	entries *gocache.Cache
}

// NewFileStore creates a store rooted at dir (a fresh temp dir when empty).
func NewFileStore(dir, ext string, ttl time.Duration) (*FileStore, error) {
	if dir == "" {
		tmp, err := os.MkdirTemp("", "verisense-")
		if err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
		dir = tmp
	} else if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}

	cleanup := ttl / 2
	if cleanup <= 0 {
		cleanup = time.Minute
	}

	entries := gocache.New(ttl, cleanup)
	entries.OnEvicted(func(_ string, v interface{}) {
		if path, ok := v.(string); ok {
			_ = os.Remove(path)
		}
	})

	return &FileStore{dir: dir, ext: ext, entries: entries}, nil
}

// Dir returns the directory files are written to
func (s *FileStore) Dir() string {
	return s.dir
}

// Create opens a new empty file. It is not servable until Commit.
func (s *FileStore) Create() (string, *os.File, error) {
	name := uuid.NewString() + s.ext
	f, err := os.OpenFile(filepath.Join(s.dir, name), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", nil, fmt.Errorf("create file: %w", err)
	}
	return name, f, nil
}

// Commit makes a created file servable for the store's TTL
func (s *FileStore) Commit(name string) {
	s.entries.SetDefault(name, filepath.Join(s.dir, name))
}

// Discard removes a created file that will never be committed
func (s *FileStore) Discard(name string) {
	_ = os.Remove(filepath.Join(s.dir, filepath.Base(name)))
}

// Open returns the committed file for name
func (s *FileStore) Open(name string) (*os.File, error) {
	v, found := s.entries.Get(name)
	if !found {
		return nil, ErrNotFound
	}
	f, err := os.Open(v.(string))
	if errors.Is(err, os.ErrNotExist) {
		s.entries.Delete(name)
		return nil, ErrNotFound
	}
	return f, err
}

// Delete expires name immediately and removes its file
func (s *FileStore) Delete(name string) {
	s.entries.Delete(name)
}

// Len returns the number of servable files
func (s *FileStore) Len() int {
	return s.entries.ItemCount()
}

// Close removes every committed file
func (s *FileStore) Close() error {
	for name := range s.entries.Items() {
		s.entries.Delete(name)
	}
	return nil
}
