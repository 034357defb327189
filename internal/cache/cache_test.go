package cache

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestFileStore_CommitAndOpen(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), ".mp3", time.Hour)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	name, f, err := store.Create()
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !strings.HasSuffix(name, ".mp3") {
		t.Errorf("Expected .mp3 suffix, got %s", name)
	}
	_, _ = f.WriteString("audio-bytes")
	_ = f.Close()

	if _, err := store.Open(name); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected uncommitted file to be hidden, got %v", err)
	}

	store.Commit(name)
	rf, err := store.Open(name)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rf.Close()
	body, _ := io.ReadAll(rf)
	if string(body) != "audio-bytes" {
		t.Errorf("Unexpected content %q", body)
	}
}

func TestFileStore_RejectsUnknownNames(t *testing.T) {
	dir := t.TempDir()
	store, _ := NewFileStore(dir, ".mp3", time.Hour)

	// A file that exists on disk but was never issued must not be served
	if err := os.WriteFile(filepath.Join(dir, "secret.mp3"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"secret.mp3", "../etc/passwd", "/etc/passwd", ""} {
		if _, err := store.Open(name); !errors.Is(err, ErrNotFound) {
			t.Errorf("Open(%q) = %v, want ErrNotFound", name, err)
		}
	}
}

func TestFileStore_DeleteRemovesFile(t *testing.T) {
	store, _ := NewFileStore(t.TempDir(), ".mp3", time.Hour)
	name, f, _ := store.Create()
	_ = f.Close()
	store.Commit(name)

	store.Delete(name)

	if _, err := os.Stat(filepath.Join(store.Dir(), name)); !os.IsNotExist(err) {
		t.Errorf("Expected file to be removed, stat err = %v", err)
	}
	if store.Len() != 0 {
		t.Errorf("Expected empty store, got %d", store.Len())
	}
}

func TestFileStore_Expiry(t *testing.T) {
	store, _ := NewFileStore(t.TempDir(), ".mp3", 20*time.Millisecond)
	name, f, _ := store.Create()
	_ = f.Close()
	store.Commit(name)

	time.Sleep(40 * time.Millisecond)

	if _, err := store.Open(name); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected expired file to be gone, got %v", err)
	}
}

func TestFileStore_Close(t *testing.T) {
	store, _ := NewFileStore(t.TempDir(), ".wav", time.Hour)
	var names []string
	for i := 0; i < 3; i++ {
		name, f, _ := store.Create()
		_ = f.Close()
		store.Commit(name)
		names = append(names, name)
	}

	_ = store.Close()

	for _, name := range names {
		if _, err := os.Stat(filepath.Join(store.Dir(), name)); !os.IsNotExist(err) {
			t.Errorf("Expected %s to be removed", name)
		}
	}
}

func TestFileStore_Discard(t *testing.T) {
	store, _ := NewFileStore(t.TempDir(), ".mp3", time.Hour)
	name, f, _ := store.Create()
	_ = f.Close()

	store.Discard(name)

	if _, err := os.Stat(filepath.Join(store.Dir(), name)); !os.IsNotExist(err) {
		t.Errorf("Expected discarded file to be removed")
	}
}
