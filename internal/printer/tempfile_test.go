package printer

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteTempFile(t *testing.T) {
	dir := t.TempDir()
	data := []byte{0x1B, 0x40, 'h', 'i'}

	path, cleanup, err := writeTempFile(dir, data)
	if err != nil {
		t.Fatalf("writeTempFile: %v", err)
	}

	name := filepath.Base(path)
	if !strings.HasPrefix(name, "pos_print_") || !strings.HasSuffix(name, ".bin") {
		t.Errorf("unexpected name %q", name)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("content = %x, want %x", got, data)
	}

	cleanup()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("file still present after cleanup: %v", err)
	}
}

func TestWriteTempFileUnique(t *testing.T) {
	dir := t.TempDir()
	seen := make(map[string]bool)

	for i := 0; i < 20; i++ {
		path, cleanup, err := writeTempFile(dir, []byte("x"))
		if err != nil {
			t.Fatalf("writeTempFile: %v", err)
		}
		defer cleanup()
		if seen[path] {
			t.Fatalf("duplicate temp path %s", path)
		}
		seen[path] = true
	}
}

func TestWriteTempFileMissingDir(t *testing.T) {
	_, cleanup, err := writeTempFile(filepath.Join(t.TempDir(), "missing"), []byte("x"))
	cleanup()
	if err == nil {
		t.Fatal("expected error for missing directory")
	}
}
