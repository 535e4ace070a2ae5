package reference

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "page.txt"), []byte("scanned text"), 0644); err != nil {
		t.Fatal(err)
	}

	l := NewLoader(dir)
	got, err := l.Load("page.txt")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != "scanned text" {
		t.Errorf("Load = %q", got)
	}
}

func TestLoadRejectsEscapes(t *testing.T) {
	l := NewLoader(t.TempDir())

	for _, name := range []string{"", "../secret.txt", "/etc/passwd.txt", "sub/../../up.txt"} {
		if _, err := l.Load(name); err == nil {
			t.Errorf("Load(%q) succeeded, want error", name)
		}
	}
}

func TestLoadRejectsNonTextExtensions(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "image.png"), []byte{1, 2, 3}, 0644); err != nil {
		t.Fatal(err)
	}

	l := NewLoader(dir)
	if _, err := l.Load("image.png"); err == nil {
		t.Error("Load accepted a .png file")
	}
}

func TestLoadMissingFile(t *testing.T) {
	l := NewLoader(t.TempDir())
	if _, err := l.Load("absent.txt"); err == nil {
		t.Error("Load of missing file succeeded")
	}
}
