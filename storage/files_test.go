package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const (
	pngBytes  = "\x89PNG\r\n\x1a\n" + "rest-of-png"
	jpegBytes = "\xff\xd8\xff\xe0" + "rest-of-jpeg"
)

func TestSaveAndDelete(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	store := NewFileStore(dir)

	name, err := store.Save("Minha Foto.PNG", strings.NewReader(pngBytes))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(name, "_minha-foto.png") {
		t.Fatalf("unexpected stored name %q", name)
	}
	if len(strings.SplitN(name, "_", 2)[0]) != 36 {
		t.Fatalf("stored name %q does not start with a uuid", name)
	}

	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil || string(data) != pngBytes {
		t.Fatalf("read back %q, %v", data, err)
	}

	if err := store.Delete(name); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, name)); !os.IsNotExist(err) {
		t.Fatalf("file still exists: %v", err)
	}
	if err := store.Delete(name); err != nil {
		t.Fatalf("deleting a missing file should be a no-op, got %v", err)
	}
}

func TestSaveKeepsLargeImagesIntact(t *testing.T) {
	store := NewFileStore(t.TempDir())
	content := pngBytes + strings.Repeat("x", 4096)

	name, err := store.Save("big.png", strings.NewReader(content))
	if err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(filepath.Join(store.Dir(), name))
	if err != nil || string(data) != content {
		t.Fatalf("stored %d bytes, want %d (%v)", len(data), len(content), err)
	}
}

func TestSaveRejectsNonImages(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir)

	for _, content := range []string{"<script>alert(1)</script>", "<html><body>hi</body></html>", "plain text", ""} {
		if _, err := store.Save("evil.html", strings.NewReader(content)); !errors.Is(err, ErrNotImage) {
			t.Errorf("Save(%q) err = %v, want ErrNotImage", content, err)
		}
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Fatalf("rejected uploads left %d files behind", len(entries))
	}
}

func TestSaveTakesExtensionFromContent(t *testing.T) {
	store := NewFileStore(t.TempDir())

	name, err := store.Save("photo.html", strings.NewReader(jpegBytes))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(name, "_photo.jpg") {
		t.Fatalf("stored name %q should carry the sniffed extension", name)
	}
}

func TestSaveStripsDirectories(t *testing.T) {
	store := NewFileStore(t.TempDir())
	name, err := store.Save("../../etc/passwd", strings.NewReader(pngBytes))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(name, "/") || strings.Contains(name, "..") {
		t.Fatalf("unsafe stored name %q", name)
	}
}

func TestPathRejectsTraversal(t *testing.T) {
	store := NewFileStore(t.TempDir())
	for _, bad := range []string{"", "..", "../x", "a/b", `a\b`} {
		if _, err := store.Path(bad); err != ErrInvalidName {
			t.Errorf("Path(%q) err = %v, want ErrInvalidName", bad, err)
		}
	}
}

func TestURL(t *testing.T) {
	if got := URL("abc.png"); got != "/uploads/abc.png" {
		t.Errorf("got %q", got)
	}
	if got := URL("a b#c.png"); got != "/uploads/a%20b%23c.png" {
		t.Errorf("got %q", got)
	}
	if URL("") != "" {
		t.Error("empty name should give empty url")
	}
}
