package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteImage writes a small placeholder image file at the target path.
func WriteImage(t testing.TB, path string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte("\x89PNG\r\n\x1a\n"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
