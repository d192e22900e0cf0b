package testsupport

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// WriteLines writes rows joined by newlines to path, creating parent
// directories as needed, and returns path.
func WriteLines(t testing.TB, path string, rows ...string) string {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	content := strings.Join(rows, "\n")
	if len(rows) > 0 {
		content += "\n"
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
