//go:build integration

package integration

import (
	"os"
	"testing"
)

// scratchDir returns $VELSAVE_IT_DIR when set, so runs can be pointed at a
// real removable or network mount, and a test temp dir otherwise.
func scratchDir(t *testing.T) string {
	t.Helper()
	if root := os.Getenv("VELSAVE_IT_DIR"); root != "" {
		dir, err := os.MkdirTemp(root, "velsave-it-*")
		if err != nil {
			t.Fatalf("MkdirTemp in %s: %v", root, err)
		}
		t.Cleanup(func() { _ = os.RemoveAll(dir) })
		return dir
	}
	return t.TempDir()
}
