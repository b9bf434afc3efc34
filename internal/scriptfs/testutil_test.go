package scriptfs

import (
	"os"
	"path/filepath"
	"testing"
)

// newTestFilesystem builds a Filesystem over a fresh mirror directory under
// t.TempDir(), with the given procedures (DefaultProcedure() if none).
func newTestFilesystem(t *testing.T, procedures ...Procedure) (*Filesystem, string) {
	t.Helper()
	mirror := t.TempDir()
	if len(procedures) == 0 {
		procedures = []Procedure{DefaultProcedure()}
	}
	p, err := NewPersistent(mirror, procedures, false)
	if err != nil {
		t.Fatalf("NewPersistent: %v", err)
	}
	t.Cleanup(func() { p.Close() })
	return New(p), mirror
}

func writeMirrorFile(t *testing.T, mirror, name, content string, mode os.FileMode) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(mirror, name), []byte(content), mode); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func readAll(t *testing.T, fsys *Filesystem, virtualPath string) []byte {
	t.Helper()
	h, err := fsys.Open(virtualPath, os.O_RDONLY, 0)
	if err != nil {
		t.Fatalf("open %s: %v", virtualPath, err)
	}
	defer fsys.Release(h)

	var out []byte
	buf := make([]byte, 4096)
	var offset int64
	for {
		n, err := fsys.Read(h, buf, offset)
		if n > 0 {
			out = append(out, buf[:n]...)
			offset += int64(n)
		}
		if n == 0 || err != nil {
			break
		}
	}
	return out
}
