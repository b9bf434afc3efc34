package scriptfs

import (
	"os"
	"testing"
)

// Universal property 6: a temp artifact's path is gone from disk immediately
// (not just after release), since it is unlinked right after creation.
func TestArtifactUnlinkedImmediately(t *testing.T) {
	p := &Persistent{TempTemplate: t.TempDir()}
	a, err := NewArtifact(p)
	if err != nil {
		t.Fatalf("NewArtifact: %v", err)
	}
	defer a.Close()

	if _, err := os.Stat(a.File.Name()); !os.IsNotExist(err) {
		t.Fatalf("expected artifact path to be unlinked, stat err = %v", err)
	}

	if _, err := a.File.WriteString("payload"); err != nil {
		t.Fatalf("write: %v", err)
	}
	size, err := a.Size()
	if err != nil {
		t.Fatalf("Size: %v", err)
	}
	if size != int64(len("payload")) {
		t.Fatalf("size = %d, want %d", size, len("payload"))
	}

	buf := make([]byte, 7)
	if _, err := a.ReadAt(buf, 0); err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	if string(buf) != "payload" {
		t.Fatalf("ReadAt content = %q", buf)
	}
}
