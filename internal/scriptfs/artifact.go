package scriptfs

import (
	"fmt"
	"os"
)

// Artifact is a RAM-backed temp file created, then immediately unlinked, so
// its only reference is the returned descriptor (spec.md §3 "Temp
// artifact"). Its lifetime equals the owning open handle's lifetime, or a
// single getattr eager-size measurement.
type Artifact struct {
	File *os.File
}

// NewArtifact allocates a fresh temp file under p.TempTemplate and unlinks
// its path before returning, matching the mkstemp+unlink sequence in
// run_script (operations.c / scriptfs.c).
func NewArtifact(p *Persistent) (*Artifact, error) {
	f, err := os.CreateTemp(p.TempTemplate, "sfs.*")
	if err != nil {
		return nil, fmt.Errorf("create temp artifact: %w", err)
	}
	if err := os.Remove(f.Name()); err != nil {
		f.Close()
		return nil, fmt.Errorf("unlink temp artifact: %w", err)
	}
	return &Artifact{File: f}, nil
}

// Close releases the artifact descriptor. Safe to call once; the inode is
// already gone from any directory, so no further cleanup is required
// (spec.md §3 invariant 2).
func (a *Artifact) Close() error {
	if a == nil || a.File == nil {
		return nil
	}
	return a.File.Close()
}

// Size stats the artifact's current length.
func (a *Artifact) Size() (int64, error) {
	fi, err := a.File.Stat()
	if err != nil {
		return 0, err
	}
	return fi.Size(), nil
}

// ReadAt services a script handle's read, per spec.md §4.7: "the artifact
// is the cache, valid for the life of one open", no extra buffering needed.
func (a *Artifact) ReadAt(buf []byte, offset int64) (int, error) {
	return a.File.ReadAt(buf, offset)
}
