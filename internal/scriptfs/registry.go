package scriptfs

import (
	"os"
	"sync"

	"golang.org/x/sys/unix"
)

// HandleKind tags which variant a Handle holds.
type HandleKind int

const (
	DirHandleKind HandleKind = iota
	RegularHandleKind
	ScriptHandleKind
)

// Handle is the per-open state threaded from open/opendir through
// read/write/seek/release (spec.md §3 "Open handle", §4.1 of the "Handle
// registry" component). Exactly one of Dir/Artifact is set, matching Kind.
type Handle struct {
	Kind     HandleKind
	Relative string

	Dir      *os.File // RegularHandleKind and DirHandleKind: the opened fd
	Artifact *Artifact
}

// Close releases whatever the handle owns. Safe to call once per handle,
// matching spec.md §3 invariant 2 for script artifacts.
func (h *Handle) Close() error {
	switch h.Kind {
	case ScriptHandleKind:
		return h.Artifact.Close()
	default:
		if h.Dir != nil {
			return h.Dir.Close()
		}
	}
	return nil
}

// HandleRegistry is the exclusively-owned-per-handle map the spec requires
// (spec.md §5 "Handle table entries: each entry exclusively owned by the
// single in-flight op carrying it"). It is adapted from the teacher's lock
// manager (internal/locking.Manager): a mutex-guarded map, here keyed by
// the FUSE binding's own opaque handle id rather than a path, since two
// concurrent opens of the same script are independent (spec.md §5).
type HandleRegistry struct {
	mu      sync.Mutex
	nextID  uint64
	handles map[uint64]*Handle
}

func NewHandleRegistry() *HandleRegistry {
	return &HandleRegistry{handles: make(map[uint64]*Handle)}
}

// Register stores h and returns a fresh opaque id for it.
func (r *HandleRegistry) Register(h *Handle) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	id := r.nextID
	r.handles[id] = h
	return id
}

// Lookup returns the handle for id, or nil if it is unknown (EBADF).
func (r *HandleRegistry) Lookup(id uint64) *Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.handles[id]
}

// Release closes and forgets id's handle.
func (r *HandleRegistry) Release(id uint64) error {
	r.mu.Lock()
	h, ok := r.handles[id]
	delete(r.handles, id)
	r.mu.Unlock()
	if !ok {
		return unix.EBADF
	}
	return h.Close()
}
