package scriptfs

import (
	"errors"
	"io"
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// Filesystem is the binding-agnostic core: every FUSE binding adapter in
// internal/fusebind/* is a thin translation layer over this type. It wires
// together the Classifier, ScriptOps, MirrorOps and HandleRegistry
// components from spec.md §2.
type Filesystem struct {
	Persistent *Persistent
	Classifier *Classifier
	Scripts    *ScriptOps
	Mirror     *MirrorOps
	Handles    *HandleRegistry
}

// New builds a Filesystem over an already-initialized Persistent.
func New(p *Persistent) *Filesystem {
	runner := NewRunner(p)
	return &Filesystem{
		Persistent: p,
		Classifier: NewClassifier(p, runner),
		Scripts:    NewScriptOps(p, runner),
		Mirror:     NewMirrorOps(p),
		Handles:    NewHandleRegistry(),
	}
}

// Open implements spec.md §4.7's open(relative): classify; refuse write
// modes on a match; otherwise run the script into a fresh artifact. A
// non-match falls through to MirrorOps.
func (fsys *Filesystem) Open(virtualPath string, flags int, mode uint32) (*Handle, error) {
	relative := RelativePath(virtualPath)
	proc := fsys.Classifier.Classify(virtualPath, relative)
	if proc == nil {
		return fsys.Mirror.Open(relative, flags)
	}
	if writeMode(flags) {
		return nil, unix.EACCES
	}
	artifact, err := fsys.Scripts.RunScript(virtualPath, relative, proc)
	if err != nil {
		return nil, err
	}
	return &Handle{Kind: ScriptHandleKind, Relative: relative, Artifact: artifact}, nil
}

func writeMode(flags int) bool {
	acc := flags & unix.O_ACCMODE
	return acc == unix.O_WRONLY || acc == unix.O_RDWR
}

// Create always creates a regular mirror file: scripts are never written,
// so there is no script-creation path to guard (spec.md Non-goals).
func (fsys *Filesystem) Create(virtualPath string, mode uint32) (*Handle, error) {
	return fsys.Mirror.Create(RelativePath(virtualPath), mode)
}

// Read services both regular and script handles uniformly: pread on the
// handle's descriptor for regular files, or Artifact.ReadAt for scripts
// (spec.md §4.7 "the implementation may seek+read").
func (fsys *Filesystem) Read(h *Handle, buf []byte, offset int64) (int, error) {
	switch h.Kind {
	case DirHandleKind:
		return 0, unix.EISDIR
	case ScriptHandleKind:
		n, err := h.Artifact.ReadAt(buf, offset)
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		return n, err
	default:
		n, err := h.Dir.ReadAt(buf, offset)
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		return n, err
	}
}

// Write is only reachable for RegularHandleKind: ScriptOps never hands back
// a writable handle (spec.md §4.7 "write(Script handle): not permitted").
func (fsys *Filesystem) Write(h *Handle, buf []byte, offset int64) (int, error) {
	switch h.Kind {
	case DirHandleKind:
		return 0, unix.EISDIR
	case ScriptHandleKind:
		return 0, unix.EACCES
	default:
		return h.Dir.WriteAt(buf, offset)
	}
}

// Release closes whatever the handle owns. For scripts this drops the last
// reference to an already-unlinked artifact (spec.md §3 invariant 2).
func (fsys *Filesystem) Release(h *Handle) error {
	return h.Close()
}

// Getattr reports base mirror metadata, with write bits cleared and
// (optionally) eager size measurement for matched scripts (spec.md §4.7).
func (fsys *Filesystem) Getattr(virtualPath string) (unix.Stat_t, error) {
	relative := RelativePath(virtualPath)
	return fsys.Scripts.Getattr(virtualPath, relative, fsys.Classifier)
}

// Access implements spec.md §4.7: script files refuse W_OK even if the
// mirror file itself would allow it.
func (fsys *Filesystem) Access(virtualPath string, mask uint32) error {
	relative := RelativePath(virtualPath)
	if err := fsys.Mirror.Access(relative, mask); err != nil {
		return err
	}
	if mask&unix.W_OK != 0 && fsys.isScript(virtualPath, relative) {
		return unix.EACCES
	}
	return nil
}

// Chmod clears any newly-requested write bits on a matched script before
// forwarding to the mirror (spec.md §4.7); truncate and utimens instead
// refuse outright, matching the reference implementation.
func (fsys *Filesystem) Chmod(virtualPath string, mode uint32) error {
	relative := RelativePath(virtualPath)
	if mode&(unix.S_IWUSR|unix.S_IWGRP|unix.S_IWOTH) != 0 && fsys.isScript(virtualPath, relative) {
		mode &^= unix.S_IWUSR | unix.S_IWGRP | unix.S_IWOTH
	}
	return fsys.Mirror.Chmod(relative, mode)
}

func (fsys *Filesystem) Truncate(virtualPath string, size int64) error {
	relative := RelativePath(virtualPath)
	if fsys.isScript(virtualPath, relative) {
		return unix.EACCES
	}
	return fsys.Mirror.Truncate(relative, size)
}

func (fsys *Filesystem) Utimens(virtualPath string, atime, mtime time.Time) error {
	relative := RelativePath(virtualPath)
	if fsys.isScript(virtualPath, relative) {
		return unix.EACCES
	}
	return fsys.Mirror.Utimens(relative, atime, mtime)
}

func (fsys *Filesystem) isScript(virtualPath, relative string) bool {
	st, err := fsys.Mirror.Stat(relative)
	if err != nil || st.Mode&unix.S_IFMT != unix.S_IFREG {
		return false
	}
	return fsys.Classifier.Classify(virtualPath, relative) != nil
}

func (fsys *Filesystem) OpenDir(virtualPath string) (*Handle, error) {
	return fsys.Mirror.OpenDir(RelativePath(virtualPath))
}

// ListDir opens, reads, and closes a directory in one call, for bindings
// (like bazil.org/fuse's HandleReadDirAller) that have no separate
// opendir/readdir/releasedir lifecycle of their own.
func (fsys *Filesystem) ListDir(virtualPath string) ([]os.FileInfo, error) {
	h, err := fsys.OpenDir(virtualPath)
	if err != nil {
		return nil, err
	}
	defer h.Close()
	return fsys.Mirror.ReadDir(h)
}

func (fsys *Filesystem) Mkdir(virtualPath string, mode uint32) error {
	return fsys.Mirror.Mkdir(RelativePath(virtualPath), mode)
}

func (fsys *Filesystem) Rmdir(virtualPath string) error {
	return fsys.Mirror.Rmdir(RelativePath(virtualPath))
}

func (fsys *Filesystem) Unlink(virtualPath string) error {
	return fsys.Mirror.Unlink(RelativePath(virtualPath))
}

func (fsys *Filesystem) Symlink(target, linkPath string) error {
	return fsys.Mirror.Symlink(target, RelativePath(linkPath))
}

func (fsys *Filesystem) Link(fromPath, toPath string) error {
	return fsys.Mirror.Link(RelativePath(fromPath), RelativePath(toPath))
}

func (fsys *Filesystem) Readlink(virtualPath string) (string, error) {
	return fsys.Mirror.Readlink(RelativePath(virtualPath))
}

func (fsys *Filesystem) Rename(fromPath, toPath string, flags uint) error {
	return fsys.Mirror.Rename(RelativePath(fromPath), RelativePath(toPath), flags)
}

func (fsys *Filesystem) Statfs() (unix.Statfs_t, error) {
	return fsys.Mirror.Statfs()
}
