package scriptfs

import (
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// MirrorOps forwards every non-script operation to the mirror directory via
// the *at family against p.MirrorFd, per spec.md §4.8. This is the
// boundary contract the core must honor, not itself "the core" — none of
// these methods classify anything.
type MirrorOps struct {
	p *Persistent
}

func NewMirrorOps(p *Persistent) *MirrorOps {
	return &MirrorOps{p: p}
}

// Open opens relative with flags, returning a Handle of RegularHandleKind.
func (m *MirrorOps) Open(relative string, flags int) (*Handle, error) {
	fd, err := unix.Openat(m.p.MirrorFd, relative, flags, 0)
	if err != nil {
		return nil, err
	}
	return &Handle{Kind: RegularHandleKind, Relative: relative, Dir: os.NewFile(uintptr(fd), relative)}, nil
}

// Create creates and opens relative with mode, truncating if it exists.
func (m *MirrorOps) Create(relative string, mode uint32) (*Handle, error) {
	fd, err := unix.Openat(m.p.MirrorFd, relative, unix.O_CREAT|unix.O_WRONLY|unix.O_TRUNC, mode)
	if err != nil {
		return nil, err
	}
	return &Handle{Kind: RegularHandleKind, Relative: relative, Dir: os.NewFile(uintptr(fd), relative)}, nil
}

// OpenDir opens relative as a directory, returning a Handle of DirHandleKind.
func (m *MirrorOps) OpenDir(relative string) (*Handle, error) {
	fd, err := unix.Openat(m.p.MirrorFd, relative, unix.O_RDONLY|unix.O_DIRECTORY, 0)
	if err != nil {
		return nil, err
	}
	return &Handle{Kind: DirHandleKind, Relative: relative, Dir: os.NewFile(uintptr(fd), relative)}, nil
}

// ReadDir enumerates a previously opened directory handle's entries.
// Virtual entries are never synthesized (spec.md §4.8): readdir enumerates
// exactly what the mirror holds.
func (m *MirrorOps) ReadDir(h *Handle) ([]os.FileInfo, error) {
	return h.Dir.Readdir(0)
}

func (m *MirrorOps) Mkdir(relative string, mode uint32) error {
	return unix.Mkdirat(m.p.MirrorFd, relative, mode)
}

func (m *MirrorOps) Rmdir(relative string) error {
	return unix.Unlinkat(m.p.MirrorFd, relative, unix.AT_REMOVEDIR)
}

func (m *MirrorOps) Unlink(relative string) error {
	return unix.Unlinkat(m.p.MirrorFd, relative, 0)
}

func (m *MirrorOps) Symlink(target, linkRelative string) error {
	return unix.Symlinkat(target, m.p.MirrorFd, linkRelative)
}

func (m *MirrorOps) Link(fromRelative, toRelative string) error {
	return unix.Linkat(m.p.MirrorFd, fromRelative, m.p.MirrorFd, toRelative, 0)
}

func (m *MirrorOps) Readlink(relative string) (string, error) {
	buf := make([]byte, 4096)
	n, err := unix.Readlinkat(m.p.MirrorFd, relative, buf)
	if err != nil {
		return "", err
	}
	return string(buf[:n]), nil
}

// Rename honors the atomicity flags passed through from the caller
// (spec.md §4.8).
func (m *MirrorOps) Rename(fromRelative, toRelative string, flags uint) error {
	return unix.Renameat2(m.p.MirrorFd, fromRelative, m.p.MirrorFd, toRelative, flags)
}

// Statfs reports on "/" of the host, per spec.md §4.8.
func (m *MirrorOps) Statfs() (unix.Statfs_t, error) {
	var st unix.Statfs_t
	err := unix.Statfs("/", &st)
	return st, err
}

func (m *MirrorOps) Chmod(relative string, mode uint32) error {
	return unix.Fchmodat(m.p.MirrorFd, relative, mode, 0)
}

func (m *MirrorOps) Truncate(relative string, size int64) error {
	fd, err := unix.Openat(m.p.MirrorFd, relative, unix.O_WRONLY, 0)
	if err != nil {
		return err
	}
	defer unix.Close(fd)
	return unix.Ftruncate(fd, size)
}

func (m *MirrorOps) Utimens(relative string, atime, mtime time.Time) error {
	ts := []unix.Timespec{
		unix.NsecToTimespec(atime.UnixNano()),
		unix.NsecToTimespec(mtime.UnixNano()),
	}
	return unix.UtimesNanoAt(m.p.MirrorFd, relative, ts, 0)
}

func (m *MirrorOps) Access(relative string, mode uint32) error {
	return unix.Faccessat(m.p.MirrorFd, relative, mode, 0)
}

func (m *MirrorOps) Stat(relative string) (unix.Stat_t, error) {
	var st unix.Stat_t
	err := unix.Fstatat(m.p.MirrorFd, relative, &st, unix.AT_SYMLINK_NOFOLLOW)
	return st, err
}
