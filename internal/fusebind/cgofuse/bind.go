//go:build !linux
// +build !linux

// Package cgofuse adapts internal/scriptfs.Filesystem onto
// github.com/winfsp/cgofuse, giving ScriptFS a working binding on
// platforms bazil.org/fuse doesn't target (darwin, windows, freebsd).
// Like internal/fusebind/linux, it carries no script-materialization
// logic: every method converts a cgofuse call into a scriptfs.Filesystem
// call and back.
package cgofuse

import (
	"context"
	"fmt"
	"time"

	"github.com/winfsp/cgofuse/fuse"
	"golang.org/x/sys/unix"

	"github.com/scriptfs/scriptfs/internal/scriptfs"
)

// MountOptions mirrors the flags scriptfs passes through to the binding.
type MountOptions struct {
	FuseOptions []string
}

// FS implements fuse.FileSystemInterface by delegating to core. It embeds
// fuse.FileSystemBase so unimplemented callbacks (Mknod, Chown, Fsync,
// Flush, ...) fall back to cgofuse's defaults.
type FS struct {
	fuse.FileSystemBase
	core *scriptfs.Filesystem
}

// Mount mounts core at mountpoint and blocks until ctx is cancelled or the
// host reports the mount failed.
func Mount(ctx context.Context, core *scriptfs.Filesystem, mountpoint string, opts MountOptions) error {
	fsys := &FS{core: core}
	host := fuse.NewFileSystemHost(fsys)
	args := buildMountArgs(opts)

	done := make(chan bool, 1)
	go func() { done <- host.Mount(mountpoint, args) }()

	select {
	case <-ctx.Done():
		host.Unmount()
		<-done
		return nil
	case ok := <-done:
		if !ok {
			return fmt.Errorf("cgofuse: mount %s failed", mountpoint)
		}
		return nil
	}
}

func buildMountArgs(opts MountOptions) []string {
	var args []string
	for _, o := range opts.FuseOptions {
		args = append(args, "-o", o)
	}
	return args
}

func (f *FS) Getattr(path string, stat *fuse.Stat_t, fh uint64) int {
	st, err := f.core.Getattr(path)
	if err != nil {
		return errno(err)
	}
	fillStat(stat, st)
	return 0
}

func (f *FS) Access(path string, mask uint32) int {
	return errno(f.core.Access(path, mask))
}

func (f *FS) Opendir(path string) (int, uint64) {
	h, err := f.core.OpenDir(path)
	if err != nil {
		return errno(err), 0
	}
	return 0, f.core.Handles.Register(h)
}

func (f *FS) Readdir(path string, fill func(name string, stat *fuse.Stat_t, ofst int64) bool, ofst int64, fh uint64) int {
	h := f.core.Handles.Lookup(fh)
	if h == nil {
		return -int(unix.EBADF)
	}
	fill(".", nil, 0)
	fill("..", nil, 0)
	entries, err := f.core.Mirror.ReadDir(h)
	if err != nil {
		return errno(err)
	}
	for _, e := range entries {
		fill(e.Name(), nil, 0)
	}
	return 0
}

func (f *FS) Releasedir(path string, fh uint64) int {
	return errno(f.core.Handles.Release(fh))
}

func (f *FS) Open(path string, flags int) (int, uint64) {
	h, err := f.core.Open(path, flags, 0)
	if err != nil {
		return errno(err), 0
	}
	return 0, f.core.Handles.Register(h)
}

func (f *FS) Create(path string, flags int, mode uint32) (int, uint64) {
	h, err := f.core.Create(path, mode)
	if err != nil {
		return errno(err), 0
	}
	return 0, f.core.Handles.Register(h)
}

func (f *FS) Read(path string, buff []byte, ofst int64, fh uint64) int {
	h := f.core.Handles.Lookup(fh)
	if h == nil {
		return -int(unix.EBADF)
	}
	n, err := f.core.Read(h, buff, ofst)
	if err != nil {
		return errno(err)
	}
	return n
}

func (f *FS) Write(path string, buff []byte, ofst int64, fh uint64) int {
	h := f.core.Handles.Lookup(fh)
	if h == nil {
		return -int(unix.EBADF)
	}
	n, err := f.core.Write(h, buff, ofst)
	if err != nil {
		return errno(err)
	}
	return n
}

func (f *FS) Release(path string, fh uint64) int {
	return errno(f.core.Handles.Release(fh))
}

func (f *FS) Mkdir(path string, mode uint32) int {
	return errno(f.core.Mkdir(path, mode))
}

func (f *FS) Rmdir(path string) int {
	return errno(f.core.Rmdir(path))
}

func (f *FS) Unlink(path string) int {
	return errno(f.core.Unlink(path))
}

func (f *FS) Rename(oldpath string, newpath string) int {
	return errno(f.core.Rename(oldpath, newpath, 0))
}

func (f *FS) Symlink(target string, newpath string) int {
	return errno(f.core.Symlink(target, newpath))
}

func (f *FS) Readlink(path string) (int, string) {
	target, err := f.core.Readlink(path)
	if err != nil {
		return errno(err), ""
	}
	return 0, target
}

func (f *FS) Link(oldpath string, newpath string) int {
	return errno(f.core.Link(oldpath, newpath))
}

func (f *FS) Chmod(path string, mode uint32) int {
	return errno(f.core.Chmod(path, mode))
}

func (f *FS) Truncate(path string, size int64, fh uint64) int {
	return errno(f.core.Truncate(path, size))
}

func (f *FS) Utimens(path string, tmsp []fuse.Timespec) int {
	now := time.Now()
	atime, mtime := now, now
	if len(tmsp) >= 2 {
		atime = time.Unix(tmsp[0].Sec, tmsp[0].Nsec)
		mtime = time.Unix(tmsp[1].Sec, tmsp[1].Nsec)
	}
	return errno(f.core.Utimens(path, atime, mtime))
}

func (f *FS) Statfs(path string, stat *fuse.Statfs_t) int {
	st, err := f.core.Statfs()
	if err != nil {
		return errno(err)
	}
	stat.Bsize = uint64(st.Bsize)
	stat.Frsize = uint64(st.Frsize)
	stat.Blocks = st.Blocks
	stat.Bfree = st.Bfree
	stat.Bavail = st.Bavail
	stat.Files = st.Files
	stat.Ffree = st.Ffree
	stat.Namemax = uint64(st.Namelen)
	return 0
}

func fillStat(stat *fuse.Stat_t, st unix.Stat_t) {
	stat.Ino = st.Ino
	stat.Size = st.Size
	stat.Nlink = uint32(st.Nlink)
	stat.Mode = st.Mode
	stat.Uid = st.Uid
	stat.Gid = st.Gid
	stat.Atim = fuse.Timespec{Sec: st.Atim.Sec, Nsec: st.Atim.Nsec}
	stat.Mtim = fuse.Timespec{Sec: st.Mtim.Sec, Nsec: st.Mtim.Nsec}
	stat.Ctim = fuse.Timespec{Sec: st.Ctim.Sec, Nsec: st.Ctim.Nsec}
}

func errno(err error) int {
	if err == nil {
		return 0
	}
	if e, ok := err.(unix.Errno); ok {
		return -int(e)
	}
	return -int(unix.EIO)
}
