//go:build linux
// +build linux

package linux

import (
	"os"
	"time"

	"bazil.org/fuse"
	"golang.org/x/sys/unix"
)

// fillAttr copies an x/sys/unix Stat_t into a bazil.org/fuse Attr.
func fillAttr(a *fuse.Attr, st unix.Stat_t) {
	a.Inode = st.Ino
	a.Size = uint64(st.Size)
	a.Blocks = uint64(st.Blocks)
	a.Mode = os.FileMode(st.Mode & 0o7777)
	switch st.Mode & unix.S_IFMT {
	case unix.S_IFDIR:
		a.Mode |= os.ModeDir
	case unix.S_IFLNK:
		a.Mode |= os.ModeSymlink
	}
	a.Nlink = uint32(st.Nlink)
	a.Uid = st.Uid
	a.Gid = st.Gid
	a.Atime = time.Unix(st.Atim.Sec, st.Atim.Nsec)
	a.Mtime = time.Unix(st.Mtim.Sec, st.Mtim.Nsec)
	a.Ctime = time.Unix(st.Ctim.Sec, st.Ctim.Nsec)
}
