//go:build linux
// +build linux

package linux

import (
	"syscall"

	"bazil.org/fuse"
)

// errno translates a scriptfs core error (usually a syscall.Errno; any other
// non-nil error becomes EIO) into the fuse.Errno bazil.org/fuse expects at
// the operation boundary
// (spec.md §7: "operation handlers translate OS errors into negative
// errno at the boundary").
func errno(err error) error {
	if err == nil {
		return nil
	}
	if e, ok := err.(syscall.Errno); ok {
		return fuse.Errno(e)
	}
	return fuse.EIO
}
