package scriptfs

import "os"

// fdFile wraps a raw descriptor as an *os.File with an empty name (used only
// for buffered reads). The *os.File takes ownership of fd: closing it closes
// the descriptor.
func fdFile(fd int) *os.File {
	return os.NewFile(uintptr(fd), "")
}
