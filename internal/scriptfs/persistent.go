// Package scriptfs implements the script-materialization pipeline shared by
// every FUSE binding: classifying mirror paths against an ordered procedure
// list, running the matched program, and serving its captured stdout back as
// a seekable file. Nothing in this package knows about any particular
// user-space filesystem binding; internal/fusebind/* adapt it.
package scriptfs

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Persistent holds the process-wide, mount-time-initialized configuration.
// It is built once at startup by NewPersistent and never mutated afterward; every field is safe
// to read concurrently from any number of in-flight operations.
type Persistent struct {
	// MirrorRoot is the canonicalized absolute path of the mirror directory.
	MirrorRoot string
	// MirrorFd is a long-lived descriptor rooted at MirrorRoot, used for
	// every *at-family syscall below.
	MirrorFd int
	// Procedures is the ordered, immutable list of classification rules.
	Procedures []Procedure
	// EagerSize reports true script output length on getattr instead of
	// the mirror's source size (the -l flag).
	EagerSize bool
	// TempTemplate is the directory under which temp artifacts and temp
	// copies are created: /dev/shm if present, else /tmp.
	TempTemplate string
	// Env is the environment inherited by spawned programs.
	Env []string
}

// NewPersistent opens the mirror directory, probes for /dev/shm, and
// returns an initialized Persistent. The caller is responsible for calling
// Close when the filesystem unmounts.
func NewPersistent(mirror string, procedures []Procedure, eagerSize bool) (*Persistent, error) {
	abs, err := resolveDir(mirror)
	if err != nil {
		return nil, fmt.Errorf("mirror_path: %w", err)
	}
	fd, err := unix.Open(abs, unix.O_RDONLY|unix.O_DIRECTORY, 0)
	if err != nil {
		return nil, fmt.Errorf("open mirror folder %s: %w", abs, err)
	}
	return &Persistent{
		MirrorRoot:   abs,
		MirrorFd:     fd,
		Procedures:   procedures,
		EagerSize:    eagerSize,
		TempTemplate: probeTempDir(),
		Env:          os.Environ(),
	}, nil
}

// Close releases the mirror directory descriptor.
func (p *Persistent) Close() error {
	if p == nil || p.MirrorFd <= 0 {
		return nil
	}
	return unix.Close(p.MirrorFd)
}

func resolveDir(path string) (string, error) {
	abs, err := realpath(path)
	if err != nil {
		return "", err
	}
	fi, err := os.Stat(abs)
	if err != nil {
		return "", err
	}
	if !fi.IsDir() {
		return "", fmt.Errorf("%s is not a directory", abs)
	}
	return abs, nil
}

func realpath(path string) (string, error) {
	// os.Stat+filepath.Abs doesn't resolve symlinks; EvalSymlinks does,
	// matching the C implementation's realpath(3) call in main().
	return evalSymlinksAbs(path)
}

// probeTempDir implements the /dev/shm-preferred, /tmp-fallback rule from
// spec.md §3 and §6, performed once at startup.
func probeTempDir() string {
	if fi, err := os.Stat("/dev/shm"); err == nil && fi.IsDir() {
		return "/dev/shm"
	}
	return "/tmp"
}
