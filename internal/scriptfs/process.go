package scriptfs

import (
	"fmt"
	"os"
	"os/exec"

	"golang.org/x/sys/unix"
)

// Runner is the single chokepoint for fork/exec: every script execution and
// every external Program/Test invocation flows through Run. spec.md §4.1.
type Runner struct {
	p *Persistent
}

// NewRunner builds a Runner bound to the given persistent configuration,
// used for resolving stdin sources relative to the mirror.
func NewRunner(p *Persistent) *Runner {
	return &Runner{p: p}
}

// Run executes path with argv (argv[0] defaults to path when argv is empty),
// redirecting the child's stdout to stdout when non-nil (otherwise to the
// server's own stderr, so a misbehaving child cannot corrupt the
// filesystem's stdout), and feeding stdinMirrorPath's mirror-relative
// content to the child's stdin when non-empty. Otherwise the child's stdin
// is not closed: os/exec connects a nil Stdin to /dev/null.
// It returns the child's exit status, treating abnormal termination as
// nonzero, never as a Go error. stdout is the caller's own *os.File (e.g. an
// Artifact's): Run never wraps a borrowed fd in a fresh *os.File, since that
// would attach a second GC finalizer racing the owner's own Close.
func (r *Runner) Run(path string, argv []string, stdout *os.File, stdinMirrorPath string) (int, error) {
	if len(argv) == 0 {
		argv = []string{path}
	}
	cmd := exec.Command(path, argv[1:]...)
	cmd.Env = r.p.Env

	if stdout != nil {
		cmd.Stdout = stdout
	} else {
		cmd.Stdout = os.Stderr
	}

	if stdinMirrorPath != "" {
		in, err := openatFile(r.p.MirrorFd, stdinMirrorPath)
		if err != nil {
			// spec.md §4.1: failing to open the stdin source degrades to
			// "no stdin", not a fatal error, matching observed permissiveness.
			cmd.Stdin = nil
		} else {
			defer in.Close()
			cmd.Stdin = in
		}
	}

	err := cmd.Run()
	if err == nil {
		return 0, nil
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		if status, ok := exitErr.Sys().(interface{ ExitStatus() int }); ok {
			return status.ExitStatus(), nil
		}
		return 1, nil
	}
	// Could not even start the child (e.g. ENOENT on path); surface it so
	// run_script callers can decide whether to still hand back an empty
	// artifact (spec.md §7 permits this).
	return -1, fmt.Errorf("exec %s: %w", path, err)
}

// openatFile opens relative beneath dirfd and wraps it as an *os.File.
func openatFile(dirfd int, relative string) (*os.File, error) {
	fd, err := unix.Openat(dirfd, relative, unix.O_RDONLY, 0)
	if err != nil {
		return nil, err
	}
	return os.NewFile(uintptr(fd), relative), nil
}
