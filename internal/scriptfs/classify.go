package scriptfs

import (
	"golang.org/x/sys/unix"

	"github.com/scriptfs/scriptfs/internal/logsink"
)

// Classifier evaluates a Persistent's procedure list against a path.
// get_script in the original source: a pure function of (path, procedures)
// with no persistent side effects other than whatever an External test
// chooses to do (spec.md §3).
type Classifier struct {
	p      *Persistent
	runner *Runner
}

// NewClassifier builds a Classifier bound to p, spawning External tests
// through runner.
func NewClassifier(p *Persistent, runner *Runner) *Classifier {
	return &Classifier{p: p, runner: runner}
}

// Classify walks procedures in order and returns the first whose Test
// matches relative, or nil if none do. Invoked from every metadata op that
// cares whether a path is a script (spec.md §4.6): getattr, access, chmod,
// truncate, utimens, open. External tests may therefore run on a simple
// `ls` or `stat`; they are expected to be idempotent.
func (c *Classifier) Classify(virtualPath, relative string) *Procedure {
	logsink.Vprintf("classify: %s", virtualPath)
	for i := range c.p.Procedures {
		proc := &c.p.Procedures[i]
		if c.matches(proc.Test, virtualPath, relative) {
			logsink.Vprintf("classify: %s matched procedure %d", virtualPath, i)
			return proc
		}
	}
	logsink.Vprintf("classify: %s matched no procedure", virtualPath)
	return nil
}

func (c *Classifier) matches(t Test, virtualPath, relative string) bool {
	switch t.Kind {
	case TestAlways:
		return true
	case TestExecutable:
		return unix.Faccessat(c.p.MirrorFd, relative, unix.X_OK, 0) == nil
	case TestShebangOrExecutable:
		return hasShebang(c.p.MirrorFd, relative) || unix.Faccessat(c.p.MirrorFd, relative, unix.X_OK, 0) == nil
	case TestPattern:
		return t.Pattern != nil && t.Pattern.MatchString(virtualPath)
	case TestExternal:
		return c.runExternalTest(t.Command, virtualPath, relative)
	default:
		return false
	}
}

// hasShebang reports whether relative's first two bytes are "#!".
func hasShebang(dirfd int, relative string) bool {
	fd, err := unix.Openat(dirfd, relative, unix.O_RDONLY, 0)
	if err != nil {
		return false
	}
	defer unix.Close(fd)
	var magic [2]byte
	n, err := unix.Pread(fd, magic[:], 0)
	return err == nil && n == 2 && magic[0] == '#' && magic[1] == '!'
}

// runExternalTest implements spec.md §4.4's External test: "!" substitutes
// to the virtual path (not a temp copy, unlike the program-invocation
// side), or the mirror file's content is piped to stdin when there's no
// placeholder; exit 0 means match.
func (c *Classifier) runExternalTest(cmd Command, virtualPath, relative string) bool {
	argv, stdinPath := expandArgv(cmd, virtualPath, relative)
	status, err := c.runner.Run(cmd.Path, argv, nil, stdinPath)
	if err != nil {
		return false
	}
	return status == 0
}

// expandArgv builds the argv for a Command, substituting placeholderValue
// at cmd.PlaceholderIndex when present, or returning mirrorStdinPath as the
// stdin source for filter commands.
func expandArgv(cmd Command, placeholderValue, mirrorStdinPath string) (argv []string, stdin string) {
	argv = append([]string{cmd.Path}, cmd.Args...)
	if cmd.PlaceholderIndex >= 0 {
		argv[cmd.PlaceholderIndex+1] = placeholderValue
		return argv, ""
	}
	if cmd.Filter {
		return argv, mirrorStdinPath
	}
	return argv, ""
}
