package scriptfs

import (
	"io"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"github.com/scriptfs/scriptfs/internal/logsink"
)

// ScriptOps implements the script half of the open/read/getattr pipeline
// described in spec.md §4.7. MirrorOps implements everything else.
type ScriptOps struct {
	p      *Persistent
	runner *Runner
}

func NewScriptOps(p *Persistent, runner *Runner) *ScriptOps {
	return &ScriptOps{p: p, runner: runner}
}

// RunScript executes proc's Program over relative and captures its stdout
// into a freshly allocated, already-unlinked Artifact (spec.md §4.1/§4.3).
// Child process failures do not fail RunScript: the caller gets back
// whatever partial (possibly empty) output was produced, per spec.md §7.
func (s *ScriptOps) RunScript(virtualPath, relative string, proc *Procedure) (*Artifact, error) {
	logsink.Vprintf("run_script: %s (relative %s)", virtualPath, relative)
	artifact, err := NewArtifact(s.p)
	if err != nil {
		return nil, err
	}
	if err := s.runProgram(relative, proc.Program, artifact.File); err != nil {
		// Exec failure: still hand back the (empty) artifact, matching
		// the permissive "open still returns success" rule.
		return artifact, nil
	}
	return artifact, nil
}

func (s *ScriptOps) runProgram(relative string, prog Program, stdout *os.File) error {
	switch prog.Kind {
	case ProgramAuto:
		path, argv := resolveShebang(s.p, relative)
		_, err := s.runner.Run(path, argv, stdout, "")
		return err

	case ProgramSelf:
		abs := filepath.Join(s.p.MirrorRoot, relative)
		_, err := s.runner.Run(abs, []string{abs}, stdout, "")
		return err

	case ProgramExternal:
		return s.runExternalProgram(relative, prog.Command, stdout)
	}
	return nil
}

// runExternalProgram implements spec.md §4.3's External program semantics:
// "!" substitutes a *temp copy* of the script file (mode-preserved,
// unlinked after the child exits); with no "!" the mirror file's content is
// piped to the child's stdin instead.
func (s *ScriptOps) runExternalProgram(relative string, cmd Command, stdout *os.File) error {
	if cmd.PlaceholderIndex < 0 {
		argv := append([]string{cmd.Path}, cmd.Args...)
		_, err := s.runner.Run(cmd.Path, argv, stdout, relative)
		return err
	}

	tmp, err := tempCopy(s.p, relative)
	if err != nil {
		return err
	}
	defer os.Remove(tmp)

	argv, _ := expandArgv(cmd, tmp, "")
	_, err = s.runner.Run(cmd.Path, argv, stdout, "")
	return err
}

// tempCopy materializes a new temp copy of relative under p.TempTemplate,
// preserving the mirror's owner read+execute bits, per spec.md §4.3 and §6.
func tempCopy(p *Persistent, relative string) (string, error) {
	src, err := openatFile(p.MirrorFd, relative)
	if err != nil {
		return "", err
	}
	defer src.Close()

	dst, err := os.CreateTemp(p.TempTemplate, "sfs.*")
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := copyAll(dst, src); err != nil {
		os.Remove(dst.Name())
		return "", err
	}

	if fi, err := src.Stat(); err == nil {
		_ = os.Chmod(dst.Name(), fi.Mode()&(0o500))
	}
	return dst.Name(), nil
}

func copyAll(dst, src *os.File) (int64, error) {
	n, err := io.Copy(dst, src)
	if err != nil {
		return n, err
	}
	return n, nil
}

// Getattr implements spec.md §4.7's getattr rules: base metadata from the
// mirror, write bits cleared for matched scripts, and (when eagerSize is
// set) a full script run to report the true output length, falling back to
// source size if the run fails (spec.md §7).
func (s *ScriptOps) Getattr(virtualPath, relative string, classifier *Classifier) (unix.Stat_t, error) {
	var st unix.Stat_t
	if err := unix.Fstatat(s.p.MirrorFd, relative, &st, unix.AT_SYMLINK_NOFOLLOW); err != nil {
		return st, err
	}
	if st.Mode&unix.S_IFMT != unix.S_IFREG {
		return st, nil
	}
	proc := classifier.Classify(virtualPath, relative)
	if proc == nil {
		return st, nil
	}
	st.Mode &^= unix.S_IWUSR | unix.S_IWGRP | unix.S_IWOTH
	if s.p.EagerSize {
		if artifact, err := NewArtifact(s.p); err == nil {
			if s.runProgram(relative, proc.Program, artifact.File) == nil {
				if size, err := artifact.Size(); err == nil {
					st.Size = size
				}
			}
			artifact.Close()
		}
	}
	return st, nil
}
