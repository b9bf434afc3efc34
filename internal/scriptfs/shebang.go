package scriptfs

import (
	"bufio"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"
)

// resolveShebang implements spec.md §4.2: read the first line of relative
// (mirror-relative); if it begins with "#!", the interpreter path (up to
// the first unescaped blank, honoring "\ " as a literal space) is returned
// along with argv = [interpreter, original_path]; a relative interpreter path
// is resolved against mirror_root, an absolute one is used as written (the
// way an *at call treats an absolute path). Otherwise relative is itself the
// executable image and argv = [file], resolved against mirror_root.
func resolveShebang(p *Persistent, relative string) (path string, argv []string) {
	absFile := filepath.Join(p.MirrorRoot, relative)
	line, ok := readFirstLine(p.MirrorFd, relative)
	if ok && strings.HasPrefix(line, "#!") {
		interp := parseInterpreter(line)
		if interp != "" {
			if !filepath.IsAbs(interp) {
				interp = filepath.Join(p.MirrorRoot, interp)
			}
			return interp, []string{interp, absFile}
		}
	}
	return absFile, []string{absFile}
}

// readFirstLine returns the first line of relative (without the trailing
// newline), or ok=false if it could not be read.
func readFirstLine(dirfd int, relative string) (string, bool) {
	fd, err := unix.Openat(dirfd, relative, unix.O_RDONLY, 0)
	if err != nil {
		return "", false
	}
	f := fdFile(fd)
	defer f.Close()
	sc := bufio.NewScanner(f)
	if !sc.Scan() {
		return "", false
	}
	return sc.Text(), true
}

// parseInterpreter extracts the interpreter path from a "#!..." line,
// skipping whitespace after "!" and treating "\<space>" as a literal space
// embedded in the path, stopping at the first unescaped blank.
func parseInterpreter(line string) string {
	rest := line[2:]
	i := 0
	for i < len(rest) && (rest[i] == ' ' || rest[i] == '\t') {
		i++
	}
	var b strings.Builder
	for i < len(rest) {
		c := rest[i]
		if c == '\\' && i+1 < len(rest) && rest[i+1] == ' ' {
			b.WriteByte(' ')
			i += 2
			continue
		}
		if c == ' ' || c == '\t' {
			break
		}
		b.WriteByte(c)
		i++
	}
	return b.String()
}
