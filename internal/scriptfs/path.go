package scriptfs

import "path/filepath"

func evalSymlinksAbs(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}

// RelativePath converts an absolute virtual-filesystem path to a path
// relative to the mirror root, per spec.md §3 invariant 3:
// RelativePath("/") == ".", RelativePath("/x/y") == "x/y".
func RelativePath(path string) string {
	if path == "" {
		return "."
	}
	if path == "/" {
		return "."
	}
	if path[0] == '/' {
		return path[1:]
	}
	return path
}
