package pathutil

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Canonicalize resolves symlinks in the longest existing prefix of p and
// re-attaches the part that does not exist yet. p must be absolute.
func Canonicalize(p string) (string, error) {
	existing := filepath.Clean(p)
	var rest []string
	for {
		_, err := os.Lstat(existing)
		if err == nil {
			break
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
		parent := filepath.Dir(existing)
		if parent == existing {
			return filepath.Clean(p), nil
		}
		rest = append([]string{filepath.Base(existing)}, rest...)
		existing = parent
	}

	real, err := filepath.EvalSymlinks(existing)
	if err != nil {
		return "", err
	}
	return filepath.Join(append([]string{real}, rest...)...), nil
}

// Within reports whether p is root or lies beneath it. Both are cleaned
// first; no symlinks are resolved.
func Within(root, p string) bool {
	root = filepath.Clean(root)
	p = filepath.Clean(p)
	if p == root {
		return true
	}
	if !strings.HasSuffix(root, string(filepath.Separator)) {
		root += string(filepath.Separator)
	}
	return strings.HasPrefix(p, root)
}
