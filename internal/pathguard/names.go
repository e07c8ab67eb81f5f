package pathguard

import (
	"net/url"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// maxDecodeRounds bounds iterative percent-decoding.
const maxDecodeRounds = 3

// encodedTraversal lists lower-case spellings of '.', '/' and '\' that
// decoders in the wild turn back into traversal.
var encodedTraversal = []struct {
	token, variant string
}{
	{"%2e%2e", "URL-encoded dots"},
	{"%2e.", "URL-encoded dots"},
	{".%2e", "URL-encoded dots"},
	{"..%2f", "URL-encoded separator"},
	{"..%5c", "URL-encoded separator"},
	{"%252e", "double-encoded dots"},
	{"%252f", "double-encoded separator"},
	{"%255c", "double-encoded separator"},
	{"%c0%ae", "overlong UTF-8 encoding"},
	{"%c0%af", "overlong UTF-8 encoding"},
	{"%c1%9c", "overlong UTF-8 encoding"},
	{"%e0%80%ae", "overlong UTF-8 encoding"},
	{"%u002e", "unicode-escaped dots"},
	{"%uff0e", "unicode-escaped dots"},
	{"%u2215", "unicode-escaped separator"},
}

// traversal scans the original string for parent references in any spelling.
func (v *Validator) traversal(path string) (string, bool) {
	if !utf8.ValidString(path) {
		return "overlong UTF-8 encoding", true
	}
	if hasParentRef(path) {
		return "parent directory reference", true
	}

	if v.driveLetters {
		if strings.Contains(path, "/") && strings.Contains(path, `\`) {
			return "mixed path separators", true
		}
	} else if strings.Contains(path, `\`) {
		return "mixed path separators", true
	}

	lower := strings.ToLower(path)
	for _, e := range encodedTraversal {
		if strings.Contains(lower, e.token) {
			return e.variant, true
		}
	}

	if n := norm.NFKC.String(path); n != path && (hasParentRef(n) || strings.Contains(n, "..")) {
		return "unicode-normalized traversal", true
	}

	decoded := path
	for i := 0; i < maxDecodeRounds; i++ {
		next, err := url.PathUnescape(decoded)
		if err != nil || next == decoded {
			break
		}
		decoded = next
		if !utf8.ValidString(decoded) {
			return "overlong UTF-8 encoding", true
		}
		if hasParentRef(decoded) {
			return "encoded parent directory reference", true
		}
	}
	return "", false
}

// hasParentRef reports whether any component, split on either separator, is "..".
func hasParentRef(p string) bool {
	for _, part := range strings.FieldsFunc(p, isSeparator) {
		if part == ".." {
			return true
		}
	}
	return false
}

func isSeparator(r rune) bool {
	return r == '/' || r == '\\'
}

// dangerousName is stage 4. It looks at the original string for prefixes and
// metacharacters and at the resolved path for names and extensions.
func (v *Validator) dangerousName(path, resolved string) (string, bool) {
	for _, r := range path {
		if unicode.IsControl(r) {
			return "control character in path", true
		}
	}
	if v.metachars != "" && strings.ContainsAny(path, v.metachars) {
		return "shell metacharacter in path", true
	}

	if strings.HasPrefix(path, `\\`) || strings.HasPrefix(path, "//") {
		return "UNC path not allowed", true
	}
	if hasDriveLetter(path) {
		if !v.driveLetters {
			return "drive-letter path not allowed", true
		}
		if strings.Contains(path[2:], ":") {
			return "alternate data stream not allowed", true
		}
	} else if v.driveLetters && strings.Contains(path, ":") {
		return "alternate data stream not allowed", true
	}

	for _, part := range strings.FieldsFunc(resolved, isSeparator) {
		if name := deviceName(part); v.reserved[name] {
			return "reserved device name: " + name, true
		}
	}

	ext := strings.ToLower(filepath.Ext(resolved))
	for _, blocked := range v.blockedExts {
		if ext == blocked {
			return "blocked file type: " + ext, true
		}
	}
	return "", false
}

// deviceName upper-cases a component and strips what Windows ignores when
// matching device names: anything after the first dot and trailing spaces.
func deviceName(component string) string {
	name := component
	if i := strings.IndexByte(name, '.'); i >= 0 {
		name = name[:i]
	}
	return strings.ToUpper(strings.TrimRight(name, " "))
}

func hasDriveLetter(p string) bool {
	if len(p) < 2 || p[1] != ':' {
		return false
	}
	c := p[0]
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}
