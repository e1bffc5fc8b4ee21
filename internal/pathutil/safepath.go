package pathutil

import "strings"

// HasDotSegments reports whether any path segment is "." or "..".
func HasDotSegments(p string) bool {
	for _, seg := range strings.Split(p, "/") {
		if seg == "." || seg == ".." {
			return true
		}
	}
	return false
}

// IsSafeFilename reports whether name can be used as a single path
// element under a storage directory or key prefix: non-empty, at most 255
// bytes, no separators, no NUL or control bytes, and not a dot segment.
func IsSafeFilename(name string) bool {
	if name == "" || len(name) > 255 || HasDotSegments(name) {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c == '/' || c == '\\' || c < 0x20 || c == 0x7f {
			return false
		}
	}
	return true
}
