package document

import "strings"

// imageDirs marks strings that point at uploaded or bundled images.
var imageDirs = []string{"/Hero/", "/About/", "/icons/", "/uploads/"}

// RewriteImageURLs returns a copy of root where relative image paths such
// as "/Hero/1.jpg" become "{base}/Hero/1.jpg". Absolute URLs and strings
// that do not reference an image directory are left alone. Containers
// without any rewritten string are shared with root.
func RewriteImageURLs(root Value, base string) Value {
	base = strings.TrimRight(base, "/")
	if base == "" {
		return root
	}
	out, _ := rewrite(root, base)
	return out
}

func rewrite(v Value, base string) (Value, bool) {
	switch v.kind {
	case KindString:
		if u, ok := PublicURL(v.s, base); ok {
			return String(u), true
		}
	case KindArray:
		var arr []Value
		for i, item := range v.arr {
			next, changed := rewrite(item, base)
			if !changed {
				continue
			}
			if arr == nil {
				arr = shallowArray(v, 0)
			}
			arr[i] = next
		}
		if arr != nil {
			return Value{kind: KindArray, arr: arr}, true
		}
	case KindObject:
		var obj Value
		changedAny := false
		for k, item := range v.obj {
			next, changed := rewrite(item, base)
			if !changed {
				continue
			}
			if !changedAny {
				obj = shallowObject(v)
				changedAny = true
			}
			obj.obj[k] = next
		}
		if changedAny {
			return obj, true
		}
	}
	return v, false
}

// PublicURL maps "/{bucket}/{file...}" to "{base}/{bucket}/{file...}" when s
// references a known image directory. It reports false for absolute URLs
// and for paths without both a bucket and a file part.
func PublicURL(s, base string) (string, bool) {
	if s == "" || strings.HasPrefix(s, "http") || !strings.HasPrefix(s, "/") {
		return s, false
	}
	matched := false
	for _, dir := range imageDirs {
		if strings.Contains(s, dir) {
			matched = true
			break
		}
	}
	if !matched {
		return s, false
	}
	bucket, file, ok := strings.Cut(s[1:], "/")
	if !ok || bucket == "" || file == "" {
		return s, false
	}
	return base + "/" + bucket + "/" + file, true
}
