package document

import (
	"fmt"
	"strings"
)

// FieldKind is the editing affordance for a field.
type FieldKind uint8

const (
	FieldUnknown FieldKind = iota
	FieldImage
	FieldBilingualText
	FieldPlainString
	FieldPlainNumber
	FieldArrayOfStrings
	FieldArrayOfObjects
)

var fieldKindNames = [...]string{
	FieldUnknown:        "unknown",
	FieldImage:          "image",
	FieldBilingualText:  "bilingual_text",
	FieldPlainString:    "string",
	FieldPlainNumber:    "number",
	FieldArrayOfStrings: "string_array",
	FieldArrayOfObjects: "object_array",
}

func (k FieldKind) String() string {
	if int(k) < len(fieldKindNames) {
		return fieldKindNames[k]
	}
	return fmt.Sprintf("FieldKind(%d)", k)
}

func (k FieldKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *FieldKind) UnmarshalText(b []byte) error {
	for i, name := range fieldKindNames {
		if name == string(b) {
			*k = FieldKind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown field kind %q", b)
}

// IsImageName reports whether a field name denotes an image reference.
// Matching is case-sensitive: "heroImage" is not an image name, while
// "imageUrl" and "logoWhite" are.
func IsImageName(name string) bool {
	return name == "slides" ||
		strings.Contains(name, "image") ||
		strings.Contains(name, "icon") ||
		strings.Contains(name, "logo")
}

// Classify picks the editing affordance for the field called name holding
// v. The result depends only on (name, v).
//
// Image names win only when the value can actually be an image reference
// (a string, null, or a list of strings); an object stored under "icons"
// is still walked as an object.
func Classify(name string, v Value) FieldKind {
	if IsImageName(name) {
		switch v.kind {
		case KindString, KindNull:
			return FieldImage
		case KindArray:
			if allOf(v.arr, KindString) {
				return FieldImage
			}
		}
	}

	switch v.kind {
	case KindObject:
		if isBilingual(v) {
			return FieldBilingualText
		}
	case KindString:
		return FieldPlainString
	case KindNumber:
		return FieldPlainNumber
	case KindArray:
		if len(v.arr) == 0 {
			return FieldUnknown
		}
		if allOf(v.arr, KindString) {
			return FieldArrayOfStrings
		}
		if allOf(v.arr, KindObject) {
			return FieldArrayOfObjects
		}
	}
	return FieldUnknown
}

// isBilingual is true for objects carrying string "ar" and "en" fields.
// Extra fields are allowed.
func isBilingual(v Value) bool {
	ar, ok := v.Field("ar")
	if !ok || ar.kind != KindString {
		return false
	}
	en, ok := v.Field("en")
	return ok && en.kind == KindString
}

func allOf(items []Value, k Kind) bool {
	for _, item := range items {
		if item.kind != k {
			return false
		}
	}
	return true
}

// Field describes one editable node for the admin form.
type Field struct {
	Path string    `json:"path"`
	Name string    `json:"name"`
	Kind FieldKind `json:"kind"`
}

// Fields classifies the direct children of the node at p (the whole
// document when p is empty). Object fields come back in key order, array
// elements in index order and named after their parent.
func Fields(root Value, p Path) ([]Field, bool) {
	node := root
	if len(p) > 0 {
		var ok bool
		if node, ok = Lookup(root, p); !ok {
			return nil, false
		}
	}
	prefix := p.String()

	var out []Field
	switch node.kind {
	case KindObject:
		for _, k := range node.Keys() {
			out = append(out, Field{Path: joinPath(prefix, k), Name: k, Kind: Classify(k, node.obj[k])})
		}
	case KindArray:
		if len(p) == 0 {
			return nil, false
		}
		last := p[len(p)-1]
		for i, item := range node.arr {
			if last.Kind != KeySegment {
				// elements of a nested array have no bracket-path address
				return nil, false
			}
			path := Path(append(append(Path{}, p[:len(p)-1]...), Segment{Kind: IndexSegment, Name: last.Name, Index: i}))
			out = append(out, Field{Path: path.String(), Name: last.Name, Kind: Classify(last.Name, item)})
		}
	default:
		return nil, false
	}
	return out, true
}

func joinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}
