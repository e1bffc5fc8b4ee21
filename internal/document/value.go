package document

import (
	"math"
	"sort"
)

// Kind identifies which variant a Value holds.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Value is a JSON-like tree node. The zero Value is null.
//
// Arrays and objects hold their children by reference: copying a Value is
// cheap and shares the underlying slice or map. Functions in this package
// never write into a container they did not allocate themselves.
type Value struct {
	kind Kind
	b    bool
	n    float64
	s    string
	arr  []Value
	obj  map[string]Value
}

func Null() Value            { return Value{} }
func Bool(b bool) Value      { return Value{kind: KindBool, b: b} }
func Number(n float64) Value { return Value{kind: KindNumber, n: n} }
func String(s string) Value  { return Value{kind: KindString, s: s} }
func Array(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{kind: KindArray, arr: items}
}

// Object builds an object from the given map. The map is adopted, not copied.
func Object(fields map[string]Value) Value {
	if fields == nil {
		fields = map[string]Value{}
	}
	return Value{kind: KindObject, obj: fields}
}

// EmptyObject returns a new object with no fields.
func EmptyObject() Value { return Value{kind: KindObject, obj: map[string]Value{}} }

func (v Value) Kind() Kind        { return v.kind }
func (v Value) IsNull() bool      { return v.kind == KindNull }
func (v Value) IsContainer() bool { return v.kind == KindArray || v.kind == KindObject }

func (v Value) AsBool() (bool, bool)      { return v.b, v.kind == KindBool }
func (v Value) AsNumber() (float64, bool) { return v.n, v.kind == KindNumber }
func (v Value) AsString() (string, bool)  { return v.s, v.kind == KindString }

// AsArray returns the backing slice. Callers must treat it as read-only.
func (v Value) AsArray() ([]Value, bool) { return v.arr, v.kind == KindArray }

// AsObject returns the backing map. Callers must treat it as read-only.
func (v Value) AsObject() (map[string]Value, bool) { return v.obj, v.kind == KindObject }

// Len is the element count for arrays, field count for objects, 0 otherwise.
func (v Value) Len() int {
	switch v.kind {
	case KindArray:
		return len(v.arr)
	case KindObject:
		return len(v.obj)
	}
	return 0
}

// Field returns the named field of an object.
func (v Value) Field(key string) (Value, bool) {
	if v.kind != KindObject {
		return Value{}, false
	}
	f, ok := v.obj[key]
	return f, ok
}

// Index returns the i-th element of an array.
func (v Value) Index(i int) (Value, bool) {
	if v.kind != KindArray || i < 0 || i >= len(v.arr) {
		return Value{}, false
	}
	return v.arr[i], true
}

// Keys returns object keys in sorted order, nil for non-objects.
func (v Value) Keys() []string {
	if v.kind != KindObject {
		return nil
	}
	keys := make([]string, 0, len(v.obj))
	for k := range v.obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a deep copy sharing no containers with v.
func (v Value) Clone() Value {
	switch v.kind {
	case KindArray:
		out := make([]Value, len(v.arr))
		for i, item := range v.arr {
			out[i] = item.Clone()
		}
		return Value{kind: KindArray, arr: out}
	case KindObject:
		out := make(map[string]Value, len(v.obj))
		for k, item := range v.obj {
			out[k] = item.Clone()
		}
		return Value{kind: KindObject, obj: out}
	}
	return v
}

// Equal reports deep structural equality. NaN numbers are never equal.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNull:
		return true
	case KindBool:
		return a.b == b.b
	case KindNumber:
		return a.n == b.n
	case KindString:
		return a.s == b.s
	case KindArray:
		if len(a.arr) != len(b.arr) {
			return false
		}
		for i := range a.arr {
			if !Equal(a.arr[i], b.arr[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if len(a.obj) != len(b.obj) {
			return false
		}
		for k, av := range a.obj {
			bv, ok := b.obj[k]
			if !ok || !Equal(av, bv) {
				return false
			}
		}
		return true
	}
	return false
}

// truthy mirrors the loose "is this field filled in" check the admin panel
// uses: empty strings, zero, false and null are unset.
func truthy(v Value) bool {
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		return v.n != 0 && !math.IsNaN(v.n)
	case KindString:
		return v.s != ""
	case KindArray, KindObject:
		return true
	}
	return false
}

// shallowObject returns a fresh object holding v's fields. Non-objects
// yield an empty object.
func shallowObject(v Value) Value {
	if v.kind != KindObject {
		return EmptyObject()
	}
	out := make(map[string]Value, len(v.obj)+1)
	for k, f := range v.obj {
		out[k] = f
	}
	return Value{kind: KindObject, obj: out}
}

// shallowArray returns a fresh slice holding v's elements with room for
// at least minLen entries. Non-arrays yield an empty slice.
func shallowArray(v Value, minLen int) []Value {
	var src []Value
	if v.kind == KindArray {
		src = v.arr
	}
	out := make([]Value, len(src), max(len(src), minLen))
	copy(out, src)
	return out
}
