package document

import "errors"

// ErrPathNotFound is returned by Delete when the addressed node is absent.
var ErrPathNotFound = errors.New("path not found")

// Set parses path and writes v at that location. See SetPath.
func Set(root Value, path string, v Value) (Value, error) {
	p, err := ParsePath(path)
	if err != nil {
		return root, err
	}
	return SetPath(root, p, v), nil
}

// SetPath returns a copy of root with v written at p.
//
// Intermediate containers are created as needed: a key segment that does
// not hold an object is replaced by an empty object, an index segment
// that does not hold an array is replaced by an empty array, and arrays
// shorter than the target index are padded with empty objects. The final
// segment is assigned regardless of what it held before.
//
// Only containers on the path are copied. Everything else is shared with
// root, and root itself is never written to.
func SetPath(root Value, p Path, v Value) Value {
	if len(p) == 0 {
		return root
	}
	result := shallowObject(root)
	cur := result.obj

	for _, seg := range p[:len(p)-1] {
		if seg.Kind == IndexSegment {
			arr := padArray(shallowArray(cur[seg.Name], seg.Index+1), seg.Index+1)
			child := shallowObject(arr[seg.Index])
			arr[seg.Index] = child
			cur[seg.Name] = Value{kind: KindArray, arr: arr}
			cur = child.obj
			continue
		}
		child := shallowObject(cur[seg.Name])
		cur[seg.Name] = child
		cur = child.obj
	}

	last := p[len(p)-1]
	if last.Kind == IndexSegment {
		arr := padArray(shallowArray(cur[last.Name], last.Index+1), last.Index)
		if last.Index < len(arr) {
			arr[last.Index] = v
		} else {
			arr = append(arr, v)
		}
		cur[last.Name] = Value{kind: KindArray, arr: arr}
	} else {
		cur[last.Name] = v
	}
	return result
}

// padArray appends empty-object placeholders until len(arr) >= n.
func padArray(arr []Value, n int) []Value {
	for len(arr) < n {
		arr = append(arr, EmptyObject())
	}
	return arr
}

// Get parses path and reads the value there.
func Get(root Value, path string) (Value, bool, error) {
	p, err := ParsePath(path)
	if err != nil {
		return Value{}, false, err
	}
	v, ok := Lookup(root, p)
	return v, ok, nil
}

// Lookup walks p without creating anything. Missing nodes and type
// mismatches report false.
func Lookup(root Value, p Path) (Value, bool) {
	cur := root
	for _, seg := range p {
		next, ok := cur.Field(seg.Name)
		if !ok {
			return Value{}, false
		}
		if seg.Kind == IndexSegment {
			next, ok = next.Index(seg.Index)
			if !ok {
				return Value{}, false
			}
		}
		cur = next
	}
	return cur, true
}

// Delete removes the node at path, copying containers along the path the
// same way SetPath does. Removing an array element shifts later elements
// down. A path that does not resolve returns ErrPathNotFound and root.
func Delete(root Value, path string) (Value, error) {
	p, err := ParsePath(path)
	if err != nil {
		return root, err
	}
	out, ok := deleteAt(root, p)
	if !ok {
		return root, ErrPathNotFound
	}
	return out, nil
}

func deleteAt(node Value, p Path) (Value, bool) {
	seg := p[0]
	child, ok := node.Field(seg.Name)
	if !ok {
		return node, false
	}

	if len(p) == 1 {
		out := shallowObject(node)
		if seg.Kind == KeySegment {
			delete(out.obj, seg.Name)
			return out, true
		}
		items, ok := child.AsArray()
		if !ok || seg.Index >= len(items) {
			return node, false
		}
		trimmed := make([]Value, 0, len(items)-1)
		trimmed = append(trimmed, items[:seg.Index]...)
		trimmed = append(trimmed, items[seg.Index+1:]...)
		out.obj[seg.Name] = Value{kind: KindArray, arr: trimmed}
		return out, true
	}

	if seg.Kind == KeySegment {
		next, ok := deleteAt(child, p[1:])
		if !ok {
			return node, false
		}
		out := shallowObject(node)
		out.obj[seg.Name] = next
		return out, true
	}

	elem, ok := child.Index(seg.Index)
	if !ok {
		return node, false
	}
	next, ok := deleteAt(elem, p[1:])
	if !ok {
		return node, false
	}
	arr := shallowArray(child, 0)
	arr[seg.Index] = next
	out := shallowObject(node)
	out.obj[seg.Name] = Value{kind: KindArray, arr: arr}
	return out, true
}
