package document

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// MaxIndex bounds bracketed array indices. Writes backfill every slot below
// the target index, so an unbounded index would let one request allocate an
// arbitrarily large array.
const MaxIndex = 10000

// ErrInvalidPath is matched (errors.Is) by every *InvalidPathError.
var ErrInvalidPath = errors.New("invalid path")

// InvalidPathError describes why a path string was rejected.
type InvalidPathError struct {
	Path    string
	Segment int // zero-based segment position, -1 when not segment specific
	Reason  string
}

func (e *InvalidPathError) Error() string {
	if e.Segment < 0 {
		return fmt.Sprintf("invalid path %q: %s", e.Path, e.Reason)
	}
	return fmt.Sprintf("invalid path %q: segment %d: %s", e.Path, e.Segment, e.Reason)
}

func (e *InvalidPathError) Is(target error) bool { return target == ErrInvalidPath }

type SegmentKind uint8

const (
	// KeySegment addresses an object field: "name".
	KeySegment SegmentKind = iota
	// IndexSegment addresses an element of the array stored under Name: "name[3]".
	IndexSegment
)

type Segment struct {
	Kind  SegmentKind
	Name  string
	Index int
}

func (s Segment) String() string {
	if s.Kind == IndexSegment {
		return s.Name + "[" + strconv.Itoa(s.Index) + "]"
	}
	return s.Name
}

// Path is a parsed, non-empty sequence of segments.
type Path []Segment

func (p Path) String() string {
	parts := make([]string, len(p))
	for i, s := range p {
		parts[i] = s.String()
	}
	return strings.Join(parts, ".")
}

// ParsePath parses "a.b[2].c" style paths. Malformed input is rejected
// rather than coerced: empty segments, a bracket without a key, signed or
// non-decimal indices, trailing text after "]" and indices above MaxIndex
// all return an *InvalidPathError.
func ParsePath(s string) (Path, error) {
	if s == "" {
		return nil, &InvalidPathError{Path: s, Segment: -1, Reason: "empty path"}
	}
	raw := strings.Split(s, ".")
	out := make(Path, 0, len(raw))
	for i, part := range raw {
		seg, reason := parseSegment(part)
		if reason != "" {
			return nil, &InvalidPathError{Path: s, Segment: i, Reason: reason}
		}
		out = append(out, seg)
	}
	return out, nil
}

// MustParsePath is ParsePath for literals known to be valid.
func MustParsePath(s string) Path {
	p, err := ParsePath(s)
	if err != nil {
		panic(err)
	}
	return p
}

func parseSegment(part string) (Segment, string) {
	if part == "" {
		return Segment{}, "empty segment"
	}
	open := strings.IndexByte(part, '[')
	if open < 0 {
		if strings.IndexByte(part, ']') >= 0 {
			return Segment{}, "unexpected ']'"
		}
		return Segment{Kind: KeySegment, Name: part}, ""
	}
	if open == 0 {
		return Segment{}, "missing key before '['"
	}
	if part[len(part)-1] != ']' {
		return Segment{}, "index must be the last part of a segment"
	}
	name, digits := part[:open], part[open+1:len(part)-1]
	if strings.ContainsAny(name, "]") || strings.ContainsAny(digits, "[]") {
		return Segment{}, "nested or unbalanced brackets"
	}
	if digits == "" {
		return Segment{}, "empty index"
	}
	for _, c := range digits {
		if c < '0' || c > '9' {
			return Segment{}, fmt.Sprintf("index %q is not a non-negative decimal integer", digits)
		}
	}
	// digit-only strings longer than this are beyond MaxIndex anyway and
	// would overflow Atoi on 32-bit platforms
	if len(digits) > 9 {
		return Segment{}, fmt.Sprintf("index %s exceeds maximum %d", digits, MaxIndex)
	}
	idx, err := strconv.Atoi(digits)
	if err != nil {
		return Segment{}, err.Error()
	}
	if idx > MaxIndex {
		return Segment{}, fmt.Sprintf("index %d exceeds maximum %d", idx, MaxIndex)
	}
	return Segment{Kind: IndexSegment, Name: name, Index: idx}, ""
}
