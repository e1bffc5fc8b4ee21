package content

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/tidwall/jsonc"

	"github.com/keithlinneman/yummigo-web/internal/document"
)

// Encode renders doc the way it is stored: 2-space indent, sorted keys,
// no HTML escaping, trailing newline.
func Encode(doc document.Value) ([]byte, error) {
	if doc.Kind() != document.KindObject {
		return nil, fmt.Errorf("%w: root is %s, want object", ErrInvalidDocument, doc.Kind())
	}
	raw, err := doc.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// Decode parses strict JSON. The root must be an object.
func Decode(b []byte) (document.Value, error) {
	var v document.Value
	if err := json.Unmarshal(b, &v); err != nil {
		return document.Value{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if v.Kind() != document.KindObject {
		return document.Value{}, fmt.Errorf("%w: root is %s, want object", ErrInvalidDocument, v.Kind())
	}
	return v, nil
}

// DecodeLenient also accepts comments and trailing commas, for documents
// edited by hand before import.
func DecodeLenient(b []byte) (document.Value, error) {
	return Decode(jsonc.ToJSON(b))
}

// Hash is the hex sha256 of the stored encoding.
func Hash(doc document.Value) (string, error) {
	b, err := Encode(doc)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}
