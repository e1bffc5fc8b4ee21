package content

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means the store has no document yet.
	ErrNotFound = errors.New("content: document not found")
	// ErrStorageUnavailable wraps any failure talking to a store.
	ErrStorageUnavailable = errors.New("content: storage unavailable")
	// ErrInvalidDocument rejects input that is not a JSON object.
	ErrInvalidDocument = errors.New("content: invalid document")
)

// storageError keeps the cause reachable for errors.As while matching
// ErrStorageUnavailable.
type storageError struct {
	op    string
	cause error
}

func (e *storageError) Error() string {
	return fmt.Sprintf("content: %s: %v", e.op, e.cause)
}

func (e *storageError) Unwrap() []error { return []error{ErrStorageUnavailable, e.cause} }

func unavailable(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrStorageUnavailable) || errors.Is(err, ErrNotFound) {
		return err
	}
	return &storageError{op: op, cause: err}
}
