package images

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedType    = errors.New("images: unsupported content type")
	ErrTooLarge           = errors.New("images: file too large")
	ErrInvalidName        = errors.New("images: invalid bucket or file name")
	ErrNotFound           = errors.New("images: not found")
	ErrExists             = errors.New("images: file already exists")
	ErrStorageUnavailable = errors.New("images: storage unavailable")
)

type storageError struct {
	op    string
	cause error
}

func (e *storageError) Error() string { return fmt.Sprintf("images: %s: %v", e.op, e.cause) }

func (e *storageError) Unwrap() []error { return []error{ErrStorageUnavailable, e.cause} }

func unavailable(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrStorageUnavailable) || errors.Is(err, ErrNotFound) || errors.Is(err, ErrExists) {
		return err
	}
	return &storageError{op: op, cause: err}
}
