package repository

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")

	// ErrDuplicate is returned when a unique constraint rejects an insert
	ErrDuplicate = errors.New("duplicate")

	// ErrStorage matches every StorageError under errors.Is
	ErrStorage = errors.New("storage error")
)

// StorageError wraps a backing-store failure (connectivity, unexpected
// constraint violations, scan errors). Expected outcomes such as
// ErrNotFound and ErrDuplicate are never wrapped in a StorageError.
type StorageError struct {
	Op  string
	Err error
}

// NewStorageError wraps err with the failed operation name.
func NewStorageError(op string, err error) *StorageError {
	return &StorageError{Op: op, Err: err}
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrStorage.
func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}
