package repository

import (
	"errors"
	"fmt"
)

// ErrVersionConflict indicates optimistic lock failure: the record's version
// advanced since the writer last read it.
var ErrVersionConflict = errors.New("version conflict")

// ErrNotFound indicates an unknown record, share or user id.
var ErrNotFound = errors.New("not found")

// ErrDuplicate indicates a uniqueness violation, currently only user email.
var ErrDuplicate = errors.New("already exists")

// StorageError wraps a persistence backend failure. Callers may retry a
// bounded number of times before surfacing it as a transient failure.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("storage %s: %v", e.Op, e.Err) }
func (e *StorageError) Unwrap() error { return e.Err }

// Storage wraps err as a StorageError unless it already carries one of the
// repository sentinels.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrVersionConflict) || errors.Is(err, ErrDuplicate) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}
