package storage

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by every provider. Callers branch with
// errors.Is; the person-photo cache treats ErrNotFound as a cache miss,
// not a failure.
var (
	// ErrNotFound is returned when a requested object doesn't exist.
	ErrNotFound = errors.New("object not found")

	// ErrKeyExists is returned when writing to an occupied key with
	// overwrite disabled.
	ErrKeyExists = errors.New("object already exists at this key")

	// ErrInvalidKey is returned for keys that are empty, absolute, or
	// attempt path traversal.
	ErrInvalidKey = errors.New("invalid storage key")

	// ErrTooLarge is returned when an object exceeds PutOptions.MaxSize.
	ErrTooLarge = errors.New("object exceeds maximum size")

	// ErrAccessDenied is returned when the provider rejects the
	// credentials or the object's ACL forbids the operation.
	ErrAccessDenied = errors.New("access denied")
)

// StorageError carries the failed operation and key alongside the
// underlying cause, so a log line can say which product image or cached
// photo was involved. It unwraps to the sentinel for errors.Is checks.
type StorageError struct {
	Op  string // "Put", "Get", "Delete"
	Key string
	Err error
}

func (e *StorageError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("storage %s %q: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
