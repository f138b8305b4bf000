package store

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes storage errors.
type ErrorCode string

const (
	// CodePermissionDenied indicates a mutation attempted without an owner.
	CodePermissionDenied ErrorCode = "PERMISSION_DENIED"

	// CodeNotFound indicates the target row does not exist for the given
	// owner. An item owned by someone else reports not-found, never its
	// existence.
	CodeNotFound ErrorCode = "NOT_FOUND"

	// CodeIO indicates an underlying database failure.
	CodeIO ErrorCode = "IO"
)

// StorageError is the error type surfaced by store operations.
//
// Mutation callers log it and show a transient message; subscription setup
// callers transition to their error state. Nothing here is fatal.
type StorageError struct {
	Code ErrorCode
	Op   string // operation that failed, e.g. "insert item"
	Err  error  // underlying cause (optional)
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Op)
}

// Unwrap returns the underlying cause.
func (e *StorageError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is a not-found storage error.
// Uses errors.As to handle wrapped errors.
func IsNotFound(err error) bool {
	var se *StorageError
	return errors.As(err, &se) && se.Code == CodeNotFound
}

// IsPermissionDenied reports whether err is a permission storage error.
func IsPermissionDenied(err error) bool {
	var se *StorageError
	return errors.As(err, &se) && se.Code == CodePermissionDenied
}

func ioError(op string, err error) *StorageError {
	return &StorageError{Code: CodeIO, Op: op, Err: err}
}

func notFound(op string) *StorageError {
	return &StorageError{Code: CodeNotFound, Op: op}
}
