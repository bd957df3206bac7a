// Package disk implements the virtual disk: a host directory that every
// file-producing operation of the shell is confined to.
//
// This file contains error types and error handling utilities.
package disk

import (
	"errors"
	"fmt"
	"os"
	"syscall"

	"darkoos/internal/logging"
)

var (
	errLogger = logging.GetLogger().WithPrefix("disk-error")

	// ErrNotFound indicates a path doesn't exist under the root
	ErrNotFound = errors.New("not found")

	// ErrNameConflict indicates the target name is already taken
	ErrNameConflict = errors.New("already exists")

	// ErrNotEmpty indicates attempt to remove non-empty directory
	ErrNotEmpty = errors.New("directory not empty")

	// ErrInvalidName indicates a name or path that is rejected by validation
	// or would resolve outside the root
	ErrInvalidName = errors.New("invalid name")

	// ErrIsDirectory indicates a file operation was attempted on a directory
	ErrIsDirectory = errors.New("is a directory")

	// ErrIO indicates a permission or host failure
	ErrIO = errors.New("i/o error")
)

// Error wraps disk errors with context about the operation and the
// root-relative path involved.
type Error struct {
	Op   string // Operation that failed (e.g., "mkdir", "remove")
	Path string // Root-relative path
	Err  error  // Underlying error
}

// Error implements the error interface, providing a formatted error message
func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap implements error unwrapping for the errors.Is/As functions
func (e *Error) Unwrap() error {
	return e.Err
}

// newError creates a new Error with the given operation, path, and underlying error
func newError(op string, path string, err error) *Error {
	dErr := &Error{
		Op:   op,
		Path: path,
		Err:  err,
	}
	errLogger.Debug("Created disk error: %v", dErr)
	return dErr
}

// fromOS translates a host error into the disk taxonomy.
func fromOS(op string, path string, err error) error {
	if err == nil {
		return nil
	}

	// ENOTEMPTY also matches os.ErrExist, so it must be checked first.
	switch {
	case errors.Is(err, syscall.ENOTEMPTY):
		return newError(op, path, ErrNotEmpty)
	case errors.Is(err, os.ErrNotExist):
		return newError(op, path, ErrNotFound)
	case errors.Is(err, os.ErrExist):
		return newError(op, path, ErrNameConflict)
	case errors.Is(err, syscall.EISDIR):
		return newError(op, path, ErrIsDirectory)
	default:
		errLogger.Trace("Unclassified host error for %s %s: %v", op, path, err)
		return newError(op, path, ioError(err))
	}
}

// Common operation names for consistent logging and error reporting
const (
	OpEnsureRoot = "ensure-root" // Creating the root directory
	OpResolve    = "resolve"     // Resolving a path under the root
	OpList       = "list"        // Listing a directory
	OpCreate     = "create"      // Creating a new file
	OpMkdir      = "mkdir"       // Creating a new directory
	OpRemove     = "remove"      // Removing a file or directory
	OpRename     = "rename"      // Renaming a file or directory
	OpRead       = "read"        // Reading a file
	OpWrite      = "write"       // Writing a file
	OpStat       = "stat"        // Getting file attributes
)

// ioError marks a host failure as ErrIO while keeping the cause.
func ioError(cause error) error {
	return fmt.Errorf("%w: %w", ErrIO, cause)
}
