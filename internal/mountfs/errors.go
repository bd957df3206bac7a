package mountfs

import (
	"errors"
	"os"
	"syscall"

	"darkoos/internal/disk"
	"darkoos/internal/logging"
)

var (
	errLogger = logging.GetLogger().WithPrefix("fuse-error")

	// ErrReadOnly indicates an attempt to open a file for writing
	ErrReadOnly = errors.New("files are read-only through the mount")

	// ErrCrossDirectory indicates a rename into another directory
	ErrCrossDirectory = errors.New("rename across directories is not supported")

	// ErrNotRegular indicates an attempt to open a symlink or device
	ErrNotRegular = errors.New("not a regular file")
)

// ToFuseError converts a disk error to the errno FUSE expects.
func ToFuseError(err error) error {
	if err == nil {
		return nil
	}

	var diskErr *disk.Error
	if errors.As(err, &diskErr) {
		errLogger.Trace("Converting disk error to FUSE error: %v", diskErr)
	}

	switch {
	case errors.Is(err, disk.ErrNotFound):
		return syscall.ENOENT
	case errors.Is(err, disk.ErrNameConflict):
		return syscall.EEXIST
	case errors.Is(err, disk.ErrNotEmpty):
		return syscall.ENOTEMPTY
	case errors.Is(err, disk.ErrInvalidName):
		return syscall.EINVAL
	case errors.Is(err, disk.ErrIsDirectory):
		return syscall.EISDIR
	case errors.Is(err, ErrReadOnly):
		return syscall.EROFS
	case errors.Is(err, ErrCrossDirectory):
		return syscall.EXDEV
	case errors.Is(err, ErrNotRegular):
		return syscall.EACCES
	case errors.Is(err, os.ErrPermission):
		return syscall.EACCES
	default:
		errLogger.Debug("Unmapped error, returning EIO: %v", err)
		return syscall.EIO
	}
}
