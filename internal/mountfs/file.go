package mountfs

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"

	"bazil.org/fuse"
	fusefs "bazil.org/fuse/fs"

	"darkoos/internal/disk"
	"darkoos/internal/logging"
)

var (
	fileLogger = logging.GetLogger().WithPrefix("file")
)

// File is a file of the virtual disk. Files are read-only through the
// mount.
type File struct {
	fs   *DiskFS
	path disk.Path
}

// Attr implements the Node interface, returning the file's attributes.
func (f *File) Attr(_ context.Context, a *fuse.Attr) error {
	fileLogger.Trace("Getting attributes for file: %q", f.path.String())

	info, err := f.fs.disk.Stat(f.path.String())
	if err != nil {
		return ToFuseError(err)
	}

	a.Mode = info.Mode() &^ 0222
	a.Size = safeInt64ToUint64(info.Size())
	a.Mtime = info.ModTime()
	a.Atime = info.ModTime()
	a.Ctime = info.ModTime()
	a.Uid = f.fs.uid
	a.Gid = f.fs.gid
	a.BlockSize = blockSize
	a.Blocks = safeInt64ToUint64((info.Size() + 511) / 512)
	return nil
}

// Open implements the NodeOpener interface. Write access is refused.
func (f *File) Open(_ context.Context, req *fuse.OpenRequest, resp *fuse.OpenResponse) (fusefs.Handle, error) {
	fileLogger.Debug("Opening file %q with flags %v", f.path.String(), req.Flags)

	if !req.Flags.IsReadOnly() {
		fileLogger.Warn("Attempted write access to read-only file: %q", f.path.String())
		return nil, ToFuseError(ErrReadOnly)
	}

	info, err := f.fs.disk.Stat(f.path.String())
	if err != nil {
		return nil, ToFuseError(err)
	}
	if !info.Mode().IsRegular() {
		return nil, ToFuseError(ErrNotRegular)
	}

	full, err := f.fs.disk.Abs(f.path.String())
	if err != nil {
		return nil, ToFuseError(err)
	}
	file, err := os.Open(full)
	if err != nil {
		fileLogger.Error("Failed to open file: %v", err)
		return nil, ToFuseError(err)
	}

	resp.Flags |= fuse.OpenDirectIO
	return &FileHandle{file: file, path: f.path.String()}, nil
}

// FileHandle is an open file of the disk.
type FileHandle struct {
	file *os.File
	path string
	mu   sync.Mutex
}

// Read implements the HandleReader interface, reading data from the file.
func (fh *FileHandle) Read(_ context.Context, req *fuse.ReadRequest, resp *fuse.ReadResponse) error {
	fh.mu.Lock()
	defer fh.mu.Unlock()

	fileLogger.Trace("Reading %d bytes from file %q at offset %d",
		req.Size, fh.path, req.Offset)

	resp.Data = make([]byte, req.Size)
	n, err := fh.file.ReadAt(resp.Data, req.Offset)
	if err != nil && !errors.Is(err, io.EOF) {
		fileLogger.Error("Failed to read from file: %v", err)
		return ToFuseError(err)
	}

	resp.Data = resp.Data[:n]
	return nil
}

// Release implements the HandleReleaser interface, closing the file handle.
func (fh *FileHandle) Release(_ context.Context, _ *fuse.ReleaseRequest) error {
	fh.mu.Lock()
	defer fh.mu.Unlock()

	fileLogger.Debug("Closing file %q", fh.path)
	return fh.file.Close()
}
