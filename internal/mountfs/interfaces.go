package mountfs

import (
	"bazil.org/fuse/fs"
)

// Directory is the set of FUSE operations a disk folder serves
type Directory interface {
	fs.Node
	fs.NodeStringLookuper
	fs.HandleReadDirAller
	fs.NodeMkdirer
	fs.NodeRemover
	fs.NodeRenamer
}

// FileNode is the set of FUSE operations a disk file serves
type FileNode interface {
	fs.Node
	fs.NodeOpener
}

// FileHandleInterface represents an open file handle
type FileHandleInterface interface {
	fs.Handle
	fs.HandleReader
	fs.HandleReleaser
}

var (
	_ fs.FS               = (*DiskFS)(nil)
	_ fs.FSStatfser       = (*DiskFS)(nil)
	_ Directory           = (*Dir)(nil)
	_ FileNode            = (*File)(nil)
	_ FileHandleInterface = (*FileHandle)(nil)
)
