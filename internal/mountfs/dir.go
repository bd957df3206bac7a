package mountfs

import (
	"context"
	"os"
	"syscall"

	"bazil.org/fuse"
	fusefs "bazil.org/fuse/fs"

	"darkoos/internal/disk"
	"darkoos/internal/logging"
)

var (
	dirLogger = logging.GetLogger().WithPrefix("dir")
)

// Dir is a folder of the virtual disk.
type Dir struct {
	fs   *DiskFS
	path disk.Path
}

// Attr implements the Node interface, returning directory attributes.
func (d *Dir) Attr(_ context.Context, a *fuse.Attr) error {
	dirLogger.Trace("Getting attributes for directory: %q", d.path.String())

	a.Mode = os.ModeDir | 0755
	a.Uid = d.fs.uid
	a.Gid = d.fs.gid

	info, err := d.fs.disk.Stat(d.path.String())
	if err != nil {
		return ToFuseError(err)
	}
	a.Mtime = info.ModTime()
	a.Atime = info.ModTime()
	a.Ctime = info.ModTime()
	return nil
}

func (d *Dir) child(name string) disk.Path {
	return d.path.Join(name)
}

// Lookup implements the NodeStringLookuper interface, finding a child node.
func (d *Dir) Lookup(_ context.Context, name string) (fusefs.Node, error) {
	dirLogger.Debug("Looking up %q in directory %q", name, d.path.String())

	if err := disk.ValidateName(name); err != nil {
		return nil, syscall.ENOENT
	}

	childPath := d.child(name)
	info, err := d.fs.disk.Stat(childPath.String())
	if err != nil {
		dirLogger.Debug("Path not found: %q", childPath.String())
		return nil, ToFuseError(err)
	}

	if info.IsDir() {
		return &Dir{fs: d.fs, path: childPath}, nil
	}
	return &File{fs: d.fs, path: childPath}, nil
}

// ReadDirAll implements the HandleReadDirAller interface, listing directory contents.
func (d *Dir) ReadDirAll(_ context.Context) ([]fuse.Dirent, error) {
	dirLogger.Debug("Reading directory contents: %q", d.path.String())

	listing, err := d.fs.disk.ListEntries(d.path.String())
	if err != nil {
		return nil, ToFuseError(err)
	}

	entries := make([]fuse.Dirent, 0, len(listing)+2)
	entries = append(entries, fuse.Dirent{Name: ".", Type: fuse.DT_Dir})
	entries = append(entries, fuse.Dirent{Name: "..", Type: fuse.DT_Dir})

	for _, e := range listing {
		typ := fuse.DT_File
		if e.Kind == disk.KindFolder {
			typ = fuse.DT_Dir
		}
		entries = append(entries, fuse.Dirent{Name: e.Name, Type: typ})
	}

	dirLogger.Debug("Directory %q contains %d entries", d.path.String(), len(entries))
	return entries, nil
}

// Mkdir implements the NodeMkdirer interface, creating a folder on the disk.
func (d *Dir) Mkdir(_ context.Context, req *fuse.MkdirRequest) (fusefs.Node, error) {
	dirLogger.Info("Creating new directory %q in %q", req.Name, d.path.String())

	if err := d.fs.disk.Mkdir(req.Name, d.path.String()); err != nil {
		dirLogger.Warn("Mkdir failed: %v", err)
		return nil, ToFuseError(err)
	}
	return &Dir{fs: d.fs, path: d.child(req.Name)}, nil
}

// Remove implements the NodeRemover interface. Folders must be empty.
func (d *Dir) Remove(_ context.Context, req *fuse.RemoveRequest) error {
	dirLogger.Info("Removing %q from directory %q (isDir=%v)",
		req.Name, d.path.String(), req.Dir)

	childPath := d.child(req.Name)
	info, err := d.fs.disk.Stat(childPath.String())
	if err != nil {
		return ToFuseError(err)
	}
	switch {
	case req.Dir && !info.IsDir():
		return syscall.ENOTDIR
	case !req.Dir && info.IsDir():
		return syscall.EISDIR
	}

	if err := d.fs.disk.DeleteEntry(childPath.String()); err != nil {
		dirLogger.Warn("Remove failed: %v", err)
		return ToFuseError(err)
	}
	return nil
}

// Rename implements the NodeRenamer interface. Only renames within one
// directory are supported.
func (d *Dir) Rename(_ context.Context, req *fuse.RenameRequest, newDir fusefs.Node) error {
	dirLogger.Info("Renaming %q to %q", req.OldName, req.NewName)

	target, ok := newDir.(*Dir)
	if !ok {
		dirLogger.Error("Target is not a valid directory type")
		return syscall.EINVAL
	}
	if target.path != d.path {
		dirLogger.Warn("Cross-directory rename from %q to %q refused", d.path.String(), target.path.String())
		return ToFuseError(ErrCrossDirectory)
	}

	if err := d.fs.disk.RenameEntry(d.child(req.OldName).String(), req.NewName); err != nil {
		dirLogger.Warn("Rename failed: %v", err)
		return ToFuseError(err)
	}
	return nil
}
