package disk

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"darkoos/internal/logging"
)

var (
	diskLogger = logging.GetLogger().WithPrefix("disk")
)

// ReservedExt marks a file as a launchable pseudo-program reference.
const ReservedExt = ".drk"

// TextExt is appended to files created through CreateEntry.
const TextExt = ".txt"

// EntryKind classifies a directory entry.
type EntryKind int

const (
	// KindFile is a plain data file
	KindFile EntryKind = iota
	// KindFolder is a directory
	KindFolder
	// KindProgram is a regular file carrying the reserved extension
	KindProgram
)

// String returns a short name for the kind
func (k EntryKind) String() string {
	switch k {
	case KindFolder:
		return "folder"
	case KindProgram:
		return "program"
	default:
		return "file"
	}
}

// Entry is one item of a directory listing.
type Entry struct {
	Name string
	Kind EntryKind
}

// Options configures capacity accounting for a VirtualDisk.
type Options struct {
	// CapacityBytes is the configured size of the disk
	CapacityBytes int64
	// OverheadBytes is a fixed amount reported as used by the "system"
	OverheadBytes int64
	// SystemFiles are host files outside the root whose sizes count as
	// system overhead when they exist
	SystemFiles []string
}

// VirtualDisk is a sandboxed directory on the host filesystem.
// The root is fixed at construction and every path the disk accepts is
// resolved inside it.
type VirtualDisk struct {
	root string
	opts Options
}

// New creates a VirtualDisk rooted at root. The directory is not touched
// until EnsureRoot is called.
func New(root string, opts Options) (*VirtualDisk, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, newError(OpEnsureRoot, root, ioError(err))
	}
	diskLogger.Debug("Virtual disk root: %s (capacity %d bytes)", abs, opts.CapacityBytes)
	return &VirtualDisk{root: abs, opts: opts}, nil
}

// Root returns the absolute host path of the disk root.
func (d *VirtualDisk) Root() string {
	return d.root
}

// Capacity returns the configured capacity in bytes.
func (d *VirtualDisk) Capacity() int64 {
	return d.opts.CapacityBytes
}

// EnsureRoot creates the root directory if it is missing. It fails with
// ErrIO when the root exists as a non-directory or cannot be written.
func (d *VirtualDisk) EnsureRoot() error {
	info, err := os.Stat(d.root)
	switch {
	case err == nil && !info.IsDir():
		diskLogger.Error("Disk root exists but is not a directory: %s", d.root)
		return newError(OpEnsureRoot, d.root, ioError(errors.New("not a directory")))
	case err != nil && !errors.Is(err, os.ErrNotExist):
		return newError(OpEnsureRoot, d.root, ioError(err))
	case err != nil:
		diskLogger.Info("Creating disk root: %s", d.root)
		if mkErr := os.MkdirAll(d.root, 0755); mkErr != nil {
			return newError(OpEnsureRoot, d.root, ioError(mkErr))
		}
	}

	// Probe for write access
	probe, err := os.CreateTemp(d.root, ".probe-*")
	if err != nil {
		diskLogger.Error("Disk root is not writable: %v", err)
		return newError(OpEnsureRoot, d.root, ioError(err))
	}
	probe.Close()
	if err := os.Remove(probe.Name()); err != nil {
		diskLogger.Warn("Failed to remove write probe %s: %v", probe.Name(), err)
	}
	return nil
}

// resolve parses a caller path and returns it with its host location.
// The parent of the location must resolve inside the root; the final
// component itself may be a symlink, which is acted on but not followed.
func (d *VirtualDisk) resolve(op, path string) (Path, string, error) {
	p, err := ParsePath(path)
	if err != nil {
		return Path{}, "", newError(op, path, err)
	}
	full := p.FullPath(d.root)
	if !p.IsRoot() && !d.within(filepath.Dir(full)) {
		diskLogger.Warn("Path %q leaves the disk root through a symlink", p.String())
		return Path{}, "", newError(op, p.String(), ErrInvalidName)
	}
	return p, full, nil
}

// follow is resolve for operations that read through the final component.
func (d *VirtualDisk) follow(op, path string) (Path, string, error) {
	p, full, err := d.resolve(op, path)
	if err != nil {
		return Path{}, "", err
	}
	if !d.within(full) {
		diskLogger.Warn("Path %q leaves the disk root through a symlink", p.String())
		return Path{}, "", newError(op, p.String(), ErrInvalidName)
	}
	return p, full, nil
}

// within reports whether the host path full, with symlinks resolved, stays
// under the root. Missing trailing components are skipped; a dangling
// symlink counts as outside.
func (d *VirtualDisk) within(full string) bool {
	root, err := filepath.EvalSymlinks(d.root)
	if err != nil {
		root = d.root
	}

	cur := full
	for {
		resolved, err := filepath.EvalSymlinks(cur)
		if err == nil {
			rel, err := filepath.Rel(root, resolved)
			return err == nil && filepath.IsLocal(rel)
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return false
		}
		if _, err := os.Lstat(cur); err == nil {
			return false
		}
		if cur == d.root {
			return true
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return false
		}
		cur = parent
	}
}

// Abs resolves a root-relative path to its host location.
func (d *VirtualDisk) Abs(path string) (string, error) {
	_, full, err := d.follow(OpResolve, path)
	return full, err
}

// Stat returns host file info for a root-relative path. A symlink in the
// final component is reported as such, not followed.
func (d *VirtualDisk) Stat(path string) (os.FileInfo, error) {
	p, full, err := d.resolve(OpStat, path)
	if err != nil {
		return nil, err
	}
	info, err := os.Lstat(full)
	if err != nil {
		return nil, fromOS(OpStat, p.String(), err)
	}
	return info, nil
}

// parentDir resolves dir and checks that it is an existing directory.
func (d *VirtualDisk) parentDir(op, dir string) (Path, error) {
	p, full, err := d.follow(op, dir)
	if err != nil {
		return Path{}, err
	}
	info, err := os.Stat(full)
	if err != nil {
		return Path{}, fromOS(op, p.String(), err)
	}
	if !info.IsDir() {
		return Path{}, newError(op, p.String(), ErrNotFound)
	}
	return p, nil
}

// CreateEntry creates a folder, or an empty text file named name+".txt",
// inside parentDir.
func (d *VirtualDisk) CreateEntry(kind EntryKind, name, parentDir string) error {
	switch kind {
	case KindFolder:
		return d.Mkdir(name, parentDir)
	case KindFile:
		if err := ValidateName(name); err != nil {
			return newError(OpCreate, name, err)
		}
		return d.CreateFile(name+TextExt, parentDir)
	default:
		return newError(OpCreate, name, ErrInvalidName)
	}
}

// Mkdir creates a folder called name inside parentDir.
func (d *VirtualDisk) Mkdir(name, parentDir string) error {
	if err := ValidateName(name); err != nil {
		return newError(OpMkdir, name, err)
	}
	parent, err := d.parentDir(OpMkdir, parentDir)
	if err != nil {
		return err
	}

	target := parent.Join(name)
	diskLogger.Info("Creating folder %q", target.String())
	if err := os.Mkdir(target.FullPath(d.root), 0755); err != nil {
		return fromOS(OpMkdir, target.String(), err)
	}
	return nil
}

// CreateFile creates an empty file with exactly the given name inside
// parentDir.
func (d *VirtualDisk) CreateFile(name, parentDir string) error {
	if err := ValidateName(name); err != nil {
		return newError(OpCreate, name, err)
	}
	parent, err := d.parentDir(OpCreate, parentDir)
	if err != nil {
		return err
	}

	target := parent.Join(name)
	diskLogger.Info("Creating file %q", target.String())
	f, err := os.OpenFile(target.FullPath(d.root), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return fromOS(OpCreate, target.String(), err)
	}
	if err := f.Close(); err != nil {
		return fromOS(OpCreate, target.String(), err)
	}
	return nil
}

// DeleteEntry removes a file, or a directory if it is empty.
func (d *VirtualDisk) DeleteEntry(path string) error {
	p, full, err := d.resolve(OpRemove, path)
	if err != nil {
		return err
	}
	if p.IsRoot() {
		return newError(OpRemove, path, ErrInvalidName)
	}

	info, err := os.Lstat(full)
	if err != nil {
		return fromOS(OpRemove, p.String(), err)
	}

	if info.IsDir() {
		empty, err := isEmptyDir(full)
		if err != nil {
			return fromOS(OpRemove, p.String(), err)
		}
		if !empty {
			diskLogger.Warn("Directory not empty: %q", p.String())
			return newError(OpRemove, p.String(), ErrNotEmpty)
		}
	}

	diskLogger.Info("Removing %q (dir=%v)", p.String(), info.IsDir())
	if err := os.Remove(full); err != nil {
		return fromOS(OpRemove, p.String(), err)
	}
	return nil
}

func isEmptyDir(full string) (bool, error) {
	f, err := os.Open(full)
	if err != nil {
		return false, err
	}
	defer f.Close()

	_, err = f.Readdirnames(1)
	if errors.Is(err, io.EOF) {
		return true, nil
	}
	return false, err
}

// RenameEntry renames the entry at oldPath to newName within the same
// directory. Renaming an entry to its current name is a no-op.
func (d *VirtualDisk) RenameEntry(oldPath, newName string) error {
	old, oldFull, err := d.resolve(OpRename, oldPath)
	if err != nil {
		return err
	}
	if old.IsRoot() {
		return newError(OpRename, oldPath, ErrInvalidName)
	}
	if _, err := os.Lstat(oldFull); err != nil {
		return fromOS(OpRename, old.String(), err)
	}
	if newName == old.Base() {
		diskLogger.Debug("Rename of %q to its own name ignored", old.String())
		return nil
	}
	if err := ValidateName(newName); err != nil {
		return newError(OpRename, newName, err)
	}

	target := old.Parent().Join(newName)
	targetFull := target.FullPath(d.root)
	if _, err := os.Lstat(targetFull); err == nil {
		return newError(OpRename, target.String(), ErrNameConflict)
	} else if !errors.Is(err, os.ErrNotExist) {
		return fromOS(OpRename, target.String(), err)
	}

	diskLogger.Info("Renaming %q to %q", old.String(), target.String())
	if err := os.Rename(oldFull, targetFull); err != nil {
		return fromOS(OpRename, old.String(), err)
	}
	return nil
}

// ListEntries returns the entries of dir sorted by name.
func (d *VirtualDisk) ListEntries(dir string) ([]Entry, error) {
	p, full, err := d.follow(OpList, dir)
	if err != nil {
		return nil, err
	}

	dirEntries, err := os.ReadDir(full)
	if err != nil {
		return nil, fromOS(OpList, p.String(), err)
	}

	entries := make([]Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		entries = append(entries, Entry{Name: de.Name(), Kind: kindOf(de)})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name < entries[j].Name
	})

	diskLogger.Debug("Directory %q contains %d entries", p.String(), len(entries))
	return entries, nil
}

func kindOf(de fs.DirEntry) EntryKind {
	switch {
	case de.IsDir():
		return KindFolder
	case strings.HasSuffix(de.Name(), ReservedExt):
		return KindProgram
	default:
		return KindFile
	}
}

// ReadFile returns the content of a regular file.
func (d *VirtualDisk) ReadFile(path string) (string, error) {
	p, full, err := d.follow(OpRead, path)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(full)
	if err != nil {
		return "", fromOS(OpRead, p.String(), err)
	}
	if info.IsDir() {
		return "", newError(OpRead, p.String(), ErrIsDirectory)
	}

	data, err := os.ReadFile(full)
	if err != nil {
		return "", fromOS(OpRead, p.String(), err)
	}
	return string(data), nil
}

// WriteFile replaces the content of the file at path, creating it if needed.
// The parent directory must already exist.
func (d *VirtualDisk) WriteFile(path, content string) error {
	p, full, err := d.follow(OpWrite, path)
	if err != nil {
		return err
	}
	if p.IsRoot() {
		return newError(OpWrite, path, ErrIsDirectory)
	}
	if info, err := os.Stat(full); err == nil && info.IsDir() {
		return newError(OpWrite, p.String(), ErrIsDirectory)
	}

	diskLogger.Info("Writing %d bytes to %q", len(content), p.String())
	if err := os.WriteFile(full, []byte(content), 0644); err != nil {
		return fromOS(OpWrite, p.String(), err)
	}
	return nil
}
