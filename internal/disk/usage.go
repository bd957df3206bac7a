package disk

import (
	"io/fs"
	"os"
	"path/filepath"
)

// Snapshot is a point-in-time view of disk usage, in bytes.
type Snapshot struct {
	Used  int64
	Free  int64
	Total int64
}

// Usage walks the whole root and reports used/free/total space. Entries
// that cannot be read contribute nothing; Usage never fails.
func (d *VirtualDisk) Usage() Snapshot {
	used := d.Overhead() + d.walkSize()

	free := d.opts.CapacityBytes - used
	if free < 0 {
		free = 0
	}

	snap := Snapshot{
		Used:  used,
		Free:  free,
		Total: d.opts.CapacityBytes,
	}
	diskLogger.Trace("Usage: used=%d free=%d total=%d", snap.Used, snap.Free, snap.Total)
	return snap
}

// Overhead returns the reserved system overhead: the fixed amount plus the
// current size of every configured system file that exists.
func (d *VirtualDisk) Overhead() int64 {
	total := d.opts.OverheadBytes
	for _, name := range d.opts.SystemFiles {
		info, err := os.Stat(name)
		if err != nil {
			diskLogger.Trace("System file %s not counted: %v", name, err)
			continue
		}
		if info.Mode().IsRegular() {
			total += info.Size()
		}
	}
	return total
}

func (d *VirtualDisk) walkSize() int64 {
	var total int64
	err := filepath.WalkDir(d.root, func(path string, de fs.DirEntry, err error) error {
		if err != nil {
			diskLogger.Debug("Skipping unreadable path %q: %v", path, err)
			if de != nil && de.IsDir() && path != d.root {
				return filepath.SkipDir
			}
			return nil
		}
		if !de.Type().IsRegular() {
			return nil
		}
		info, err := de.Info()
		if err != nil {
			diskLogger.Debug("Skipping %q: %v", path, err)
			return nil
		}
		total += info.Size()
		return nil
	})
	if err != nil {
		diskLogger.Warn("Disk walk stopped early: %v", err)
	}
	return total
}
