// Package mountfs exposes the virtual disk as a FUSE filesystem so the host
// can browse it while the desktop is running.
package mountfs

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"bazil.org/fuse"
	fusefs "bazil.org/fuse/fs"

	"darkoos/internal/disk"
	"darkoos/internal/logging"
)

var (
	vfsLogger = logging.GetLogger().WithPrefix("mountfs")
)

// blockSize is the block size reported to statfs and stat.
const blockSize = 4096

// DiskFS serves a VirtualDisk over FUSE. Every mutation goes through the
// disk's own operations, so name validation and root confinement apply to
// the mount exactly as they do to the shell.
type DiskFS struct {
	disk *disk.VirtualDisk
	conn *fuse.Conn
	done chan struct{}
	uid  uint32
	gid  uint32
}

// New creates a filesystem for vd. Files are owned by the current user
// unless PUID/PGID are set.
func New(vd *disk.VirtualDisk) *DiskFS {
	uid := safeIntToUint32(os.Getuid())
	gid := safeIntToUint32(os.Getgid())

	if puidStr := os.Getenv("PUID"); puidStr != "" {
		if puid, err := strconv.ParseUint(puidStr, 10, 32); err == nil {
			uid = uint32(puid)
			vfsLogger.Debug("Using PUID from environment: %d", uid)
		}
	}
	if pgidStr := os.Getenv("PGID"); pgidStr != "" {
		if pgid, err := strconv.ParseUint(pgidStr, 10, 32); err == nil {
			gid = uint32(pgid)
			vfsLogger.Debug("Using PGID from environment: %d", gid)
		}
	}

	return &DiskFS{disk: vd, uid: uid, gid: gid}
}

// Root implements the fusefs.FS interface, returning the root directory node.
func (dfs *DiskFS) Root() (fusefs.Node, error) {
	vfsLogger.Trace("Getting root directory node")
	return &Dir{fs: dfs}, nil
}

// Statfs reports the configured capacity and the free space of the disk.
func (dfs *DiskFS) Statfs(_ context.Context, _ *fuse.StatfsRequest, resp *fuse.StatfsResponse) error {
	snap := dfs.disk.Usage()
	vfsLogger.Trace("Statfs: used=%d free=%d total=%d", snap.Used, snap.Free, snap.Total)

	resp.Bsize = blockSize
	resp.Frsize = blockSize
	resp.Blocks = safeInt64ToUint64(snap.Total / blockSize)
	resp.Bfree = safeInt64ToUint64(snap.Free / blockSize)
	resp.Bavail = resp.Bfree
	resp.Namelen = 255
	return nil
}

func waitForMount(mountpoint string) error {
	for i := 0; i < 30; i++ {
		info, err := os.Stat(mountpoint)
		if err == nil && info.IsDir() {
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}
	return fmt.Errorf("mount point not available after 3 seconds")
}

// Mount mounts the disk at mountPoint and serves it in the background.
func (dfs *DiskFS) Mount(mountPoint string) error {
	vfsLogger.Info("Mounting virtual disk")
	vfsLogger.Debug("Mount point: %s", mountPoint)
	vfsLogger.Debug("Disk root: %s", dfs.disk.Root())
	vfsLogger.Debug("UID: %d, GID: %d", dfs.uid, dfs.gid)

	if _, err := os.ReadDir(dfs.disk.Root()); err != nil {
		vfsLogger.Error("Cannot read disk root: %v", err)
		return fmt.Errorf("disk root not readable: %w", err)
	}

	mountOpts := []fuse.MountOption{
		fuse.FSName("darkoos"),
		fuse.Subtype("darkoos"),
		fuse.DefaultPermissions(),
		fuse.AsyncRead(),
	}

	c, err := fuse.Mount(mountPoint, mountOpts...)
	if err != nil {
		return fmt.Errorf("mount failed: %w", err)
	}
	dfs.conn = c
	dfs.done = make(chan struct{})

	go func() {
		defer close(dfs.done)
		if err := fusefs.Serve(c, dfs); err != nil {
			vfsLogger.Error("FUSE server error: %v", err)
		}
	}()

	if err := waitForMount(mountPoint); err != nil {
		c.Close()
		vfsLogger.Error("Mount point not ready: %v", err)
		return fmt.Errorf("mount point failed to initialize: %w", err)
	}

	vfsLogger.Info("Virtual disk mounted at %s", mountPoint)
	return nil
}

// Done is closed when the FUSE server stops serving. It is nil before
// Mount.
func (dfs *DiskFS) Done() <-chan struct{} {
	return dfs.done
}

// Unmount detaches the filesystem and closes the FUSE connection.
func (dfs *DiskFS) Unmount(mountPoint string) error {
	vfsLogger.Info("Unmounting filesystem from: %s", mountPoint)
	if dfs.conn == nil {
		return nil
	}

	err := fuse.Unmount(mountPoint)
	if err != nil {
		vfsLogger.Error("Unmount failed: %v", err)
		return err
	}
	if closeErr := dfs.conn.Close(); closeErr != nil {
		vfsLogger.Warn("Failed to close FUSE connection: %v", closeErr)
	}
	dfs.conn = nil
	vfsLogger.Info("Unmount completed successfully")
	return nil
}

func safeInt64ToUint64(n int64) uint64 {
	if n < 0 {
		return 0
	}
	return uint64(n)
}

func safeIntToUint32(n int) uint32 {
	if n < 0 {
		return 0
	}
	return uint32(n)
}
