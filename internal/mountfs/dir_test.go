package mountfs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"syscall"
	"testing"

	"bazil.org/fuse"

	"darkoos/internal/disk"
)

func setupTestFS(t *testing.T) (*DiskFS, string, func()) {
	sourceDir, err := os.MkdirTemp("", "darkoos-disk-*")
	if err != nil {
		t.Fatalf("Failed to create disk dir: %v", err)
	}

	vd, err := disk.New(sourceDir, disk.Options{CapacityBytes: 1 * disk.GiB})
	if err != nil {
		t.Fatalf("Failed to create virtual disk: %v", err)
	}
	if err := vd.EnsureRoot(); err != nil {
		t.Fatalf("Failed to prepare disk root: %v", err)
	}

	cleanup := func() {
		os.RemoveAll(sourceDir)
	}
	return New(vd), sourceDir, cleanup
}

func rootDir(t *testing.T, dfs *DiskFS) *Dir {
	root, err := dfs.Root()
	if err != nil {
		t.Fatalf("Failed to get root: %v", err)
	}
	dir, ok := root.(*Dir)
	if !ok {
		t.Fatal("Root should be a Dir")
	}
	return dir
}

func TestDirOperations(t *testing.T) {
	dfs, sourceDir, cleanup := setupTestFS(t)
	defer cleanup()

	testFiles := []string{
		"file1.txt",
		"dir1/file2.txt",
		"dir1/dir2/file3.txt",
	}
	for _, tf := range testFiles {
		fullPath := filepath.Join(sourceDir, tf)
		if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
			t.Fatalf("Failed to create directory: %v", err)
		}
		if err := os.WriteFile(fullPath, []byte("test"), 0644); err != nil {
			t.Fatalf("Failed to create test file: %v", err)
		}
	}

	ctx := context.Background()

	t.Run("RootDirectory", func(t *testing.T) {
		dir := rootDir(t, dfs)

		attr := &fuse.Attr{}
		if err := dir.Attr(ctx, attr); err != nil {
			t.Errorf("Failed to get root attributes: %v", err)
		}
		if attr.Mode&os.ModeDir == 0 {
			t.Error("Root should be a directory")
		}

		entries, err := dir.ReadDirAll(ctx)
		if err != nil {
			t.Fatalf("Failed to read root directory: %v", err)
		}

		types := make(map[string]fuse.DirentType)
		for _, entry := range entries {
			types[entry.Name] = entry.Type
		}
		if types["dir1"] != fuse.DT_Dir {
			t.Errorf("dir1 should be listed as a directory, got %v", types["dir1"])
		}
		if types["file1.txt"] != fuse.DT_File {
			t.Errorf("file1.txt should be listed as a file, got %v", types["file1.txt"])
		}
	})

	t.Run("LookupNested", func(t *testing.T) {
		dir := rootDir(t, dfs)

		dir1, err := dir.Lookup(ctx, "dir1")
		if err != nil {
			t.Fatalf("Failed to lookup dir1: %v", err)
		}
		dir2, err := dir1.(*Dir).Lookup(ctx, "dir2")
		if err != nil {
			t.Fatalf("Failed to lookup dir2: %v", err)
		}
		file, err := dir2.(*Dir).Lookup(ctx, "file3.txt")
		if err != nil {
			t.Fatalf("Failed to lookup file3.txt: %v", err)
		}
		if _, ok := file.(*File); !ok {
			t.Errorf("file3.txt should be a File, got %T", file)
		}

		if _, err := dir.Lookup(ctx, "missing"); !errors.Is(err, syscall.ENOENT) {
			t.Errorf("Expected ENOENT for missing entry, got %v", err)
		}
	})

	t.Run("CreateDirectory", func(t *testing.T) {
		dir := rootDir(t, dfs)

		newDir, err := dir.Mkdir(ctx, &fuse.MkdirRequest{Name: "newdir"})
		if err != nil {
			t.Fatalf("Failed to create directory: %v", err)
		}

		attr := &fuse.Attr{}
		if err := newDir.Attr(ctx, attr); err != nil {
			t.Errorf("Failed to get new directory attributes: %v", err)
		}
		if attr.Mode&os.ModeDir == 0 {
			t.Error("Created node should be a directory")
		}

		if info, err := os.Stat(filepath.Join(sourceDir, "newdir")); err != nil || !info.IsDir() {
			t.Errorf("Directory should exist on the host: %v", err)
		}

		if _, err := dir.Mkdir(ctx, &fuse.MkdirRequest{Name: "newdir"}); !errors.Is(err, syscall.EEXIST) {
			t.Errorf("Expected EEXIST, got %v", err)
		}
		if _, err := dir.Mkdir(ctx, &fuse.MkdirRequest{Name: "bad\x01name"}); !errors.Is(err, syscall.EINVAL) {
			t.Errorf("Expected EINVAL, got %v", err)
		}
	})

	t.Run("RemoveDirectory", func(t *testing.T) {
		dir := rootDir(t, dfs)

		if _, err := dir.Mkdir(ctx, &fuse.MkdirRequest{Name: "todelete"}); err != nil {
			t.Fatalf("Failed to create directory: %v", err)
		}
		if err := dir.Remove(ctx, &fuse.RemoveRequest{Name: "todelete", Dir: true}); err != nil {
			t.Fatalf("Failed to remove directory: %v", err)
		}
		if _, err := dir.Lookup(ctx, "todelete"); err == nil {
			t.Error("Directory should not exist after removal")
		}

		if err := dir.Remove(ctx, &fuse.RemoveRequest{Name: "dir1", Dir: true}); !errors.Is(err, syscall.ENOTEMPTY) {
			t.Errorf("Expected ENOTEMPTY, got %v", err)
		}
		if err := dir.Remove(ctx, &fuse.RemoveRequest{Name: "file1.txt", Dir: true}); !errors.Is(err, syscall.ENOTDIR) {
			t.Errorf("Expected ENOTDIR, got %v", err)
		}
		if err := dir.Remove(ctx, &fuse.RemoveRequest{Name: "dir1"}); !errors.Is(err, syscall.EISDIR) {
			t.Errorf("Expected EISDIR, got %v", err)
		}
	})

	t.Run("RenameDirectory", func(t *testing.T) {
		dir := rootDir(t, dfs)

		if _, err := dir.Mkdir(ctx, &fuse.MkdirRequest{Name: "olddirname"}); err != nil {
			t.Fatalf("Failed to create directory: %v", err)
		}

		req := &fuse.RenameRequest{OldName: "olddirname", NewName: "newdirname"}
		if err := dir.Rename(ctx, req, dir); err != nil {
			t.Fatalf("Failed to rename directory: %v", err)
		}

		if _, err := dir.Lookup(ctx, "olddirname"); err == nil {
			t.Error("Old directory name should not exist after rename")
		}
		if _, err := dir.Lookup(ctx, "newdirname"); err != nil {
			t.Errorf("New directory name should exist after rename: %v", err)
		}
	})

	t.Run("RenameAcrossDirectories", func(t *testing.T) {
		dir := rootDir(t, dfs)
		target, err := dir.Lookup(ctx, "dir1")
		if err != nil {
			t.Fatalf("Failed to lookup dir1: %v", err)
		}

		req := &fuse.RenameRequest{OldName: "file1.txt", NewName: "file1.txt"}
		if err := dir.Rename(ctx, req, target); !errors.Is(err, syscall.EXDEV) {
			t.Errorf("Expected EXDEV, got %v", err)
		}
		if _, err := os.Stat(filepath.Join(sourceDir, "file1.txt")); err != nil {
			t.Errorf("File should not have moved: %v", err)
		}
	})
}

func TestStatfs(t *testing.T) {
	dfs, sourceDir, cleanup := setupTestFS(t)
	defer cleanup()

	if err := os.WriteFile(filepath.Join(sourceDir, "blob"), make([]byte, 2*blockSize), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	resp := &fuse.StatfsResponse{}
	if err := dfs.Statfs(context.Background(), &fuse.StatfsRequest{}, resp); err != nil {
		t.Fatalf("Statfs failed: %v", err)
	}

	if resp.Blocks != disk.GiB/blockSize {
		t.Errorf("Expected %d blocks, got %d", disk.GiB/blockSize, resp.Blocks)
	}
	if resp.Bfree != resp.Blocks-2 {
		t.Errorf("Expected %d free blocks, got %d", resp.Blocks-2, resp.Bfree)
	}
	if resp.Bsize != blockSize {
		t.Errorf("Expected block size %d, got %d", blockSize, resp.Bsize)
	}
}

func TestToFuseError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"nil", nil, nil},
		{"not found", &disk.Error{Op: disk.OpStat, Path: "x", Err: disk.ErrNotFound}, syscall.ENOENT},
		{"conflict", &disk.Error{Op: disk.OpMkdir, Path: "x", Err: disk.ErrNameConflict}, syscall.EEXIST},
		{"not empty", &disk.Error{Op: disk.OpRemove, Path: "x", Err: disk.ErrNotEmpty}, syscall.ENOTEMPTY},
		{"invalid", &disk.Error{Op: disk.OpRename, Path: "x", Err: disk.ErrInvalidName}, syscall.EINVAL},
		{"is dir", &disk.Error{Op: disk.OpRead, Path: "x", Err: disk.ErrIsDirectory}, syscall.EISDIR},
		{"io", &disk.Error{Op: disk.OpList, Path: "x", Err: disk.ErrIO}, syscall.EIO},
		{"read only", ErrReadOnly, syscall.EROFS},
		{"cross directory", ErrCrossDirectory, syscall.EXDEV},
		{"permission", os.ErrPermission, syscall.EACCES},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ToFuseError(tt.err); got != tt.want {
				t.Errorf("ToFuseError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
