package mountfs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"syscall"
	"testing"

	"bazil.org/fuse"
)

func TestFileOperations(t *testing.T) {
	dfs, sourceDir, cleanup := setupTestFS(t)
	defer cleanup()

	ctx := context.Background()

	testContent := []byte("test file content")
	if err := os.Mkdir(filepath.Join(sourceDir, "docs"), 0755); err != nil {
		t.Fatalf("Failed to create docs: %v", err)
	}
	if err := os.WriteFile(filepath.Join(sourceDir, "docs", "testfile.txt"), testContent, 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	lookupFile := func(t *testing.T) *File {
		docs, err := rootDir(t, dfs).Lookup(ctx, "docs")
		if err != nil {
			t.Fatalf("Failed to lookup docs: %v", err)
		}
		node, err := docs.(*Dir).Lookup(ctx, "testfile.txt")
		if err != nil {
			t.Fatalf("Failed to lookup file: %v", err)
		}
		return node.(*File)
	}

	t.Run("FileAttributes", func(t *testing.T) {
		attr := &fuse.Attr{}
		if err := lookupFile(t).Attr(ctx, attr); err != nil {
			t.Fatalf("Failed to get file attributes: %v", err)
		}
		if attr.Mode&os.ModeDir != 0 {
			t.Error("File should not be a directory")
		}
		if attr.Mode&0222 != 0 {
			t.Errorf("File should be reported read-only, got mode %v", attr.Mode)
		}
		if attr.Size != uint64(len(testContent)) {
			t.Errorf("Expected size %d, got %d", len(testContent), attr.Size)
		}
	})

	t.Run("FileReading", func(t *testing.T) {
		handle, err := lookupFile(t).Open(ctx, &fuse.OpenRequest{Flags: fuse.OpenReadOnly}, &fuse.OpenResponse{})
		if err != nil {
			t.Fatalf("Failed to open file: %v", err)
		}
		fh := handle.(*FileHandle)

		resp := &fuse.ReadResponse{}
		if err := fh.Read(ctx, &fuse.ReadRequest{Size: len(testContent) + 10}, resp); err != nil {
			t.Fatalf("Failed to read file: %v", err)
		}
		if string(resp.Data) != string(testContent) {
			t.Errorf("Expected content %q, got %q", string(testContent), string(resp.Data))
		}

		resp = &fuse.ReadResponse{}
		if err := fh.Read(ctx, &fuse.ReadRequest{Offset: 5, Size: 4}, resp); err != nil {
			t.Fatalf("Failed to read at offset: %v", err)
		}
		if string(resp.Data) != "file" {
			t.Errorf("Expected %q at offset 5, got %q", "file", string(resp.Data))
		}

		if err := fh.Release(ctx, &fuse.ReleaseRequest{}); err != nil {
			t.Errorf("Failed to close file: %v", err)
		}
	})

	t.Run("WriteAccessRefused", func(t *testing.T) {
		for _, flags := range []fuse.OpenFlags{fuse.OpenWriteOnly, fuse.OpenReadWrite} {
			_, err := lookupFile(t).Open(ctx, &fuse.OpenRequest{Flags: flags}, &fuse.OpenResponse{})
			if !errors.Is(err, syscall.EROFS) {
				t.Errorf("Expected EROFS for flags %v, got %v", flags, err)
			}
		}
	})

	t.Run("FileRename", func(t *testing.T) {
		docs, err := rootDir(t, dfs).Lookup(ctx, "docs")
		if err != nil {
			t.Fatalf("Failed to lookup docs: %v", err)
		}
		dir := docs.(*Dir)

		req := &fuse.RenameRequest{OldName: "testfile.txt", NewName: "renamed.txt"}
		if err := dir.Rename(ctx, req, dir); err != nil {
			t.Fatalf("Failed to rename file: %v", err)
		}

		if _, err := dir.Lookup(ctx, "testfile.txt"); err == nil {
			t.Error("Old file name should not exist after rename")
		}
		if _, err := os.Stat(filepath.Join(sourceDir, "docs", "renamed.txt")); err != nil {
			t.Errorf("Renamed file should exist on the host: %v", err)
		}
	})

	t.Run("SymlinkNotOpened", func(t *testing.T) {
		outside := filepath.Join(t.TempDir(), "secret")
		if err := os.WriteFile(outside, []byte("secret"), 0644); err != nil {
			t.Fatalf("Failed to create outside file: %v", err)
		}
		if err := os.Symlink(outside, filepath.Join(sourceDir, "link")); err != nil {
			t.Skipf("Symlinks unsupported: %v", err)
		}

		node, err := rootDir(t, dfs).Lookup(ctx, "link")
		if err != nil {
			t.Fatalf("Failed to lookup link: %v", err)
		}
		_, err = node.(*File).Open(ctx, &fuse.OpenRequest{Flags: fuse.OpenReadOnly}, &fuse.OpenResponse{})
		if !errors.Is(err, syscall.EACCES) {
			t.Errorf("Expected EACCES opening a symlink, got %v", err)
		}
	})
}
