package cli

import (
	"errors"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"darkoos/internal/mountfs"
)

var mountPoint string

// mountCmd represents the mount command
var mountCmd = &cobra.Command{
	Use:   "mount",
	Short: "Serve the virtual disk through FUSE",
	Long: `Mount exposes the virtual disk at a host directory until interrupted.
Folders can be created, removed and renamed through the mount; files are
read-only.

Example:
  darkoos mount --mount /mnt/darkoos`,
	Args: cobra.NoArgs,
	RunE: runMount,
}

func init() {
	mountCmd.Flags().StringVar(&mountPoint, "mount", "", "mount point for the virtual disk (required)")
	mountCmd.MarkFlagRequired("mount")
	rootCmd.AddCommand(mountCmd)
}

func runMount(_ *cobra.Command, _ []string) error {
	if mountPoint == "" {
		return errors.New("--mount is required")
	}
	cleanMount := filepath.Clean(mountPoint)

	mgr, cfg, err := loadConfig()
	if err != nil {
		return err
	}
	vd, err := openDisk(mgr, cfg)
	if err != nil {
		return err
	}

	logger.Debug("Setting up signal handlers...")
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	dfs := mountfs.New(vd)
	if err := dfs.Mount(cleanMount); err != nil {
		return err
	}
	logger.Info("Filesystem mounted and ready")

	select {
	case sig := <-sigChan:
		logger.Info("Received signal %v", sig)
		if err := dfs.Unmount(cleanMount); err != nil {
			return err
		}
		<-dfs.Done()
	case <-dfs.Done():
		logger.Info("FUSE server stopped")
	}

	logger.Info("Clean shutdown complete")
	return nil
}
