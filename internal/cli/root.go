// Package cli wires the darkoos command line.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"darkoos/internal/config"
	"darkoos/internal/disk"
	"darkoos/internal/logging"
)

var (
	cfgFile string
	logFile string
	verbose bool

	logger = logging.GetLogger()

	// logCloser is the open log file, if any
	logCloser io.Closer
)

// rootCmd represents the base command. Without a subcommand it boots the
// desktop.
var rootCmd = &cobra.Command{
	Use:   "darkoos",
	Short: "DarkoOS - a simulated desktop in your terminal",
	Long: `DarkoOS is a text-mode desktop that runs on top of a sandboxed
directory on the host (the virtual disk).

Example:
  darkoos install --user darko
  darkoos --config config.toml
  darkoos df
  darkoos mount --mount /mnt/darkoos`,
	SilenceUsage:       true,
	PersistentPreRunE:  setupLogging,
	PersistentPostRunE: closeLogging,
	RunE:               runBoot,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.toml", "machine config file")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "darkoos.log", "log file, - for stderr")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// setupLogging sends log output away from the terminal the desktop draws on.
func setupLogging(_ *cobra.Command, _ []string) error {
	if verbose {
		logger.SetLevel(logging.LevelDebug)
	}
	if logFile == "-" {
		logger.SetOutput(os.Stderr)
		return nil
	}

	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", logFile, err)
	}
	logger.SetOutput(f)
	logCloser = f
	return nil
}

func closeLogging(_ *cobra.Command, _ []string) error {
	if logCloser == nil {
		return nil
	}
	logger.SetOutput(os.Stderr)
	err := logCloser.Close()
	logCloser = nil
	return err
}

// loadConfig reads the machine config named by --config.
func loadConfig() (*config.Manager, *config.Config, error) {
	mgr, err := config.NewManager(cfgFile)
	if err != nil {
		return nil, nil, err
	}
	cfg, err := mgr.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	return mgr, cfg, nil
}

// openDisk creates the virtual disk described by cfg and makes sure its
// root is usable.
func openDisk(mgr *config.Manager, cfg *config.Config) (*disk.VirtualDisk, error) {
	vd, err := disk.New(mgr.DiskRoot(cfg), mgr.DiskOptions(cfg))
	if err != nil {
		return nil, err
	}
	if err := vd.EnsureRoot(); err != nil {
		return nil, fmt.Errorf("virtual disk unavailable: %w", err)
	}
	return vd, nil
}
