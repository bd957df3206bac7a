package cli

import (
	"os"

	"github.com/spf13/cobra"

	"darkoos/internal/shell"
)

// bootCmd represents the boot command
var bootCmd = &cobra.Command{
	Use:   "boot",
	Short: "Log in and start the desktop (default)",
	Long: `Boot shows the login prompt and, once the password is accepted, the
desktop. Programs are opened from the desktop or started from a terminal.`,
	Args: cobra.NoArgs,
	RunE: runBoot,
}

func init() {
	rootCmd.AddCommand(bootCmd)
}

func runBoot(cmd *cobra.Command, _ []string) error {
	mgr, cfg, err := loadConfig()
	if err != nil {
		return err
	}
	vd, err := openDisk(mgr, cfg)
	if err != nil {
		return err
	}

	logger.Info("Booting for user %q, disk at %s", cfg.User, vd.Root())
	out := cmd.OutOrStdout()
	var in shell.LineReader
	if f, ok := cmd.InOrStdin().(*os.File); ok {
		in = shell.NewLineReader(f, out)
	} else {
		in = shell.NewPlainReader(cmd.InOrStdin(), out)
	}

	if err := shell.NewManager(cfg, vd, in, out).Run(); err != nil {
		logger.Error("Session ended with error: %v", err)
		return err
	}
	logger.Info("Session ended")
	return nil
}
