package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"

	"darkoos/internal/config"
)

var (
	installUser     string
	installRAMMB    int
	installDiskGB   int
	installDiskPath string
	installForce    bool
)

// installCmd represents the install command
var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Write a new machine config and create the virtual disk",
	Long: `Install asks for a password, stores its bcrypt hash in the config file
named by --config and creates the virtual disk directory.

Examples:
  darkoos install --user darko --disk-gb 5
  echo "secret" | darkoos install --user darko --force`,
	Args: cobra.NoArgs,
	RunE: runInstall,
}

func init() {
	def := config.Default()
	installCmd.Flags().StringVar(&installUser, "user", def.User, "account name")
	installCmd.Flags().IntVar(&installRAMMB, "ram-mb", def.RAMMB, "RAM shown on the desktop, in MB")
	installCmd.Flags().IntVar(&installDiskGB, "disk-gb", def.DiskGB, "virtual disk capacity in GB")
	installCmd.Flags().StringVar(&installDiskPath, "disk-path", def.DiskPath, "virtual disk directory, relative to the config file")
	installCmd.Flags().BoolVar(&installForce, "force", false, "overwrite an existing config")
	rootCmd.AddCommand(installCmd)
}

func runInstall(cmd *cobra.Command, _ []string) error {
	mgr, err := config.NewManager(cfgFile)
	if err != nil {
		return err
	}
	if mgr.Exists() && !installForce {
		return fmt.Errorf("%s already exists, use --force to overwrite it", mgr.Path())
	}

	password, err := promptPassword(cmd)
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	cfg := config.Default()
	cfg.User = installUser
	cfg.PasswordHash = string(hash)
	cfg.RAMMB = installRAMMB
	cfg.DiskGB = installDiskGB
	cfg.DiskPath = installDiskPath

	if err := mgr.Save(cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	vd, err := openDisk(mgr, cfg)
	if err != nil {
		return err
	}

	logger.Info("Installed config %s for user %q", mgr.Path(), cfg.User)
	fmt.Fprintf(cmd.OutOrStdout(), "Config written to %s\nVirtual disk at %s\n", mgr.Path(), vd.Root())
	return nil
}

// promptPassword reads the new password twice from a terminal, or once
// from piped input.
func promptPassword(cmd *cobra.Command) (string, error) {
	out := cmd.OutOrStdout()
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fd := int(f.Fd())
		fmt.Fprint(out, "New password: ")
		first, err := term.ReadPassword(fd)
		fmt.Fprintln(out)
		if err != nil {
			return "", err
		}
		fmt.Fprint(out, "Repeat password: ")
		second, err := term.ReadPassword(fd)
		fmt.Fprintln(out)
		if err != nil {
			return "", err
		}
		if string(first) != string(second) {
			return "", errors.New("passwords do not match")
		}
		return checkPassword(string(first))
	}

	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return checkPassword(strings.TrimRight(line, "\r\n"))
}

func checkPassword(pw string) (string, error) {
	if pw == "" {
		return "", errors.New("password must not be empty")
	}
	// bcrypt ignores everything past 72 bytes
	if len(pw) > 72 {
		return "", errors.New("password must be at most 72 bytes")
	}
	return pw, nil
}
