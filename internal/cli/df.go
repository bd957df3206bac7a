package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"darkoos/internal/disk"
)

// dfCmd represents the df command
var dfCmd = &cobra.Command{
	Use:   "df",
	Short: "Show virtual disk usage",
	Args:  cobra.NoArgs,
	RunE:  runDf,
}

func init() {
	rootCmd.AddCommand(dfCmd)
}

func runDf(cmd *cobra.Command, _ []string) error {
	mgr, cfg, err := loadConfig()
	if err != nil {
		return err
	}
	vd, err := openDisk(mgr, cfg)
	if err != nil {
		return err
	}

	snap := vd.Usage()
	pct := 0.0
	if snap.Total > 0 {
		pct = float64(snap.Used) / float64(snap.Total) * 100
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DISK\tUSED\tFREE\tTOTAL\tUSE%")
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s%%\n", vd.Root(),
		disk.FormatHuman(snap.Used), disk.FormatHuman(snap.Free), disk.FormatHuman(snap.Total),
		humanize.FtoaWithDigits(pct, 1))
	if err := w.Flush(); err != nil {
		return err
	}

	if verbose {
		fmt.Fprintf(cmd.OutOrStdout(), "%s (%s bytes reserved)\n",
			snap.SummaryMB(), humanize.Comma(vd.Overhead()))
	}
	return nil
}
