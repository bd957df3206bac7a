package disk

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

const (
	// MiB is the unit used by the desktop and explorer headers.
	MiB = 1024 * 1024
	// GiB is the unit disk capacity is configured in.
	GiB = 1024 * MiB
)

// FormatMB renders a byte count in megabytes with two decimals.
func FormatMB(b int64) string {
	return fmt.Sprintf("%.2f", float64(b)/MiB)
}

// FormatHuman renders a byte count with an IEC suffix, e.g. "1.5 MiB".
func FormatHuman(b int64) string {
	if b < 0 {
		return "-" + humanize.IBytes(uint64(-b))
	}
	return humanize.IBytes(uint64(b))
}

// Summary renders a snapshot on one line.
func (s Snapshot) Summary() string {
	return fmt.Sprintf("Used: %s | Free: %s | Total: %s",
		FormatHuman(s.Used), FormatHuman(s.Free), FormatHuman(s.Total))
}

// SummaryMB renders a snapshot on one line with megabyte figures.
func (s Snapshot) SummaryMB() string {
	return fmt.Sprintf("Used: %s MB | Free: %s MB | Total: %s MB",
		FormatMB(s.Used), FormatMB(s.Free), FormatMB(s.Total))
}
