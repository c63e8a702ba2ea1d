package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/jguan/nas-assistant/pkg/assistant"
	"github.com/jguan/nas-assistant/pkg/severity"
	"github.com/jguan/nas-assistant/pkg/snapshot"
)

var (
	headerColor = color.New(color.FgCyan, color.Bold)
	goodColor   = color.New(color.FgGreen)
	warnColor   = color.New(color.FgYellow)
	badColor    = color.New(color.FgRed, color.Bold)
	dimColor    = color.New(color.FgHiBlack)
)

// SectionRow is one line of the severity summary.
type SectionRow struct {
	Section string `json:"section" yaml:"section"`
	Level   string `json:"level" yaml:"level"`
	Detail  string `json:"detail" yaml:"detail"`
}

func NewStatusCommand(root *RootCommand) *cobra.Command {
	var summary, noColor bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the full NAS status report",
		Long: `Collect a fresh snapshot and print the status report sent to chat.

With --summary, print one coloured severity line per section instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if noColor {
				color.NoColor = true
			}
			opts := root.OutputOptions()

			if !summary {
				text, err := root.Assistant().Dispatch(cmd.Context(), assistant.CmdStatus, "")
				if err != nil {
					return err
				}
				return PrintText(text, opts)
			}

			snap, cls := root.Assistant().Snapshot(cmd.Context())
			rows := Summarize(snap, cls)
			if opts.Structured() || opts.Quiet {
				return PrintOutput(rows, opts)
			}
			printSummary(opts.Writer, rows)
			return nil
		},
	}

	cmd.Flags().BoolVar(&summary, "summary", false, "Print one severity line per section")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable coloured output")

	return cmd
}

// Summarize flattens a classified snapshot into rows, ending with the
// overall level.
func Summarize(snap snapshot.Snapshot, cls severity.Classification) []SectionRow {
	rows := []SectionRow{
		{Section: "cpu", Level: string(cls.CPU), Detail: cpuDetail(snap.System)},
		{Section: "ram", Level: string(cls.RAM), Detail: ramDetail(snap.System)},
		{Section: "containers", Level: string(cls.Containers), Detail: containersDetail(snap.Containers, cls.CriticalDown)},
		{Section: "vpn", Level: string(cls.VPN), Detail: vpnDetail(snap.VPN)},
		{Section: "storage", Level: string(cls.Storage), Detail: storageDetail(snap.Storage)},
	}
	return append(rows, SectionRow{Section: "overall", Level: string(cls.Overall()), Detail: failedSources(snap.Errors)})
}

const notAvailable = "n/a"

func cpuDetail(s *snapshot.SystemMetrics) string {
	if s == nil {
		return notAvailable
	}
	d := percentDetail(s.CPUPercent)
	if s.CPUTemp.Known {
		d += fmt.Sprintf(" | %.1f°C", s.CPUTemp.Celsius)
	}
	return d
}

func ramDetail(s *snapshot.SystemMetrics) string {
	if s == nil {
		return notAvailable
	}
	return percentDetail(s.RAMPercent)
}

func percentDetail(p *float64) string {
	if p == nil {
		return notAvailable
	}
	return fmt.Sprintf("%.1f%%", *p)
}

func containersDetail(c *snapshot.ContainerSummary, down []string) string {
	if c == nil {
		return notAvailable
	}
	d := fmt.Sprintf("%d/%d running", c.Running, c.Total)
	if len(down) > 0 {
		d += ", critical down: " + strings.Join(down, ", ")
	}
	return d
}

func vpnDetail(v *snapshot.VPNTunnel) string {
	switch {
	case v == nil:
		return notAvailable
	case !v.ContainerRunning:
		return "container stopped"
	default:
		return "tunnel " + string(v.Tunnel)
	}
}

func storageDetail(s *snapshot.StorageUsage) string {
	if s == nil {
		return notAvailable
	}
	return fmt.Sprintf("%s: %s/%s (%s)", s.Mount, s.Used, s.Total, s.RawPercent)
}

func failedSources(errs []snapshot.SourceError) string {
	if len(errs) == 0 {
		return ""
	}
	names := make([]string, 0, len(errs))
	for _, e := range errs {
		names = append(names, e.Source)
	}
	return "failed: " + strings.Join(names, ", ")
}

func levelColor(level string) *color.Color {
	switch severity.Level(level) {
	case severity.OK:
		return goodColor
	case severity.Warn:
		return warnColor
	case severity.Critical:
		return badColor
	default:
		return dimColor
	}
}

func printSummary(out io.Writer, rows []SectionRow) {
	headerColor.Fprintln(out, "NAS status")

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, r := range rows {
		// pad before colouring so escape codes do not skew the columns
		level := levelColor(r.Level).Sprint(fmt.Sprintf("%-8s", strings.ToUpper(r.Level)))
		fmt.Fprintf(w, "  %s\t%s\t%s\n", r.Section, level, r.Detail)
	}
	w.Flush()
}
