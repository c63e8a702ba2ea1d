package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/jguan/nas-assistant/pkg/assistant"
	"github.com/jguan/nas-assistant/pkg/severity"
	"github.com/jguan/nas-assistant/pkg/snapshot"
)

type reportCommand struct {
	name  string
	short string
}

// reportCommands mirror the chat commands that take no arguments.
var reportCommands = []reportCommand{
	{assistant.CmdVPN, "Check the VPN container and tunnel"},
	{assistant.CmdDisks, "Ask the model about SMART disk health"},
	{assistant.CmdContainers, "Ask the model about the Docker containers"},
	{assistant.CmdBackup, "Ask the model about the backup setup"},
	{assistant.CmdServices, "List the NAS web services"},
}

func newReportCommand(root *RootCommand, rc reportCommand) *cobra.Command {
	return &cobra.Command{
		Use:   rc.name,
		Short: rc.short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := root.Assistant().Dispatch(cmd.Context(), rc.name, "")
			if text == "" {
				return err
			}
			if perr := PrintText(text, root.OutputOptions()); perr != nil {
				return perr
			}
			// A generative failure is printed and still fails the run.
			return err
		},
	}
}

func NewAskCommand(root *RootCommand) *cobra.Command {
	return &cobra.Command{
		Use:   "ask <question...>",
		Short: "Ask the model a question about the NAS",
		Long: `Collect a fresh snapshot and ask the language model a free-text
question, grounded on the current NAS state.`,
		Example: `  nasbot ask "come stanno i dischi?"
  nasbot ask perché la RAM è alta`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			answer, err := root.Assistant().Ask(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			return PrintText(answer, root.OutputOptions())
		},
	}
}

type snapshotOutput struct {
	Snapshot       snapshot.Snapshot       `json:"snapshot" yaml:"snapshot"`
	Classification severity.Classification `json:"classification" yaml:"classification"`
}

func NewSnapshotCommand(root *RootCommand) *cobra.Command {
	return &cobra.Command{
		Use:   "snapshot",
		Short: "Print the raw snapshot",
		Long: `Collect a fresh snapshot and print it with its classification.

Use -o json or -o yaml for the full document; the table format prints the
per-section summary.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, cls := root.Assistant().Snapshot(cmd.Context())
			opts := root.OutputOptions()
			if opts.Structured() {
				return PrintOutput(snapshotOutput{Snapshot: snap, Classification: cls}, opts)
			}
			return PrintOutput(Summarize(snap, cls), opts)
		},
	}
}
