package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/jguan/nas-assistant/pkg/assistant"
	"github.com/jguan/nas-assistant/pkg/config"
	"github.com/jguan/nas-assistant/pkg/infra/logger"
)

var (
	cliVersion   = "dev"
	cliBuildDate = "unknown"
	cliGitCommit = "unknown"
)

type RootCommand struct {
	cmd       *cobra.Command
	cfg       *config.Config
	assistant *assistant.Assistant
	opts      *OutputOptions
	formatStr string
}

func NewRootCommand() *RootCommand {
	root := &RootCommand{
		opts: NewOutputOptions(),
	}

	cmd := &cobra.Command{
		Use:   "nasbot",
		Short: "nasbot - NAS assistant",
		Long: `nasbot collects health data from Netdata, Scrutiny, Docker and the
NAS filesystem into one snapshot, and either reports it directly or
asks the local language model about it.

It runs one-shot from the terminal or as an HTTP service behind a chat
transport (nasbot serve).`,
		SilenceUsage:      true,
		PersistentPreRunE: root.persistentPreRunE,
	}

	pflags := cmd.PersistentFlags()

	pflags.StringVarP(&root.formatStr, "output", "o", "table", "Output format (table, json, yaml)")
	pflags.BoolVarP(&root.opts.Quiet, "quiet", "q", false, "Suppress output")
	pflags.String("config", "", "Config file path (TOML); built-in defaults when empty")
	pflags.String("log-level", "", "Log level override (debug, info, warn, error)")

	bindFlags(pflags, "output", "quiet", "config", "log-level")

	root.cmd = cmd

	root.addSubCommands()

	return root
}

func bindFlags(fs *pflag.FlagSet, names ...string) {
	for _, name := range names {
		viper.BindPFlag(name, fs.Lookup(name))
	}
}

func (r *RootCommand) persistentPreRunE(cmd *cobra.Command, args []string) error {
	r.opts.Format = OutputFormat(r.formatStr)
	switch r.opts.Format {
	case OutputTable, OutputJSON, OutputYAML:
	default:
		return fmt.Errorf("invalid output format %q (table, json, yaml)", r.formatStr)
	}

	if cmd.Name() == "version" {
		return nil
	}

	if r.cfg == nil {
		cfg, err := config.Load(viper.GetString("config"))
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if lvl := viper.GetString("log-level"); lvl != "" {
			cfg.Logging.Level = lvl
		}
		r.cfg = cfg
	}

	logger.Init(logger.Config{
		Level:  r.cfg.Logging.Level,
		Format: r.cfg.Logging.Format,
		Output: os.Stderr,
	})

	if r.assistant == nil {
		r.assistant = newAssistant(r.cfg)
	}

	return nil
}

func (r *RootCommand) addSubCommands() {
	r.cmd.AddCommand(NewVersionCommand(r))
	r.cmd.AddCommand(NewStatusCommand(r))
	r.cmd.AddCommand(NewSnapshotCommand(r))
	r.cmd.AddCommand(NewAskCommand(r))
	r.cmd.AddCommand(NewServeCommand(r))
	for _, c := range reportCommands {
		r.cmd.AddCommand(newReportCommand(r, c))
	}
}

func (r *RootCommand) Command() *cobra.Command {
	return r.cmd
}

func (r *RootCommand) Assistant() *assistant.Assistant {
	return r.assistant
}

func (r *RootCommand) Config() *config.Config {
	return r.cfg
}

func (r *RootCommand) OutputOptions() *OutputOptions {
	return r.opts
}

func (r *RootCommand) SetOutputWriter(w io.Writer) {
	r.opts.Writer = w
}

func (r *RootCommand) Execute() error {
	return r.cmd.Execute()
}

func (r *RootCommand) ExecuteContext(ctx context.Context) error {
	return r.cmd.ExecuteContext(ctx)
}

func Execute() {
	root := NewRootCommand()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	if err := root.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func SetVersion(version, buildDate, gitCommit string) {
	cliVersion = version
	cliBuildDate = buildDate
	cliGitCommit = gitCommit
}

func GetVersion() string {
	return cliVersion
}

func GetBuildDate() string {
	return cliBuildDate
}

func GetGitCommit() string {
	return cliGitCommit
}
