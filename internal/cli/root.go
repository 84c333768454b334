package cli

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/raffle/internal/config"
	"github.com/roach88/raffle/internal/engine"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose   bool
	Format    string // "json" | "text"
	DB        string
	Principal string

	// Logger is configured by the root command before any subcommand runs.
	Logger *slog.Logger

	// Engine options appended after the defaults. Tests use these to pin
	// run ids, seeds and clocks.
	EngineOptions []engine.Option
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the raffle CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "raffle",
		Short: "Priority raffle for oversubscribed events",
		Long: `Select attendees for a capacity-limited event, giving priority to the
students who have attended least, and keep a per-principal attendance ledger
that grows with every run.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return opts.configure(cmd)
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.DB, "db", "", "path to SQLite database (env RAFFLE_DB, default raffle.db)")
	cmd.PersistentFlags().StringVar(&opts.Principal, "principal", "", "ledger owner (env RAFFLE_PRINCIPAL, default \"default\")")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewRankCommand(opts))
	cmd.AddCommand(NewLedgerCommand(opts))
	cmd.AddCommand(NewRunsCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// configure fills unset flags from the environment and installs the logger.
func (o *RootOptions) configure(cmd *cobra.Command) error {
	env, err := config.LoadEnv()
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid environment", err)
	}
	if o.DB == "" {
		o.DB = env.DB
	}
	if o.Principal == "" {
		o.Principal = env.Principal
	}

	level := env.Level()
	if o.Verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})
	o.Logger = slog.New(handler)
	slog.SetDefault(o.Logger)
	return nil
}

// formatter returns the output formatter for cmd.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
	}
}

// engine builds an engine with the configured logger, test overrides and
// any per-command options.
func (o *RootOptions) engine(extra ...engine.Option) *engine.Engine {
	opts := []engine.Option{engine.WithLogger(o.logger())}
	opts = append(opts, o.EngineOptions...)
	return engine.New(append(opts, extra...)...)
}

func (o *RootOptions) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}
