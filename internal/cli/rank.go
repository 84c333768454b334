package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/raffle/internal/consolidate"
	"github.com/roach88/raffle/internal/store"
)

// RankOptions holds flags for the rank command.
type RankOptions struct {
	*RootOptions
	Capacity   int
	Cutoff     string
	PlanFile   string
	LedgerFile string
	Seed       string
	Output     string
}

// RankSummary is the output of the rank command.
type RankSummary struct {
	Capacity int                `json:"capacity"`
	Seed     string             `json:"seed"`
	Eligible []SelectedEntry    `json:"eligible"`
	Selected int                `json:"selected"`
	Report   consolidate.Report `json:"report"`
}

// NewRankCommand creates the rank command.
func NewRankCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RankOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "rank <signups.csv>",
		Short: "Preview the ranking without recording anything",
		Long: `Rank eligible sign-ups against the stored ledger (or --ledger) and show
who would be selected. Nothing is written to the database.

Examples:
  raffle rank signups.csv --capacity 20
  raffle rank signups.csv -n 20 --ledger ledger.csv -o ranking.csv`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRank(opts, args[0], cmd)
		},
	}

	cmd.Flags().IntVarP(&opts.Capacity, "capacity", "n", 0, "number of seats")
	cmd.Flags().StringVar(&opts.Cutoff, "cutoff", "", "ignore sign-ups registered after this time")
	cmd.Flags().StringVar(&opts.PlanFile, "plan", "", "YAML plan file")
	cmd.Flags().StringVar(&opts.LedgerFile, "ledger", "", "ledger CSV to rank against instead of the stored one")
	cmd.Flags().StringVar(&opts.Seed, "seed", "", "hex tie-break seed")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the ranked eligible list as CSV to this file")

	return cmd
}

func runRank(opts *RankOptions, signupPath string, cmd *cobra.Command) error {
	plan, _, err := buildPlan(cmd, opts.PlanFile, "", opts.Capacity, "", opts.Cutoff)
	if err != nil {
		return classify(err, "invalid plan")
	}

	signups, err := readInput(cmd, signupPath)
	if err != nil {
		return err
	}

	var ledgerCSV []byte
	if opts.LedgerFile != "" {
		if ledgerCSV, err = readInput(cmd, opts.LedgerFile); err != nil {
			return err
		}
	} else if ledgerCSV, err = opts.storedLedger(commandContext(cmd)); err != nil {
		return err
	}

	seedOpts, err := seedOptions(opts.Seed)
	if err != nil {
		return err
	}
	out := opts.engine(seedOpts...).Rank(signups, ledgerCSV, plan)

	if opts.Output != "" {
		if err := writeOutput(cmd, opts.Output, out.Artifacts.Eligible); err != nil {
			return err
		}
	}

	summary := RankSummary{
		Capacity: out.Result.Capacity,
		Seed:     out.Seed.String(),
		Eligible: selectedEntries(out.Result.Eligible),
		Selected: len(out.Result.Selected),
		Report:   out.Report,
	}
	return opts.formatter(cmd).Emit(summary, runWarnings(out), func(w io.Writer) {
		fmt.Fprintf(w, "%d eligible, top %d would be selected\n", len(summary.Eligible), summary.Selected)
		writeSelected(w, summary.Eligible)
	})
}

// storedLedger returns the principal's stored ledger, or nil when none is
// stored yet.
func (o *RootOptions) storedLedger(ctx context.Context) ([]byte, error) {
	st, err := o.openStore()
	if err != nil {
		return nil, err
	}
	defer o.closeStore(st)

	l, err := st.LoadLedger(ctx, o.Principal)
	if errors.Is(err, store.ErrLedgerNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, classify(err, "failed to load ledger")
	}
	return l.Text, nil
}
