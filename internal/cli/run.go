package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/raffle/internal/config"
	"github.com/roach88/raffle/internal/consolidate"
	"github.com/roach88/raffle/internal/engine"
	"github.com/roach88/raffle/internal/ingest"
	"github.com/roach88/raffle/internal/record"
	"github.com/roach88/raffle/internal/selection"
	"github.com/roach88/raffle/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Event      string
	Capacity   int
	Date       string
	Cutoff     string
	PlanFile   string
	LedgerFile string
	Seed       string
}

// SelectedEntry is one selected student in command output.
type SelectedEntry struct {
	Rank     int    `json:"rank"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Attended int    `json:"num_events_attended"`
	Absences int    `json:"num_absences"`
	Late     int    `json:"num_late_arrivals"`
}

// RunSummary is the output of the run command.
type RunSummary struct {
	RunID           string             `json:"run_id"`
	Seq             int64              `json:"seq"`
	Event           string             `json:"event"`
	Capacity        int                `json:"capacity"`
	Seed            string             `json:"seed"`
	Eligible        int                `json:"eligible"`
	Selected        []SelectedEntry    `json:"selected"`
	UnknownSelected []string           `json:"unknown_selected"`
	Report          consolidate.Report `json:"report"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <signups.csv>",
		Short: "Select attendees and update the ledger",
		Long: `Run one raffle: consolidate the sign-up export with the stored ledger,
rank eligible students (fewest events attended first, then fewest absences,
then fewest late arrivals, then oldest last attendance; ties shuffled),
select up to --capacity of them, and store the regenerated ledger together
with an archive of the run.

Flags override values from --plan. The first run for a principal may seed
the ledger from --ledger; later runs always use the stored ledger.

Examples:
  raffle run signups.csv --event "Spring Fair" --capacity 30
  raffle run signups.csv --plan spring.yaml --date 2024-04-20
  raffle run signups.csv --event Gala -n 12 --ledger legacy.csv --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRaffle(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Event, "event", "e", "", "event name recorded in the ledger")
	cmd.Flags().IntVarP(&opts.Capacity, "capacity", "n", 0, "number of seats")
	cmd.Flags().StringVar(&opts.Date, "date", "", "event date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.Cutoff, "cutoff", "", "ignore sign-ups registered after this time")
	cmd.Flags().StringVar(&opts.PlanFile, "plan", "", "YAML plan file")
	cmd.Flags().StringVar(&opts.LedgerFile, "ledger", "", "initial ledger CSV when none is stored yet")
	cmd.Flags().StringVar(&opts.Seed, "seed", "", "hex tie-break seed (replays an archived run)")

	return cmd
}

// buildPlan merges the plan file with flags. Flags win.
func buildPlan(cmd *cobra.Command, planFile, event string, capacity int, date, cutoff string) (engine.Plan, bool, error) {
	var (
		plan        engine.Plan
		hasCapacity bool
	)
	if planFile != "" {
		pf, err := config.LoadPlan(planFile)
		if engine.IsPlanError(err) {
			return plan, false, err
		}
		if err != nil {
			return plan, false, WrapExitError(ExitCommandError, "failed to read plan", err).withErrCode(ErrCodeReadFailed)
		}
		plan, hasCapacity = pf.Plan, pf.HasCapacity
	}

	flags := cmd.Flags()
	if flags.Changed("event") {
		plan.Event = event
	}
	if flags.Changed("capacity") {
		plan.Capacity, hasCapacity = capacity, true
	}
	if flags.Changed("date") {
		plan.Date = ingest.ParseDate(date)
		if plan.Date.IsZero() {
			return plan, false, &engine.PlanError{Field: "date", Message: fmt.Sprintf("unparseable date %q", date)}
		}
	}
	if flags.Changed("cutoff") {
		cut, err := config.ParseCutoff(cutoff)
		if err != nil {
			return plan, false, err
		}
		plan.Cutoff = cut
	}
	if plan.Capacity < 0 {
		return plan, false, &engine.PlanError{Field: "capacity", Message: "must be >= 0"}
	}
	return plan, hasCapacity, nil
}

// seedOptions pins the tie-break seed when hex is set.
func seedOptions(hex string) ([]engine.Option, error) {
	if hex == "" {
		return nil, nil
	}
	seed, err := selection.ParseSeed(hex)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid --seed", err)
	}
	return []engine.Option{engine.WithSeed(seed)}, nil
}

func runRaffle(opts *RunOptions, signupPath string, cmd *cobra.Command) error {
	plan, hasCapacity, err := buildPlan(cmd, opts.PlanFile, opts.Event, opts.Capacity, opts.Date, opts.Cutoff)
	if err != nil {
		return classify(err, "invalid plan")
	}
	if !hasCapacity {
		return classify(&engine.PlanError{Field: "capacity", Message: "set --capacity or capacity in --plan"}, "invalid plan")
	}

	signups, err := readInput(cmd, signupPath)
	if err != nil {
		return err
	}
	var initial []byte
	if opts.LedgerFile != "" {
		if initial, err = readInput(cmd, opts.LedgerFile); err != nil {
			return err
		}
	}

	seedOpts, err := seedOptions(opts.Seed)
	if err != nil {
		return err
	}
	eng := opts.engine(seedOpts...)

	st, err := opts.openStore()
	if err != nil {
		return err
	}
	defer opts.closeStore(st)

	var outcome *engine.Outcome
	run, err := st.CommitRun(commandContext(cmd), opts.Principal, func(current []byte) (store.Commit, error) {
		if current != nil && initial != nil {
			return store.Commit{}, NewExitError(ExitCommandError,
				"a ledger is already stored for this principal; use 'raffle ledger import' to replace it")
		}
		if current == nil {
			current = initial
		}
		out, err := eng.Run(signups, current, plan)
		if err != nil {
			return store.Commit{}, err
		}
		outcome = out
		return store.Commit{Ledger: out.Ledger.Text, Run: out.Archive()}, nil
	})
	if err != nil {
		return classify(err, "run failed")
	}

	summary := summarize(run, outcome)
	return opts.formatter(cmd).Emit(summary, runWarnings(outcome), func(w io.Writer) {
		fmt.Fprintf(w, "Run %s (#%d): %s\n", summary.RunID, summary.Seq, summary.Event)
		fmt.Fprintf(w, "Selected %d of %d eligible (capacity %d)\n",
			len(summary.Selected), summary.Eligible, summary.Capacity)
		writeSelected(w, summary.Selected)
		fmt.Fprintf(w, "Seed: %s\n", summary.Seed)
	})
}

func summarize(run store.Run, out *engine.Outcome) RunSummary {
	return RunSummary{
		RunID:           run.ID,
		Seq:             run.Seq,
		Event:           run.Name,
		Capacity:        out.Result.Capacity,
		Seed:            run.Seed,
		Eligible:        len(out.Result.Eligible),
		Selected:        selectedEntries(out.Result.Selected),
		UnknownSelected: keys(out.UnknownSelected),
		Report:          out.Report,
	}
}

func selectedEntries(students []record.Student) []SelectedEntry {
	out := make([]SelectedEntry, 0, len(students))
	for _, st := range students {
		out = append(out, SelectedEntry{
			Rank:     st.Rank,
			Name:     st.Name(),
			Email:    st.Email,
			Attended: st.Attended,
			Absences: st.Absences,
			Late:     st.Late,
		})
	}
	return out
}

func writeSelected(w io.Writer, entries []SelectedEntry) {
	for _, e := range entries {
		fmt.Fprintf(w, "  %3d  %-28s %-32s %d/%d/%d\n", e.Rank, e.Name, e.Email, e.Attended, e.Absences, e.Late)
	}
}

func keys(students []record.Student) []string {
	out := make([]string, 0, len(students))
	for _, s := range students {
		if s.Email != "" {
			out = append(out, s.Email)
			continue
		}
		out = append(out, s.Key().String())
	}
	return out
}

// runWarnings lists the conditions an operator should review after a run.
func runWarnings(out *engine.Outcome) []string {
	var w []string
	if n := len(out.UnknownSelected); n > 0 {
		w = append(w, fmt.Sprintf("%d selected student(s) had no ledger record and were added: %s",
			n, strings.Join(keys(out.UnknownSelected), ", ")))
	}
	if n := out.Report.DroppedSignups; n > 0 {
		w = append(w, fmt.Sprintf("%d sign-up row(s) had no email or attendee id and were ignored", n))
	}
	if n := out.Report.DroppedHistorical; n > 0 {
		w = append(w, fmt.Sprintf("%d ledger row(s) had no identity and were dropped", n))
	}
	if n := out.Report.AfterCutoff; n > 0 {
		w = append(w, fmt.Sprintf("%d sign-up(s) registered after the cut-off were not eligible", n))
	}
	return w
}

// formatDate renders optional dates in command output.
func formatDate(t time.Time) string {
	return orDash(ingest.FormatDate(t))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
