package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/raffle/internal/consolidate"
	"github.com/roach88/raffle/internal/ingest"
	"github.com/roach88/raffle/internal/record"
	"github.com/roach88/raffle/internal/store"
)

// RunInfo describes an archived run in command output.
type RunInfo struct {
	ID              string              `json:"id"`
	Seq             int64               `json:"seq"`
	Event           string              `json:"event"`
	EventDate       string              `json:"event_date,omitempty"`
	Capacity        int                 `json:"capacity"`
	Seed            string              `json:"seed"`
	CreatedAt       time.Time           `json:"created_at"`
	Selected        int                 `json:"selected"`
	Eligible        int                 `json:"eligible"`
	Report          *consolidate.Report `json:"report,omitempty"`
	Adjustments     record.Adjustments  `json:"adjustments,omitempty"`
	UnknownSelected []string            `json:"unknown_selected,omitempty"`
}

func runInfo(r store.Run, detail bool) RunInfo {
	info := RunInfo{
		ID:        r.ID,
		Seq:       r.Seq,
		Event:     r.Name,
		Capacity:  r.Capacity,
		Seed:      r.Seed,
		CreatedAt: r.CreatedAt,
		Selected:  r.SelectedCount,
		Eligible:  r.EligibleCount,
	}
	if !r.EventDate.IsZero() {
		info.EventDate = ingest.FormatDate(r.EventDate)
	}
	if detail {
		report := r.Report
		info.Report = &report
		info.Adjustments = r.Adjustments
		info.UnknownSelected = r.UnknownSelected
	}
	return info
}

// NewRunsCommand creates the runs command group.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Browse archived runs",
	}
	cmd.AddCommand(newRunsListCommand(rootOpts))
	cmd.AddCommand(newRunsShowCommand(rootOpts))
	cmd.AddCommand(newRunsExportCommand(rootOpts))
	return cmd
}

func newRunsListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the principal's runs, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := opts.openStore()
			if err != nil {
				return err
			}
			defer opts.closeStore(st)

			runs, err := st.ListRuns(commandContext(cmd), opts.Principal)
			if err != nil {
				return classify(err, "failed to list runs")
			}
			infos := make([]RunInfo, 0, len(runs))
			for _, r := range runs {
				infos = append(infos, runInfo(r, false))
			}
			return opts.formatter(cmd).Emit(infos, nil, func(w io.Writer) {
				if len(infos) == 0 {
					fmt.Fprintln(w, "No runs")
					return
				}
				for _, r := range infos {
					fmt.Fprintf(w, "%3d  %s  %-24s %3d/%-3d  %s\n",
						r.Seq, r.ID, r.Event, r.Selected, r.Capacity, formatDate(r.CreatedAt))
				}
			})
		},
	}
}

func newRunsShowCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one archived run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := opts.loadRun(cmd, args[0])
			if err != nil {
				return err
			}
			info := runInfo(r, true)
			return opts.formatter(cmd).Emit(info, nil, func(w io.Writer) {
				fmt.Fprintf(w, "Run %s (#%d)\n", info.ID, info.Seq)
				fmt.Fprintf(w, "  event:     %s\n", info.Event)
				if info.EventDate != "" {
					fmt.Fprintf(w, "  date:      %s\n", info.EventDate)
				}
				fmt.Fprintf(w, "  capacity:  %d\n", info.Capacity)
				fmt.Fprintf(w, "  selected:  %d of %d eligible\n", info.Selected, info.Eligible)
				fmt.Fprintf(w, "  seed:      %s\n", info.Seed)
				fmt.Fprintf(w, "  created:   %s\n", info.CreatedAt.Format(time.RFC3339))
				for _, u := range info.UnknownSelected {
					fmt.Fprintf(w, "  new:       %s\n", u)
				}
			})
		},
	}
}

func newRunsExportCommand(opts *RootOptions) *cobra.Command {
	var artifact, output string
	cmd := &cobra.Command{
		Use:   "export <run-id>",
		Short: "Write one of a run's archived CSV snapshots",
		Long: `Write an archived snapshot of a run: the sign-ups as received, the
selected list, or the full ranked eligible list.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := opts.loadRun(cmd, args[0])
			if err != nil {
				return err
			}
			data, err := r.Artifact(artifact)
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid --artifact", err)
			}
			return writeOutput(cmd, output, data)
		},
	}
	cmd.Flags().StringVar(&artifact, "artifact", store.ArtifactSelected, "signups, selected or eligible")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}

func (o *RootOptions) loadRun(cmd *cobra.Command, id string) (store.Run, error) {
	st, err := o.openStore()
	if err != nil {
		return store.Run{}, err
	}
	defer o.closeStore(st)

	r, err := st.GetRun(commandContext(cmd), o.Principal, id)
	if err != nil {
		return store.Run{}, classify(err, "failed to load run")
	}
	return r, nil
}
