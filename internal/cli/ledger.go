package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/raffle/internal/consolidate"
	"github.com/roach88/raffle/internal/ingest"
	"github.com/roach88/raffle/internal/ledger"
	"github.com/roach88/raffle/internal/record"
	"github.com/roach88/raffle/internal/store"
)

// LedgerInfo describes a stored ledger.
type LedgerInfo struct {
	Principal string    `json:"principal"`
	Revision  int64     `json:"revision"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`
	Students  int       `json:"students"`
	Unmatched []string  `json:"unmatched,omitempty"`

	// Records are the listed students; show fills it, filtered by --search.
	Records []LedgerEntry `json:"records,omitempty"`
}

// LedgerEntry is one ledger record in command output.
type LedgerEntry struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Class        string `json:"class"`
	Attended     int    `json:"num_events_attended"`
	Absences     int    `json:"num_absences"`
	Late         int    `json:"num_late_arrivals"`
	LastAttended string `json:"last_attended_date,omitempty"`
}

// matchesSearch reports whether q occurs in the student's name, email or
// class, ignoring case. An empty q matches everyone.
func matchesSearch(s record.Student, q string) bool {
	needle := record.NormalizeName(q)
	if needle == "" {
		return true
	}
	for _, field := range []string{s.Name(), s.Email, s.Class} {
		if strings.Contains(record.NormalizeName(field), needle) {
			return true
		}
	}
	return false
}

// NewLedgerCommand creates the ledger command group.
func NewLedgerCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect and maintain the attendance ledger",
	}
	cmd.AddCommand(newLedgerShowCommand(rootOpts))
	cmd.AddCommand(newLedgerImportCommand(rootOpts))
	cmd.AddCommand(newLedgerExportCommand(rootOpts))
	cmd.AddCommand(newLedgerAdjustCommand(rootOpts))
	cmd.AddCommand(newLedgerDeleteCommand(rootOpts))
	return cmd
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func newLedgerShowCommand(opts *RootOptions) *cobra.Command {
	var search string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "List the stored ledger",
		Long: `List the students in the stored ledger. --search keeps only students
whose name, email or class contains the given text, ignoring case.

Examples:
  raffle ledger show
  raffle ledger show -q 11b`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := opts.openStore()
			if err != nil {
				return err
			}
			defer opts.closeStore(st)

			l, err := st.LoadLedger(commandContext(cmd), opts.Principal)
			if err != nil {
				return classify(err, "failed to load ledger")
			}
			students := ledger.Parse(l.Text)
			info := LedgerInfo{
				Principal: l.Principal,
				Revision:  l.Revision,
				UpdatedAt: l.UpdatedAt,
				Students:  len(students),
				Records:   []LedgerEntry{},
			}
			for _, s := range students {
				if !matchesSearch(s, search) {
					continue
				}
				info.Records = append(info.Records, LedgerEntry{
					Name:         s.Name(),
					Email:        s.Email,
					Class:        s.Class,
					Attended:     s.Attended,
					Absences:     s.Absences,
					Late:         s.Late,
					LastAttended: ingest.FormatDate(s.LastAttendedDate),
				})
			}
			return opts.formatter(cmd).Emit(info, nil, func(w io.Writer) {
				fmt.Fprintf(w, "Ledger %q revision %d, %d students (updated %s)\n",
					info.Principal, info.Revision, info.Students, info.UpdatedAt.Format(time.RFC3339))
				if search != "" {
					fmt.Fprintf(w, "%d matching %q\n", len(info.Records), search)
				}
				for _, e := range info.Records {
					fmt.Fprintf(w, "  %-28s %-32s %-6s %d/%d/%d  %s\n",
						e.Name, e.Email, e.Class, e.Attended, e.Absences, e.Late, orDash(e.LastAttended))
				}
			})
		},
	}
	cmd.Flags().StringVarP(&search, "search", "q", "", "filter by name, email or class")
	return cmd
}

func newLedgerImportCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <ledger.csv>",
		Short: "Replace the stored ledger with a CSV file",
		Long: `Import a ledger CSV, replacing whatever is stored for the principal.
Duplicate rows are merged and rows without an identity are dropped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			cons := consolidate.Consolidate(nil, ingest.Parse(data))

			st, err := opts.openStore()
			if err != nil {
				return err
			}
			defer opts.closeStore(st)

			rev, err := st.SaveLedger(commandContext(cmd), opts.Principal, ledger.Encode(cons.Students))
			if err != nil {
				return classify(err, "failed to save ledger")
			}
			info := LedgerInfo{Principal: opts.Principal, Revision: rev, Students: len(cons.Students)}
			var warnings []string
			if n := cons.Report.DroppedHistorical; n > 0 {
				warnings = append(warnings, fmt.Sprintf("%d row(s) had no identity and were dropped", n))
			}
			return opts.formatter(cmd).Emit(info, warnings, func(w io.Writer) {
				fmt.Fprintf(w, "Imported %d students into %q (revision %d)\n", info.Students, info.Principal, info.Revision)
			})
		},
	}
}

func newLedgerExportCommand(opts *RootOptions) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the stored ledger as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := opts.openStore()
			if err != nil {
				return err
			}
			defer opts.closeStore(st)

			l, err := st.LoadLedger(commandContext(cmd), opts.Principal)
			if err != nil {
				return classify(err, "failed to load ledger")
			}
			return writeOutput(cmd, output, l.Text)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}

func newLedgerAdjustCommand(opts *RootOptions) *cobra.Command {
	var absent, late []string
	cmd := &cobra.Command{
		Use:   "adjust",
		Short: "Record absences and late arrivals after an event",
		Long: `Add one absence or late arrival to each listed student. Emails with no
ledger record are reported and not applied.

Examples:
  raffle ledger adjust --absent a@x.com,b@x.com --late c@x.com`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			adj := adjustments(absent, late)
			if len(adj) == 0 {
				return NewExitError(ExitCommandError, "nothing to adjust: pass --absent or --late")
			}

			st, err := opts.openStore()
			if err != nil {
				return err
			}
			defer opts.closeStore(st)

			eng := opts.engine()
			var out ledgerAdjust
			rev, err := st.UpdateLedger(commandContext(cmd), opts.Principal, func(current []byte) ([]byte, error) {
				if current == nil {
					return nil, store.ErrLedgerNotFound
				}
				res := eng.Adjust(current, adj)
				out = ledgerAdjust{students: len(res.Ledger.Students), unmatched: res.Unmatched}
				return res.Ledger.Text, nil
			})
			if err != nil {
				return classify(err, "failed to adjust ledger")
			}

			info := LedgerInfo{Principal: opts.Principal, Revision: rev, Students: out.students, Unmatched: out.unmatched}
			var warnings []string
			if len(out.unmatched) > 0 {
				warnings = append(warnings, "no ledger record for: "+strings.Join(out.unmatched, ", "))
			}
			return opts.formatter(cmd).Emit(info, warnings, func(w io.Writer) {
				fmt.Fprintf(w, "Adjusted %d students (revision %d)\n", len(adj)-len(out.unmatched), rev)
			})
		},
	}
	cmd.Flags().StringSliceVar(&absent, "absent", nil, "emails of selected students who did not attend")
	cmd.Flags().StringSliceVar(&late, "late", nil, "emails of students who arrived late")
	return cmd
}

type ledgerAdjust struct {
	students  int
	unmatched []string
}

func adjustments(absent, late []string) record.Adjustments {
	adj := record.Adjustments{}
	for _, e := range absent {
		if e = record.NormalizeEmail(e); e != "" {
			a := adj[e]
			a.Absent = true
			adj[e] = a
		}
	}
	for _, e := range late {
		if e = record.NormalizeEmail(e); e != "" {
			a := adj[e]
			a.Late = true
			adj[e] = a
		}
	}
	return adj
}

func newLedgerDeleteCommand(opts *RootOptions) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete the stored ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return NewExitError(ExitCommandError, "refusing to delete without --yes")
			}
			st, err := opts.openStore()
			if err != nil {
				return err
			}
			defer opts.closeStore(st)

			if err := st.DeleteLedger(commandContext(cmd), opts.Principal); err != nil {
				return classify(err, "failed to delete ledger")
			}
			return opts.formatter(cmd).Emit(map[string]string{"deleted": opts.Principal}, nil, func(w io.Writer) {
				fmt.Fprintf(w, "Deleted ledger %q\n", opts.Principal)
			})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deletion")
	return cmd
}
