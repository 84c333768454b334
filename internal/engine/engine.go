package engine

import (
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/roach88/raffle/internal/consolidate"
	"github.com/roach88/raffle/internal/ingest"
	"github.com/roach88/raffle/internal/ledger"
	"github.com/roach88/raffle/internal/record"
	"github.com/roach88/raffle/internal/selection"
)

// SourceFactory supplies the tie-break source for one run. It is called once
// per run and must not return a source shared with another run.
type SourceFactory func() *selection.Source

// Engine executes raffle runs. It holds configuration only and is safe for
// concurrent use; serialising updates to one principal's ledger is the
// store's job.
type Engine struct {
	runIDs  RunIDGenerator
	sources SourceFactory
	logger  *slog.Logger
	clock   Clock
}

// Option configures an Engine.
type Option func(*Engine)

// WithRunIDGenerator sets the run id generator. Default: UUIDv7Generator.
func WithRunIDGenerator(g RunIDGenerator) Option {
	return func(e *Engine) { e.runIDs = g }
}

// WithSourceFactory sets the tie-break source factory.
// Default: selection.NewSource, a fresh random seed per run.
func WithSourceFactory(f SourceFactory) Option {
	return func(e *Engine) { e.sources = f }
}

// WithSeed makes every run use the given seed. Used to replay an archived
// run.
func WithSeed(seed selection.Seed) Option {
	return WithSourceFactory(func() *selection.Source {
		return selection.NewSeededSource(seed)
	})
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithClock sets the wall clock used for run timestamps.
func WithClock(c Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// New creates an Engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		runIDs:  UUIDv7Generator{},
		sources: selection.NewSource,
		clock:   SystemClock,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// Artifacts are the three per-run snapshots archived for later retrieval.
type Artifacts struct {
	// Signups is the sign-up export exactly as received.
	Signups []byte
	// Selected is the selected subset in export layout.
	Selected []byte
	// Eligible is the full ranking in export layout.
	Eligible []byte
}

// Outcome is everything one run produced.
type Outcome struct {
	RunID     string
	Seed      selection.Seed
	CreatedAt time.Time
	Plan      Plan

	// Master is the consolidated list the run ranked.
	Master []record.Student
	// Result holds the eligible ranking and the selected subset.
	Result record.RunResult
	// Ledger is the regenerated ledger. First-time participants are already
	// unioned in.
	Ledger ledger.Result
	// UnknownSelected lists selected students that had no ledger record
	// before this run. They are present in Ledger but the operator should
	// confirm them.
	UnknownSelected []record.Student
	// Report counts rows consolidation dropped or merged.
	Report consolidate.Report

	Artifacts Artifacts
}

// Run executes one raffle cycle against a snapshot of the ledger.
//
// Only an invalid plan is an error. Malformed or empty CSV input yields an
// outcome with empty results.
func (e *Engine) Run(signupCSV, ledgerCSV []byte, plan Plan) (*Outcome, error) {
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	plan.Event = strings.TrimSpace(plan.Event)
	plan.Adjustments = record.NormalizeAdjustments(plan.Adjustments)

	out, base := e.rank(signupCSV, ledgerCSV, plan)
	log := e.logger.With("run_id", out.RunID, "event", plan.Event)

	if len(out.UnknownSelected) > 0 {
		log.Warn("selected students missing from ledger",
			"count", len(out.UnknownSelected),
		)
	}
	out.Ledger = ledger.Regenerate(
		ledger.WithNewParticipants(base, out.Result.Selected),
		out.Result.Selected,
		plan.Event,
		plan.Adjustments,
		plan.Date,
	)

	log.Info("run complete",
		"eligible", len(out.Result.Eligible),
		"selected", len(out.Result.Selected),
		"capacity", out.Result.Capacity,
		"new_participants", len(out.UnknownSelected),
		"seed", out.Seed.String(),
	)
	return out, nil
}

// Rank consolidates and ranks without regenerating the ledger. The event
// name is not required and Outcome.Ledger is left empty. Used for dry runs.
func (e *Engine) Rank(signupCSV, ledgerCSV []byte, plan Plan) *Outcome {
	out, _ := e.rank(signupCSV, ledgerCSV, plan)
	return out
}

// rank runs every step up to selection and returns the outcome together
// with the ledger-backed base records.
func (e *Engine) rank(signupCSV, ledgerCSV []byte, plan Plan) (*Outcome, []record.Student) {
	runID := e.runIDs.Generate()
	log := e.logger.With("run_id", runID)

	signups := ingest.Parse(signupCSV)
	history := ingest.Parse(ledgerCSV)
	log.Debug("inputs parsed",
		"signup_rows", len(signups),
		"ledger_rows", len(history),
	)

	cons := consolidate.ConsolidateWith(signups, history, consolidate.Options{Cutoff: plan.Cutoff})
	if cons.Report.DroppedSignups > 0 || cons.Report.DroppedHistorical > 0 {
		log.Warn("rows without identity dropped",
			"signups", cons.Report.DroppedSignups,
			"ledger", cons.Report.DroppedHistorical,
		)
	}

	src := e.sources()
	res := selection.Select(cons.Students, plan.Capacity, src)
	base := cons.History()

	return &Outcome{
		RunID:           runID,
		Seed:            src.Seed(),
		CreatedAt:       e.clock(),
		Plan:            plan,
		Master:          cons.Students,
		Result:          res,
		UnknownSelected: ledger.Unknown(base, res.Selected),
		Report:          cons.Report,
		Artifacts: Artifacts{
			Signups:  append([]byte(nil), signupCSV...),
			Selected: ledger.SelectedCSV(res.Selected),
			Eligible: ledger.RankingCSV(res.Eligible),
		},
	}, base
}

// AdjustOutcome is the result of a post-run attendance correction.
type AdjustOutcome struct {
	Ledger ledger.Result
	// Unmatched lists adjustment emails with no ledger record. They were
	// not applied.
	Unmatched []string
}

// Adjust applies attendance corrections to a ledger without running a
// selection. Duplicate ledger rows are merged as consolidation merges them.
func (e *Engine) Adjust(ledgerCSV []byte, adj record.Adjustments) *AdjustOutcome {
	adj = record.NormalizeAdjustments(adj)
	base := consolidate.Consolidate(nil, ingest.Parse(ledgerCSV)).Students

	known := map[string]bool{}
	for _, s := range base {
		if em := record.NormalizeEmail(s.Email); em != "" {
			known[em] = true
		}
	}
	unmatched := []string{}
	for email := range adj {
		if !known[record.NormalizeEmail(email)] {
			unmatched = append(unmatched, email)
		}
	}
	slices.Sort(unmatched)
	if len(unmatched) > 0 {
		e.logger.Warn("adjustments for unknown students ignored", "emails", unmatched)
	}

	res := ledger.Regenerate(base, nil, "", adj, time.Time{})
	e.logger.Info("ledger adjusted",
		"records", len(res.Students),
		"adjustments", len(adj)-len(unmatched),
	)
	return &AdjustOutcome{Ledger: res, Unmatched: unmatched}
}
