package harness

import (
	"context"
	"fmt"

	"github.com/roach88/raffle/internal/config"
	"github.com/roach88/raffle/internal/engine"
	"github.com/roach88/raffle/internal/ingest"
	"github.com/roach88/raffle/internal/record"
	"github.com/roach88/raffle/internal/selection"
	"github.com/roach88/raffle/internal/store"
	"github.com/roach88/raffle/internal/testutil"
)

// principal owns the scenario's ledger in the harness store.
const principal = "harness"

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expectation held.
	Pass bool `json:"pass"`

	// Errors contains one message per failed expectation.
	Errors []string `json:"errors,omitempty"`

	// Ledger is the ledger text as stored after the run.
	Ledger []byte `json:"-"`

	// Run is the archived run record.
	Run store.Run `json:"-"`

	// Outcome is the engine's full outcome.
	Outcome *engine.Outcome `json:"-"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{Pass: true, Errors: []string{}}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Run executes a scenario against a fresh in-memory store with a fixed
// seed, run id and clock, then checks its expectations.
//
// An error is returned only when the scenario cannot be executed at all;
// failed expectations are reported in Result.
func Run(s *Scenario) (*Result, error) {
	plan, seed, err := buildPlan(s)
	if err != nil {
		return nil, err
	}

	clock := testutil.NewDeterministicClock()
	st, err := store.Open(":memory:", store.WithNow(clock.Now))
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	ctx := context.Background()
	if s.Historical != "" {
		if _, err := st.SaveLedger(ctx, principal, []byte(s.Historical)); err != nil {
			return nil, fmt.Errorf("seed ledger: %w", err)
		}
	}

	eng := engine.New(
		engine.WithRunIDGenerator(testutil.NewFixedRunIDGenerator(s.RunID)),
		engine.WithSeed(seed),
		engine.WithClock(clock.Now),
		engine.WithLogger(testutil.DiscardLogger()),
	)

	var outcome *engine.Outcome
	run, err := st.CommitRun(ctx, principal, func(current []byte) (store.Commit, error) {
		out, err := eng.Run([]byte(s.Signups), current, plan)
		if err != nil {
			return store.Commit{}, err
		}
		outcome = out
		return store.Commit{Ledger: out.Ledger.Text, Run: out.Archive()}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("run scenario %s: %w", s.Name, err)
	}

	stored, err := st.LoadLedger(ctx, principal)
	if err != nil {
		return nil, fmt.Errorf("reload ledger: %w", err)
	}

	result := NewResult()
	result.Ledger = stored.Text
	result.Run = run
	result.Outcome = outcome
	for _, msg := range Check(s.Expect, outcome, stored.Text) {
		result.AddError(msg)
	}
	return result, nil
}

func buildPlan(s *Scenario) (engine.Plan, selection.Seed, error) {
	var seed selection.Seed
	if s.Seed != "" {
		var err error
		if seed, err = selection.ParseSeed(s.Seed); err != nil {
			return engine.Plan{}, seed, fmt.Errorf("scenario %s: %w", s.Name, err)
		}
	}

	plan := engine.Plan{
		Event:       s.Event,
		Capacity:    s.Capacity,
		Adjustments: record.NormalizeAdjustments(s.Adjustments),
	}
	if s.Date != "" {
		plan.Date = ingest.ParseDate(s.Date)
		if plan.Date.IsZero() {
			return engine.Plan{}, seed, fmt.Errorf("scenario %s: unparseable date %q", s.Name, s.Date)
		}
	}
	if s.Cutoff != "" {
		cut, err := config.ParseCutoff(s.Cutoff)
		if err != nil {
			return engine.Plan{}, seed, fmt.Errorf("scenario %s: %w", s.Name, err)
		}
		plan.Cutoff = cut
	}
	return plan, seed, nil
}
