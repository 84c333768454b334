package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/raffle/internal/consolidate"
	"github.com/roach88/raffle/internal/record"
)

// Artifact names accepted by Run.Artifact.
const (
	ArtifactSignups  = "signups"
	ArtifactSelected = "selected"
	ArtifactEligible = "eligible"
)

// Run is one archived raffle run.
type Run struct {
	ID        string
	Principal string
	// Seq is the run's position in the principal's history, starting at 1.
	Seq       int64
	Name      string
	EventDate time.Time
	Capacity  int
	// Seed is the hex tie-break seed; replaying with it reproduces the ranking.
	Seed      string
	CreatedAt time.Time

	Signups  []byte
	Selected []byte
	Eligible []byte

	SelectedCount int
	EligibleCount int

	Report          consolidate.Report
	Adjustments     record.Adjustments
	UnknownSelected []string
}

// Artifact returns one of the archived snapshots by name.
func (r Run) Artifact(name string) ([]byte, error) {
	switch name {
	case ArtifactSignups:
		return r.Signups, nil
	case ArtifactSelected:
		return r.Selected, nil
	case ArtifactEligible:
		return r.Eligible, nil
	}
	return nil, fmt.Errorf("unknown artifact %q (want %s, %s or %s)",
		name, ArtifactSignups, ArtifactSelected, ArtifactEligible)
}

// Commit is what a run hands back to CommitRun: the regenerated ledger and
// the run to archive.
type Commit struct {
	Ledger []byte
	Run    Run
}

// CommitRun performs one run as a single transaction: it reads the
// principal's current ledger (nil when none exists), passes it to fn, then
// stores the returned ledger and archives the returned run. The run's
// Principal and Seq are assigned here. If fn fails nothing is written.
func (s *Store) CommitRun(ctx context.Context, principal string, fn func(current []byte) (Commit, error)) (Run, error) {
	var stored Run
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		current, err := currentText(ctx, tx, principal)
		if err != nil {
			return err
		}
		c, err := fn(current)
		if err != nil {
			return err
		}
		if c.Run.ID == "" {
			return errors.New("run id is required")
		}
		if _, err := s.putLedger(ctx, tx, principal, c.Ledger); err != nil {
			return err
		}

		run := c.Run
		run.Principal = principal
		if run.CreatedAt.IsZero() {
			run.CreatedAt = s.now()
		}
		if err := tx.QueryRowContext(ctx, `
			SELECT COALESCE(MAX(seq), 0) + 1 FROM runs WHERE principal = ?
		`, principal).Scan(&run.Seq); err != nil {
			return fmt.Errorf("next seq: %w", err)
		}
		if err := insertRun(ctx, tx, run); err != nil {
			return err
		}
		stored = run
		return nil
	})
	if err != nil {
		return Run{}, fmt.Errorf("commit run: %w", err)
	}
	return stored, nil
}

func insertRun(ctx context.Context, tx *sql.Tx, r Run) error {
	meta, err := marshalMeta(runMeta{
		Report:      r.Report,
		Adjustments: r.Adjustments,
		Unknown:     r.UnknownSelected,
	})
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, principal, seq, name, event_date, capacity, seed, created_at,
		 signup_csv, selected_csv, eligible_csv, selected_count, eligible_count, meta)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		r.ID,
		r.Principal,
		r.Seq,
		r.Name,
		formatDate(r.EventDate),
		r.Capacity,
		r.Seed,
		formatTimestamp(r.CreatedAt),
		nonNil(r.Signups),
		nonNil(r.Selected),
		nonNil(r.Eligible),
		r.SelectedCount,
		r.EligibleCount,
		meta,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// GetRun returns one archived run with its artifacts, or ErrRunNotFound.
// Runs belonging to another principal are not found.
func (s *Store) GetRun(ctx context.Context, principal, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, principal, seq, name, event_date, capacity, seed, created_at,
		       selected_count, eligible_count, meta,
		       signup_csv, selected_csv, eligible_csv
		FROM runs
		WHERE principal = ? AND id = ?
	`, principal, id)

	var r Run
	err := scanRun(row, &r, &r.Signups, &r.Selected, &r.Eligible)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("get run %s: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("get run %s: %w", id, err)
	}
	return r, nil
}

// ListRuns returns the principal's runs without artifacts, oldest first.
// Returns an empty slice (not nil) when there are none.
func (s *Store) ListRuns(ctx context.Context, principal string) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, principal, seq, name, event_date, capacity, seed, created_at,
		       selected_count, eligible_count, meta
		FROM runs
		WHERE principal = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, principal)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var r Run
		if err := scanRun(rows, &r); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner, r *Run, blobs ...any) error {
	var (
		eventDate, createdAt, meta string
	)
	dest := []any{
		&r.ID, &r.Principal, &r.Seq, &r.Name, &eventDate, &r.Capacity, &r.Seed, &createdAt,
		&r.SelectedCount, &r.EligibleCount, &meta,
	}
	if err := sc.Scan(append(dest, blobs...)...); err != nil {
		return err
	}

	var err error
	if r.EventDate, err = parseDate(eventDate); err != nil {
		return err
	}
	if r.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return err
	}
	m, err := unmarshalMeta(meta)
	if err != nil {
		return err
	}
	r.Report, r.Adjustments, r.UnknownSelected = m.Report, m.Adjustments, m.Unknown
	return nil
}

func nonNil(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}
