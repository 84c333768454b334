package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Ledger is a principal's stored ledger text.
type Ledger struct {
	Principal string
	Text      []byte
	// Revision counts saves, starting at 1.
	Revision  int64
	UpdatedAt time.Time
}

// LoadLedger returns the principal's ledger, or ErrLedgerNotFound.
func (s *Store) LoadLedger(ctx context.Context, principal string) (Ledger, error) {
	l, err := loadLedger(ctx, s.db, principal)
	if err != nil {
		return Ledger{}, fmt.Errorf("load ledger: %w", err)
	}
	return l, nil
}

// SaveLedger overwrites the principal's ledger and returns the new revision.
func (s *Store) SaveLedger(ctx context.Context, principal string, text []byte) (int64, error) {
	var rev int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		rev, err = s.putLedger(ctx, tx, principal, text)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("save ledger: %w", err)
	}
	return rev, nil
}

// UpdateLedger applies fn to the principal's current ledger text (nil when
// none exists) and stores the result. The read and the write happen in one
// transaction, so concurrent updates for the same principal are serialised.
// If fn returns an error nothing is written.
func (s *Store) UpdateLedger(ctx context.Context, principal string, fn func(current []byte) ([]byte, error)) (int64, error) {
	var rev int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		current, err := currentText(ctx, tx, principal)
		if err != nil {
			return err
		}
		next, err := fn(current)
		if err != nil {
			return err
		}
		rev, err = s.putLedger(ctx, tx, principal, next)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("update ledger: %w", err)
	}
	return rev, nil
}

// DeleteLedger removes the principal's ledger. Archived runs are kept.
func (s *Store) DeleteLedger(ctx context.Context, principal string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM ledgers WHERE principal = ?`, principal)
	if err != nil {
		return fmt.Errorf("delete ledger: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete ledger: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("delete ledger: %w", ErrLedgerNotFound)
	}
	return nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func loadLedger(ctx context.Context, q queryer, principal string) (Ledger, error) {
	var (
		l       = Ledger{Principal: principal}
		updated string
	)
	err := q.QueryRowContext(ctx, `
		SELECT csv_text, revision, updated_at
		FROM ledgers
		WHERE principal = ?
	`, principal).Scan(&l.Text, &l.Revision, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return Ledger{}, ErrLedgerNotFound
	}
	if err != nil {
		return Ledger{}, err
	}
	l.UpdatedAt, err = parseTimestamp(updated)
	if err != nil {
		return Ledger{}, err
	}
	return l, nil
}

// currentText reads the ledger inside a transaction; a missing ledger is
// nil text, not an error.
func currentText(ctx context.Context, tx *sql.Tx, principal string) ([]byte, error) {
	l, err := loadLedger(ctx, tx, principal)
	if errors.Is(err, ErrLedgerNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return l.Text, nil
}

func (s *Store) putLedger(ctx context.Context, tx *sql.Tx, principal string, text []byte) (int64, error) {
	if text == nil {
		text = []byte{}
	}
	var rev int64
	err := tx.QueryRowContext(ctx, `
		INSERT INTO ledgers (principal, csv_text, revision, updated_at)
		VALUES (?, ?, 1, ?)
		ON CONFLICT(principal) DO UPDATE SET
			csv_text = excluded.csv_text,
			revision = ledgers.revision + 1,
			updated_at = excluded.updated_at
		RETURNING revision
	`, principal, text, formatTimestamp(s.now())).Scan(&rev)
	if err != nil {
		return 0, fmt.Errorf("write ledger: %w", err)
	}
	return rev, nil
}
