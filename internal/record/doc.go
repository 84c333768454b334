// Package record provides the canonical student and run types shared by the
// raffle core.
//
// This package contains type definitions and normalisers only. All other
// internal packages import record; record imports nothing internal.
//
// Key design constraints:
//   - Identity is an explicit IdentityKey value, never an ad-hoc string
//   - Ordered tabular data uses Columns (an association list), never maps
//   - Counters are non-negative ints
//   - The zero time.Time means "no date" and sorts earliest
package record
