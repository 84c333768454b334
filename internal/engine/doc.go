// Package engine runs one raffle cycle end to end.
//
// A run takes the raw sign-up export and the principal's current ledger
// text, consolidates them into a master list, ranks and selects eligible
// students, and regenerates the ledger. It performs no I/O: callers hand in
// bytes and persist what comes back (see package store).
//
// The tie-break shuffle is the only non-deterministic step. Every run draws
// a fresh seed from its SourceFactory and records it in the Outcome so the
// exact ranking can be reproduced later.
package engine
