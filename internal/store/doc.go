// Package store provides SQLite-backed durable storage for raffle ledgers
// and run archives.
//
// Each principal owns exactly one ledger: the CSV text read back at the
// start of every run and overwritten at its end. Runs are archived with
// their three artifacts (sign-up snapshot, selected list, eligible ranking)
// and the seed that produced them.
//
// # Serialisation
//
// A run is a read-modify-write of the principal's ledger. UpdateLedger and
// CommitRun perform the read and the write inside one IMMEDIATE transaction,
// so two runs for the same principal can never both start from the same
// revision and lose an update.
//
// # Ordering
//
//   - Runs are ordered by a per-principal seq INTEGER (logical clock), never
//     by timestamps
//   - List queries use ORDER BY seq ASC, id ASC COLLATE BINARY
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - _txlock=immediate: Writers take the lock at BEGIN
package store
