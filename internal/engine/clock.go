package engine

import "time"

// Clock reports wall-clock time for run timestamps. Timestamps are recorded
// for operators only; run ordering comes from the store's per-principal
// sequence.
type Clock func() time.Time

// SystemClock is the default Clock, in UTC.
func SystemClock() time.Time {
	return time.Now().UTC()
}

// FixedClock returns a Clock that always reports t.
func FixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}
