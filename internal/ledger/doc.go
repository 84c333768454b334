// Package ledger reads, writes and regenerates the historical attendance
// ledger, the CSV artifact round-tripped between runs.
//
// Ledger layout:
//
//	email, First Name, Last Name, Class, Event1..EventN, Absent, Late,
//	Attended, Attended Events, Latest Attended
//
// N is derived from the passthrough event columns present in the input, so
// the format grows as events accumulate without a fixed schema. Passthrough
// columns that are not numbered follow the numbered block under their own
// names. Two optional trailing columns, "Last Attended Date" and "User ID",
// appear only when some record carries that information.
//
// Everything here is deterministic and free of I/O.
package ledger
