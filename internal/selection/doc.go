// Package selection ranks eligible students by need and picks the top N.
//
// The ranking key, ascending, is (events attended, absences, late arrivals,
// last attended date) with "no date" earliest. Students with identical keys
// are ordered by a shuffle applied before a stable sort, so ties land in a
// uniformly random order on every run. The shuffle source is injected: a
// fresh seed per run in production, a fixed one in tests.
package selection
