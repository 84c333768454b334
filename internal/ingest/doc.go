// Package ingest parses heterogeneous CSV exports into normalised rows.
//
// Ingestion never fails. Unknown encodings degrade to U+FFFD replacement,
// banner lines before the real header are discarded, and a file without any
// recognisable header yields an empty result. Interpreting the columns is the
// consumer's job; this package only normalises header names (trimmed,
// lowercased) and trims values.
//
// Header detection is an ordered list of Strategy values. Each strategy looks
// at the decoded records and names the header row; the first one that finds a
// header wins, and every strategy feeds the same row builder.
package ingest
