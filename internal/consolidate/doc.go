// Package consolidate merges a sign-up list onto the historical ledger,
// producing one canonical record.Student per identity.
//
// History is authoritative for identity metadata and counters. A sign-up row
// contributes its response for the current cycle and may fill identity fields
// the history left blank, nothing else. Rows with no usable identity are
// dropped and counted in the Report so callers can surface data quality.
package consolidate
