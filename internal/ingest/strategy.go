package ingest

import "github.com/roach88/raffle/internal/record"

// Header marker aliases. A row carrying one column from each group is taken
// to be the authoritative header.
var (
	EmailColumns     = []string{"email", "email address", "e-mail"}
	FirstNameColumns = []string{"first name", "firstname", "first", "firstname(s)"}
	LastNameColumns  = []string{"last name", "lastname", "last"}
)

var markerGroups = [][]string{EmailColumns, FirstNameColumns, LastNameColumns}

// Strategy locates the header among decoded CSV records.
type Strategy interface {
	// Name identifies the strategy in logs and Detect results.
	Name() string
	// HeaderIndex returns the index of the header record, or -1.
	HeaderIndex(records [][]string) int
}

// DefaultStrategies is the order Parse tries strategies in.
var DefaultStrategies = []Strategy{HeaderFirst{}, BannerPrefixed{}, FirstLine{}}

// HeaderFirst accepts files whose first record is a marked header.
type HeaderFirst struct{}

func (HeaderFirst) Name() string { return "header-first" }

func (HeaderFirst) HeaderIndex(records [][]string) int {
	if len(records) > 0 && hasMarkers(records[0]) {
		return 0
	}
	return -1
}

// BannerPrefixed scans past preamble lines that some exports prepend (report
// titles, meeting metadata) until it finds a marked header.
type BannerPrefixed struct{}

func (BannerPrefixed) Name() string { return "banner-prefixed" }

func (BannerPrefixed) HeaderIndex(records [][]string) int {
	for i, rec := range records {
		if hasMarkers(rec) {
			return i
		}
	}
	return -1
}

// FirstLine is the fallback: whatever the first record is, it is the header.
type FirstLine struct{}

func (FirstLine) Name() string { return "first-line" }

func (FirstLine) HeaderIndex(records [][]string) int {
	if len(records) == 0 {
		return -1
	}
	return 0
}

func hasMarkers(rec []string) bool {
	seen := make(map[string]bool, len(rec))
	for _, cell := range rec {
		seen[record.NormalizeColumn(cell)] = true
	}
	for _, group := range markerGroups {
		found := false
		for _, alias := range group {
			if seen[alias] {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
