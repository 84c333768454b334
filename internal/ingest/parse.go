package ingest

import (
	"encoding/csv"
	"errors"
	"io"
	"strings"

	"github.com/roach88/raffle/internal/record"
)

// OverflowColumn holds cells beyond the header width, comma-joined. Exports
// emit these for multi-valued answers.
const OverflowColumn = "_overflow"

// Row is one normalised data row.
type Row = record.Columns

// Parse decodes raw bytes and returns the data rows using DefaultStrategies.
func Parse(raw []byte) []Row {
	rows, _ := ParseWith(raw, DefaultStrategies...)
	return rows
}

// Detect reports which strategy located the header, or "" when none did.
func Detect(raw []byte) string {
	_, name := ParseWith(raw, DefaultStrategies...)
	return name
}

// ParseWith parses using the given strategies in order and also returns the
// name of the strategy that matched. A nil or empty result is never an error.
func ParseWith(raw []byte, strategies ...Strategy) ([]Row, string) {
	records := readRecords(Decode(raw))
	for _, s := range strategies {
		idx := s.HeaderIndex(records)
		if idx < 0 {
			continue
		}
		return buildRows(records[idx], records[idx+1:]), s.Name()
	}
	return []Row{}, ""
}

// readRecords reads every well-formed record. Malformed records are skipped
// rather than aborting the file.
func readRecords(text string) [][]string {
	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	var out [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			continue
		}
		if err != nil {
			break
		}
		if isBlank(rec) {
			continue
		}
		out = append(out, rec)
	}
	return out
}

func buildRows(header []string, data [][]string) []Row {
	names := make([]string, len(header))
	labels := make([]string, len(header))
	for i, h := range header {
		names[i] = record.NormalizeColumn(h)
		if raw := strings.TrimSpace(strings.ReplaceAll(h, "\ufeff", "")); raw != names[i] {
			labels[i] = raw
		}
	}

	rows := make([]Row, 0, len(data))
	for _, rec := range data {
		if isBlank(rec) {
			continue
		}
		row := make(Row, 0, len(names))
		for i, name := range names {
			if name == "" {
				continue
			}
			var v string
			if i < len(rec) {
				v = strings.TrimSpace(rec[i])
			}
			row = append(row, record.Column{Name: name, Header: labels[i], Value: v})
		}
		if len(rec) > len(names) {
			row = append(row, record.Column{
				Name:  OverflowColumn,
				Value: joinCells(rec[len(names):]),
			})
		}
		rows = append(rows, row)
	}
	return rows
}

func joinCells(cells []string) string {
	parts := make([]string, 0, len(cells))
	for _, c := range cells {
		if c = strings.TrimSpace(c); c != "" {
			parts = append(parts, c)
		}
	}
	return strings.Join(parts, ",")
}

func isBlank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
