package ingest

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/roach88/raffle/internal/record"
)

// FromMaps builds rows from structured input such as YAML or JSON fixtures.
// Keys are normalised like CSV headers and emitted in sorted order; list
// values are flattened to comma-joined strings.
func FromMaps(items []map[string]any) []Row {
	rows := make([]Row, 0, len(items))
	for _, item := range items {
		keys := make([]string, 0, len(item))
		for k := range item {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		row := make(Row, 0, len(keys))
		for _, k := range keys {
			name := record.NormalizeColumn(k)
			if name == "" {
				continue
			}
			row = row.Set(name, Flatten(item[k]))
		}
		rows = append(rows, row)
	}
	return rows
}

// Flatten renders a cell value as a trimmed string. Lists become a
// comma-joined string of their flattened elements.
func Flatten(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case []string:
		parts := make([]string, 0, len(x))
		for _, s := range x {
			if s = strings.TrimSpace(s); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ",")
	case []any:
		parts := make([]string, 0, len(x))
		for _, e := range x {
			if s := Flatten(e); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ",")
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	default:
		return strings.TrimSpace(fmt.Sprint(x))
	}
}

// Encode writes rows as CSV. The header is the union of column names in
// first-seen order; rows missing a column emit blank.
func Encode(rows []Row) []byte {
	var header []string
	seen := map[string]bool{}
	for _, row := range rows {
		for _, c := range row {
			if !seen[c.Name] {
				seen[c.Name] = true
				header = append(header, c.Name)
			}
		}
	}
	if len(header) == 0 {
		return []byte{}
	}

	records := make([][]string, 0, len(rows)+1)
	records = append(records, header)
	for _, row := range rows {
		out := make([]string, len(header))
		for i, name := range header {
			out[i] = row.Value(name)
		}
		records = append(records, out)
	}
	return MustCSV(records)
}

// WriteCSV writes records to dst and reports the first write or flush
// error.
func WriteCSV(dst io.Writer, records [][]string) error {
	w := csv.NewWriter(dst)
	for _, rec := range records {
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// MustCSV renders records in memory. Writes to a bytes.Buffer only fail
// when memory runs out, so an error here panics.
func MustCSV(records [][]string) []byte {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, records); err != nil {
		panic(err)
	}
	return buf.Bytes()
}
