package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/roach88/raffle/internal/consolidate"
	"github.com/roach88/raffle/internal/record"
)

const (
	timestampLayout = time.RFC3339Nano
	dateLayout      = "2006-01-02"
)

// runMeta is the JSON stored in runs.meta.
type runMeta struct {
	Report      consolidate.Report `json:"report"`
	Adjustments record.Adjustments `json:"adjustments,omitempty"`
	Unknown     []string           `json:"unknown_selected,omitempty"`
}

// marshalMeta converts run metadata to JSON TEXT. Map keys are sorted by
// encoding/json, so identical runs store identical text.
func marshalMeta(m runMeta) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(m); err != nil {
		return "", fmt.Errorf("marshal run meta: %w", err)
	}
	// Encoder adds a trailing newline, remove it
	return strings.TrimSpace(buf.String()), nil
}

func unmarshalMeta(data string) (runMeta, error) {
	var m runMeta
	if data == "" || data == "{}" {
		return m, nil
	}
	if err := json.Unmarshal([]byte(data), &m); err != nil {
		return runMeta{}, fmt.Errorf("unmarshal run meta: %w", err)
	}
	return m, nil
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(timestampLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}
