package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/raffle/internal/ingest"
	"github.com/roach88/raffle/internal/record"
)

// Scenario pins the inputs of one raffle run and its expected outcome.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Seed is the hex tie-break seed. Empty means the all-zero seed.
	Seed string `yaml:"seed,omitempty"`

	// RunID is the fixed run id. Defaults to "test-run-default".
	RunID string `yaml:"run_id,omitempty"`

	Event    string `yaml:"event"`
	Capacity int    `yaml:"capacity"`
	Date     string `yaml:"date,omitempty"`
	Cutoff   string `yaml:"cutoff,omitempty"`

	// Historical is the ledger the run starts from. Empty means no ledger
	// yet.
	Historical Table `yaml:"historical,omitempty"`

	// Signups is the sign-up export.
	Signups Table `yaml:"signups"`

	Adjustments map[string]record.Adjustment `yaml:"adjustments,omitempty"`

	Expect Expectations `yaml:"expect"`
}

// Table is CSV text given either verbatim (a YAML string) or as a list of
// rows (a YAML sequence of mappings), which is encoded to CSV on load.
type Table string

// UnmarshalYAML implements yaml.Unmarshaler.
func (t *Table) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var text string
		if err := node.Decode(&text); err != nil {
			return err
		}
		*t = Table(text)
	case yaml.SequenceNode:
		var items []map[string]any
		if err := node.Decode(&items); err != nil {
			return fmt.Errorf("line %d: rows must be mappings: %w", node.Line, err)
		}
		*t = Table(ingest.Encode(ingest.FromMaps(items)))
	default:
		return fmt.Errorf("line %d: want CSV text or a list of rows", node.Line)
	}
	return nil
}

// Expectations are checked against the run outcome. Omitted fields are
// not checked.
type Expectations struct {
	// Selected lists selected emails in rank order.
	Selected []string `yaml:"selected,omitempty"`

	EligibleCount *int `yaml:"eligible_count,omitempty"`

	// UnknownSelected lists selected emails that had no ledger record.
	UnknownSelected []string `yaml:"unknown_selected,omitempty"`

	DroppedSignups *int `yaml:"dropped_signups,omitempty"`

	// LedgerContains are records that must appear in the stored ledger.
	LedgerContains []LedgerRow `yaml:"ledger_contains,omitempty"`

	// LedgerAbsent lists emails that must not appear in the stored ledger.
	LedgerAbsent []string `yaml:"ledger_absent,omitempty"`
}

// LedgerRow is a subset match against one ledger record, found by email.
type LedgerRow struct {
	Email    string            `yaml:"email"`
	Attended *int              `yaml:"attended,omitempty"`
	Absent   *int              `yaml:"absent,omitempty"`
	Late     *int              `yaml:"late,omitempty"`
	Events   []string          `yaml:"events,omitempty"`
	Latest   string            `yaml:"latest,omitempty"`
	Columns  map[string]string `yaml:"columns,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "expects:" vs "expect:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Event == "" {
		return fmt.Errorf("event is required")
	}
	if s.Capacity < 0 {
		return fmt.Errorf("capacity must be >= 0, got %d", s.Capacity)
	}
	for i, row := range s.Expect.LedgerContains {
		if row.Email == "" {
			return fmt.Errorf("expect.ledger_contains[%d]: email is required", i)
		}
	}
	return nil
}
