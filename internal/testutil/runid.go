package testutil

// DefaultRunID is used when a test does not name its run.
const DefaultRunID = "test-run-default"

// FixedRunIDGenerator returns the same run id every time.
//
// Unlike engine.FixedGenerator which returns ids in sequence, this generator
// never runs out. Useful when a test performs an unknown number of runs
// against separate stores.
//
// Thread-safety: FixedRunIDGenerator is stateless and safe for concurrent use.
type FixedRunIDGenerator struct {
	id string
}

// NewFixedRunIDGenerator creates a generator for id. If id is empty,
// Generate returns DefaultRunID.
func NewFixedRunIDGenerator(id string) *FixedRunIDGenerator {
	if id == "" {
		id = DefaultRunID
	}
	return &FixedRunIDGenerator{id: id}
}

// Generate returns the fixed run id.
func (g *FixedRunIDGenerator) Generate() string {
	return g.id
}
