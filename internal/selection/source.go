package selection

import (
	"encoding/hex"
	"fmt"

	"lukechampine.com/frand"
)

// Shuffler permutes n elements through swap. *frand.RNG and *math/rand.Rand
// both satisfy it.
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

// SeedSize is the length of a tie-break seed in bytes.
const SeedSize = 32

// Seed identifies a tie-break source so a run can be replayed exactly.
type Seed [SeedSize]byte

// String renders the seed as hex.
func (s Seed) String() string { return hex.EncodeToString(s[:]) }

// ParseSeed decodes a hex seed produced by Seed.String.
func ParseSeed(s string) (Seed, error) {
	var seed Seed
	b, err := hex.DecodeString(s)
	if err != nil {
		return seed, fmt.Errorf("parse seed: %w", err)
	}
	if len(b) != SeedSize {
		return seed, fmt.Errorf("parse seed: want %d bytes, got %d", SeedSize, len(b))
	}
	copy(seed[:], b)
	return seed, nil
}

// Source is a seeded ChaCha generator used for tie-breaking.
type Source struct {
	rng  *frand.RNG
	seed Seed
}

// NewSource returns a source seeded from fresh system entropy. Call it once
// per selection run; never share one across runs.
func NewSource() *Source {
	return NewSeededSource(frand.Entropy256())
}

// NewSeededSource returns a source that replays the given seed.
func NewSeededSource(seed Seed) *Source {
	return &Source{rng: frand.NewCustom(seed[:], 1024, 12), seed: seed}
}

// Seed reports the seed the source was built from.
func (s *Source) Seed() Seed { return s.seed }

// Shuffle implements Shuffler.
func (s *Source) Shuffle(n int, swap func(i, j int)) { s.rng.Shuffle(n, swap) }

// NoShuffle leaves order untouched. Tests use it to make ties follow input
// order.
type NoShuffle struct{}

// Shuffle implements Shuffler.
func (NoShuffle) Shuffle(int, func(i, j int)) {}
