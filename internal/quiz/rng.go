// internal/quiz/rng.go
//
// Randomness for round building.
//   - RandomSource: the only thing the engine needs from an RNG.
//   - DefaultRNG for live games, NewSeededRNG for reproducible ones
//     (tests and the daily challenge).

package quiz

import (
	cryptoRand "crypto/rand"
	"math/rand/v2"
)

// RandomSource is the randomness an engine draws from.
// Implementations need not be safe for concurrent use; the engine serializes calls.
type RandomSource interface {
	IntN(n int) int // [0, n)
}

// DefaultRNG returns a ChaCha8 generator seeded from crypto/rand.
func DefaultRNG() RandomSource {
	var seed [32]byte
	_, _ = cryptoRand.Read(seed[:])
	return rand.New(rand.NewChaCha8(seed))
}

// NewSeededRNG returns a reproducible generator (tests, daily challenge).
func NewSeededRNG(seed uint64) RandomSource {
	return rand.New(rand.NewPCG(seed, 0))
}

// shuffle reorders s in place using Fisher-Yates.
func shuffle(rng RandomSource, s []string) {
	for i := len(s) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		s[i], s[j] = s[j], s[i]
	}
}
