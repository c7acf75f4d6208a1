package network

import (
	"encoding/binary"
	"math/rand/v2"
)

// newPRNG builds a deterministic generator from a 32-byte seed. It is
// the network's only source of randomness: reordering and delay
// decisions both draw from it, so two runs built from the same seed
// replay identically.
func newPRNG(seed [32]byte) *rand.Rand {
	s1 := binary.LittleEndian.Uint64(seed[0:8])
	s2 := binary.LittleEndian.Uint64(seed[8:16])
	return rand.New(rand.NewPCG(s1, s2))
}

// shuffle permutes xs in place using rng.
func shuffle[T any](rng *rand.Rand, xs []T) {
	rng.Shuffle(len(xs), func(i, j int) { xs[i], xs[j] = xs[j], xs[i] })
}
