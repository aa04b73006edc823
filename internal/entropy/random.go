// Package entropy resolves simulation seeds and builds the seeded random
// sources every stochastic step draws from. A zero seed is replaced with one
// read from crypto/rand so unseeded runs still differ.
package entropy

import (
	"crypto/rand"
	"encoding/binary"
	mrand "math/rand"
)

// Resolve returns seed unchanged, or a fresh random seed when seed is 0.
func Resolve(seed int64) int64 {
	if seed != 0 {
		return seed
	}
	for {
		if s := cryptoSeed(); s != 0 {
			return s
		}
	}
}

// NewRand creates a deterministic source for the given seed.
func NewRand(seed int64) *mrand.Rand {
	return mrand.New(mrand.NewSource(seed))
}

// Derive offsets a seed so independent subsystems get independent streams.
func Derive(seed int64, offset int64) int64 {
	return seed + offset
}

// cryptoSeed reads a positive int64 from crypto/rand.
func cryptoSeed() int64 {
	var buf [8]byte
	_, err := rand.Read(buf[:])
	if err != nil {
		// This should never happen; fall back to the global source.
		return mrand.Int63()
	}
	return int64(binary.LittleEndian.Uint64(buf[:]) >> 1)
}
