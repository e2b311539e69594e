// Package random holds the randomness primitives exposed to the model:
// a uniform integer in a closed range and a weighted pick from a list.
//
// Both take a Source so tests can pin every draw.
package random

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand/v2"
	"sync"
)

// Source supplies the raw draws. Implementations must be safe for concurrent use
// if they are shared between sessions.
type Source interface {
	// Float64 returns a value in [0, 1).
	Float64() float64

	// Int64N returns a value in [0, n). n is always > 0.
	Int64N(n int64) int64
}

// NewSeed generates a random seed using crypto/rand.
func NewSeed() (uint64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

// PCGSource is a mutex-guarded PCG generator.
type PCGSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSource returns a Source seeded from crypto/rand. This is the production path.
func NewSource() (*PCGSource, error) {
	seed, err := NewSeed()
	if err != nil {
		return nil, err
	}
	return NewSeededSource(seed), nil
}

// NewSeededSource returns a reproducible Source. Equal seeds yield equal sequences.
func NewSeededSource(seed uint64) *PCGSource {
	return &PCGSource{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (s *PCGSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

func (s *PCGSource) Int64N(n int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Int64N(n)
}
