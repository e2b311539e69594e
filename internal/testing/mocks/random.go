package mocks

import (
	"sync"
)

// SequenceSource replays scripted draws. Each list wraps around when exhausted,
// so a single value pins every draw. Int64N results are reduced modulo n.
type SequenceSource struct {
	Mu     sync.Mutex
	Floats []float64
	Ints   []int64

	FloatCalls int
	IntCalls   int
	// IntArgs records the n passed to each Int64N call.
	IntArgs []int64
}

// NewSequenceSource creates a source that returns floats from Float64 in order.
func NewSequenceSource(floats ...float64) *SequenceSource {
	return &SequenceSource{Floats: floats}
}

// WithInts sets the values returned by Int64N.
func (s *SequenceSource) WithInts(ints ...int64) *SequenceSource {
	s.Ints = ints
	return s
}

// Float64 implements random.Source.
func (s *SequenceSource) Float64() float64 {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	if len(s.Floats) == 0 {
		s.FloatCalls++
		return 0
	}
	v := s.Floats[s.FloatCalls%len(s.Floats)]
	s.FloatCalls++
	return v
}

// Int64N implements random.Source.
func (s *SequenceSource) Int64N(n int64) int64 {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	s.IntArgs = append(s.IntArgs, n)
	if len(s.Ints) == 0 {
		s.IntCalls++
		return 0
	}
	v := s.Ints[s.IntCalls%len(s.Ints)]
	s.IntCalls++
	return ((v % n) + n) % n
}
