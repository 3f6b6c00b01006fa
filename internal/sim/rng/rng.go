// Package rng is the single source of randomness for the simulation.
//
// Every random decision (agent heuristics, the random oracle, container
// generation) draws from a Source so runs can be replayed from a seed and tests
// can script exact outcomes.
package rng

import (
	"fmt"
	"math/rand/v2"
)

type Source interface {
	// Bits returns a uniformly random value in [0, 2^n).
	Bits(n uint) uint64
	// IntN returns a uniformly random value in [0, n). It panics if n <= 0.
	IntN(n int) int
}

// PCG is the default seeded source.
type PCG struct {
	r *rand.Rand
}

func NewSeeded(seed int64) *PCG {
	return &PCG{r: rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15))}
}

func (p *PCG) Bits(n uint) uint64 {
	if n == 0 {
		return 0
	}
	if n >= 64 {
		return p.r.Uint64()
	}
	return p.r.Uint64() & (1<<n - 1)
}

func (p *PCG) IntN(n int) int { return p.r.IntN(n) }

// Scripted replays a fixed sequence of values. Bits and IntN draw from separate
// queues; once a queue is exhausted its Fallback is used, or the call panics if
// Fallback is nil.
type Scripted struct {
	BitsSeq []uint64
	IntSeq  []int

	Fallback Source
}

func (s *Scripted) Bits(n uint) uint64 {
	if len(s.BitsSeq) == 0 {
		if s.Fallback == nil {
			panic(fmt.Sprintf("rng: scripted Bits(%d) exhausted", n))
		}
		return s.Fallback.Bits(n)
	}
	v := s.BitsSeq[0]
	s.BitsSeq = s.BitsSeq[1:]
	if n < 64 {
		v &= 1<<n - 1
	}
	return v
}

func (s *Scripted) IntN(n int) int {
	if len(s.IntSeq) == 0 {
		if s.Fallback == nil {
			panic(fmt.Sprintf("rng: scripted IntN(%d) exhausted", n))
		}
		return s.Fallback.IntN(n)
	}
	v := s.IntSeq[0]
	s.IntSeq = s.IntSeq[1:]
	if v < 0 || v >= n {
		panic(fmt.Sprintf("rng: scripted IntN(%d) value %d out of range", n, v))
	}
	return v
}

// Constant always answers the same bits value (masked to n bits) and IntN(0).
type Constant uint64

func (c Constant) Bits(n uint) uint64 {
	if n >= 64 {
		return uint64(c)
	}
	return uint64(c) & (1<<n - 1)
}

func (c Constant) IntN(n int) int { return 0 }
