// Package rng provides the uniform random sources that drive a simulation.
//
// Every source yields values in the open interval (0,1) one at a time, in a
// fixed order, so that a seeded run can be replayed exactly.
package rng

import (
	"encoding/binary"
	"fmt"
	"math/rand/v2"
)

// Uniform is a seeded ChaCha8 stream.
type Uniform struct {
	seed uint64
	r    *rand.Rand
}

// New returns a Uniform seeded from seed. Equal seeds give equal streams.
func New(seed uint64) *Uniform {
	var key [32]byte
	binary.LittleEndian.PutUint64(key[:8], seed)
	return &Uniform{seed: seed, r: rand.New(rand.NewChaCha8(key))}
}

func (u *Uniform) Seed() uint64 { return u.seed }

// Float64 returns a value in (0,1). Exact zeros from the underlying [0,1)
// generator are redrawn.
func (u *Uniform) Float64() float64 {
	for {
		if v := u.r.Float64(); v > 0 {
			return v
		}
	}
}

// Sequence replays a fixed list of values. It panics once exhausted, since a
// scripted run that asks for more draws than scripted is a broken test.
type Sequence struct {
	values []float64
	pos    int
}

func NewSequence(values ...float64) *Sequence {
	return &Sequence{values: append([]float64(nil), values...)}
}

func (s *Sequence) Float64() float64 {
	if s.pos >= len(s.values) {
		panic(fmt.Sprintf("rng: sequence exhausted after %d draws", len(s.values)))
	}
	v := s.values[s.pos]
	s.pos++
	return v
}

// Remaining is the number of values not yet drawn.
func (s *Sequence) Remaining() int { return len(s.values) - s.pos }

// Source is anything that yields uniforms.
type Source interface {
	Float64() float64
}

// Recorder wraps a source and keeps every value it hands out.
type Recorder struct {
	src   Source
	draws []float64
}

func NewRecorder(src Source) *Recorder {
	return &Recorder{src: src}
}

func (r *Recorder) Float64() float64 {
	v := r.src.Float64()
	r.draws = append(r.draws, v)
	return v
}

// Draws returns a copy of the recorded values in draw order.
func (r *Recorder) Draws() []float64 {
	return append([]float64(nil), r.draws...)
}
