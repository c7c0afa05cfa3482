package rng

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUniformDeterministic(t *testing.T) {
	a, b := New(42), New(42)
	for i := 0; i < 100; i++ {
		require.Equal(t, a.Float64(), b.Float64(), "draw %d", i)
	}
	assert.Equal(t, uint64(42), a.Seed())
}

func TestUniformSeedsDiffer(t *testing.T) {
	a, b := New(1), New(2)
	same := 0
	for i := 0; i < 50; i++ {
		if a.Float64() == b.Float64() {
			same++
		}
	}
	assert.Less(t, same, 50)
}

func TestUniformOpenInterval(t *testing.T) {
	u := New(0)
	for i := 0; i < 10000; i++ {
		v := u.Float64()
		if v <= 0 || v >= 1 {
			t.Fatalf("draw %d = %v outside (0,1)", i, v)
		}
	}
}

func TestSequence(t *testing.T) {
	s := NewSequence(0.1, 0.2)
	assert.Equal(t, 2, s.Remaining())
	assert.Equal(t, 0.1, s.Float64())
	assert.Equal(t, 0.2, s.Float64())
	assert.Equal(t, 0, s.Remaining())
	assert.Panics(t, func() { s.Float64() })
}

func TestRecorderReplays(t *testing.T) {
	rec := NewRecorder(New(9))
	want := []float64{rec.Float64(), rec.Float64(), rec.Float64()}

	assert.Equal(t, want, rec.Draws())

	replay := NewSequence(rec.Draws()...)
	for _, v := range want {
		assert.Equal(t, v, replay.Float64())
	}
}
