package trace

import (
	"bytes"
	"context"
	"math"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/grnsim/internal/gillespie"
	"github.com/san-kum/grnsim/internal/rng"
	"github.com/san-kum/grnsim/internal/sim"
)

func newGoldie(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func decaySnapshots() []gillespie.Snapshot {
	return []gillespie.Snapshot{
		{Time: 0, Reaction: gillespie.NoReaction, Counts: []uint64{3, 0}},
		{Time: 0.25, Reaction: 0, Counts: []uint64{2, 1}},
		{Time: 1.5, Reaction: 0, Counts: []uint64{1, 2}},
		{Time: 2.125, Reaction: 1, Counts: []uint64{2, 1}},
		{Time: math.Inf(1), Reaction: 0, Counts: []uint64{1, 2}},
	}
}

func TestCSVWriterGolden(t *testing.T) {
	var buf bytes.Buffer
	w := NewCSVWriter(&buf, []string{"A", "B"})
	for _, s := range decaySnapshots() {
		w.OnStep(s)
	}
	require.NoError(t, w.Flush())

	newGoldie(t).Assert(t, "decay", buf.Bytes())
}

func TestCSVWriterDrivenBySimulator(t *testing.T) {
	sys, err := gillespie.NewSystem([]string{"O2", "H2", "H2O"}, []uint64{2, 2, 2}, []gillespie.Reaction{
		{
			Rate:      0.1,
			Reactants: []gillespie.Reactant{{Species: 0, Quantity: 1}, {Species: 1, Quantity: 2}},
			Products:  []gillespie.Product{{Species: 2, Quantity: 2}},
		},
		{
			Rate:      0.01,
			Reactants: []gillespie.Reactant{{Species: 2, Quantity: 2}},
			Products:  []gillespie.Product{{Species: 0, Quantity: 1}, {Species: 1, Quantity: 2}},
		},
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	w := NewCSVWriter(&buf, sys.SpeciesNames())
	s := sim.New()
	s.AddObserver(w)

	_, err = s.Run(context.Background(), sys, rng.NewSequence(0, 0), sim.Config{MaxSteps: 1})
	require.NoError(t, err)
	require.NoError(t, w.Flush())

	newGoldie(t).Assert(t, "water_scenario_a", buf.Bytes())
}

func TestCSVWriterHeaderOnly(t *testing.T) {
	var buf bytes.Buffer
	w := NewCSVWriter(&buf, []string{"X"})
	require.NoError(t, w.Start())
	require.NoError(t, w.Flush())
	assert.Equal(t, "time,last_reaction_id,X\n", buf.String())
}

func TestCSVWriterCountMismatch(t *testing.T) {
	var buf bytes.Buffer
	w := NewCSVWriter(&buf, []string{"A", "B"})
	w.OnStep(gillespie.Snapshot{Reaction: gillespie.NoReaction, Counts: []uint64{1}})
	assert.ErrorIs(t, w.Flush(), ErrFormat)
}

func TestReadCSVRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewCSVWriter(&buf, []string{"A", "B"})
	snaps := decaySnapshots()
	for _, s := range snaps {
		w.OnStep(s)
	}
	require.NoError(t, w.Flush())

	tr, err := ReadCSV(&buf)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, tr.Species)
	require.Equal(t, len(snaps), tr.Len())
	for i, s := range snaps {
		assert.Equal(t, s, tr.Snapshot(i))
	}
	assert.Equal(t, []float64{0, 1, 2, 1, 2}, tr.Series(1))
}

func TestReadCSVErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"bad header", "t,r,A\n0,,1\n"},
		{"bad time", "time,last_reaction_id,A\nsoon,,1\n"},
		{"bad reaction", "time,last_reaction_id,A\n0,x,1\n"},
		{"negative reaction", "time,last_reaction_id,A\n0,-1,1\n"},
		{"negative count", "time,last_reaction_id,A\n0,,-1\n"},
		{"short row", "time,last_reaction_id,A,B\n0,,1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrFormat)
		})
	}
}
