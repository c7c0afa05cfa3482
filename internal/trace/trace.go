// Package trace records trajectories as CSV and reads them back.
//
// The format is one header row, time,last_reaction_id followed by one
// column per species, then one row per snapshot. The initial snapshot has an
// empty last_reaction_id. Times use the shortest decimal form that
// round-trips, so an infinite waiting time is written as +Inf.
package trace

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/san-kum/grnsim/internal/gillespie"
)

var ErrFormat = errors.New("malformed trajectory")

const (
	timeColumn     = "time"
	reactionColumn = "last_reaction_id"
)

// CSVWriter writes snapshots as CSV rows. It satisfies sim.Observer. The
// first write error is kept and reported by Flush; later rows are dropped.
type CSVWriter struct {
	w       *csv.Writer
	species []string
	row     []string
	started bool
	err     error
}

func NewCSVWriter(w io.Writer, species []string) *CSVWriter {
	return &CSVWriter{
		w:       csv.NewWriter(w),
		species: append([]string(nil), species...),
		row:     make([]string, len(species)+2),
	}
}

// Start writes the header. OnStep calls it when needed.
func (c *CSVWriter) Start() error {
	if c.started {
		return c.err
	}
	c.started = true
	header := append([]string{timeColumn, reactionColumn}, c.species...)
	if err := c.w.Write(header); err != nil {
		c.err = err
	}
	return c.err
}

func (c *CSVWriter) OnStep(s gillespie.Snapshot) {
	if c.Start() != nil {
		return
	}
	if len(s.Counts) != len(c.species) {
		c.err = fmt.Errorf("%w: snapshot has %d counts, header has %d species", ErrFormat, len(s.Counts), len(c.species))
		return
	}

	c.row[0] = strconv.FormatFloat(s.Time, 'g', -1, 64)
	c.row[1] = ""
	if s.Reaction != gillespie.NoReaction {
		c.row[1] = strconv.Itoa(s.Reaction)
	}
	for i, n := range s.Counts {
		c.row[i+2] = strconv.FormatUint(n, 10)
	}
	if err := c.w.Write(c.row); err != nil {
		c.err = err
	}
}

// Flush writes any buffered rows and returns the first error seen.
func (c *CSVWriter) Flush() error {
	c.w.Flush()
	if c.err != nil {
		return c.err
	}
	return c.w.Error()
}

// Trajectory is a parsed trace.
type Trajectory struct {
	Species   []string
	Times     []float64
	Reactions []int
	States    [][]uint64
}

func (t *Trajectory) Len() int { return len(t.Times) }

func (t *Trajectory) Snapshot(i int) gillespie.Snapshot {
	return gillespie.Snapshot{Time: t.Times[i], Reaction: t.Reactions[i], Counts: t.States[i]}
}

// Series returns the counts of species i over the trajectory.
func (t *Trajectory) Series(i int) []float64 {
	out := make([]float64, len(t.States))
	for k, s := range t.States {
		out[k] = float64(s[i])
	}
	return out
}

// ReadCSV parses a trace written by CSVWriter.
func ReadCSV(r io.Reader) (*Trajectory, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: missing header", ErrFormat)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	if len(header) < 2 || header[0] != timeColumn || header[1] != reactionColumn {
		return nil, fmt.Errorf("%w: unexpected header %v", ErrFormat, header)
	}

	tr := &Trajectory{Species: header[2:]}
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFormat, err)
		}

		t, err := strconv.ParseFloat(rec[0], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: time %q", ErrFormat, line, rec[0])
		}

		reaction := gillespie.NoReaction
		if rec[1] != "" {
			reaction, err = strconv.Atoi(rec[1])
			if err != nil || reaction < 0 {
				return nil, fmt.Errorf("%w: line %d: reaction %q", ErrFormat, line, rec[1])
			}
		}

		counts := make([]uint64, len(tr.Species))
		for i, field := range rec[2:] {
			counts[i], err = strconv.ParseUint(field, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: count %q for %s", ErrFormat, line, field, tr.Species[i])
			}
		}

		tr.Times = append(tr.Times, t)
		tr.Reactions = append(tr.Reactions, reaction)
		tr.States = append(tr.States, counts)
	}
	return tr, nil
}
