package sim

import (
	"errors"
	"fmt"

	"github.com/san-kum/grnsim/internal/gillespie"
)

// Observer receives the initial snapshot and one snapshot per fired reaction.
type Observer interface {
	OnStep(s gillespie.Snapshot)
}

type Metric interface {
	Name() string
	Observe(s gillespie.Snapshot)
	Value() float64
	Reset()
}

// Config is the stopping and recording policy of a run. A zero MaxSteps or
// MaxTime means no bound of that kind; at least one must be set. A zero
// RecordEvery records every step.
type Config struct {
	MaxSteps    int
	MaxTime     float64
	RecordEvery int
}

func DefaultConfig() Config {
	return Config{
		MaxSteps:    10000,
		MaxTime:     0,
		RecordEvery: 1,
	}
}

// StopReason says why a run ended.
type StopReason int

const (
	StopNone StopReason = iota
	StopMaxSteps
	StopMaxTime
	StopAbsorbed
	StopCallback
	StopCanceled
	StopFailed
)

func (r StopReason) String() string {
	switch r {
	case StopNone:
		return "none"
	case StopMaxSteps:
		return "max_steps"
	case StopMaxTime:
		return "max_time"
	case StopAbsorbed:
		return "absorbed"
	case StopCallback:
		return "callback"
	case StopCanceled:
		return "canceled"
	case StopFailed:
		return "failed"
	default:
		return fmt.Sprintf("StopReason(%d)", int(r))
	}
}

// Result is a recorded trajectory. Times, Reactions and States are parallel;
// entry 0 is the initial state with Reaction == gillespie.NoReaction.
type Result struct {
	Times      []float64
	Reactions  []int
	States     [][]uint64
	StepsTaken int
	Stop       StopReason
	Metrics    map[string]float64
}

func (r *Result) append(s gillespie.Snapshot) {
	r.Times = append(r.Times, s.Time)
	r.Reactions = append(r.Reactions, s.Reaction)
	r.States = append(r.States, s.Counts)
}

// Len is the number of recorded snapshots.
func (r *Result) Len() int { return len(r.Times) }

// Snapshot returns recorded entry i.
func (r *Result) Snapshot(i int) gillespie.Snapshot {
	return gillespie.Snapshot{Time: r.Times[i], Reaction: r.Reactions[i], Counts: r.States[i]}
}

// Final returns the last recorded snapshot.
func (r *Result) Final() gillespie.Snapshot {
	return r.Snapshot(r.Len() - 1)
}

// ErrDuplicateMetric is returned by Run when two metrics share a name.
var ErrDuplicateMetric = errors.New("duplicate metric name")

// SimError wraps a failed step with its position in the run.
type SimError struct {
	Time float64
	Step int
	Err  error
}

func (e *SimError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %v", e.Step, e.Time, e.Err)
}

func (e *SimError) Unwrap() error { return e.Err }
