package sim

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/san-kum/grnsim/internal/gillespie"
)

// Simulator drives a System with the Direct Method and applies a stopping
// policy. It is single-threaded and holds no System itself.
type Simulator struct {
	metrics   []Metric
	observers []Observer
	logger    *slog.Logger
}

func New() *Simulator {
	return &Simulator{
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
		logger:    slog.New(slog.DiscardHandler),
	}
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

// WithLogger sets the logger used for run start/stop events.
func (s *Simulator) WithLogger(l *slog.Logger) *Simulator {
	if l != nil {
		s.logger = l
	}
	return s
}

// Run advances sys until the policy in cfg stops it. sys is mutated in place.
// The absorbing state ends the run without error; a rejected mutation is
// returned as a *SimError together with the partial result.
func (s *Simulator) Run(ctx context.Context, sys *gillespie.System, src gillespie.Source, cfg Config) (*Result, error) {
	if err := s.validateConfig(cfg); err != nil {
		return nil, err
	}
	if err := s.validateMetrics(); err != nil {
		return nil, err
	}
	every := cfg.RecordEvery
	if every == 0 {
		every = 1
	}

	result := &Result{
		Times:     make([]float64, 0, 1024),
		Reactions: make([]int, 0, 1024),
		States:    make([][]uint64, 0, 1024),
		Metrics:   make(map[string]float64),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	s.logger.Debug("run starting",
		"species", sys.NumSpecies(),
		"reactions", sys.NumReactions(),
		"max_steps", cfg.MaxSteps,
		"max_time", cfg.MaxTime)

	initial := sys.Snapshot()
	s.notify(initial)
	result.append(initial)
	recorded := true

	buf := make([]float64, sys.NumReactions())
	for {
		select {
		case <-ctx.Done():
			result.Stop = StopCanceled
			s.finish(sys, result, recorded)
			return result, ctx.Err()
		default:
		}

		stop, err := s.advance(sys, src, buf, cfg, result.StepsTaken)
		if err != nil {
			result.Stop = StopFailed
			s.finish(sys, result, recorded)
			s.logger.Error("run aborted", "step", result.StepsTaken, "error", err)
			return result, err
		}
		if stop != StopNone {
			result.Stop = stop
			break
		}

		result.StepsTaken++
		snap := sys.Snapshot()
		s.notify(snap)

		recorded = result.StepsTaken%every == 0
		if recorded {
			result.append(snap)
		}
	}

	s.finish(sys, result, recorded)
	s.logger.Info("run finished",
		"stop", result.Stop.String(),
		"steps", result.StepsTaken,
		"time", sys.Time())

	return result, nil
}

// RunWithCallback advances sys and hands every new snapshot to callback,
// stopping when it returns false. Nothing is recorded.
func (s *Simulator) RunWithCallback(ctx context.Context, sys *gillespie.System, src gillespie.Source, cfg Config, callback func(gillespie.Snapshot) bool) (StopReason, error) {
	if err := s.validateConfig(cfg); err != nil {
		return StopNone, err
	}

	buf := make([]float64, sys.NumReactions())
	for steps := 0; ; steps++ {
		select {
		case <-ctx.Done():
			return StopCanceled, ctx.Err()
		default:
		}

		stop, err := s.advance(sys, src, buf, cfg, steps)
		if err != nil {
			return StopNone, err
		}
		if stop != StopNone {
			return stop, nil
		}

		if !callback(sys.Snapshot()) {
			return StopCallback, nil
		}
	}
}

// advance commits at most one reaction. It returns StopNone when a reaction
// was applied.
func (s *Simulator) advance(sys *gillespie.System, src gillespie.Source, buf []float64, cfg Config, steps int) (StopReason, error) {
	if cfg.MaxSteps > 0 && steps >= cfg.MaxSteps {
		return StopMaxSteps, nil
	}

	a := gillespie.Propensities(sys, buf)
	r1 := src.Float64()
	r2 := src.Float64()

	ev, err := gillespie.Select(a, r1, r2)
	if gillespie.IsAbsorbing(err) {
		return StopAbsorbed, nil
	}
	if err != nil {
		return StopNone, &SimError{Time: sys.Time(), Step: steps, Err: err}
	}

	t := sys.Time() + ev.Tau
	if cfg.MaxTime > 0 && t > cfg.MaxTime {
		return StopMaxTime, nil
	}

	if err := gillespie.Apply(sys, t, ev.Reaction); err != nil {
		return StopNone, &SimError{Time: sys.Time(), Step: steps, Err: err}
	}
	return StopNone, nil
}

func (s *Simulator) notify(snap gillespie.Snapshot) {
	for _, m := range s.metrics {
		m.Observe(snap)
	}
	for _, obs := range s.observers {
		obs.OnStep(snap)
	}
}

func (s *Simulator) finish(sys *gillespie.System, result *Result, recorded bool) {
	if !recorded {
		result.append(sys.Snapshot())
	}
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
}

// validateMetrics requires metric names to be unique keys of Result.Metrics.
func (s *Simulator) validateMetrics() error {
	seen := make(map[string]bool, len(s.metrics))
	for _, m := range s.metrics {
		if seen[m.Name()] {
			return fmt.Errorf("%w: %q", ErrDuplicateMetric, m.Name())
		}
		seen[m.Name()] = true
	}
	return nil
}

func (s *Simulator) validateConfig(cfg Config) error {
	if cfg.MaxSteps < 0 {
		return fmt.Errorf("max steps must be non-negative, got %d", cfg.MaxSteps)
	}
	if cfg.MaxTime < 0 || math.IsNaN(cfg.MaxTime) {
		return fmt.Errorf("max time must be non-negative, got %f", cfg.MaxTime)
	}
	if cfg.MaxSteps == 0 && cfg.MaxTime == 0 {
		return fmt.Errorf("at least one of max steps or max time must be set")
	}
	if cfg.RecordEvery < 0 {
		return fmt.Errorf("record interval must be non-negative, got %d", cfg.RecordEvery)
	}
	return nil
}
