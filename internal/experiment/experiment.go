// Package experiment assembles a run from a configuration: the network, the
// seeded random stream, the simulator and its metrics.
package experiment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/san-kum/grnsim/internal/config"
	"github.com/san-kum/grnsim/internal/gillespie"
	"github.com/san-kum/grnsim/internal/metrics"
	"github.com/san-kum/grnsim/internal/network"
	"github.com/san-kum/grnsim/internal/rng"
	"github.com/san-kum/grnsim/internal/sim"
	"github.com/san-kum/grnsim/internal/storage"
)

type Experiment struct {
	cfg       *config.Config
	def       *network.Definition
	sys       *gillespie.System
	simulator *sim.Simulator
	src       *rng.Uniform
	logger    *slog.Logger
}

func New(cfg *config.Config) *Experiment {
	return &Experiment{
		cfg:    cfg,
		logger: slog.New(slog.DiscardHandler),
	}
}

func (e *Experiment) WithLogger(l *slog.Logger) *Experiment {
	if l != nil {
		e.logger = l
	}
	return e
}

// Setup validates the configuration and builds the system. Every reaction
// gets a firing counter besides the default metrics.
func (e *Experiment) Setup() error {
	if err := e.cfg.Validate(); err != nil {
		return err
	}

	def, err := e.cfg.Network()
	if err != nil {
		return err
	}
	sys, err := def.Build()
	if err != nil {
		return err
	}

	e.def = def
	e.sys = sys
	e.src = rng.New(e.cfg.Seed)
	e.simulator = sim.New().WithLogger(e.logger)
	for _, m := range metrics.Defaults(sys) {
		e.simulator.AddMetric(m)
	}
	for j, name := range def.ReactionNames() {
		e.simulator.AddMetric(metrics.NewFirings(j, name))
	}
	return nil
}

func (e *Experiment) Run(ctx context.Context) (*sim.Result, error) {
	if e.simulator == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	return e.simulator.Run(ctx, e.sys, e.src, e.cfg.SimConfig())
}

// Simulator returns the underlying simulator for adding observers.
func (e *Experiment) Simulator() *sim.Simulator {
	return e.simulator
}

// Definition is the network as it was before the run.
func (e *Experiment) Definition() *network.Definition {
	return e.def
}

func (e *Experiment) System() *gillespie.System {
	return e.sys
}

// Metadata describes the run for storage.
func (e *Experiment) Metadata() storage.RunMetadata {
	return storage.RunMetadata{
		Preset:      e.cfg.Preset,
		Seed:        e.cfg.Seed,
		MaxSteps:    e.cfg.MaxSteps,
		MaxTime:     e.cfg.MaxTime,
		RecordEvery: e.cfg.RecordEvery,
	}
}
