package metrics

import (
	"github.com/san-kum/grnsim/internal/gillespie"
)

// Events counts fired reactions.
type Events struct {
	name  string
	count int
}

func NewEvents() *Events {
	return &Events{
		name: "events",
	}
}

func (e *Events) Name() string {
	return e.name
}

func (e *Events) Observe(s gillespie.Snapshot) {
	if s.Reaction != gillespie.NoReaction {
		e.count++
	}
}

func (e *Events) Value() float64 {
	return float64(e.count)
}

func (e *Events) Reset() {
	e.count = 0
}

// Firings counts how often one reaction fired.
type Firings struct {
	name     string
	reaction int
	count    int
}

func NewFirings(reaction int, label string) *Firings {
	return &Firings{
		name:     "reaction.firings." + label,
		reaction: reaction,
	}
}

func (f *Firings) Name() string { return f.name }

func (f *Firings) Observe(s gillespie.Snapshot) {
	if s.Reaction == f.reaction {
		f.count++
	}
}

func (f *Firings) Value() float64 { return float64(f.count) }

func (f *Firings) Reset() { f.count = 0 }
