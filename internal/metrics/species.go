package metrics

import (
	"math"

	"github.com/san-kum/grnsim/internal/gillespie"
)

// TimeAverage is the time-weighted mean count of one species. Each count is
// weighted by how long the system held it.
type TimeAverage struct {
	name     string
	species  int
	area     float64
	start    float64
	lastTime float64
	lastVal  float64
	samples  int
}

func NewTimeAverage(species int, label string) *TimeAverage {
	return &TimeAverage{
		name:    "species.mean." + label,
		species: species,
	}
}

func (a *TimeAverage) Name() string { return a.name }

func (a *TimeAverage) Observe(s gillespie.Snapshot) {
	if a.species >= len(s.Counts) {
		return
	}
	v := float64(s.Counts[a.species])
	if a.samples == 0 {
		a.start = s.Time
	} else if dt := s.Time - a.lastTime; dt > 0 && !math.IsInf(dt, 0) {
		a.area += a.lastVal * dt
	}
	a.lastTime = s.Time
	a.lastVal = v
	a.samples++
}

func (a *TimeAverage) Value() float64 {
	if a.samples == 0 {
		return 0
	}
	span := a.lastTime - a.start
	if span <= 0 || math.IsInf(span, 0) {
		return a.lastVal
	}
	return a.area / span
}

func (a *TimeAverage) Reset() {
	a.area = 0
	a.start = 0
	a.lastTime = 0
	a.lastVal = 0
	a.samples = 0
}

// Peak is the largest count one species reached.
type Peak struct {
	name    string
	species int
	max     uint64
}

func NewPeak(species int, label string) *Peak {
	return &Peak{
		name:    "species.peak." + label,
		species: species,
	}
}

func (p *Peak) Name() string { return p.name }

func (p *Peak) Observe(s gillespie.Snapshot) {
	if p.species < len(s.Counts) && s.Counts[p.species] > p.max {
		p.max = s.Counts[p.species]
	}
}

func (p *Peak) Value() float64 { return float64(p.max) }

func (p *Peak) Reset() { p.max = 0 }
