package metrics

import (
	"github.com/san-kum/grnsim/internal/gillespie"
)

// MeanWaitingTime is the average simulated time between fired reactions.
type MeanWaitingTime struct {
	name    string
	start   float64
	last    float64
	events  int
	started bool
}

func NewMeanWaitingTime() *MeanWaitingTime {
	return &MeanWaitingTime{
		name: "mean_waiting_time",
	}
}

func (m *MeanWaitingTime) Name() string {
	return m.name
}

func (m *MeanWaitingTime) Observe(s gillespie.Snapshot) {
	if !m.started {
		m.start = s.Time
		m.started = true
	}
	if s.Reaction != gillespie.NoReaction {
		m.events++
	}
	m.last = s.Time
}

func (m *MeanWaitingTime) Value() float64 {
	if m.events == 0 {
		return 0
	}
	return (m.last - m.start) / float64(m.events)
}

func (m *MeanWaitingTime) Reset() {
	m.start = 0
	m.last = 0
	m.events = 0
	m.started = false
}
