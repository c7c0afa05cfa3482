package metrics

import (
	"github.com/san-kum/grnsim/internal/gillespie"
	"github.com/san-kum/grnsim/internal/sim"
)

// Defaults is the standard metric set for a system: event count, mean
// waiting time, and the time average and peak of every species. Species
// metrics are keyed under "species." so a species name cannot shadow the
// run-wide metrics.
func Defaults(sys *gillespie.System) []sim.Metric {
	ms := []sim.Metric{
		NewEvents(),
		NewMeanWaitingTime(),
	}
	for i, name := range sys.SpeciesNames() {
		ms = append(ms, NewTimeAverage(i, name), NewPeak(i, name))
	}
	return ms
}
