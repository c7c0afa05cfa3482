// Package gillespie implements the stochastic simulation algorithm
// (Gillespie's Direct Method) for well-mixed reaction networks.
//
// The package defines the reaction network state machine:
//
//   - [System]: species counts, the name/index mapping, the ordered reactions,
//     the simulation clock and the last fired reaction
//   - [Propensity] and [Propensities]: instantaneous firing rates
//   - [Select]: picks the next reaction and the waiting time from two uniforms
//   - [Apply]: commits a fired reaction to the System
//   - [Step]: one full Direct Method step driven by a [Source]
//
// # Example
//
//	sys, _ := gillespie.NewSystem(names, counts, reactions)
//	src := rng.New(42)
//	buf := make([]float64, sys.NumReactions())
//	for {
//	    ev, err := gillespie.Step(sys, src, buf)
//	    if gillespie.IsAbsorbing(err) {
//	        break
//	    }
//	    ...
//	}
//
// # Thread Safety
//
// A System is NOT safe for concurrent use. It is owned by exactly one driver,
// which is the only writer for the lifetime of a run.
package gillespie
