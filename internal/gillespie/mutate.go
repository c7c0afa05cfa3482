package gillespie

import (
	"fmt"
	"math"
)

// Apply fires reaction j at time t: reactants are subtracted, products added,
// the clock set to t and the last reaction set to j.
//
// A rejected call returns a *ContractError and leaves sys untouched.
func Apply(sys *System, t float64, j int) error {
	if j < 0 || j >= len(sys.reactions) {
		return &ContractError{Reaction: j, Time: t, Clock: sys.clock, Wrapped: ErrReactionIndex,
			Detail: fmt.Sprintf("have %d reactions", len(sys.reactions))}
	}
	// NaN fails this comparison as well.
	if !(t >= sys.clock) {
		return &ContractError{Reaction: j, Time: t, Clock: sys.clock, Wrapped: ErrTimeReversal}
	}

	r := &sys.reactions[j]

	// Entries naming the same species accumulate.
	need := make(map[int]uint64, len(r.Reactants))
	for _, re := range r.Reactants {
		need[re.Species] += re.Quantity
	}
	for _, re := range r.Reactants {
		sp, q := re.Species, need[re.Species]
		if sys.counts[sp] < q {
			return &ContractError{Reaction: j, Time: t, Clock: sys.clock, Wrapped: ErrInsufficientReactants,
				Detail: fmt.Sprintf("%s: need %d, have %d", sys.names[sp], q, sys.counts[sp])}
		}
	}

	gain := make(map[int]uint64, len(r.Products))
	for _, p := range r.Products {
		gain[p.Species] += p.Quantity
	}
	for _, p := range r.Products {
		sp, q := p.Species, gain[p.Species]
		if sys.counts[sp]-need[sp] > math.MaxUint64-q {
			return &ContractError{Reaction: j, Time: t, Clock: sys.clock, Wrapped: ErrCountOverflow,
				Detail: sys.names[sp]}
		}
	}

	for _, re := range r.Reactants {
		sys.counts[re.Species] -= re.Quantity
	}
	for _, p := range r.Products {
		sys.counts[p.Species] += p.Quantity
	}
	sys.clock = t
	sys.last = j
	return nil
}
