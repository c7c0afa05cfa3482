package gillespie

import (
	"math"
)

// NoReaction is the last-fired index of a System before its first mutation.
const NoReaction = -1

// Reactant is a species consumed by a reaction.
type Reactant struct {
	Species  int
	Quantity uint64
}

// Product is a species produced by a reaction.
type Product struct {
	Species  int
	Quantity uint64
}

// Reaction is a rate constant plus its stoichiometry.
type Reaction struct {
	Rate      float64
	Reactants []Reactant
	Products  []Product
}

func (r Reaction) clone() Reaction {
	c := Reaction{Rate: r.Rate}
	c.Reactants = append([]Reactant(nil), r.Reactants...)
	c.Products = append([]Product(nil), r.Products...)
	return c
}

// System is the mutable simulation state.
type System struct {
	counts    []uint64
	names     []string
	index     map[string]int
	reactions []Reaction
	clock     float64
	last      int
}

// NewSystem builds a System at time zero. names and counts are parallel
// slices: species i is called names[i] and starts with counts[i] molecules.
// The inputs are copied.
func NewSystem(names []string, counts []uint64, reactions []Reaction) (*System, error) {
	if len(names) != len(counts) {
		return nil, invalidNetwork("%d species names but %d counts", len(names), len(counts))
	}

	index := make(map[string]int, len(names))
	for i, name := range names {
		if name == "" {
			return nil, invalidNetwork("species %d has an empty name", i)
		}
		if prev, ok := index[name]; ok {
			return nil, invalidNetwork("species %q declared at %d and %d", name, prev, i)
		}
		index[name] = i
	}

	rs := make([]Reaction, len(reactions))
	for j, r := range reactions {
		if !(r.Rate > 0) || math.IsInf(r.Rate, 0) {
			return nil, invalidNetwork("reaction %d: rate must be positive and finite, got %v", j, r.Rate)
		}
		for _, re := range r.Reactants {
			if re.Species < 0 || re.Species >= len(names) {
				return nil, invalidNetwork("reaction %d: reactant species %d out of range", j, re.Species)
			}
			if re.Quantity == 0 {
				return nil, invalidNetwork("reaction %d: reactant %q has zero quantity", j, names[re.Species])
			}
		}
		for _, p := range r.Products {
			if p.Species < 0 || p.Species >= len(names) {
				return nil, invalidNetwork("reaction %d: product species %d out of range", j, p.Species)
			}
			if p.Quantity == 0 {
				return nil, invalidNetwork("reaction %d: product %q has zero quantity", j, names[p.Species])
			}
		}
		rs[j] = r.clone()
	}

	return &System{
		counts:    append([]uint64(nil), counts...),
		names:     append([]string(nil), names...),
		index:     index,
		reactions: rs,
		clock:     0,
		last:      NoReaction,
	}, nil
}

// Time is the time of the last reaction, zero before the first one.
func (s *System) Time() float64 { return s.clock }

// LastReaction is the index of the last fired reaction or NoReaction.
func (s *System) LastReaction() int { return s.last }

func (s *System) NumSpecies() int   { return len(s.counts) }
func (s *System) NumReactions() int { return len(s.reactions) }

// Count returns the number of molecules of species i.
func (s *System) Count(i int) uint64 { return s.counts[i] }

// Counts returns a copy of the count vector.
func (s *System) Counts() []uint64 {
	return append([]uint64(nil), s.counts...)
}

// Reaction returns a copy of reaction j.
func (s *System) Reaction(j int) Reaction { return s.reactions[j].clone() }

func (s *System) SpeciesName(i int) string { return s.names[i] }

// SpeciesIndex resolves a species name. ok is false for unknown names.
func (s *System) SpeciesIndex(name string) (idx int, ok bool) {
	idx, ok = s.index[name]
	return idx, ok
}

// SpeciesNames returns the names in index order.
func (s *System) SpeciesNames() []string {
	return append([]string(nil), s.names...)
}

// Clone returns an independent deep copy, including clock and last reaction.
func (s *System) Clone() *System {
	c := &System{
		counts:    append([]uint64(nil), s.counts...),
		names:     append([]string(nil), s.names...),
		index:     make(map[string]int, len(s.index)),
		reactions: make([]Reaction, len(s.reactions)),
		clock:     s.clock,
		last:      s.last,
	}
	for k, v := range s.index {
		c.index[k] = v
	}
	for j, r := range s.reactions {
		c.reactions[j] = r.clone()
	}
	return c
}

// Snapshot is a read-only record of a System after a mutation.
type Snapshot struct {
	Time     float64
	Reaction int
	Counts   []uint64
}

// Snapshot captures the current time, last reaction and counts.
func (s *System) Snapshot() Snapshot {
	return Snapshot{Time: s.clock, Reaction: s.last, Counts: s.Counts()}
}

// Total returns the total number of molecules in the snapshot.
func (s Snapshot) Total() uint64 {
	var sum uint64
	for _, c := range s.Counts {
		sum += c
	}
	return sum
}
