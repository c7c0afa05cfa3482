package config

import (
	"sort"

	"github.com/san-kum/grnsim/internal/network"
)

type Preset struct {
	Description string
	Network     network.Definition
}

func term(name string, q int64) network.Term { return network.Term{Name: name, Quantity: q} }

func terms(ts ...network.Term) []network.Term { return ts }

var Presets = map[string]*Preset{
	"water": {
		Description: "2 H2 + O2 <-> 2 H2O",
		Network: network.Definition{
			Species: []network.SpeciesCount{{Name: "O2", Count: 2}, {Name: "H2", Count: 2}, {Name: "H2O", Count: 2}},
			Reactions: []network.ReactionSpec{
				{Name: "combustion", Rate: 0.1, Inputs: terms(term("O2", 1), term("H2", 2)), Outputs: terms(term("H2O", 2))},
				{Name: "electrolysis", Rate: 0.01, Inputs: terms(term("H2O", 2)), Outputs: terms(term("O2", 1), term("H2", 2))},
			},
		},
	},
	"birth_death": {
		Description: "0 -> X -> 0, stationary mean 10",
		Network: network.Definition{
			Species: []network.SpeciesCount{{Name: "X", Count: 0}},
			Reactions: []network.ReactionSpec{
				{Name: "birth", Rate: 10, Outputs: terms(term("X", 1))},
				{Name: "death", Rate: 1, Inputs: terms(term("X", 1))},
			},
		},
	},
	"dimerization": {
		Description: "2 M <-> D",
		Network: network.Definition{
			Species: []network.SpeciesCount{{Name: "M", Count: 100}, {Name: "D", Count: 0}},
			Reactions: []network.ReactionSpec{
				{Name: "dimerize", Rate: 0.005, Inputs: terms(term("M", 2)), Outputs: terms(term("D", 1))},
				{Name: "dissociate", Rate: 0.1, Inputs: terms(term("D", 1)), Outputs: terms(term("M", 2))},
			},
		},
	},
	"lotka_volterra": {
		Description: "prey X and predator Y",
		Network: network.Definition{
			Species: []network.SpeciesCount{{Name: "X", Count: 100}, {Name: "Y", Count: 100}},
			Reactions: []network.ReactionSpec{
				{Name: "prey_birth", Rate: 1, Inputs: terms(term("X", 1)), Outputs: terms(term("X", 2))},
				{Name: "predation", Rate: 0.005, Inputs: terms(term("X", 1), term("Y", 1)), Outputs: terms(term("Y", 2))},
				{Name: "predator_death", Rate: 0.6, Inputs: terms(term("Y", 1))},
			},
		},
	},
	"toggle_switch": {
		Description: "two genes repressing each other through protein dimers",
		Network: network.Definition{
			Species: []network.SpeciesCount{
				{Name: "geneA", Count: 1}, {Name: "geneA_off", Count: 0}, {Name: "A", Count: 0},
				{Name: "geneB", Count: 1}, {Name: "geneB_off", Count: 0}, {Name: "B", Count: 0},
			},
			Reactions: []network.ReactionSpec{
				{Name: "express_A", Rate: 5, Inputs: terms(term("geneA", 1)), Outputs: terms(term("geneA", 1), term("A", 1))},
				{Name: "express_B", Rate: 5, Inputs: terms(term("geneB", 1)), Outputs: terms(term("geneB", 1), term("B", 1))},
				{Name: "degrade_A", Rate: 0.1, Inputs: terms(term("A", 1))},
				{Name: "degrade_B", Rate: 0.1, Inputs: terms(term("B", 1))},
				{Name: "repress_A", Rate: 0.01, Inputs: terms(term("geneA", 1), term("B", 2)), Outputs: terms(term("geneA_off", 1))},
				{Name: "release_A", Rate: 0.5, Inputs: terms(term("geneA_off", 1)), Outputs: terms(term("geneA", 1), term("B", 2))},
				{Name: "repress_B", Rate: 0.01, Inputs: terms(term("geneB", 1), term("A", 2)), Outputs: terms(term("geneB_off", 1))},
				{Name: "release_B", Rate: 0.5, Inputs: terms(term("geneB_off", 1)), Outputs: terms(term("geneB", 1), term("A", 2))},
			},
		},
	},
	"decay": {
		Description: "A -> B until A is exhausted",
		Network: network.Definition{
			Species: []network.SpeciesCount{{Name: "A", Count: 100}, {Name: "B", Count: 0}},
			Reactions: []network.ReactionSpec{
				{Name: "decay", Rate: 0.1, Inputs: terms(term("A", 1)), Outputs: terms(term("B", 1))},
			},
		},
	},
}

func GetPreset(name string) *Preset {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	return p
}

// ListPresets returns the preset names in sorted order.
func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
