// Package network loads reaction networks and initial states from YAML and
// turns them into a gillespie.System.
//
// The initial state is a mapping from species name to count; document order
// defines the species index order. The reactions file is a sequence of
// entries, each with a rate constant and named inputs and outputs:
//
//	- reaction_parameter: 0.2
//	  inputs:
//	    - name: O2
//	      quantity: 1
//	    - name: H2
//	      quantity: 2
//	  outputs:
//	    - name: H2O
//	      quantity: 2
package network

import (
	"errors"
	"math"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/grnsim/internal/gillespie"
)

const (
	stateFile     = "initial state"
	reactionsFile = "reactions"
)

// SpeciesCount is one entry of the initial state.
type SpeciesCount struct {
	Name  string
	Count uint64
}

// Term names a species and how many molecules of it a reaction uses.
type Term struct {
	Name     string `yaml:"name"`
	Quantity int64  `yaml:"quantity"`
}

// ReactionSpec is a reaction as written in the reactions file.
type ReactionSpec struct {
	Name    string  `yaml:"name,omitempty"`
	Rate    float64 `yaml:"reaction_parameter"`
	Inputs  []Term  `yaml:"inputs"`
	Outputs []Term  `yaml:"outputs"`
}

// Definition is a complete network description with species still named.
type Definition struct {
	Species   []SpeciesCount
	Reactions []ReactionSpec
}

// LoadFiles reads and parses a reactions file and an initial-state file.
func LoadFiles(reactionsPath, statePath string) (*Definition, error) {
	reactions, err := os.ReadFile(reactionsPath)
	if err != nil {
		return nil, configErrorf(reactionsPath, err, "cannot read file")
	}
	state, err := os.ReadFile(statePath)
	if err != nil {
		return nil, configErrorf(statePath, err, "cannot read file")
	}

	def, err := Parse(reactions, state)
	if err != nil {
		var ce *ConfigError
		if errors.As(err, &ce) {
			switch ce.File {
			case reactionsFile:
				ce.File = reactionsPath
			case stateFile:
				ce.File = statePath
			}
		}
		return nil, err
	}
	return def, nil
}

// Parse decodes the two YAML documents. Species references are checked by Build.
func Parse(reactionsYAML, stateYAML []byte) (*Definition, error) {
	species, err := parseState(stateYAML)
	if err != nil {
		return nil, err
	}

	var reactions []ReactionSpec
	if err := yaml.Unmarshal(reactionsYAML, &reactions); err != nil {
		return nil, configErrorf(reactionsFile, err, "malformed YAML")
	}

	return &Definition{Species: species, Reactions: reactions}, nil
}

func parseState(data []byte) ([]SpeciesCount, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, configErrorf(stateFile, err, "malformed YAML")
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return nil, configErrorf(stateFile, nil, "no species declared")
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, configErrorf(stateFile, nil, "line %d: expected a mapping of species to counts", root.Line)
	}

	species := make([]SpeciesCount, 0, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i], root.Content[i+1]

		var count int64
		if err := val.Decode(&count); err != nil {
			return nil, configErrorf(stateFile, err, "line %d: count of %q is not an integer", val.Line, key.Value)
		}
		if count < 0 {
			return nil, configErrorf(stateFile, nil, "line %d: count of %q is negative", val.Line, key.Value)
		}
		species = append(species, SpeciesCount{Name: key.Value, Count: uint64(count)})
	}
	return species, nil
}

// Build resolves species names and constructs the System.
func (d *Definition) Build() (*gillespie.System, error) {
	names := make([]string, len(d.Species))
	counts := make([]uint64, len(d.Species))
	index := make(map[string]int, len(d.Species))
	for i, sc := range d.Species {
		if sc.Name == "" {
			return nil, configErrorf(stateFile, nil, "species %d has no name", i)
		}
		if _, dup := index[sc.Name]; dup {
			return nil, configErrorf(stateFile, nil, "species %q declared twice", sc.Name)
		}
		index[sc.Name] = i
		names[i] = sc.Name
		counts[i] = sc.Count
	}

	labels := make(map[string]int, len(d.Reactions))
	reactions := make([]gillespie.Reaction, len(d.Reactions))
	for j, spec := range d.Reactions {
		if prev, dup := labels[spec.label(j)]; dup {
			return nil, configErrorf(reactionsFile, nil, "reactions %d and %d are both named %q", prev, j, spec.label(j))
		}
		labels[spec.label(j)] = j
		if !(spec.Rate > 0) || math.IsInf(spec.Rate, 0) {
			return nil, configErrorf(reactionsFile, nil, "%s: reaction_parameter must be positive, got %v", spec.label(j), spec.Rate)
		}
		r := gillespie.Reaction{Rate: spec.Rate}
		for _, in := range spec.Inputs {
			idx, q, err := resolve(index, in, spec.label(j))
			if err != nil {
				return nil, err
			}
			r.Reactants = append(r.Reactants, gillespie.Reactant{Species: idx, Quantity: q})
		}
		for _, out := range spec.Outputs {
			idx, q, err := resolve(index, out, spec.label(j))
			if err != nil {
				return nil, err
			}
			r.Products = append(r.Products, gillespie.Product{Species: idx, Quantity: q})
		}
		reactions[j] = r
	}

	sys, err := gillespie.NewSystem(names, counts, reactions)
	if err != nil {
		return nil, configErrorf("", err, "cannot build system")
	}
	return sys, nil
}

func resolve(index map[string]int, t Term, where string) (int, uint64, error) {
	idx, ok := index[t.Name]
	if !ok {
		return 0, 0, configErrorf(reactionsFile, nil, "%s: unknown species %q", where, t.Name)
	}
	if t.Quantity < 1 {
		return 0, 0, configErrorf(reactionsFile, nil, "%s: quantity of %q must be at least 1, got %d", where, t.Name, t.Quantity)
	}
	return idx, uint64(t.Quantity), nil
}

// ReactionNames returns a label for every reaction, falling back to "r<index>".
func (d *Definition) ReactionNames() []string {
	names := make([]string, len(d.Reactions))
	for j, r := range d.Reactions {
		names[j] = r.label(j)
	}
	return names
}

func (r ReactionSpec) label(j int) string {
	if r.Name != "" {
		return r.Name
	}
	return "r" + strconv.Itoa(j)
}

// MarshalState encodes the initial state, preserving species order.
func (d *Definition) MarshalState() ([]byte, error) {
	root := &yaml.Node{Kind: yaml.MappingNode}
	for _, sc := range d.Species {
		var key, val yaml.Node
		if err := key.Encode(sc.Name); err != nil {
			return nil, err
		}
		if err := val.Encode(sc.Count); err != nil {
			return nil, err
		}
		root.Content = append(root.Content, &key, &val)
	}
	return yaml.Marshal(root)
}

// MarshalReactions encodes the reactions file.
func (d *Definition) MarshalReactions() ([]byte, error) {
	return yaml.Marshal(d.Reactions)
}

// WriteFiles writes the reactions and initial-state files.
func (d *Definition) WriteFiles(reactionsPath, statePath string) error {
	reactions, err := d.MarshalReactions()
	if err != nil {
		return err
	}
	state, err := d.MarshalState()
	if err != nil {
		return err
	}
	if err := os.WriteFile(reactionsPath, reactions, 0644); err != nil {
		return err
	}
	return os.WriteFile(statePath, state, 0644)
}

// Clone returns a deep copy of d.
func (d *Definition) Clone() *Definition {
	out := &Definition{
		Species:   append([]SpeciesCount(nil), d.Species...),
		Reactions: make([]ReactionSpec, len(d.Reactions)),
	}
	for j, r := range d.Reactions {
		r.Inputs = append([]Term(nil), r.Inputs...)
		r.Outputs = append([]Term(nil), r.Outputs...)
		out.Reactions[j] = r
	}
	return out
}
