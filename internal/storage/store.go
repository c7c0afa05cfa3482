package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/grnsim/internal/network"
	"github.com/san-kum/grnsim/internal/sim"
	"github.com/san-kum/grnsim/internal/trace"
)

const (
	metadataFile   = "metadata.json"
	reactionsFile  = "reactions.yaml"
	stateFile      = "initial_state.yaml"
	trajectoryFile = "trajectory.csv"
)

var (
	ErrRunNotFound  = errors.New("run not found")
	ErrAmbiguousRun = errors.New("ambiguous run id")
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID          string            `json:"id"`
	Preset      string            `json:"preset,omitempty"`
	Timestamp   time.Time         `json:"timestamp"`
	Seed        uint64            `json:"seed"`
	MaxSteps    int               `json:"max_steps"`
	MaxTime     float64           `json:"max_time"`
	RecordEvery int               `json:"record_every"`
	Steps       int               `json:"steps"`
	Stop        string            `json:"stop"`
	FinalTime   Number            `json:"final_time"`
	Species     []string          `json:"species"`
	Reactions   []string          `json:"reactions"`
	Metrics     map[string]Number `json:"metrics"`
}

// Save stores one run under a fresh UUIDv7 directory. def must describe the
// network as it was before the run. meta supplies the preset, seed and run
// policy; the remaining fields are filled from def and result.
func (s *Store) Save(meta RunMetadata, def *network.Definition, result *sim.Result) (string, error) {
	runID := uuid.Must(uuid.NewV7()).String()
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta.ID = runID
	meta.Timestamp = time.Now()
	meta.Steps = result.StepsTaken
	meta.Stop = result.Stop.String()
	meta.Species = make([]string, len(def.Species))
	for i, sc := range def.Species {
		meta.Species[i] = sc.Name
	}
	meta.Reactions = def.ReactionNames()
	meta.Metrics = make(map[string]Number, len(result.Metrics))
	for k, v := range result.Metrics {
		meta.Metrics[k] = Number(v)
	}
	if result.Len() > 0 {
		meta.FinalTime = Number(result.Final().Time)
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}

	if err := def.WriteFiles(filepath.Join(runDir, reactionsFile), filepath.Join(runDir, stateFile)); err != nil {
		return "", err
	}

	if err := writeTrajectory(filepath.Join(runDir, trajectoryFile), meta.Species, result); err != nil {
		return "", err
	}

	return runID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeTrajectory(path string, species []string, result *sim.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := trace.NewCSVWriter(f, species)
	if err := w.Start(); err != nil {
		return err
	}
	for i := 0; i < result.Len(); i++ {
		w.OnStep(result.Snapshot(i))
	}
	return w.Flush()
}

// List returns every stored run, oldest first. Directories without readable
// metadata are skipped.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		data, err := os.ReadFile(filepath.Join(s.baseDir, entry.Name(), metadataFile))
		if err != nil {
			continue
		}

		var meta RunMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}

		runs = append(runs, meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].ID < runs[j].ID })
	return runs, nil
}

// Latest returns the id of the most recent run.
func (s *Store) Latest() (string, error) {
	runs, err := s.List()
	if err != nil {
		return "", err
	}
	if len(runs) == 0 {
		return "", fmt.Errorf("%w: no runs in %s", ErrRunNotFound, s.baseDir)
	}
	return runs[len(runs)-1].ID, nil
}

// Resolve expands a unique prefix of a run id.
func (s *Store) Resolve(prefix string) (string, error) {
	if prefix == "" || strings.ContainsAny(prefix, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrRunNotFound, prefix)
	}

	entries, err := os.ReadDir(s.baseDir)
	if err != nil && !os.IsNotExist(err) {
		return "", err
	}

	var matches []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if entry.Name() == prefix {
			return prefix, nil
		}
		if strings.HasPrefix(entry.Name(), prefix) {
			matches = append(matches, entry.Name())
		}
	}

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%w: %q", ErrRunNotFound, prefix)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("%w: %q matches %d runs", ErrAmbiguousRun, prefix, len(matches))
	}
}

func (s *Store) runPath(runID, name string) (string, error) {
	if runID == "" || filepath.Base(runID) != runID {
		return "", fmt.Errorf("%w: %q", ErrRunNotFound, runID)
	}
	return filepath.Join(s.baseDir, runID, name), nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	path, err := s.runPath(runID, metadataFile)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}

	return &meta, nil
}

// LoadNetwork reads back the network definition a run started from.
func (s *Store) LoadNetwork(runID string) (*network.Definition, error) {
	reactions, err := s.runPath(runID, reactionsFile)
	if err != nil {
		return nil, err
	}
	state, err := s.runPath(runID, stateFile)
	if err != nil {
		return nil, err
	}
	return network.LoadFiles(reactions, state)
}

func (s *Store) LoadTrajectory(runID string) (*trace.Trajectory, error) {
	path, err := s.runPath(runID, trajectoryFile)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}
	defer f.Close()

	tr, err := trace.ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	return tr, nil
}
