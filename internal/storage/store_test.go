package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/san-kum/grnsim/internal/gillespie"
	"github.com/san-kum/grnsim/internal/network"
	"github.com/san-kum/grnsim/internal/rng"
	"github.com/san-kum/grnsim/internal/sim"
)

func decayDefinition() *network.Definition {
	return &network.Definition{
		Species: []network.SpeciesCount{{Name: "A", Count: 3}, {Name: "B", Count: 0}},
		Reactions: []network.ReactionSpec{{
			Name:    "decay",
			Rate:    1,
			Inputs:  []network.Term{{Name: "A", Quantity: 1}},
			Outputs: []network.Term{{Name: "B", Quantity: 1}},
		}},
	}
}

func runDecay(t *testing.T, def *network.Definition) *sim.Result {
	t.Helper()
	sys, err := def.Build()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	s := sim.New()
	s.AddMetric(&constMetric{name: "events", v: 3})
	result, err := s.Run(context.Background(), sys, rng.New(42), sim.Config{MaxSteps: 100})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	return result
}

type constMetric struct {
	name string
	v    float64
}

func (m *constMetric) Name() string               { return m.name }
func (m *constMetric) Observe(gillespie.Snapshot) {}
func (m *constMetric) Value() float64             { return m.v }
func (m *constMetric) Reset()                     {}

func TestStoreSaveLoad(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	def := decayDefinition()
	result := runDecay(t, def)

	runID, err := st.Save(RunMetadata{Preset: "decay", Seed: 42, MaxSteps: 100}, def, result)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	id, err := uuid.Parse(runID)
	if err != nil {
		t.Fatalf("run id %q is not a uuid: %v", runID, err)
	}
	if id.Version() != 7 {
		t.Errorf("expected uuid version 7, got %d", id.Version())
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if meta.Preset != "decay" {
		t.Errorf("expected preset 'decay', got '%s'", meta.Preset)
	}
	if meta.Seed != 42 {
		t.Errorf("expected seed 42, got %d", meta.Seed)
	}
	if meta.Stop != "absorbed" {
		t.Errorf("expected stop 'absorbed', got '%s'", meta.Stop)
	}
	if meta.Steps != 3 {
		t.Errorf("expected 3 steps, got %d", meta.Steps)
	}
	if meta.Metrics["events"] != 3 {
		t.Errorf("expected events 3, got %v", meta.Metrics["events"])
	}
	if len(meta.Species) != 2 || meta.Species[0] != "A" {
		t.Errorf("unexpected species %v", meta.Species)
	}
	if len(meta.Reactions) != 1 || meta.Reactions[0] != "decay" {
		t.Errorf("unexpected reactions %v", meta.Reactions)
	}

	tr, err := st.LoadTrajectory(runID)
	if err != nil {
		t.Fatalf("load trajectory failed: %v", err)
	}
	if tr.Len() != result.Len() {
		t.Errorf("expected %d rows, got %d", result.Len(), tr.Len())
	}
	for i := 0; i < tr.Len(); i++ {
		if tr.Times[i] != result.Times[i] {
			t.Errorf("row %d: time %v != %v", i, tr.Times[i], result.Times[i])
		}
	}
	if float64(meta.FinalTime) != result.Final().Time {
		t.Errorf("final time %v != %v", meta.FinalTime, result.Final().Time)
	}

	loaded, err := st.LoadNetwork(runID)
	if err != nil {
		t.Fatalf("load network failed: %v", err)
	}
	if loaded.Species[0].Count != 3 {
		t.Errorf("expected stored initial count 3, got %d", loaded.Species[0].Count)
	}
}

func TestStoreList(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}

	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	def := decayDefinition()
	first, err := st.Save(RunMetadata{Seed: 1}, def, runDecay(t, def))
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	second, err := st.Save(RunMetadata{Seed: 2}, def, runDecay(t, def))
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(tmpDir, "stray"), 0755); err != nil {
		t.Fatal(err)
	}

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != first || runs[1].ID != second {
		t.Errorf("expected runs in creation order, got %s, %s", runs[0].ID, runs[1].ID)
	}
}

func TestStoreFileStructure(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	def := decayDefinition()
	runID, err := st.Save(RunMetadata{}, def, runDecay(t, def))
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	for _, name := range []string{metadataFile, reactionsFile, stateFile, trajectoryFile} {
		if _, err := os.Stat(filepath.Join(tmpDir, runID, name)); os.IsNotExist(err) {
			t.Errorf("%s not created", name)
		}
	}
}

func TestStoreMissingRun(t *testing.T) {
	st := New(t.TempDir())

	for _, id := range []string{"nope", "", "../escape"} {
		if _, err := st.Load(id); !errors.Is(err, ErrRunNotFound) {
			t.Errorf("Load(%q): expected ErrRunNotFound, got %v", id, err)
		}
		if _, err := st.LoadTrajectory(id); !errors.Is(err, ErrRunNotFound) {
			t.Errorf("LoadTrajectory(%q): expected ErrRunNotFound, got %v", id, err)
		}
	}
}

func TestStoreResolve(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)
	for _, name := range []string{"abc123", "abd456"} {
		if err := os.MkdirAll(filepath.Join(tmpDir, name), 0755); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		prefix string
		want   string
		err    error
	}{
		{"abc", "abc123", nil},
		{"abd456", "abd456", nil},
		{"ab", "", ErrAmbiguousRun},
		{"zz", "", ErrRunNotFound},
		{"", "", ErrRunNotFound},
		{"a/b", "", ErrRunNotFound},
	}

	for _, tt := range tests {
		got, err := st.Resolve(tt.prefix)
		if tt.err != nil {
			if !errors.Is(err, tt.err) {
				t.Errorf("Resolve(%q): expected %v, got %v", tt.prefix, tt.err, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("Resolve(%q) = %q, %v; want %q", tt.prefix, got, err, tt.want)
		}
	}
}

func TestStoreLatest(t *testing.T) {
	st := New(t.TempDir())
	if _, err := st.Latest(); !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound on empty store, got %v", err)
	}

	def := decayDefinition()
	var last string
	for i := 0; i < 3; i++ {
		id, err := st.Save(RunMetadata{Seed: uint64(i)}, def, runDecay(t, def))
		if err != nil {
			t.Fatalf("save: %v", err)
		}
		last = id
	}

	got, err := st.Latest()
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if got != last {
		t.Errorf("expected latest %s, got %s", last, got)
	}
}

func TestExportJSON(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	def := decayDefinition()
	result := runDecay(t, def)
	runID, err := st.Save(RunMetadata{Seed: 42}, def, result)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	var buf bytes.Buffer
	if err := st.ExportJSON(&buf, runID); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	var data ExportData
	if err := json.Unmarshal(buf.Bytes(), &data); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if data.Run.ID != runID {
		t.Errorf("expected run id %s, got %s", runID, data.Run.ID)
	}
	if len(data.Times) != result.Len() {
		t.Errorf("expected %d times, got %d", result.Len(), len(data.Times))
	}
	if data.Reactions[0] != gillespie.NoReaction {
		t.Errorf("expected initial reaction -1, got %d", data.Reactions[0])
	}
	if got := data.States[len(data.States)-1]; got[0] != 0 || got[1] != 3 {
		t.Errorf("unexpected final state %v", got)
	}
}

func TestExportCSV(t *testing.T) {
	st := New(t.TempDir())
	def := decayDefinition()
	runID, err := st.Save(RunMetadata{}, def, runDecay(t, def))
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	var buf bytes.Buffer
	if err := st.ExportCSV(&buf, runID); err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("time,last_reaction_id,A,B\n0,,3,0\n")) {
		t.Errorf("unexpected csv:\n%s", buf.String())
	}
}

func TestNumberJSON(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{1.5, "1.5"},
		{0, "0"},
		{math.Inf(1), `"+Inf"`},
		{math.Inf(-1), `"-Inf"`},
	}

	for _, tt := range tests {
		b, err := json.Marshal(Number(tt.in))
		if err != nil {
			t.Fatalf("marshal %v: %v", tt.in, err)
		}
		if string(b) != tt.want {
			t.Errorf("marshal %v = %s, want %s", tt.in, b, tt.want)
		}

		var n Number
		if err := json.Unmarshal(b, &n); err != nil {
			t.Fatalf("unmarshal %s: %v", b, err)
		}
		if float64(n) != tt.in {
			t.Errorf("round trip %v = %v", tt.in, float64(n))
		}
	}

	b, err := json.Marshal(Number(math.NaN()))
	if err != nil || string(b) != `"NaN"` {
		t.Errorf("marshal NaN = %s, %v", b, err)
	}
}
