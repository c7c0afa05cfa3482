package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
)

type ExportData struct {
	Run       RunMetadata `json:"run"`
	Species   []string    `json:"species"`
	Times     []Number    `json:"times"`
	Reactions []int       `json:"reactions"`
	States    [][]uint64  `json:"states"`
}

// ExportJSON writes a run's metadata and full trajectory as indented JSON.
// The initial row has reaction -1.
func (s *Store) ExportJSON(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	tr, err := s.LoadTrajectory(runID)
	if err != nil {
		return err
	}

	data := ExportData{
		Run:       *meta,
		Species:   tr.Species,
		Times:     make([]Number, len(tr.Times)),
		Reactions: tr.Reactions,
		States:    tr.States,
	}
	for i, t := range tr.Times {
		data.Times[i] = Number(t)
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// ExportCSV copies a run's trajectory to w unchanged.
func (s *Store) ExportCSV(w io.Writer, runID string) error {
	path, err := s.runPath(runID, trajectoryFile)
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return err
	}
	defer f.Close()

	_, err = io.Copy(w, f)
	return err
}
