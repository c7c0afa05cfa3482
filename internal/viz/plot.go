package viz

import (
	"fmt"
	"strings"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/grnsim/internal/trace"
)

// Plot draws one chart per species of tr. species selects which ones; nil
// means all. Trajectories longer than width are thinned by keeping every
// n-th row and the last one.
func Plot(tr *trace.Trajectory, species []int, width, height int) (string, error) {
	if tr.Len() == 0 {
		return "", fmt.Errorf("trajectory is empty")
	}
	if species == nil {
		species = make([]int, len(tr.Species))
		for i := range species {
			species[i] = i
		}
	}

	var b strings.Builder
	for _, i := range species {
		if i < 0 || i >= len(tr.Species) {
			return "", fmt.Errorf("species index %d out of range", i)
		}
		data := thin(tr.Series(i), width)
		caption := fmt.Sprintf("%s (t=%s..%s)", tr.Species[i], formatTime(tr.Times[0]), formatTime(tr.Times[tr.Len()-1]))
		graph := asciigraph.Plot(data,
			asciigraph.Height(height),
			asciigraph.Width(width),
			asciigraph.Caption(caption),
		)
		b.WriteString(graph)
		b.WriteString("\n\n")
	}
	return b.String(), nil
}

func thin(data []float64, limit int) []float64 {
	if limit <= 0 || len(data) <= limit {
		return data
	}
	step := (len(data) + limit - 1) / limit
	out := make([]float64, 0, limit+1)
	for i := 0; i < len(data); i += step {
		out = append(out, data[i])
	}
	if (len(data)-1)%step != 0 {
		out = append(out, data[len(data)-1])
	}
	return out
}
