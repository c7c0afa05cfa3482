// Package export renders recorded trajectories to SVG.
package export

import (
	"fmt"
	"html"
	"math"
	"strings"

	"github.com/san-kum/grnsim/internal/trace"
)

var palette = []string{"#00ffff", "#ff00ff", "#ffff00", "#00ff88", "#ff8800", "#8888ff", "#ff4444", "#88ff88"}

// TrajectoryToSVG draws the selected species of tr as step functions of
// time, one colored path each with a legend. nil species means all. Rows
// with an infinite time are left out.
func TrajectoryToSVG(tr *trace.Trajectory, species []int, width, height int) (string, error) {
	if species == nil {
		species = make([]int, len(tr.Species))
		for i := range species {
			species[i] = i
		}
	}
	for _, i := range species {
		if i < 0 || i >= len(tr.Species) {
			return "", fmt.Errorf("species index %d out of range", i)
		}
	}

	rows := make([]int, 0, tr.Len())
	for k, t := range tr.Times {
		if !math.IsInf(t, 0) {
			rows = append(rows, k)
		}
	}
	if len(rows) == 0 {
		return "", fmt.Errorf("trajectory has no finite times")
	}

	minX, maxX := tr.Times[rows[0]], tr.Times[rows[len(rows)-1]]
	var maxY uint64
	for _, k := range rows {
		for _, i := range species {
			if n := tr.States[k][i]; n > maxY {
				maxY = n
			}
		}
	}

	rangeX := maxX - minX
	if rangeX == 0 {
		rangeX = 1
	}
	rangeY := float64(maxY)
	if rangeY == 0 {
		rangeY = 1
	}
	// Add padding
	w, h := float64(width), float64(height)
	pad := 0.05 * h
	plotH := h - 2*pad

	px := func(t float64) float64 { return (t - minX) / rangeX * w }
	py := func(n uint64) float64 { return h - pad - float64(n)/rangeY*plotH }

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height))

	for s, i := range species {
		color := palette[s%len(palette)]
		sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1.5" d="M`, color))

		first := rows[0]
		sb.WriteString(fmt.Sprintf("%.1f,%.1f", px(tr.Times[first]), py(tr.States[first][i])))
		prev := tr.States[first][i]
		for _, k := range rows[1:] {
			x := px(tr.Times[k])
			n := tr.States[k][i]
			sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, py(prev)))
			if n != prev {
				sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, py(n)))
			}
			prev = n
		}
		sb.WriteString("\"/>\n")

		sb.WriteString(fmt.Sprintf(`<text x="8" y="%d" fill="%s" font-family="monospace" font-size="12">%s</text>
`, 16+14*s, color, html.EscapeString(tr.Species[i])))
	}

	sb.WriteString("</svg>")
	return sb.String(), nil
}
