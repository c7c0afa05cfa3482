package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/grnsim/internal/gillespie"
)

const (
	historyCapacity = 300
	barWidth        = 24
	maxStepsPerTick = 4096
)

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Model steps a System on every tick and renders its counts.
type Model struct {
	title        string
	reactions    []string
	sys          *gillespie.System
	initial      *gillespie.System
	newSource    func() gillespie.Source
	src          gillespie.Source
	buf          []float64
	running      bool
	absorbed     bool
	err          error
	steps        int
	stepsPerTick int
	selected     int
	history      [][]float64
	peak         []uint64
	showHelp     bool
	quitting     bool
}

// NewModel builds a live view of sys. newSource is called at start and on
// every reset; each call should return a fresh random stream.
func NewModel(title string, sys *gillespie.System, newSource func() gillespie.Source) Model {
	m := Model{
		title:        title,
		sys:          sys,
		initial:      sys.Clone(),
		newSource:    newSource,
		stepsPerTick: 1,
		running:      true,
	}
	m.reset()
	return m
}

// WithReactionNames labels reactions in the view.
func (m Model) WithReactionNames(names []string) Model {
	m.reactions = names
	return m
}

func (m Model) Init() tea.Cmd {
	return tick()
}

// Update handles input events and steps the simulation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "tab":
			if n := m.sys.NumSpecies(); n > 0 {
				m.selected = (m.selected + 1) % n
			}
		case "r":
			m.reset()
		case "+", "=":
			if m.stepsPerTick < maxStepsPerTick {
				m.stepsPerTick *= 2
			}
		case "-", "_":
			if m.stepsPerTick > 1 {
				m.stepsPerTick /= 2
			}
		case "t":
			nextTheme()
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running {
			for i := 0; i < m.stepsPerTick; i++ {
				if !m.advance() {
					break
				}
			}
		}
		return m, tick()
	}
	return m, nil
}

// advance fires one reaction. It returns false once stepping has stopped.
func (m *Model) advance() bool {
	if m.absorbed || m.err != nil {
		return false
	}
	_, err := gillespie.Step(m.sys, m.src, m.buf)
	if gillespie.IsAbsorbing(err) {
		m.absorbed = true
		return false
	}
	if err != nil {
		m.err = err
		return false
	}
	m.steps++
	m.record()
	return true
}

func (m *Model) record() {
	for i := range m.history {
		n := m.sys.Count(i)
		m.history[i] = append(m.history[i], float64(n))
		if len(m.history[i]) > historyCapacity {
			m.history[i] = m.history[i][1:]
		}
		if n > m.peak[i] {
			m.peak[i] = n
		}
	}
}

// reset restores the initial state and draws a new random stream.
func (m *Model) reset() {
	m.sys = m.initial.Clone()
	m.src = m.newSource()
	m.buf = make([]float64, m.sys.NumReactions())
	m.absorbed = false
	m.err = nil
	m.steps = 0
	m.history = make([][]float64, m.sys.NumSpecies())
	m.peak = make([]uint64, m.sys.NumSpecies())
	if m.selected >= m.sys.NumSpecies() {
		m.selected = 0
	}
	m.record()
}

func (m Model) Absorbed() bool { return m.absorbed }

func (m Model) Err() error { return m.err }

func (m Model) Steps() int { return m.steps }

func (m Model) System() *gillespie.System { return m.sys }

func (m Model) status() string {
	st := currentStyles()
	switch {
	case m.err != nil:
		return st.failed.Render("FAILED: " + m.err.Error())
	case m.absorbed:
		return st.absorbed.Render("ABSORBED")
	case !m.running:
		return st.absorbed.Render("PAUSED")
	default:
		return st.status.Render("RUNNING")
	}
}

// View renders the TUI interface.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	st := currentStyles()

	var s strings.Builder
	s.WriteString(st.header.Render(strings.ToUpper(m.title)) + "\n")
	s.WriteString(m.status() + "\n\n")

	s.WriteString(st.label.Render("Time") + st.value.Render(formatTime(m.sys.Time())) + "\n")
	s.WriteString(st.label.Render("Reactions") + st.value.Render(fmt.Sprintf("%d", m.steps)) + "\n")
	last := "-"
	if j := m.sys.LastReaction(); j != gillespie.NoReaction {
		last = fmt.Sprintf("r%d", j)
		if j < len(m.reactions) {
			last = m.reactions[j]
		}
	}
	s.WriteString(st.label.Render("Last") + st.value.Render(last) + "\n")
	s.WriteString(st.label.Render("Speed") + st.value.Render(fmt.Sprintf("%d/frame", m.stepsPerTick)) + "\n")

	s.WriteString("\nSPECIES\n")
	var top uint64 = 1
	for _, p := range m.peak {
		if p > top {
			top = p
		}
	}
	for i, name := range m.sys.SpeciesNames() {
		n := m.sys.Count(i)
		filled := int(float64(n) / float64(top) * barWidth)
		bar := "[" + strings.Repeat("=", filled) + strings.Repeat("-", barWidth-filled) + "]"
		line := fmt.Sprintf("%-10s %s %d", name, bar, n)
		if i == m.selected {
			s.WriteString(st.active.Render("> "+line) + "\n")
		} else {
			s.WriteString("  " + st.value.Render(line) + "\n")
		}
	}

	stats := s.String()
	view := stats
	if len(m.history) > 0 && len(m.history[m.selected]) > 1 {
		h := m.history[m.selected]
		chart := asciigraph.Plot(h, asciigraph.Height(10), asciigraph.Width(50), asciigraph.Caption(m.sys.SpeciesName(m.selected)))
		view = lipgloss.JoinHorizontal(lipgloss.Top, stats, "   ", st.graph.Render(chart))
	}

	view += st.help.Render("\nSP:Pause TAB:Species R:Reset +/-:Speed T:Theme ?:Help Q:Quit")
	if m.showHelp {
		return helpText + "\n\n" + view
	}
	return view
}

const helpText = `
  Space  pause or resume
  Tab    chart the next species
  R      reset with a fresh random stream
  + / -  double or halve reactions per frame
  T      cycle themes
  ?      toggle this help
  Q      quit`

func formatTime(t float64) string {
	return fmt.Sprintf("%.4g", t)
}
