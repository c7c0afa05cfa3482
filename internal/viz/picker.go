package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Choice is one entry of the preset menu.
type Choice struct {
	Name        string
	Description string
}

// Picker lists presets and switches to a live view of the selected one.
type Picker struct {
	choices []Choice
	cursor  int
	start   func(name string) (Model, error)
	live    *Model
	err     error
}

// NewPicker builds the menu. start builds the live view for a chosen name.
func NewPicker(choices []Choice, start func(name string) (Model, error)) Picker {
	return Picker{choices: choices, start: start}
}

func (p Picker) Init() tea.Cmd { return nil }

func (p Picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if p.live != nil {
		if key, ok := msg.(tea.KeyMsg); ok && key.String() == "esc" {
			p.live = nil
			return p, nil
		}
		next, cmd := p.live.Update(msg)
		live := next.(Model)
		p.live = &live
		return p, cmd
	}

	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return p, nil
	}
	switch key.String() {
	case "q", "ctrl+c":
		return p, tea.Quit
	case "up", "k":
		if p.cursor > 0 {
			p.cursor--
		}
	case "down", "j":
		if p.cursor < len(p.choices)-1 {
			p.cursor++
		}
	case "enter", " ":
		if len(p.choices) == 0 {
			return p, nil
		}
		live, err := p.start(p.choices[p.cursor].Name)
		if err != nil {
			p.err = err
			return p, nil
		}
		p.err = nil
		p.live = &live
		return p, live.Init()
	}
	return p, nil
}

// Selected is the highlighted preset name.
func (p Picker) Selected() string {
	if len(p.choices) == 0 {
		return ""
	}
	return p.choices[p.cursor].Name
}

func (p Picker) Live() *Model { return p.live }

func (p Picker) View() string {
	if p.live != nil {
		return p.live.View()
	}

	th := CurrentTheme
	title := lipgloss.NewStyle().Foreground(th.Primary).Bold(true)
	sub := lipgloss.NewStyle().Foreground(th.Muted)
	pointer := lipgloss.NewStyle().Foreground(th.Primary).Bold(true)
	name := lipgloss.NewStyle().Foreground(th.Text).Bold(true)
	desc := lipgloss.NewStyle().Foreground(th.Accent)
	key := lipgloss.NewStyle().Foreground(th.Primary).Bold(true)

	var b strings.Builder
	b.WriteString("\n\n    " + title.Render("GRNSIM") + "\n    " + sub.Render("stochastic reaction networks") + "\n    " + sub.Render("─────────────────────────") + "\n\n")
	for i, c := range p.choices {
		if i == p.cursor {
			b.WriteString(fmt.Sprintf("    %s %s  %s\n", pointer.Render("▸"), name.Render(fmt.Sprintf("%-16s", c.Name)), desc.Render(c.Description)))
		} else {
			b.WriteString(fmt.Sprintf("    %s  %s\n", sub.Render(fmt.Sprintf("  %-16s", c.Name)), sub.Render(c.Description)))
		}
	}
	if p.err != nil {
		b.WriteString("\n    " + lipgloss.NewStyle().Foreground(th.Error).Render(p.err.Error()) + "\n")
	}
	b.WriteString("\n    " + key.Render("j/k") + sub.Render(" navigate  ") + key.Render("enter") + sub.Render(" start  ") + key.Render("esc") + sub.Render(" back  ") + key.Render("q") + sub.Render(" quit") + "\n")
	return b.String()
}

// Run starts a full-screen program for m, which is either a Model or a
// Picker.
func Run(m tea.Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
