package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/odestep/internal/experiment"
	"github.com/san-kum/odestep/internal/mesh"
	"github.com/san-kum/odestep/internal/solver"
)

var modelInfo = map[string]string{
	"free":        "y' = 0",
	"decay":       "exponential decay",
	"logistic":    "bounded growth",
	"pendulum":    "damped driven pendulum",
	"oscillator":  "harmonic oscillator",
	"spring_mass": "forced spring",
	"jerk":        "third order chaos",
	"vanderpol":   "relaxation oscillator",
	"duffing":     "forced cubic spring",
}

const (
	stateModel = iota
	stateMethod
	stateSim
)

// Interactive-mode defaults for the mesh.
const (
	menuStop   = 20.0
	menuPoints = 2001
)

type menu struct {
	registry *experiment.Registry
	state    int
	cursor   int
	models   []string
	methods  []string
	selected string
	err      error
	live     Model
}

func NewInteractiveApp(registry *experiment.Registry) tea.Model {
	return menu{
		registry: registry,
		models:   registry.ListModels(),
		methods:  registry.ListMethods(),
	}
}

func (m menu) Init() tea.Cmd { return nil }

func (m menu) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.state == stateSim {
		live, cmd := m.live.Update(msg)
		m.live = live.(Model)
		return m, cmd
	}

	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	options := m.options()
	switch key.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.state, m.cursor = stateModel, 0
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(options)-1 {
			m.cursor++
		}
	case "enter", " ":
		if m.state == stateModel {
			m.selected = options[m.cursor]
			m.state, m.cursor = stateMethod, 0
			return m, nil
		}
		return m.start(options[m.cursor])
	}
	return m, nil
}

func (m menu) options() []string {
	if m.state == stateMethod {
		return m.methods
	}
	return m.models
}

func (m menu) start(method string) (tea.Model, tea.Cmd) {
	model, err := m.registry.GetModel(m.selected)
	if err != nil {
		m.err = err
		return m, nil
	}
	stepper, err := m.registry.GetMethod(method, solver.DefaultTolerance, solver.DefaultLimit)
	if err != nil {
		m.err = err
		return m, nil
	}
	points, err := mesh.Linspace(0, menuStop, menuPoints)
	if err != nil {
		m.err = err
		return m, nil
	}

	live, err := NewModel(stepper, model, points, model.DefaultState(), model.DefaultParams(), m.selected)
	if err != nil {
		m.err = err
		return m, nil
	}
	live.SetStepsPerTick(4)

	m.live, m.state = live, stateSim
	return m, m.live.Init()
}

func (m menu) View() string {
	if m.state == stateSim {
		return m.live.View()
	}

	title := lipgloss.NewStyle().Foreground(lipgloss.Color("#00cccc")).Bold(true)
	sub := lipgloss.NewStyle().Foreground(lipgloss.Color("#666688"))
	cursor := lipgloss.NewStyle().Foreground(lipgloss.Color("#00ffff")).Bold(true)
	current := lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff")).Bold(true)
	desc := lipgloss.NewStyle().Foreground(lipgloss.Color("#ff88ff"))
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("#555566"))

	var b strings.Builder
	if m.state == stateModel {
		b.WriteString("\n\n    " + title.Render("ODESTEP") + "\n    " + sub.Render("euler integration of y^(n) = f(x, y, ...)") + "\n")
	} else {
		b.WriteString("\n\n    " + title.Render(strings.ToUpper(m.selected)) + "\n    " + sub.Render("choose a method") + "\n")
	}
	b.WriteString("    " + sub.Render("─────────────────────────") + "\n\n")

	for i, name := range m.options() {
		info := ""
		if m.state == stateModel {
			info = modelInfo[name]
		}
		if i == m.cursor {
			b.WriteString(fmt.Sprintf("    %s %s  %s\n", cursor.Render("▸"), current.Render(fmt.Sprintf("%-12s", name)), desc.Render(info)))
		} else {
			b.WriteString(fmt.Sprintf("      %s  %s\n", dim.Render(fmt.Sprintf("%-12s", name)), dim.Render(info)))
		}
	}

	if m.err != nil {
		b.WriteString("\n    " + lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4444")).Render(m.err.Error()) + "\n")
	}
	b.WriteString("\n    " + sub.Render("j/k navigate  enter select  esc back  q quit") + "\n")
	return b.String()
}

// RunInteractive shows the model and method menus, then the live view.
func RunInteractive(registry *experiment.Registry) error {
	_, err := tea.NewProgram(NewInteractiveApp(registry), tea.WithAltScreen()).Run()
	return err
}
