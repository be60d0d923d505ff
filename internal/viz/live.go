package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/odestep/internal/dynamo"
	"github.com/san-kum/odestep/internal/mesh"
	"github.com/san-kum/odestep/internal/params"
)

const (
	width           = 60
	height          = 20
	historyCapacity = 600
	frameRate       = time.Second / 60
)

// Snapshot stores the state reached at one mesh point for replay.
type Snapshot struct {
	Index int
	Point float64
	State dynamo.State
}

type TickMsg time.Time

// Model walks a mesh one step per frame and draws the trajectory so far.
type Model struct {
	stepper dynamo.Stepper
	f       dynamo.Derivative
	points  []float64
	name    string

	initial       dynamo.State
	state         dynamo.State
	index         int
	params        dynamo.Params
	initialParams dynamo.Params
	paramKeys     []string
	selected      int
	stepsPerTick  int

	history  []Snapshot
	playHead int
	running  bool
	err      error
	showHelp bool

	canvas *Canvas
	theme  Theme
	styles styles
}

// NewModel prepares a live run of f over points. p follows the usual
// broadcasting rules; tuning a parameter scales its whole series.
func NewModel(stepper dynamo.Stepper, f dynamo.Derivative, points []float64, x0 dynamo.State, p dynamo.Params, name string) (Model, error) {
	if err := mesh.Validate(points); err != nil {
		return Model{}, err
	}
	if len(x0) == 0 {
		return Model{}, fmt.Errorf("%w: empty initial state", dynamo.ErrDimensionMismatch)
	}
	if err := params.Validate(p, len(points)); err != nil {
		return Model{}, err
	}

	theme := Themes[0]
	m := Model{
		stepper:       stepper,
		f:             f,
		points:        points,
		name:          name,
		initial:       x0.Clone(),
		state:         x0.Clone(),
		params:        cloneParams(p),
		initialParams: cloneParams(p),
		paramKeys:     params.Names(p),
		stepsPerTick:  1,
		history:       make([]Snapshot, 0, historyCapacity),
		playHead:      -1,
		running:       true,
		canvas:        NewCanvas(width, height),
		theme:         theme,
		styles:        newStyles(theme),
	}
	m.record()
	return m, nil
}

// SetStepsPerTick sets how many mesh steps are taken per frame.
func (m *Model) SetStepsPerTick(n int) {
	if n > 0 {
		m.stepsPerTick = n
	}
}

func cloneParams(p dynamo.Params) dynamo.Params {
	out := make(dynamo.Params, len(p))
	for k, s := range p {
		out[k] = append(dynamo.Series(nil), s...)
	}
	return out
}

func tick() tea.Cmd {
	return tea.Tick(frameRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd { return tick() }

// Update handles input events and steps the integration.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			m.reset()
		case "[":
			m.scrub(-1)
		case "]":
			m.scrub(1)
		case "tab":
			m.cycleParam()
		case "up", "k":
			m.adjustParam(1.05)
		case "down", "j":
			m.adjustParam(0.95)
		case "t":
			m.theme = m.theme.next()
			m.styles = newStyles(m.theme)
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running {
			if m.playHead == -1 {
				for i := 0; i < m.stepsPerTick && m.running; i++ {
					m.step()
				}
			} else {
				m.playHead++
				if m.playHead >= len(m.history) {
					m.playHead = -1
				}
			}
		}
		return m, tick()
	}
	return m, nil
}

func (m *Model) done() bool { return m.index >= len(m.points)-1 }

// step advances one mesh point. Reaching the end or a failed step pauses
// the run.
func (m *Model) step() {
	if m.err != nil || m.done() {
		m.running = false
		return
	}

	values, err := params.Broadcast(m.index, m.params)
	if err == nil {
		var next dynamo.State
		next, err = m.stepper.Step(m.f, m.state, mesh.StepSize(m.points, m.index), values)
		if err == nil {
			m.state = next
		}
	}
	if err != nil {
		m.err = &dynamo.SimulationError{Step: m.index, Point: m.points[m.index], State: m.state.Clone(), Wrapped: err}
		m.running = false
		return
	}

	m.index++
	m.record()
}

func (m *Model) record() {
	m.history = append(m.history, Snapshot{Index: m.index, Point: m.points[m.index], State: m.state.Clone()})
	if len(m.history) > historyCapacity {
		m.history = m.history[1:]
	}
}

func (m *Model) cycleParam() {
	if len(m.paramKeys) == 0 {
		return
	}
	m.selected = (m.selected + 1) % len(m.paramKeys)
}

func (m *Model) adjustParam(factor float64) {
	if len(m.paramKeys) == 0 {
		return
	}
	key := m.paramKeys[m.selected]
	scaled := make(dynamo.Series, len(m.params[key]))
	for i, v := range m.params[key] {
		if v == 0 {
			v = 1e-6
		}
		scaled[i] = v * factor
	}
	m.params[key] = scaled
}

// scrub changes the playback position in history.
func (m *Model) scrub(dir int) {
	if m.playHead == -1 {
		if len(m.history) == 0 {
			return
		}
		m.playHead = len(m.history) - 1
		m.running = false
	}
	m.playHead += dir
	if m.playHead < 0 {
		m.playHead = 0
	}
	if m.playHead >= len(m.history) {
		m.playHead = -1
	}
}

// reset restores the initial state and parameters.
func (m *Model) reset() {
	m.state = m.initial.Clone()
	m.index = 0
	m.params = cloneParams(m.initialParams)
	m.history = m.history[:0]
	m.playHead = -1
	m.err = nil
	m.running = true
	if c, ok := m.stepper.(dynamo.IterationCounter); ok {
		c.ResetIterations()
	}
	m.record()
}

// current is the snapshot on screen: the replay position or the newest.
func (m Model) current() Snapshot {
	if m.playHead >= 0 && m.playHead < len(m.history) {
		return m.history[m.playHead]
	}
	return m.history[len(m.history)-1]
}

// phaseAxes picks the two rows to plot: y against x for first order,
// otherwise y' against y.
func (m Model) phaseAxes() (int, int) {
	if len(m.state) < 3 {
		return 0, len(m.state) - 1
	}
	return 1, 2
}

func (m Model) draw() {
	m.canvas.Clear()
	end := len(m.history)
	if m.playHead >= 0 {
		end = m.playHead + 1
	}
	xi, yi := m.phaseAxes()
	xs := make([]float64, end)
	ys := make([]float64, end)
	for i, snap := range m.history[:end] {
		xs[i], ys[i] = snap.State[xi], snap.State[yi]
	}
	m.canvas.Trace(xs, ys)
}

func (m Model) status() string {
	switch {
	case m.err != nil:
		return m.styles.err.Render("FAILED")
	case m.playHead >= 0:
		return m.styles.paused.Render(fmt.Sprintf("REPLAY (%d/%d)", m.playHead+1, len(m.history)))
	case m.done():
		return m.styles.stopped.Render("FINISHED")
	case !m.running:
		return m.styles.paused.Render("PAUSED")
	}
	return m.styles.running.Render("RUNNING")
}

// View renders the TUI interface.
func (m Model) View() string {
	m.draw()
	snap := m.current()
	st := m.styles

	var s strings.Builder
	s.WriteString(st.header.Render(strings.ToUpper(m.name)+" · "+m.stepper.Name()) + "\n")
	s.WriteString(m.status() + "\n\n")

	if len(m.history) > 1 {
		row := min(1, m.initial.Order())
		ys := make([]float64, len(m.history))
		for i, h := range m.history {
			ys[i] = h.State[row]
		}
		chart := asciigraph.Plot(ys, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("y"))
		s.WriteString(st.graph.Render(chart) + "\n\n")
	}

	total := len(m.points) - 1
	progress := 1.0
	if total > 0 {
		progress = float64(snap.Index) / float64(total)
	}
	s.WriteString(st.label.Render("Step") + st.value.Render(fmt.Sprintf("%d/%d", snap.Index, total)) + "\n")
	s.WriteString(st.label.Render("") + st.ProgressBar(progress, 20) + "\n")
	names := stateNames(len(snap.State))
	for k, v := range snap.State {
		s.WriteString(st.label.Render(names[k]) + st.value.Render(fmt.Sprintf("%.6g", v)) + "\n")
	}
	if c, ok := m.stepper.(dynamo.IterationCounter); ok {
		s.WriteString(st.label.Render("Iterations") + st.value.Render(fmt.Sprintf("%d", c.Iterations())) + "\n")
	}
	if m.err != nil {
		s.WriteString("\n" + st.err.Render(m.err.Error()) + "\n")
	}

	s.WriteString("\nPARAMETERS\n")
	if len(m.paramKeys) == 0 {
		s.WriteString(st.label.Render("  (none)") + "\n")
	}
	for i, k := range m.paramKeys {
		series := m.params[k]
		line := fmt.Sprintf("%-10s %.4g", k, series[0])
		if len(series) > 1 {
			line = fmt.Sprintf("%-10s %s", k, Sparkline(series, 12))
		}
		if i == m.selected {
			s.WriteString(st.active.Render("> "+line) + "\n")
		} else {
			s.WriteString("  " + st.label.Render(line) + "\n")
		}
	}
	s.WriteString(st.help.Render("SP:Pause R:Reset Q:Quit\nT:Theme [ ]:Replay ↑↓:Tune ?:Help"))

	main := lipgloss.JoinHorizontal(lipgloss.Top, st.canvas.Render(m.canvas.String()), st.stats.Render(s.String()))
	if m.showHelp {
		return helpText + "\n\n" + main
	}
	return main
}

const helpText = `
╔══════════════════════════════════════╗
║          KEYBOARD SHORTCUTS          ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume             ║
║  R        - Restart from x0          ║
║  Q        - Quit                     ║
║  Tab      - Cycle parameters         ║
║  Up/K     - Increase parameter (+5%) ║
║  Down/J   - Decrease parameter (-5%) ║
║  [        - Step back in history     ║
║  ]        - Step forward in history  ║
║  T        - Cycle themes             ║
║  ?        - Toggle this help         ║
╚══════════════════════════════════════╝`

// stateNames labels [x, y, y', y'', ...].
func stateNames(n int) []string {
	names := make([]string, n)
	for k := range names {
		switch k {
		case 0:
			names[k] = "x"
		case 1:
			names[k] = "y"
		default:
			names[k] = "y" + strings.Repeat("'", k-1)
		}
	}
	return names
}

// Run starts the live view full screen and blocks until it quits.
func Run(m Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
