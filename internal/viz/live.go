package viz

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/orrery/internal/body"
	"github.com/san-kum/orrery/internal/camera"
	"github.com/san-kum/orrery/internal/clock"
	"github.com/san-kum/orrery/internal/dynamo"
	"github.com/san-kum/orrery/internal/engine"
	"github.com/san-kum/orrery/internal/logging"
)

const (
	defaultCols     = 80
	defaultRows     = 24
	panelWidth      = 44
	historyCapacity = 240
	scaleStep       = 10.0
	maxScale        = 1e9
	jumpStep        = 24 * time.Hour
	timeLayout      = "2006-01-02 15:04:05 MST"
)

// Controller is the part of the engine the live view drives.
type Controller interface {
	Frame(realDelta float64) error
	State() engine.Snapshot
	SetTarget(name string) error
	CycleTarget(step int) error
	SetMode(m camera.Mode) error
	SetTimeScale(factor float64) error
	Pause()
	Resume()
	JumpTo(ctx context.Context, t time.Time) <-chan error
	Controls() *camera.OrbitControls
	Events() <-chan camera.TargetChanged
	Transition() (camera.Transition, bool)
	SurfaceDistance() float64
	Bodies() []*body.Body
}

type (
	tickMsg   time.Time
	targetMsg camera.TargetChanged
	jumpMsg   struct {
		to  time.Time
		err error
	}
)

// Model is the bubbletea model of the live view. The engine is only ever
// touched from Update, so frames and requests share one goroutine.
type Model struct {
	ctx   context.Context
	eng   Controller
	term  *Terminal
	timer *clock.Timer
	log   logging.Logger
	fps   int

	theme Theme
	st    styles
	dist  camera.DistanceFormatter

	width, height int
	distances     []float64
	status        string
	statusErr     bool
	jumping       int
	ticks         int
	showHelp      bool
	picker        *picker
}

// NewModel returns a live view driving eng and drawing through term, which
// must be the engine's renderer.
func NewModel(ctx context.Context, eng Controller, term *Terminal, fps int, log logging.Logger) Model {
	if fps <= 0 {
		fps = 30
	}
	if log == nil {
		log = logging.Noop()
	}
	return Model{
		ctx:       ctx,
		eng:       eng,
		term:      term,
		timer:     clock.StartTimer(),
		log:       log,
		fps:       fps,
		theme:     ThemeDeepSpace,
		st:        newStyles(ThemeDeepSpace),
		width:     defaultCols + panelWidth,
		height:    defaultRows,
		distances: make([]float64, 0, historyCapacity),
		status:    "ready",
	}
}

// WithTheme selects the color theme by name; unknown names keep the default.
func (m Model) WithTheme(name string) Model {
	if t, ok := GetTheme(name); ok {
		m.theme, m.st = t, newStyles(t)
	}
	return m
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.fps), func(t time.Time) tea.Msg { return tickMsg(t) })
}

func waitEvent(ch <-chan camera.TargetChanged) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return targetMsg(ev)
	}
}

func (m Model) Init() tea.Cmd {
	m.term.SetTarget(m.eng.State().Target)
	return tea.Batch(m.tick(), waitEvent(m.eng.Events()))
}

// Update handles input events and steps the simulation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.term.Resize(max(msg.Width-panelWidth-4, 10), max(msg.Height-1, 4))
		return m, nil
	case tea.KeyMsg:
		if m.picker != nil {
			return m.pickerKey(msg)
		}
		return m.handleKey(msg)
	case tickMsg:
		m.frame()
		return m, m.tick()
	case targetMsg:
		m.term.SetTarget(msg.Body.Name)
		m.setStatus(fmt.Sprintf("arrived at %s", msg.Body.Name), nil)
		return m, waitEvent(m.eng.Events())
	case jumpMsg:
		m.jumping--
		switch {
		case errors.Is(msg.err, dynamo.ErrSuperseded):
		case msg.err != nil:
			m.setStatus("jump failed", msg.err)
		default:
			m.setStatus("jumped to "+msg.to.Format(timeLayout), nil)
		}
		return m, nil
	}
	return m, nil
}

func (m *Model) frame() {
	m.ticks++
	if err := m.eng.Frame(m.timer.Delta()); err != nil {
		m.setStatus("frame failed", err)
		return
	}
	d := m.eng.SurfaceDistance() * camera.MetersPerUnit / 1000
	m.distances = append(m.distances, math.Log10(math.Max(d, 1e-3)))
	if len(m.distances) > historyCapacity {
		m.distances = m.distances[1:]
	}
}

func (m *Model) setStatus(s string, err error) {
	m.statusErr = err != nil
	if err != nil {
		s = fmt.Sprintf("%s: %v", s, err)
		m.log.Warn(m.ctx, "live view request failed", logging.Err(err))
	}
	m.status = s
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	controls := m.eng.Controls()
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case " ":
		if m.eng.State().Paused {
			m.eng.Resume()
			m.setStatus("resumed", nil)
		} else {
			m.eng.Pause()
			m.setStatus("paused", nil)
		}
	case "tab", "n":
		m.setStatus("next target", m.eng.CycleTarget(1))
	case "shift+tab", "p":
		m.setStatus("previous target", m.eng.CycleTarget(-1))
	case "b":
		m.picker = newPicker(m.eng.Bodies(), m.eng.State().Target)
	case "m":
		st := m.eng.State()
		next := (st.Mode + 1) % (camera.ViewFromSurface + 1)
		if next == camera.ViewFromSurface && st.Location == nil {
			next = camera.LookAt
		}
		m.setStatus("mode "+next.String(), m.eng.SetMode(next))
	case "left", "h":
		controls.OrbitLeft()
	case "right", "l":
		controls.OrbitRight()
	case "up", "k":
		controls.OrbitUp()
	case "down", "j":
		controls.OrbitDown()
	case "+", "=":
		controls.ZoomIn()
	case "-", "_":
		controls.ZoomOut()
	case ".":
		m.scale(m.eng.State().Scale * scaleStep)
	case ",":
		m.scale(m.eng.State().Scale / scaleStep)
	case "r":
		m.scale(-m.eng.State().Scale)
	case "1":
		m.scale(1)
	case "[":
		return m, m.jump(-jumpStep)
	case "]":
		return m, m.jump(jumpStep)
	case "t":
		m.theme = NextTheme(m.theme)
		m.st = newStyles(m.theme)
		m.setStatus("theme "+m.theme.Name, nil)
	case "L":
		m.term.ToggleLabels()
	case "o":
		m.term.ToggleOrbits()
	case "?":
		m.showHelp = !m.showHelp
	}
	return m, nil
}

func (m *Model) scale(f float64) {
	if f == 0 {
		f = 1
	}
	f = math.Max(-maxScale, math.Min(maxScale, f))
	m.setStatus(fmt.Sprintf("time x%g", f), m.eng.SetTimeScale(f))
}

// jump fetches kinematics for the time d away and waits for the swap off the
// UI goroutine.
func (m *Model) jump(d time.Duration) tea.Cmd {
	to := m.eng.State().Time.Add(d)
	m.jumping++
	m.setStatus("jumping to "+to.Format(timeLayout), nil)
	done := m.eng.JumpTo(m.ctx, to)
	return func() tea.Msg {
		return jumpMsg{to: to, err: <-done}
	}
}

func (m Model) pickerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	name, done := m.picker.key(msg.String())
	if !done {
		return m, nil
	}
	m.picker = nil
	if name != "" {
		m.setStatus("flying to "+name, m.eng.SetTarget(name))
	}
	return m, nil
}

// View renders the TUI interface.
func (m Model) View() string {
	canvasView := m.st.canvas.Render(m.term.Frame())
	if m.picker != nil {
		canvasView = m.picker.view(m.st)
	}
	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, m.st.panel.Render(m.panel()))
	if m.showHelp {
		return m.st.help.Render(helpText) + "\n" + mainView
	}
	return mainView
}

func (m Model) panel() string {
	snap := m.eng.State()
	var s strings.Builder
	s.WriteString(m.st.header.Render("ORRERY") + "\n")

	switch {
	case m.jumping > 0:
		s.WriteString(m.st.paused.Render(AnimatedSpinner(m.ticks)+" JUMPING") + "\n\n")
	case snap.Paused:
		s.WriteString(m.st.paused.Render("PAUSED") + "\n\n")
	default:
		s.WriteString(m.st.running.Render("RUNNING") + "\n\n")
	}

	row := func(label, value string) {
		s.WriteString(m.st.label.Render(label) + m.st.value.Render(value) + "\n")
	}
	row("Target", snap.Target)
	row("Mode", snap.Mode.String())
	row("Time", snap.Time.UTC().Format(timeLayout))
	row("Scale", fmt.Sprintf("x%g", snap.Scale))
	row("Altitude", m.dist.Format(m.eng.SurfaceDistance()))
	if snap.Location != nil {
		row("Location", fmt.Sprintf("%s %.2f°, %.2f°", snap.Location.Body, snap.Location.Lat.Deg(), snap.Location.Lon.Deg()))
	}
	row("Physics", strings.Join(snap.Strategies, "+"))
	if tr, ok := m.eng.Transition(); ok {
		row("Flying to", tr.Target.Name)
		row(tr.Phase().String(), m.st.bar.Render(ProgressBar(tr.Progress(), 20)))
	}
	if snap.JumpFailures > 0 {
		row("Jump fail", fmt.Sprint(snap.JumpFailures))
	}

	if len(m.distances) > 1 {
		chart := asciigraph.Plot(m.distances,
			asciigraph.Height(5),
			asciigraph.Width(panelWidth-12),
			asciigraph.Precision(1),
			asciigraph.Caption("log10 altitude (km)"))
		s.WriteString("\n" + m.st.graph.Render(chart) + "\n")
	}

	s.WriteString("\n")
	if m.statusErr {
		s.WriteString(m.st.failure.Render(m.status))
	} else {
		s.WriteString(m.st.value.Render(m.status))
	}
	s.WriteString("\n" + m.st.help.Render("?:Help  Q:Quit"))
	return s.String()
}

const helpText = `SPACE pause   TAB/N next   P previous   B pick body   M mode
←↓↑→/HJKL orbit   +/- zoom   ./, time x10   R reverse   1 real time
[ ] jump a day   O orbits   L labels   T theme   ? help   Q quit`

// Run starts the live view and blocks until the user quits or ctx ends.
func Run(ctx context.Context, m Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}
