package viz

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/flywheel/internal/characterize"
	"github.com/san-kum/flywheel/internal/dynamo"
	"github.com/san-kum/flywheel/internal/experiment"
	"github.com/san-kum/flywheel/internal/motor"
	"github.com/san-kum/flywheel/internal/params"
)

const historyLen = 250

// tunables are the store keys the dashboard can edit, in display order.
var tunables = []string{
	params.MotorSpeed,
	params.FeedSpeed,
	params.SpinUpTime,
	params.FeedTime,
	params.VelocityTolerance,
}

// TickMsg advances the rig by one control period.
type TickMsg time.Time

// Dashboard is a Bubble Tea model that owns a simulated rig and ticks it at
// the control period.
type Dashboard struct {
	rig    *experiment.Rig
	period time.Duration
	tick   int
	paused bool

	setpoints  []float64
	velocities []float64
	last       dynamo.Snapshot
	err        error

	selected int
	canvas   *Canvas
	showHelp bool

	width, height int
}

func NewDashboard(rig *experiment.Rig) *Dashboard {
	return &Dashboard{
		rig:        rig,
		period:     rig.Period(),
		setpoints:  make([]float64, 0, historyLen),
		velocities: make([]float64, 0, historyLen),
		canvas:     NewCanvas(12, 6),
		width:      100,
		height:     30,
	}
}

func (d *Dashboard) Init() tea.Cmd {
	return d.next()
}

func (d *Dashboard) next() tea.Cmd {
	return tea.Tick(d.period, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (d *Dashboard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return d.handleKey(msg)
	case tea.WindowSizeMsg:
		d.width = msg.Width
		d.height = msg.Height
	case TickMsg:
		if !d.paused {
			d.step()
		}
		return d, d.next()
	}
	return d, nil
}

// step runs one control period and records it.
func (d *Dashboard) step() {
	snap := d.rig.Runner.Tick(d.tick, d.period)
	d.tick++
	d.last = snap
	d.setpoints = appendBounded(d.setpoints, snap.Setpoint)
	d.velocities = appendBounded(d.velocities, snap.Velocity)
}

func appendBounded(s []float64, v float64) []float64 {
	if len(s) >= historyLen {
		s = s[1:]
	}
	return append(s, v)
}

func (d *Dashboard) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	sub := d.rig.Subsystem
	switch msg.String() {
	case "q", "ctrl+c":
		return d, tea.Quit
	case "s", "enter":
		sub.StartShot()
		d.err = nil
	case "c", "esc":
		sub.Cancel()
	case "1", "2":
		actuator := "top"
		if msg.String() == "2" {
			actuator = "bottom"
		}
		d.err = sub.StartCharacterization(actuator, characterize.Dynamic, characterize.Forward)
	case "tab":
		d.selected = (d.selected + 1) % len(tunables)
	case "up", "k":
		d.nudge(1.05)
	case "down", "j":
		d.nudge(0.95)
	case " ":
		d.paused = !d.paused
	case "t":
		NextTheme()
	case "?":
		d.showHelp = !d.showHelp
	}
	return d, nil
}

// nudge scales the selected tunable. A zero value steps to 0.1 so it can
// grow again.
func (d *Dashboard) nudge(factor float64) {
	key := tunables[d.selected]
	v := d.rig.Store.Get(key, 0)
	if v == 0 && factor > 1 {
		v = 0.1
	} else {
		v *= factor
	}
	d.rig.Store.Set(key, v)
}

func (d *Dashboard) View() string {
	if d.showHelp {
		return d.renderHelp()
	}

	var b strings.Builder
	b.WriteString(titleStyle().Render(fmt.Sprintf(" FLYWHEEL  %s  t=%.2fs ", CurrentTheme.Name, d.last.Seconds())))
	if d.paused {
		b.WriteString(hintStyle().Render("  paused"))
	}
	b.WriteString("\n\n")

	left := lipgloss.JoinVertical(lipgloss.Left, d.renderWheel(), d.renderStatus(), d.renderParams())
	row := lipgloss.JoinHorizontal(lipgloss.Top, panelStyle().Render(left), " ", panelStyle().Render(d.renderGraph()))
	b.WriteString(row)
	b.WriteString("\n")
	if d.err != nil {
		b.WriteString(lipgloss.NewStyle().Foreground(CurrentTheme.Error).Render("error: " + d.err.Error()))
		b.WriteString("\n")
	}
	b.WriteString(hintStyle().Render("s shoot · c cancel · 1/2 characterize · tab/↑/↓ tune · t theme · ? help · q quit"))
	return b.String()
}

func (d *Dashboard) renderGraph() string {
	if len(d.velocities) < 2 {
		return labelStyle().Render("waiting for samples...")
	}
	width := d.width - 50
	if width < 30 {
		width = 30
	}
	return asciigraph.PlotMany([][]float64{d.setpoints, d.velocities},
		asciigraph.Height(12),
		asciigraph.Width(width),
		asciigraph.SeriesColors(CurrentTheme.Setpoint, CurrentTheme.Measured),
		asciigraph.Caption("setpoint / velocity (rad/s)"),
	)
}

func (d *Dashboard) renderWheel() string {
	angle := math.Mod(d.rig.Group.Actuator(motor.Leader).Position(), 2*math.Pi)
	d.canvas.Clear()
	d.canvas.DrawWheel(angle, 4)
	return lipgloss.NewStyle().Foreground(CurrentTheme.Primary).Render(d.canvas.String())
}

func (d *Dashboard) renderStatus() string {
	phase := d.last.Phase
	if phase == "" {
		phase = "Stopped"
	}
	status, _ := d.rig.Table.String(params.Status)
	tol := d.rig.Store.Get(params.VelocityTolerance, 0)

	lines := []string{
		labelStyle().Render("phase   ") + phaseStyle(phase).Render(phase),
		labelStyle().Render("owner   ") + valueStyle().Render(d.rig.Subsystem.Owner().String()),
		labelStyle().Render("status  ") + valueStyle().Render(status),
		labelStyle().Render("speed   ") + ProgressBar(d.last.Velocity, d.last.Setpoint, tol, 20),
		labelStyle().Render("        ") + valueStyle().Render(fmt.Sprintf("%7.1f / %7.1f rad/s", d.last.Velocity, d.last.Setpoint)),
		labelStyle().Render("out     ") + valueStyle().Render(fmt.Sprintf("%+.2fV %+.2fV feed %+.2fV", d.last.Leader, d.last.Follower, d.last.Feeder)),
		labelStyle().Render("trend   ") + SparklineChart(d.velocities, 24),
		"",
	}
	return strings.Join(lines, "\n")
}

func (d *Dashboard) renderParams() string {
	var lines []string
	for i, key := range tunables {
		line := fmt.Sprintf("%-20s %8.3f", key, d.rig.Store.Get(key, 0))
		if i == d.selected {
			lines = append(lines, selectedStyle().Render("> "+line))
			continue
		}
		lines = append(lines, labelStyle().Render("  "+line))
	}
	return strings.Join(lines, "\n")
}

func (d *Dashboard) renderHelp() string {
	help := `Keys

  s / enter   start a shot
  c / esc     cancel (safety stop)
  1 / 2       dynamic characterization, top / bottom wheel
  tab         select next parameter
  up / k      raise parameter 5%
  down / j    lower parameter 5%
  space       pause / resume
  t           next theme
  ?           close help
  q           quit`
	return panelStyle().Render(help)
}
