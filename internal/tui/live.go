// Package tui streams a running shot to a plain ANSI terminal. It needs
// no input handling, so it works under `flywheel shoot --watch` in any
// terminal or log capture that understands escape codes.
package tui

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/san-kum/flywheel/internal/dynamo"
)

const (
	width       = 70
	height      = 16
	clearScreen = "\033[2J\033[H"
	hideCursor  = "\033[?25l"
	showCursor  = "\033[?25h"
)

// LiveRenderer is a loop observer that redraws a strip chart of wheel
// velocity against setpoint. Frames are throttled to frameRate per second
// of wall time; a frameRate of zero draws every tick.
type LiveRenderer struct {
	out       io.Writer
	title     string
	frameRate int
	lastFrame time.Time
	canvas    [][]rune
	history   []dynamo.Snapshot
	peak      float64
}

func NewLiveRenderer(out io.Writer, title string, frameRate int) *LiveRenderer {
	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = make([]rune, width)
	}
	return &LiveRenderer{
		out:       out,
		title:     title,
		frameRate: frameRate,
		canvas:    canvas,
		history:   make([]dynamo.Snapshot, 0, width),
	}
}

func (r *LiveRenderer) OnTick(s dynamo.Snapshot) {
	r.history = append(r.history, s)
	if len(r.history) > width {
		r.history = r.history[1:]
	}
	r.peak = math.Max(r.peak, math.Max(math.Abs(s.Setpoint), math.Abs(s.Velocity)))

	if r.frameRate > 0 {
		if time.Since(r.lastFrame) < time.Second/time.Duration(r.frameRate) {
			return
		}
		r.lastFrame = time.Now()
	}

	r.clear()
	r.drawChart()
	r.render(s)
}

func (r *LiveRenderer) clear() {
	for y := range r.canvas {
		for x := range r.canvas[y] {
			r.canvas[y][x] = ' '
		}
	}
}

func (r *LiveRenderer) set(x, y int, c rune) {
	if x >= 0 && x < width && y >= 0 && y < height {
		r.canvas[y][x] = c
	}
}

// row maps a velocity onto a canvas row, top row = peak.
func (r *LiveRenderer) row(v float64) int {
	if r.peak == 0 {
		return height - 1
	}
	return height - 1 - int(math.Round(math.Abs(v)/r.peak*float64(height-1)))
}

func (r *LiveRenderer) drawChart() {
	for x := 0; x < width; x++ {
		r.set(x, height-1, '.')
	}
	for i, s := range r.history {
		if s.Setpoint != 0 {
			r.set(i, r.row(s.Setpoint), '-')
		}
		c := '*'
		if s.Feeder != 0 {
			c = 'o'
		}
		r.set(i, r.row(s.Velocity), c)
	}
}

func (r *LiveRenderer) render(s dynamo.Snapshot) {
	var b strings.Builder
	b.WriteString(clearScreen)
	fmt.Fprintf(&b, "  %s  t=%.2fs  %s\n", r.title, s.Seconds(), s.Phase)
	b.WriteString("  " + strings.Repeat("-", width) + "\n")

	for _, row := range r.canvas {
		b.WriteString("  ")
		b.WriteString(string(row))
		b.WriteString("\n")
	}

	b.WriteString("  " + strings.Repeat("-", width) + "\n")
	fmt.Fprintf(&b, "  w=%.1f sp=%.1f rad/s  out=%+.2fV/%+.2fV  feed=%+.2fV\n",
		s.Velocity, s.Setpoint, s.Leader, s.Follower, s.Feeder)

	fmt.Fprint(r.out, b.String())
}

func (r *LiveRenderer) Start() { fmt.Fprint(r.out, hideCursor) }
func (r *LiveRenderer) Stop()  { fmt.Fprint(r.out, showCursor) }
