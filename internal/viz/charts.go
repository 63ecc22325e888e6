package viz

import (
	"bufio"
	"fmt"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
	"gonum.org/v1/plot/vg/vgsvg"

	"github.com/san-kum/flywheel/internal/characterize"
	"github.com/san-kum/flywheel/internal/dynamo"
)

var (
	setpointColor = color.RGBA{R: 200, G: 40, B: 160, A: 255}
	velocityColor = color.RGBA{R: 20, G: 120, B: 200, A: 255}
	feederColor   = color.RGBA{R: 60, G: 160, B: 60, A: 255}
)

func stylePlot(p *plot.Plot) {
	p.Title.TextStyle.Font.Size = vg.Points(16)
	p.Title.Padding = vg.Points(8)
	p.X.Label.TextStyle.Font.Size = vg.Points(12)
	p.Y.Label.TextStyle.Font.Size = vg.Points(12)
	p.X.Tick.Label.Font.Size = vg.Points(10)
	p.Y.Tick.Label.Font.Size = vg.Points(10)
	p.Legend.Top = true
	p.Add(plotter.NewGrid())
}

// saveChart writes p as SVG when filename ends in .svg and as PNG otherwise.
func saveChart(p *plot.Plot, widthIn, heightIn float64, filename string) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return fmt.Errorf("cannot create directory: %w", err)
	}
	w := vg.Length(widthIn) * vg.Inch
	h := vg.Length(heightIn) * vg.Inch

	var (
		c  draw.Canvas
		to io.WriterTo
	)
	if strings.EqualFold(filepath.Ext(filename), ".svg") {
		sc := vgsvg.New(w, h)
		c, to = draw.New(sc), sc
	} else {
		ic := vgimg.NewWith(
			vgimg.UseWH(w, h),
			vgimg.UseDPI(150),
		)
		c, to = draw.New(ic), vgimg.PngCanvas{Canvas: ic}
	}
	p.Draw(c)

	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("cannot create chart: %w", err)
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	if _, err := to.WriteTo(bw); err != nil {
		return fmt.Errorf("cannot write chart: %w", err)
	}
	return bw.Flush()
}

func addLine(p *plot.Plot, name string, pts plotter.XYs, c color.Color) error {
	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	line.LineStyle.Width = vg.Points(1.5)
	line.LineStyle.Color = c
	p.Add(line)
	p.Legend.Add(name, line)
	return nil
}

// SaveTraceChart draws setpoint, velocity and feeder output over a shot.
func SaveTraceChart(filename, title string, snaps []dynamo.Snapshot) error {
	if len(snaps) == 0 {
		return fmt.Errorf("plot data invalid")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "time (s)"
	p.Y.Label.Text = "rad/s"
	stylePlot(p)

	setpoint := make(plotter.XYs, len(snaps))
	velocity := make(plotter.XYs, len(snaps))
	feeder := make(plotter.XYs, len(snaps))
	peak := 0.0
	for _, s := range snaps {
		peak = math.Max(peak, math.Max(math.Abs(s.Setpoint), math.Abs(s.Velocity)))
	}
	for i, s := range snaps {
		t := s.Seconds()
		setpoint[i] = plotter.XY{X: t, Y: s.Setpoint}
		velocity[i] = plotter.XY{X: t, Y: s.Velocity}
		// feeder volts scaled onto the velocity axis
		feeder[i] = plotter.XY{X: t, Y: s.Feeder / 12 * peak}
	}

	if err := addLine(p, "setpoint", setpoint, setpointColor); err != nil {
		return err
	}
	if err := addLine(p, "velocity", velocity, velocityColor); err != nil {
		return err
	}
	if err := addLine(p, "feeder (scaled)", feeder, feederColor); err != nil {
		return err
	}
	return saveChart(p, 8.0, 5.0, filename)
}

// SaveSamplesChart scatters voltage against velocity for one or more logs. A
// non-nil fit adds its steady-state line V = Ks*sign(w) + Kv*w.
func SaveSamplesChart(filename, title string, logs []*characterize.Log, fit *characterize.FitResult) error {
	if len(logs) == 0 {
		return fmt.Errorf("plot data invalid")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "velocity (rad/s)"
	p.Y.Label.Text = "voltage (V)"
	stylePlot(p)

	palette := []color.Color{velocityColor, setpointColor, feederColor}
	for i, l := range logs {
		samples := l.Samples()
		pts := make(plotter.XYs, len(samples))
		for j, s := range samples {
			pts[j] = plotter.XY{X: s.Velocity, Y: s.Voltage}
		}
		sc, err := plotter.NewScatter(pts)
		if err != nil {
			return err
		}
		sc.GlyphStyle.Radius = vg.Points(1)
		sc.GlyphStyle.Color = palette[i%len(palette)]
		p.Add(sc)
		p.Legend.Add(fmt.Sprintf("%s %s %s", l.Actuator, l.Mode, l.Direction), sc)
	}

	if fit != nil {
		f := plotter.NewFunction(func(w float64) float64 {
			return fit.Ks*sign(w) + fit.Kv*w
		})
		f.LineStyle.Width = vg.Points(1.5)
		f.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
		p.Add(f)
		p.Legend.Add(fmt.Sprintf("fit ks=%.3f kv=%.4f", fit.Ks, fit.Kv), f)
	}
	return saveChart(p, 8.0, 6.0, filename)
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
