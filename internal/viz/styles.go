package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func panelStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(CurrentTheme.Muted).
		Padding(0, 1)
}

func titleStyle() lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(CurrentTheme.Primary)
}

func labelStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(CurrentTheme.Muted).Width(20)
}

func valueStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(CurrentTheme.Text)
}

func selectedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(CurrentTheme.Accent)
}

func hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(CurrentTheme.Muted).Italic(true)
}

// phaseStyle colors a sequencer phase label.
func phaseStyle(phase string) lipgloss.Style {
	s := lipgloss.NewStyle().Bold(true)
	switch phase {
	case "SpinningUp", "Characterizing":
		return s.Foreground(CurrentTheme.Warning)
	case "Feeding", "Done":
		return s.Foreground(CurrentTheme.Success)
	}
	return s.Foreground(CurrentTheme.Muted)
}

// ProgressBar renders how far value has come towards target. Inside the
// tolerance band the bar turns to the success color.
func ProgressBar(value, target, tolerance float64, width int) string {
	percent := 0.0
	if target != 0 {
		percent = value / target
	}
	filled := int(percent * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)

	style := lipgloss.NewStyle().Foreground(CurrentTheme.Error)
	switch {
	case target != 0 && absFloat(target-value) <= tolerance:
		style = style.Foreground(CurrentTheme.Success)
	case percent > 0.5:
		style = style.Foreground(CurrentTheme.Warning)
	}
	return style.Render(bar)
}

// SparklineChart renders a mini sparkline from values
func SparklineChart(values []float64, width int) string {
	if len(values) == 0 {
		return strings.Repeat("─", width)
	}

	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	rng := hi - lo
	if rng == 0 {
		rng = 1
	}

	// newest values win when there are more than fit
	if len(values) > width {
		values = values[len(values)-width:]
	}

	var result strings.Builder
	for _, v := range values {
		idx := int((v - lo) / rng * float64(len(chars)-1))
		idx = max(0, min(idx, len(chars)-1))
		result.WriteRune(chars[idx])
	}
	return result.String()
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
