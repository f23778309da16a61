package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Styles are the lipgloss styles of one theme.
type Styles struct {
	Panel       lipgloss.Style
	Title       lipgloss.Style
	Header      lipgloss.Style
	MetricLabel lipgloss.Style
	MetricValue lipgloss.Style
	Subtle      lipgloss.Style
	KeyHint     lipgloss.Style
	Graph       lipgloss.Style
	Running     lipgloss.Style
	Finished    lipgloss.Style
	Failed      lipgloss.Style
	SparkHigh   lipgloss.Style
	SparkMid    lipgloss.Style
	SparkLow    lipgloss.Style
}

func NewStyles(t Theme) Styles {
	return Styles{
		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Muted).
			Padding(1, 2),
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(t.Primary),
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(t.Text).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(t.Muted),
		MetricLabel: lipgloss.NewStyle().Foreground(t.Muted).Width(14),
		MetricValue: lipgloss.NewStyle().Foreground(t.Secondary).Bold(true),
		Subtle:      lipgloss.NewStyle().Foreground(t.Muted),
		KeyHint:     lipgloss.NewStyle().Foreground(t.Muted).Italic(true),
		Graph:       lipgloss.NewStyle().Foreground(t.Secondary).Padding(1, 0),
		Running:     lipgloss.NewStyle().Bold(true).Foreground(t.Success),
		Finished:    lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Failed:      lipgloss.NewStyle().Bold(true).Foreground(t.Error),
		SparkHigh:   lipgloss.NewStyle().Foreground(t.Success),
		SparkMid:    lipgloss.NewStyle().Foreground(t.Warning),
		SparkLow:    lipgloss.NewStyle().Foreground(t.Error),
	}
}

// DefaultStyles are the styles of the copper theme.
var DefaultStyles = NewStyles(ThemeCopper)

// AnimatedSpinner returns frame of animated spinner
func AnimatedSpinner(frame int) string {
	spinners := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	return spinners[frame%len(spinners)]
}

// ProgressBar renders a bar of the given width, colored by completion.
func (s Styles) ProgressBar(fraction float64, width int) string {
	filled := int(fraction * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)

	if fraction > 0.8 {
		return s.SparkHigh.Render(bar)
	} else if fraction > 0.4 {
		return s.SparkMid.Render(bar)
	}
	return s.SparkLow.Render(bar)
}

// Sparkline renders a mini chart of the last width values.
func (s Styles) Sparkline(values []float64, width int) string {
	if len(values) == 0 {
		return strings.Repeat("─", width)
	}
	if len(values) > width {
		values = values[len(values)-width:]
	}

	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	min, max := values[0], values[0]
	for _, v := range values {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	span := max - min
	if span == 0 {
		span = 1
	}

	var b strings.Builder
	for _, v := range values {
		norm := (v - min) / span
		idx := int(norm * float64(len(chars)-1))
		if idx < 0 || idx >= len(chars) {
			idx = 0
		}
		c := string(chars[idx])
		switch {
		case norm > 0.7:
			b.WriteString(s.SparkHigh.Render(c))
		case norm > 0.3:
			b.WriteString(s.SparkMid.Render(c))
		default:
			b.WriteString(s.SparkLow.Render(c))
		}
	}
	return b.String()
}

// Separator is a muted horizontal rule.
func (s Styles) Separator(width int) string {
	mid := width / 2
	left := strings.Repeat("─", max(mid-3, 0))
	right := strings.Repeat("─", max(width-mid-3, 0))
	return s.Subtle.Render(left + " ◆ " + right)
}
