package viz

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/coilgun/internal/genome"
	"github.com/san-kum/coilgun/internal/metrics"
)

const (
	coilWidth  = 40
	coilHeight = 8
	chartWidth = 50
)

type TickMsg time.Time

// GenerationMsg reports the statistics of one finished generation.
type GenerationMsg struct {
	Generation     int
	LastGeneration int
	Mean           float64
	Best           float64 // best ever
	GenerationBest float64
	BestDNA        *genome.DNA
	Elapsed        time.Duration
}

// DoneMsg ends the run. Err is nil when every generation completed.
type DoneMsg struct {
	Err error
}

type chartKind int

const (
	chartMean chartKind = iota
	chartBest
)

// Dashboard is the bubbletea model of a running evolution.
type Dashboard struct {
	title    string
	theme    Theme
	styles   Styles
	means    []float64
	bests    []float64
	last     GenerationMsg
	started  bool
	done     bool
	err      error
	frame    int
	chart    chartKind
	showHelp bool
}

func NewDashboard(title string, theme Theme) Dashboard {
	return Dashboard{
		title:  title,
		theme:  theme,
		styles: NewStyles(theme),
	}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/10, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Dashboard) Init() tea.Cmd {
	return tick()
}

func (m Dashboard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "tab":
			m.chart = (m.chart + 1) % 2
		case "t":
			m.theme = NextTheme(m.theme)
			m.styles = NewStyles(m.theme)
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.done {
			return m, nil
		}
		m.frame++
		return m, tick()
	case GenerationMsg:
		m.started = true
		m.last = msg
		m.means = append(m.means, msg.Mean)
		m.bests = append(m.bests, msg.Best)
	case DoneMsg:
		m.done = true
		m.err = msg.Err
	}
	return m, nil
}

// History returns the recorded mean and best-ever fitness per generation.
func (m Dashboard) History() (means, bests []float64) {
	return m.means, m.bests
}

func (m Dashboard) Done() bool { return m.done }

func (m Dashboard) status() string {
	switch {
	case m.err != nil:
		return m.styles.Failed.Render("FAILED: " + m.err.Error())
	case m.done:
		return m.styles.Finished.Render("FINISHED")
	case !m.started:
		return m.styles.Running.Render(AnimatedSpinner(m.frame) + " EVALUATING INITIAL POPULATION")
	default:
		return m.styles.Running.Render(AnimatedSpinner(m.frame) + " EVOLVING")
	}
}

func (m Dashboard) View() string {
	s := m.styles
	var b strings.Builder
	b.WriteString(s.Title.Render(strings.ToUpper(m.title)) + "\n")
	b.WriteString(m.status() + "\n\n")

	total := m.last.LastGeneration + 1
	fraction := 0.0
	if total > 0 && m.started {
		fraction = float64(m.last.Generation+1) / float64(total)
	}
	b.WriteString(s.MetricLabel.Render("Generation") +
		s.MetricValue.Render(fmt.Sprintf("%d/%d", m.last.Generation, m.last.LastGeneration)) + "\n")
	b.WriteString(s.ProgressBar(fraction, 30) + "\n\n")
	b.WriteString(s.MetricLabel.Render("Average") + s.MetricValue.Render(formatScore(m.last.Mean)) + "\n")
	b.WriteString(s.MetricLabel.Render("Best ever") + s.MetricValue.Render(formatScore(m.last.Best)) + "\n")
	b.WriteString(s.MetricLabel.Render("Gen best") + s.MetricValue.Render(formatScore(m.last.GenerationBest)) + "\n")
	b.WriteString(s.MetricLabel.Render("Elapsed") + s.MetricValue.Render(m.last.Elapsed.Round(time.Second).String()) + "\n")
	b.WriteString(s.MetricLabel.Render("Trend") + s.Sparkline(metrics.Finite(m.means), 20) + "\n")

	series, caption := m.means, "average fitness"
	if m.chart == chartBest {
		series, caption = m.bests, "best-ever fitness"
	}
	if finite := metrics.Finite(series); len(finite) > 1 {
		chart := asciigraph.Plot(finite, asciigraph.Height(8), asciigraph.Width(chartWidth), asciigraph.Caption(caption))
		b.WriteString(s.Graph.Render(chart) + "\n")
	}
	left := s.Panel.Render(b.String())

	right := s.Panel.Render(m.bestView())
	main := lipgloss.JoinHorizontal(lipgloss.Top, left, right)

	help := s.KeyHint.Render("Tab:Chart T:Theme(" + m.theme.Name + ") ?:Help Q:Quit")
	if m.showHelp {
		help = s.KeyHint.Render(`Tab  switch between average and best-ever chart
T    cycle color themes
?    toggle this help
Q    leave the dashboard`)
	}
	return main + "\n" + help + "\n"
}

func (m Dashboard) bestView() string {
	s := m.styles
	var b strings.Builder
	b.WriteString(s.Header.Render("BEST DESIGN") + "\n")
	if m.last.BestDNA == nil {
		b.WriteString(s.Subtle.Render("(none yet)") + "\n")
		return b.String()
	}
	if view, ok := CoilViewFromDNA(m.last.BestDNA); ok {
		b.WriteString(view.Render(coilWidth, coilHeight))
		b.WriteString(s.Separator(coilWidth) + "\n")
	}
	for _, k := range m.last.BestDNA.Keys() {
		v, _ := m.last.BestDNA.Get(k)
		b.WriteString(s.Subtle.Render(fmt.Sprintf("%-26s", k)) + s.MetricValue.Render(fmt.Sprintf("%.5g", v)) + "\n")
	}
	return b.String()
}

func formatScore(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.5g", v)
}
