package recorder

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/san-kum/coilgun/internal/evolution"
)

var (
	genStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	barStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
)

// Progress prints one line per generation.
type Progress struct {
	Out      io.Writer
	BarWidth int

	clock clock
}

func NewProgress(out io.Writer) *Progress {
	return &Progress{Out: out, BarWidth: 20}
}

func (p *Progress) out() io.Writer {
	if p.Out == nil {
		return os.Stdout
	}
	return p.Out
}

func (p *Progress) Setup(ctx context.Context, e *evolution.Engine) error {
	p.clock.reset(e.Generation())
	fmt.Fprintf(p.out(), "%s population %s, generations %d..%d\n",
		genStyle.Render("evolve"), humanize.Comma(int64(e.Size())), e.Generation(), e.LastGeneration())
	return nil
}

func (p *Progress) Record(ctx context.Context, e *evolution.Engine) error {
	snap, err := Take(ctx, e)
	if err != nil {
		return err
	}
	fmt.Fprintln(p.out(), p.line(snap))
	return nil
}

func (p *Progress) line(snap Snapshot) string {
	total := snap.LastGeneration - p.clock.startGen
	fraction := 1.0
	if total > 0 {
		fraction = float64(snap.Generation-p.clock.startGen) / float64(total)
	}
	return fmt.Sprintf("%s %s %s %s %s %s %s %s",
		genStyle.Render(fmt.Sprintf("gen %*d/%d", len(fmt.Sprint(snap.LastGeneration)), snap.Generation, snap.LastGeneration)),
		barStyle.Render(bar(fraction, p.BarWidth)),
		labelStyle.Render("avg"), valueStyle.Render(formatScore(snap.Mean)),
		labelStyle.Render("best"), valueStyle.Render(formatScore(snap.Best)),
		labelStyle.Render("elapsed"), valueStyle.Render(p.timing(snap)),
	)
}

func (p *Progress) timing(snap Snapshot) string {
	elapsed := p.clock.elapsed().Round(time.Millisecond).String()
	remaining := p.clock.remaining(snap.Generation, snap.LastGeneration)
	if remaining == 0 {
		return elapsed
	}
	return elapsed + " (done " + humanize.Time(time.Now().Add(remaining)) + ")"
}

func (p *Progress) Summary(ctx context.Context, e *evolution.Engine) error {
	elapsed := p.clock.elapsed().Round(time.Millisecond)
	best, score := e.Best()
	if best == nil {
		fmt.Fprintf(p.out(), "%s no genome produced a finite score in %s\n", genStyle.Render("done"), elapsed)
		return nil
	}
	fmt.Fprintf(p.out(), "%s best score %s after %s\n", genStyle.Render("done"), formatScore(score), elapsed)
	return nil
}

func bar(fraction float64, width int) string {
	if width <= 0 {
		return ""
	}
	filled := int(math.Round(fraction * float64(width)))
	filled = max(0, min(filled, width))
	b := make([]rune, 0, width+2)
	b = append(b, '[')
	for i := 0; i < width; i++ {
		if i < filled {
			b = append(b, '=')
		} else {
			b = append(b, '-')
		}
	}
	return string(append(b, ']'))
}

func formatScore(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.5g", v)
}
