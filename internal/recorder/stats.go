package recorder

import (
	"context"
	"fmt"
	"image/color"
	"io"
	"math"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/coilgun/internal/evolution"
	"github.com/san-kum/coilgun/internal/metrics"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Stats accumulates the average and best-ever fitness of every generation.
type Stats struct {
	// Out receives the summary chart. Nil prints nothing.
	Out io.Writer

	Generations []int
	Means       []float64
	Bests       []float64
}

func NewStats(out io.Writer) *Stats {
	return &Stats{Out: out}
}

func (s *Stats) Setup(ctx context.Context, e *evolution.Engine) error {
	s.Generations, s.Means, s.Bests = nil, nil, nil
	return nil
}

func (s *Stats) Record(ctx context.Context, e *evolution.Engine) error {
	snap, err := Take(ctx, e)
	if err != nil {
		return err
	}
	s.Add(snap.Generation, snap.Mean, snap.Best)
	return nil
}

func (s *Stats) Add(generation int, mean, best float64) {
	s.Generations = append(s.Generations, generation)
	s.Means = append(s.Means, mean)
	s.Bests = append(s.Bests, best)
}

func (s *Stats) Summary(ctx context.Context, e *evolution.Engine) error {
	if s.Out == nil {
		return nil
	}
	fmt.Fprint(s.Out, s.Chart(60, 12))
	return nil
}

// Chart renders both series with asciigraph. NaN values are skipped.
func (s *Stats) Chart(width, height int) string {
	means, bests := metrics.Finite(s.Means), metrics.Finite(s.Bests)
	if len(means) == 0 && len(bests) == 0 {
		return "no finite fitness recorded\n"
	}
	var out string
	if len(means) > 0 {
		out += asciigraph.Plot(means, asciigraph.Height(height), asciigraph.Width(width), asciigraph.Caption("average fitness")) + "\n\n"
	}
	if len(bests) > 0 {
		out += asciigraph.Plot(bests, asciigraph.Height(height), asciigraph.Width(width), asciigraph.Caption("best-ever fitness")) + "\n"
	}
	return out
}

func points(gens []int, values []float64) plotter.XYs {
	pts := make(plotter.XYs, 0, len(values))
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		pts = append(pts, plotter.XY{X: float64(gens[i]), Y: v})
	}
	return pts
}

// SavePlot writes a PNG (or any format gonum/plot infers from the
// extension) with the average and best-ever fitness per generation.
func (s *Stats) SavePlot(path string) error {
	p := plot.New()
	p.Title.Text = "Coilgun evolution"
	p.X.Label.Text = "Generation"
	p.Y.Label.Text = "Fitness"
	p.Add(plotter.NewGrid())

	for _, series := range []struct {
		name   string
		values []float64
		color  color.Color
	}{
		{"average", s.Means, color.RGBA{R: 0, G: 120, B: 200, A: 255}},
		{"best", s.Bests, color.RGBA{R: 220, G: 90, B: 30, A: 255}},
	} {
		pts := points(s.Generations, series.values)
		if len(pts) == 0 {
			continue
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return err
		}
		line.Color = series.color
		line.Width = vg.Points(1.5)
		p.Add(line)
		p.Legend.Add(series.name, line)
	}
	p.Legend.Top = true
	p.Legend.Left = true

	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("save plot: %w", err)
	}
	return nil
}
