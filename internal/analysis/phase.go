package analysis

import (
	"math"
	"strings"

	"github.com/san-kum/coilgun/internal/coilgun"
)

type Point struct{ X, Y float64 }

// PhasePortrait2D holds data for a 2D phase space plot
type PhasePortrait2D struct {
	XLabel, YLabel string
	Points         []Point
}

// NewPhasePortrait pairs xs and ys up to the shorter length, skipping
// non-finite samples.
func NewPhasePortrait(xs, ys []float64) *PhasePortrait2D {
	n := min(len(xs), len(ys))
	p := &PhasePortrait2D{Points: make([]Point, 0, n)}
	for i := 0; i < n; i++ {
		if !finite(xs[i]) || !finite(ys[i]) {
			continue
		}
		p.Points = append(p.Points, Point{X: xs[i], Y: ys[i]})
	}
	return p
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Series names accepted by TrajectorySeries.
var SeriesNames = []string{"time", "position", "velocity", "current", "current_rate", "voltage"}

// TrajectorySeries returns the named series of a trajectory.
func TrajectorySeries(tr *coilgun.Trajectory, name string) ([]float64, bool) {
	switch name {
	case "time":
		return tr.Time, true
	case "position":
		return tr.Position, true
	case "velocity":
		return tr.Velocity, true
	case "current":
		return tr.Current, true
	case "current_rate":
		return tr.CurrentDerivative, true
	case "voltage":
		return tr.Voltage, true
	}
	return nil, false
}

// FromTrajectory builds the portrait of two named series.
func FromTrajectory(tr *coilgun.Trajectory, x, y string) (*PhasePortrait2D, bool) {
	xs, ok := TrajectorySeries(tr, x)
	if !ok {
		return nil, false
	}
	ys, ok := TrajectorySeries(tr, y)
	if !ok {
		return nil, false
	}
	p := NewPhasePortrait(xs, ys)
	p.XLabel, p.YLabel = x, y
	return p, true
}

// Bounds returns the padded extent of the points.
func (p *PhasePortrait2D) Bounds() (minX, maxX, minY, maxY float64) {
	minX, maxX = p.Points[0].X, p.Points[0].X
	minY, maxY = p.Points[0].Y, p.Points[0].Y
	for _, pt := range p.Points {
		minX = math.Min(minX, pt.X)
		maxX = math.Max(maxX, pt.X)
		minY = math.Min(minY, pt.Y)
		maxY = math.Max(maxY, pt.Y)
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	return minX - rangeX*0.1, maxX + rangeX*0.1, minY - rangeY*0.1, maxY + rangeY*0.1
}

// PhasePortraitToASCII converts phase portrait to ASCII art
func PhasePortraitToASCII(portrait *PhasePortrait2D, width, height int) string {
	if portrait == nil || len(portrait.Points) == 0 || width < 2 || height < 2 {
		return ""
	}

	minX, maxX, minY, maxY := portrait.Bounds()
	rangeX := maxX - minX
	rangeY := maxY - minY

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = make([]rune, width)
		for j := range canvas[i] {
			canvas[i][j] = ' '
		}
	}

	for _, p := range portrait.Points {
		col := int((p.X - minX) / rangeX * float64(width-1))
		row := height - 1 - int((p.Y-minY)/rangeY*float64(height-1))

		if row >= 0 && row < height && col >= 0 && col < width {
			canvas[row][col] = '•'
		}
	}

	// Draw axes if they cross the visible area
	if minX <= 0 && maxX >= 0 {
		col := int((0 - minX) / rangeX * float64(width-1))
		for row := 0; row < height; row++ {
			if col >= 0 && col < width && canvas[row][col] == ' ' {
				canvas[row][col] = '│'
			}
		}
	}
	if minY <= 0 && maxY >= 0 {
		row := height - 1 - int((0-minY)/rangeY*float64(height-1))
		for col := 0; col < width; col++ {
			if row >= 0 && row < height && canvas[row][col] == ' ' {
				canvas[row][col] = '─'
			}
		}
	}

	var sb strings.Builder
	for _, row := range canvas {
		sb.WriteString(string(row))
		sb.WriteRune('\n')
	}
	if portrait.XLabel != "" || portrait.YLabel != "" {
		sb.WriteString(portrait.YLabel + " vs " + portrait.XLabel + "\n")
	}
	return sb.String()
}
