// Package recorder holds the evolution observers used by the CLI: console
// progress, fitness statistics, checkpoints, SQLite history and the live
// dashboard.
package recorder

import (
	"context"
	"math"
	"time"

	"github.com/san-kum/coilgun/internal/evolution"
	"github.com/san-kum/coilgun/internal/genome"
	"github.com/san-kum/coilgun/internal/metrics"
)

// Snapshot summarises the generation an engine has just evaluated.
type Snapshot struct {
	Generation     int
	LastGeneration int
	Mean           float64
	Best           float64
	GenerationBest float64
	BestDNA        *genome.DNA
}

// Take reads the current statistics of e. Best is NaN until a finite
// score has been seen.
func Take(ctx context.Context, e *evolution.Engine) (Snapshot, error) {
	mean, err := e.PopulationScore(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	scores := e.Scores()
	values := make([]float64, len(scores))
	for i, s := range scores {
		values[i] = s.Score
	}
	best, bestScore := e.Best()
	if best == nil {
		bestScore = math.NaN()
	}
	return Snapshot{
		Generation:     e.Generation(),
		LastGeneration: e.LastGeneration(),
		Mean:           mean,
		Best:           bestScore,
		GenerationBest: metrics.Best(values),
		BestDNA:        best,
	}, nil
}

// clock tracks elapsed time from Setup and estimates the remainder.
type clock struct {
	start    time.Time
	startGen int
	now      func() time.Time
}

func (c *clock) reset(gen int) {
	if c.now == nil {
		c.now = time.Now
	}
	c.start = c.now()
	c.startGen = gen
}

func (c *clock) elapsed() time.Duration {
	if c.now == nil {
		return 0
	}
	return c.now().Sub(c.start)
}

// remaining extrapolates the mean generation time. It is zero before the
// first generation completes.
func (c *clock) remaining(gen, last int) time.Duration {
	done := gen - c.startGen
	if done <= 0 || gen >= last {
		return 0
	}
	per := c.elapsed() / time.Duration(done)
	return per * time.Duration(last-gen)
}
