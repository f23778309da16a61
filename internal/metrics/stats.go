package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Finite drops NaN and infinite scores.
func Finite(scores []float64) []float64 {
	out := make([]float64, 0, len(scores))
	for _, s := range scores {
		if !math.IsNaN(s) && !math.IsInf(s, 0) {
			out = append(out, s)
		}
	}
	return out
}

// Mean is the arithmetic mean of the scores. A NaN score makes the mean
// NaN; an empty slice has mean zero.
func Mean(scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	return stat.Mean(scores, nil)
}

// Best is the largest non-NaN score, or NaN when there is none.
func Best(scores []float64) float64 {
	valid := make([]float64, 0, len(scores))
	for _, s := range scores {
		if !math.IsNaN(s) {
			valid = append(valid, s)
		}
	}
	if len(valid) == 0 {
		return math.NaN()
	}
	return floats.Max(valid)
}

// Spread is the population standard deviation of the finite scores.
func Spread(scores []float64) float64 {
	f := Finite(scores)
	if len(f) < 2 {
		return 0
	}
	_, std := stat.PopMeanStdDev(f, nil)
	return std
}
