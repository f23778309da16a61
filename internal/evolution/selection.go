package evolution

import (
	"math"
	"math/rand"

	"github.com/san-kum/coilgun/internal/genome"
)

// Scored pairs a genome with its fitness.
type Scored struct {
	DNA   *genome.DNA
	Score float64
}

// Selector picks one parent from a scored generation.
type Selector interface {
	Select(rng *rand.Rand, scored []Scored) (*genome.DNA, error)
}

// Versus is a tournament of two: it draws two distinct members uniformly
// without replacement and returns the fitter one. On an exact tie the first
// drawn wins, and NaN never beats a number.
type Versus struct{}

func (Versus) Select(rng *rand.Rand, scored []Scored) (*genome.DNA, error) {
	n := len(scored)
	if n < 2 {
		return nil, ErrTooFewScored
	}
	i := rng.Intn(n)
	j := rng.Intn(n - 1)
	if j >= i {
		j++
	}
	if Beats(scored[j].Score, scored[i].Score) {
		return scored[j].DNA, nil
	}
	return scored[i].DNA, nil
}

// Beats reports whether score a is strictly better than b. NaN is worse
// than any number and ties are never an improvement.
func Beats(a, b float64) bool {
	if math.IsNaN(a) {
		return false
	}
	if math.IsNaN(b) {
		return true
	}
	return a > b
}
