package evolution

import (
	"fmt"
	"math/rand"

	"github.com/san-kum/coilgun/internal/genome"
)

// Breeder produces one offspring per call from a scored generation.
type Breeder interface {
	Breed(rng *rand.Rand, scored []Scored) (*genome.DNA, error)
}

// CrossBreeding is uniform crossover: two parents are selected
// independently (they may be the same genome) and the child takes each
// gene from either parent with equal probability. Tags come from the
// first parent.
type CrossBreeding struct {
	Selector Selector
}

func (c CrossBreeding) Breed(rng *rand.Rand, scored []Scored) (*genome.DNA, error) {
	sel := c.Selector
	if sel == nil {
		sel = Versus{}
	}

	a, err := sel.Select(rng, scored)
	if err != nil {
		return nil, err
	}
	b, err := sel.Select(rng, scored)
	if err != nil {
		return nil, err
	}
	if !a.SameKeys(b) {
		return nil, fmt.Errorf("%w: %v vs %v", ErrGenomeMismatch, a.Keys(), b.Keys())
	}

	keys := a.Keys()
	genes := make(map[string]float64, len(keys))
	for _, k := range keys {
		parent := b
		if rng.Float64() < 0.5 {
			parent = a
		}
		genes[k], _ = parent.Get(k)
	}
	return genome.NewTagged(genes, a.Tags()), nil
}
