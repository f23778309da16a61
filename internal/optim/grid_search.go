// Package optim holds exhaustive searches over genome parameters.
package optim

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/coilgun/internal/evolution"
	"github.com/san-kum/coilgun/internal/genome"
)

var ErrEmptyGrid = errors.New("optim: empty grid")

// GridSearch scores every combination of the listed gene values.
type GridSearch struct {
	geneNames []string
	ranges    [][]float64
}

func NewGridSearch(genes []string, ranges [][]float64) *GridSearch {
	return &GridSearch{geneNames: genes, ranges: ranges}
}

// Size is the number of points on the grid.
func (g *GridSearch) Size() int {
	if len(g.geneNames) == 0 {
		return 0
	}
	n := 1
	for _, r := range g.ranges {
		n *= len(r)
	}
	return n
}

// Search returns the highest scoring copy of base. NaN scores never win;
// if every point scores NaN the returned genome is nil and the score NaN.
func (g *GridSearch) Search(ctx context.Context, base *genome.DNA, fit evolution.FitnessFunc) (*genome.DNA, float64, error) {
	if len(g.geneNames) != len(g.ranges) {
		return nil, math.NaN(), fmt.Errorf("optim: %d genes but %d ranges", len(g.geneNames), len(g.ranges))
	}
	if g.Size() == 0 {
		return nil, math.NaN(), ErrEmptyGrid
	}
	for _, name := range g.geneNames {
		if _, ok := base.Get(name); !ok {
			return nil, math.NaN(), fmt.Errorf("%w: %s", genome.ErrMissingParameter, name)
		}
	}

	s := &search{fit: fit, best: math.NaN()}
	if err := g.searchRecursive(ctx, 0, base.Clone(), s); err != nil {
		return nil, math.NaN(), err
	}
	return s.bestDNA, s.best, nil
}

type search struct {
	fit     evolution.FitnessFunc
	best    float64
	bestDNA *genome.DNA
}

func (g *GridSearch) searchRecursive(ctx context.Context, depth int, current *genome.DNA, s *search) error {
	if depth == len(g.geneNames) {
		if err := ctx.Err(); err != nil {
			return err
		}
		score, err := s.fit(ctx, current)
		if err != nil {
			return err
		}
		if evolution.Beats(score, s.best) {
			s.best = score
			s.bestDNA = current.Clone()
		}
		return nil
	}

	name := g.geneNames[depth]
	for _, val := range g.ranges[depth] {
		if err := current.Set(name, val); err != nil {
			return err
		}
		if err := g.searchRecursive(ctx, depth+1, current, s); err != nil {
			return err
		}
	}
	return nil
}
