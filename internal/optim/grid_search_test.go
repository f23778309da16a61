package optim

import (
	"context"
	"errors"
	"math"
	"testing"

	. "github.com/onsi/gomega"

	"github.com/san-kum/coilgun/internal/genome"
)

// peak scores highest at x=2, y=-1; negative x is not simulable.
func peak(_ context.Context, dna *genome.DNA) (float64, error) {
	x, _ := dna.Get("x")
	y, _ := dna.Get("y")
	if x < 0 {
		return math.NaN(), nil
	}
	return -(x-2)*(x-2) - (y+1)*(y+1), nil
}

func TestGridSearchFindsMaximum(t *testing.T) {
	g := NewWithT(t)
	base := genome.New(map[string]float64{"x": 0, "y": 0, "z": 7})

	gs := NewGridSearch([]string{"x", "y"}, [][]float64{{-1, 0, 1, 2, 3}, {-2, -1, 0}})
	g.Expect(gs.Size()).To(Equal(15))

	best, score, err := gs.Search(context.Background(), base, peak)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(score).To(BeNumerically("==", 0))
	g.Expect(best.Genes()).To(Equal(map[string]float64{"x": 2, "y": -1, "z": 7}))

	x, _ := base.Get("x")
	g.Expect(x).To(BeZero(), "base genome must not be modified")
}

func TestGridSearchAllNaN(t *testing.T) {
	g := NewWithT(t)
	base := genome.New(map[string]float64{"x": 0, "y": 0})

	best, score, err := NewGridSearch([]string{"x"}, [][]float64{{-3, -2}}).Search(context.Background(), base, peak)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(best).To(BeNil())
	g.Expect(math.IsNaN(score)).To(BeTrue())
}

func TestGridSearchErrors(t *testing.T) {
	g := NewWithT(t)
	base := genome.New(map[string]float64{"x": 0})
	ctx := context.Background()

	_, _, err := NewGridSearch([]string{"w"}, [][]float64{{1}}).Search(ctx, base, peak)
	g.Expect(errors.Is(err, genome.ErrMissingParameter)).To(BeTrue())

	_, _, err = NewGridSearch([]string{"x"}, [][]float64{{}}).Search(ctx, base, peak)
	g.Expect(err).To(MatchError(ErrEmptyGrid))

	_, _, err = NewGridSearch([]string{"x"}, nil).Search(ctx, base, peak)
	g.Expect(err).To(HaveOccurred())

	boom := errors.New("boom")
	_, _, err = NewGridSearch([]string{"x"}, [][]float64{{1, 2}}).Search(ctx, base,
		func(context.Context, *genome.DNA) (float64, error) { return 0, boom })
	g.Expect(err).To(MatchError(boom))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, _, err = NewGridSearch([]string{"x"}, [][]float64{{1, 2}}).Search(cancelled, base, peak)
	g.Expect(err).To(MatchError(context.Canceled))
}
