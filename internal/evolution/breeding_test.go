package evolution_test

import (
	"math"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/coilgun/internal/evolution"
	"github.com/san-kum/coilgun/internal/genome"
)

// genScore holds three genomes with pairwise disjoint values.
func genScore() []evolution.Scored {
	a := genome.NewTagged(map[string]float64{"p": 1, "q": 2, "r": 3, "s": 4}, map[string]string{"coil_type": "solenoid"})
	b := genome.New(map[string]float64{"p": 11, "q": 12, "r": 13, "s": 14})
	c := genome.New(map[string]float64{"p": 21, "q": 22, "r": 23, "s": 24})
	return []evolution.Scored{{DNA: a, Score: 1}, {DNA: b, Score: 0.5}, {DNA: c, Score: 0}}
}

// fixed always selects the genomes in order.
type fixed struct {
	picks []*genome.DNA
	next  int
}

func (f *fixed) Select(*rand.Rand, []evolution.Scored) (*genome.DNA, error) {
	d := f.picks[f.next%len(f.picks)]
	f.next++
	return d, nil
}

var _ = Describe("Versus", func() {
	It("always returns the better of two genomes", func() {
		good := genome.New(map[string]float64{"x": 1})
		bad := genome.New(map[string]float64{"x": 0})
		scored := []evolution.Scored{{DNA: bad, Score: 0}, {DNA: good, Score: 1}}
		rng := rand.New(rand.NewSource(1))

		for i := 0; i < 1000; i++ {
			winner, err := evolution.Versus{}.Select(rng, scored)
			Expect(err).NotTo(HaveOccurred())
			Expect(winner).To(BeIdenticalTo(good))
		}
	})

	It("prefers a number over NaN", func() {
		num := genome.New(map[string]float64{"x": 1})
		nan := genome.New(map[string]float64{"x": 0})
		scored := []evolution.Scored{{DNA: nan, Score: math.NaN()}, {DNA: num, Score: -5}}
		rng := rand.New(rand.NewSource(2))

		for i := 0; i < 200; i++ {
			winner, err := evolution.Versus{}.Select(rng, scored)
			Expect(err).NotTo(HaveOccurred())
			Expect(winner).To(BeIdenticalTo(num))
		}
	})

	It("never pits a genome against itself", func() {
		scored := genScore()
		rng := rand.New(rand.NewSource(3))
		for i := 0; i < 1000; i++ {
			winner, err := evolution.Versus{}.Select(rng, scored)
			Expect(err).NotTo(HaveOccurred())
			// the worst genome can only win against itself
			Expect(winner).NotTo(BeIdenticalTo(scored[2].DNA))
		}
	})

	It("needs at least two scored genomes", func() {
		_, err := evolution.Versus{}.Select(rand.New(rand.NewSource(1)), genScore()[:1])
		Expect(err).To(MatchError(evolution.ErrTooFewScored))
	})

	It("treats only strict improvements as better", func() {
		Expect(evolution.Beats(1, 0)).To(BeTrue())
		Expect(evolution.Beats(1, 1)).To(BeFalse())
		Expect(evolution.Beats(math.NaN(), 0)).To(BeFalse())
		Expect(evolution.Beats(0, math.NaN())).To(BeTrue())
		Expect(evolution.Beats(math.Inf(-1), math.NaN())).To(BeTrue())
	})
})

var _ = Describe("CrossBreeding", func() {
	It("takes every gene from one of the two parents", func() {
		scored := genScore()
		a, b, c := scored[0].DNA, scored[1].DNA, scored[2].DNA
		breeder := evolution.CrossBreeding{Selector: &fixed{picks: []*genome.DNA{a, b}}}
		rng := rand.New(rand.NewSource(4))

		fromA, fromB := 0, 0
		for i := 0; i < 1000; i++ {
			child, err := breeder.Breed(rng, scored)
			Expect(err).NotTo(HaveOccurred())
			Expect(child.Keys()).To(Equal(a.Keys()))

			for _, k := range child.Keys() {
				v, _ := child.Get(k)
				va, _ := a.Get(k)
				vb, _ := b.Get(k)
				vc, _ := c.Get(k)
				Expect(v).To(Or(Equal(va), Equal(vb)))
				Expect(v).NotTo(Equal(vc))
				if v == va {
					fromA++
				} else {
					fromB++
				}
			}
		}
		Expect(fromA).To(BeNumerically("~", 2000, 200))
		Expect(fromB).To(BeNumerically("~", 2000, 200))
	})

	It("never produces values of a third genome with tournament selection", func() {
		scored := genScore()
		c := scored[2].DNA
		breeder := evolution.CrossBreeding{}
		rng := rand.New(rand.NewSource(5))

		for i := 0; i < 1000; i++ {
			child, err := breeder.Breed(rng, scored)
			Expect(err).NotTo(HaveOccurred())
			for _, k := range child.Keys() {
				v, _ := child.Get(k)
				vc, _ := c.Get(k)
				Expect(v).NotTo(Equal(vc))
			}
		}
	})

	It("inherits tags from the first parent", func() {
		scored := genScore()
		breeder := evolution.CrossBreeding{Selector: &fixed{picks: []*genome.DNA{scored[0].DNA, scored[1].DNA}}}

		child, err := breeder.Breed(rand.New(rand.NewSource(6)), scored)
		Expect(err).NotTo(HaveOccurred())
		tag, ok := child.Tag("coil_type")
		Expect(ok).To(BeTrue())
		Expect(tag).To(Equal("solenoid"))
	})

	It("rejects parents with different parameters", func() {
		a := genome.New(map[string]float64{"p": 1})
		b := genome.New(map[string]float64{"q": 1})
		breeder := evolution.CrossBreeding{Selector: &fixed{picks: []*genome.DNA{a, b}}}

		_, err := breeder.Breed(rand.New(rand.NewSource(7)), nil)
		Expect(err).To(MatchError(evolution.ErrGenomeMismatch))
	})
})
