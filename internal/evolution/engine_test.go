package evolution_test

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/coilgun/internal/evolution"
	"github.com/san-kum/coilgun/internal/genome"
)

func uniformPopulation(rng *rand.Rand, rules genome.Rules, n int) []*genome.DNA {
	pop := make([]*genome.DNA, n)
	for i := range pop {
		pop[i] = genome.New(map[string]float64{"x": 0})
		Expect(pop[i].Randomize(rules, rng)).To(Succeed())
	}
	return pop
}

func geneX(_ context.Context, dna *genome.DNA) (float64, error) {
	v, _ := dna.Get("x")
	return v, nil
}

// scripted returns the given scores by genome value of "id".
func scripted(scores map[float64]float64) evolution.FitnessFunc {
	return func(_ context.Context, dna *genome.DNA) (float64, error) {
		id, _ := dna.Get("id")
		return scores[id], nil
	}
}

func idPopulation(ids ...float64) []*genome.DNA {
	pop := make([]*genome.DNA, len(ids))
	for i, id := range ids {
		pop[i] = genome.New(map[string]float64{"id": id})
	}
	return pop
}

var noRules = genome.Rules{}

var _ = Describe("Engine", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	Describe("construction", func() {
		It("rejects populations smaller than two", func() {
			_, err := evolution.New(idPopulation(1), evolution.Config{Fitness: geneX, Rules: noRules})
			Expect(err).To(MatchError(evolution.ErrPopulationTooSmall))
		})

		It("rejects mixed key sets", func() {
			pop := []*genome.DNA{
				genome.New(map[string]float64{"a": 1}),
				genome.New(map[string]float64{"b": 1}),
			}
			_, err := evolution.New(pop, evolution.Config{Fitness: geneX, Rules: noRules})
			Expect(err).To(MatchError(evolution.ErrGenomeMismatch))
		})

		It("rejects rules for parameters the genomes lack", func() {
			rules := genome.NewRules(map[string]*genome.Rule{"y": genome.NewRule(0, 1, 1)})
			_, err := evolution.New(idPopulation(1, 2), evolution.Config{Fitness: geneX, Rules: rules})
			Expect(err).To(MatchError(genome.ErrMissingParameter))
		})

		It("rejects uninitialized rules", func() {
			rules := genome.Rules{"id": &genome.Rule{}}
			_, err := evolution.New(idPopulation(1, 2), evolution.Config{Fitness: geneX, Rules: rules})
			Expect(err).To(MatchError(genome.ErrUninitializedRule))
		})

		It("starts idle at generation zero", func() {
			e, err := evolution.New(idPopulation(1, 2), evolution.Config{LastGeneration: 3, Fitness: geneX, Rules: noRules})
			Expect(err).NotTo(HaveOccurred())
			Expect(e.Phase()).To(Equal(evolution.Idle))
			Expect(e.Generation()).To(Equal(0))
			Expect(e.Size()).To(Equal(2))
			best, score := e.Best()
			Expect(best).To(BeNil())
			Expect(math.IsInf(score, -1)).To(BeTrue())
		})
	})

	Describe("best-ever tracking", func() {
		It("keeps the earliest genome on ties", func() {
			e, err := evolution.New(idPopulation(1, 2, 3), evolution.Config{
				LastGeneration: 5,
				Fitness:        scripted(map[float64]float64{1: 0.5, 2: 0.5, 3: 0.1}),
				Rules:          noRules,
			}, evolution.WithSeed(1))
			Expect(err).NotTo(HaveOccurred())

			_, err = e.Evaluate(ctx)
			Expect(err).NotTo(HaveOccurred())
			best, score := e.Best()
			Expect(score).To(Equal(0.5))
			id, _ := best.Get("id")
			Expect(id).To(Equal(1.0))
			Expect(e.Generation()).To(Equal(1))
		})

		It("never replaces the best with NaN", func() {
			calls := 0
			fitness := func(_ context.Context, dna *genome.DNA) (float64, error) {
				calls++
				if calls <= 2 {
					return 0.3, nil
				}
				return math.NaN(), nil
			}
			e, err := evolution.New(idPopulation(1, 2), evolution.Config{LastGeneration: 5, Fitness: fitness, Rules: noRules})
			Expect(err).NotTo(HaveOccurred())

			_, err = e.Evaluate(ctx)
			Expect(err).NotTo(HaveOccurred())
			_, err = e.Evaluate(ctx)
			Expect(err).NotTo(HaveOccurred())

			_, score := e.Best()
			Expect(score).To(Equal(0.3))
			Expect(e.Generation()).To(Equal(2))
		})

		It("stores a copy that later mutation cannot change", func() {
			rules := genome.NewRules(map[string]*genome.Rule{"id": genome.NewRule(10, 20, 1)})
			e, err := evolution.New(idPopulation(1, 2), evolution.Config{
				LastGeneration: 1,
				Fitness:        scripted(map[float64]float64{1: 1, 2: 0}),
				Rules:          rules,
			}, evolution.WithSeed(3))
			Expect(err).NotTo(HaveOccurred())

			Expect(e.Advance(ctx)).To(Succeed())
			best, _ := e.Best()
			id, _ := best.Get("id")
			Expect(id).To(Equal(1.0))
		})
	})

	Describe("population score", func() {
		It("scores lazily without counting a generation", func() {
			e, err := evolution.New(idPopulation(1, 2, 3), evolution.Config{
				LastGeneration: 5,
				Fitness:        scripted(map[float64]float64{1: 0.1, 2: 0.2, 3: 0.6}),
				Rules:          noRules,
			})
			Expect(err).NotTo(HaveOccurred())

			score, err := e.PopulationScore(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(score).To(BeNumerically("~", 0.3, 1e-12))
			Expect(e.Generation()).To(Equal(0))
		})

		It("ignores NaN scores in the mean", func() {
			e, err := evolution.New(idPopulation(1, 2, 3), evolution.Config{
				LastGeneration: 5,
				Fitness:        scripted(map[float64]float64{1: 0.2, 2: math.NaN(), 3: 0.4}),
				Rules:          noRules,
			})
			Expect(err).NotTo(HaveOccurred())

			_, err = e.Evaluate(ctx)
			Expect(err).NotTo(HaveOccurred())
			score, err := e.PopulationScore(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(score).To(BeNumerically("~", 0.3, 1e-12))
		})
	})

	Describe("run", func() {
		It("improves a population maximising a uniform gene", func() {
			rng := rand.New(rand.NewSource(1234))
			rules := genome.NewRules(map[string]*genome.Rule{"x": genome.NewRule(0, 1, 0.01)})
			pop := uniformPopulation(rng, rules, 100)

			e, err := evolution.New(pop, evolution.Config{
				LastGeneration: 100,
				Fitness:        geneX,
				Rules:          rules,
			}, evolution.WithRand(rng))
			Expect(err).NotTo(HaveOccurred())

			before, err := e.PopulationScore(ctx)
			Expect(err).NotTo(HaveOccurred())

			Expect(e.Run(ctx)).To(Succeed())
			after, err := e.PopulationScore(ctx)
			Expect(err).NotTo(HaveOccurred())

			Expect(after).To(BeNumerically(">", before))
			Expect(e.Generation()).To(Equal(100))
			Expect(e.Phase()).To(Equal(evolution.Done))
			Expect(e.Population()).To(HaveLen(100))
		})

		It("is reproducible with a fixed seed", func() {
			run := func() float64 {
				rng := rand.New(rand.NewSource(99))
				rules := genome.NewRules(map[string]*genome.Rule{"x": genome.NewRule(0, 1, 0.1)})
				e, err := evolution.New(uniformPopulation(rng, rules, 20), evolution.Config{
					LastGeneration: 10,
					Fitness:        geneX,
					Rules:          rules,
				}, evolution.WithRand(rng), evolution.WithWorkers(4))
				Expect(err).NotTo(HaveOccurred())
				Expect(e.Run(ctx)).To(Succeed())
				score, err := e.PopulationScore(ctx)
				Expect(err).NotTo(HaveOccurred())
				return score
			}
			Expect(run()).To(Equal(run()))
		})

		It("calls every recorder at each hook in order", func() {
			var calls []string
			hook := func(name string) func(context.Context, *evolution.Engine) error {
				return func(_ context.Context, e *evolution.Engine) error {
					calls = append(calls, name)
					return nil
				}
			}
			first := evolution.RecorderFuncs{SetupFunc: hook("setup-1"), RecordFunc: hook("record-1"), SummaryFunc: hook("summary-1")}
			second := evolution.RecorderFuncs{SetupFunc: hook("setup-2"), RecordFunc: hook("record-2")}

			e, err := evolution.New(idPopulation(1, 2), evolution.Config{LastGeneration: 2, Fitness: geneX, Rules: noRules},
				evolution.WithRecorders(first, second), evolution.WithSeed(5))
			Expect(err).NotTo(HaveOccurred())
			Expect(e.Run(ctx)).To(Succeed())

			Expect(calls).To(Equal([]string{
				"setup-1", "setup-2",
				"record-1", "record-2",
				"record-1", "record-2",
				"summary-1",
			}))
		})

		It("aborts on a recorder error", func() {
			boom := errors.New("boom")
			rec := evolution.RecorderFuncs{RecordFunc: func(context.Context, *evolution.Engine) error { return boom }}

			e, err := evolution.New(idPopulation(1, 2), evolution.Config{LastGeneration: 3, Fitness: geneX, Rules: noRules},
				evolution.WithRecorders(rec))
			Expect(err).NotTo(HaveOccurred())
			Expect(e.Run(ctx)).To(MatchError(boom))
			Expect(e.Generation()).To(Equal(1))
		})

		It("resumes from a start generation", func() {
			e, err := evolution.New(idPopulation(1, 2), evolution.Config{LastGeneration: 4, Fitness: geneX, Rules: noRules},
				evolution.WithStartGeneration(3))
			Expect(err).NotTo(HaveOccurred())
			Expect(e.Run(ctx)).To(Succeed())
			Expect(e.Generation()).To(Equal(4))
		})

		It("propagates fitness errors", func() {
			boom := errors.New("decode failed")
			fitness := func(context.Context, *genome.DNA) (float64, error) { return 0, boom }

			e, err := evolution.New(idPopulation(1, 2), evolution.Config{LastGeneration: 3, Fitness: fitness, Rules: noRules})
			Expect(err).NotTo(HaveOccurred())
			Expect(e.Run(ctx)).To(MatchError(boom))
			Expect(e.Generation()).To(Equal(0))
		})
	})

	Describe("evaluators", func() {
		It("agree between sequential and pooled evaluation", func() {
			pop := idPopulation(1, 2, 3, 4, 5, 6, 7)
			fitness := func(_ context.Context, dna *genome.DNA) (float64, error) {
				id, _ := dna.Get("id")
				return id * id, nil
			}

			seq, err := evolution.Sequential{}.Evaluate(ctx, fitness, pop)
			Expect(err).NotTo(HaveOccurred())
			par, err := evolution.Pooled{Workers: 3}.Evaluate(ctx, fitness, pop)
			Expect(err).NotTo(HaveOccurred())
			Expect(par).To(Equal(seq))
			Expect(seq).To(Equal([]float64{1, 4, 9, 16, 25, 36, 49}))
		})

		It("bounds concurrency to the worker count", func() {
			var mu sync.Mutex
			active, peak := 0, 0
			fitness := func(context.Context, *genome.DNA) (float64, error) {
				mu.Lock()
				active++
				if active > peak {
					peak = active
				}
				mu.Unlock()
				time.Sleep(5 * time.Millisecond)
				mu.Lock()
				active--
				mu.Unlock()
				return 0, nil
			}

			_, err := evolution.Pooled{Workers: 2}.Evaluate(ctx, fitness, idPopulation(1, 2, 3, 4, 5, 6))
			Expect(err).NotTo(HaveOccurred())
			Expect(peak).To(BeNumerically("<=", 2))
		})

		It("scores timed out evaluations as NaN", func() {
			slow := func(ctx context.Context, dna *genome.DNA) (float64, error) {
				id, _ := dna.Get("id")
				if id == 2 {
					<-ctx.Done()
					return 0, ctx.Err()
				}
				return id, nil
			}

			for _, ev := range []evolution.Evaluator{
				evolution.Sequential{Timeout: 10 * time.Millisecond},
				evolution.Pooled{Workers: 2, Timeout: 10 * time.Millisecond},
			} {
				scores, err := ev.Evaluate(ctx, slow, idPopulation(1, 2, 3))
				Expect(err).NotTo(HaveOccurred())
				Expect(scores[0]).To(Equal(1.0))
				Expect(math.IsNaN(scores[1])).To(BeTrue())
				Expect(scores[2]).To(Equal(3.0))
			}
		})

		It("returns the first pooled error", func() {
			boom := errors.New("boom")
			fitness := func(context.Context, *genome.DNA) (float64, error) { return 0, boom }

			_, err := evolution.Pooled{Workers: 2}.Evaluate(ctx, fitness, idPopulation(1, 2, 3))
			Expect(err).To(MatchError(boom))
		})
	})

	Describe("checkpoints", func() {
		var dest string

		BeforeEach(func() {
			dest = filepath.Join(GinkgoT().TempDir(), "run")
		})

		It("writes one file per genome and reads them back exactly", func() {
			rng := rand.New(rand.NewSource(8))
			rules := genome.NewRules(map[string]*genome.Rule{"x": genome.NewRule(0, 1, 1)})
			pop := uniformPopulation(rng, rules, 12)

			e, err := evolution.New(pop, evolution.Config{LastGeneration: 150, Fitness: geneX, Rules: rules})
			Expect(err).NotTo(HaveOccurred())

			dir, err := e.Checkpoint(dest)
			Expect(err).NotTo(HaveOccurred())
			Expect(filepath.Base(dir)).To(Equal("gen_000"))

			entries, err := os.ReadDir(dir)
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(HaveLen(12))
			Expect(entries[0].Name()).To(Equal("DNA_00.yaml"))

			loaded, err := evolution.LoadCheckpoint(dir)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(HaveLen(12))
			for i := range pop {
				Expect(loaded[i].Genes()).To(Equal(pop[i].Genes()))
			}

			gen, err := evolution.CheckpointGeneration(dir)
			Expect(err).NotTo(HaveOccurred())
			Expect(gen).To(Equal(0))
		})

		It("refuses to overwrite an existing checkpoint", func() {
			e, err := evolution.New(idPopulation(1, 2), evolution.Config{LastGeneration: 9, Fitness: geneX, Rules: noRules})
			Expect(err).NotTo(HaveOccurred())

			_, err = e.Checkpoint(dest)
			Expect(err).NotTo(HaveOccurred())
			_, err = e.Checkpoint(dest)
			Expect(err).To(MatchError(evolution.ErrCheckpointCollision))
		})

		It("names directories by generation", func() {
			e, err := evolution.New(idPopulation(1, 2), evolution.Config{LastGeneration: 12, Fitness: geneX, Rules: noRules},
				evolution.WithSeed(2))
			Expect(err).NotTo(HaveOccurred())

			for i := 0; i < 3; i++ {
				Expect(e.Advance(ctx)).To(Succeed())
			}
			dir, err := e.Checkpoint(dest)
			Expect(err).NotTo(HaveOccurred())
			Expect(filepath.Base(dir)).To(Equal("gen_03"))
		})
	})
})
