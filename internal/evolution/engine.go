// Package evolution runs the genetic algorithm: it scores a fixed-size
// population, breeds and mutates the next generation, tracks the best
// genome ever seen and reports progress to recorders.
package evolution

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"github.com/san-kum/coilgun/internal/genome"
	"github.com/san-kum/coilgun/internal/metrics"
)

type Phase int

const (
	Idle Phase = iota
	Evaluating
	Breeding
	Mutating
	Advanced
	Done
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Evaluating:
		return "evaluating"
	case Breeding:
		return "breeding"
	case Mutating:
		return "mutating"
	case Advanced:
		return "advanced"
	case Done:
		return "done"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

type Config struct {
	// LastGeneration is the generation count at which Run stops.
	LastGeneration int
	Fitness        FitnessFunc
	// Breeder defaults to CrossBreeding with Versus selection.
	Breeder Breeder
	Rules   genome.Rules
}

type Option func(*Engine)

func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) { e.rng = rng }
}

func WithSeed(seed int64) Option {
	return func(e *Engine) { e.rng = rand.New(rand.NewSource(seed)) }
}

// WithWorkers evaluates on a pool of n workers. One worker is sequential.
func WithWorkers(n int) Option {
	return func(e *Engine) { e.workers = n }
}

// WithEvalTimeout bounds each fitness evaluation; timed out genomes score NaN.
func WithEvalTimeout(d time.Duration) Option {
	return func(e *Engine) { e.timeout = d }
}

// WithEvaluator replaces the evaluator chosen from workers and timeout.
func WithEvaluator(ev Evaluator) Option {
	return func(e *Engine) { e.evaluator = ev }
}

func WithRecorders(rs ...Recorder) Option {
	return func(e *Engine) { e.recorders = append(e.recorders, rs...) }
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithStartGeneration resumes counting from a checkpointed generation.
func WithStartGeneration(gen int) Option {
	return func(e *Engine) { e.generation = gen }
}

type Engine struct {
	cfg        Config
	population []*genome.DNA
	size       int
	generation int
	phase      Phase

	scores    []Scored
	best      *genome.DNA
	bestScore float64

	rng       *rand.Rand
	workers   int
	timeout   time.Duration
	evaluator Evaluator
	recorders []Recorder
	logger    *slog.Logger
}

// New takes ownership of the population. All genomes must share one key
// set that covers every ruled parameter.
func New(population []*genome.DNA, cfg Config, opts ...Option) (*Engine, error) {
	if len(population) < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrPopulationTooSmall, len(population))
	}
	if cfg.Fitness == nil {
		return nil, fmt.Errorf("%w: no fitness function", ErrInvalidConfig)
	}
	if cfg.LastGeneration < 0 {
		return nil, fmt.Errorf("%w: last generation %d", ErrInvalidConfig, cfg.LastGeneration)
	}
	if !cfg.Rules.IsInitialized() {
		return nil, genome.ErrUninitializedRule
	}
	if cfg.Breeder == nil {
		cfg.Breeder = CrossBreeding{Selector: Versus{}}
	}
	for i, dna := range population {
		if !dna.SameKeys(population[0]) {
			return nil, fmt.Errorf("%w: genome %d", ErrGenomeMismatch, i)
		}
	}
	for _, name := range cfg.Rules.Names() {
		if _, ok := population[0].Get(name); !ok {
			return nil, fmt.Errorf("%w: %s", genome.ErrMissingParameter, name)
		}
	}

	e := &Engine{
		cfg:        cfg,
		population: population,
		size:       len(population),
		bestScore:  math.Inf(-1),
		workers:    1,
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.generation < 0 || e.generation > cfg.LastGeneration {
		return nil, fmt.Errorf("%w: start generation %d outside [0, %d]", ErrInvalidConfig, e.generation, cfg.LastGeneration)
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if e.logger == nil {
		e.logger = slog.New(slog.DiscardHandler)
	}
	if e.evaluator == nil {
		if e.workers > 1 {
			e.evaluator = Pooled{Workers: e.workers, Timeout: e.timeout, Logger: e.logger}
		} else {
			e.evaluator = Sequential{Timeout: e.timeout, Logger: e.logger}
		}
	}
	return e, nil
}

func (e *Engine) Generation() int     { return e.generation }
func (e *Engine) LastGeneration() int { return e.cfg.LastGeneration }
func (e *Engine) Size() int           { return e.size }
func (e *Engine) Phase() Phase        { return e.phase }
func (e *Engine) Rules() genome.Rules { return e.cfg.Rules }

// Population returns the current generation's genomes.
func (e *Engine) Population() []*genome.DNA {
	out := make([]*genome.DNA, len(e.population))
	copy(out, e.population)
	return out
}

// Best returns the best genome found so far and its score, or nil and -Inf
// before any finite evaluation.
func (e *Engine) Best() (*genome.DNA, float64) {
	return e.best, e.bestScore
}

// Scores returns the most recent generation scores.
func (e *Engine) Scores() []Scored {
	out := make([]Scored, len(e.scores))
	copy(out, e.scores)
	return out
}

func (e *Engine) score(ctx context.Context) ([]Scored, error) {
	values, err := e.evaluator.Evaluate(ctx, e.cfg.Fitness, e.population)
	if err != nil {
		return nil, err
	}
	scored := make([]Scored, len(e.population))
	for i, dna := range e.population {
		scored[i] = Scored{DNA: dna, Score: values[i]}
	}
	return scored, nil
}

// Evaluate scores the current population and counts a generation. The
// best-ever genome changes only on a strict improvement.
func (e *Engine) Evaluate(ctx context.Context) ([]Scored, error) {
	e.phase = Evaluating
	scored, err := e.score(ctx)
	if err != nil {
		return nil, fmt.Errorf("generation %d: evaluate: %w", e.generation+1, err)
	}
	e.generation++
	e.scores = scored

	genBest := -1
	for i, s := range scored {
		if genBest < 0 || Beats(s.Score, scored[genBest].Score) {
			genBest = i
		}
	}
	if Beats(scored[genBest].Score, e.bestScore) {
		e.best = scored[genBest].DNA.Clone()
		e.bestScore = scored[genBest].Score
		e.logger.Info("new best genome",
			"generation", e.generation,
			"score", e.bestScore)
	}

	e.logger.Debug("generation evaluated",
		"generation", e.generation,
		"mean", e.meanScore(),
		"best", scored[genBest].Score)
	return scored, nil
}

// Advance evaluates the current population, breeds a new one of the same
// size and mutates every child.
func (e *Engine) Advance(ctx context.Context) error {
	scored, err := e.Evaluate(ctx)
	if err != nil {
		return err
	}

	e.phase = Breeding
	next := make([]*genome.DNA, e.size)
	for i := range next {
		child, err := e.cfg.Breeder.Breed(e.rng, scored)
		if err != nil {
			return fmt.Errorf("generation %d: breed: %w", e.generation, err)
		}
		next[i] = child
	}

	e.phase = Mutating
	for _, child := range next {
		if err := child.Mutate(e.cfg.Rules, e.rng); err != nil {
			return fmt.Errorf("generation %d: mutate: %w", e.generation, err)
		}
	}

	e.population = next
	e.phase = Advanced
	return nil
}

// Run advances until the last generation, notifying every recorder.
func (e *Engine) Run(ctx context.Context) error {
	for _, r := range e.recorders {
		if err := r.Setup(ctx, e); err != nil {
			return fmt.Errorf("recorder setup: %w", err)
		}
	}

	e.logger.Info("evolution started",
		"population", e.size,
		"generation", e.generation,
		"last_generation", e.cfg.LastGeneration)

	for e.generation < e.cfg.LastGeneration {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.Advance(ctx); err != nil {
			return err
		}
		for _, r := range e.recorders {
			if err := r.Record(ctx, e); err != nil {
				return fmt.Errorf("generation %d: recorder: %w", e.generation, err)
			}
		}
	}

	for _, r := range e.recorders {
		if err := r.Summary(ctx, e); err != nil {
			return fmt.Errorf("recorder summary: %w", err)
		}
	}
	e.phase = Done

	e.logger.Info("evolution finished",
		"generation", e.generation,
		"best", e.bestScore)
	return nil
}

// PopulationScore is the mean finite score of the most recently evaluated
// generation. Before any evaluation the current population is scored
// without counting a generation.
func (e *Engine) PopulationScore(ctx context.Context) (float64, error) {
	if e.scores == nil {
		scored, err := e.score(ctx)
		if err != nil {
			return math.NaN(), err
		}
		e.scores = scored
	}
	return e.meanScore(), nil
}

func (e *Engine) meanScore() float64 {
	values := make([]float64, len(e.scores))
	for i, s := range e.scores {
		values[i] = s.Score
	}
	finite := metrics.Finite(values)
	if len(finite) == 0 {
		return math.NaN()
	}
	return metrics.Mean(finite)
}
