package evolution

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/san-kum/coilgun/internal/genome"
)

// FitnessFunc scores one genome. A returned error aborts the run; genomes
// that are merely bad should score NaN instead.
type FitnessFunc func(ctx context.Context, dna *genome.DNA) (float64, error)

// Evaluator scores a whole population. Scores are returned in population
// order.
type Evaluator interface {
	Evaluate(ctx context.Context, fitness FitnessFunc, population []*genome.DNA) ([]float64, error)
}

// Sequential evaluates one genome after the other.
type Sequential struct {
	// Timeout bounds a single evaluation; zero disables it.
	Timeout time.Duration
	Logger  *slog.Logger
}

func (s Sequential) Evaluate(ctx context.Context, fitness FitnessFunc, population []*genome.DNA) ([]float64, error) {
	scores := make([]float64, len(population))
	for i, dna := range population {
		score, err := evaluateOne(ctx, fitness, dna, s.Timeout, s.Logger, i)
		if err != nil {
			return nil, err
		}
		scores[i] = score
	}
	return scores, nil
}

// Pooled evaluates genomes concurrently on a bounded worker pool. The first
// error cancels the remaining evaluations.
type Pooled struct {
	Workers int
	Timeout time.Duration
	Logger  *slog.Logger
}

func (p Pooled) Evaluate(ctx context.Context, fitness FitnessFunc, population []*genome.DNA) ([]float64, error) {
	workers := p.Workers
	if workers < 1 {
		workers = 1
	}

	scores := make([]float64, len(population))
	wp := pool.New().
		WithMaxGoroutines(workers).
		WithContext(ctx).
		WithCancelOnError().
		WithFirstError()

	for i, dna := range population {
		wp.Go(func(ctx context.Context) error {
			score, err := evaluateOne(ctx, fitness, dna, p.Timeout, p.Logger, i)
			if err != nil {
				return err
			}
			scores[i] = score
			return nil
		})
	}
	if err := wp.Wait(); err != nil {
		return nil, err
	}
	return scores, nil
}

// evaluateOne runs the fitness function under an optional deadline. A
// genome that runs out of time scores NaN.
func evaluateOne(ctx context.Context, fitness FitnessFunc, dna *genome.DNA, timeout time.Duration, logger *slog.Logger, index int) (float64, error) {
	if timeout <= 0 {
		return fitness(ctx, dna)
	}

	evalCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	score, err := fitness(evalCtx, dna)
	if err != nil && errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		if logger != nil {
			logger.Warn("fitness evaluation timed out",
				"index", index,
				"timeout", timeout,
				"elapsed", time.Since(start))
		}
		return math.NaN(), nil
	}
	return score, err
}
