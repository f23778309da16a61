// Package automation runs scripted and statistical studies of coilgun
// genomes: scenario batches, single-gene sweeps and tolerance trials.
package automation

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/san-kum/coilgun/internal/config"
	"github.com/san-kum/coilgun/internal/evolution"
	"github.com/san-kum/coilgun/internal/fitness"
	"github.com/san-kum/coilgun/internal/genome"
	"github.com/san-kum/coilgun/internal/metrics"
	"github.com/san-kum/coilgun/internal/storage"
	"gopkg.in/yaml.v3"
)

// Scenario defines a scripted sequence of shots
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`

	dir string
}

// ScenarioStep is a single shot in a scenario
type ScenarioStep struct {
	// DNA is a genome file relative to the scenario; empty uses the
	// built-in template.
	DNA    string             `yaml:"dna"`
	Preset string             `yaml:"preset"`
	Genes  map[string]float64 `yaml:"genes"`
	SaveAs string             `yaml:"save_as"`
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	scenario.dir = filepath.Dir(path)
	return &scenario, nil
}

// StepResult is the outcome of one scenario step. RunID is set when the
// step was saved.
type StepResult struct {
	Step   int
	Report *fitness.Report
	RunID  string
}

func (s *Scenario) genome(step ScenarioStep) (*genome.DNA, error) {
	var (
		dna *genome.DNA
		err error
	)
	if step.DNA == "" {
		dna, err = config.DefaultDNA()
	} else {
		path := step.DNA
		if !filepath.IsAbs(path) {
			path = filepath.Join(s.dir, path)
		}
		dna, err = genome.ReadDNA(path)
	}
	if err != nil {
		return nil, err
	}
	for name, v := range step.Genes {
		if err := dna.Set(name, v); err != nil {
			return nil, err
		}
	}
	return dna, nil
}

// RunScenario fires every step with base as the solver configuration.
// Steps naming save_as are written to st when st is not nil.
func RunScenario(ctx context.Context, scenario *Scenario, base *config.Config, st *storage.Store, out io.Writer) ([]StepResult, error) {
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		fmt.Fprintf(out, "Running step %d/%d: %s\n", i+1, len(scenario.Steps), stepName(step))

		cfg := *base
		if step.Preset != "" {
			if err := cfg.ApplyPreset(step.Preset); err != nil {
				return results, fmt.Errorf("step %d: %w", i+1, err)
			}
		}

		dna, err := scenario.genome(step)
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}

		report, err := fitness.NewCoil(cfg.Solver()).Run(ctx, dna)
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}

		res := StepResult{Step: i + 1, Report: report}
		if st != nil && step.SaveAs != "" {
			m := map[string]float64{"efficiency": report.Efficiency}
			for k, v := range report.Metrics {
				m[k] = v
			}
			res.RunID, err = st.Save(step.SaveAs, dna, cfg.Solver(), report.Trajectory, m)
			if err != nil {
				return results, fmt.Errorf("step %d save: %w", i+1, err)
			}
		}
		results = append(results, res)
	}

	return results, nil
}

func stepName(step ScenarioStep) string {
	switch {
	case step.SaveAs != "":
		return step.SaveAs
	case step.DNA != "":
		return step.DNA
	default:
		return "default genome"
	}
}

// ParameterSweep varies one gene evenly between Min and Max.
type ParameterSweep struct {
	Gene     string
	Min      float64
	Max      float64
	NumSteps int
}

// SweepResult holds one point of a parameter sweep
type SweepResult struct {
	Value float64
	Score float64
}

// RunSweep scores a copy of base for every sweep value.
func RunSweep(ctx context.Context, sweep *ParameterSweep, base *genome.DNA, fit evolution.FitnessFunc, ev evolution.Evaluator) ([]SweepResult, error) {
	if sweep.NumSteps < 2 {
		return nil, fmt.Errorf("sweep needs at least 2 steps, got %d", sweep.NumSteps)
	}

	values := make([]float64, sweep.NumSteps)
	pop := make([]*genome.DNA, sweep.NumSteps)
	paramStep := (sweep.Max - sweep.Min) / float64(sweep.NumSteps-1)
	for i := range pop {
		values[i] = sweep.Min + float64(i)*paramStep
		pop[i] = base.Clone()
		if err := pop[i].Set(sweep.Gene, values[i]); err != nil {
			return nil, err
		}
	}

	scores, err := ev.Evaluate(ctx, fit, pop)
	if err != nil {
		return nil, err
	}

	results := make([]SweepResult, len(pop))
	for i := range results {
		results[i] = SweepResult{Value: values[i], Score: scores[i]}
	}
	return results, nil
}

// MonteCarloConfig perturbs genes by a uniform relative error, as a
// manufacturing tolerance.
type MonteCarloConfig struct {
	// Genes to perturb; empty perturbs every gene.
	Genes        []string
	Perturbation float64
	NumTrials    int
	Seed         int64
}

// MonteCarloResult holds one perturbed genome and its score.
type MonteCarloResult struct {
	TrialID int
	DNA     *genome.DNA
	Score   float64
}

// RunMonteCarlo scores NumTrials perturbed copies of base.
func RunMonteCarlo(ctx context.Context, cfg *MonteCarloConfig, base *genome.DNA, fit evolution.FitnessFunc, ev evolution.Evaluator) ([]MonteCarloResult, error) {
	rng := rand.New(rand.NewSource(cfg.Seed))
	if cfg.Seed == 0 {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	genes := cfg.Genes
	if len(genes) == 0 {
		genes = base.Keys()
	}

	pop := make([]*genome.DNA, cfg.NumTrials)
	for trial := range pop {
		dna := base.Clone()
		for _, name := range genes {
			v, ok := dna.Get(name)
			if !ok {
				return nil, fmt.Errorf("%w: %s", genome.ErrMissingParameter, name)
			}
			factor := 1 + (rng.Float64()-0.5)*2*cfg.Perturbation
			if err := dna.Set(name, v*factor); err != nil {
				return nil, err
			}
		}
		pop[trial] = dna
	}

	scores, err := ev.Evaluate(ctx, fit, pop)
	if err != nil {
		return nil, err
	}

	results := make([]MonteCarloResult, len(pop))
	for i := range results {
		results[i] = MonteCarloResult{TrialID: i, DNA: pop[i], Score: scores[i]}
	}
	return results, nil
}

// MonteCarloStats summarises the finite scores; failed counts NaN scores.
func MonteCarloStats(results []MonteCarloResult) (mean, spread float64, failed int) {
	scores := make([]float64, len(results))
	for i, r := range results {
		scores[i] = r.Score
	}
	finite := metrics.Finite(scores)
	return metrics.Mean(finite), metrics.Spread(finite), len(scores) - len(finite)
}
