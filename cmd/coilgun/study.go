package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/san-kum/coilgun/internal/automation"
	"github.com/san-kum/coilgun/internal/config"
	"github.com/san-kum/coilgun/internal/evolution"
	"github.com/san-kum/coilgun/internal/fitness"
	"github.com/san-kum/coilgun/internal/metrics"
	"github.com/san-kum/coilgun/internal/optim"
	"github.com/san-kum/coilgun/internal/storage"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	sweepGene    string
	sweepMin     float64
	sweepMax     float64
	sweepSteps   int
	trials       int
	perturbation float64
	toleranceOf  []string
	gridSpecs    []string
	noSave       bool
)

func newBatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch [scenario.yaml]",
		Short: "fire every shot of a scenario file",
		Args:  cobra.ExactArgs(1),
		RunE:  runBatch,
	}
	cmd.Flags().StringVarP(&configFile, "config", "c", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "solver preset for steps without one")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "ignore save_as and keep nothing")
	return cmd
}

func newSweepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "score a genome while one gene runs over a range",
		Args:  cobra.NoArgs,
		RunE:  runSweep,
	}
	studyFlags(cmd)
	cmd.Flags().StringVar(&sweepGene, "gene", "", "gene to vary")
	cmd.Flags().Float64Var(&sweepMin, "min", 0, "first value")
	cmd.Flags().Float64Var(&sweepMax, "max", 1, "last value")
	cmd.Flags().IntVar(&sweepSteps, "steps", 11, "number of values")
	_ = cmd.MarkFlagRequired("gene")
	return cmd
}

func newToleranceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tolerance",
		Short: "score randomly perturbed copies of a genome",
		Long: `Monte Carlo tolerance study: every trial multiplies the chosen genes
by an independent factor drawn uniformly from [1-p, 1+p].`,
		Args: cobra.NoArgs,
		RunE: runTolerance,
	}
	studyFlags(cmd)
	cmd.Flags().IntVar(&trials, "trials", 100, "number of perturbed genomes")
	cmd.Flags().Float64Var(&perturbation, "perturb", 0.05, "relative perturbation p")
	cmd.Flags().StringSliceVar(&toleranceOf, "genes", nil, "genes to perturb (default all)")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 picks one)")
	return cmd
}

func newGridCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "grid",
		Short: "exhaustively search gene combinations for the best efficiency",
		Example: `  coilgun grid --gene solenoid_turns=200,400,600 --gene capacitance_voltage=200,300`,
		Args:  cobra.NoArgs,
		RunE:  runGrid,
	}
	studyFlags(cmd)
	cmd.Flags().StringArrayVar(&gridSpecs, "gene", nil, "gene=v1,v2,... (repeatable)")
	_ = cmd.MarkFlagRequired("gene")
	return cmd
}

func studyFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&dnaFile, "dna", "d", "", "base genome (default built-in template)")
	cmd.Flags().StringVarP(&configFile, "config", "c", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "solver preset")
	cmd.Flags().IntVar(&workers, "workers", config.DefaultWorkers, "parallel fitness evaluations (0 uses every CPU)")
}

// study is the shared setup of the gene studies.
type study struct {
	cfg  *config.Config
	fit  evolution.FitnessFunc
	eval evolution.Evaluator
}

func newStudy(cmd *cobra.Command) (*study, error) {
	cfg, err := loadConfig(configFile, preset)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("workers") {
		cfg.Evolution.Workers = workers
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	n := cfg.Evolution.Workers
	if n <= 0 {
		n = runtime.NumCPU()
	}
	return &study{
		cfg:  cfg,
		fit:  fitness.NewCoil(cfg.Solver()).Evaluate,
		eval: evolution.Pooled{Workers: n, Timeout: cfg.Evolution.EvalTimeout, Logger: logger},
	}, nil
}

func interruptible() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runBatch(cmd *cobra.Command, args []string) error {
	scenario, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	cfg, err := loadConfig(configFile, preset)
	if err != nil {
		return err
	}

	var st *storage.Store
	if !noSave {
		st = storage.New(runsDir(cfg))
		if err := st.Init(); err != nil {
			return err
		}
	}

	ctx, stop := interruptible()
	defer stop()

	if scenario.Name != "" {
		fmt.Printf("scenario: %s\n", scenario.Name)
	}
	results, err := automation.RunScenario(ctx, scenario, cfg, st, os.Stdout)
	if err != nil {
		return err
	}

	fmt.Println()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tVELOCITY\tEFFICIENCY\tRUN")
	for _, r := range results {
		fmt.Fprintf(w, "%d\t%s\t%.4f%%\t%s\n", r.Step,
			si(r.Report.Trajectory.FinalVelocity(), "m/s"), r.Report.Efficiency*100, r.RunID)
	}
	return w.Flush()
}

func runSweep(cmd *cobra.Command, args []string) error {
	s, err := newStudy(cmd)
	if err != nil {
		return err
	}
	base, err := loadDNA(dnaFile)
	if err != nil {
		return err
	}

	ctx, stop := interruptible()
	defer stop()

	sweep := &automation.ParameterSweep{Gene: sweepGene, Min: sweepMin, Max: sweepMax, NumSteps: sweepSteps}
	results, err := automation.RunSweep(ctx, sweep, base, s.fit, s.eval)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tEFFICIENCY\n", strings.ToUpper(sweepGene))
	scores := make([]float64, len(results))
	for i, r := range results {
		fmt.Fprintf(w, "%.6g\t%s\n", r.Value, percent(r.Score))
		scores[i] = r.Score
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if finite := metrics.Finite(scores); len(finite) > 1 {
		fmt.Println()
		fmt.Println(chart(finite, "efficiency vs "+sweepGene))
	}
	return nil
}

func runTolerance(cmd *cobra.Command, args []string) error {
	s, err := newStudy(cmd)
	if err != nil {
		return err
	}
	base, err := loadDNA(dnaFile)
	if err != nil {
		return err
	}

	ctx, stop := interruptible()
	defer stop()

	nominal, err := s.fit(ctx, base)
	if err != nil {
		return err
	}

	mc := &automation.MonteCarloConfig{Genes: toleranceOf, Perturbation: perturbation, NumTrials: trials, Seed: seed}
	results, err := automation.RunMonteCarlo(ctx, mc, base, s.fit, s.eval)
	if err != nil {
		return err
	}

	mean, spread, failed := automation.MonteCarloStats(results)
	scores := make([]float64, len(results))
	for i, r := range results {
		scores[i] = r.Score
	}

	fmt.Printf("nominal efficiency: %s\n", percent(nominal))
	fmt.Printf("trials:             %d (%d failed)\n", len(results), failed)
	fmt.Printf("mean efficiency:    %s ± %.4f%%\n", percent(mean), spread*100)
	fmt.Printf("best trial:         %s\n", percent(metrics.Best(scores)))
	return nil
}

func runGrid(cmd *cobra.Command, args []string) error {
	genes, ranges, err := parseGrid(gridSpecs)
	if err != nil {
		return err
	}
	s, err := newStudy(cmd)
	if err != nil {
		return err
	}
	base, err := loadDNA(dnaFile)
	if err != nil {
		return err
	}

	ctx, stop := interruptible()
	defer stop()

	gs := optim.NewGridSearch(genes, ranges)
	logger.Info("grid search", "points", gs.Size())
	best, score, err := gs.Search(ctx, base, s.fit)
	if err != nil {
		return err
	}
	if best == nil {
		return fmt.Errorf("no grid point could be simulated")
	}

	fmt.Printf("best efficiency: %s\n", percent(score))
	for _, name := range genes {
		v, _ := best.Get(name)
		fmt.Printf("  %s: %g\n", name, v)
	}
	out, err := yaml.Marshal(best)
	if err != nil {
		return err
	}
	fmt.Printf("\n%s", out)
	return nil
}

// parseGrid parses repeated gene=v1,v2,... flag values.
func parseGrid(args []string) ([]string, [][]float64, error) {
	genes := make([]string, 0, len(args))
	ranges := make([][]float64, 0, len(args))
	for _, arg := range args {
		name, list, ok := strings.Cut(arg, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" || list == "" {
			return nil, nil, fmt.Errorf("invalid grid %q, want gene=v1,v2", arg)
		}
		var values []float64
		for _, field := range strings.Split(list, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, nil, fmt.Errorf("invalid grid %q: %w", arg, err)
			}
			values = append(values, v)
		}
		genes = append(genes, name)
		ranges = append(ranges, values)
	}
	return genes, ranges, nil
}

func percent(score float64) string {
	if math.IsNaN(score) {
		return "n/a"
	}
	return fmt.Sprintf("%.4f%%", score*100)
}
