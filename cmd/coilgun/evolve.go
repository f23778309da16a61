package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/coilgun/internal/config"
	"github.com/san-kum/coilgun/internal/evolution"
	"github.com/san-kum/coilgun/internal/fitness"
	"github.com/san-kum/coilgun/internal/genome"
	"github.com/san-kum/coilgun/internal/history"
	"github.com/san-kum/coilgun/internal/recorder"
	"github.com/san-kum/coilgun/internal/viz"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	generations     int
	populationSize  int
	dnaFile         string
	rulesFile       string
	configFile      string
	preset          string
	seed            int64
	workers         int
	evalTimeout     time.Duration
	outputDir       string
	checkpointEvery int
	resumeDir       string
	plotFile        string
	liveView        bool
	themeName       string
	historyFile     string
)

func newEvolveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "evolve",
		Short: "evolve a coilgun with a genetic algorithm",
		Args:  cobra.NoArgs,
		RunE:  runEvolve,
	}
	cmd.Flags().IntVarP(&generations, "generations", "g", config.DefaultGenerations, "number of generations")
	cmd.Flags().IntVarP(&populationSize, "population", "p", config.DefaultPopulation, "population size")
	cmd.Flags().StringVarP(&dnaFile, "dna", "d", "", "base genome template (default built-in)")
	cmd.Flags().StringVarP(&rulesFile, "rules", "r", "", "mutation rules template (default built-in)")
	cmd.Flags().StringVarP(&configFile, "config", "c", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "solver preset (see `coilgun presets`)")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 picks one)")
	cmd.Flags().IntVar(&workers, "workers", config.DefaultWorkers, "parallel fitness evaluations (0 uses every CPU)")
	cmd.Flags().DurationVar(&evalTimeout, "eval-timeout", 0, "time limit per fitness evaluation")
	cmd.Flags().StringVarP(&outputDir, "output", "o", config.DefaultOutput, "output directory, must not exist (empty disables checkpoints)")
	cmd.Flags().IntVar(&checkpointEvery, "checkpoint-every", config.DefaultCheckpointEvery, "checkpoint every n generations")
	cmd.Flags().StringVar(&resumeDir, "resume", "", "resume from a checkpoint generation directory")
	cmd.Flags().StringVar(&plotFile, "plot", "", "save a fitness plot (png, svg or pdf)")
	cmd.Flags().BoolVar(&liveView, "live", false, "show the live dashboard")
	cmd.Flags().StringVar(&themeName, "theme", viz.ThemeCopper.Name, "dashboard theme: "+strings.Join(viz.ThemeNames(), ", "))
	cmd.Flags().StringVar(&historyFile, "history", "", "record the run in a SQLite history database")
	return cmd
}

// applyEvolveFlags lets explicitly set flags override the config file.
func applyEvolveFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("generations") {
		cfg.Evolution.Generations = generations
	}
	if flags.Changed("population") {
		cfg.Evolution.Population = populationSize
	}
	if flags.Changed("seed") {
		cfg.Evolution.Seed = seed
	}
	if flags.Changed("workers") {
		cfg.Evolution.Workers = workers
	}
	if flags.Changed("eval-timeout") {
		cfg.Evolution.EvalTimeout = evalTimeout
	}
	if flags.Changed("checkpoint-every") {
		cfg.Evolution.CheckpointEvery = checkpointEvery
	}
	if flags.Changed("output") {
		cfg.Evolution.Output = outputDir
	}
	if flags.Changed("history") {
		cfg.Storage.HistoryDB = historyFile
	}
}

// resolveTheme looks up a dashboard theme, rejecting unknown names.
func resolveTheme(name string) (viz.Theme, error) {
	if !slices.Contains(viz.ThemeNames(), name) {
		return viz.Theme{}, fmt.Errorf("unknown theme %q (have %s)", name, strings.Join(viz.ThemeNames(), ", "))
	}
	return viz.GetTheme(name), nil
}

// evolveRulesPath prefers --rules, then the rules saved beside a resumed
// checkpoint, then the built-in template.
func evolveRulesPath() string {
	if rulesFile != "" || resumeDir == "" {
		return rulesFile
	}
	saved := filepath.Join(filepath.Dir(filepath.Clean(resumeDir)), recorder.RulesFile)
	if _, err := os.Stat(saved); err != nil {
		logger.Warn("no saved rules next to checkpoint, using the built-in template", "path", saved)
		return ""
	}
	logger.Info("resume with saved rules", "path", saved)
	return saved
}

func initialPopulation(cfg *config.Config, rules genome.Rules, rng *rand.Rand) ([]*genome.DNA, int, error) {
	if resumeDir != "" {
		pop, err := evolution.LoadCheckpoint(resumeDir)
		if err != nil {
			return nil, 0, err
		}
		gen, err := evolution.CheckpointGeneration(resumeDir)
		if err != nil {
			return nil, 0, err
		}
		if len(pop) != cfg.Evolution.Population {
			logger.Warn("resumed population size overrides the configured one",
				"checkpoint", len(pop), "configured", cfg.Evolution.Population)
		}
		return pop, gen, nil
	}

	base, err := loadDNA(dnaFile)
	if err != nil {
		return nil, 0, err
	}
	pop := make([]*genome.DNA, cfg.Evolution.Population)
	for i := range pop {
		pop[i] = base.Clone()
		if err := pop[i].Randomize(rules, rng); err != nil {
			return nil, 0, err
		}
	}
	return pop, 0, nil
}

func runEvolve(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(configFile, preset)
	if err != nil {
		return err
	}
	applyEvolveFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	theme, err := resolveTheme(themeName)
	if err != nil {
		return err
	}

	rules, err := loadRules(evolveRulesPath())
	if err != nil {
		return err
	}

	runSeed := cfg.Evolution.Seed
	if runSeed == 0 {
		runSeed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(runSeed))

	pop, startGen, err := initialPopulation(cfg, rules, rng)
	if err != nil {
		return err
	}

	n := cfg.Evolution.Workers
	if n <= 0 {
		n = runtime.NumCPU()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	stats := recorder.NewStats(os.Stdout)
	recs := []evolution.Recorder{stats}
	if cfg.Evolution.Output != "" {
		recs = append(recs, &recorder.Checkpoint{Every: cfg.Evolution.CheckpointEvery, Dir: cfg.Evolution.Output})
	}

	var hist *recorder.History
	if historyEnabled(cmd, cfg) {
		db, err := history.Open(cfg.Storage.HistoryDB)
		if err != nil {
			return err
		}
		defer db.Close()
		hist = recorder.NewHistory(db, runSeed)
		recs = append(recs, hist)
	}

	var program *tea.Program
	if liveView {
		stats.Out = nil
		program = tea.NewProgram(viz.NewDashboard("coilgun evolution", theme), tea.WithAltScreen())
		recs = append(recs, recorder.NewLive(program))
	} else {
		recs = append(recs, recorder.NewProgress(os.Stdout))
	}

	engine, err := evolution.New(pop, evolution.Config{
		LastGeneration: cfg.Evolution.Generations,
		Fitness:        fitness.NewCoil(cfg.Solver()).Evaluate,
		Rules:          rules,
	},
		evolution.WithRand(rng),
		evolution.WithWorkers(n),
		evolution.WithEvalTimeout(cfg.Evolution.EvalTimeout),
		evolution.WithStartGeneration(startGen),
		evolution.WithRecorders(recs...),
		evolution.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	logger.Info("evolve", "seed", runSeed, "population", engine.Size(), "workers", n, "resume", resumeDir)

	if program != nil {
		err = runLive(ctx, engine, program)
	} else {
		err = engine.Run(ctx)
	}
	if err != nil {
		if hist != nil {
			if ferr := hist.Fail(ctx, engine); ferr != nil {
				logger.Warn("history: mark run failed", "err", ferr)
			}
		}
		return err
	}

	if plotFile != "" {
		if err := stats.SavePlot(plotFile); err != nil {
			return err
		}
		fmt.Printf("plot saved to %s\n", plotFile)
	}

	best, score := engine.Best()
	if best == nil {
		fmt.Println("no genome produced a finite score")
		return nil
	}
	fmt.Printf("\nbest score: %.6g\n", score)
	if hist != nil {
		fmt.Printf("history run id: %s\n", hist.RunID())
	}
	data, err := yaml.Marshal(best)
	if err != nil {
		return err
	}
	fmt.Print(string(data))
	return nil
}

// historyEnabled is true only when --history was given.
func historyEnabled(cmd *cobra.Command, cfg *config.Config) bool {
	return cmd.Flags().Changed("history") && cfg.Storage.HistoryDB != ""
}

// runLive runs the engine behind the dashboard. Leaving the dashboard does
// not stop the run; an interrupt does.
func runLive(ctx context.Context, engine *evolution.Engine, program *tea.Program) error {
	done := make(chan error, 1)
	go func() {
		err := engine.Run(ctx)
		if err != nil {
			program.Send(viz.DoneMsg{Err: err})
		}
		done <- err
	}()

	if _, err := program.Run(); err != nil {
		return err
	}
	select {
	case err := <-done:
		return err
	default:
		fmt.Println("dashboard closed, waiting for the run to finish (ctrl+c aborts)")
		return <-done
	}
}
