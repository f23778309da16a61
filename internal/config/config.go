package config

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/san-kum/coilgun/internal/coilgun"
	"github.com/san-kum/coilgun/internal/genome"
	"gopkg.in/yaml.v3"
)

var ErrInvalidConfig = errors.New("config: invalid configuration")

const (
	DefaultGenerations     = 10
	DefaultPopulation      = 10
	DefaultWorkers         = 1
	DefaultCheckpointEvery = 5
	DefaultOutput          = "evolution"
	DefaultRunsDir         = "runs"
	DefaultHistoryDB       = "coilgun_history.db"
)

//go:embed templates/*.yaml
var templates embed.FS

type Config struct {
	Simulation SimulationConfig `yaml:"simulation"`
	Evolution  EvolutionConfig  `yaml:"evolution"`
	Storage    StorageConfig    `yaml:"storage"`
}

type SimulationConfig struct {
	MaxTime      float64 `yaml:"max_time"`
	MinimumSteps int     `yaml:"minimum_steps"`
	Method       string  `yaml:"method"`
	RelTol       float64 `yaml:"rel_tol"`
	AbsTol       float64 `yaml:"abs_tol"`
	VoltageMode  string  `yaml:"voltage_mode"`
	FreeDecay    bool    `yaml:"free_decay"`
	DecayCutoff  float64 `yaml:"decay_cutoff"`
}

type EvolutionConfig struct {
	Generations int   `yaml:"generations"`
	Population  int   `yaml:"population"`
	Seed        int64 `yaml:"seed"`
	// Workers <= 0 uses every CPU.
	Workers         int           `yaml:"workers"`
	EvalTimeout     time.Duration `yaml:"eval_timeout"`
	CheckpointEvery int           `yaml:"checkpoint_every"`
	Output          string        `yaml:"output"`
}

type StorageConfig struct {
	RunsDir   string `yaml:"runs_dir"`
	HistoryDB string `yaml:"history_db"`
}

func simulationFrom(s coilgun.SolverConfig) SimulationConfig {
	return SimulationConfig{
		MaxTime:      s.MaxTime,
		MinimumSteps: s.MinimumSteps,
		Method:       s.Method,
		RelTol:       s.RelTol,
		AbsTol:       s.AbsTol,
		VoltageMode:  s.VoltageMode,
		FreeDecay:    s.FreeDecay,
		DecayCutoff:  s.DecayCutoff,
	}
}

func DefaultConfig() *Config {
	return &Config{
		Simulation: simulationFrom(coilgun.DefaultSolverConfig()),
		Evolution: EvolutionConfig{
			Generations:     DefaultGenerations,
			Population:      DefaultPopulation,
			Workers:         DefaultWorkers,
			CheckpointEvery: DefaultCheckpointEvery,
			Output:          DefaultOutput,
		},
		Storage: StorageConfig{
			RunsDir:   DefaultRunsDir,
			HistoryDB: DefaultHistoryDB,
		},
	}
}

// Load reads a configuration file over the defaults, so a partial file
// only changes the keys it names.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if err := c.Solver().Validate(); err != nil {
		return fmt.Errorf("%w: simulation: %w", ErrInvalidConfig, err)
	}
	if c.Evolution.Generations < 0 {
		return fmt.Errorf("%w: generations must not be negative", ErrInvalidConfig)
	}
	if c.Evolution.Population < 2 {
		return fmt.Errorf("%w: population must be at least 2, got %d", ErrInvalidConfig, c.Evolution.Population)
	}
	if c.Evolution.EvalTimeout < 0 {
		return fmt.Errorf("%w: eval timeout must not be negative", ErrInvalidConfig)
	}
	if c.Evolution.CheckpointEvery < 0 {
		return fmt.Errorf("%w: checkpoint_every must not be negative", ErrInvalidConfig)
	}
	return nil
}

// Solver converts the simulation section.
func (c *Config) Solver() coilgun.SolverConfig {
	s := c.Simulation
	return coilgun.SolverConfig{
		MaxTime:      s.MaxTime,
		MinimumSteps: s.MinimumSteps,
		Method:       s.Method,
		RelTol:       s.RelTol,
		AbsTol:       s.AbsTol,
		VoltageMode:  s.VoltageMode,
		FreeDecay:    s.FreeDecay,
		DecayCutoff:  s.DecayCutoff,
	}
}

// ApplyPreset replaces the simulation section with a named preset.
func (c *Config) ApplyPreset(name string) error {
	p := GetPreset(name)
	if p == nil {
		return fmt.Errorf("%w: unknown preset %q (have %v)", ErrInvalidConfig, name, ListPresets())
	}
	c.Simulation = *p
	return nil
}

// Template returns one of the embedded templates: dna_template.yaml,
// rules_template.yaml or conf_template.yaml.
func Template(name string) ([]byte, error) {
	return templates.ReadFile("templates/" + name)
}

func DefaultDNA() (*genome.DNA, error) {
	data, err := Template(TemplateFile("dna"))
	if err != nil {
		return nil, err
	}
	return genome.ParseDNA(data)
}

func DefaultRules() (genome.Rules, error) {
	data, err := Template(TemplateFile("rules"))
	if err != nil {
		return nil, err
	}
	return genome.ParseRules(data)
}

// TemplateNames lists the embedded templates by kind (dna, rules, conf),
// sorted. TemplateFile maps a kind back to its file name.
func TemplateNames() []string {
	files, _ := fs.Glob(templates, "templates/*"+templateSuffix)
	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, strings.TrimSuffix(path.Base(f), templateSuffix))
	}
	sort.Strings(names)
	return names
}

const templateSuffix = "_template.yaml"

func TemplateFile(kind string) string {
	return kind + templateSuffix
}
