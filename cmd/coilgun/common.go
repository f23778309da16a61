package main

import (
	"fmt"
	"strings"

	"github.com/san-kum/coilgun/internal/config"
	"github.com/san-kum/coilgun/internal/genome"
	"github.com/spf13/cobra"
)

// loadConfig applies, in order, the defaults, the config file and the
// preset. Flags are applied by the caller.
func loadConfig(path, preset string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	if preset != "" {
		if err := cfg.ApplyPreset(preset); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// loadDNA reads a genome file, or the built-in template when path is empty.
func loadDNA(path string) (*genome.DNA, error) {
	if path == "" {
		return config.DefaultDNA()
	}
	return genome.ReadDNA(path)
}

func loadRules(path string) (genome.Rules, error) {
	if path == "" {
		return config.DefaultRules()
	}
	return genome.ReadRules(path)
}

func runsDir(cfg *config.Config) string {
	if dataDir != "" {
		return dataDir
	}
	return cfg.Storage.RunsDir
}

func newPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "list solver presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name)
				fmt.Printf("  %-8s max_time=%gs minimum_steps=%d method=%s rel_tol=%g free_decay=%v\n",
					name, p.MaxTime, p.MinimumSteps, p.Method, p.RelTol, p.FreeDecay)
			}
			return nil
		},
	}
}

func newTemplateCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "template [name]",
		Short:     "print a built-in template (dna, rules or conf)",
		Args:      cobra.ExactArgs(1),
		ValidArgs: config.TemplateNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := config.Template(config.TemplateFile(args[0]))
			if err != nil {
				return fmt.Errorf("unknown template %q (have %s)", args[0], strings.Join(config.TemplateNames(), ", "))
			}
			fmt.Print(string(data))
			return nil
		},
	}
}
