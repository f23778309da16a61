package config

import (
	"sort"

	"github.com/san-kum/coilgun/internal/coilgun"
)

// Presets trade accuracy for evaluation speed.
var Presets = map[string]*SimulationConfig{
	"fast": {
		MaxTime: 0.003, MinimumSteps: 30, Method: "rk45", RelTol: 1e-4, AbsTol: 1e-7,
		VoltageMode: coilgun.VoltageTracked, FreeDecay: false, DecayCutoff: coilgun.DefaultDecayCutoff,
	},
	"default": func() *SimulationConfig {
		s := simulationFrom(coilgun.DefaultSolverConfig())
		return &s
	}(),
	"precise": {
		MaxTime: 0.005, MinimumSteps: 1000, Method: "rk45", RelTol: 1e-9, AbsTol: 1e-12,
		VoltageMode: coilgun.VoltageTracked, FreeDecay: true, DecayCutoff: 1e-4,
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *SimulationConfig {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := *p
	return &cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
