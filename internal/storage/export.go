package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/coilgun/internal/coilgun"
)

type ExportData struct {
	Method         string             `json:"method"`
	MaxTime        float64            `json:"max_time"`
	Samples        int                `json:"samples"`
	DischargeEvent string             `json:"discharge_event,omitempty"`
	DecayEvent     string             `json:"decay_event,omitempty"`
	Times          []float64          `json:"times"`
	Position       []float64          `json:"position"`
	Velocity       []float64          `json:"velocity"`
	Current        []float64          `json:"current"`
	Voltage        []float64          `json:"voltage"`
	Metrics        map[string]float64 `json:"metrics"`
}

// ExportJSON writes one firing as a single JSON document.
func ExportJSON(w io.Writer, cfg coilgun.SolverConfig, tr *coilgun.Trajectory, metrics map[string]float64) error {
	data := ExportData{
		Method:         cfg.Method,
		MaxTime:        cfg.MaxTime,
		Samples:        tr.Len(),
		DischargeEvent: tr.DischargeEvent,
		DecayEvent:     tr.DecayEvent,
		Times:          tr.Time,
		Position:       tr.Position,
		Velocity:       tr.Velocity,
		Current:        tr.Current,
		Voltage:        tr.Voltage,
		Metrics:        finiteMetrics(metrics),
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func ExportJSONFile(path string, cfg coilgun.SolverConfig, tr *coilgun.Trajectory, metrics map[string]float64) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return ExportJSON(file, cfg, tr, metrics)
}
