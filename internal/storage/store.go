// Package storage saves simulated firings on disk, one directory per run
// holding metadata.json, dna.yaml and trajectory.csv.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/san-kum/coilgun/internal/coilgun"
	"github.com/san-kum/coilgun/internal/genome"
)

var ErrMalformedTrajectory = errors.New("storage: malformed trajectory")

var trajectoryHeader = []string{"time", "position", "velocity", "current", "current_rate", "voltage"}

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID             string             `json:"id"`
	Label          string             `json:"label"`
	Timestamp      time.Time          `json:"timestamp"`
	Method         string             `json:"method"`
	MaxTime        float64            `json:"max_time"`
	VoltageMode    string             `json:"voltage_mode"`
	Samples        int                `json:"samples"`
	Steps          int                `json:"steps"`
	Rejected       int                `json:"rejected"`
	DischargeEvent string             `json:"discharge_event,omitempty"`
	DecayEvent     string             `json:"decay_event,omitempty"`
	FinalVelocity  float64            `json:"final_velocity"`
	Metrics        map[string]float64 `json:"metrics"`
}

// Save writes a new run and returns its id.
func (s *Store) Save(label string, dna *genome.DNA, cfg coilgun.SolverConfig, tr *coilgun.Trajectory, metrics map[string]float64) (string, error) {
	runID := uuid.NewString()
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:             runID,
		Label:          label,
		Timestamp:      time.Now(),
		Method:         cfg.Method,
		MaxTime:        cfg.MaxTime,
		VoltageMode:    cfg.VoltageMode,
		Samples:        tr.Len(),
		Steps:          tr.Steps,
		Rejected:       tr.Rejected,
		DischargeEvent: tr.DischargeEvent,
		DecayEvent:     tr.DecayEvent,
		FinalVelocity:  tr.FinalVelocity(),
		Metrics:        finiteMetrics(metrics),
	}

	if err := writeJSON(filepath.Join(runDir, "metadata.json"), meta); err != nil {
		return "", err
	}
	if dna != nil {
		if err := dna.Save(filepath.Join(runDir, "dna.yaml")); err != nil {
			return "", err
		}
	}

	f, err := os.Create(filepath.Join(runDir, "trajectory.csv"))
	if err != nil {
		return "", err
	}
	defer f.Close()
	if err := WriteCSV(f, tr); err != nil {
		return "", err
	}
	return runID, nil
}

// JSON cannot hold NaN.
func finiteMetrics(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out[k] = v
		}
	}
	return out
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteCSV writes the trajectory samples with a header row.
func WriteCSV(w io.Writer, tr *coilgun.Trajectory) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(trajectoryHeader); err != nil {
		return err
	}
	format := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	for i := 0; i < tr.Len(); i++ {
		row := []string{
			format(tr.Time[i]),
			format(tr.Position[i]),
			format(tr.Velocity[i]),
			format(tr.Current[i]),
			format(tr.CurrentDerivative[i]),
			format(tr.Voltage[i]),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses a trajectory written by WriteCSV. Event and step counts
// are not part of the CSV and stay zero.
func ReadCSV(r io.Reader) (*coilgun.Trajectory, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(trajectoryHeader)

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedTrajectory, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: missing header", ErrMalformedTrajectory)
	}

	tr := &coilgun.Trajectory{}
	series := []*[]float64{&tr.Time, &tr.Position, &tr.Velocity, &tr.Current, &tr.CurrentDerivative, &tr.Voltage}
	for line, record := range records[1:] {
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedTrajectory, line+2, err)
			}
			*series[j] = append(*series[j], v)
		}
	}
	tr.DischargeEnd = tr.Len() - 1
	return tr, nil
}

// List returns every readable run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *Store) LoadTrajectory(runID string) (*coilgun.Trajectory, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, "trajectory.csv"))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCSV(f)
}

func (s *Store) LoadDNA(runID string) (*genome.DNA, error) {
	return genome.ReadDNA(filepath.Join(s.baseDir, runID, "dna.yaml"))
}
