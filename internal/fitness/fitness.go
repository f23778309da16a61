// Package fitness scores coilgun genomes by the energy efficiency of one
// simulated shot.
package fitness

import (
	"context"
	"errors"
	"math"

	"github.com/san-kum/coilgun/internal/coilgun"
	"github.com/san-kum/coilgun/internal/dynamo"
	"github.com/san-kum/coilgun/internal/genome"
	"github.com/san-kum/coilgun/internal/metrics"
)

// Coil evaluates genomes with the ODE coilgun model.
type Coil struct {
	Solver coilgun.SolverConfig
}

func NewCoil(cfg coilgun.SolverConfig) *Coil {
	return &Coil{Solver: cfg}
}

// Report is the outcome of one shot.
type Report struct {
	Gun        *coilgun.Coilgun
	Trajectory *coilgun.Trajectory
	Efficiency float64
	Metrics    map[string]float64
}

// Evaluate returns the efficiency of the genome's shot. Genomes that cannot
// be decoded are an error; genomes that decode but cannot be simulated
// score NaN.
func (c *Coil) Evaluate(ctx context.Context, dna *genome.DNA) (float64, error) {
	r, err := c.Run(ctx, dna)
	if err != nil {
		if degenerate(err) {
			return math.NaN(), nil
		}
		return math.NaN(), err
	}
	return r.Efficiency, nil
}

// Run simulates the genome and keeps the full trajectory.
func (c *Coil) Run(ctx context.Context, dna *genome.DNA) (*Report, error) {
	gun, err := coilgun.FromDNA(dna)
	if err != nil {
		return nil, err
	}

	tr, err := coilgun.Simulate(ctx, gun, c.Solver)
	if err != nil {
		return nil, err
	}

	eff := metrics.Efficiency(
		tr.Velocity[0], tr.FinalVelocity(),
		tr.Voltage[0], tr.FinalVoltage(),
		gun.Projectile.Mass, gun.Source.Capacitance,
	)

	peakCurrent := metrics.NewPeak("peak_current", coilgun.IdxCurrent)
	peakVelocity := metrics.NewPeak("peak_velocity", coilgun.IdxVelocity)
	loss := metrics.NewJouleLoss(gun.Coil.Resistance(), coilgun.IdxCurrent)
	gain := metrics.NewKineticGain(gun.Projectile.Mass, coilgun.IdxVelocity)
	ms := []metrics.Metric{peakCurrent, peakVelocity, loss, gain}
	metrics.ObserveAll(tr.Time, tr.States(), ms...)

	report := &Report{
		Gun:        gun,
		Trajectory: tr,
		Efficiency: eff,
		Metrics:    make(map[string]float64, len(ms)),
	}
	for _, m := range ms {
		report.Metrics[m.Name()] = m.Value()
	}
	return report, nil
}

// degenerate reports errors of genomes that are valid input but describe
// no working coilgun.
func degenerate(err error) bool {
	return errors.Is(err, coilgun.ErrNonPhysical) ||
		errors.Is(err, dynamo.ErrInvalidState) ||
		errors.Is(err, dynamo.ErrStepTooSmall)
}
