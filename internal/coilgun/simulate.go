package coilgun

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/integrate"

	"github.com/san-kum/coilgun/internal/dynamo"
	"github.com/san-kum/coilgun/internal/integrators"
	"github.com/san-kum/coilgun/internal/sim"
)

// Voltage reconstruction modes.
const (
	// VoltageTracked reads the capacitor voltage from the state vector.
	VoltageTracked = "tracked"
	// VoltageIntegrated rebuilds it as V0 - ∫I dt / C with the trapezoidal
	// rule over the solver samples.
	VoltageIntegrated = "integrated"
)

const DefaultDecayCutoff = 1e-3

type SolverConfig struct {
	// MaxTime bounds each phase [s].
	MaxTime float64
	// MinimumSteps bounds the step to MaxTime/MinimumSteps; zero leaves
	// the step unbounded.
	MinimumSteps int
	Method       string
	RelTol       float64
	AbsTol       float64
	VoltageMode  string
	// FreeDecay continues with the isolated coil after the discharge.
	FreeDecay bool
	// DecayCutoff ends the free decay once |I| < DecayCutoff·|I0|.
	DecayCutoff float64
}

func DefaultSolverConfig() SolverConfig {
	return SolverConfig{
		MaxTime:      0.003,
		MinimumSteps: 100,
		Method:       "rk45",
		RelTol:       integrators.DefaultRelTol,
		AbsTol:       integrators.DefaultAbsTol,
		VoltageMode:  VoltageTracked,
		FreeDecay:    true,
		DecayCutoff:  DefaultDecayCutoff,
	}
}

func (c SolverConfig) Validate() error {
	if !(c.MaxTime > 0) {
		return fmt.Errorf("%w: max time must be positive, got %g", dynamo.ErrInvalidConfig, c.MaxTime)
	}
	if c.MinimumSteps < 0 {
		return fmt.Errorf("%w: minimum steps must not be negative", dynamo.ErrInvalidConfig)
	}
	switch c.VoltageMode {
	case "", VoltageTracked, VoltageIntegrated:
	default:
		return fmt.Errorf("%w: unknown voltage mode %q", dynamo.ErrInvalidConfig, c.VoltageMode)
	}
	if c.DecayCutoff < 0 || c.DecayCutoff >= 1 {
		return fmt.Errorf("%w: decay cutoff must be in [0, 1)", dynamo.ErrInvalidConfig)
	}
	return nil
}

// Trajectory is the aligned time series of one firing. Samples up to and
// including DischargeEnd belong to the discharge phase.
type Trajectory struct {
	Time              []float64
	Position          []float64
	Velocity          []float64
	Current           []float64
	Voltage           []float64
	CurrentDerivative []float64

	DischargeEnd   int
	DischargeEvent string
	DecayEvent     string
	Steps          int
	Rejected       int
}

func (tr *Trajectory) Len() int {
	return len(tr.Time)
}

func (tr *Trajectory) last(series []float64) float64 {
	if len(series) == 0 {
		return 0
	}
	return series[len(series)-1]
}

func (tr *Trajectory) FinalVelocity() float64 { return tr.last(tr.Velocity) }
func (tr *Trajectory) FinalVoltage() float64  { return tr.last(tr.Voltage) }
func (tr *Trajectory) FinalPosition() float64 { return tr.last(tr.Position) }
func (tr *Trajectory) Duration() float64      { return tr.last(tr.Time) }

// States returns the samples as [x, v, I, dI/dt, V] vectors.
func (tr *Trajectory) States() []dynamo.State {
	out := make([]dynamo.State, tr.Len())
	for i := range out {
		out[i] = dynamo.State{tr.Position[i], tr.Velocity[i], tr.Current[i], tr.CurrentDerivative[i], tr.Voltage[i]}
	}
	return out
}

// Simulate fires the coilgun. The discharge phase runs until the bank is
// empty, the projectile passes its end position or MaxTime elapses. After
// an empty bank the free decay phase continues from the final discharge
// state for at most another MaxTime.
func Simulate(ctx context.Context, gun *Coilgun, cfg SolverConfig) (*Trajectory, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := gun.Validate(); err != nil {
		return nil, err
	}

	model := gun.Coil.InductanceModel(gun.Projectile.MuR)
	resistance := gun.Coil.Resistance()
	simCfg := sim.DefaultConfig()
	simCfg.MaxTime = cfg.MaxTime
	simCfg.MaxStep = sim.MaxStepFor(cfg.MaxTime, cfg.MinimumSteps)

	solver, err := newSolver(cfg)
	if err != nil {
		return nil, err
	}

	discharge := &Discharge{
		Model:       model,
		Resistance:  resistance,
		Capacitance: gun.Source.Capacitance,
		Mass:        gun.Projectile.Mass,
	}
	x0 := discharge.InitialState(gun.Projectile.Start, gun.Projectile.Velocity, gun.Source.Voltage)

	var events []dynamo.Event
	if gun.Projectile.End != nil {
		events = append(events, EndPosition(*gun.Projectile.End))
	}
	events = append(events, CapacitorEmpty())

	first, err := solver.Solve(ctx, discharge, x0, simCfg, events...)
	if err != nil {
		return nil, fmt.Errorf("discharge: %w", err)
	}

	tr := &Trajectory{
		Time:              append([]float64(nil), first.Times...),
		Position:          first.Column(IdxPosition),
		Velocity:          first.Column(IdxVelocity),
		Current:           first.Column(IdxCurrent),
		CurrentDerivative: first.Column(IdxCurrentRate),
		Voltage:           first.Column(IdxVoltage),
		DischargeEvent:    first.Event,
		Steps:             first.StepsTaken,
		Rejected:          first.Rejected,
	}
	if cfg.VoltageMode == VoltageIntegrated {
		tr.Voltage = integratedVoltage(gun.Source.Voltage, gun.Source.Capacitance, tr.Time, tr.Current)
	}
	tr.DischargeEnd = tr.Len() - 1

	// The bank is only isolated by the diode once it is empty. Reaching the
	// end position or the time limit ends the shot.
	if !cfg.FreeDecay || first.Event != EventCapacitorEmpty {
		return tr, nil
	}

	tEnd, xEnd := first.Final()
	i0 := xEnd[IdxCurrent]
	if i0 == 0 {
		return tr, nil
	}

	decay := &FreeDecay{Model: model, Resistance: resistance, Mass: gun.Projectile.Mass}
	events = events[:0]
	if gun.Projectile.End != nil {
		events = append(events, EndPosition(*gun.Projectile.End))
	}
	if cfg.DecayCutoff > 0 {
		events = append(events, CurrentDecayed(i0, cfg.DecayCutoff))
	}

	second, err := solver.Solve(ctx, decay, dynamo.State{xEnd[IdxPosition], xEnd[IdxVelocity], i0}, simCfg, events...)
	if err != nil {
		return nil, fmt.Errorf("free decay: %w", err)
	}

	tr.DecayEvent = second.Event
	tr.Steps += second.StepsTaken
	tr.Rejected += second.Rejected
	vEnd := tr.last(tr.Voltage)
	// The first sample repeats the last discharge sample.
	if len(second.States) < 2 {
		return tr, nil
	}
	tr.Position = append(tr.Position, second.Column(IdxPosition)[1:]...)
	tr.Velocity = append(tr.Velocity, second.Column(IdxVelocity)[1:]...)
	tr.Current = append(tr.Current, second.Column(IdxCurrent)[1:]...)
	for i := 1; i < len(second.States); i++ {
		tr.Time = append(tr.Time, tEnd+second.Times[i])
		tr.CurrentDerivative = append(tr.CurrentDerivative, decay.Derive(second.States[i], second.Times[i])[IdxCurrent])
		tr.Voltage = append(tr.Voltage, vEnd)
	}
	return tr, nil
}

func newSolver(cfg SolverConfig) (*sim.Solver, error) {
	stepper, err := integrators.New(cfg.Method, cfg.RelTol, cfg.AbsTol)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", dynamo.ErrInvalidConfig, err)
	}
	return sim.New(stepper), nil
}

// integratedVoltage is V0 - (1/C)·∫I dt, accumulated pairwise.
func integratedVoltage(v0, capacitance float64, t, current []float64) []float64 {
	out := make([]float64, len(t))
	if len(t) == 0 {
		return out
	}
	out[0] = v0
	charge := 0.0
	for i := 1; i < len(t); i++ {
		charge += integrate.Trapezoidal(t[i-1:i+1], current[i-1:i+1])
		out[i] = v0 - charge/capacitance
	}
	return out
}
