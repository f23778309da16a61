package sim

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/coilgun/internal/dynamo"
)

const bisectIterations = 60

// Solver integrates a system from t=0 until MaxTime or the first terminal
// event, whichever comes first.
type Solver struct {
	stepper dynamo.Stepper
}

func New(stepper dynamo.Stepper) *Solver {
	return &Solver{stepper: stepper}
}

func (s *Solver) Solve(ctx context.Context, sys dynamo.System, x0 dynamo.State, cfg Config, events ...dynamo.Event) (*Result, error) {
	if err := s.validateConfig(sys, x0, cfg); err != nil {
		return nil, err
	}

	result := &Result{
		States: make([]dynamo.State, 0, 64),
		Times:  make([]float64, 0, 64),
	}

	x := x0.Clone()
	t := 0.0
	dt := s.initialStep(cfg)
	minStep := cfg.MinStep
	if minStep <= 0 {
		minStep = cfg.MaxTime * 1e-14
	}

	result.States = append(result.States, x.Clone())
	result.Times = append(result.Times, t)

	g := make([]float64, len(events))
	for i, ev := range events {
		g[i] = ev.Fn(t, x)
	}

	adaptive, isAdaptive := s.stepper.(dynamo.AdaptiveStepper)

	for t < cfg.MaxTime {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		h := math.Min(dt, cfg.MaxTime-t)
		if cfg.MaxStep > 0 {
			h = math.Min(h, cfg.MaxStep)
		}

		var newX dynamo.State
		if isAdaptive {
			var errNorm float64
			newX, errNorm = adaptive.Attempt(sys, x, t, h)
			if errNorm > 1 {
				result.Rejected++
				dt = adaptive.NextStep(h, errNorm)
				if dt < minStep {
					return result, &dynamo.SimulationError{Step: result.StepsTaken, Time: t, State: x.Clone(), Wrapped: dynamo.ErrStepTooSmall}
				}
				continue
			}
			dt = adaptive.NextStep(h, errNorm)
		} else {
			newX = s.stepper.Step(sys, x, t, h)
		}

		if cfg.ValidateState && !newX.IsValid() {
			return result, &dynamo.SimulationError{Step: result.StepsTaken, Time: t, State: x.Clone(), Wrapped: dynamo.ErrInvalidState}
		}

		hit, hitStep := -1, h
		for i, ev := range events {
			g1 := ev.Fn(t+h, newX)
			if !ev.Crossed(g[i], g1) {
				g[i] = g1
				continue
			}
			at := s.locate(sys, ev, x, t, h, g[i])
			if hit < 0 || at < hitStep {
				hit, hitStep = i, at
			}
		}

		if hit >= 0 {
			if hitStep < h {
				newX = s.stepper.Step(sys, x, t, hitStep)
			}
			t += hitStep
			result.StepsTaken++
			result.States = append(result.States, newX)
			result.Times = append(result.Times, t)
			result.Event = events[hit].Name
			break
		}

		x = newX
		t += h
		result.StepsTaken++
		result.States = append(result.States, x.Clone())
		result.Times = append(result.Times, t)
	}

	return result, nil
}

// locate bisects the step size in (0, h] for the smallest step at which the
// event function has crossed zero. The returned step always lies on the far
// side of the crossing.
func (s *Solver) locate(sys dynamo.System, ev dynamo.Event, x dynamo.State, t, h, g0 float64) float64 {
	lo, hi := 0.0, h
	for i := 0; i < bisectIterations && hi-lo > h*1e-12; i++ {
		mid := 0.5 * (lo + hi)
		xm := s.stepper.Step(sys, x, t, mid)
		if ev.Crossed(g0, ev.Fn(t+mid, xm)) {
			hi = mid
		} else {
			lo = mid
		}
	}
	return hi
}

func (s *Solver) initialStep(cfg Config) float64 {
	dt := cfg.InitialStep
	if dt <= 0 {
		dt = cfg.MaxTime / 1000
	}
	if cfg.MaxStep > 0 && dt > cfg.MaxStep {
		dt = cfg.MaxStep
	}
	return dt
}

func (s *Solver) validateConfig(sys dynamo.System, x0 dynamo.State, cfg Config) error {
	if s.stepper == nil {
		return fmt.Errorf("%w: no stepper", dynamo.ErrInvalidConfig)
	}
	if !(cfg.MaxTime > 0) {
		return fmt.Errorf("%w: max time must be positive, got %g", dynamo.ErrInvalidConfig, cfg.MaxTime)
	}
	if cfg.MaxStep < 0 {
		return fmt.Errorf("%w: max step must not be negative, got %g", dynamo.ErrInvalidConfig, cfg.MaxStep)
	}
	if len(x0) != sys.StateDim() {
		return fmt.Errorf("%w: got %d, want %d", dynamo.ErrDimensionMismatch, len(x0), sys.StateDim())
	}
	return nil
}
