package sim

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/coilgun/internal/dynamo"
	"github.com/san-kum/coilgun/internal/integrators"
)

type decay struct{}

func (d *decay) Derive(x dynamo.State, t float64) dynamo.State {
	return dynamo.State{-x[0]}
}

func (d *decay) StateDim() int { return 1 }

type oscillator struct{}

func (o *oscillator) Derive(x dynamo.State, t float64) dynamo.State {
	return dynamo.State{x[1], -x[0]}
}

func (o *oscillator) StateDim() int { return 2 }

type blowUp struct{}

func (b *blowUp) Derive(x dynamo.State, t float64) dynamo.State {
	return dynamo.State{math.NaN()}
}

func (b *blowUp) StateDim() int { return 1 }

func TestSolverRun(t *testing.T) {
	solver := New(integrators.NewRK45())

	cfg := Config{MaxTime: 1.0, ValidateState: true}
	result, err := solver.Solve(context.Background(), &decay{}, dynamo.State{1.0}, cfg)
	if err != nil {
		t.Fatalf("solve failed: %v", err)
	}

	if len(result.States) != len(result.Times) {
		t.Fatalf("misaligned result: %d states, %d times", len(result.States), len(result.Times))
	}
	if result.Event != "" {
		t.Errorf("expected no event, got %q", result.Event)
	}

	tEnd, xEnd := result.Final()
	if math.Abs(tEnd-1.0) > 1e-12 {
		t.Errorf("expected to end at t=1, got %v", tEnd)
	}
	expected := math.Exp(-1.0)
	if math.Abs(xEnd[0]-expected) > 1e-6 {
		t.Errorf("expected final state ~%.8f, got %.8f", expected, xEnd[0])
	}
}

func TestSolverMaxStep(t *testing.T) {
	solver := New(integrators.NewRK45())

	cfg := Config{MaxTime: 1.0, MaxStep: MaxStepFor(1.0, 200)}
	result, err := solver.Solve(context.Background(), &decay{}, dynamo.State{1.0}, cfg)
	if err != nil {
		t.Fatalf("solve failed: %v", err)
	}

	if len(result.Times) < 201 {
		t.Errorf("expected at least 201 samples, got %d", len(result.Times))
	}
	for i := 1; i < len(result.Times); i++ {
		if h := result.Times[i] - result.Times[i-1]; h > cfg.MaxStep*(1+1e-9) {
			t.Fatalf("step %d of %v exceeds max step %v", i, h, cfg.MaxStep)
		}
	}
}

func TestMaxStepFor(t *testing.T) {
	if got := MaxStepFor(1, 0); got != 0 {
		t.Errorf("expected unbounded step, got %v", got)
	}
	if got := MaxStepFor(0.003, 100); math.Abs(got-3e-5) > 1e-18 {
		t.Errorf("expected 3e-5, got %v", got)
	}
}

// stiffUntil decays fast and turns NaN after t=0.2.
type stiffUntil struct{}

func (s *stiffUntil) Derive(x dynamo.State, t float64) dynamo.State {
	if t > 0.2 {
		return dynamo.State{math.NaN()}
	}
	return dynamo.State{-50 * x[0]}
}

func (s *stiffUntil) StateDim() int { return 1 }

func TestSolverErrorCountsAcceptedSteps(t *testing.T) {
	solver := New(integrators.NewRK45())

	cfg := Config{MaxTime: 1, InitialStep: 0.1, ValidateState: true}
	result, err := solver.Solve(context.Background(), &stiffUntil{}, dynamo.State{1}, cfg)

	var serr *dynamo.SimulationError
	if !errors.As(err, &serr) {
		t.Fatalf("expected SimulationError, got %v", err)
	}
	if !errors.Is(err, dynamo.ErrInvalidState) {
		t.Errorf("expected invalid state, got %v", err)
	}
	if result.Rejected == 0 {
		t.Fatal("expected the oversized first step to be rejected")
	}
	if serr.Step != result.StepsTaken {
		t.Errorf("error step %d, accepted steps %d", serr.Step, result.StepsTaken)
	}
	if serr.Step != len(result.Times)-1 {
		t.Errorf("error step %d, samples %d", serr.Step, len(result.Times))
	}
}

func TestResultColumn(t *testing.T) {
	r := &Result{States: []dynamo.State{{1, 2}, {3, 4}, {5}}}
	col := r.Column(1)
	if len(col) != 3 || col[0] != 2 || col[1] != 4 || col[2] != 0 {
		t.Errorf("Column(1) = %v", col)
	}
}

func TestSolverEvent(t *testing.T) {
	tests := []struct {
		name    string
		stepper dynamo.Stepper
	}{
		{"rk45", integrators.NewRK45()},
		{"rk4", integrators.NewRK4()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			solver := New(tt.stepper)
			// x = cos(t) first reaches zero at pi/2.
			zero := dynamo.Event{
				Name:      "zero",
				Fn:        func(_ float64, x dynamo.State) float64 { return x[0] },
				Direction: dynamo.Falling,
			}

			cfg := Config{MaxTime: 10, MaxStep: 0.01}
			result, err := solver.Solve(context.Background(), &oscillator{}, dynamo.State{1, 0}, cfg, zero)
			if err != nil {
				t.Fatalf("solve failed: %v", err)
			}

			if result.Event != "zero" {
				t.Fatalf("expected zero event, got %q", result.Event)
			}
			tEnd, xEnd := result.Final()
			if math.Abs(tEnd-math.Pi/2) > 1e-6 {
				t.Errorf("event time %v, want %v", tEnd, math.Pi/2)
			}
			if xEnd[0] > 0 {
				t.Errorf("event state must be past the crossing, got x=%v", xEnd[0])
			}
		})
	}
}

func TestSolverEarliestEventWins(t *testing.T) {
	solver := New(integrators.NewRK45())
	late := dynamo.Event{Name: "late", Fn: func(tt float64, _ dynamo.State) float64 { return tt - 0.5 }, Direction: dynamo.Rising}
	early := dynamo.Event{Name: "early", Fn: func(tt float64, _ dynamo.State) float64 { return tt - 0.25 }, Direction: dynamo.Rising}

	result, err := solver.Solve(context.Background(), &decay{}, dynamo.State{1}, Config{MaxTime: 1}, late, early)
	if err != nil {
		t.Fatalf("solve failed: %v", err)
	}
	if result.Event != "early" {
		t.Errorf("expected early event, got %q", result.Event)
	}
}

func TestSolverInvalidConfig(t *testing.T) {
	solver := New(integrators.NewRK45())

	tests := []struct {
		name string
		cfg  Config
		x0   dynamo.State
	}{
		{"zero max time", Config{MaxTime: 0}, dynamo.State{1}},
		{"negative max time", Config{MaxTime: -1}, dynamo.State{1}},
		{"nan max time", Config{MaxTime: math.NaN()}, dynamo.State{1}},
		{"negative max step", Config{MaxTime: 1, MaxStep: -1}, dynamo.State{1}},
		{"wrong dimension", Config{MaxTime: 1}, dynamo.State{1, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := solver.Solve(context.Background(), &decay{}, tt.x0, tt.cfg)
			if err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestSolverInvalidState(t *testing.T) {
	solver := New(integrators.NewRK4())

	_, err := solver.Solve(context.Background(), &blowUp{}, dynamo.State{1}, Config{MaxTime: 1, ValidateState: true})
	if !errors.Is(err, dynamo.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}

	var simErr *dynamo.SimulationError
	if !errors.As(err, &simErr) {
		t.Fatalf("expected SimulationError, got %T", err)
	}
}

func TestSolverCanceled(t *testing.T) {
	solver := New(integrators.NewRK45())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := solver.Solve(ctx, &decay{}, dynamo.State{1}, Config{MaxTime: 1})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
