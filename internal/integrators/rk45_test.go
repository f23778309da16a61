package integrators

import (
	"math"
	"testing"

	"github.com/san-kum/coilgun/internal/dynamo"
)

type harmonicOscillator struct{}

func (h *harmonicOscillator) StateDim() int { return 2 }

func (h *harmonicOscillator) Derive(x dynamo.State, t float64) dynamo.State {
	return dynamo.State{x[1], -x[0]}
}

func (h *harmonicOscillator) Energy(x dynamo.State) float64 {
	return 0.5 * (x[0]*x[0] + x[1]*x[1])
}

func TestRK45_Step(t *testing.T) {
	integrator := NewRK45()
	dyn := &harmonicOscillator{}
	x := dynamo.State{1.0, 0.0}
	dt := 0.01

	for i := 0; i < 1000; i++ {
		x = integrator.Step(dyn, x, float64(i)*dt, dt)
	}

	if !x.IsValid() {
		t.Error("RK45 produced invalid state")
	}

	want := math.Cos(10.0)
	if math.Abs(x[0]-want) > 1e-8 {
		t.Errorf("position after 10s: got %.10f, want %.10f", x[0], want)
	}
}

func TestRK45_EnergyConservation(t *testing.T) {
	integrator := NewRK45()
	dyn := &harmonicOscillator{}
	x0 := dynamo.State{1.0, 0.0}

	initialEnergy := dyn.Energy(x0)
	x := x0.Clone()
	dt := 0.01

	for i := 0; i < 10000; i++ {
		x = integrator.Step(dyn, x, float64(i)*dt, dt)
	}

	drift := math.Abs(dyn.Energy(x)-initialEnergy) / initialEnergy
	if drift > 1e-6 {
		t.Errorf("RK45 energy drift too high: %e", drift)
	}
}

func TestRK45_AttemptRejectsLargeStep(t *testing.T) {
	integrator := NewRK45WithTolerance(1e-10, 1e-12)
	dyn := &harmonicOscillator{}
	x0 := dynamo.State{1.0, 0.0}

	_, big := integrator.Attempt(dyn, x0, 0, 1.0)
	if big <= 1 {
		t.Errorf("expected a 1s step to be rejected at tight tolerance, norm=%e", big)
	}

	_, small := integrator.Attempt(dyn, x0, 0, 1e-4)
	if small > 1 {
		t.Errorf("expected a 1e-4s step to be accepted, norm=%e", small)
	}
}

func TestRK45_NextStep(t *testing.T) {
	integrator := NewRK45()

	tests := []struct {
		name    string
		errNorm float64
		check   func(float64) bool
	}{
		{"zero error grows to max", 0, func(dt float64) bool { return dt == 10 }},
		{"small error grows", 1e-6, func(dt float64) bool { return dt > 1 && dt <= 10 }},
		{"large error shrinks", 100, func(dt float64) bool { return dt < 1 && dt >= 0.2 }},
		{"nan error shrinks to min", math.NaN(), func(dt float64) bool { return dt == 0.2 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := integrator.NextStep(1, tt.errNorm); !tt.check(got) {
				t.Errorf("NextStep(1, %v) = %v", tt.errNorm, got)
			}
		})
	}
}

func TestRK45_VsRK4_Accuracy(t *testing.T) {
	rk4 := NewRK4()
	rk45 := NewRK45()
	dyn := &harmonicOscillator{}
	x0 := dynamo.State{1.0, 0.0}

	x4 := x0.Clone()
	x45 := x0.Clone()
	dt := 0.1

	for i := 0; i < 100; i++ {
		x4 = rk4.Step(dyn, x4, float64(i)*dt, dt)
		x45 = rk45.Step(dyn, x45, float64(i)*dt, dt)
	}

	t.Logf("RK4 final: [%.6f, %.6f]", x4[0], x4[1])
	t.Logf("RK45 final: [%.6f, %.6f]", x45[0], x45[1])

	e4 := dyn.Energy(x4)
	e45 := dyn.Energy(x45)

	if math.Abs(e45-0.5) > math.Abs(e4-0.5) {
		t.Log("Warning: RK45 not more accurate than RK4 for this case")
	}
}
