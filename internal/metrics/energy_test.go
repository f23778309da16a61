package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/coilgun/internal/dynamo"
)

func TestEfficiency(t *testing.T) {
	tests := []struct {
		name                       string
		v0, v1, volt0, volt1, m, c float64
		want                       float64
	}{
		{"unit", 0, 1, 0, 1, 1, 1, 1},
		{"no kinetic gain", 1, 1, 0, 1, 1, 1, 0},
		{"double voltage", 0, 1, 0, 2, 1, 1, 0.25},
		{"double capacitance", 0, 1, 0, 1, 1, 2, 0.5},
		{"no energy released", 0, 10, 300, 300, 1, 1, 0},
		{"discharge", 0, 10, 300, 0, 8e-3, 1600e-6, 0.4 / 72},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Efficiency(tt.v0, tt.v1, tt.volt0, tt.volt1, tt.m, tt.c)
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("Efficiency = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestKineticGain(t *testing.T) {
	m := NewKineticGain(2.0, 1)

	m.Observe(dynamo.State{0, 1}, 0)
	m.Observe(dynamo.State{0, 2}, 1)
	m.Observe(dynamo.State{0, 3}, 2)

	if got := m.Value(); math.Abs(got-8) > 1e-12 {
		t.Errorf("expected gain 8, got %f", got)
	}

	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero gain after reset")
	}
}

func TestPeak(t *testing.T) {
	p := NewPeak("peak_current", 2)
	times := []float64{0, 1, 2, 3}
	states := []dynamo.State{
		{0, 0, 0},
		{0, 0, 5},
		{0, 0, -7},
		{0, 0, 1},
	}
	ObserveAll(times, states, p)

	if p.Value() != 7 || p.Time() != 2 {
		t.Errorf("peak = %v at %v, want 7 at 2", p.Value(), p.Time())
	}
}

func TestJouleLoss(t *testing.T) {
	j := NewJouleLoss(2.0, 0)

	// constant 3 A for 4 s through 2 ohm
	for _, tm := range []float64{0, 1, 2, 4} {
		j.Observe(dynamo.State{3}, tm)
	}
	if got := j.Value(); math.Abs(got-72) > 1e-12 {
		t.Errorf("expected 72 J, got %f", got)
	}

	j.Reset()
	j.Observe(dynamo.State{0}, 0)
	j.Observe(dynamo.State{2}, 1)
	if got := j.Value(); math.Abs(got-4) > 1e-12 {
		t.Errorf("expected 4 J for a linear ramp sample pair, got %f", got)
	}
}
