package inductance

import (
	"math"
	"testing"
)

func sample() Model {
	return New(2.0, 3.0, 4.0, 5.0, 6.0)
}

func TestInductance(t *testing.T) {
	m := sample()

	if got := m.Inductance(4); got != 8 {
		t.Errorf("L(4) = %v, want exactly 8", got)
	}
	if got := m.Inductance(4.1); math.Abs(got-7.999940000899991) > 1e-7 {
		t.Errorf("L(4.1) = %.15f, want 7.999940000899991", got)
	}
}

func TestDerivative(t *testing.T) {
	m := sample()

	tests := []struct {
		x    float64
		want float64
	}{
		{3.9, 0.0029999100013500},
		{4.1, -0.0029999100013500},
	}
	for _, tt := range tests {
		if got := m.Derivative(tt.x); math.Abs(got-tt.want) > 1e-10 {
			t.Errorf("dL/dx(%v) = %.15f, want %.15f", tt.x, got, tt.want)
		}
	}

	if got := m.Derivative(4); got != 0 {
		t.Errorf("dL/dx(4) = %v, want exactly 0", got)
	}
}

func TestDerivativeAntisymmetric(t *testing.T) {
	m := FromGeometry(5, 500, 10e-3, 50e-3)

	for _, dx := range []float64{1e-4, 5e-3, 2e-2, 0.1} {
		left, right := m.Derivative(-dx), m.Derivative(dx)
		if math.Abs(left+right) > 1e-12*math.Abs(left) {
			t.Errorf("dL/dx(-%v)=%v and dL/dx(%v)=%v are not antisymmetric", dx, left, dx, right)
		}
		if left <= 0 {
			t.Errorf("inductance should increase towards the centre, dL/dx(-%v)=%v", dx, left)
		}
	}
}

func TestDerivativeAtCentreSubQuadratic(t *testing.T) {
	m := New(1, 1, 0, 1.5, 0)
	if got := m.Derivative(0); got != 0 {
		t.Errorf("dL/dx(C) = %v, want 0 for D < 2", got)
	}
}

func TestDerivativeMatchesFiniteDifference(t *testing.T) {
	m := FromGeometry(5, 500, 10e-3, 50e-3)
	h := 1e-7

	for _, x := range []float64{-0.04, -0.01, 0.003, 0.02} {
		numeric := (m.Inductance(x+h) - m.Inductance(x-h)) / (2 * h)
		if rel := math.Abs(numeric-m.Derivative(x)) / math.Abs(numeric); rel > 1e-5 {
			t.Errorf("x=%v analytic %v vs numeric %v (rel %e)", x, m.Derivative(x), numeric, rel)
		}
	}
}

func TestFromGeometry(t *testing.T) {
	muR, n, r, l := 5.0, 500.0, 10e-3, 50e-3
	m := FromGeometry(muR, n, r, l)

	unloaded := Mu0 * n * n * math.Pi * r * r / l
	if math.Abs(m.E-unloaded) > 1e-15 {
		t.Errorf("E = %v, want %v", m.E, unloaded)
	}
	if math.Abs(m.A-(muR-1)*unloaded) > 1e-15 {
		t.Errorf("A = %v, want %v", m.A, (muR-1)*unloaded)
	}
	if m.C != 0 || m.D != DefaultExponent {
		t.Errorf("C, D = %v, %v", m.C, m.D)
	}

	// At the coil ends the exponential has decayed to 1/e of the centre value.
	centre := m.Inductance(0) - m.E
	end := m.Inductance(l/2) - m.E
	if math.Abs(end/centre-math.Exp(-1)) > 1e-12 {
		t.Errorf("decay at half-length = %v, want 1/e", end/centre)
	}
	if math.Abs(m.Inductance(0)-muR*unloaded) > 1e-15 {
		t.Errorf("loaded inductance %v, want %v", m.Inductance(0), muR*unloaded)
	}
}
