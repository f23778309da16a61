// Package inductance models the self-inductance of a coil as a function of
// the position of a ferromagnetic core:
//
//	L(x) = A·exp(-B·|x-C|^D) + E
package inductance

import "math"

// Mu0 is the vacuum permeability [H/m].
const Mu0 = 4e-7 * math.Pi

// DefaultExponent is the empirically fitted shape exponent D.
const DefaultExponent = 2.06

type Model struct {
	A float64 // [H] inductance increase with the core centred in the coil
	B float64 // [m^-D] decay rate
	C float64 // [m] position of the coil centre
	D float64 // [-] shape exponent
	E float64 // [H] unloaded inductance
}

func New(a, b, c, d, e float64) Model {
	return Model{A: a, B: b, C: c, D: d, E: e}
}

// FromGeometry derives the model from the core permeability and the coil
// geometry. The coil is centred at x=0 and the model decays to the unloaded
// inductance at roughly half the coil length.
func FromGeometry(muR, turns, radius, length float64) Model {
	e := Solenoid(Mu0, turns, radius, length)
	d := DefaultExponent
	return Model{
		A: e*muR - e,
		B: math.Pow(length/2, -d),
		C: 0,
		D: d,
		E: e,
	}
}

// Solenoid is the long-solenoid inductance mu·N²·πr²/l.
func Solenoid(mu, turns, radius, length float64) float64 {
	return mu * turns * turns * math.Pi * radius * radius / length
}

func (m Model) Inductance(x float64) float64 {
	return m.A*math.Exp(-m.B*math.Pow(math.Abs(x-m.C), m.D)) + m.E
}

// Derivative is dL/dx. It is exactly zero at x == C, where the factor
// (x-C) cancels the singular |x-C|^(D-2) term.
func (m Model) Derivative(x float64) float64 {
	xc := x - m.C
	if xc == 0 {
		return 0
	}
	abs := math.Abs(xc)
	return -m.A * m.B * m.D * math.Exp(-m.B*math.Pow(abs, m.D)) * math.Pow(abs, m.D-2) * xc
}
