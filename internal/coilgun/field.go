package coilgun

import (
	"math"

	"github.com/san-kum/coilgun/internal/inductance"
)

// Solenoid is a single-layer coil. Its inductance model is centred at
// x=0 while its field is measured from the first turn at z=0.
type Solenoid struct {
	CoilLength  float64 // [m]
	Radius      float64 // [m]
	Turns       float64 // [-]
	Resistivity float64 // [Ohm·m]
	WireArea    float64 // [m²] cross-section of the wire
}

func (s *Solenoid) Length() float64 {
	return s.CoilLength
}

func (s *Solenoid) Resistance() float64 {
	wire := s.Turns * 2 * math.Pi * s.Radius
	return s.Resistivity * wire / s.WireArea
}

func (s *Solenoid) InductanceModel(muR float64) inductance.Model {
	return inductance.FromGeometry(muR, s.Turns, s.Radius, s.CoilLength)
}

func (s *Solenoid) BField(current, z float64) float64 {
	z0 := z - s.CoilLength/2
	half := s.CoilLength / 2
	r2 := s.Radius * s.Radius

	cos1 := (half - z0) / math.Sqrt(r2+(half-z0)*(half-z0))
	cos2 := (half + z0) / math.Sqrt(r2+(half+z0)*(half+z0))

	return inductance.Mu0 * s.Turns * current * (cos1 + cos2) / (2 * s.CoilLength)
}

// BFieldGradient is dB/dz on the axis.
func (s *Solenoid) BFieldGradient(current, z float64) float64 {
	z0 := z - s.CoilLength/2
	half := s.CoilLength / 2
	r2 := s.Radius * s.Radius

	d1 := -r2 / math.Pow(r2+(half-z0)*(half-z0), 1.5)
	d2 := r2 / math.Pow(r2+(half+z0)*(half+z0), 1.5)

	return inductance.Mu0 * s.Turns * current * (d1 + d2) / (2 * s.CoilLength)
}

// GeometryCoil stacks layers of circular turns; Layers[i] turns are wound
// at axial slot i. Dimensions are in millimetres.
type GeometryCoil struct {
	Layers        []int
	InnerDiameter float64 // [mm]
	WireDiameter  float64 // [mm]
	Resistivity   float64 // [Ohm·mm]
}

func (g *GeometryCoil) Length() float64 {
	return g.WireDiameter * float64(len(g.Layers))
}

// Resistance sums the arithmetic series of turn circumferences in each slot.
func (g *GeometryCoil) Resistance() float64 {
	a1 := g.InnerDiameter + g.WireDiameter
	d := 2 * g.WireDiameter
	wire := 0.0
	for _, n := range g.Layers {
		fn := float64(n)
		wire += fn * (2*a1 + (fn-1)*d)
	}
	wire *= math.Pi / 2
	area := math.Pi * g.WireDiameter * g.WireDiameter / 4
	return g.Resistivity * wire / area
}

// BField superposes the on-axis field of current loops at z [mm].
//
// Each slot's contribution is multiplied by sign(dz), which flips the field
// on one side of every slot. This is not how the axial field of a loop
// behaves; it is kept for compatibility with existing results and must
// not be treated as verified.
func (g *GeometryCoil) BField(current, z float64) float64 {
	b := 0.0
	for i, n := range g.Layers {
		dz := (float64(i)*g.WireDiameter - z) * 1e-3
		sum := 0.0
		for k := 0; k < n; k++ {
			a := (g.InnerDiameter + g.WireDiameter*float64(2*k+1)) / 2 * 1e-3
			sum += a * a / math.Pow(dz*dz+a*a, 1.5)
		}
		b += Sign(dz) * inductance.Mu0 * current * sum / 2
	}
	return b
}

// Sign is 1 for non-negative numbers and -1 otherwise.
func Sign(a float64) float64 {
	if a >= 0 {
		return 1
	}
	return -1
}
