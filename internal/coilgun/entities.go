package coilgun

import (
	"fmt"
	"math"

	"github.com/san-kum/coilgun/internal/genome"
	"github.com/san-kum/coilgun/internal/inductance"
)

// Gene names read by FromDNA.
const (
	GeneMuR           = "projectile_mu_r"
	GeneTurns         = "solenoid_turns"
	GeneRadius        = "solenoid_radius"
	GeneLength        = "solenoid_length"
	GeneResistivity   = "solenoid_resistivity"
	GeneWireArea      = "wire_cross_sectional_area"
	GeneCapacitance   = "capacitance"
	GeneVoltage       = "capacitance_voltage"
	GeneMass          = "projectile_mass"
	GeneStartPosition = "projectile_start_pos"
	GeneVelocity      = "projectile_velocity"
	GeneEndPosition   = "projectile_end_pos"
)

// RequiredGenes lists the genes every coilgun genome must carry.
var RequiredGenes = []string{
	GeneMuR, GeneTurns, GeneRadius, GeneLength, GeneResistivity, GeneWireArea,
	GeneCapacitance, GeneVoltage, GeneMass, GeneStartPosition, GeneVelocity,
}

// Coil is anything that produces an axial field from a current.
type Coil interface {
	Length() float64
	Resistance() float64
	BField(current, z float64) float64
}

// InductiveCoil can also report how its inductance depends on a core.
type InductiveCoil interface {
	Coil
	InductanceModel(muR float64) inductance.Model
}

// CapacitorBank is the only power source: a charged capacitor isolated by a
// diode once it is empty.
type CapacitorBank struct {
	Capacitance float64 // [F]
	Voltage     float64 // [V] initial voltage
}

func (b CapacitorBank) Energy() float64 {
	return 0.5 * b.Capacitance * b.Voltage * b.Voltage
}

type Projectile struct {
	Mass     float64 // [kg]
	MuR      float64 // [-] relative permeability of the core
	Start    float64 // [m] initial position, coil centre at 0
	Velocity float64 // [m/s] initial velocity
	// End stops the simulation when the projectile passes it. Nil runs
	// until the time limit or the capacitor is empty.
	End *float64
}

type Coilgun struct {
	Coil       InductiveCoil
	Source     CapacitorBank
	Projectile Projectile
}

// FromDNA decodes a genome into a fresh coilgun. Variant tags are resolved
// before any gene is read.
func FromDNA(d *genome.DNA) (*Coilgun, error) {
	coilKind, err := parseKind(d, CoilTypeTag, coilKinds, SolenoidCoil)
	if err != nil {
		return nil, err
	}
	sourceKind, err := parseKind(d, PowerSourceTypeTag, powerSourceKinds, CapacitorBankSource)
	if err != nil {
		return nil, err
	}
	projectileKind, err := parseKind(d, ProjectileTypeTag, projectileKinds, FerromagneticProjectile)
	if err != nil {
		return nil, err
	}

	g := genes{dna: d}
	gun := &Coilgun{}

	switch coilKind {
	case SolenoidCoil:
		gun.Coil = &Solenoid{
			CoilLength:  g.get(GeneLength),
			Radius:      g.get(GeneRadius),
			Turns:       g.get(GeneTurns),
			Resistivity: g.get(GeneResistivity),
			WireArea:    g.get(GeneWireArea),
		}
	}

	switch sourceKind {
	case CapacitorBankSource:
		gun.Source = CapacitorBank{
			Capacitance: g.get(GeneCapacitance),
			Voltage:     g.get(GeneVoltage),
		}
	}

	switch projectileKind {
	case FerromagneticProjectile:
		gun.Projectile = Projectile{
			Mass:     g.get(GeneMass),
			MuR:      g.get(GeneMuR),
			Start:    g.get(GeneStartPosition),
			Velocity: g.get(GeneVelocity),
		}
		if end, ok := d.Get(GeneEndPosition); ok {
			gun.Projectile.End = &end
		}
	}

	if g.err != nil {
		return nil, g.err
	}
	return gun, nil
}

// genes reads required genes and remembers the first missing one.
type genes struct {
	dna *genome.DNA
	err error
}

func (g *genes) get(name string) float64 {
	v, ok := g.dna.Get(name)
	if !ok && g.err == nil {
		g.err = fmt.Errorf("%w: %s", genome.ErrMissingParameter, name)
	}
	return v
}

// Validate rejects parameters that would divide by zero or make the model
// meaningless.
func (c *Coilgun) Validate() error {
	if c.Coil == nil {
		return fmt.Errorf("%w: no coil", ErrNonPhysical)
	}
	checks := []struct {
		name  string
		value float64
	}{
		{"coil length", c.Coil.Length()},
		{"capacitance", c.Source.Capacitance},
		{"projectile mass", c.Projectile.Mass},
	}
	for _, ch := range checks {
		if !(ch.value > 0) || math.IsInf(ch.value, 0) {
			return fmt.Errorf("%w: %s must be positive, got %g", ErrNonPhysical, ch.name, ch.value)
		}
	}
	if r := c.Coil.Resistance(); !(r >= 0) || math.IsInf(r, 0) {
		return fmt.Errorf("%w: coil resistance %g", ErrNonPhysical, r)
	}
	if s, ok := c.Coil.(*Solenoid); ok {
		if !(s.Radius > 0) || !(s.Turns > 0) {
			return fmt.Errorf("%w: solenoid radius and turns must be positive", ErrNonPhysical)
		}
	}
	if l := c.Coil.InductanceModel(c.Projectile.MuR).Inductance(c.Projectile.Start); !(l > 0) {
		return fmt.Errorf("%w: inductance %g at start position", ErrNonPhysical, l)
	}
	return nil
}
