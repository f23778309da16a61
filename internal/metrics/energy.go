package metrics

import (
	"math"

	"github.com/san-kum/coilgun/internal/dynamo"
)

func KineticEnergy(mass, velocity float64) float64 {
	return 0.5 * mass * velocity * velocity
}

func CapacitorEnergy(capacitance, voltage float64) float64 {
	return 0.5 * capacitance * voltage * voltage
}

// Efficiency is the kinetic energy gained by the projectile divided by the
// energy released by the capacitor bank. No released energy yields zero.
func Efficiency(v0, v1, voltage0, voltage1, mass, capacitance float64) float64 {
	gained := KineticEnergy(mass, v1) - KineticEnergy(mass, v0)
	released := math.Abs(CapacitorEnergy(capacitance, voltage0) - CapacitorEnergy(capacitance, voltage1))
	if released == 0 {
		return 0
	}
	return gained / released
}

// KineticGain tracks the kinetic energy gained between the first and the
// latest observed sample.
type KineticGain struct {
	name     string
	mass     float64
	index    int
	initial  float64
	current  float64
	observed bool
}

// NewKineticGain observes the velocity at state index velocityIndex.
func NewKineticGain(mass float64, velocityIndex int) *KineticGain {
	return &KineticGain{
		name:  "kinetic_gain",
		mass:  mass,
		index: velocityIndex,
	}
}

func (k *KineticGain) Name() string { return k.name }

func (k *KineticGain) Observe(x dynamo.State, t float64) {
	if k.index >= len(x) {
		return
	}
	e := KineticEnergy(k.mass, x[k.index])
	if !k.observed {
		k.initial = e
		k.observed = true
	}
	k.current = e
}

func (k *KineticGain) Value() float64 {
	return k.current - k.initial
}

func (k *KineticGain) Reset() {
	k.initial = 0
	k.current = 0
	k.observed = false
}
