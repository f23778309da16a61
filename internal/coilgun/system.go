package coilgun

import (
	"math"

	"github.com/san-kum/coilgun/internal/dynamo"
	"github.com/san-kum/coilgun/internal/inductance"
)

// Discharge state indices.
const (
	IdxPosition = iota
	IdxVelocity
	IdxCurrent
	IdxCurrentRate
	IdxVoltage
)

// Discharge is the RLC circuit of the capacitor bank and the coil, coupled
// to the projectile through the position dependent inductance.
type Discharge struct {
	Model       inductance.Model
	Resistance  float64
	Capacitance float64
	Mass        float64
}

func (d *Discharge) StateDim() int {
	return 5
}

func (d *Discharge) Derive(x dynamo.State, t float64) dynamo.State {
	pos, vel, i, di := x[0], x[1], x[2], x[3]
	l := d.Model.Inductance(pos)
	dl := d.Model.Derivative(pos)

	return dynamo.State{
		vel,
		i * i * dl / (2 * d.Mass),
		di,
		-i/(l*d.Capacitance) - d.Resistance*di/l - di*dl*vel/l,
		-i / d.Capacitance,
	}
}

// InitialState starts with a fully charged bank and no current.
func (d *Discharge) InitialState(x0, v0, voltage float64) dynamo.State {
	return dynamo.State{x0, v0, 0, voltage / d.Model.Inductance(x0), voltage}
}

// FreeDecay is the coil current decaying through the coil resistance once
// the bank is isolated. State is [x, v, I].
type FreeDecay struct {
	Model      inductance.Model
	Resistance float64
	Mass       float64
}

func (f *FreeDecay) StateDim() int {
	return 3
}

func (f *FreeDecay) Derive(x dynamo.State, t float64) dynamo.State {
	pos, vel, i := x[0], x[1], x[2]
	l := f.Model.Inductance(pos)
	dl := f.Model.Derivative(pos)

	return dynamo.State{
		vel,
		i * i * dl / (2 * f.Mass),
		-(f.Resistance*i + i*dl*vel) / l,
	}
}

// EndPosition fires when the projectile moves past end.
func EndPosition(end float64) dynamo.Event {
	return dynamo.Event{
		Name:      EventEndPosition,
		Fn:        func(t float64, x dynamo.State) float64 { return x[IdxPosition] - end },
		Direction: dynamo.Rising,
	}
}

// CapacitorEmpty fires when the bank voltage falls through zero.
func CapacitorEmpty() dynamo.Event {
	return dynamo.Event{
		Name:      EventCapacitorEmpty,
		Fn:        func(t float64, x dynamo.State) float64 { return x[IdxVoltage] },
		Direction: dynamo.Falling,
	}
}

// CurrentDecayed fires when |I| falls below cutoff·|i0|.
func CurrentDecayed(i0, cutoff float64) dynamo.Event {
	threshold := cutoff * math.Abs(i0)
	return dynamo.Event{
		Name:      EventCurrentDecayed,
		Fn:        func(t float64, x dynamo.State) float64 { return math.Abs(x[IdxCurrent]) - threshold },
		Direction: dynamo.Falling,
	}
}

// Terminal event names.
const (
	EventEndPosition    = "end_position"
	EventCapacitorEmpty = "capacitor_empty"
	EventCurrentDecayed = "current_decayed"
)
