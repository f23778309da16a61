package dynamo

import "math"

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// System is an autonomous or time-dependent ODE dX/dt = Derive(X, t).
type System interface {
	Derive(x State, t float64) State
	StateDim() int
}

// Stepper advances a system by one fixed step.
type Stepper interface {
	Step(sys System, x State, t, dt float64) State
}

// AdaptiveStepper attempts a step and reports the scaled local error norm.
// A norm <= 1 means the step is acceptable; NextStep proposes the size of
// the following attempt from that norm.
type AdaptiveStepper interface {
	Stepper
	Attempt(sys System, x State, t, dt float64) (State, float64)
	NextStep(dt, errNorm float64) float64
}

// Direction restricts which sign changes of an event function count.
type Direction int

const (
	Either  Direction = 0
	Rising  Direction = 1
	Falling Direction = -1
)

// Event is a terminal condition: integration stops at the first zero
// crossing of Fn in the configured direction.
type Event struct {
	Name      string
	Fn        func(t float64, x State) float64
	Direction Direction
}

// Crossed reports whether the event function went from g0 to g1 through
// zero in the event's direction.
func (e Event) Crossed(g0, g1 float64) bool {
	switch e.Direction {
	case Rising:
		return g0 < 0 && g1 >= 0
	case Falling:
		return g0 > 0 && g1 <= 0
	default:
		return (g0 < 0 && g1 >= 0) || (g0 > 0 && g1 <= 0)
	}
}
