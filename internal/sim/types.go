package sim

import "github.com/san-kum/coilgun/internal/dynamo"

type Config struct {
	// MaxTime is the end of the integration interval, starting at t=0.
	MaxTime float64
	// MaxStep bounds every step; zero means unbounded.
	MaxStep float64
	// InitialStep is the first attempted step; zero picks MaxTime/1000.
	InitialStep float64
	// MinStep aborts adaptive integration with ErrStepTooSmall.
	MinStep       float64
	ValidateState bool
}

func DefaultConfig() Config {
	return Config{
		MaxTime:       0.01,
		ValidateState: true,
	}
}

// MaxStepFor returns the step bound that guarantees at least minimumSteps
// samples over maxTime, or zero (unbounded) when minimumSteps is not set.
func MaxStepFor(maxTime float64, minimumSteps int) float64 {
	if minimumSteps <= 0 {
		return 0
	}
	return maxTime / float64(minimumSteps)
}

type Result struct {
	Times  []float64
	States []dynamo.State
	// Event names the terminal event that stopped integration; empty when
	// MaxTime was reached.
	Event      string
	StepsTaken int
	Rejected   int
}

// Final returns the last time and state of the solution.
func (r *Result) Final() (float64, dynamo.State) {
	n := len(r.Times)
	if n == 0 {
		return 0, nil
	}
	return r.Times[n-1], r.States[n-1]
}

// Column extracts component i of every state.
func (r *Result) Column(i int) []float64 {
	col := make([]float64, len(r.States))
	for k, s := range r.States {
		if i < len(s) {
			col[k] = s[i]
		}
	}
	return col
}
