// Package metrics derives scalar figures of merit from coilgun trajectories
// and generation scores.
package metrics

import "github.com/san-kum/coilgun/internal/dynamo"

// Metric observes a trajectory sample by sample.
type Metric interface {
	Name() string
	Observe(x dynamo.State, t float64)
	Value() float64
	Reset()
}

// ObserveAll feeds an aligned time series to every metric.
func ObserveAll(times []float64, states []dynamo.State, ms ...Metric) {
	for i, x := range states {
		for _, m := range ms {
			m.Observe(x, times[i])
		}
	}
}
