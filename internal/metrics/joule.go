package metrics

import "github.com/san-kum/coilgun/internal/dynamo"

// JouleLoss integrates the resistive loss R·I² over time with the
// trapezoidal rule.
type JouleLoss struct {
	name       string
	resistance float64
	index      int
	sum        float64
	lastT      float64
	lastP      float64
	samples    int
}

func NewJouleLoss(resistance float64, currentIndex int) *JouleLoss {
	return &JouleLoss{
		name:       "joule_loss",
		resistance: resistance,
		index:      currentIndex,
	}
}

func (j *JouleLoss) Name() string {
	return j.name
}

func (j *JouleLoss) Observe(x dynamo.State, t float64) {
	if j.index >= len(x) {
		return
	}
	i := x[j.index]
	p := j.resistance * i * i
	if j.samples > 0 {
		j.sum += 0.5 * (p + j.lastP) * (t - j.lastT)
	}
	j.lastT, j.lastP = t, p
	j.samples++
}

func (j *JouleLoss) Value() float64 {
	return j.sum
}

func (j *JouleLoss) Reset() {
	j.sum = 0
	j.lastT = 0
	j.lastP = 0
	j.samples = 0
}
