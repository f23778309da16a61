package metrics

import (
	"math"

	"github.com/san-kum/coilgun/internal/dynamo"
)

// Peak records the largest magnitude of one state component and when it
// occurred.
type Peak struct {
	name  string
	index int
	peak  float64
	at    float64
}

func NewPeak(name string, index int) *Peak {
	return &Peak{name: name, index: index}
}

func (p *Peak) Name() string {
	return p.name
}

func (p *Peak) Observe(x dynamo.State, t float64) {
	if p.index >= len(x) {
		return
	}
	if v := math.Abs(x[p.index]); v > p.peak {
		p.peak = v
		p.at = t
	}
}

func (p *Peak) Value() float64 {
	return p.peak
}

// Time is the instant of the peak.
func (p *Peak) Time() float64 {
	return p.at
}

func (p *Peak) Reset() {
	p.peak = 0
	p.at = 0
}
