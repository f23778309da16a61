package genome

import (
	"fmt"
	"math/rand"
)

// Rule bounds the values a single parameter may take and how often it
// mutates. A rule is only usable once all three fields are set.
type Rule struct {
	Min  *float64 `yaml:"min"`
	Max  *float64 `yaml:"max"`
	Rate *float64 `yaml:"rate"`
}

func NewRule(min, max, rate float64) *Rule {
	return &Rule{Min: &min, Max: &max, Rate: &rate}
}

func (r *Rule) IsInitialized() bool {
	return r != nil && r.Min != nil && r.Max != nil && r.Rate != nil
}

// Mutate draws a fresh value uniformly from [Min, Max).
func (r *Rule) Mutate(rng *rand.Rand) (float64, error) {
	if !r.IsInitialized() {
		return 0, ErrUninitializedRule
	}
	lo, hi := *r.Min, *r.Max
	v := lo + rng.Float64()*(hi-lo)
	if v >= hi && hi > lo {
		// rounding of lo + u*(hi-lo) can land on hi
		v = lo
	}
	return v, nil
}

// ShouldMutate is a Bernoulli trial with probability Rate.
func (r *Rule) ShouldMutate(rng *rand.Rand) (bool, error) {
	if !r.IsInitialized() {
		return false, ErrUninitializedRule
	}
	return rng.Float64() < *r.Rate, nil
}

func (r *Rule) String() string {
	if !r.IsInitialized() {
		return "rule{uninitialized}"
	}
	return fmt.Sprintf("rule{min=%g max=%g rate=%g}", *r.Min, *r.Max, *r.Rate)
}
