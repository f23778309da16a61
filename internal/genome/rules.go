package genome

import (
	"fmt"
	"math"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Rules maps parameter names to their mutation rules.
type Rules map[string]*Rule

func NewRules(rules map[string]*Rule) Rules {
	rs := make(Rules, len(rules))
	for name, r := range rules {
		rs[name] = r
	}
	return rs
}

func (rs Rules) IsInitialized() bool {
	for _, r := range rs {
		if !r.IsInitialized() {
			return false
		}
	}
	return true
}

// Names returns the governed parameter names in sorted order so that seeded
// runs consume random numbers in a reproducible order.
func (rs Rules) Names() []string {
	names := make([]string, 0, len(rs))
	for name := range rs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (rs Rules) Rule(name string) (*Rule, error) {
	r, ok := rs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRuleNotFound, name)
	}
	return r, nil
}

func (rs Rules) validate() error {
	for _, name := range rs.Names() {
		r := rs[name]
		if !r.IsInitialized() {
			return fmt.Errorf("%w: %s", ErrUninitializedRule, name)
		}
		lo, hi, rate := *r.Min, *r.Max, *r.Rate
		if !(lo <= hi) || math.IsInf(lo, 0) || math.IsInf(hi, 0) {
			return fmt.Errorf("%w: %s: bad bounds [%g, %g]", ErrInvalidRule, name, lo, hi)
		}
		if !(rate >= 0 && rate <= 1) {
			return fmt.Errorf("%w: %s: rate %g outside [0, 1]", ErrInvalidRule, name, rate)
		}
	}
	return nil
}

// ParseRules decodes a yaml mapping of parameter -> {min, max, rate}.
func ParseRules(data []byte) (Rules, error) {
	rs := Rules{}
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return nil, fmt.Errorf("genome: parse rules: %w", err)
	}
	if err := rs.validate(); err != nil {
		return nil, err
	}
	return rs, nil
}

func ReadRules(path string) (Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	rs, err := ParseRules(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rs, nil
}

func (rs Rules) Save(path string) error {
	data, err := yaml.Marshal(map[string]*Rule(rs))
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
