// Package genome holds the candidate designs evolved by the optimiser: a
// DNA is a fixed set of named numeric genes plus optional string tags that
// select physical variants, and Rules bound how each gene may mutate.
package genome

import (
	"fmt"
	"math/rand"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

type DNA struct {
	genes map[string]float64
	tags  map[string]string
}

func New(genes map[string]float64) *DNA {
	return NewTagged(genes, nil)
}

func NewTagged(genes map[string]float64, tags map[string]string) *DNA {
	d := &DNA{
		genes: make(map[string]float64, len(genes)),
		tags:  make(map[string]string, len(tags)),
	}
	for k, v := range genes {
		d.genes[k] = v
	}
	for k, v := range tags {
		d.tags[k] = v
	}
	return d
}

func (d *DNA) Get(name string) (float64, bool) {
	v, ok := d.genes[name]
	return v, ok
}

// Set replaces an existing gene. The key set is fixed after creation.
func (d *DNA) Set(name string, value float64) error {
	if _, ok := d.genes[name]; !ok {
		return fmt.Errorf("%w: %s", ErrMissingParameter, name)
	}
	d.genes[name] = value
	return nil
}

func (d *DNA) Len() int {
	return len(d.genes)
}

// Keys returns the gene names in sorted order.
func (d *DNA) Keys() []string {
	keys := make([]string, 0, len(d.genes))
	for k := range d.genes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (d *DNA) Tag(name string) (string, bool) {
	v, ok := d.tags[name]
	return v, ok
}

func (d *DNA) SetTag(name, value string) {
	d.tags[name] = value
}

func (d *DNA) Tags() map[string]string {
	tags := make(map[string]string, len(d.tags))
	for k, v := range d.tags {
		tags[k] = v
	}
	return tags
}

func (d *DNA) Genes() map[string]float64 {
	genes := make(map[string]float64, len(d.genes))
	for k, v := range d.genes {
		genes[k] = v
	}
	return genes
}

func (d *DNA) Clone() *DNA {
	return NewTagged(d.genes, d.tags)
}

// SameKeys reports whether both genomes carry exactly the same gene names.
func (d *DNA) SameKeys(other *DNA) bool {
	if len(d.genes) != len(other.genes) {
		return false
	}
	for k := range d.genes {
		if _, ok := other.genes[k]; !ok {
			return false
		}
	}
	return true
}

func (d *DNA) checkRules(rules Rules) error {
	for _, name := range rules.Names() {
		if _, ok := d.genes[name]; !ok {
			return fmt.Errorf("%w: %s", ErrMissingParameter, name)
		}
		if !rules[name].IsInitialized() {
			return fmt.Errorf("%w: %s", ErrUninitializedRule, name)
		}
	}
	return nil
}

// Mutate replaces every ruled gene with probability equal to its rule's
// rate. The genome is left untouched when any ruled gene is missing.
func (d *DNA) Mutate(rules Rules, rng *rand.Rand) error {
	if err := d.checkRules(rules); err != nil {
		return err
	}
	for _, name := range rules.Names() {
		r := rules[name]
		ok, err := r.ShouldMutate(rng)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		v, err := r.Mutate(rng)
		if err != nil {
			return err
		}
		d.genes[name] = v
	}
	return nil
}

// Randomize unconditionally redraws every ruled gene.
func (d *DNA) Randomize(rules Rules, rng *rand.Rand) error {
	if err := d.checkRules(rules); err != nil {
		return err
	}
	for _, name := range rules.Names() {
		v, err := rules[name].Mutate(rng)
		if err != nil {
			return err
		}
		d.genes[name] = v
	}
	return nil
}

func (d *DNA) String() string {
	return fmt.Sprintf("DNA%v%v", d.genes, d.tags)
}

func (d *DNA) MarshalYAML() (interface{}, error) {
	out := make(map[string]interface{}, len(d.genes)+len(d.tags))
	for k, v := range d.tags {
		out[k] = v
	}
	for k, v := range d.genes {
		out[k] = v
	}
	return out, nil
}

// UnmarshalYAML reads a flat mapping: numeric values become genes, string
// values become tags and null values are skipped.
func (d *DNA) UnmarshalYAML(value *yaml.Node) error {
	raw := map[string]interface{}{}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	d.genes = make(map[string]float64, len(raw))
	d.tags = map[string]string{}
	for k, v := range raw {
		switch x := v.(type) {
		case nil:
			// An explicit null leaves the gene out.
			continue
		case float64:
			d.genes[k] = x
		case int:
			d.genes[k] = float64(x)
		case int64:
			d.genes[k] = float64(x)
		case uint64:
			d.genes[k] = float64(x)
		case string:
			d.tags[k] = x
		default:
			return fmt.Errorf("genome: parameter %s: unsupported value %v", k, v)
		}
	}
	return nil
}

func ParseDNA(data []byte) (*DNA, error) {
	d := New(nil)
	if err := yaml.Unmarshal(data, d); err != nil {
		return nil, fmt.Errorf("genome: parse dna: %w", err)
	}
	return d, nil
}

func ReadDNA(path string) (*DNA, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	d, err := ParseDNA(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

func (d *DNA) Save(path string) error {
	data, err := yaml.Marshal(d)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
