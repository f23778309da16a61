package genome

import (
	"errors"
	"math"
	"math/rand"
	"path/filepath"
	"testing"

	. "github.com/onsi/gomega"
)

func testDNA() *DNA {
	return NewTagged(map[string]float64{
		"solenoid_turns":  500,
		"solenoid_radius": 10e-3,
		"capacitance":     1600e-6,
	}, map[string]string{"coil_type": "solenoid"})
}

func TestDNAMutateMissingParameter(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	d := testDNA()
	before := d.Genes()

	rules := NewRules(map[string]*Rule{
		"capacitance":     NewRule(0, 1, 1),
		"solenoid_turns":  NewRule(0, 1, 1),
		"projectile_mass": NewRule(0, 1, 1),
	})

	if err := d.Mutate(rules, rng); !errors.Is(err, ErrMissingParameter) {
		t.Fatalf("Mutate: expected ErrMissingParameter, got %v", err)
	}
	if err := d.Randomize(rules, rng); !errors.Is(err, ErrMissingParameter) {
		t.Fatalf("Randomize: expected ErrMissingParameter, got %v", err)
	}

	for k, v := range before {
		if got, _ := d.Get(k); got != v {
			t.Errorf("gene %s changed from %v to %v after a failed mutation", k, v, got)
		}
	}
}

func TestDNAMutateUninitializedRule(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	d := testDNA()

	rules := Rules{"capacitance": &Rule{}}
	if err := d.Mutate(rules, rng); !errors.Is(err, ErrUninitializedRule) {
		t.Errorf("expected ErrUninitializedRule, got %v", err)
	}
}

func TestDNAMutateRates(t *testing.T) {
	g := NewWithT(t)
	rng := rand.New(rand.NewSource(7))
	d := testDNA()

	rules := NewRules(map[string]*Rule{
		"capacitance":    NewRule(5, 6, 1),
		"solenoid_turns": NewRule(5, 6, 0),
	})
	g.Expect(d.Mutate(rules, rng)).To(Succeed())

	c, _ := d.Get("capacitance")
	g.Expect(c).To(BeNumerically(">=", 5))
	g.Expect(c).To(BeNumerically("<", 6))

	n, _ := d.Get("solenoid_turns")
	g.Expect(n).To(Equal(500.0))

	r, _ := d.Get("solenoid_radius")
	g.Expect(r).To(Equal(10e-3))
}

func TestDNARandomize(t *testing.T) {
	g := NewWithT(t)
	rng := rand.New(rand.NewSource(7))
	d := testDNA()

	rules := NewRules(map[string]*Rule{
		"capacitance":     NewRule(5, 6, 0),
		"solenoid_turns":  NewRule(7, 8, 0),
		"solenoid_radius": NewRule(9, 10, 0),
	})
	g.Expect(d.Randomize(rules, rng)).To(Succeed())

	for _, k := range d.Keys() {
		v, _ := d.Get(k)
		g.Expect(v).To(BeNumerically(">=", *rules[k].Min), k)
		g.Expect(v).To(BeNumerically("<", *rules[k].Max), k)
	}
}

func TestDNASeededMutationIsReproducible(t *testing.T) {
	rules := NewRules(map[string]*Rule{
		"capacitance":     NewRule(0, 1, 0.5),
		"solenoid_turns":  NewRule(0, 1, 0.5),
		"solenoid_radius": NewRule(0, 1, 0.5),
	})

	a, b := testDNA(), testDNA()
	if err := a.Mutate(rules, rand.New(rand.NewSource(42))); err != nil {
		t.Fatal(err)
	}
	if err := b.Mutate(rules, rand.New(rand.NewSource(42))); err != nil {
		t.Fatal(err)
	}
	for _, k := range a.Keys() {
		va, _ := a.Get(k)
		vb, _ := b.Get(k)
		if va != vb {
			t.Errorf("gene %s: %v != %v with the same seed", k, va, vb)
		}
	}
}

func TestDNAKeySet(t *testing.T) {
	g := NewWithT(t)
	d := testDNA()

	g.Expect(d.Keys()).To(Equal([]string{"capacitance", "solenoid_radius", "solenoid_turns"}))
	g.Expect(d.Set("projectile_mass", 1)).To(MatchError(ErrMissingParameter))
	g.Expect(d.Set("capacitance", 1)).To(Succeed())

	c := d.Clone()
	g.Expect(c.SameKeys(d)).To(BeTrue())
	g.Expect(c.Set("capacitance", 2)).To(Succeed())
	v, _ := d.Get("capacitance")
	g.Expect(v).To(Equal(1.0))

	other := New(map[string]float64{"capacitance": 1, "solenoid_radius": 1, "projectile_mass": 1})
	g.Expect(d.SameKeys(other)).To(BeFalse())
}

func TestDNARoundTrip(t *testing.T) {
	g := NewWithT(t)
	path := filepath.Join(t.TempDir(), "DNA.yaml")

	d := NewTagged(map[string]float64{
		"third":        1.0 / 3.0,
		"tiny":         math.SmallestNonzeroFloat64,
		"huge":         math.MaxFloat64,
		"negative":     -50e-3,
		"whole":        500,
		"permeability": 5.000000000000001,
	}, map[string]string{"coil_type": "solenoid", "projectile_type": "ferromagnetic"})

	g.Expect(d.Save(path)).To(Succeed())

	loaded, err := ReadDNA(path)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(loaded.Genes()).To(Equal(d.Genes()))
	g.Expect(loaded.Tags()).To(Equal(d.Tags()))
}

func TestParseDNA(t *testing.T) {
	g := NewWithT(t)

	d, err := ParseDNA([]byte("solenoid_turns: 500\ncapacitance: 1.6e-3\ncoil_type: solenoid\n"))
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(d.Genes()).To(Equal(map[string]float64{"solenoid_turns": 500, "capacitance": 1.6e-3}))
	tag, ok := d.Tag("coil_type")
	g.Expect(ok).To(BeTrue())
	g.Expect(tag).To(Equal("solenoid"))

	_, err = ParseDNA([]byte("solenoid_turns: [1, 2]\n"))
	g.Expect(err).To(HaveOccurred())
}

func TestParseDNANullLeavesGeneOut(t *testing.T) {
	g := NewWithT(t)

	d, err := ParseDNA([]byte("solenoid_turns: 500\nprojectile_end_pos: null\nprojectile_velocity: ~\n"))
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(d.Keys()).To(Equal([]string{"solenoid_turns"}))
	_, ok := d.Get("projectile_end_pos")
	g.Expect(ok).To(BeFalse())
}
