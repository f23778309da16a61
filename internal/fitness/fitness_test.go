package fitness

import (
	"context"
	"errors"
	"math"
	"testing"

	. "github.com/onsi/gomega"

	"github.com/san-kum/coilgun/internal/coilgun"
	"github.com/san-kum/coilgun/internal/genome"
)

func sampleDNA() *genome.DNA {
	return genome.New(map[string]float64{
		"projectile_mu_r":           5,
		"solenoid_turns":            500,
		"solenoid_radius":           10e-3,
		"solenoid_length":           50e-3,
		"solenoid_resistivity":      1.7e-8,
		"wire_cross_sectional_area": 5e-7,
		"capacitance":               1600e-6,
		"capacitance_voltage":       300,
		"projectile_mass":           8e-3,
		"projectile_start_pos":      -50e-3,
		"projectile_end_pos":        0,
		"projectile_velocity":       0,
	})
}

func TestEvaluate(t *testing.T) {
	g := NewWithT(t)
	c := NewCoil(coilgun.DefaultSolverConfig())

	score, err := c.Evaluate(context.Background(), sampleDNA())
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(score).To(BeNumerically(">", 0))
	g.Expect(score).To(BeNumerically("<", 1))

	again, err := c.Evaluate(context.Background(), sampleDNA())
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(again).To(Equal(score))
}

func TestRunReport(t *testing.T) {
	g := NewWithT(t)
	c := NewCoil(coilgun.DefaultSolverConfig())

	r, err := c.Run(context.Background(), sampleDNA())
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(r.Trajectory.Len()).To(BeNumerically(">", 1))
	g.Expect(r.Metrics).To(HaveKey("peak_current"))
	g.Expect(r.Metrics["peak_current"]).To(BeNumerically(">", 0))
	g.Expect(r.Metrics["joule_loss"]).To(BeNumerically(">", 0))

	v := r.Trajectory.FinalVelocity()
	g.Expect(r.Metrics["kinetic_gain"]).To(BeNumerically("~", 0.5*8e-3*v*v, 1e-12))
}

func TestEvaluateUnchargedBankScoresZero(t *testing.T) {
	dna := sampleDNA()
	if err := dna.Set("capacitance_voltage", 0); err != nil {
		t.Fatal(err)
	}

	score, err := NewCoil(coilgun.DefaultSolverConfig()).Evaluate(context.Background(), dna)
	if err != nil {
		t.Fatal(err)
	}
	if score != 0 {
		t.Errorf("score = %v, want 0", score)
	}
}

func TestEvaluateNonPhysicalScoresNaN(t *testing.T) {
	dna := sampleDNA()
	if err := dna.Set("projectile_mass", 0); err != nil {
		t.Fatal(err)
	}

	score, err := NewCoil(coilgun.DefaultSolverConfig()).Evaluate(context.Background(), dna)
	if err != nil {
		t.Fatalf("non-physical genomes should not fail the run: %v", err)
	}
	if !math.IsNaN(score) {
		t.Errorf("score = %v, want NaN", score)
	}
}

func TestEvaluateDecodeErrors(t *testing.T) {
	c := NewCoil(coilgun.DefaultSolverConfig())

	missing := genome.New(map[string]float64{"capacitance": 1})
	if _, err := c.Evaluate(context.Background(), missing); !errors.Is(err, genome.ErrMissingParameter) {
		t.Errorf("expected ErrMissingParameter, got %v", err)
	}

	unknown := sampleDNA()
	unknown.SetTag(coilgun.CoilTypeTag, "railgun")
	if _, err := c.Evaluate(context.Background(), unknown); !errors.Is(err, coilgun.ErrUnknownVariant) {
		t.Errorf("expected ErrUnknownVariant, got %v", err)
	}
}
