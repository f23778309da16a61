package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/san-kum/coilgun/internal/coilgun"
	"github.com/spf13/cobra"
)

var (
	samples       int
	current       float64
	layers        string
	innerDiameter float64
	wireDiameter  float64
	resistivity   float64
)

func newInductanceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inductance",
		Short: "show the inductance profile of a genome's coil",
		Args:  cobra.NoArgs,
		RunE:  showInductance,
	}
	cmd.Flags().StringVarP(&dnaFile, "dna", "d", "", "genome file (default built-in template)")
	cmd.Flags().IntVar(&samples, "samples", 80, "number of positions")
	return cmd
}

func newFieldCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "field",
		Short: "show the axial magnetic field of a coil",
		Long: `Show the on-axis field of the genome's solenoid, or of a layered
geometry coil when --layers is given (dimensions in millimetres).`,
		Args: cobra.NoArgs,
		RunE: showField,
	}
	cmd.Flags().StringVarP(&dnaFile, "dna", "d", "", "genome file (default built-in template)")
	cmd.Flags().IntVar(&samples, "samples", 80, "number of positions")
	cmd.Flags().Float64Var(&current, "current", 1, "coil current [A]")
	cmd.Flags().StringVar(&layers, "layers", "", "turns per axial slot of a geometry coil, e.g. 4,4,3")
	cmd.Flags().Float64Var(&innerDiameter, "inner-diameter", 10, "geometry coil inner diameter [mm]")
	cmd.Flags().Float64Var(&wireDiameter, "wire-diameter", 1, "geometry coil wire diameter [mm]")
	cmd.Flags().Float64Var(&resistivity, "resistivity", 1.7e-5, "geometry coil resistivity [Ohm·mm]")
	return cmd
}

func loadGun() (*coilgun.Coilgun, error) {
	dna, err := loadDNA(dnaFile)
	if err != nil {
		return nil, err
	}
	return coilgun.FromDNA(dna)
}

// linspace returns n evenly spaced points from a to b inclusive.
func linspace(a, b float64, n int) []float64 {
	if n < 2 {
		return []float64{a}
	}
	out := make([]float64, n)
	step := (b - a) / float64(n-1)
	for i := range out {
		out[i] = a + float64(i)*step
	}
	return out
}

func showInductance(cmd *cobra.Command, args []string) error {
	gun, err := loadGun()
	if err != nil {
		return err
	}
	model := gun.Coil.InductanceModel(gun.Projectile.MuR)
	length := gun.Coil.Length()

	fmt.Printf("L(x) = A·exp(-B·|x-C|^D) + E\n")
	fmt.Printf("  A = %s\n  B = %.6g\n  C = %s\n  D = %.4g\n  E = %s\n\n",
		si(model.A, "H"), model.B, si(model.C, "m"), model.D, si(model.E, "H"))

	xs := linspace(-length, length, samples)
	l := make([]float64, len(xs))
	dl := make([]float64, len(xs))
	for i, x := range xs {
		l[i] = model.Inductance(x)
		dl[i] = model.Derivative(x)
	}
	fmt.Println(chart(l, fmt.Sprintf("inductance [H], x from %s to %s", si(-length, "m"), si(length, "m"))))
	fmt.Println()
	fmt.Println(chart(dl, "dL/dx [H/m]"))
	return nil
}

func parseLayers(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("invalid layer count %q: %w", p, err)
		}
		if n < 0 {
			return nil, fmt.Errorf("negative layer count %d", n)
		}
		out = append(out, n)
	}
	return out, nil
}

func showField(cmd *cobra.Command, args []string) error {
	var (
		coil coilgun.Coil
		unit = "m"
	)
	if layers != "" {
		ls, err := parseLayers(layers)
		if err != nil {
			return err
		}
		coil = &coilgun.GeometryCoil{
			Layers:        ls,
			InnerDiameter: innerDiameter,
			WireDiameter:  wireDiameter,
			Resistivity:   resistivity,
		}
		unit = "mm"
		fmt.Println("note: the geometry coil field flips sign on one side of each slot; treat it as unverified")
	} else {
		gun, err := loadGun()
		if err != nil {
			return err
		}
		coil = gun.Coil
	}

	length := coil.Length()
	zs := linspace(-length, 2*length, samples)
	b := make([]float64, len(zs))
	for i, z := range zs {
		b[i] = coil.BField(current, z)
	}

	fmt.Printf("coil length %.4g %s, resistance %s, current %s\n\n", length, unit, si(coil.Resistance(), "Ω"), si(current, "A"))
	fmt.Println(chart(b, fmt.Sprintf("B [T] on axis, z from %.4g to %.4g %s (first turn at 0)", zs[0], zs[len(zs)-1], unit)))
	return nil
}
