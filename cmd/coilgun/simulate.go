package main

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/san-kum/coilgun/internal/coilgun"
	"github.com/san-kum/coilgun/internal/fitness"
	"github.com/san-kum/coilgun/internal/storage"
	"github.com/spf13/cobra"
)

var (
	method      string
	maxTime     float64
	voltageMode string
	saveRun     bool
	showPlots   bool
	exportFile  string
	label       string
)

func newSimulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "fire one coilgun genome and report the shot",
		Args:  cobra.NoArgs,
		RunE:  runSimulate,
	}
	cmd.Flags().StringVarP(&dnaFile, "dna", "d", "", "genome file (default built-in template)")
	cmd.Flags().StringVarP(&configFile, "config", "c", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "solver preset")
	cmd.Flags().StringVar(&method, "method", "rk45", "integrator: rk45 or rk4")
	cmd.Flags().Float64Var(&maxTime, "max-time", coilgun.DefaultSolverConfig().MaxTime, "time limit of each phase [s]")
	cmd.Flags().StringVar(&voltageMode, "voltage", coilgun.VoltageTracked, "capacitor voltage: tracked or integrated")
	cmd.Flags().BoolVar(&saveRun, "save", false, "save the trajectory to the run store")
	cmd.Flags().StringVar(&label, "label", "simulate", "label of the saved run")
	cmd.Flags().BoolVar(&showPlots, "plot", false, "chart the trajectory")
	cmd.Flags().StringVar(&exportFile, "json", "", "write the trajectory as JSON ('-' for stdout)")
	return cmd
}

func runSimulate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(configFile, preset)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("method") {
		cfg.Simulation.Method = method
	}
	if flags.Changed("max-time") {
		cfg.Simulation.MaxTime = maxTime
	}
	if flags.Changed("voltage") {
		cfg.Simulation.VoltageMode = voltageMode
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	dna, err := loadDNA(dnaFile)
	if err != nil {
		return err
	}

	solver := cfg.Solver()
	report, err := fitness.NewCoil(solver).Run(context.Background(), dna)
	if err != nil {
		return err
	}
	tr := report.Trajectory

	if exportFile == "-" {
		return storage.ExportJSON(os.Stdout, solver, tr, report.Metrics)
	}

	printReport(report)

	if showPlots {
		plotTrajectory(tr)
	}
	if exportFile != "" {
		if err := storage.ExportJSONFile(exportFile, solver, tr, report.Metrics); err != nil {
			return err
		}
		fmt.Printf("exported to %s\n", exportFile)
	}
	if saveRun {
		st := storage.New(runsDir(cfg))
		if err := st.Init(); err != nil {
			return err
		}
		metrics := map[string]float64{"efficiency": report.Efficiency}
		for k, v := range report.Metrics {
			metrics[k] = v
		}
		runID, err := st.Save(label, dna, solver, tr, metrics)
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", runID)
	}
	return nil
}

func si(v float64, unit string) string {
	return humanize.SIWithDigits(v, 3, unit)
}

func printReport(r *fitness.Report) {
	tr := r.Trajectory
	gun := r.Gun
	fmt.Printf("coil:        %s long, %s, inductance %s at start\n",
		si(gun.Coil.Length(), "m"), si(gun.Coil.Resistance(), "Ω"),
		si(gun.Coil.InductanceModel(gun.Projectile.MuR).Inductance(gun.Projectile.Start), "H"))
	fmt.Printf("bank:        %s at %s (%s)\n",
		si(gun.Source.Capacitance, "F"), si(gun.Source.Voltage, "V"), si(gun.Source.Energy(), "J"))
	fmt.Printf("projectile:  %s from %s\n", si(gun.Projectile.Mass*1e3, "g"), si(gun.Projectile.Start, "m"))
	fmt.Println()
	fmt.Printf("duration:    %s (%d samples, %d steps, %d rejected)\n",
		si(tr.Duration(), "s"), tr.Len(), tr.Steps, tr.Rejected)
	if tr.DischargeEvent != "" {
		fmt.Printf("discharge:   ended by %s\n", tr.DischargeEvent)
	}
	if tr.DecayEvent != "" {
		fmt.Printf("free decay:  ended by %s\n", tr.DecayEvent)
	}
	fmt.Printf("position:    %s -> %s\n", si(tr.Position[0], "m"), si(tr.FinalPosition(), "m"))
	fmt.Printf("velocity:    %s -> %s\n", si(tr.Velocity[0], "m/s"), si(tr.FinalVelocity(), "m/s"))
	fmt.Printf("voltage:     %s -> %s\n", si(tr.Voltage[0], "V"), si(tr.FinalVoltage(), "V"))
	fmt.Printf("efficiency:  %.4f%%\n", r.Efficiency*100)

	fmt.Println("\nmetrics:")
	names := make([]string, 0, len(r.Metrics))
	for name := range r.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %s: %.6g\n", name, r.Metrics[name])
	}
}

func plotTrajectory(tr *coilgun.Trajectory) {
	for _, series := range []struct {
		caption string
		data    []float64
	}{
		{"position [m]", tr.Position},
		{"velocity [m/s]", tr.Velocity},
		{"current [A]", tr.Current},
		{"capacitor voltage [V]", tr.Voltage},
	} {
		if len(series.data) < 2 {
			continue
		}
		fmt.Println(chart(series.data, series.caption))
		fmt.Println()
	}
}
