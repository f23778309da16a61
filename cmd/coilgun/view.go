package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/san-kum/coilgun/internal/analysis"
	"github.com/san-kum/coilgun/internal/coilgun"
	"github.com/san-kum/coilgun/internal/export"
	"github.com/san-kum/coilgun/internal/fitness"
	"github.com/san-kum/coilgun/internal/viz"
	"github.com/spf13/cobra"
)

var (
	viewWidth   int
	viewHeight  int
	phaseWidth  int
	phaseHeight int
	svgFile     string
	phaseAxes   string
)

func newCoilCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "coil",
		Short: "draw a genome's coil and projectile positions",
		Args:  cobra.NoArgs,
		RunE:  showCoil,
	}
	cmd.Flags().StringVarP(&dnaFile, "dna", "d", "", "genome file (default built-in template)")
	cmd.Flags().IntVar(&viewWidth, "width", 60, "width in terminal cells")
	cmd.Flags().IntVar(&viewHeight, "height", 12, "height in terminal cells")
	cmd.Flags().StringVar(&svgFile, "svg", "", "also write the drawing as SVG")
	return cmd
}

func newPhaseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "phase [run_id]",
		Short: "phase portrait of a saved run, or of a fresh shot",
		Long: fmt.Sprintf(`Plot one trajectory series against another. Without a run id the
genome given by --dna is simulated first.

Series: %s`, strings.Join(analysis.SeriesNames, ", ")),
		Args: cobra.MaximumNArgs(1),
		RunE: showPhase,
	}
	cmd.Flags().StringVarP(&dnaFile, "dna", "d", "", "genome file (default built-in template)")
	cmd.Flags().StringVarP(&configFile, "config", "c", "", "config file path (yaml)")
	cmd.Flags().StringVar(&phaseAxes, "axes", "position,velocity", "x,y series")
	cmd.Flags().IntVar(&phaseWidth, "width", 60, "width in terminal cells")
	cmd.Flags().IntVar(&phaseHeight, "height", 20, "height in terminal cells")
	cmd.Flags().StringVar(&svgFile, "svg", "", "also write the portrait as SVG")
	return cmd
}

func showCoil(cmd *cobra.Command, args []string) error {
	dna, err := loadDNA(dnaFile)
	if err != nil {
		return err
	}
	view, ok := viz.CoilViewFromDNA(dna)
	if !ok {
		return fmt.Errorf("genome lacks %s, %s or %s",
			coilgun.GeneLength, coilgun.GeneRadius, coilgun.GeneStartPosition)
	}

	canvas := viz.NewCanvas(viewWidth, viewHeight)
	view.Draw(canvas)
	fmt.Println(viz.DefaultStyles.Panel.Render(canvas.String()))
	fmt.Printf("coil %s long, radius %s, projectile at %s\n",
		si(view.Length, "m"), si(view.Radius, "m"), si(view.Start, "m"))

	if svgFile != "" {
		if err := export.WriteFile(svgFile, export.CanvasToSVG(canvas, 4, string(viz.ThemeCopper.Primary))); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", svgFile)
	}
	return nil
}

func showPhase(cmd *cobra.Command, args []string) error {
	x, y, ok := strings.Cut(phaseAxes, ",")
	if !ok {
		return fmt.Errorf("invalid axes %q, want x,y", phaseAxes)
	}

	var tr *coilgun.Trajectory
	if len(args) == 1 {
		loaded, err := store().LoadTrajectory(args[0])
		if err != nil {
			return err
		}
		tr = loaded
	} else {
		cfg, err := loadConfig(configFile, "")
		if err != nil {
			return err
		}
		dna, err := loadDNA(dnaFile)
		if err != nil {
			return err
		}
		report, err := fitness.NewCoil(cfg.Solver()).Run(context.Background(), dna)
		if err != nil {
			return err
		}
		tr = report.Trajectory
	}

	portrait, ok := analysis.FromTrajectory(tr, strings.TrimSpace(x), strings.TrimSpace(y))
	if !ok {
		return fmt.Errorf("unknown series in %q (have %s)", phaseAxes, strings.Join(analysis.SeriesNames, ", "))
	}
	if len(portrait.Points) < 2 {
		return fmt.Errorf("not enough finite samples to plot")
	}

	fmt.Println(analysis.PhasePortraitToASCII(portrait, phaseWidth, phaseHeight))

	if svgFile != "" {
		svg := export.PortraitToSVG(portrait, phaseWidth*12, phaseHeight*16, string(viz.ThemeCopper.Primary))
		if err := export.WriteFile(svgFile, svg); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", svgFile)
	}
	return nil
}
