package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/coilgun/internal/config"
	"github.com/san-kum/coilgun/internal/storage"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newRunsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "runs",
		Short: "list saved simulation runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}
}

func newPlotCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a saved simulation run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
}

func newExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
}

func store() *storage.Store {
	return storage.New(runsDir(config.DefaultConfig()))
}

func listRuns(cmd *cobra.Command, args []string) error {
	runs, err := store().List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tLABEL\tTIME\tMETHOD\tSAMPLES\tEND\tVELOCITY")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			run.ID,
			run.Label,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Method,
			run.Samples,
			run.DischargeEvent,
			si(run.FinalVelocity, "m/s"),
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := store()
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	tr, err := st.LoadTrajectory(runID)
	if err != nil {
		return err
	}
	if tr.Len() == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("label: %s\n", meta.Label)
	fmt.Printf("samples: %d\n\n", tr.Len())

	plotTrajectory(tr)

	dna, err := st.LoadDNA(runID)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil
	case err != nil:
		return err
	}
	out, err := yaml.Marshal(dna)
	if err != nil {
		return err
	}
	fmt.Printf("genome:\n%s", out)
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	meta, err := store().Load(args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

// chart is the standard terminal chart of the CLI.
func chart(data []float64, caption string) string {
	return asciigraph.Plot(data,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption(caption),
	)
}
