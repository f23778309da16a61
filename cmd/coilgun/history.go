package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/san-kum/coilgun/internal/config"
	"github.com/san-kum/coilgun/internal/history"
	"github.com/spf13/cobra"
)

var historyDB string

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [run_id]",
		Short: "list evolution runs, or chart one run",
		Args:  cobra.MaximumNArgs(1),
		RunE:  showHistory,
	}
	cmd.Flags().StringVar(&historyDB, "db", config.DefaultHistoryDB, "history database")
	return cmd
}

func showHistory(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(historyDB); err != nil {
		return fmt.Errorf("history database: %w", err)
	}
	db, err := history.Open(historyDB)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()
	if len(args) == 0 {
		return listHistory(ctx, db)
	}
	return chartHistory(ctx, db, args[0])
}

func formatNull(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	return fmt.Sprintf("%.6g", v)
}

func listHistory(ctx context.Context, db *history.DB) error {
	runs, err := db.Runs(ctx)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTARTED\tSTATUS\tPOP\tGENS\tSEED\tBEST")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
			run.ID,
			humanize.Time(run.Started()),
			run.Status,
			run.Population,
			run.LastGeneration,
			run.Seed,
			formatNull(history.Score(run.BestScore)),
		)
	}
	return w.Flush()
}

func chartHistory(ctx context.Context, db *history.DB, id string) error {
	run, err := db.Run(ctx, id)
	if err != nil {
		return err
	}
	gens, err := db.Generations(ctx, run.ID)
	if err != nil {
		return err
	}

	fmt.Printf("run: %s (%s, started %s)\n", run.ID, run.Status, run.Started().Format(time.DateTime))
	fmt.Printf("population %d, seed %d, best %s\n\n", run.Population, run.Seed, formatNull(history.Score(run.BestScore)))
	if len(gens) == 0 {
		fmt.Println("no generations recorded")
		return nil
	}

	var means, bests []float64
	for _, g := range gens {
		if g.Mean.Valid {
			means = append(means, g.Mean.Float64)
		}
		if g.Best.Valid {
			bests = append(bests, g.Best.Float64)
		}
	}
	if len(means) > 0 {
		fmt.Println(chart(means, "average fitness"))
		fmt.Println()
	}
	if len(bests) > 0 {
		fmt.Println(chart(bests, "best-ever fitness"))
		fmt.Println()
	}
	if run.BestDNA != "" {
		fmt.Println("best genome:")
		fmt.Print(run.BestDNA)
	}
	return nil
}
