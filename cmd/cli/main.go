package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"adogo/adapters/excel"
	"adogo/adapters/postgres"
	"adogo/adapters/rng"
	"adogo/adapters/tasks"
	"adogo/app"
	"adogo/domain/engine"
	"adogo/domain/grid"
	"adogo/internal/config"
	"adogo/internal/testkit"

	"github.com/gomarkdown/markdown"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "adogo",
		Short: "Adaptive design optimization engine CLI",
	}

	rootCmd.AddCommand(
		newModelsCmd(),
		newSimulateCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newModelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List registered task/model pairs",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, key := range tasks.Keys() {
				fmt.Println(key)
			}
			return nil
		},
	}
}

func newSimulateCmd() *cobra.Command {
	var (
		trials     int
		runs       int
		mode       string
		seed       int64
		truthArgs  []string
		xlsxPath   string
		reportPath string
		htmlOut    bool
	)

	cmd := &cobra.Command{
		Use:   "simulate [model]",
		Short: "Run simulated adaptive experiments against a known observer",
		Long: `Simulate one or more experiment sessions against an observer with fixed
true parameter values, then summarize parameter recovery.

Example: adogo simulate psi-logistic --trials 50 --runs 10 --truth threshold=0.5 --truth slope=2 --truth guess_rate=0.5 --truth lapse_rate=0.02`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			truth, err := parseTruth(truthArgs)
			if err != nil {
				return err
			}
			return runSimulate(cmd.Context(), args[0], trials, runs,
				engine.SelectionMode(mode), seed, truth, xlsxPath, reportPath, htmlOut)
		},
	}

	cmd.Flags().IntVar(&trials, "trials", 50, "Trials per simulated session")
	cmd.Flags().IntVar(&runs, "runs", 1, "Number of independent simulated sessions")
	cmd.Flags().StringVar(&mode, "mode", "optimal", "Design selection mode (optimal|random)")
	cmd.Flags().Int64Var(&seed, "seed", 42, "Random seed for deterministic operations")
	cmd.Flags().StringArrayVar(&truthArgs, "truth", nil, "True parameter value as name=value (repeatable)")
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "Export last run's trial history to this .xlsx file")
	cmd.Flags().StringVar(&reportPath, "report", "", "Write the simulation report to this file instead of stdout")
	cmd.Flags().BoolVar(&htmlOut, "html", false, "Render the report as HTML instead of markdown")

	return cmd
}

func runSimulate(ctx context.Context, modelKey string, trials, runs int, mode engine.SelectionMode, seed int64, truth map[string]float64, xlsxPath, reportPath string, htmlOut bool) error {
	entry, err := tasks.Lookup(modelKey)
	if err != nil {
		return err
	}
	designGroups, paramGroups, err := tasks.DefaultGrids(modelKey)
	if err != nil {
		return err
	}
	designGrid, err := grid.Build(designGroups...)
	if err != nil {
		return err
	}
	paramGrid, err := grid.Build(paramGroups...)
	if err != nil {
		return err
	}

	streams := rng.New()
	engineRand, err := streams.SeededStream(ctx, "engine", seed)
	if err != nil {
		return err
	}
	eng, err := engine.New(ctx, entry.Task, entry.Model, designGrid, paramGrid,
		engine.WithRand(engineRand))
	if err != nil {
		return err
	}

	svcOpts := []app.ServiceOption{}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.Database.URL != "" {
		db, err := sqlx.Connect("postgres", cfg.Database.URL)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := postgres.EnsureSchema(ctx, db); err != nil {
			return err
		}
		svcOpts = append(svcOpts, app.WithCheckpoints(postgres.NewCheckpointRepository(db)))
	}
	svc := app.NewExperimentService(eng, svcOpts...)

	results := make([]*app.SimulationResult, 0, runs)
	for run := 0; run < runs; run++ {
		observerRand, err := streams.Stream(ctx, svc.SessionID().String(),
			fmt.Sprintf("observer/run-%d", run), seed)
		if err != nil {
			return err
		}
		observer, err := testkit.NewSimulatedObserver(entry.Task, entry.Model, truth, observerRand.Int63())
		if err != nil {
			return err
		}
		result, err := app.RunSimulation(ctx, svc, observer, app.SimulationSpec{
			Trials: trials,
			Mode:   mode,
			Truth:  truth,
		})
		if err != nil {
			return err
		}
		results = append(results, result)
	}

	if xlsxPath != "" {
		if err := excel.WriteTrialHistory(xlsxPath, designGrid.Names(), svc.Trials()); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "wrote trial history to %s\n", xlsxPath)
	}

	report, err := app.BuildReport(results)
	if err != nil {
		return err
	}
	output := []byte(report)
	if htmlOut {
		output = markdown.ToHTML([]byte(report), nil, nil)
	}
	if reportPath != "" {
		return os.WriteFile(reportPath, output, 0o644)
	}
	fmt.Println(string(output))
	return nil
}

func parseTruth(args []string) (map[string]float64, error) {
	truth := make(map[string]float64, len(args))
	for _, arg := range args {
		name, value, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --truth %q (use name=value)", arg)
		}
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid --truth value %q: %w", arg, err)
		}
		truth[name] = v
	}
	return truth, nil
}
