package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/purs3lab/arbitrar/internal/learn"
	"github.com/purs3lab/arbitrar/internal/logging"
	"github.com/purs3lab/arbitrar/internal/visual"
)

var learnFlags struct {
	groundTruth  string
	interactive  bool
	functionSpec string

	budget      int
	numAlarms   int
	numOutliers int
	radius      int
	workers     int
}

var learnCmd = &cobra.Command{
	Use:   "learn <function>",
	Short: "Run the active-learning oracle loop over one function's data points",
	Long: `Builds the (data point, feature vector) pool for the function, runs the
budgeted oracle loop with exactly one labeling source, and writes the run
report under learning/<function>/<run-N>/ in the database directory.

Labeling sources (choose one):
  --ground-truth <label>   answer from labels on the slice documents
  --interactive            ask a human reviewer on the terminal
  --function-spec <path>   answer from a declarative YAML/JSON spec`,
	Args: cobra.ExactArgs(1),
	RunE: runLearn,
}

func init() {
	f := learnCmd.Flags()
	f.StringVar(&learnFlags.groundTruth, "ground-truth", "", "Slice-document label treated as the true alarm marker")
	f.BoolVar(&learnFlags.interactive, "interactive", false, "Label via a human reviewer on the terminal")
	f.StringVar(&learnFlags.functionSpec, "function-spec", "", "Path to a YAML/JSON function specification")
	f.IntVar(&learnFlags.budget, "budget", 0, "Attempt budget (default: pool size)")
	f.IntVar(&learnFlags.numAlarms, "num-alarms", 10, "Size of the final ranked alarm list")
	f.IntVar(&learnFlags.numOutliers, "num-outliers", 0, "k for the precision curve (default: ground-truth count)")
	f.IntVar(&learnFlags.radius, "radius", learn.DefaultRadius, "Slice-propagation window radius")
	f.IntVar(&learnFlags.workers, "workers", 4, "Concurrent feature-document loads during unification")
}

func runLearn(cmd *cobra.Command, args []string) error {
	fn := args[0]
	log := logging.New("learn-cmd")

	db, err := openDatabase()
	if err != nil {
		return err
	}

	points, err := db.CollectDataPoints(fn)
	if err != nil {
		return fmt.Errorf("collect data points: %w", err)
	}
	if len(points) == 0 {
		return fmt.Errorf("function %s has no data points", fn)
	}
	log.Info("pool collected", "function", fn, "points", len(points))

	unified, xs, err := learn.UnifyFeatures(points, learnFlags.workers)
	if err != nil {
		return fmt.Errorf("unify features: %w", err)
	}

	cfg := learn.Config{
		GroundTruth: learnFlags.groundTruth,
		Budget:      learnFlags.budget,
		NumAlarms:   learnFlags.numAlarms,
		NumOutliers: learnFlags.numOutliers,
		Radius:      learnFlags.radius,
	}
	if learnFlags.interactive {
		cfg.Visual = func() (visual.Visualizer, error) {
			return visual.NewTerminal(), nil
		}
	}
	if learnFlags.functionSpec != "" {
		spec, err := learn.LoadFunctionSpec(learnFlags.functionSpec)
		if err != nil {
			return err
		}
		cfg.Spec = spec
	}

	pool := learn.Pool{Points: points, Xs: xs}
	loop, err := learn.NewLoop(pool, learn.NewMeanDistance(pool), cfg)
	if err != nil {
		return err
	}
	res, err := loop.Run()
	if err != nil {
		return fmt.Errorf("oracle loop: %w", err)
	}

	runDir, err := db.NewLearningDir(fn)
	if err != nil {
		return fmt.Errorf("create run directory: %w", err)
	}
	if err := learn.WriteReport(runDir, res, unified, os.Args); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Finished: %s\n", res.Reason)
	fmt.Fprintf(out, "Positives: %d  Alarms ranked: %d\n", len(res.Positives), len(res.Alarms))
	fmt.Fprintf(out, "Report: %s\n", runDir)
	return nil
}
