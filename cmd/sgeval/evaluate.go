package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/cgast/sgeval/internal/inspector"
	"github.com/cgast/sgeval/pkg/eval"
	"github.com/cgast/sgeval/pkg/events"
	"github.com/cgast/sgeval/pkg/results"
	"github.com/cgast/sgeval/pkg/sim"
)

var evalFlags struct {
	responses   string
	sceneID     int
	workers     int
	log         string
	db          string
	vocab       string
	scenes      string
	goals       string
	stepTimeout time.Duration
	inspector   int
	jsonOut     bool
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate a responses file, resuming from the evaluation log",
	Args:  cobra.NoArgs,
	RunE:  runEvaluate,
}

func init() {
	f := evaluateCmd.Flags()
	f.StringVar(&evalFlags.responses, "responses", "", "JSON array of {identifier, llm_output}")
	f.IntVar(&evalFlags.sceneID, "scene-id", 0, "scene the responses belong to")
	f.IntVar(&evalFlags.workers, "workers", 0, "tasks evaluated in parallel")
	f.StringVar(&evalFlags.log, "log", "", "evaluation log (resumed if present)")
	f.StringVar(&evalFlags.db, "db", "", "result database")
	f.StringVar(&evalFlags.vocab, "vocab", "", "vocabulary file")
	f.StringVar(&evalFlags.scenes, "scenes", "", "scene directory (scene_<id>/<file_id>.json)")
	f.StringVar(&evalFlags.goals, "goals", "", "goal file")
	f.DurationVar(&evalFlags.stepTimeout, "step-timeout", 0, "time limit per planner step")
	f.IntVar(&evalFlags.inspector, "inspector", 0, "serve the inspector on this port while evaluating")
	f.BoolVar(&evalFlags.jsonOut, "json", false, "print the report as JSON")
	requireFlags(evaluateCmd, "responses")
}

// applyEvalFlags overrides config values with flags the user set.
func applyEvalFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	if f.Changed("scene-id") {
		cfg.Eval.SceneID = evalFlags.sceneID
	}
	if f.Changed("workers") {
		cfg.Eval.Workers = evalFlags.workers
	}
	if f.Changed("step-timeout") {
		cfg.Eval.StepTimeout = evalFlags.stepTimeout
	}
	if f.Changed("log") {
		cfg.Paths.Log = evalFlags.log
	}
	if f.Changed("db") {
		cfg.Paths.DB = evalFlags.db
	}
	if f.Changed("vocab") {
		cfg.Paths.Vocab = evalFlags.vocab
	}
	if f.Changed("scenes") {
		cfg.Paths.Scenes = evalFlags.scenes
	}
	if f.Changed("goals") {
		cfg.Paths.Goals = evalFlags.goals
	}
	if f.Changed("inspector") {
		cfg.Inspector.Enabled = evalFlags.inspector > 0
		cfg.Inspector.Port = evalFlags.inspector
	}
}

func runEvaluate(cmd *cobra.Command, _ []string) error {
	applyEvalFlags(cmd)
	if err := cfg.Validate(); err != nil {
		return err
	}
	ctx := cmd.Context()
	logger := slog.Default()

	resps, err := eval.LoadResponses(evalFlags.responses)
	if err != nil {
		return err
	}
	tasks := eval.Tasks(resps, cfg.Eval.SceneID)

	goals, err := eval.LoadGoals(cfg.Paths.Goals)
	if err != nil {
		return err
	}
	evaluator := eval.New(cfg.Paths.Vocab, sim.DirLoader{Root: cfg.Paths.Scenes, Logger: logger}, goals,
		eval.WithStepTimeout(cfg.Eval.StepTimeout), eval.WithLogger(logger))
	if _, err := evaluator.Vocabulary(); err != nil {
		return err
	}

	stats, err := results.NewStatistics(eval.TaskNames(tasks), cfg.Paths.Log)
	if err != nil {
		return err
	}

	bus := events.NewMemoryBus(0)
	reg := prometheus.NewRegistry()
	opts := []eval.BatchOption{
		eval.WithWorkers(cfg.Eval.Workers),
		eval.WithBus(bus),
		eval.WithMetrics(eval.NewMetrics(reg)),
		eval.WithBatchLogger(logger),
	}

	var store *results.BoltStore
	if cfg.Paths.DB != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Paths.DB), 0755); err != nil {
			return fmt.Errorf("create db dir: %w", err)
		}
		if store, err = results.NewBoltStore(cfg.Paths.DB); err != nil {
			return err
		}
		defer store.Close()
		opts = append(opts, eval.WithStore(store))
	}

	if cfg.Inspector.Enabled && cfg.Inspector.Port > 0 {
		srvOpts := []inspector.Option{inspector.WithLog(stats), inspector.WithGatherer(reg), inspector.WithLogger(logger)}
		if store != nil {
			srvOpts = append(srvOpts, inspector.WithResults(store))
		}
		inspector.New(bus, srvOpts...).ServeAsync(ctx, fmt.Sprintf(":%d", cfg.Inspector.Port))
		fmt.Fprintf(cmd.ErrOrStderr(), "Inspector running at http://localhost:%d\n", cfg.Inspector.Port)
	}

	batch := eval.NewBatch(evaluator, stats, opts...)
	report, runErr := batch.Run(ctx, tasks)

	if evalFlags.jsonOut {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	} else {
		printBatchReport(cmd, report, stats)
	}
	return runErr
}

func printBatchReport(cmd *cobra.Command, report eval.BatchReport, stats *results.Statistics) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run %s: %d tasks, %d evaluated, %d skipped\n", report.RunID, report.Tasks, report.Evaluated, report.Skipped)
	for _, v := range results.Verdicts {
		if n := report.Verdicts[v]; n > 0 {
			fmt.Fprintf(out, "  %-16s %d\n", v, n)
		}
	}
	s := results.Summarize(stats.Records(), nil)
	fmt.Fprintf(out, "Log %s: %d/%d correct (%.1f%%)\n", stats.Path(), s.Succeeded, s.Evaluated, 100*s.SuccessRate)
}
