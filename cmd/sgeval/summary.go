package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/cgast/sgeval/pkg/results"
)

var summaryFlags struct {
	log     string
	db      string
	run     string
	jsonOut bool
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Summarize an evaluation log, with goal rates from a stored run",
	Args:  cobra.NoArgs,
	RunE:  runSummary,
}

var showFlags struct {
	db      string
	task    string
	jsonOut bool
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show every stored result of a task, oldest first",
	Args:  cobra.NoArgs,
	RunE:  runShow,
}

func init() {
	f := summaryCmd.Flags()
	f.StringVar(&summaryFlags.log, "log", "", "evaluation log (default from config)")
	f.StringVar(&summaryFlags.db, "db", "", "result database (default from config)")
	f.StringVar(&summaryFlags.run, "run", "", "run id for goal rates; the newest run if empty")
	f.BoolVar(&summaryFlags.jsonOut, "json", false, "print as JSON")

	f = showCmd.Flags()
	f.StringVar(&showFlags.db, "db", "", "result database (default from config)")
	f.StringVar(&showFlags.task, "task", "", "task name")
	f.BoolVar(&showFlags.jsonOut, "json", false, "print as JSON")
	requireFlags(showCmd, "task")
}

func orDefault(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

func runSummary(cmd *cobra.Command, _ []string) error {
	stats, err := results.NewStatistics(nil, orDefault(summaryFlags.log, cfg.Paths.Log))
	if err != nil {
		return err
	}

	var stored []results.StoredResult
	runID := summaryFlags.run
	if dbPath := orDefault(summaryFlags.db, cfg.Paths.DB); dbPath != "" && fileExists(dbPath) {
		store, err := results.NewBoltStore(dbPath)
		if err != nil {
			return err
		}
		defer store.Close()
		if runID == "" {
			runs, err := store.Runs()
			if err != nil {
				return err
			}
			if len(runs) > 0 {
				runID = runs[0].ID
			}
		}
		if runID != "" {
			if stored, err = store.Results(runID); err != nil {
				return err
			}
		}
	}

	s := results.Summarize(stats.Records(), stored)
	out := cmd.OutOrStdout()
	if summaryFlags.jsonOut {
		return writeIndented(out, s)
	}

	fmt.Fprintf(out, "Log %s\n", stats.Path())
	fmt.Fprintf(out, "  tasks %d, evaluated %d, correct %d (%.1f%%)\n", s.Tasks, s.Evaluated, s.Succeeded, 100*s.SuccessRate)
	for _, v := range results.Verdicts {
		fmt.Fprintf(out, "  %-16s %d\n", v, s.Verdicts[v])
	}
	if runID != "" {
		fmt.Fprintf(out, "Goals in run %s (%d results)\n", runID, len(stored))
		for _, r := range []struct {
			name string
			rate results.Rate
		}{{"node", s.Node}, {"edge", s.Edge}, {"action", s.Action}, {"condition", s.Condition}, {"full", s.Full}} {
			fmt.Fprintf(out, "  %-9s %d/%d (%.1f%%)\n", r.name, r.rate.Success, r.rate.Total, 100*r.rate.Ratio)
		}
	}
	return nil
}

func runShow(cmd *cobra.Command, _ []string) error {
	store, err := results.NewBoltStore(orDefault(showFlags.db, cfg.Paths.DB))
	if err != nil {
		return err
	}
	defer store.Close()

	history, err := store.TaskHistory(showFlags.task)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if showFlags.jsonOut {
		return writeIndented(out, history)
	}
	if len(history) == 0 {
		fmt.Fprintf(out, "no stored results for %s\n", showFlags.task)
		return nil
	}
	for _, r := range history {
		fmt.Fprintf(out, "%s  run %s  %s", r.Evaluated.Format("2006-01-02 15:04:05"), r.RunID, r.Verdict)
		if r.Detail != "" {
			fmt.Fprintf(out, "  %s", r.Detail)
		}
		fmt.Fprintln(out)
		for _, a := range r.Actions {
			fmt.Fprintf(out, "    %s\n", a)
		}
	}
	return nil
}

func writeIndented(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
