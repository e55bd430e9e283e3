package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/cgast/sgeval/pkg/checker"
	"github.com/cgast/sgeval/pkg/eval"
	"github.com/cgast/sgeval/pkg/scene"
	"github.com/cgast/sgeval/pkg/sim"
)

var checkFlags struct {
	vocab   string
	scene   string
	goal    string
	plan    string
	jsonOut bool
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Evaluate one plan against one scene and goal",
	Args:  cobra.NoArgs,
	RunE:  runCheck,
}

func init() {
	f := checkCmd.Flags()
	f.StringVar(&checkFlags.vocab, "vocab", "", "vocabulary file (default from config)")
	f.StringVar(&checkFlags.scene, "scene", "", "initial scene graph JSON")
	f.StringVar(&checkFlags.goal, "goal", "", "goal formula")
	f.StringVar(&checkFlags.plan, "plan", "-", "plan file, - for stdin")
	f.BoolVar(&checkFlags.jsonOut, "json", false, "print the result as JSON")
	requireFlags(checkCmd, "scene", "goal")
}

// singleScene loads one fixed scene and remembers its planner.
type singleScene struct {
	graph   scene.Graph
	planner *sim.Planner
}

func (s *singleScene) Load(ctx context.Context, _ int, _ string) (checker.Planner, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.planner = sim.New(s.graph)
	return s.planner, nil
}

type fixedGoal string

func (g fixedGoal) Goal(int, string) (string, error) { return string(g), nil }

func readPlan(cmd *cobra.Command, path string) (string, error) {
	var r io.Reader = cmd.InOrStdin()
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return "", fmt.Errorf("open plan: %w", err)
		}
		defer f.Close()
		r = f
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read plan: %w", err)
	}
	return string(data), nil
}

func runCheck(cmd *cobra.Command, _ []string) error {
	vocabPath := cfg.Paths.Vocab
	if checkFlags.vocab != "" {
		vocabPath = checkFlags.vocab
	}
	g, err := scene.Load(checkFlags.scene)
	if err != nil {
		return err
	}
	output, err := readPlan(cmd, checkFlags.plan)
	if err != nil {
		return err
	}

	loader := &singleScene{graph: g}
	ev := eval.New(vocabPath, loader, fixedGoal(checkFlags.goal), eval.WithStepTimeout(cfg.Eval.StepTimeout))
	if _, err := ev.Vocabulary(); err != nil {
		return err
	}
	res, err := ev.Evaluate(cmd.Context(), eval.Task{Name: checkFlags.scene, Output: output})
	if err != nil {
		return err
	}

	var changes []sim.Change
	if loader.planner != nil && res.Runtime != nil {
		changes = sim.Diff(g, loader.planner.State())
	}

	out := cmd.OutOrStdout()
	if checkFlags.jsonOut {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			eval.Result
			Detail  string       `json:"detail"`
			Changes []sim.Change `json:"changes,omitempty"`
		}{res, res.Detail(), changes})
	}

	fmt.Fprintf(out, "Verdict: %s\n", res.Verdict)
	if d := res.Detail(); d != "" {
		fmt.Fprintf(out, "Detail:  %s\n", d)
	}
	if actions := res.Actions(); len(actions) > 0 {
		fmt.Fprintln(out, "Actions:")
		for _, a := range actions {
			fmt.Fprintf(out, "  %s\n", a)
		}
	}
	if len(changes) > 0 {
		fmt.Fprintln(out, "State changes:")
		for _, c := range changes {
			fmt.Fprintf(out, "  %s\n", c)
		}
	}
	if res.Runtime != nil {
		c := res.Counts()
		fmt.Fprintf(out, "Goals:   node %d/%d  edge %d/%d  action %d/%d  condition %d/%d  full %d/%d\n",
			c.NodeSuccess, c.NodeTotal, c.EdgeSuccess, c.EdgeTotal,
			c.ActionSuccess, c.ActionTotal, c.ConditionSuccess, c.ConditionTotal,
			c.FullSuccess, c.FullTotal)
		if c.Unscored > 0 {
			fmt.Fprintf(out, "         %d goal part(s) not scored\n", c.Unscored)
		}
	}
	return nil
}
