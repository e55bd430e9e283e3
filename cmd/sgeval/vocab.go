package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cgast/sgeval/pkg/vocab"
)

var vocabFlags struct {
	path    string
	strict  bool
	jsonOut bool
}

var vocabCmd = &cobra.Command{
	Use:   "vocab",
	Short: "Vocabulary tools",
}

var vocabInspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Show predicates with derived arity and the subgoal actions",
	Args:  cobra.NoArgs,
	RunE:  runVocabInspect,
}

func init() {
	f := vocabInspectCmd.Flags()
	f.StringVar(&vocabFlags.path, "vocab", "", "vocabulary file (default from config)")
	f.BoolVar(&vocabFlags.strict, "strict", false, "fail on predicates without a derivable arity")
	f.BoolVar(&vocabFlags.jsonOut, "json", false, "print as JSON")
	vocabCmd.AddCommand(vocabInspectCmd)
}

type actionInfo struct {
	Name   string `json:"name"`
	Script string `json:"script"`
	Arity  int    `json:"arity"`
}

func runVocabInspect(cmd *cobra.Command, _ []string) error {
	path := cfg.Paths.Vocab
	if vocabFlags.path != "" {
		path = vocabFlags.path
	}
	load := vocab.Load
	if vocabFlags.strict {
		load = vocab.LoadStrict
	}
	v, err := load(path)
	if err != nil {
		return err
	}

	var actions []actionInfo
	for _, name := range v.SubgoalActionNames() {
		actions = append(actions, actionInfo{Name: name, Script: v.ScriptName(name), Arity: v.ActionArity(name)})
	}

	// Actions in the full table that subgoal plans may not use.
	var planOnly []string
	for _, name := range v.ActionNames() {
		if !v.IsSubgoalAction(name) {
			planOnly = append(planOnly, name)
		}
	}

	out := cmd.OutOrStdout()
	if vocabFlags.jsonOut {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"predicates":      v.Predicates(),
			"actions":         actions,
			"inconsistencies": v.Inconsistencies(),
			"ambiguous":       v.Ambiguous(),
			"plan_only":       planOnly,
		})
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PREDICATE\tNATIVE\tGRAPH\tKIND\tARITY")
	for _, p := range v.Predicates() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n", p.Name, p.Native, p.GraphName(), p.Kind, p.Arity)
	}
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "ACTION\tSCRIPT\tARITY")
	for _, a := range actions {
		fmt.Fprintf(tw, "%s\t%s\t%d\n", a.Name, a.Script, a.Arity)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	for _, msg := range v.Inconsistencies() {
		fmt.Fprintf(out, "warning: %s\n", msg)
	}
	if names := v.Ambiguous(); len(names) > 0 {
		fmt.Fprintf(out, "note: %s are both predicates and subgoal actions; formulas read them as predicates\n", strings.Join(names, ", "))
	}
	if len(planOnly) > 0 {
		fmt.Fprintf(out, "note: not allowed in subgoals: %s\n", strings.Join(planOnly, ", "))
	}
	return nil
}
