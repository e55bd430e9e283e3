package checker

import (
	"strings"

	"github.com/cgast/sgeval/pkg/scene"
)

// Counts is the partial-credit breakdown of a run.
type Counts struct {
	NodeTotal     int `json:"node_tot_num"`
	NodeSuccess   int `json:"node_success_num"`
	EdgeTotal     int `json:"edge_tot_num"`
	EdgeSuccess   int `json:"edge_success_num"`
	ActionTotal   int `json:"action_tot_num"`
	ActionSuccess int `json:"action_success_num"`

	ConditionTotal   int `json:"condition_tot_num"`
	ConditionSuccess int `json:"condition_success_num"`

	FullTotal   int `json:"full_tot_num"`
	FullSuccess int `json:"full_success_num"`

	// Unscored is the number of goal leaves left out of the totals.
	Unscored int `json:"unscored_num,omitempty"`
}

// Complete reports whether every goal was met. A goal whose every part was
// left unscored is never complete.
func (c Counts) Complete() bool {
	if c.FullTotal == 0 && c.Unscored > 0 {
		return false
	}
	return c.FullSuccess == c.FullTotal
}

// Totals returns counts with every success set to zero.
func Totals(g Goals) Counts {
	c := Counts{
		NodeTotal:      len(g.Nodes),
		EdgeTotal:      len(g.Edges),
		ActionTotal:    len(g.Actions),
		ConditionTotal: len(g.Conditions),
		Unscored:       g.Skipped,
	}
	c.FullTotal = c.NodeTotal + c.EdgeTotal + c.ActionTotal + c.ConditionTotal
	return c
}

// Score evaluates a final world state and realized action sequence against
// the goals.
//
// The three categories are scored differently. Node goals are counted per
// (node, goal) pair. Each edge satisfies at most the first goal it matches.
// Action goals are checked in order and scoring stops at the first goal
// none of whose alternatives occur in the action sequence. Each condition
// counts once when any of its literals holds.
func Score(final scene.Graph, g Goals, actions []string) Counts {
	c := Totals(g)

	for _, node := range final.Nodes {
		for _, goal := range g.Nodes {
			if goal.matches(node) {
				c.NodeSuccess++
			}
		}
	}

	for _, edge := range final.Edges {
		for _, goal := range g.Edges {
			if goal.matches(edge) {
				c.EdgeSuccess++
				break
			}
		}
	}

	for _, goal := range g.Actions {
		if !actionOccurs(goal, actions) {
			break
		}
		c.ActionSuccess++
	}

	for _, cond := range g.Conditions {
		if cond.Holds(final) {
			c.ConditionSuccess++
		}
	}

	c.FullSuccess = c.NodeSuccess + c.EdgeSuccess + c.ActionSuccess + c.ConditionSuccess
	return c
}

func actionOccurs(goal string, actions []string) bool {
	for _, alt := range strings.Split(goal, "|") {
		for _, instr := range actions {
			if strings.Contains(instr, alt) {
				return true
			}
		}
	}
	return false
}
