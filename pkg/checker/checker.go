// Package checker implements the three gates a subgoal plan passes through:
// the syntactic checker parses plan lines against the vocabulary, the
// semantic checker grounds every statement in the scene, and the runtime
// checker executes the plan on a Planner and scores the final world state
// against the goal.
package checker

import (
	"context"
	"fmt"

	"github.com/cgast/sgeval/pkg/plan"
	"github.com/cgast/sgeval/pkg/scene"
	"github.com/cgast/sgeval/pkg/tl"
	"github.com/cgast/sgeval/pkg/vocab"
)

// Step is the outcome of executing one statement.
type Step struct {
	Feasible bool
	Reason   string

	// Actions is the realized low-level action sequence of this step,
	// e.g. "[WALK] <fridge> (2)".
	Actions []string
}

// Planner executes grounded statements against a simulated world.
type Planner interface {
	// IDToName maps every object id in the scene to its display name.
	IDToName() map[string]string

	// Execute runs one statement. Infeasibility is reported through
	// Step.Feasible; errors are reserved for cancellation and failures of
	// the planner itself.
	Execute(ctx context.Context, stmt plan.Statement) (Step, error)

	// State returns the current world state.
	State() scene.Graph

	// Checkpoint saves the current state. Rollback restores a checkpoint;
	// Release drops it without restoring. Both discard every later
	// checkpoint.
	Checkpoint() int
	Rollback(id int) error
	Release(id int) error
}

// Scene is the grounding context of one task.
type Scene struct {
	IDToName map[string]string
}

// SceneOf builds the grounding context from a planner.
func SceneOf(p Planner) Scene {
	return Scene{IDToName: p.IDToName()}
}

// SceneFromGraph builds the grounding context from a world-state graph.
func SceneFromGraph(g scene.Graph) Scene {
	m := make(map[string]string, len(g.Nodes))
	for id, name := range g.IDToName() {
		m[string(id)] = name
	}
	return Scene{IDToName: m}
}

// Name returns the display name for an object reference: the scene name of
// its id if known, otherwise the name written in the reference.
func (s Scene) Name(ref tl.Ref) string {
	if name, ok := s.IDToName[ref.ID]; ok {
		return name
	}
	return ref.Name
}

// statement turns a primitive leaf into a plan statement.
func statement(v *vocab.Vocabulary, leaf tl.Expr, negated bool, line int) (plan.Statement, error) {
	switch n := leaf.(type) {
	case *tl.Predicate:
		stmt := plan.Statement{Kind: plan.StateAssertion, Name: n.Name, Args: n.Args, Negated: negated, Line: line}
		if p, ok := v.Predicate(n.Name); ok {
			stmt.Native = p.GraphName()
		}
		return stmt, nil
	case *tl.Action:
		if negated {
			return plan.Statement{}, fmt.Errorf("action %s cannot be negated", n.Name)
		}
		return plan.Statement{Kind: plan.ActionInvocation, Name: n.Name, Args: n.Args, Native: v.ScriptName(n.Name), Line: line}, nil
	default:
		return plan.Statement{}, fmt.Errorf("%s is not a primitive", leaf)
	}
}
