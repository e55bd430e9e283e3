// Package plan holds the representation of a subgoal plan produced by an
// agent: the raw lines extracted from its output and the typed statements
// they parse into.
package plan

import (
	"fmt"
	"strings"

	"github.com/cgast/sgeval/pkg/tl"
)

// Kind distinguishes state assertions from action invocations.
type Kind int

const (
	StateAssertion Kind = iota
	ActionInvocation
)

func (k Kind) String() string {
	if k == ActionInvocation {
		return "action"
	}
	return "state"
}

// Statement is one primitive of a subgoal: a predicate or action applied to
// object references.
type Statement struct {
	Kind Kind     `json:"kind"`
	Name string   `json:"name"`
	Args []tl.Ref `json:"args"`

	// Native is the graph name of a predicate or the script name of an action.
	Native string `json:"native"`

	// Negated is set for state assertions under "not".
	Negated bool `json:"negated,omitempty"`

	// Line is the zero-based index of the subgoal line.
	Line int `json:"line"`
}

// String renders the statement the way it appeared in the plan.
func (s Statement) String() string {
	args := make([]string, len(s.Args))
	for i, a := range s.Args {
		args[i] = a.Raw
	}
	out := fmt.Sprintf("%s(%s)", s.Name, strings.Join(args, ", "))
	if s.Negated {
		return "not " + out
	}
	return out
}

// Subgoal is one plan line.
type Subgoal struct {
	Index      int         `json:"index"`
	Text       string      `json:"text"`
	Expr       tl.Expr     `json:"-"`
	Statements []Statement `json:"statements"`
}

// Plan is an ordered, immutable sequence of subgoals.
type Plan struct {
	subgoals []Subgoal
}

// New creates a plan from parsed subgoals.
func New(subgoals []Subgoal) Plan {
	return Plan{subgoals: append([]Subgoal(nil), subgoals...)}
}

// Subgoals returns the subgoals in order.
func (p Plan) Subgoals() []Subgoal {
	return append([]Subgoal(nil), p.subgoals...)
}

// Len returns the number of subgoals.
func (p Plan) Len() int { return len(p.subgoals) }

// Statements returns every statement of every subgoal, in order.
func (p Plan) Statements() []Statement {
	var out []Statement
	for _, sg := range p.subgoals {
		out = append(out, sg.Statements...)
	}
	return out
}

// Expr returns the whole plan as one formula: the subgoals chained with then.
func (p Plan) Expr() tl.Expr {
	switch len(p.subgoals) {
	case 0:
		return nil
	case 1:
		return p.subgoals[0].Expr
	}
	steps := make([]tl.Expr, len(p.subgoals))
	for i, sg := range p.subgoals {
		steps[i] = sg.Expr
	}
	return &tl.Then{Steps: steps}
}
