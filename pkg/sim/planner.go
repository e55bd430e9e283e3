// Package sim is a symbolic reference planner. It executes grounded plan
// statements over a JSON world-state graph with simple precondition and
// effect models, walking the agent to objects it needs to reach.
package sim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cgast/sgeval/pkg/checker"
	"github.com/cgast/sgeval/pkg/plan"
	"github.com/cgast/sgeval/pkg/scene"
	"github.com/cgast/sgeval/pkg/tl"
)

// Option configures a Planner.
type Option func(*Planner)

// WithRegistry replaces the built-in action handlers.
func WithRegistry(r *Registry) Option {
	return func(p *Planner) {
		p.registry = r
	}
}

// WithLogger sets the logger used for step tracing.
func WithLogger(l *slog.Logger) Option {
	return func(p *Planner) {
		p.logger = l
	}
}

// Planner executes plan statements over a scene graph.
type Planner struct {
	world       World
	registry    *Registry
	logger      *slog.Logger
	checkpoints []scene.Graph
}

var _ checker.Planner = (*Planner)(nil)

// New creates a planner over a copy of g.
func New(g scene.Graph, opts ...Option) *Planner {
	p := &Planner{
		world:    World{Graph: g.Clone()},
		registry: DefaultRegistry(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// IDToName maps every object id to its class name.
func (p *Planner) IDToName() map[string]string {
	m := make(map[string]string, len(p.world.Graph.Nodes))
	for _, n := range p.world.Graph.Nodes {
		m[string(n.ID)] = n.ClassName
	}
	return m
}

// State returns a copy of the current world state.
func (p *Planner) State() scene.Graph { return p.world.Graph.Clone() }

// Checkpoint saves the current state and returns its id.
func (p *Planner) Checkpoint() int {
	p.checkpoints = append(p.checkpoints, p.world.Graph.Clone())
	return len(p.checkpoints) - 1
}

// Rollback restores checkpoint id and discards it and every later one.
func (p *Planner) Rollback(id int) error {
	if id < 0 || id >= len(p.checkpoints) {
		return fmt.Errorf("unknown checkpoint %d", id)
	}
	p.world.Graph = p.checkpoints[id]
	p.checkpoints = p.checkpoints[:id]
	return nil
}

// Release discards checkpoint id and every later one, keeping the current
// state.
func (p *Planner) Release(id int) error {
	if id < 0 || id >= len(p.checkpoints) {
		return fmt.Errorf("unknown checkpoint %d", id)
	}
	clear(p.checkpoints[id:])
	p.checkpoints = p.checkpoints[:id]
	return nil
}

// Checkpoints returns the number of checkpoints held.
func (p *Planner) Checkpoints() int { return len(p.checkpoints) }

// Execute runs one statement. A failed precondition leaves the world
// unchanged and is reported as an infeasible step.
func (p *Planner) Execute(ctx context.Context, stmt plan.Statement) (checker.Step, error) {
	if err := ctx.Err(); err != nil {
		return checker.Step{}, err
	}

	before := p.world.Graph.Clone()
	p.world.actions = nil

	var err error
	if stmt.Kind == plan.ActionInvocation {
		err = p.runAction(stmt.Native, stmt.Args)
	} else {
		err = p.achieve(stmt)
	}

	var ie *InfeasibleError
	if errors.As(err, &ie) {
		p.world.Graph = before
		p.logger.Debug("[SIM] infeasible step", "statement", stmt.String(), "reason", ie.Error())
		return checker.Step{Feasible: false, Reason: ie.Error()}, nil
	}
	if err != nil {
		p.world.Graph = before
		return checker.Step{}, err
	}

	actions := p.world.actions
	p.world.actions = nil
	p.logger.Debug("[SIM] step executed", "statement", stmt.String(), "actions", actions)
	return checker.Step{Feasible: true, Actions: actions}, nil
}

// runAction resolves the handler for script and applies it to the referenced
// objects.
func (p *Planner) runAction(script string, refs []tl.Ref) error {
	h, err := p.registry.Resolve(script)
	if err != nil {
		return &InfeasibleError{Action: script, Reason: err.Error()}
	}
	if len(refs) != h.Arity {
		return infeasible(script, "takes %d object(s), got %d", h.Arity, len(refs))
	}
	args := make([]*scene.Node, len(refs))
	for i, ref := range refs {
		n := p.world.Node(scene.ID(ref.ID))
		if n == nil {
			return infeasible(script, "object %s is not in the scene", ref.Raw)
		}
		args[i] = n
	}
	char, err := p.world.Character()
	if err != nil {
		return err
	}
	return h.Apply(&p.world, char, args)
}

func (p *Planner) runOn(script string, objs ...*scene.Node) error {
	refs := make([]tl.Ref, len(objs))
	for i, o := range objs {
		refs[i] = tl.ParseRef(string(o.ID))
	}
	return p.runAction(script, refs)
}
