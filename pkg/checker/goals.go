package checker

import (
	"fmt"
	"strings"

	"github.com/cgast/sgeval/pkg/scene"
	"github.com/cgast/sgeval/pkg/tl"
	"github.com/cgast/sgeval/pkg/vocab"
)

// NodeGoal requires a node to carry a state. Property goals match against
// the node's properties instead.
type NodeGoal struct {
	ID        string `json:"id"`
	ClassName string `json:"class_name"`
	State     string `json:"state"`
	Property  bool   `json:"property,omitempty"`
}

// EdgeGoal requires an edge with exactly these fields.
type EdgeGoal struct {
	FromID       string `json:"from_id"`
	ToID         string `json:"to_id"`
	RelationType string `json:"relation_type"`
}

// Goals is the decomposition of a goal formula.
type Goals struct {
	Nodes []NodeGoal `json:"node_goals"`
	Edges []EdgeGoal `json:"edge_goals"`

	// Actions holds one entry per action goal; alternatives are separated
	// by "|".
	Actions []string `json:"action_goals"`

	// Conditions are state goals that do not reduce to a single node or
	// edge: negations, disjunctions and implications over predicates.
	Conditions []Condition `json:"condition_goals,omitempty"`

	// Skipped counts leaves that are not scored: negated actions, temporal
	// subformulas under a connective that cannot be checked on the final
	// graph, and predicates without a derivable arity.
	Skipped int `json:"skipped,omitempty"`
}

// Total returns the number of scored goals.
func (g Goals) Total() int {
	return len(g.Nodes) + len(g.Edges) + len(g.Actions) + len(g.Conditions)
}

// Literal is a node or edge assertion, possibly negated. Exactly one of Node
// and Edge is set.
type Literal struct {
	Node    *NodeGoal `json:"node,omitempty"`
	Edge    *EdgeGoal `json:"edge,omitempty"`
	Negated bool      `json:"negated,omitempty"`
}

// Holds reports whether the literal is true in g.
func (l Literal) Holds(g scene.Graph) bool {
	var present bool
	switch {
	case l.Node != nil:
		for _, node := range g.Nodes {
			if l.Node.matches(node) {
				present = true
				break
			}
		}
	case l.Edge != nil:
		for _, edge := range g.Edges {
			if l.Edge.matches(edge) {
				present = true
				break
			}
		}
	}
	return present != l.Negated
}

func (l Literal) String() string {
	var s string
	switch {
	case l.Node != nil:
		s = fmt.Sprintf("%s(%s.%s)", l.Node.State, l.Node.ClassName, l.Node.ID)
	case l.Edge != nil:
		s = fmt.Sprintf("%s(%s, %s)", l.Edge.RelationType, l.Edge.FromID, l.Edge.ToID)
	}
	if l.Negated {
		return "not " + s
	}
	return s
}

// Condition is a disjunction of literals. It is met when any literal holds
// in the final graph.
type Condition struct {
	Any []Literal `json:"any"`
}

// Holds reports whether some literal of c is true in g.
func (c Condition) Holds(g scene.Graph) bool {
	for _, l := range c.Any {
		if l.Holds(g) {
			return true
		}
	}
	return false
}

func (c Condition) String() string {
	parts := make([]string, len(c.Any))
	for i, l := range c.Any {
		parts[i] = l.String()
	}
	return strings.Join(parts, " or ")
}

func (g NodeGoal) matches(node scene.Node) bool {
	if string(node.ID) != g.ID || node.ClassName != g.ClassName {
		return false
	}
	if g.Property {
		return node.HasProperty(g.State)
	}
	return node.HasState(g.State)
}

func (g EdgeGoal) matches(edge scene.Edge) bool {
	return string(edge.FromID) == g.FromID && string(edge.ToID) == g.ToID && edge.RelationType == g.RelationType
}

// FormatAction renders a realized action the way planners report it:
// "[GRAB] <apple> (1)", "[PUTBACK] <apple> (1) <table> (3)" or "[SLEEP]".
func FormatAction(script string, names, ids []string) string {
	var b strings.Builder
	b.WriteString("[" + script + "]")
	for i := range ids {
		fmt.Fprintf(&b, " <%s> (%s)", names[i], ids[i])
	}
	return b.String()
}

// Decompose collects the node, edge, action and condition goals of a goal
// formula in one left-to-right traversal.
func Decompose(goal tl.Expr, v *vocab.Vocabulary, s Scene) (Goals, error) {
	d := &decomposer{vocab: v, scene: s}
	if err := d.visit(goal); err != nil {
		return Goals{}, err
	}
	return d.goals, nil
}

type decomposer struct {
	vocab *vocab.Vocabulary
	scene Scene
	goals Goals
}

func (d *decomposer) visit(e tl.Expr) error {
	switch n := e.(type) {
	case *tl.Predicate:
		return d.predicate(n)
	case *tl.Action:
		d.goals.Actions = append(d.goals.Actions, d.action(n))
	case *tl.Not:
		return d.negation(n)
	case *tl.Or:
		if alts, ok := d.actionAlternatives(n); ok {
			d.goals.Actions = append(d.goals.Actions, alts)
			return nil
		}
		if ok, err := d.condition(n); ok || err != nil {
			return err
		}
		d.goals.Skipped += len(tl.Leaves(n)) - len(tl.Leaves(n.Operands[0]))
		return d.visit(n.Operands[0])
	case *tl.Implies:
		if ok, err := d.condition(n); ok || err != nil {
			return err
		}
		d.goals.Skipped += len(tl.Leaves(n.Antecedent))
		return d.visit(n.Consequent)
	case *tl.Until:
		d.goals.Skipped += len(tl.Leaves(n.Left))
		return d.visit(n.Right)
	case *tl.And, *tl.Then, *tl.Always, *tl.Eventually:
		for _, child := range tl.Children(n) {
			if err := d.visit(child); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("unexpected goal node %T", e)
	}
	return nil
}

// negation splits "not (a or b)" into one goal per operand and turns any
// other state-only negation into a condition.
func (d *decomposer) negation(n *tl.Not) error {
	switch x := n.X.(type) {
	case *tl.Not:
		return d.visit(x.X)
	case *tl.Or:
		for _, op := range x.Operands {
			if err := d.negation(&tl.Not{X: op}); err != nil {
				return err
			}
		}
		return nil
	}
	ok, err := d.condition(n)
	if err == nil && !ok {
		d.goals.Skipped += len(tl.Leaves(n))
	}
	return err
}

// condition adds e as a condition goal if it is a single clause over
// predicates. It reports false, adding nothing, otherwise.
func (d *decomposer) condition(e tl.Expr) (bool, error) {
	lits, ok, err := d.literals(e, false)
	if err != nil || !ok {
		return false, err
	}
	d.goals.Conditions = append(d.goals.Conditions, Condition{Any: lits})
	return true, nil
}

// literals flattens e, negated if neg, into one disjunction. "a implies b"
// is read as "not a or b".
func (d *decomposer) literals(e tl.Expr, neg bool) ([]Literal, bool, error) {
	switch n := e.(type) {
	case *tl.Predicate:
		node, edge, ok, err := d.assertion(n)
		if err != nil || !ok {
			return nil, false, err
		}
		return []Literal{{Node: node, Edge: edge, Negated: neg}}, true, nil
	case *tl.Not:
		return d.literals(n.X, !neg)
	case *tl.Or:
		if !neg {
			return d.union(n.Operands, false)
		}
	case *tl.And:
		if neg {
			return d.union(n.Operands, true)
		}
	case *tl.Implies:
		if !neg {
			return d.union([]tl.Expr{&tl.Not{X: n.Antecedent}, n.Consequent}, false)
		}
	}
	return nil, false, nil
}

func (d *decomposer) union(ops []tl.Expr, neg bool) ([]Literal, bool, error) {
	var out []Literal
	for _, op := range ops {
		lits, ok, err := d.literals(op, neg)
		if err != nil || !ok {
			return nil, false, err
		}
		out = append(out, lits...)
	}
	return out, true, nil
}

func (d *decomposer) predicate(p *tl.Predicate) error {
	node, edge, ok, err := d.assertion(p)
	switch {
	case err != nil:
		return err
	case !ok:
		d.goals.Skipped++
	case node != nil:
		d.goals.Nodes = append(d.goals.Nodes, *node)
	default:
		d.goals.Edges = append(d.goals.Edges, *edge)
	}
	return nil
}

// assertion grounds a predicate as a node or edge goal. It reports false
// for predicates without a derivable arity.
func (d *decomposer) assertion(p *tl.Predicate) (*NodeGoal, *EdgeGoal, bool, error) {
	pred, ok := d.vocab.Predicate(p.Name)
	if !ok || pred.Arity < 1 || pred.Arity > 2 {
		return nil, nil, false, nil
	}
	if len(p.Args) != pred.Arity {
		return nil, nil, false, fmt.Errorf("goal %s: %s takes %d argument(s)", p, p.Name, pred.Arity)
	}
	if pred.Arity == 1 {
		return &NodeGoal{
			ID:        p.Args[0].ID,
			ClassName: d.scene.Name(p.Args[0]),
			State:     pred.GraphName(),
			Property:  pred.Kind == vocab.KindProperty,
		}, nil, true, nil
	}
	return nil, &EdgeGoal{
		FromID:       p.Args[0].ID,
		ToID:         p.Args[1].ID,
		RelationType: pred.GraphName(),
	}, true, nil
}

func (d *decomposer) action(a *tl.Action) string {
	names := make([]string, len(a.Args))
	ids := make([]string, len(a.Args))
	for i, ref := range a.Args {
		names[i] = d.scene.Name(ref)
		ids[i] = ref.ID
	}
	return FormatAction(d.vocab.ScriptName(a.Name), names, ids)
}

// actionAlternatives joins an Or whose operands are all actions into one
// "|"-separated goal.
func (d *decomposer) actionAlternatives(o *tl.Or) (string, bool) {
	alts := make([]string, 0, len(o.Operands))
	for _, op := range o.Operands {
		a, ok := op.(*tl.Action)
		if !ok {
			return "", false
		}
		alts = append(alts, d.action(a))
	}
	return strings.Join(alts, "|"), true
}
