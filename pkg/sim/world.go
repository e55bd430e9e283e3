package sim

import (
	"fmt"
	"slices"

	"github.com/cgast/sgeval/pkg/checker"
	"github.com/cgast/sgeval/pkg/scene"
)

// Relation and state names used by the built-in handlers.
const (
	RelNextTo = "NEXT_TO"
	RelFacing = "FACING"
	RelOnTop  = "ONTOP"
	RelInside = "INSIDE"
	RelHoldRH = "HOLDS_RH"
	RelHoldLH = "HOLDS_LH"

	StateOpen    = "OPEN"
	StateClosed  = "CLOSED"
	StateOn      = "ON"
	StateOff     = "OFF"
	StateDirty   = "DIRTY"
	StateClean   = "CLEAN"
	StateSitting = "SITTING"
	StateLying   = "LYING"
)

// InfeasibleError reports a step whose preconditions do not hold.
type InfeasibleError struct {
	Action string
	Reason string
}

func (e *InfeasibleError) Error() string {
	if e.Action == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Action, e.Reason)
}

func infeasible(action, format string, args ...any) error {
	return &InfeasibleError{Action: action, Reason: fmt.Sprintf(format, args...)}
}

// World is the mutable state a step works on, plus the low-level actions
// realized so far in the step.
type World struct {
	Graph   scene.Graph
	actions []string
}

// Node returns a pointer into the graph for the node with id.
func (w *World) Node(id scene.ID) *scene.Node {
	for i := range w.Graph.Nodes {
		if w.Graph.Nodes[i].ID == id {
			return &w.Graph.Nodes[i]
		}
	}
	return nil
}

// Character returns the agent node.
func (w *World) Character() (*scene.Node, error) {
	for i := range w.Graph.Nodes {
		if w.Graph.Nodes[i].ClassName == "character" {
			return &w.Graph.Nodes[i], nil
		}
	}
	return nil, &InfeasibleError{Reason: "scene has no character"}
}

// HasEdge reports whether the edge from -rel-> to exists.
func (w *World) HasEdge(from, to scene.ID, rel string) bool {
	return w.Graph.HasEdge(from, to, rel)
}

// AddEdge adds the edge unless it already exists.
func (w *World) AddEdge(from, to scene.ID, rel string) {
	if !w.HasEdge(from, to, rel) {
		w.Graph.Edges = append(w.Graph.Edges, scene.Edge{FromID: from, ToID: to, RelationType: rel})
	}
}

// RemoveEdges drops every edge for which match returns true.
func (w *World) RemoveEdges(match func(e scene.Edge) bool) {
	w.Graph.Edges = slices.DeleteFunc(w.Graph.Edges, match)
}

// SetState activates state on n and clears the states it replaces.
func SetState(n *scene.Node, state string, replaces ...string) {
	n.States = slices.DeleteFunc(n.States, func(s string) bool {
		return slices.Contains(replaces, s)
	})
	if !slices.Contains(n.States, state) {
		n.States = append(n.States, state)
	}
}

// ClearState deactivates the given states on n.
func ClearState(n *scene.Node, states ...string) {
	n.States = slices.DeleteFunc(n.States, func(s string) bool {
		return slices.Contains(states, s)
	})
}

// Holds reports whether char holds obj in either hand.
func (w *World) Holds(char, obj *scene.Node) bool {
	return w.HasEdge(char.ID, obj.ID, RelHoldRH) || w.HasEdge(char.ID, obj.ID, RelHoldLH)
}

// Near reports whether char can reach obj without moving.
func (w *World) Near(char, obj *scene.Node) bool {
	return char.ID == obj.ID || w.HasEdge(char.ID, obj.ID, RelNextTo) || w.Holds(char, obj)
}

// Approach walks char to obj unless it is already within reach.
func (w *World) Approach(char, obj *scene.Node) error {
	if w.Near(char, obj) {
		return nil
	}
	return w.WalkTo(char, obj)
}

// WalkTo moves char next to obj, or into obj when it is a room.
func (w *World) WalkTo(char, obj *scene.Node) error {
	if char.HasState(StateSitting) || char.HasState(StateLying) {
		return infeasible("WALK", "%s cannot walk while %s", char.ClassName, posture(char))
	}
	w.RemoveEdges(func(e scene.Edge) bool {
		if e.FromID == char.ID && (e.RelationType == RelNextTo || e.RelationType == RelFacing) {
			return true
		}
		return e.ToID == char.ID && e.RelationType == RelNextTo
	})
	if obj.IsRoom() {
		w.RemoveEdges(func(e scene.Edge) bool {
			return e.FromID == char.ID && e.RelationType == RelInside
		})
		w.AddEdge(char.ID, obj.ID, RelInside)
	} else {
		w.AddEdge(char.ID, obj.ID, RelNextTo)
		w.AddEdge(obj.ID, char.ID, RelNextTo)
	}
	w.Record("WALK", obj)
	return nil
}

// Record appends a realized action.
func (w *World) Record(script string, objs ...*scene.Node) {
	names := make([]string, len(objs))
	ids := make([]string, len(objs))
	for i, o := range objs {
		names[i], ids[i] = o.ClassName, string(o.ID)
	}
	w.actions = append(w.actions, checker.FormatAction(script, names, ids))
}

func posture(n *scene.Node) string {
	if n.HasState(StateLying) {
		return "lying"
	}
	return "sitting"
}
