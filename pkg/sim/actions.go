package sim

import (
	"github.com/cgast/sgeval/pkg/scene"
	"github.com/cgast/sgeval/pkg/vocab"
)

// DefaultRegistry returns handlers for every action in vocab.ValidActions.
// Actions without a dedicated model only require the agent to reach their
// objects.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, h := range builtinHandlers() {
		// Names are unique by construction.
		_ = r.Register(h)
	}
	for _, va := range vocab.ValidActions {
		if _, err := r.Resolve(va.ScriptName); err == nil {
			continue
		}
		_ = r.Register(Handler{Script: va.ScriptName, Arity: va.Arity, Description: "reach the objects", Apply: reachAll(va.ScriptName)})
	}
	return r
}

func builtinHandlers() []Handler {
	return []Handler{
		{Script: "WALK", Arity: 1, Description: "walk to an object or room", Apply: walk},
		{Script: "RUN", Arity: 1, Description: "run to an object or room", Apply: walk},
		{Script: "FIND", Arity: 1, Description: "find and approach an object", Apply: find},
		{Script: "TURNTO", Arity: 1, Description: "face an object", Apply: turnTo("TURNTO")},
		{Script: "LOOKAT", Arity: 1, Description: "look at an object", Apply: turnTo("LOOKAT")},
		{Script: "GRAB", Arity: 1, Description: "pick up a grabbable object", Apply: grab},
		{Script: "DROP", Arity: 1, Description: "release a held object", Apply: drop},
		{Script: "PUTBACK", Arity: 2, Description: "put a held object on a surface", Apply: place("PUTBACK", RelOnTop, "SURFACES")},
		{Script: "PUTIN", Arity: 2, Description: "put a held object into a container", Apply: place("PUTIN", RelInside, "CONTAINERS")},
		{Script: "OPEN", Arity: 1, Description: "open a closed object", Apply: toggle("OPEN", "CAN_OPEN", StateOpen, StateClosed)},
		{Script: "CLOSE", Arity: 1, Description: "close an open object", Apply: toggle("CLOSE", "CAN_OPEN", StateClosed, StateOpen)},
		{Script: "SWITCHON", Arity: 1, Description: "switch a device on", Apply: toggle("SWITCHON", "HAS_SWITCH", StateOn, StateOff)},
		{Script: "SWITCHOFF", Arity: 1, Description: "switch a device off", Apply: toggle("SWITCHOFF", "HAS_SWITCH", StateOff, StateOn)},
		{Script: "SIT", Arity: 1, Description: "sit on an object", Apply: rest("SIT", "SITTABLE", StateSitting)},
		{Script: "LIE", Arity: 1, Description: "lie on an object", Apply: rest("LIE", "LIEABLE", StateLying)},
		{Script: "STANDUP", Arity: 0, Description: "stand up", Apply: standUp},
		{Script: "SLEEP", Arity: 0, Description: "sleep while lying or sitting", Apply: sleep},
		{Script: "WASH", Arity: 1, Description: "wash an object", Apply: clean("WASH")},
		{Script: "RINSE", Arity: 1, Description: "rinse an object", Apply: clean("RINSE")},
		{Script: "SCRUB", Arity: 1, Description: "scrub an object", Apply: clean("SCRUB")},
		{Script: "WIPE", Arity: 1, Description: "wipe an object", Apply: clean("WIPE")},
		{Script: "DRINK", Arity: 1, Description: "drink from a held object", Apply: useHeld("DRINK")},
		{Script: "POUR", Arity: 2, Description: "pour a held object into another", Apply: pour},
	}
}

func walk(w *World, char *scene.Node, args []*scene.Node) error {
	return w.WalkTo(char, args[0])
}

func find(w *World, char *scene.Node, args []*scene.Node) error {
	if err := w.Approach(char, args[0]); err != nil {
		return err
	}
	w.Record("FIND", args[0])
	return nil
}

func turnTo(script string) ApplyFunc {
	return func(w *World, char *scene.Node, args []*scene.Node) error {
		obj := args[0]
		w.RemoveEdges(func(e scene.Edge) bool {
			return e.FromID == char.ID && e.RelationType == RelFacing
		})
		w.AddEdge(char.ID, obj.ID, RelFacing)
		w.Record(script, obj)
		return nil
	}
}

func grab(w *World, char *scene.Node, args []*scene.Node) error {
	obj := args[0]
	if !obj.HasProperty("GRABBABLE") {
		return infeasible("GRAB", "%s is not grabbable", obj.ClassName)
	}
	if w.Holds(char, obj) {
		return infeasible("GRAB", "already holding %s", obj.ClassName)
	}
	hand := RelHoldRH
	if w.handBusy(char, RelHoldRH) {
		hand = RelHoldLH
		if w.handBusy(char, RelHoldLH) {
			return infeasible("GRAB", "both hands are full")
		}
	}
	if c := w.closedContainerOf(obj); c != nil {
		return infeasible("GRAB", "%s is inside the closed %s", obj.ClassName, c.ClassName)
	}
	if err := w.Approach(char, obj); err != nil {
		return err
	}
	w.RemoveEdges(func(e scene.Edge) bool {
		return e.FromID == obj.ID && (e.RelationType == RelOnTop || e.RelationType == RelInside)
	})
	w.AddEdge(char.ID, obj.ID, hand)
	w.Record("GRAB", obj)
	return nil
}

func drop(w *World, char *scene.Node, args []*scene.Node) error {
	obj := args[0]
	if !w.Holds(char, obj) {
		return infeasible("DROP", "not holding %s", obj.ClassName)
	}
	w.release(char, obj)
	w.Record("DROP", obj)
	return nil
}

func place(script, rel, destProperty string) ApplyFunc {
	return func(w *World, char *scene.Node, args []*scene.Node) error {
		obj, dest := args[0], args[1]
		if !w.Holds(char, obj) {
			return infeasible(script, "not holding %s", obj.ClassName)
		}
		if !dest.HasProperty(destProperty) {
			return infeasible(script, "%s cannot hold objects that way", dest.ClassName)
		}
		if rel == RelInside && dest.HasState(StateClosed) {
			return infeasible(script, "%s is closed", dest.ClassName)
		}
		if err := w.Approach(char, dest); err != nil {
			return err
		}
		w.release(char, obj)
		w.AddEdge(obj.ID, dest.ID, rel)
		w.Record(script, obj, dest)
		return nil
	}
}

// toggle flips a two-valued state, e.g. CLOSED to OPEN.
func toggle(script, property, to, from string) ApplyFunc {
	return func(w *World, char *scene.Node, args []*scene.Node) error {
		obj := args[0]
		if !obj.HasProperty(property) {
			return infeasible(script, "%s does not support %s", obj.ClassName, script)
		}
		if obj.HasState(to) {
			return infeasible(script, "%s is already %s", obj.ClassName, to)
		}
		if err := w.Approach(char, obj); err != nil {
			return err
		}
		SetState(obj, to, from)
		w.Record(script, obj)
		return nil
	}
}

func rest(script, property, state string) ApplyFunc {
	return func(w *World, char *scene.Node, args []*scene.Node) error {
		obj := args[0]
		if !obj.HasProperty(property) {
			return infeasible(script, "cannot %s on %s", script, obj.ClassName)
		}
		if err := w.Approach(char, obj); err != nil {
			return err
		}
		if char.HasState(StateSitting) || char.HasState(StateLying) {
			return infeasible(script, "already %s", posture(char))
		}
		SetState(char, state)
		w.AddEdge(char.ID, obj.ID, RelOnTop)
		w.Record(script, obj)
		return nil
	}
}

func standUp(w *World, char *scene.Node, _ []*scene.Node) error {
	if !char.HasState(StateSitting) && !char.HasState(StateLying) {
		return infeasible("STANDUP", "%s is already standing", char.ClassName)
	}
	ClearState(char, StateSitting, StateLying)
	w.RemoveEdges(func(e scene.Edge) bool {
		return e.FromID == char.ID && e.RelationType == RelOnTop
	})
	w.Record("STANDUP")
	return nil
}

func sleep(w *World, char *scene.Node, _ []*scene.Node) error {
	if !char.HasState(StateSitting) && !char.HasState(StateLying) {
		return infeasible("SLEEP", "%s must lie or sit down first", char.ClassName)
	}
	w.Record("SLEEP")
	return nil
}

func clean(script string) ApplyFunc {
	return func(w *World, char *scene.Node, args []*scene.Node) error {
		obj := args[0]
		if err := w.Approach(char, obj); err != nil {
			return err
		}
		SetState(obj, StateClean, StateDirty)
		w.Record(script, obj)
		return nil
	}
}

func useHeld(script string) ApplyFunc {
	return func(w *World, char *scene.Node, args []*scene.Node) error {
		if !w.Holds(char, args[0]) {
			return infeasible(script, "not holding %s", args[0].ClassName)
		}
		w.Record(script, args[0])
		return nil
	}
}

func pour(w *World, char *scene.Node, args []*scene.Node) error {
	src, dest := args[0], args[1]
	if !w.Holds(char, src) {
		return infeasible("POUR", "not holding %s", src.ClassName)
	}
	if err := w.Approach(char, dest); err != nil {
		return err
	}
	w.Record("POUR", src, dest)
	return nil
}

func reachAll(script string) ApplyFunc {
	return func(w *World, char *scene.Node, args []*scene.Node) error {
		for _, obj := range args {
			if err := w.Approach(char, obj); err != nil {
				return err
			}
		}
		w.Record(script, args...)
		return nil
	}
}

func (w *World) handBusy(char *scene.Node, hand string) bool {
	return len(w.Graph.EdgesFrom(char.ID, hand)) > 0
}

func (w *World) release(char, obj *scene.Node) {
	w.RemoveEdges(func(e scene.Edge) bool {
		return e.FromID == char.ID && e.ToID == obj.ID && (e.RelationType == RelHoldRH || e.RelationType == RelHoldLH)
	})
}

// closedContainerOf returns the closed container obj sits in, if any.
func (w *World) closedContainerOf(obj *scene.Node) *scene.Node {
	for _, e := range w.Graph.EdgesFrom(obj.ID, RelInside) {
		if c := w.Node(e.ToID); c != nil && c.HasState(StateClosed) {
			return c
		}
	}
	return nil
}
