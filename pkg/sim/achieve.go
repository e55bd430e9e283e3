package sim

import (
	"github.com/cgast/sgeval/pkg/plan"
	"github.com/cgast/sgeval/pkg/scene"
)

// stateActions maps a node state to the action that establishes it.
var stateActions = map[string]string{
	StateOpen:   "OPEN",
	StateClosed: "CLOSE",
	StateOn:     "SWITCHON",
	StateOff:    "SWITCHOFF",
	StateClean:  "WASH",
}

// inverseStates maps a state to the state that rules it out.
var inverseStates = map[string]string{
	StateOpen:     StateClosed,
	StateClosed:   StateOpen,
	StateOn:       StateOff,
	StateOff:      StateOn,
	StateDirty:    StateClean,
	StateClean:    StateDirty,
	StateSitting:  "STANDING",
	StateLying:    "STANDING",
	"PLUGGED_IN":  "PLUGGED_OUT",
	"PLUGGED_OUT": "PLUGGED_IN",
}

// achieve makes a state assertion true. Assertions that already hold cost
// nothing.
func (p *Planner) achieve(stmt plan.Statement) error {
	name := stmt.Native
	if name == "" {
		name = stmt.Name
	}
	objs := make([]*scene.Node, len(stmt.Args))
	for i, ref := range stmt.Args {
		n := p.world.Node(scene.ID(ref.ID))
		if n == nil {
			return infeasible(stmt.Name, "object %s is not in the scene", ref.Raw)
		}
		objs[i] = n
	}
	if len(objs) != 1 && len(objs) != 2 {
		return infeasible(stmt.Name, "state assertions take one or two objects, got %d", len(objs))
	}

	if p.holds(name, objs) != stmt.Negated {
		return nil
	}

	var err error
	if len(objs) == 1 {
		err = p.achieveState(name, stmt.Negated, objs[0])
	} else {
		err = p.achieveRelation(name, stmt.Negated, objs[0], objs[1])
	}
	if err != nil {
		return err
	}

	if p.holds(name, objs) == stmt.Negated {
		return infeasible(stmt.Name, "%s does not hold after execution", stmt)
	}
	return nil
}

func (p *Planner) holds(name string, objs []*scene.Node) bool {
	if len(objs) == 1 {
		return objs[0].HasState(name) || objs[0].HasProperty(name)
	}
	return p.world.HasEdge(objs[0].ID, objs[1].ID, name)
}

func (p *Planner) achieveState(state string, negated bool, obj *scene.Node) error {
	target := state
	if negated {
		inv, ok := inverseStates[state]
		if !ok {
			return infeasible(state, "no action removes %s from %s", state, obj.ClassName)
		}
		target = inv
	}
	if target == "STANDING" {
		return p.runOn("STANDUP")
	}
	script, ok := stateActions[target]
	if !ok {
		return infeasible(state, "no action makes %s %s", obj.ClassName, target)
	}
	return p.runOn(script, obj)
}

func (p *Planner) achieveRelation(rel string, negated bool, a, b *scene.Node) error {
	char, err := p.world.Character()
	if err != nil {
		return err
	}
	isChar := a.ID == char.ID

	if negated {
		switch {
		case isChar && (rel == RelHoldRH || rel == RelHoldLH):
			return p.runOn("DROP", b)
		case isChar && rel == RelOnTop:
			return p.runOn("STANDUP")
		case !isChar && (rel == RelOnTop || rel == RelInside):
			return p.runOn("GRAB", a)
		}
		return infeasible(rel, "no action removes %s between %s and %s", rel, a.ClassName, b.ClassName)
	}

	switch rel {
	case RelNextTo:
		switch {
		case isChar:
			return p.runOn("WALK", b)
		case b.ID == char.ID:
			return p.runOn("WALK", a)
		}
	case RelFacing:
		if isChar {
			return p.runOn("TURNTO", b)
		}
	case RelHoldRH, RelHoldLH:
		if isChar {
			return p.runOn("GRAB", b)
		}
	case RelOnTop:
		switch {
		case isChar && b.HasProperty("SITTABLE"):
			return p.runOn("SIT", b)
		case isChar && b.HasProperty("LIEABLE"):
			return p.runOn("LIE", b)
		case !isChar:
			return p.putOn("PUTBACK", char, a, b)
		}
	case RelInside:
		switch {
		case isChar && b.IsRoom():
			return p.runOn("WALK", b)
		case !isChar:
			return p.putOn("PUTIN", char, a, b)
		}
	}
	return infeasible(rel, "no action makes %s %s %s", a.ClassName, rel, b.ClassName)
}

// putOn grabs obj if needed and places it with script.
func (p *Planner) putOn(script string, char, obj, dest *scene.Node) error {
	if !p.world.Holds(char, obj) {
		if err := p.runOn("GRAB", obj); err != nil {
			return err
		}
	}
	return p.runOn(script, obj, dest)
}
