// Package tl parses the restricted temporal-logic language used for goal
// formulas and subgoal plans.
//
// A formula combines primitive applications with logical and temporal
// connectives, lowest precedence first:
//
//	implies   a implies b          (right associative)
//	then      a then b then c
//	until     a until b
//	or        a or b
//	and       a and b
//	unary     not a | always a | eventually a
//	primary   NAME(ref, ...) | NAME | ( formula )
//
// NAME must be a known predicate or action; refs are object references of the
// form name.id or a bare id. Keywords are case-insensitive.
package tl

import (
	"strings"
)

// Expr is a node of a parsed formula.
type Expr interface {
	String() string
	expr()
}

// Ref is an object reference. Raw is the token as written.
type Ref struct {
	Raw  string `json:"raw"`
	Name string `json:"name,omitempty"`
	ID   string `json:"id"`
}

// ParseRef splits name.id references. A bare token is an id.
func ParseRef(raw string) Ref {
	if name, id, ok := strings.Cut(raw, "."); ok {
		return Ref{Raw: raw, Name: name, ID: id}
	}
	return Ref{Raw: raw, ID: raw}
}

func (r Ref) String() string { return r.Raw }

// Predicate is a state or relation assertion.
type Predicate struct {
	Name string
	Args []Ref
}

// Action is an action occurrence.
type Action struct {
	Name string
	Args []Ref
}

// Not negates its operand.
type Not struct{ X Expr }

// And holds when every operand holds.
type And struct{ Operands []Expr }

// Or holds when some operand holds.
type Or struct{ Operands []Expr }

// Then is an ordered sequence: each step after the previous one.
type Then struct{ Steps []Expr }

// Until holds Left until Right becomes true.
type Until struct{ Left, Right Expr }

// Always holds X in every state.
type Always struct{ X Expr }

// Eventually holds X in some later state.
type Eventually struct{ X Expr }

// Implies requires Consequent whenever Antecedent holds.
type Implies struct{ Antecedent, Consequent Expr }

func (*Predicate) expr()  {}
func (*Action) expr()     {}
func (*Not) expr()        {}
func (*And) expr()        {}
func (*Or) expr()         {}
func (*Then) expr()       {}
func (*Until) expr()      {}
func (*Always) expr()     {}
func (*Eventually) expr() {}
func (*Implies) expr()    {}

func (p *Predicate) String() string { return application(p.Name, p.Args) }
func (a *Action) String() string    { return application(a.Name, a.Args) }
func (n *Not) String() string       { return "not " + n.X.String() }
func (a *And) String() string       { return joinExprs(a.Operands, " and ") }
func (o *Or) String() string        { return joinExprs(o.Operands, " or ") }
func (t *Then) String() string      { return joinExprs(t.Steps, " then ") }
func (u *Until) String() string     { return "(" + u.Left.String() + " until " + u.Right.String() + ")" }
func (a *Always) String() string    { return "always " + a.X.String() }
func (e *Eventually) String() string {
	return "eventually " + e.X.String()
}
func (i *Implies) String() string {
	return "(" + i.Antecedent.String() + " implies " + i.Consequent.String() + ")"
}

func application(name string, args []Ref) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.Raw
	}
	return name + "(" + strings.Join(parts, ", ") + ")"
}

func joinExprs(exprs []Expr, sep string) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = e.String()
	}
	return "(" + strings.Join(parts, sep) + ")"
}

// Children returns the direct subexpressions of e, left to right.
func Children(e Expr) []Expr {
	switch n := e.(type) {
	case *Not:
		return []Expr{n.X}
	case *And:
		return n.Operands
	case *Or:
		return n.Operands
	case *Then:
		return n.Steps
	case *Until:
		return []Expr{n.Left, n.Right}
	case *Always:
		return []Expr{n.X}
	case *Eventually:
		return []Expr{n.X}
	case *Implies:
		return []Expr{n.Antecedent, n.Consequent}
	default:
		return nil
	}
}

// Walk visits e depth-first, left to right. If fn returns false the
// children of that node are skipped.
func Walk(e Expr, fn func(Expr) bool) {
	if e == nil || !fn(e) {
		return
	}
	for _, c := range Children(e) {
		Walk(c, fn)
	}
}

// Leaves returns the predicate and action applications in e, left to right.
func Leaves(e Expr) []Expr {
	var out []Expr
	Walk(e, func(n Expr) bool {
		switch n.(type) {
		case *Predicate, *Action:
			out = append(out, n)
		}
		return true
	})
	return out
}

// IsTemporal reports whether e contains a temporal or sequencing connective.
func IsTemporal(e Expr) bool {
	found := false
	Walk(e, func(n Expr) bool {
		switch n.(type) {
		case *Then, *Until, *Always, *Eventually, *Implies:
			found = true
		}
		return !found
	})
	return found
}
