package sim

import (
	"fmt"
	"sort"

	"github.com/cgast/sgeval/pkg/scene"
)

// Change records a difference between two world states.
type Change struct {
	Subject string `json:"subject"`
	Detail  string `json:"detail"`
	Type    string `json:"type"` // "added", "removed"
}

func (c Change) String() string {
	sign := "+"
	if c.Type == "removed" {
		sign = "-"
	}
	return fmt.Sprintf("%s %s %s", sign, c.Subject, c.Detail)
}

// Diff lists the node states and edges added or removed between a and b.
func Diff(a, b scene.Graph) []Change {
	var changes []Change

	names := b.IDToName()
	for id, name := range a.IDToName() {
		if _, ok := names[id]; !ok {
			names[id] = name
		}
	}
	label := func(id scene.ID) string { return fmt.Sprintf("%s.%s", names[id], id) }

	for _, nb := range b.Nodes {
		na, _ := a.Node(nb.ID)
		for _, s := range nb.States {
			if !na.HasState(s) {
				changes = append(changes, Change{Subject: label(nb.ID), Detail: s, Type: "added"})
			}
		}
		for _, s := range na.States {
			if !nb.HasState(s) {
				changes = append(changes, Change{Subject: label(nb.ID), Detail: s, Type: "removed"})
			}
		}
	}

	edgeLabel := func(e scene.Edge) string { return e.RelationType + " " + label(e.ToID) }
	for _, e := range b.Edges {
		if !a.HasEdge(e.FromID, e.ToID, e.RelationType) {
			changes = append(changes, Change{Subject: label(e.FromID), Detail: edgeLabel(e), Type: "added"})
		}
	}
	for _, e := range a.Edges {
		if !b.HasEdge(e.FromID, e.ToID, e.RelationType) {
			changes = append(changes, Change{Subject: label(e.FromID), Detail: edgeLabel(e), Type: "removed"})
		}
	}

	sort.SliceStable(changes, func(i, j int) bool {
		return changes[i].Subject < changes[j].Subject
	})
	return changes
}
