// Package scene holds the world-state graph produced by a planner: nodes with
// their active states and properties, and typed relation edges between them.
package scene

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strconv"
)

// ID identifies a scene object. Simulator files use integer ids; plans and
// tests may use any identifier, so ids are kept as strings.
type ID string

// UnmarshalJSON accepts both JSON strings and JSON numbers.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("scene id: %w", err)
	}
	if i, err := n.Int64(); err == nil {
		*id = ID(strconv.FormatInt(i, 10))
		return nil
	}
	*id = ID(n.String())
	return nil
}

// Node is one object in the world state.
type Node struct {
	ID         ID       `json:"id"`
	ClassName  string   `json:"class_name"`
	Category   string   `json:"category,omitempty"`
	States     []string `json:"states"`
	Properties []string `json:"properties,omitempty"`
}

// HasState reports whether state is active on the node.
func (n Node) HasState(state string) bool {
	return slices.Contains(n.States, state)
}

// HasProperty reports whether the node carries property.
func (n Node) HasProperty(prop string) bool {
	return slices.Contains(n.Properties, prop)
}

// IsRoom reports whether the node is a room rather than an object.
func (n Node) IsRoom() bool { return n.Category == "Rooms" }

// Edge is a directed relation between two nodes.
type Edge struct {
	FromID       ID     `json:"from_id"`
	ToID         ID     `json:"to_id"`
	RelationType string `json:"relation_type"`
}

// Graph is a snapshot of the world state.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Load reads a graph from a JSON file.
func Load(path string) (Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Graph{}, fmt.Errorf("read scene %s: %w", path, err)
	}
	var g Graph
	if err := json.Unmarshal(data, &g); err != nil {
		return Graph{}, fmt.Errorf("parse scene %s: %w", path, err)
	}
	return g, nil
}

// Clone returns a deep copy of the graph.
func (g Graph) Clone() Graph {
	out := Graph{
		Nodes: make([]Node, len(g.Nodes)),
		Edges: slices.Clone(g.Edges),
	}
	for i, n := range g.Nodes {
		n.States = slices.Clone(n.States)
		n.Properties = slices.Clone(n.Properties)
		out.Nodes[i] = n
	}
	return out
}

// Node returns the node with the given id.
func (g Graph) Node(id ID) (Node, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// HasEdge reports whether an edge with exactly these fields exists.
func (g Graph) HasEdge(from, to ID, relation string) bool {
	for _, e := range g.Edges {
		if e.FromID == from && e.ToID == to && e.RelationType == relation {
			return true
		}
	}
	return false
}

// EdgesFrom returns the edges leaving from with the given relation.
func (g Graph) EdgesFrom(from ID, relation string) []Edge {
	var out []Edge
	for _, e := range g.Edges {
		if e.FromID == from && e.RelationType == relation {
			out = append(out, e)
		}
	}
	return out
}

// IDToName maps every node id to its class name.
func (g Graph) IDToName() map[ID]string {
	m := make(map[ID]string, len(g.Nodes))
	for _, n := range g.Nodes {
		m[n.ID] = n.ClassName
	}
	return m
}
