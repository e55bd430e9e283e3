package scene

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestIDAcceptsNumbersAndStrings(t *testing.T) {
	var g Graph
	data := `{"nodes":[{"id":65,"class_name":"character","states":[]},{"id":"obj1","class_name":"apple","states":["GRABBED"]}],
	          "edges":[{"from_id":65,"to_id":"obj1","relation_type":"HOLDS_RH"}]}`
	if err := json.Unmarshal([]byte(data), &g); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if g.Nodes[0].ID != "65" {
		t.Errorf("node id = %q, want %q", g.Nodes[0].ID, "65")
	}
	if g.Nodes[1].ID != "obj1" {
		t.Errorf("node id = %q, want %q", g.Nodes[1].ID, "obj1")
	}
	if !g.HasEdge("65", "obj1", "HOLDS_RH") {
		t.Error("expected HOLDS_RH edge")
	}
}

func TestCloneIsDeep(t *testing.T) {
	g := Graph{
		Nodes: []Node{{ID: "1", ClassName: "fridge", States: []string{"CLOSED"}}},
		Edges: []Edge{{FromID: "1", ToID: "2", RelationType: "INSIDE"}},
	}
	c := g.Clone()
	c.Nodes[0].States[0] = "OPEN"
	c.Edges[0].RelationType = "ONTOP"

	if g.Nodes[0].States[0] != "CLOSED" {
		t.Error("clone shares node states with original")
	}
	if g.Edges[0].RelationType != "INSIDE" {
		t.Error("clone shares edges with original")
	}
}

func TestLoadGraph(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.json")
	data := `{"nodes":[{"id":1,"class_name":"tv","states":["OFF"],"properties":["HAS_SWITCH"]}],"edges":[]}`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	g, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	n, ok := g.Node("1")
	if !ok {
		t.Fatal("node 1 not found")
	}
	if !n.HasState("OFF") || !n.HasProperty("HAS_SWITCH") {
		t.Errorf("node = %+v", n)
	}
	if g.IDToName()["1"] != "tv" {
		t.Errorf("IDToName = %v", g.IDToName())
	}
}

func TestLoadGraphMissing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing scene")
	}
}
