// Package fixture provides a small household vocabulary and kitchen scene
// shared by package tests.
package fixture

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cgast/sgeval/pkg/scene"
	"github.com/cgast/sgeval/pkg/vocab"
)

// VocabJSON is a consistent vocabulary: every predicate derives arity 1 or 2.
const VocabJSON = `{
  "tl_predicates": ["CLOSED", "OPEN", "ON", "OFF", "DIRTY", "CLEAN", "SITTING", "LYING",
                    "PLUGGED_IN", "PLUGGED_OUT", "GRABBABLE", "CAN_OPEN", "HAS_SWITCH",
                    "ONTOP", "INSIDE", "NEXT_TO", "FACING", "HOLDS_RH", "HOLDS_LH"],
  "actions": {
    "DRINK": ["DRINK", 1], "EAT": ["EAT", 1], "FIND": ["FIND", 1], "WALK": ["WALK", 1],
    "GRAB": ["GRAB", 1], "OPEN": ["OPEN", 1], "CLOSE": ["CLOSE", 1],
    "SWITCHON": ["SWITCHON", 1], "SWITCHOFF": ["SWITCHOFF", 1],
    "PUTBACK": ["PUTBACK", 2], "PUTIN": ["PUTIN", 2], "SIT": ["SIT", 1],
    "STANDUP": ["STANDUP", 0], "WASH": ["WASH", 1], "TURNTO": ["TURNTO", 1],
    "LOOKAT": ["LOOKAT", 1], "SLEEP": ["SLEEP", 0], "POUR": ["POUR", 2],
    "DROP": ["DROP", 1], "LIE": ["LIE", 1], "WIPE": ["WIPE", 1]
  },
  "subgoal_actions": {
    "DRINK": ["DRINK", 1], "EAT": ["EAT", 1], "FIND": ["FIND", 1], "WALK": ["WALK", 1],
    "GRAB": ["GRAB", 1], "OPEN": ["OPEN", 1], "CLOSE": ["CLOSE", 1],
    "SWITCHON": ["SWITCHON", 1], "SWITCHOFF": ["SWITCHOFF", 1],
    "PUTBACK": ["PUTBACK", 2], "PUTIN": ["PUTIN", 2], "SIT": ["SIT", 1],
    "STANDUP": ["STANDUP", 0], "WASH": ["WASH", 1], "TURNTO": ["TURNTO", 1],
    "LOOKAT": ["LOOKAT", 1], "SLEEP": ["SLEEP", 0], "POUR": ["POUR", 2],
    "DROP": ["DROP", 1], "LIE": ["LIE", 1], "WIPE": ["WIPE", 1]
  },
  "properties": ["GRABBABLE", "CAN_OPEN", "HAS_SWITCH", "SITTABLE", "LIEABLE", "SURFACES", "CONTAINERS"],
  "vh_states": ["CLOSED", "OPEN", "ON", "OFF", "DIRTY", "CLEAN", "SITTING", "LYING", "PLUGGED_IN", "PLUGGED_OUT"],
  "vh_relations": ["ON", "INSIDE", "NEXT_TO", "FACING", "HOLDS_RH", "HOLDS_LH", "BETWEEN"],
  "tl_predicates_to_vh": {
    "CLOSED": "CLOSED", "OPEN": "OPEN", "ON": "ON", "OFF": "OFF", "DIRTY": "DIRTY",
    "CLEAN": "CLEAN", "SITTING": "SITTING", "LYING": "LYING", "PLUGGED_IN": "PLUGGED_IN",
    "PLUGGED_OUT": "PLUGGED_OUT", "GRABBABLE": "GRABBABLE", "CAN_OPEN": "CAN_OPEN",
    "HAS_SWITCH": "HAS_SWITCH", "ONTOP": "ON", "INSIDE": "INSIDE", "NEXT_TO": "NEXT_TO",
    "FACING": "FACING", "HOLDS_RH": "HOLDS_RH", "HOLDS_LH": "HOLDS_LH"
  },
  "vh_states_to_tl": {
    "CLOSED": "CLOSED", "OPEN": "OPEN", "ON": "ON", "OFF": "OFF", "DIRTY": "DIRTY",
    "CLEAN": "CLEAN", "SITTING": "SITTING", "LYING": "LYING", "PLUGGED_IN": "PLUGGED_IN",
    "PLUGGED_OUT": "PLUGGED_OUT"
  },
  "vh_relations_to_tl": {
    "ON": "ONTOP", "INSIDE": "INSIDE", "NEXT_TO": "NEXT_TO", "FACING": "FACING",
    "HOLDS_RH": "HOLDS_RH", "HOLDS_LH": "HOLDS_LH", "BETWEEN": "BETWEEN"
  }
}`

// Vocabulary parses VocabJSON.
func Vocabulary(tb testing.TB) *vocab.Vocabulary {
	tb.Helper()
	v, err := vocab.Parse([]byte(VocabJSON))
	if err != nil {
		tb.Fatalf("parse fixture vocabulary: %v", err)
	}
	return v
}

// WriteVocab writes VocabJSON into dir and returns its path.
func WriteVocab(tb testing.TB, dir string) string {
	tb.Helper()
	path := filepath.Join(dir, "vocabulary.json")
	if err := os.WriteFile(path, []byte(VocabJSON), 0644); err != nil {
		tb.Fatalf("write fixture vocabulary: %v", err)
	}
	return path
}

// Kitchen returns a small scene:
//
//	65 character  INSIDE kitchen
//	1  apple      ONTOP table, GRABBABLE
//	2  fridge     CLOSED, CAN_OPEN
//	3  table      SURFACES
//	4  tv         OFF, HAS_SWITCH
//	5  sofa       SITTABLE
//	6  cup        DIRTY, GRABBABLE, INSIDE sink
//	7  sink       CONTAINERS
//	11 kitchen
func Kitchen() scene.Graph {
	return scene.Graph{
		Nodes: []scene.Node{
			{ID: "65", ClassName: "character"},
			{ID: "1", ClassName: "apple", Properties: []string{"GRABBABLE"}},
			{ID: "2", ClassName: "fridge", States: []string{"CLOSED"}, Properties: []string{"CAN_OPEN", "CONTAINERS"}},
			{ID: "3", ClassName: "table", Properties: []string{"SURFACES"}},
			{ID: "4", ClassName: "tv", States: []string{"OFF"}, Properties: []string{"HAS_SWITCH"}},
			{ID: "5", ClassName: "sofa", Properties: []string{"SITTABLE", "SURFACES"}},
			{ID: "6", ClassName: "cup", States: []string{"DIRTY"}, Properties: []string{"GRABBABLE"}},
			{ID: "7", ClassName: "sink", Properties: []string{"CONTAINERS"}},
			{ID: "11", ClassName: "kitchen", Category: "Rooms"},
		},
		Edges: []scene.Edge{
			{FromID: "65", ToID: "11", RelationType: "INSIDE"},
			{FromID: "1", ToID: "3", RelationType: "ONTOP"},
			{FromID: "6", ToID: "7", RelationType: "INSIDE"},
		},
	}
}
