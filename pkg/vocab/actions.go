package vocab

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ActionSpec is an action entry from the vocabulary file. Arity is -1 when
// the entry does not declare one.
type ActionSpec struct {
	ScriptName string `json:"script_name"`
	Arity      int    `json:"arity"`
}

// UnmarshalJSON accepts ["NAME", arity], a bare arity, or an object.
func (a *ActionSpec) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	a.Arity = -1
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	switch data[0] {
	case '[':
		var tuple []json.RawMessage
		if err := json.Unmarshal(data, &tuple); err != nil {
			return fmt.Errorf("action spec: %w", err)
		}
		if len(tuple) > 0 {
			if err := json.Unmarshal(tuple[0], &a.ScriptName); err != nil {
				return fmt.Errorf("action spec name: %w", err)
			}
		}
		if len(tuple) > 1 {
			if err := json.Unmarshal(tuple[1], &a.Arity); err != nil {
				return fmt.Errorf("action spec arity: %w", err)
			}
		}
		return nil
	case '{':
		type plain ActionSpec
		p := plain{Arity: -1}
		if err := json.Unmarshal(data, &p); err != nil {
			return fmt.Errorf("action spec: %w", err)
		}
		*a = ActionSpec(p)
		return nil
	default:
		if err := json.Unmarshal(data, &a.Arity); err != nil {
			return fmt.Errorf("action spec arity: %w", err)
		}
		return nil
	}
}

// ValidAction is a built-in action: the simulator script name and its arity.
type ValidAction struct {
	ScriptName string
	Arity      int
}

// ValidActions is the simulator's executable action table.
var ValidActions = map[string]ValidAction{
	"DRINK":         {"DRINK", 1},
	"EAT":           {"EAT", 1},
	"CUT":           {"CUT", 1},
	"TOUCH":         {"TOUCH", 1},
	"LOOKAT":        {"LOOKAT", 1},
	"LOOKAT_SHORT":  {"LOOKAT_SHORT", 1},
	"LOOKAT_MEDIUM": {"LOOKAT_MEDIUM", 1},
	"LOOKAT_LONG":   {"LOOKAT_LONG", 1},
	"WATCH":         {"WATCH", 1},
	"READ":          {"READ", 1},
	"TYPE":          {"TYPE", 1},
	"PUSH":          {"PUSH", 1},
	"PULL":          {"PULL", 1},
	"MOVE":          {"MOVE", 1},
	"SQUEEZE":       {"SQEEZE", 1}, // simulator spelling
	"SLEEP":         {"SLEEP", 0},
	"WAKEUP":        {"WAKEUP", 0},
	"RINSE":         {"RINSE", 1},
	"SCRUB":         {"SCRUB", 1},
	"WASH":          {"WASH", 1},
	"GRAB":          {"GRAB", 1},
	"SWITCHOFF":     {"SWITCHOFF", 1},
	"SWITCHON":      {"SWITCHON", 1},
	"CLOSE":         {"CLOSE", 1},
	"FIND":          {"FIND", 1},
	"WALK":          {"WALK", 1},
	"OPEN":          {"OPEN", 1},
	"POINTAT":       {"POINTAT", 1},
	"PUTBACK":       {"PUTBACK", 2},
	"PUTIN":         {"PUTIN", 2},
	"PUTOBJBACK":    {"PUTOBJBACK", 1},
	"RUN":           {"RUN", 1},
	"SIT":           {"SIT", 1},
	"STANDUP":       {"STANDUP", 0},
	"TURNTO":        {"TURNTO", 1},
	"WIPE":          {"WIPE", 1},
	"PUTON":         {"PUTON", 1},
	"PUTOFF":        {"PUTOFF", 1},
	"GREET":         {"GREET", 1},
	"DROP":          {"DROP", 1},
	"LIE":           {"LIE", 1},
	"POUR":          {"POUR", 2},
}

// stateTransform canonicalizes simulator state and relation names.
var stateTransform = map[string]string{
	"CLOSED":          "CLOSED",
	"OPEN":            "OPEN",
	"ON":              "ON",
	"OFF":             "OFF",
	"SITTING":         "SITTING",
	"DIRTY":           "DIRTY",
	"CLEAN":           "CLEAN",
	"LYING":           "LYING",
	"PLUGGED_IN":      "PLUGGED_IN",
	"PLUGGED_OUT":     "PLUGGED_OUT",
	"ONTOP":           "ONTOP",
	"OBJ_ONTOP":       "OBJ_ONTOP",
	"ON_CHAR":         "ON_CHAR",
	"INSIDE":          "INSIDE",
	"OBJ_INSIDE":      "OBJ_INSIDE",
	"INSIDE_ROOM":     "INSIDE_ROOM",
	"BETWEEN":         "BETWEEN",
	"NEXT_TO":         "NEXT_TO",
	"OBJ_NEXT_TO":     "OBJ_NEXT_TO",
	"FACING":          "FACING",
	"HOLDS_RH":        "HOLDS_RH",
	"HOLDS_LH":        "HOLDS_LH",
	"SITTINGRELATION": "ONTOP", // sitting is scored as being on top of the seat
}

// Canonical maps a simulator-native state or relation name to the name used
// in world-state graphs. Unlisted names are returned unchanged.
func Canonical(native string) string {
	if c, ok := stateTransform[native]; ok {
		return c
	}
	return native
}
