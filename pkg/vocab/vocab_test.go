package vocab_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cgast/sgeval/internal/fixture"
	"github.com/cgast/sgeval/pkg/vocab"
)

func TestDeriveArityCompleteVocabulary(t *testing.T) {
	v := fixture.Vocabulary(t)
	for _, p := range v.Predicates() {
		arity := v.DeriveArity(p.Name)
		if arity != 1 && arity != 2 {
			t.Errorf("DeriveArity(%s) = %d, want 1 or 2", p.Name, arity)
		}
	}
	if len(v.Inconsistencies()) != 0 {
		t.Errorf("Inconsistencies() = %v, want none", v.Inconsistencies())
	}
}

func TestDeriveArityClassification(t *testing.T) {
	v := fixture.Vocabulary(t)
	tests := []struct {
		name      string
		wantKind  vocab.Kind
		wantArity int
	}{
		{"GRABBABLE", vocab.KindProperty, 1},
		{"ON", vocab.KindState, 1},
		{"CLOSED", vocab.KindState, 1},
		{"ONTOP", vocab.KindRelation, 2},
		{"NEXT_TO", vocab.KindRelation, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, ok := v.Predicate(tt.name)
			if !ok {
				t.Fatalf("predicate %s not found", tt.name)
			}
			if p.Kind != tt.wantKind {
				t.Errorf("Kind = %s, want %s", p.Kind, tt.wantKind)
			}
			if p.Arity != tt.wantArity {
				t.Errorf("Arity = %d, want %d", p.Arity, tt.wantArity)
			}
		})
	}
	if v.DeriveArity("FLYING") != -1 {
		t.Error("unknown predicate should derive -1")
	}
}

func TestGraphName(t *testing.T) {
	v := fixture.Vocabulary(t)
	ontop, _ := v.Predicate("ONTOP")
	if got := ontop.GraphName(); got != "ONTOP" {
		t.Errorf("ONTOP graph name = %q, want ONTOP", got)
	}
	on, _ := v.Predicate("ON")
	if got := on.GraphName(); got != "ON" {
		t.Errorf("ON graph name = %q, want ON", got)
	}
	if got := vocab.Canonical("SITTINGRELATION"); got != "ONTOP" {
		t.Errorf("Canonical(SITTINGRELATION) = %q", got)
	}
}

func inconsistentVocab() string {
	// OPEN maps to a state whose reverse mapping points elsewhere.
	return strings.Replace(fixture.VocabJSON, `"OPEN": "OPEN", "ON": "ON", "OFF": "OFF", "DIRTY": "DIRTY",
    "CLEAN": "CLEAN", "SITTING"`, `"OPEN": "OPENED", "ON": "ON", "OFF": "OFF", "DIRTY": "DIRTY",
    "CLEAN": "CLEAN", "SITTING"`, 1)
}

func TestLoadWarnsOnUnderivableArity(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vocab.json")
	if err := os.WriteFile(path, []byte(inconsistentVocab()), 0644); err != nil {
		t.Fatal(err)
	}

	v, err := vocab.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if v.DeriveArity("OPEN") != -1 {
		t.Errorf("DeriveArity(OPEN) = %d, want -1", v.DeriveArity("OPEN"))
	}
	if len(v.Inconsistencies()) != 1 {
		t.Errorf("Inconsistencies() = %v, want 1 entry", v.Inconsistencies())
	}

	if _, err := vocab.LoadStrict(path); err == nil {
		t.Error("LoadStrict should reject an inconsistent vocabulary")
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := vocab.Load(filepath.Join(t.TempDir(), "nope.json"))
	var cfgErr *vocab.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("err = %v, want *ConfigError", err)
	}
}

func TestLoadMissingKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vocab.json")
	data := `{"tl_predicates": ["OPEN"], "tl_predicates_to_vh": {"OPEN": "OPEN"}}`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := vocab.Load(path)
	var cfgErr *vocab.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("err = %v, want *ConfigError", err)
	}
	if !strings.Contains(err.Error(), "Actions") {
		t.Errorf("error should name the missing key, got %v", err)
	}
}

func TestLoadMalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vocab.json")
	if err := os.WriteFile(path, []byte(`{"tl_predicates": [`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := vocab.Load(path); err == nil {
		t.Error("expected error for malformed JSON")
	}
}

func TestParseUnmappedPredicate(t *testing.T) {
	data := strings.Replace(fixture.VocabJSON, `"tl_predicates": ["CLOSED",`, `"tl_predicates": ["FLOATING", "CLOSED",`, 1)
	if _, err := vocab.Parse([]byte(data)); err == nil {
		t.Error("expected error for predicate without tl_predicates_to_vh entry")
	}
}

func TestActionSpecForms(t *testing.T) {
	data := strings.Replace(fixture.VocabJSON, `"DROP": ["DROP", 1], "LIE": ["LIE", 1], "WIPE": ["WIPE", 1]
  },
  "properties"`, `"DROP": 1, "LIE": {"script_name": "LIE", "arity": 1}, "WIPE": ["WIPE"]
  },
  "properties"`, 1)
	v, err := vocab.Parse([]byte(data))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := v.ActionArity("DROP"); got != 1 {
		t.Errorf("DROP arity = %d, want 1", got)
	}
	if got := v.ActionArity("LIE"); got != 1 {
		t.Errorf("LIE arity = %d, want 1", got)
	}
	// No declared arity: falls back to the built-in table.
	if got := v.ActionArity("WIPE"); got != 1 {
		t.Errorf("WIPE arity = %d, want 1", got)
	}
	if got := v.ActionArity("STANDUP"); got != 0 {
		t.Errorf("STANDUP arity = %d, want 0", got)
	}
	if got := v.ActionArity("PUTBACK"); got != 2 {
		t.Errorf("PUTBACK arity = %d, want 2", got)
	}
	if !v.IsSubgoalAction("GRAB") || v.IsSubgoalAction("FLY") {
		t.Error("IsSubgoalAction mismatch")
	}
}

func TestScriptName(t *testing.T) {
	v := fixture.Vocabulary(t)
	if got := v.ScriptName("SQUEEZE"); got != "SQEEZE" {
		t.Errorf("ScriptName(SQUEEZE) = %q, want SQEEZE", got)
	}
	if got := v.ScriptName("GRAB"); got != "GRAB" {
		t.Errorf("ScriptName(GRAB) = %q", got)
	}
}

func TestAmbiguousNames(t *testing.T) {
	v := fixture.Vocabulary(t)
	got := v.Ambiguous()
	if len(got) != 1 || got[0] != "OPEN" {
		t.Errorf("Ambiguous() = %v, want [OPEN]", got)
	}
	if !v.IsPredicate("OPEN") || !v.IsSubgoalAction("OPEN") {
		t.Error("OPEN should be both a predicate and a subgoal action")
	}
}
