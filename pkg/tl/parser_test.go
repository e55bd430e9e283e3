package tl

import (
	"errors"
	"testing"
)

var (
	testPredicates = []string{"OPEN", "CLOSED", "ON", "ONTOP", "INSIDE", "NEXT_TO", "HOLDS_RH"}
	testActions    = []string{"FIND", "GRAB", "OPEN", "PUTBACK", "STANDUP", "WALK", "DRINK"}
)

func mustParse(t *testing.T, src string) Expr {
	t.Helper()
	e, err := Parse(src, testPredicates, testActions)
	if err != nil {
		t.Fatalf("Parse(%q): %v", src, err)
	}
	return e
}

func TestParsePrimitives(t *testing.T) {
	e := mustParse(t, "ONTOP(apple.1, table.3)")
	p, ok := e.(*Predicate)
	if !ok {
		t.Fatalf("got %T, want *Predicate", e)
	}
	if p.Name != "ONTOP" || len(p.Args) != 2 {
		t.Fatalf("predicate = %+v", p)
	}
	if p.Args[0].Name != "apple" || p.Args[0].ID != "1" {
		t.Errorf("arg 0 = %+v", p.Args[0])
	}

	a, ok := mustParse(t, "GRAB(obj1)").(*Action)
	if !ok {
		t.Fatal("GRAB should parse as an action")
	}
	if a.Args[0].ID != "obj1" || a.Args[0].Name != "" {
		t.Errorf("bare ref = %+v", a.Args[0])
	}

	if _, ok := mustParse(t, "STANDUP()").(*Action); !ok {
		t.Error("STANDUP() should parse as an action")
	}
	if _, ok := mustParse(t, "STANDUP").(*Action); !ok {
		t.Error("bare STANDUP should parse as an action")
	}
	// Names shared by both sets read as predicates.
	if _, ok := mustParse(t, "OPEN(fridge.2)").(*Predicate); !ok {
		t.Error("OPEN should parse as a predicate")
	}
}

func TestParsePrecedence(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"FIND(a) and GRAB(a) or WALK(b)", "((FIND(a) and GRAB(a)) or WALK(b))"},
		{"FIND(a) and (GRAB(a) or WALK(b))", "(FIND(a) and (GRAB(a) or WALK(b)))"},
		{"FIND(a) then GRAB(a) then WALK(b)", "(FIND(a) then GRAB(a) then WALK(b))"},
		{"not OPEN(f) and CLOSED(f)", "(not OPEN(f) and CLOSED(f))"},
		{"OPEN(f) until CLOSED(f) then WALK(b)", "((OPEN(f) until CLOSED(f)) then WALK(b))"},
		{"OPEN(f) implies CLOSED(f) implies ON(t)", "(OPEN(f) implies (CLOSED(f) implies ON(t)))"},
		{"always eventually ON(t)", "always eventually ON(t)"},
		{"FIND(a) AND GRAB(a)", "(FIND(a) and GRAB(a))"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			if got := mustParse(t, tt.src).String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseUnknownPrimitive(t *testing.T) {
	_, err := Parse("FIND(a) and FLY(a)", testPredicates, testActions)
	var up *UnknownPrimitiveError
	if !errors.As(err, &up) {
		t.Fatalf("err = %v, want *UnknownPrimitiveError", err)
	}
	if up.Token != "FLY" {
		t.Errorf("Token = %q, want FLY", up.Token)
	}
	if up.Pos != 12 {
		t.Errorf("Pos = %d, want 12", up.Pos)
	}
}

func TestParseBareUnknownName(t *testing.T) {
	_, err := Parse("FIND(a) and FLY", testPredicates, testActions)
	var up *UnknownPrimitiveError
	if !errors.As(err, &up) || up.Token != "FLY" {
		t.Fatalf("err = %v, want *UnknownPrimitiveError for FLY", err)
	}

	_, err = Parse("fly away", testPredicates, testActions)
	var se *SyntaxError
	if !errors.As(err, &se) {
		t.Errorf("err = %v, want *SyntaxError for prose", err)
	}
}

func TestParseSyntaxErrors(t *testing.T) {
	bad := []string{
		"",
		"FIND(a",
		"FIND(a,)",
		"FIND(a b)",
		"FIND(apple.)",
		"FIND(apple.1.2)",
		"FIND(a) and",
		"and FIND(a)",
		"FIND(a) GRAB(a)",
		"GRAB apple",
		"FIND(a) ; GRAB(a)",
		"(FIND(a)",
	}
	for _, src := range bad {
		t.Run(src, func(t *testing.T) {
			_, err := Parse(src, testPredicates, testActions)
			var se *SyntaxError
			if !errors.As(err, &se) {
				t.Errorf("Parse(%q) err = %v, want *SyntaxError", src, err)
			}
		})
	}
}

func TestLeavesInOrder(t *testing.T) {
	e := mustParse(t, "(FIND(a) then GRAB(a)) and not ONTOP(a, b) or DRINK(c)")
	leaves := Leaves(e)
	want := []string{"FIND(a)", "GRAB(a)", "ONTOP(a, b)", "DRINK(c)"}
	if len(leaves) != len(want) {
		t.Fatalf("Leaves = %v", leaves)
	}
	for i, l := range leaves {
		if l.String() != want[i] {
			t.Errorf("leaf %d = %s, want %s", i, l, want[i])
		}
	}
}

func TestIsTemporal(t *testing.T) {
	if IsTemporal(mustParse(t, "FIND(a) and not OPEN(f) or GRAB(a)")) {
		t.Error("and/or/not formula reported as temporal")
	}
	if !IsTemporal(mustParse(t, "FIND(a) and (GRAB(a) then WALK(b))")) {
		t.Error("nested then not detected")
	}
}
