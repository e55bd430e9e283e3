package checker

import (
	"fmt"
	"strings"

	"github.com/cgast/sgeval/pkg/plan"
	"github.com/cgast/sgeval/pkg/vocab"
)

// Hallucination reasons.
const (
	ReasonArityMismatch = "arity_mismatch"
	ReasonUnknownArity  = "unknown_arity"
	ReasonUnknownObject = "unknown_object"
	ReasonNameMismatch  = "name_mismatch"
)

// SemanticReport describes the first statement that could not be grounded.
type SemanticReport struct {
	Passed    bool   `json:"passed"`
	Line      int    `json:"line"`
	Statement string `json:"statement,omitempty"`
	Reason    string `json:"reason,omitempty"`
	Message   string `json:"message,omitempty"`
}

// SemanticChecker grounds plan statements in a scene.
type SemanticChecker struct {
	vocab *vocab.Vocabulary
	scene Scene
}

// NewSemanticChecker creates a semantic checker.
func NewSemanticChecker(v *vocab.Vocabulary, s Scene) *SemanticChecker {
	return &SemanticChecker{vocab: v, scene: s}
}

// Check verifies arity and object references of every statement in order
// and stops at the first mismatch.
func (c *SemanticChecker) Check(p plan.Plan) SemanticReport {
	for _, stmt := range p.Statements() {
		if reason, msg := c.checkArity(stmt); reason != "" {
			return fail(stmt, reason, msg)
		}
		for _, ref := range stmt.Args {
			name, ok := c.scene.IDToName[ref.ID]
			if !ok {
				return fail(stmt, ReasonUnknownObject, fmt.Sprintf("object %q does not exist in the scene", ref.Raw))
			}
			if ref.Name != "" && !strings.EqualFold(ref.Name, name) {
				return fail(stmt, ReasonNameMismatch, fmt.Sprintf("object %s is a %s, not a %s", ref.ID, name, ref.Name))
			}
		}
	}
	return SemanticReport{Passed: true, Line: -1}
}

func (c *SemanticChecker) checkArity(stmt plan.Statement) (reason, msg string) {
	var want int
	if stmt.Kind == plan.ActionInvocation {
		want = c.vocab.ActionArity(stmt.Name)
	} else {
		want = c.vocab.DeriveArity(stmt.Name)
	}
	switch {
	case want < 0:
		return ReasonUnknownArity, fmt.Sprintf("%s %s has no derivable arity", stmt.Kind, stmt.Name)
	case len(stmt.Args) != want:
		return ReasonArityMismatch, fmt.Sprintf("%s %s takes %d argument(s), got %d", stmt.Kind, stmt.Name, want, len(stmt.Args))
	}
	return "", ""
}

func fail(stmt plan.Statement, reason, msg string) SemanticReport {
	return SemanticReport{Line: stmt.Line, Statement: stmt.String(), Reason: reason, Message: msg}
}
