package checker

import (
	"errors"
	"fmt"

	"github.com/cgast/sgeval/pkg/plan"
	"github.com/cgast/sgeval/pkg/tl"
	"github.com/cgast/sgeval/pkg/vocab"
)

// Syntactic error types.
const (
	NotParseable     = "NotParseable"
	UnknownPrimitive = "UnknownPrimitive"
)

// SyntacticReport describes why plan lines were rejected.
type SyntacticReport struct {
	Passed    bool   `json:"passed"`
	ErrorType string `json:"error_type,omitempty"`
	Line      int    `json:"line"`
	Text      string `json:"text,omitempty"`
	Token     string `json:"token,omitempty"`
	Message   string `json:"message,omitempty"`
}

// SyntacticChecker parses plan lines using the vocabulary's predicates and
// subgoal actions as terminals.
type SyntacticChecker struct {
	vocab  *vocab.Vocabulary
	parser *tl.Parser
}

// NewSyntacticChecker creates a syntactic checker for v.
func NewSyntacticChecker(v *vocab.Vocabulary) *SyntacticChecker {
	return &SyntacticChecker{
		vocab:  v,
		parser: tl.NewParser(v.PredicateNames(), v.SubgoalActionNames()),
	}
}

// Parser returns the formula parser over the vocabulary's terminals. Goal
// formulas are parsed with it too.
func (c *SyntacticChecker) Parser() *tl.Parser { return c.parser }

// Check parses every line. On success the returned plan holds one subgoal
// per line with its statements in order.
func (c *SyntacticChecker) Check(lines []string) (plan.Plan, SyntacticReport) {
	if len(lines) == 0 {
		return plan.Plan{}, SyntacticReport{ErrorType: NotParseable, Line: -1, Message: "empty plan"}
	}

	subgoals := make([]plan.Subgoal, 0, len(lines))
	for i, line := range lines {
		expr, err := c.parser.Parse(line)
		if err != nil {
			return plan.Plan{}, parseFailure(i, line, err)
		}
		if tl.IsTemporal(expr) {
			return plan.Plan{}, SyntacticReport{
				ErrorType: NotParseable, Line: i, Text: line,
				Message: "temporal connectives are not allowed inside a subgoal",
			}
		}
		stmts, err := c.statements(expr, i)
		if err != nil {
			return plan.Plan{}, SyntacticReport{ErrorType: NotParseable, Line: i, Text: line, Message: err.Error()}
		}
		subgoals = append(subgoals, plan.Subgoal{Index: i, Text: line, Expr: expr, Statements: stmts})
	}
	return plan.New(subgoals), SyntacticReport{Passed: true, Line: -1}
}

func parseFailure(line int, text string, err error) SyntacticReport {
	var up *tl.UnknownPrimitiveError
	if errors.As(err, &up) {
		return SyntacticReport{
			ErrorType: UnknownPrimitive, Line: line, Text: text, Token: up.Token,
			Message: fmt.Sprintf("%q is neither a predicate nor a subgoal action", up.Token),
		}
	}
	return SyntacticReport{ErrorType: NotParseable, Line: line, Text: text, Message: err.Error()}
}

// statements flattens a line into its primitives. "not" may only wrap a
// predicate.
func (c *SyntacticChecker) statements(expr tl.Expr, line int) ([]plan.Statement, error) {
	var out []plan.Statement
	var walk func(e tl.Expr) error
	walk = func(e tl.Expr) error {
		switch n := e.(type) {
		case *tl.Predicate, *tl.Action:
			stmt, err := statement(c.vocab, n, false, line)
			if err != nil {
				return err
			}
			out = append(out, stmt)
		case *tl.Not:
			if _, ok := n.X.(*tl.Predicate); !ok {
				return fmt.Errorf("not must be applied to a predicate, got %s", n.X)
			}
			stmt, err := statement(c.vocab, n.X, true, line)
			if err != nil {
				return err
			}
			out = append(out, stmt)
		case *tl.And, *tl.Or:
			for _, child := range tl.Children(n) {
				if err := walk(child); err != nil {
					return err
				}
			}
		default:
			return fmt.Errorf("unsupported connective in %s", e)
		}
		return nil
	}
	if err := walk(expr); err != nil {
		return nil, err
	}
	return out, nil
}
