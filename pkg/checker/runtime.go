package checker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cgast/sgeval/pkg/plan"
	"github.com/cgast/sgeval/pkg/tl"
	"github.com/cgast/sgeval/pkg/vocab"
)

// RuntimeReport is the outcome of executing a plan and scoring it.
type RuntimeReport struct {
	Executable bool `json:"executable"`

	// Failure details, set when Executable is false.
	FailedLine      int    `json:"failed_line"`
	FailedStatement string `json:"failed_statement,omitempty"`
	Reason          string `json:"reason,omitempty"`

	Actions []string `json:"actions"`
	Counts  Counts   `json:"counts"`
	Goals   Goals    `json:"goals"`
}

// Passed reports whether the plan executed and met every goal.
func (r RuntimeReport) Passed() bool { return r.Executable && r.Counts.Complete() }

// RuntimeOption configures a RuntimeChecker.
type RuntimeOption func(*RuntimeChecker)

// WithStepTimeout bounds each planner step. A step that runs out of time is
// reported as infeasible.
func WithStepTimeout(d time.Duration) RuntimeOption {
	return func(c *RuntimeChecker) {
		c.stepTimeout = d
	}
}

// WithLogger sets the logger used for step tracing.
func WithLogger(l *slog.Logger) RuntimeOption {
	return func(c *RuntimeChecker) {
		c.logger = l
	}
}

// RuntimeChecker drives a planner through a plan.
type RuntimeChecker struct {
	vocab       *vocab.Vocabulary
	planner     Planner
	stepTimeout time.Duration
	logger      *slog.Logger
}

// NewRuntimeChecker creates a runtime checker over planner p.
func NewRuntimeChecker(v *vocab.Vocabulary, p Planner, opts ...RuntimeOption) *RuntimeChecker {
	c := &RuntimeChecker{vocab: v, planner: p, logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Check executes every subgoal in order and scores the final state. When a
// step is infeasible execution stops and nothing is scored; the report still
// carries the goal totals.
func (c *RuntimeChecker) Check(ctx context.Context, p plan.Plan, goals Goals) (RuntimeReport, error) {
	r := &run{checker: c}
	for _, sg := range p.Subgoals() {
		ok, err := r.exec(ctx, sg.Expr, sg.Index)
		if err != nil {
			return RuntimeReport{}, err
		}
		if !ok {
			c.logger.Debug("[RUNTIME] plan not executable", "line", r.failLine, "statement", r.failStmt, "reason", r.failReason)
			return RuntimeReport{
				FailedLine:      r.failLine,
				FailedStatement: r.failStmt,
				Reason:          r.failReason,
				Actions:         r.actions,
				Counts:          Totals(goals),
				Goals:           goals,
			}, nil
		}
	}

	counts := Score(c.planner.State(), goals, r.actions)
	return RuntimeReport{
		Executable: true,
		FailedLine: -1,
		Actions:    r.actions,
		Counts:     counts,
		Goals:      goals,
	}, nil
}

type run struct {
	checker *RuntimeChecker
	actions []string

	failLine   int
	failStmt   string
	failReason string
}

func (r *run) exec(ctx context.Context, e tl.Expr, line int) (bool, error) {
	switch n := e.(type) {
	case *tl.And:
		for _, op := range n.Operands {
			ok, err := r.exec(ctx, op, line)
			if err != nil || !ok {
				return ok, err
			}
		}
		return true, nil
	case *tl.Or:
		return r.execOr(ctx, n, line)
	case *tl.Not:
		return r.step(ctx, n.X, true, line)
	default:
		return r.step(ctx, n, false, line)
	}
}

// execOr tries each alternative from the same checkpoint and keeps the first
// that executes, releasing its checkpoint. The failure of the last
// alternative is reported.
func (r *run) execOr(ctx context.Context, o *tl.Or, line int) (bool, error) {
	planner := r.checker.planner
	for _, op := range o.Operands {
		cp := planner.Checkpoint()
		mark := len(r.actions)
		ok, err := r.exec(ctx, op, line)
		if err != nil {
			return false, err
		}
		if ok {
			if err := planner.Release(cp); err != nil {
				return false, fmt.Errorf("release checkpoint %d: %w", cp, err)
			}
			return true, nil
		}
		if err := planner.Rollback(cp); err != nil {
			return false, fmt.Errorf("rollback to checkpoint %d: %w", cp, err)
		}
		r.actions = r.actions[:mark]
	}
	return false, nil
}

func (r *run) step(ctx context.Context, leaf tl.Expr, negated bool, line int) (bool, error) {
	stmt, err := statement(r.checker.vocab, leaf, negated, line)
	if err != nil {
		return false, err
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	stepCtx := ctx
	if r.checker.stepTimeout > 0 {
		var cancel context.CancelFunc
		stepCtx, cancel = context.WithTimeout(ctx, r.checker.stepTimeout)
		defer cancel()
	}

	res, err := r.checker.planner.Execute(stepCtx, stmt)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			r.markFailed(stmt, fmt.Sprintf("step timed out after %s", r.checker.stepTimeout))
			return false, nil
		}
		return false, fmt.Errorf("execute %s: %w", stmt, err)
	}
	if !res.Feasible {
		r.markFailed(stmt, res.Reason)
		return false, nil
	}
	r.actions = append(r.actions, res.Actions...)
	return true, nil
}

func (r *run) markFailed(stmt plan.Statement, reason string) {
	r.failLine = stmt.Line
	r.failStmt = stmt.String()
	r.failReason = reason
}
