// Package eval orchestrates the evaluation of subgoal plans: one task through
// the syntactic, semantic and runtime checkers, and batches of tasks with
// resumable logging.
package eval

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/cgast/sgeval/pkg/checker"
	"github.com/cgast/sgeval/pkg/plan"
	"github.com/cgast/sgeval/pkg/results"
	"github.com/cgast/sgeval/pkg/vocab"
)

// Verdict is the outcome class of a task. Exactly one applies.
type Verdict string

const (
	Correct         Verdict = results.VerdictCorrect
	NotParseable    Verdict = results.VerdictNotParseable
	Hallucination   Verdict = results.VerdictHallucination
	Runtime         Verdict = results.VerdictRuntime
	GoalUnreachable Verdict = results.VerdictGoalUnreachable
)

// Task is one plan to evaluate.
type Task struct {
	Name    string `json:"name"`
	SceneID int    `json:"scene_id"`
	FileID  string `json:"file_id"`
	Output  string `json:"llm_output"`
}

// Result is the verdict of a task and the report of the stage that decided
// it.
type Result struct {
	Task    string  `json:"task"`
	Verdict Verdict `json:"verdict"`

	Syntactic *checker.SyntacticReport `json:"syntactic,omitempty"`
	Semantic  *checker.SemanticReport  `json:"semantic,omitempty"`
	Runtime   *checker.RuntimeReport   `json:"runtime,omitempty"`

	// Error is set for NotParseable results produced by an unexpected
	// failure.
	Error string `json:"error,omitempty"`
}

// Success reports whether the plan is correct.
func (r Result) Success() bool { return r.Verdict == Correct }

// Executable reports whether the plan ran to completion.
func (r Result) Executable() bool { return r.Runtime != nil && r.Runtime.Executable }

// Counts returns the goal counts, zero if the runtime checker did not run.
func (r Result) Counts() checker.Counts {
	if r.Runtime == nil {
		return checker.Counts{}
	}
	return r.Runtime.Counts
}

// Actions returns the realized action sequence.
func (r Result) Actions() []string {
	if r.Runtime == nil {
		return nil
	}
	return r.Runtime.Actions
}

// Detail is a one-line diagnostic of the result. Plan lines are numbered
// from 1.
func (r Result) Detail() string {
	switch {
	case r.Error != "":
		return r.Error
	case r.Syntactic != nil && !r.Syntactic.Passed:
		s := r.Syntactic
		if s.ErrorType == checker.UnknownPrimitive {
			return fmt.Sprintf("line %d: unknown primitive %s", s.Line+1, s.Token)
		}
		if s.Line < 0 {
			return s.Message
		}
		return fmt.Sprintf("line %d: %s", s.Line+1, s.Message)
	case r.Semantic != nil && !r.Semantic.Passed:
		return fmt.Sprintf("line %d: %s: %s", r.Semantic.Line+1, r.Semantic.Reason, r.Semantic.Message)
	case r.Runtime != nil && !r.Runtime.Executable:
		return fmt.Sprintf("line %d: %s: %s", r.Runtime.FailedLine+1, r.Runtime.FailedStatement, r.Runtime.Reason)
	case r.Runtime != nil:
		return fmt.Sprintf("%d/%d goals", r.Runtime.Counts.FullSuccess, r.Runtime.Counts.FullTotal)
	}
	return ""
}

// PlannerLoader creates a fresh planner for a task's scene.
type PlannerLoader interface {
	Load(ctx context.Context, sceneID int, fileID string) (checker.Planner, error)
}

// GoalSource looks up the goal formula of a task.
type GoalSource interface {
	Goal(sceneID int, fileID string) (string, error)
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithStepTimeout bounds each planner step.
func WithStepTimeout(d time.Duration) Option {
	return func(e *Evaluator) {
		e.stepTimeout = d
	}
}

// WithLogger sets the evaluator's logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Evaluator) {
		e.logger = l
	}
}

// WithVocabulary supplies an already loaded vocabulary.
func WithVocabulary(v *vocab.Vocabulary) Option {
	return func(e *Evaluator) {
		e.vocabOnce.Do(func() { e.vocab = v })
	}
}

// Evaluator runs tasks through the three checkers. It is safe for
// concurrent use; the vocabulary is loaded once and shared.
type Evaluator struct {
	vocabPath   string
	planners    PlannerLoader
	goals       GoalSource
	stepTimeout time.Duration
	logger      *slog.Logger

	vocabOnce sync.Once
	vocab     *vocab.Vocabulary
	vocabErr  error
}

// New creates an evaluator.
func New(vocabPath string, planners PlannerLoader, goals GoalSource, opts ...Option) *Evaluator {
	e := &Evaluator{
		vocabPath: vocabPath,
		planners:  planners,
		goals:     goals,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Vocabulary returns the evaluator's vocabulary, loading it on first use.
func (e *Evaluator) Vocabulary() (*vocab.Vocabulary, error) {
	e.vocabOnce.Do(func() {
		e.vocab, e.vocabErr = vocab.Load(e.vocabPath)
	})
	return e.vocab, e.vocabErr
}

// Evaluate runs one task. Checker failures are results; setup failures
// (vocabulary, scene, goal) and cancellation are errors.
func (e *Evaluator) Evaluate(ctx context.Context, task Task) (Result, error) {
	v, err := e.Vocabulary()
	if err != nil {
		return Result{}, err
	}
	res := Result{Task: task.Name}

	lines, err := plan.ExtractLines(task.Output)
	if err != nil {
		res.Verdict = NotParseable
		res.Syntactic = &checker.SyntacticReport{ErrorType: checker.NotParseable, Line: -1, Message: err.Error()}
		return res, nil
	}

	syntactic := checker.NewSyntacticChecker(v)
	p, synReport := syntactic.Check(lines)
	if !synReport.Passed {
		res.Syntactic = &synReport
		res.Verdict = NotParseable
		if synReport.ErrorType == checker.UnknownPrimitive {
			res.Verdict = Hallucination
		}
		return res, nil
	}
	e.logger.Debug("[EVAL] plan parsed", "task", task.Name, "plan", p.Expr().String())

	planner, err := e.planners.Load(ctx, task.SceneID, task.FileID)
	if err != nil {
		return Result{}, fmt.Errorf("load planner for scene %d file %s: %w", task.SceneID, task.FileID, err)
	}
	sc := checker.SceneOf(planner)

	semReport := checker.NewSemanticChecker(v, sc).Check(p)
	if !semReport.Passed {
		res.Semantic = &semReport
		res.Verdict = Hallucination
		return res, nil
	}

	formula, err := e.goals.Goal(task.SceneID, task.FileID)
	if err != nil {
		return Result{}, err
	}
	goalExpr, err := syntactic.Parser().Parse(formula)
	if err != nil {
		return Result{}, fmt.Errorf("parse goal of scene %d file %s: %w", task.SceneID, task.FileID, err)
	}
	goals, err := checker.Decompose(goalExpr, v, sc)
	if err != nil {
		return Result{}, fmt.Errorf("decompose goal of scene %d file %s: %w", task.SceneID, task.FileID, err)
	}
	e.logger.Debug("[EVAL] goal decomposed", "task", task.Name, "goals", goals.Total(), "unscored", goals.Skipped)

	rt := checker.NewRuntimeChecker(v, planner, checker.WithStepTimeout(e.stepTimeout), checker.WithLogger(e.logger))
	rtReport, err := rt.Check(ctx, p, goals)
	if err != nil {
		return Result{}, err
	}
	res.Runtime = &rtReport
	switch {
	case !rtReport.Executable:
		res.Verdict = Runtime
	case rtReport.Counts.Complete():
		res.Verdict = Correct
	default:
		res.Verdict = GoalUnreachable
	}
	return res, nil
}

// EvaluateTask runs one task and always produces exactly one verdict: any
// error or panic becomes NotParseable carrying its text.
func (e *Evaluator) EvaluateTask(ctx context.Context, task Task) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("[EVAL] panic during evaluation", "task", task.Name, "panic", r, "stack", string(debug.Stack()))
			res = Result{Task: task.Name, Verdict: NotParseable, Error: fmt.Sprint(r)}
		}
	}()

	res, err := e.Evaluate(ctx, task)
	if err != nil {
		e.logger.Warn("[EVAL] evaluation failed", "task", task.Name, "error", err)
		return Result{Task: task.Name, Verdict: NotParseable, Error: err.Error()}
	}
	e.logger.Debug("[EVAL] task evaluated", "task", task.Name, "verdict", res.Verdict)
	return res
}

// EvaluateTask evaluates a single task with a one-off evaluator.
func EvaluateTask(ctx context.Context, vocabPath string, planners PlannerLoader, goals GoalSource, task Task) Result {
	return New(vocabPath, planners, goals).EvaluateTask(ctx, task)
}
