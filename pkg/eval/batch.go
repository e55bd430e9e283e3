package eval

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cgast/sgeval/pkg/events"
	"github.com/cgast/sgeval/pkg/results"
)

// ResultStore persists full task results and run metadata.
type ResultStore interface {
	PutResult(r results.StoredResult) error
	PutRun(r results.Run) error
}

// BatchOption configures a Batch.
type BatchOption func(*Batch)

// WithWorkers sets how many tasks run in parallel. Values below 1 mean 1.
func WithWorkers(n int) BatchOption {
	return func(b *Batch) {
		b.workers = max(n, 1)
	}
}

// WithStore stores every result in s.
func WithStore(s ResultStore) BatchOption {
	return func(b *Batch) {
		b.store = s
	}
}

// WithBus publishes run events on bus.
func WithBus(bus events.EventBus) BatchOption {
	return func(b *Batch) {
		b.bus = bus
	}
}

// WithMetrics records task metrics.
func WithMetrics(m *Metrics) BatchOption {
	return func(b *Batch) {
		b.metrics = m
	}
}

// WithRunID sets the run id instead of generating one.
func WithRunID(id string) BatchOption {
	return func(b *Batch) {
		b.runID = id
	}
}

// WithBatchLogger sets the batch logger.
func WithBatchLogger(l *slog.Logger) BatchOption {
	return func(b *Batch) {
		b.logger = l
	}
}

// Batch evaluates many tasks against one evaluation log. Tasks the log
// already records as evaluated are skipped, so an interrupted run can be
// restarted with the same log.
type Batch struct {
	evaluator *Evaluator
	stats     *results.Statistics
	store     ResultStore
	bus       events.EventBus
	metrics   *Metrics
	workers   int
	runID     string
	logger    *slog.Logger
}

// NewBatch creates a batch runner writing to stats.
func NewBatch(ev *Evaluator, stats *results.Statistics, opts ...BatchOption) *Batch {
	b := &Batch{
		evaluator: ev,
		stats:     stats,
		bus:       events.Nop{},
		workers:   1,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.runID == "" {
		b.runID = results.NewRunID()
	}
	return b
}

// RunID returns the id of this batch's run.
func (b *Batch) RunID() string { return b.runID }

// BatchReport summarizes one Run call.
type BatchReport struct {
	RunID     string         `json:"run_id"`
	Tasks     int            `json:"tasks"`
	Skipped   int            `json:"skipped"`
	Evaluated int            `json:"evaluated"`
	Verdicts  map[string]int `json:"verdicts"`
}

// Run evaluates every task not yet in the log. The log is saved after each
// task. A cancelled context stops the run; tasks interrupted by the
// cancellation are not recorded.
func (b *Batch) Run(ctx context.Context, tasks []Task) (BatchReport, error) {
	report := BatchReport{RunID: b.runID, Tasks: len(tasks), Verdicts: make(map[string]int)}
	run := results.Run{ID: b.runID, LogPath: b.stats.Path(), Tasks: len(tasks), Started: time.Now()}
	if b.evaluator != nil {
		run.VocabPath = b.evaluator.vocabPath
	}
	if err := b.putRun(run); err != nil {
		return report, err
	}

	b.publish(events.EventBatchStart, events.BatchData{Tasks: len(tasks)}, 0)
	b.logger.Info("[BATCH] run started", "run", b.runID, "tasks", len(tasks), "workers", b.workers)

	var pending []Task
	for _, t := range tasks {
		if b.stats.IsEvaluated(t.Name) {
			report.Skipped++
			b.metrics.Skip()
			b.publish(events.EventTaskSkip, taskData(t), 0)
			continue
		}
		pending = append(pending, t)
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)
	for _, t := range pending {
		if gctx.Err() != nil {
			break
		}
		t := t
		g.Go(func() error {
			res, err := b.runTask(gctx, t)
			if err != nil {
				return err
			}
			mu.Lock()
			report.Evaluated++
			report.Verdicts[string(res.Verdict)]++
			mu.Unlock()
			return nil
		})
	}
	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}

	run.Finished = time.Now()
	if perr := b.putRun(run); perr != nil && err == nil {
		err = perr
	}
	b.publish(events.EventBatchEnd, events.BatchData{
		Tasks:     report.Tasks,
		Skipped:   report.Skipped,
		Evaluated: report.Evaluated,
		Verdicts:  report.Verdicts,
	}, run.Finished.Sub(run.Started))
	b.logger.Info("[BATCH] run finished", "run", b.runID, "evaluated", report.Evaluated, "skipped", report.Skipped, "error", err)
	return report, err
}

func (b *Batch) runTask(ctx context.Context, t Task) (Result, error) {
	b.publish(events.EventTaskStart, taskData(t), 0)
	start := time.Now()
	res := b.evaluator.EvaluateTask(ctx, t)
	elapsed := time.Since(start)

	if err := ctx.Err(); err != nil {
		return res, err
	}

	detail := res.Detail()
	b.stats.Update(t.Name, res.Success(), results.Info(string(res.Verdict), detail))
	if err := b.stats.Save(); err != nil {
		return res, fmt.Errorf("save evaluation log: %w", err)
	}

	if b.store != nil {
		err := b.store.PutResult(results.StoredResult{
			RunID:      b.runID,
			Task:       t.Name,
			SceneID:    t.SceneID,
			FileID:     t.FileID,
			Verdict:    string(res.Verdict),
			Executable: res.Executable(),
			Detail:     detail,
			Counts:     res.Counts(),
			Actions:    res.Actions(),
			Duration:   elapsed,
			Evaluated:  start,
		})
		if err != nil {
			return res, fmt.Errorf("store result of %s: %w", t.Name, err)
		}
	}

	b.metrics.Observe(res, elapsed)

	data := taskData(t)
	data.Verdict = string(res.Verdict)
	data.Detail = detail
	typ := events.EventTaskVerdict
	if res.Error != "" {
		typ = events.EventTaskError
	}
	b.publish(typ, data, elapsed)
	b.logger.Info("[BATCH] task evaluated", "task", t.Name, "verdict", res.Verdict, "duration", elapsed)
	return res, nil
}

func (b *Batch) putRun(r results.Run) error {
	if b.store == nil {
		return nil
	}
	if err := b.store.PutRun(r); err != nil {
		return fmt.Errorf("store run %s: %w", r.ID, err)
	}
	return nil
}

func (b *Batch) publish(typ events.EventType, data any, d time.Duration) {
	e := events.NewEvent(typ, data)
	e.RunID = b.runID
	e.Duration = d
	b.bus.Publish(e)
}

func taskData(t Task) events.TaskData {
	return events.TaskData{Task: t.Name, SceneID: t.SceneID, FileID: t.FileID}
}
