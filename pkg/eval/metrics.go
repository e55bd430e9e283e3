package eval

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records batch progress. A nil *Metrics discards observations.
type Metrics struct {
	// tasks counts evaluated tasks.
	// Labels: verdict
	tasks *prometheus.CounterVec

	// skipped counts tasks already present in the evaluation log.
	skipped prometheus.Counter

	// duration measures wall time per task.
	duration prometheus.Histogram

	// goals counts goal totals and successes.
	// Labels: category (node, edge, action, full), outcome (total, success)
	goals *prometheus.CounterVec
}

// NewMetrics registers the evaluation metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		tasks: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sgeval",
			Subsystem: "batch",
			Name:      "tasks_total",
			Help:      "Evaluated tasks by verdict",
		}, []string{"verdict"}),
		skipped: f.NewCounter(prometheus.CounterOpts{
			Namespace: "sgeval",
			Subsystem: "batch",
			Name:      "tasks_skipped_total",
			Help:      "Tasks skipped because the log already holds a result",
		}),
		duration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "sgeval",
			Subsystem: "batch",
			Name:      "task_duration_seconds",
			Help:      "Wall time of one task evaluation",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		}),
		goals: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sgeval",
			Subsystem: "goals",
			Name:      "total",
			Help:      "Goal counts by category and outcome",
		}, []string{"category", "outcome"}),
	}
}

// Observe records one evaluated task.
func (m *Metrics) Observe(res Result, d time.Duration) {
	if m == nil {
		return
	}
	m.tasks.WithLabelValues(string(res.Verdict)).Inc()
	m.duration.Observe(d.Seconds())

	c := res.Counts()
	for _, g := range []struct {
		category       string
		total, success int
	}{
		{"node", c.NodeTotal, c.NodeSuccess},
		{"edge", c.EdgeTotal, c.EdgeSuccess},
		{"action", c.ActionTotal, c.ActionSuccess},
		{"condition", c.ConditionTotal, c.ConditionSuccess},
		{"full", c.FullTotal, c.FullSuccess},
	} {
		m.goals.WithLabelValues(g.category, "total").Add(float64(g.total))
		m.goals.WithLabelValues(g.category, "success").Add(float64(g.success))
	}
}

// Skip records a skipped task.
func (m *Metrics) Skip() {
	if m == nil {
		return
	}
	m.skipped.Inc()
}
