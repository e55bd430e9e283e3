package results

import (
	"strings"
)

// Verdict names as written into log info and stored results.
const (
	VerdictCorrect         = "Correct"
	VerdictNotParseable    = "NotParseable"
	VerdictHallucination   = "Hallucination"
	VerdictRuntime         = "Runtime"
	VerdictGoalUnreachable = "GoalUnreachable"
)

// Verdicts lists every verdict in report order.
var Verdicts = []string{VerdictCorrect, VerdictNotParseable, VerdictHallucination, VerdictRuntime, VerdictGoalUnreachable}

// Info formats the log info of an evaluated task: the verdict, optionally
// followed by a detail.
func Info(verdict, detail string) *string {
	s := verdict
	if detail != "" {
		s += ": " + detail
	}
	return &s
}

// VerdictOf extracts the verdict from a log record, or "" if the record is
// unevaluated or its info is not in Info format.
func VerdictOf(r Record) string {
	if r.Info == nil {
		if r.Success {
			return VerdictCorrect
		}
		return ""
	}
	v, _, _ := strings.Cut(*r.Info, ":")
	for _, known := range Verdicts {
		if v == known {
			return v
		}
	}
	return ""
}

// Rate is a success ratio over a goal category.
type Rate struct {
	Success int     `json:"success"`
	Total   int     `json:"total"`
	Ratio   float64 `json:"ratio"`
}

func newRate(success, total int) Rate {
	r := Rate{Success: success, Total: total}
	if total > 0 {
		r.Ratio = float64(success) / float64(total)
	}
	return r
}

// Summary aggregates a batch.
type Summary struct {
	Tasks       int            `json:"tasks"`
	Evaluated   int            `json:"evaluated"`
	Succeeded   int            `json:"succeeded"`
	SuccessRate float64        `json:"success_rate"`
	Verdicts    map[string]int `json:"verdicts"`

	// Goal rates over stored results.
	Node      Rate `json:"node"`
	Edge      Rate `json:"edge"`
	Action    Rate `json:"action"`
	Condition Rate `json:"condition"`
	Full      Rate `json:"full"`
}

// Summarize counts verdicts in the log and goal success over stored results.
// stored may be nil.
func Summarize(records map[string]Record, stored []StoredResult) Summary {
	s := Summary{Tasks: len(records), Verdicts: make(map[string]int)}
	for _, r := range records {
		if !r.Success && r.Info == nil {
			continue
		}
		s.Evaluated++
		if r.Success {
			s.Succeeded++
		}
		if v := VerdictOf(r); v != "" {
			s.Verdicts[v]++
		}
	}
	if s.Evaluated > 0 {
		s.SuccessRate = float64(s.Succeeded) / float64(s.Evaluated)
	}

	var node, nodeTot, edge, edgeTot, action, actionTot, cond, condTot, full, fullTot int
	for _, r := range stored {
		node += r.Counts.NodeSuccess
		nodeTot += r.Counts.NodeTotal
		edge += r.Counts.EdgeSuccess
		edgeTot += r.Counts.EdgeTotal
		action += r.Counts.ActionSuccess
		actionTot += r.Counts.ActionTotal
		cond += r.Counts.ConditionSuccess
		condTot += r.Counts.ConditionTotal
		full += r.Counts.FullSuccess
		fullTot += r.Counts.FullTotal
	}
	s.Node = newRate(node, nodeTot)
	s.Edge = newRate(edge, edgeTot)
	s.Action = newRate(action, actionTot)
	s.Condition = newRate(cond, condTot)
	s.Full = newRate(full, fullTot)
	return s
}
