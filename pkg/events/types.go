package events

import "time"

// EventType identifies the kind of event emitted during an evaluation run.
type EventType string

const (
	EventBatchStart  EventType = "batch.start"
	EventBatchEnd    EventType = "batch.end"
	EventTaskStart   EventType = "task.start"
	EventTaskSkip    EventType = "task.skip"
	EventTaskVerdict EventType = "task.verdict"
	EventTaskError   EventType = "task.error"
)

// Event represents a single run event.
type Event struct {
	Type      EventType     `json:"type"`
	Timestamp time.Time     `json:"timestamp"`
	RunID     string        `json:"run_id,omitempty"`
	Data      any           `json:"data"`
	Duration  time.Duration `json:"duration,omitempty"`
}

// TaskData is the payload of task events.
type TaskData struct {
	Task    string `json:"task"`
	SceneID int    `json:"scene_id"`
	FileID  string `json:"file_id"`
	Verdict string `json:"verdict,omitempty"`
	Detail  string `json:"detail,omitempty"`
}

// BatchData is the payload of batch events.
type BatchData struct {
	Tasks     int            `json:"tasks"`
	Skipped   int            `json:"skipped"`
	Evaluated int            `json:"evaluated"`
	Verdicts  map[string]int `json:"verdicts,omitempty"`
}

// NewEvent creates a new Event with the current timestamp.
func NewEvent(typ EventType, data any) Event {
	return Event{
		Type:      typ,
		Timestamp: time.Now(),
		Data:      data,
	}
}
