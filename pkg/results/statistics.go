// Package results persists evaluation outcomes: the per-task JSON log used to
// resume batch runs, a bbolt store holding full results, and summaries over
// both.
package results

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// Record is the log entry of one task. A nil Info together with a false
// Success is the "not evaluated" sentinel.
type Record struct {
	Success bool    `json:"success"`
	Info    *string `json:"info"`
}

// Statistics is the batch-level evaluation log, keyed by task name.
type Statistics struct {
	mu      sync.Mutex
	path    string
	records map[string]Record
}

// NewStatistics loads the log at path if it exists. Otherwise every task
// starts unevaluated. Tasks missing from a loaded log are added unevaluated.
func NewStatistics(tasks []string, path string) (*Statistics, error) {
	s := &Statistics{path: path, records: make(map[string]Record, len(tasks))}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &s.records); err != nil {
			return nil, fmt.Errorf("parse evaluation log %s: %w", path, err)
		}
		if s.records == nil {
			s.records = make(map[string]Record, len(tasks))
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("read evaluation log %s: %w", path, err)
	}

	for _, name := range tasks {
		if _, ok := s.records[name]; !ok {
			s.records[name] = Record{}
		}
	}
	return s, nil
}

// Path returns the log file location.
func (s *Statistics) Path() string { return s.path }

// Update sets the outcome of a task.
func (s *Statistics) Update(name string, success bool, info *string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[name] = Record{Success: success, Info: info}
}

// Record returns the entry for a task.
func (s *Statistics) Record(name string) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[name]
	return r, ok
}

// Records returns a copy of every entry.
func (s *Statistics) Records() map[string]Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]Record, len(s.records))
	for k, v := range s.records {
		out[k] = v
	}
	return out
}

// Names returns the task names in the log, sorted.
func (s *Statistics) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.records))
	for k := range s.records {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// IsEvaluated reports whether a task already has an outcome. Only a record
// with success false and no info counts as unevaluated, so a failure must
// never be stored without info.
func (s *Statistics) IsEvaluated(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.records[name]
	return r.Success || r.Info != nil
}

// Save rewrites the whole log atomically.
func (s *Statistics) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(s.records, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal evaluation log: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp log: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp log: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp log: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace evaluation log: %w", err)
	}
	return nil
}
