package results

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/cgast/sgeval/pkg/checker"
)

// Buckets of the result store.
const (
	BucketResults = "results" // "<run id>/<task>" -> StoredResult
	BucketRuns    = "runs"    // run id -> Run
)

// StoredResult is the full outcome of one task in one run.
type StoredResult struct {
	RunID      string         `json:"run_id"`
	Task       string         `json:"task"`
	SceneID    int            `json:"scene_id"`
	FileID     string         `json:"file_id"`
	Verdict    string         `json:"verdict"`
	Executable bool           `json:"executable"`
	Detail     string         `json:"detail,omitempty"`
	Counts     checker.Counts `json:"counts"`
	Actions    []string       `json:"actions,omitempty"`
	Duration   time.Duration  `json:"duration"`
	Evaluated  time.Time      `json:"evaluated_at"`
}

// Run describes one batch invocation.
type Run struct {
	ID        string    `json:"id"`
	VocabPath string    `json:"vocab_path"`
	LogPath   string    `json:"log_path"`
	Tasks     int       `json:"tasks"`
	Started   time.Time `json:"started_at"`
	Finished  time.Time `json:"finished_at"`
}

// NewRunID returns a fresh run identifier.
func NewRunID() string { return uuid.NewString() }

// BoltStore keeps stored results in a bbolt database.
type BoltStore struct {
	db *bolt.DB
	mu sync.RWMutex
}

// NewBoltStore opens or creates the result database at path.
func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{BucketResults, BucketRuns} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("create bucket %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init buckets: %w", err)
	}

	return &BoltStore{db: db}, nil
}

func resultKey(runID, task string) []byte {
	return []byte(runID + "/" + task)
}

// PutResult stores r under its run and task.
func (s *BoltStore) PutResult(r StoredResult) error {
	if r.RunID == "" || r.Task == "" {
		return fmt.Errorf("stored result needs a run id and a task")
	}
	return s.put(BucketResults, resultKey(r.RunID, r.Task), r)
}

// Result returns the stored result of a task in a run.
func (s *BoltStore) Result(runID, task string) (StoredResult, error) {
	var r StoredResult
	err := s.get(BucketResults, resultKey(runID, task), &r)
	return r, err
}

// Results returns every result of a run, sorted by task.
func (s *BoltStore) Results(runID string) ([]StoredResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []StoredResult
	prefix := []byte(runID + "/")
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket([]byte(BucketResults)).Cursor()
		for k, v := c.Seek(prefix); k != nil && strings.HasPrefix(string(k), string(prefix)); k, v = c.Next() {
			var r StoredResult
			if err := json.Unmarshal(v, &r); err != nil {
				return fmt.Errorf("unmarshal result %s: %w", k, err)
			}
			out = append(out, r)
		}
		return nil
	})
	return out, err
}

// TaskHistory returns every stored result of a task across runs, oldest
// first.
func (s *BoltStore) TaskHistory(task string) ([]StoredResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []StoredResult
	suffix := "/" + task
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(BucketResults)).ForEach(func(k, v []byte) error {
			if !strings.HasSuffix(string(k), suffix) {
				return nil
			}
			var r StoredResult
			if err := json.Unmarshal(v, &r); err != nil {
				return fmt.Errorf("unmarshal result %s: %w", k, err)
			}
			if r.Task == task {
				out = append(out, r)
			}
			return nil
		})
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Evaluated.Before(out[j].Evaluated) })
	return out, err
}

// PutRun stores or replaces run metadata.
func (s *BoltStore) PutRun(r Run) error {
	return s.put(BucketRuns, []byte(r.ID), r)
}

// Run returns the metadata of a run.
func (s *BoltStore) Run(id string) (Run, error) {
	var r Run
	err := s.get(BucketRuns, []byte(id), &r)
	return r, err
}

// Runs returns all runs, most recent first.
func (s *BoltStore) Runs() ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Run
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(BucketRuns)).ForEach(func(k, v []byte) error {
			var r Run
			if err := json.Unmarshal(v, &r); err != nil {
				return fmt.Errorf("unmarshal run %s: %w", k, err)
			}
			out = append(out, r)
			return nil
		})
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Started.After(out[j].Started) })
	return out, err
}

func (s *BoltStore) put(bucket string, key []byte, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("marshal value: %w", err)
		}
		return tx.Bucket([]byte(bucket)).Put(key, data)
	})
}

func (s *BoltStore) get(bucket string, key []byte, dst any) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket([]byte(bucket)).Get(key)
		if data == nil {
			return fmt.Errorf("key not found: %s/%s", bucket, key)
		}
		return json.Unmarshal(data, dst)
	})
}

// Close closes the database.
func (s *BoltStore) Close() error {
	return s.db.Close()
}
