package results

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cgast/sgeval/pkg/checker"
)

func TestStatisticsResumeSentinel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.json")
	log := `{
    "t1": {"success": true, "info": null},
    "t2": {"success": false, "info": null},
    "t3": {"success": false, "info": "Runtime: fridge is locked"}
}`
	require.NoError(t, os.WriteFile(path, []byte(log), 0644))

	s, err := NewStatistics([]string{"t1", "t2", "t3", "t4"}, path)
	require.NoError(t, err)

	assert.True(t, s.IsEvaluated("t1"), "success with null info counts as evaluated")
	assert.False(t, s.IsEvaluated("t2"), "failure with null info is indistinguishable from unevaluated")
	assert.True(t, s.IsEvaluated("t3"))
	assert.False(t, s.IsEvaluated("t4"), "task missing from the log starts unevaluated")
}

func TestStatisticsFreshAndSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "log.json")
	s, err := NewStatistics([]string{"a", "b"}, path)
	require.NoError(t, err)

	r, ok := s.Record("a")
	require.True(t, ok)
	assert.False(t, r.Success)
	assert.Nil(t, r.Info)

	s.Update("a", true, Info(VerdictCorrect, ""))
	s.Update("b", false, Info(VerdictHallucination, "unknown object banana.99"))
	require.NoError(t, s.Save())
	require.NoError(t, s.Save(), "save is idempotent")

	reloaded, err := NewStatistics(nil, path)
	require.NoError(t, err)
	assert.Equal(t, s.Records(), reloaded.Records())
	assert.Equal(t, []string{"a", "b"}, reloaded.Names())

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestStatisticsConcurrentUpdates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.json")
	names := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	s, err := NewStatistics(names, path)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for _, name := range names {
		name := name
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Update(name, true, Info(VerdictCorrect, ""))
			assert.NoError(t, s.Save())
		}()
	}
	wg.Wait()

	reloaded, err := NewStatistics(nil, path)
	require.NoError(t, err)
	for _, name := range names {
		assert.True(t, reloaded.IsEvaluated(name), name)
	}
}

func TestStatisticsCorruptLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))
	_, err := NewStatistics([]string{"a"}, path)
	assert.Error(t, err)
}

func newTestStore(t *testing.T) *BoltStore {
	t.Helper()
	store, err := NewBoltStore(filepath.Join(t.TempDir(), "results.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestBoltStoreResults(t *testing.T) {
	store := newTestStore(t)
	run1, run2 := NewRunID(), NewRunID()
	assert.NotEqual(t, run1, run2)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.PutResult(StoredResult{RunID: run1, Task: "scene_1_27_2", Verdict: VerdictRuntime, Evaluated: base}))
	require.NoError(t, store.PutResult(StoredResult{RunID: run1, Task: "scene_1_28_1", Verdict: VerdictCorrect, Evaluated: base}))
	require.NoError(t, store.PutResult(StoredResult{
		RunID: run2, Task: "scene_1_27_2", Verdict: VerdictCorrect, Executable: true,
		Counts:    checker.Counts{NodeTotal: 1, NodeSuccess: 1, FullTotal: 1, FullSuccess: 1},
		Actions:   []string{"[GRAB] <apple> (1)"},
		Evaluated: base.Add(time.Hour),
	}))

	got, err := store.Result(run2, "scene_1_27_2")
	require.NoError(t, err)
	assert.Equal(t, VerdictCorrect, got.Verdict)
	assert.Equal(t, 1, got.Counts.FullSuccess)
	assert.Equal(t, []string{"[GRAB] <apple> (1)"}, got.Actions)

	all, err := store.Results(run1)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "scene_1_27_2", all[0].Task)

	history, err := store.TaskHistory("scene_1_27_2")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, VerdictRuntime, history[0].Verdict)
	assert.Equal(t, VerdictCorrect, history[1].Verdict)

	_, err = store.Result(run1, "missing")
	assert.Error(t, err)
	assert.Error(t, store.PutResult(StoredResult{Task: "no run"}))
}

func TestBoltStoreRuns(t *testing.T) {
	store := newTestStore(t)
	older := Run{ID: "r1", Tasks: 3, Started: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	newer := Run{ID: "r2", Tasks: 5, Started: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, store.PutRun(older))
	require.NoError(t, store.PutRun(newer))

	runs, err := store.Runs()
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "r2", runs[0].ID)

	newer.Finished = newer.Started.Add(time.Minute)
	require.NoError(t, store.PutRun(newer))
	got, err := store.Run("r2")
	require.NoError(t, err)
	assert.True(t, got.Finished.Equal(newer.Finished))
}

func TestSummarize(t *testing.T) {
	records := map[string]Record{
		"a": {Success: true, Info: Info(VerdictCorrect, "")},
		"b": {Success: false, Info: Info(VerdictRuntime, "door locked")},
		"c": {Success: false, Info: Info(VerdictGoalUnreachable, "")},
		"d": {},
		"e": {Success: false, Info: Info("exploded", "")},
	}
	stored := []StoredResult{
		{Counts: checker.Counts{NodeTotal: 2, NodeSuccess: 2, ActionTotal: 1, ActionSuccess: 1, FullTotal: 3, FullSuccess: 3}},
		{Counts: checker.Counts{NodeTotal: 2, NodeSuccess: 1, EdgeTotal: 2, FullTotal: 4, FullSuccess: 1}},
	}

	s := Summarize(records, stored)
	assert.Equal(t, 5, s.Tasks)
	assert.Equal(t, 4, s.Evaluated)
	assert.Equal(t, 1, s.Succeeded)
	assert.InDelta(t, 0.25, s.SuccessRate, 1e-9)
	assert.Equal(t, map[string]int{VerdictCorrect: 1, VerdictRuntime: 1, VerdictGoalUnreachable: 1}, s.Verdicts)
	assert.Equal(t, Rate{Success: 3, Total: 4, Ratio: 0.75}, s.Node)
	assert.Equal(t, Rate{Success: 0, Total: 2}, s.Edge)
	assert.Equal(t, Rate{Success: 4, Total: 7, Ratio: 4.0 / 7.0}, s.Full)
}
