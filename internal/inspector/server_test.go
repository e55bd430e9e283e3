package inspector

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/cgast/sgeval/pkg/events"
	"github.com/cgast/sgeval/pkg/results"
)

func getJSON(t *testing.T, h http.Handler, url string, dst any) int {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))
	if rec.Code == http.StatusOK && dst != nil {
		if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
			t.Fatalf("GET %s: decode: %v", url, err)
		}
	}
	return rec.Code
}

func TestStatusAndHistory(t *testing.T) {
	bus := events.NewMemoryBus(0)
	bus.Publish(events.NewEvent(events.EventTaskStart, events.TaskData{Task: "27_2"}))
	bus.Publish(events.NewEvent(events.EventTaskVerdict, events.TaskData{Task: "27_2", Verdict: results.VerdictRuntime}))
	bus.Publish(events.NewEvent(events.EventTaskSkip, events.TaskData{Task: "28_1"}))

	h := New(bus, WithGatherer(prometheus.NewRegistry())).Handler()

	var status struct {
		Events   int            `json:"events"`
		Started  int            `json:"started"`
		Skipped  int            `json:"skipped"`
		Verdicts map[string]int `json:"verdicts"`
	}
	if code := getJSON(t, h, "/api/status", &status); code != http.StatusOK {
		t.Fatalf("status code %d", code)
	}
	if status.Events != 3 || status.Started != 1 || status.Skipped != 1 {
		t.Errorf("status = %+v", status)
	}
	if status.Verdicts[results.VerdictRuntime] != 1 {
		t.Errorf("verdicts = %v", status.Verdicts)
	}

	var history []events.Event
	getJSON(t, h, "/api/history", &history)
	if len(history) != 3 {
		t.Errorf("expected 3 events, got %d", len(history))
	}

	future := time.Now().Add(time.Hour).Format(time.RFC3339Nano)
	getJSON(t, h, "/api/history?since="+future, &history)
	if len(history) != 0 {
		t.Errorf("expected no events after %s, got %d", future, len(history))
	}
	if code := getJSON(t, h, "/api/history?since=yesterday", nil); code != http.StatusBadRequest {
		t.Errorf("bad since: code %d", code)
	}
}

type staticLog map[string]results.Record

func (l staticLog) Records() map[string]results.Record { return l }

func TestResultsAndRuns(t *testing.T) {
	store, err := results.NewBoltStore(filepath.Join(t.TempDir(), "results.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	if err := store.PutRun(results.Run{ID: "run-1", Tasks: 1, Started: time.Now()}); err != nil {
		t.Fatal(err)
	}
	if err := store.PutResult(results.StoredResult{RunID: "run-1", Task: "27_2", Verdict: results.VerdictCorrect}); err != nil {
		t.Fatal(err)
	}

	log := staticLog{"27_2": {Success: true, Info: results.Info(results.VerdictCorrect, "")}}
	h := New(events.NewMemoryBus(0), WithLog(log), WithResults(store), WithGatherer(prometheus.NewRegistry())).Handler()

	var records map[string]results.Record
	getJSON(t, h, "/api/results", &records)
	if !records["27_2"].Success {
		t.Errorf("records = %v", records)
	}

	var stored []results.StoredResult
	getJSON(t, h, "/api/results?run=run-1", &stored)
	if len(stored) != 1 || stored[0].Verdict != results.VerdictCorrect {
		t.Errorf("stored = %+v", stored)
	}

	var runs []results.Run
	getJSON(t, h, "/api/runs", &runs)
	if len(runs) != 1 || runs[0].ID != "run-1" {
		t.Errorf("runs = %+v", runs)
	}

	bare := New(events.NewMemoryBus(0), WithGatherer(prometheus.NewRegistry())).Handler()
	if code := getJSON(t, bare, "/api/results?run=run-1", nil); code != http.StatusNotFound {
		t.Errorf("without a store: code %d", code)
	}
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "sgeval_test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Add(3)

	rec := httptest.NewRecorder()
	New(events.NewMemoryBus(0), WithGatherer(reg)).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "sgeval_test_total 3") {
		t.Errorf("metrics output missing counter:\n%s", rec.Body.String())
	}
}

func TestEventStream(t *testing.T) {
	bus := events.NewMemoryBus(0)
	bus.Publish(events.NewEvent(events.EventBatchStart, events.BatchData{Tasks: 2}))

	srv := httptest.NewServer(New(bus, WithGatherer(prometheus.NewRegistry())).Handler())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q", ct)
	}
	line, err := bufio.NewReader(resp.Body).ReadString('\n')
	if err != nil && err != io.EOF {
		t.Fatal(err)
	}
	if !strings.HasPrefix(line, "data: ") || !strings.Contains(line, string(events.EventBatchStart)) {
		t.Errorf("first event line = %q", line)
	}
}
