package inspector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cgast/sgeval/pkg/events"
	"github.com/cgast/sgeval/pkg/results"
)

// LogSource exposes the evaluation log of the running batch.
type LogSource interface {
	Records() map[string]results.Record
}

// ResultSource exposes stored results.
type ResultSource interface {
	Results(runID string) ([]results.StoredResult, error)
	Runs() ([]results.Run, error)
}

// Server is the inspector HTTP server: JSON status endpoints, a server-sent
// event stream of bus events and Prometheus metrics.
type Server struct {
	bus       events.EventBus
	log       LogSource
	store     ResultSource
	gatherer  prometheus.Gatherer
	logger    *slog.Logger
	mux       *http.ServeMux
	clients   map[*sseClient]bool
	clientsMu sync.Mutex
	startTime time.Time
}

// sseClient represents a connected event stream.
type sseClient struct {
	send chan []byte
}

// Option configures a Server.
type Option func(*Server)

// WithLog serves the evaluation log at /api/results.
func WithLog(l LogSource) Option {
	return func(s *Server) { s.log = l }
}

// WithResults serves stored results at /api/results?run=<id>.
func WithResults(r ResultSource) Option {
	return func(s *Server) { s.store = r }
}

// WithGatherer serves metrics from g at /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

// WithLogger sets the server's logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// New creates a new inspector server.
func New(bus events.EventBus, opts ...Option) *Server {
	s := &Server{
		bus:       bus,
		gatherer:  prometheus.DefaultGatherer,
		logger:    slog.Default(),
		mux:       http.NewServeMux(),
		clients:   make(map[*sseClient]bool),
		startTime: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mux.HandleFunc("/events", s.handleEvents)
	s.mux.HandleFunc("/api/status", s.handleStatus)
	s.mux.HandleFunc("/api/history", s.handleHistory)
	s.mux.HandleFunc("/api/results", s.handleResults)
	s.mux.HandleFunc("/api/runs", s.handleRuns)
	s.mux.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	return s
}

// Handler returns the server's routes.
func (s *Server) Handler() http.Handler { return s.mux }

// Serve listens on addr until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, addr string) error {
	ch := s.bus.Subscribe()
	defer s.bus.Unsubscribe(ch)
	go s.broadcastEvents(ch)

	srv := &http.Server{Addr: addr, Handler: s.mux, ReadHeaderTimeout: 5 * time.Second}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.logger.Info("[INSPECTOR] listening", "addr", addr)

	select {
	case err := <-errCh:
		return fmt.Errorf("inspector: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("inspector shutdown: %w", err)
		}
		return nil
	}
}

// ServeAsync starts the server in a goroutine and returns immediately.
func (s *Server) ServeAsync(ctx context.Context, addr string) {
	go func() {
		if err := s.Serve(ctx, addr); err != nil {
			s.logger.Error("[INSPECTOR] stopped", "error", err)
		}
	}()
}

func (s *Server) broadcastEvents(ch <-chan events.Event) {
	for ev := range ch {
		data, err := json.Marshal(ev)
		if err != nil {
			continue
		}

		s.clientsMu.Lock()
		for client := range s.clients {
			select {
			case client.send <- data:
			default:
				// Client is slow, drop the event.
			}
		}
		s.clientsMu.Unlock()
	}
}

// handleEvents streams the event history followed by live events as
// server-sent events.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	client := &sseClient{send: make(chan []byte, 64)}
	s.clientsMu.Lock()
	s.clients[client] = true
	s.clientsMu.Unlock()
	defer func() {
		s.clientsMu.Lock()
		delete(s.clients, client)
		s.clientsMu.Unlock()
	}()

	for _, ev := range s.bus.History(time.Time{}) {
		data, err := json.Marshal(ev)
		if err != nil {
			continue
		}
		fmt.Fprintf(w, "data: %s\n\n", data)
	}
	flusher.Flush()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-client.send:
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	history := s.bus.History(time.Time{})
	verdicts := make(map[string]int)
	var started, skipped, failed int
	for _, ev := range history {
		switch ev.Type {
		case events.EventTaskStart:
			started++
		case events.EventTaskSkip:
			skipped++
		case events.EventTaskError:
			failed++
		}
		if data, ok := ev.Data.(events.TaskData); ok && data.Verdict != "" {
			verdicts[data.Verdict]++
		}
	}

	writeJSON(w, map[string]any{
		"uptime":   time.Since(s.startTime).String(),
		"events":   len(history),
		"started":  started,
		"skipped":  skipped,
		"errors":   failed,
		"verdicts": verdicts,
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	since := time.Time{}
	if v := r.URL.Query().Get("since"); v != "" {
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			http.Error(w, "since must be RFC 3339", http.StatusBadRequest)
			return
		}
		since = t
	}
	history := s.bus.History(since)
	if history == nil {
		history = []events.Event{}
	}
	writeJSON(w, history)
}

// handleResults serves stored results of ?run=<id>, or the evaluation log
// when no run is given.
func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	runID := r.URL.Query().Get("run")
	if runID == "" {
		if s.log == nil {
			writeJSON(w, map[string]results.Record{})
			return
		}
		writeJSON(w, s.log.Records())
		return
	}
	if s.store == nil {
		http.Error(w, "no result store", http.StatusNotFound)
		return
	}
	stored, err := s.store.Results(runID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if stored == nil {
		stored = []results.StoredResult{}
	}
	writeJSON(w, stored)
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeJSON(w, []results.Run{})
		return
	}
	runs, err := s.store.Runs()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if runs == nil {
		runs = []results.Run{}
	}
	writeJSON(w, runs)
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	json.NewEncoder(w).Encode(data)
}
