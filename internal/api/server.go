// Package api serves run status, run history and live run updates over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"defi-cohort-lab/internal/domain"
	"defi-cohort-lab/internal/observability"
	"defi-cohort-lab/internal/storage"
)

// Runner executes one pipeline run.
type Runner interface {
	Run(ctx context.Context) (*domain.PipelineRun, error)
}

// defaultRunsLimit bounds GET /runs when no limit is given.
const defaultRunsLimit = 50

// Server exposes the pipeline over HTTP.
type Server struct {
	runner  Runner
	runs    storage.RunStore
	sinks   []storage.SnapshotPublisher
	hub     *Hub
	logger  *zap.Logger
	started time.Time

	// baseCtx outlives requests; triggered runs use it.
	baseCtx context.Context

	mu           sync.Mutex
	running      bool
	pipelineRuns int
	lastRun      *domain.PipelineRun
}

// NewServer creates a Server. runs may be nil, which disables run history.
// Sinks that implement storage.RowCounter are reported on /status.
func NewServer(ctx context.Context, runner Runner, runs storage.RunStore, sinks []storage.SnapshotPublisher, hub *Hub, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if hub == nil {
		hub = NewHub(logger)
	}
	return &Server{
		runner:  runner,
		runs:    runs,
		sinks:   sinks,
		hub:     hub,
		logger:  logger,
		started: time.Now(),
		baseCtx: ctx,
	}
}

// Hub returns the websocket hub.
func (s *Server) Hub() *Hub { return s.hub }

// Router builds the HTTP routes.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", observability.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	r.HandleFunc("/runs", s.handleListRuns).Methods(http.MethodGet)
	r.HandleFunc("/runs", s.handleTriggerRun).Methods(http.MethodPost)
	r.HandleFunc("/runs/{id}", s.handleGetRun).Methods(http.MethodGet)
	r.HandleFunc("/ws/runs", s.hub.HandleWebSocket)
	return r
}

// TriggerRun executes a run unless one is already active.
// Returns false when skipped.
func (s *Server) TriggerRun(ctx context.Context) (*domain.PipelineRun, bool, error) {
	if !s.claim() {
		s.logger.Info("Pipeline already running, skipping")
		return nil, false, nil
	}
	run, err := s.execute(ctx)
	return run, true, err
}

// claim marks a run as active. Returns false if one already is.
func (s *Server) claim() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return false
	}
	s.running = true
	return true
}

// execute runs the pipeline after a successful claim and releases it.
func (s *Server) execute(ctx context.Context) (*domain.PipelineRun, error) {
	run, err := s.runner.Run(ctx)

	s.mu.Lock()
	s.running = false
	s.pipelineRuns++
	if run != nil {
		s.lastRun = run
	}
	s.mu.Unlock()

	return run, err
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// StatusResponse is the JSON response for /status endpoint.
type StatusResponse struct {
	Status          string              `json:"status"`
	Uptime          string              `json:"uptime"`
	PipelineRuns    int                 `json:"pipeline_runs"`
	PipelineRunning bool                `json:"pipeline_running"`
	LastRun         *domain.PipelineRun `json:"last_run,omitempty"`
	WSClients       int                 `json:"ws_clients"`
	Sinks           []SinkStatus        `json:"sinks"`
}

// SinkStatus is the published row count of one sink.
type SinkStatus struct {
	Name  string         `json:"name"`
	Rows  map[string]int `json:"rows,omitempty"`
	Error string         `json:"error,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	resp := StatusResponse{
		Status:          "running",
		Uptime:          time.Since(s.started).Round(time.Second).String(),
		PipelineRuns:    s.pipelineRuns,
		PipelineRunning: s.running,
		LastRun:         s.lastRun,
	}
	s.mu.Unlock()
	resp.WSClients = s.hub.Clients()

	if resp.LastRun == nil && s.runs != nil {
		if runs, err := s.runs.List(r.Context(), 1); err == nil && len(runs) > 0 {
			resp.LastRun = runs[0]
		}
	}

	resp.Sinks = s.sinkStatus(r.Context())

	writeJSON(w, http.StatusOK, resp)
}

// sinkStatus queries the row counts of every sink that can report them.
func (s *Server) sinkStatus(ctx context.Context) []SinkStatus {
	out := []SinkStatus{}
	for _, sink := range s.sinks {
		counter, ok := sink.(storage.RowCounter)
		if !ok {
			continue
		}
		st := SinkStatus{Name: sink.Name()}
		rows, err := counter.RowCounts(ctx)
		if err != nil {
			s.logger.Warn("sink row count failed", zap.String("sink", sink.Name()), zap.Error(err))
			st.Error = err.Error()
		} else {
			st.Rows = rows
		}
		out = append(out, st)
	}
	return out
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		writeError(w, http.StatusServiceUnavailable, "run history not configured")
		return
	}

	limit := defaultRunsLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	runs, err := s.runs.List(r.Context(), limit)
	if err != nil {
		s.logger.Error("list runs failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	if runs == nil {
		runs = []*domain.PipelineRun{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		writeError(w, http.StatusServiceUnavailable, "run history not configured")
		return
	}

	id := mux.Vars(r)["id"]
	run, err := s.runs.GetByID(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		s.logger.Error("get run failed", zap.String("run_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to get run")
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// handleTriggerRun starts a run in the background and returns immediately.
func (s *Server) handleTriggerRun(w http.ResponseWriter, _ *http.Request) {
	if !s.claim() {
		writeError(w, http.StatusConflict, "pipeline run already in progress")
		return
	}

	go func() {
		if _, err := s.execute(s.baseCtx); err != nil {
			s.logger.Error("triggered run failed", zap.Error(err))
		}
	}()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
