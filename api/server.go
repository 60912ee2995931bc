package api

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/wricardo/mcp-training/robotnav/navigation/engine"
	"github.com/wricardo/mcp-training/robotnav/navigation/scenario"
	"github.com/wricardo/mcp-training/robotnav/navigation/service"
	"github.com/wricardo/mcp-training/robotnav/transport/websocket"
)

// DefaultMaxBodyBytes caps scenario request bodies
const DefaultMaxBodyBytes int64 = 1 << 20

// Server represents the REST API server
type Server struct {
	service      service.ScenarioService
	hub          *websocket.Hub
	logger       *zap.Logger
	router       *mux.Router
	metrics      http.Handler
	maxBodyBytes int64
}

// Option configures a Server
type Option func(*Server)

// WithMetricsHandler serves h on GET /metrics
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithMaxBodyBytes overrides DefaultMaxBodyBytes
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBodyBytes = n
		}
	}
}

// NewServer creates a new API server. hub may be nil, in which case /ws
// answers 503.
func NewServer(svc service.ScenarioService, hub *websocket.Hub, logger *zap.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		service:      svc,
		hub:          hub,
		logger:       logger,
		router:       mux.NewRouter(),
		maxBodyBytes: DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	s.router.Use(s.requestLogger)

	api := s.router.PathPrefix("/api/v1").Subrouter()

	// Scenarios
	api.HandleFunc("/robots/execute", s.handleExecute).Methods("POST")
	api.HandleFunc("/robots/execute-raw", s.handleExecuteRaw).Methods("POST")

	// Run history
	api.HandleFunc("/runs", s.handleListRuns).Methods("GET")
	api.HandleFunc("/runs/{id}", s.handleGetRun).Methods("GET")
	api.HandleFunc("/runs/{id}", s.handleDeleteRun).Methods("DELETE")

	// Presets
	api.HandleFunc("/presets", s.handleListPresets).Methods("GET")
	api.HandleFunc("/presets/{name}", s.handleGetPreset).Methods("GET")
	api.HandleFunc("/presets/{name}/run", s.handleRunPreset).Methods("POST")

	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics).Methods("GET")
	}

	// WebSocket
	s.router.HandleFunc("/ws", s.handleWebSocket)
}

// Mount serves handler under prefix, e.g. the MCP streamable endpoint
func (s *Server) Mount(prefix string, handler http.Handler) {
	s.router.PathPrefix(prefix).Handler(handler)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// ExecuteResponse is returned by every endpoint that runs a scenario
type ExecuteResponse struct {
	RunID   string               `json:"runId"`
	Finals  []service.FinalState `json:"finals"`
	Summary service.Summary      `json:"summary"`
	Claimed []engine.Position    `json:"claimed,omitempty"`
	Traces  []service.RobotTrace `json:"traces,omitempty"`
}

func newExecuteResponse(run *service.Run) ExecuteResponse {
	resp := ExecuteResponse{RunID: run.ID}
	if run.Result != nil {
		resp.Finals = run.Result.Finals
		resp.Summary = run.Result.Summary
		resp.Claimed = run.Result.Claimed
		resp.Traces = run.Result.Traces
	}
	return resp
}

func wantTrace(r *http.Request) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get("trace"))
	return err == nil && v
}

// Scenario Handlers

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	req, err := scenario.DecodeRequest(http.MaxBytesReader(w, r.Body, s.maxBodyBytes))
	if err != nil {
		respondError(w, r, http.StatusBadRequest, codeBadRequest, msgUnreadableBody)
		return
	}

	cmd, err := req.ToCommand()
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	s.process(w, r, cmd, service.ProcessOptions{
		Trace:  wantTrace(r),
		Source: service.SourceJSON,
	})
}

func (s *Server) handleExecuteRaw(w http.ResponseWriter, r *http.Request) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "text/plain" {
		respondError(w, r, http.StatusUnsupportedMediaType, codeUnsupportedMedia,
			"Content-Type must be text/plain.")
		return
	}

	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBodyBytes))
	if err != nil {
		respondError(w, r, http.StatusBadRequest, codeBadRequest, msgUnreadableBody)
		return
	}

	cmd, err := scenario.ParseRaw(string(raw))
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	s.process(w, r, cmd, service.ProcessOptions{
		Trace:  wantTrace(r),
		Source: service.SourceRaw,
	})
}

func (s *Server) process(w http.ResponseWriter, r *http.Request, cmd scenario.Command, opts service.ProcessOptions) {
	run, err := s.service.Process(r.Context(), cmd, opts)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	s.completed(run)
	respondJSON(w, http.StatusOK, newExecuteResponse(run))
}

// completed broadcasts a stored run to websocket subscribers
func (s *Server) completed(run *service.Run) {
	if s.hub != nil {
		s.hub.BroadcastRun(run)
	}
}

// Run Handlers

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.service.ListRuns(r.Context())
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	query := r.URL.Query()
	total := len(runs)

	if source := strings.ToLower(query.Get("source")); source != "" {
		filtered := make([]*service.Run, 0, len(runs))
		for _, run := range runs {
			if run.Source == source {
				filtered = append(filtered, run)
			}
		}
		runs = filtered
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l < len(runs) {
			runs = runs[:l]
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(runs),
		"total": total,
		"runs":  runs,
	})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.service.GetRun(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, run)
}

func (s *Server) handleDeleteRun(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := s.service.DeleteRun(r.Context(), id); err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Run %s deleted", id),
	})
}

// Preset Handlers

func (s *Server) handleListPresets(w http.ResponseWriter, r *http.Request) {
	presets, err := s.service.ListPresets(r.Context())
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, presets)
}

// PresetResponse shows a preset as a command and in raw text form
type PresetResponse struct {
	ID      string           `json:"id"`
	Command scenario.Command `json:"command"`
	Raw     string           `json:"raw"`
}

func (s *Server) handleGetPreset(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	cmd, err := s.service.GetPreset(r.Context(), name)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, PresetResponse{
		ID:      name,
		Command: *cmd,
		Raw:     scenario.FormatRaw(*cmd),
	})
}

func (s *Server) handleRunPreset(w http.ResponseWriter, r *http.Request) {
	run, err := s.service.RunPreset(r.Context(), mux.Vars(r)["name"], service.ProcessOptions{
		Trace: wantTrace(r),
	})
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	s.completed(run)
	respondJSON(w, http.StatusOK, newExecuteResponse(run))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"time":   time.Now().UTC(),
	})
}

// WebSocket Handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		respondError(w, r, http.StatusServiceUnavailable, codeInternal, "Live feed is not enabled.")
		return
	}

	topic := r.URL.Query().Get("topic")
	if topic == "" {
		topic = websocket.TopicRuns
	}
	if topic != websocket.TopicRuns {
		respondError(w, r, http.StatusBadRequest, codeBadRequest,
			fmt.Sprintf("Unknown topic %q.", topic))
		return
	}

	s.hub.ServeWS(w, r, topic)
}
