package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"secdash/internal/aggregate"
	"secdash/internal/assistant"
	"secdash/internal/pipeline"
	"secdash/pkg/models"
)

// Dashboard serves the aggregated alert and vulnerability views.
type Dashboard interface {
	FetchAlerts(ctx context.Context, viewer models.Viewer) (*pipeline.AlertSnapshot, error)
	FetchVulnerabilities(ctx context.Context, viewer models.Viewer) (*pipeline.VulnerabilitySnapshot, error)
}

// Inventory exposes the agent and FIM operations of the backend.
type Inventory interface {
	Agents(ctx context.Context) ([]models.Agent, error)
	RunFIMScan(ctx context.Context) error
	FIMResults(ctx context.Context, agentID string) ([]models.FIMEntry, error)
	ClearFIMResults(ctx context.Context, agentID string) error
	LastFIMScanTime(ctx context.Context, agentID string) (time.Time, error)
}

// Summarizer narrates a subject's records in natural language.
type Summarizer interface {
	Summarize(ctx context.Context, subject, prompt string, payload interface{}) ([]models.Message, error)
}

// Server is the dashboard HTTP API.
type Server struct {
	dashboard  Dashboard
	inventory  Inventory
	summarizer Summarizer
	router     *mux.Router
}

// New creates the API server and installs its routes.
func New(dashboard Dashboard, inventory Inventory, summarizer Summarizer) *Server {
	s := &Server{
		dashboard:  dashboard,
		inventory:  inventory,
		summarizer: summarizer,
		router:     mux.NewRouter(),
	}
	s.routes()
	return s
}

// Router returns the HTTP handler.
func (s *Server) Router() http.Handler { return s.router }

func (s *Server) routes() {
	s.router.Use(requestIDMiddleware, loggingMiddleware)

	s.router.HandleFunc("/v1/dashboard/alerts", s.handleAlerts).Methods(http.MethodGet)
	s.router.HandleFunc("/v1/dashboard/vulnerabilities", s.handleVulnerabilities).Methods(http.MethodGet)
	s.router.HandleFunc("/v1/agents", s.handleAgents).Methods(http.MethodGet)

	s.router.HandleFunc("/v1/fim/scan", s.handleFIMScan).Methods(http.MethodPost)
	s.router.HandleFunc("/v1/fim/{agentID}/results", s.handleFIMResults).Methods(http.MethodGet)
	s.router.HandleFunc("/v1/fim/{agentID}/results", s.handleFIMClear).Methods(http.MethodDelete)
	s.router.HandleFunc("/v1/fim/{agentID}/last-scan", s.handleFIMLastScan).Methods(http.MethodGet)
	s.router.HandleFunc("/v1/fim/{agentID}/summary", s.handleFIMSummary).Methods(http.MethodPost)

	s.router.HandleFunc("/v1/summaries", s.handleSummary).Methods(http.MethodPost)

	s.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
}

// viewerFrom builds the viewer identity from gateway-provided headers. An
// absent or garbled identity yields an unresolved viewer, which the filter
// treats as no access.
func viewerFrom(r *http.Request) models.Viewer {
	return models.Viewer{
		Email: r.Header.Get("X-Viewer-Email"),
		Role:  models.ParseRole(r.Header.Get("X-Viewer-Role")),
	}
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	snapshot, err := s.dashboard.FetchAlerts(r.Context(), viewerFrom(r))
	if err != nil {
		writeFetchError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (s *Server) handleVulnerabilities(w http.ResponseWriter, r *http.Request) {
	snapshot, err := s.dashboard.FetchVulnerabilities(r.Context(), viewerFrom(r))
	if err != nil {
		writeFetchError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (s *Server) handleAgents(w http.ResponseWriter, r *http.Request) {
	agents, err := s.inventory.Agents(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, "agent inventory unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"agents":        agents,
		"status_counts": aggregate.AgentStatusCounts(agents),
	})
}

func (s *Server) handleFIMScan(w http.ResponseWriter, r *http.Request) {
	if err := s.inventory.RunFIMScan(r.Context()); err != nil {
		writeError(w, http.StatusBadGateway, "failed to trigger scan")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "scan started"})
}

func (s *Server) handleFIMResults(w http.ResponseWriter, r *http.Request) {
	agentID := mux.Vars(r)["agentID"]
	entries, err := s.inventory.FIMResults(r.Context(), agentID)
	if err != nil {
		writeError(w, http.StatusBadGateway, "failed to fetch scan results")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"agent_id": agentID, "entries": entries})
}

func (s *Server) handleFIMClear(w http.ResponseWriter, r *http.Request) {
	agentID := mux.Vars(r)["agentID"]
	if err := s.inventory.ClearFIMResults(r.Context(), agentID); err != nil {
		writeError(w, http.StatusBadGateway, "failed to clear scan results")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func (s *Server) handleFIMLastScan(w http.ResponseWriter, r *http.Request) {
	agentID := mux.Vars(r)["agentID"]
	last, err := s.inventory.LastFIMScanTime(r.Context(), agentID)
	if err != nil {
		writeError(w, http.StatusBadGateway, "failed to fetch last scan time")
		return
	}
	resp := map[string]interface{}{"agent_id": agentID}
	if last.IsZero() {
		resp["last_scan"] = nil
	} else {
		resp["last_scan"] = last.Format(time.RFC3339)
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleFIMSummary narrates the agent's scan results through the assistant.
func (s *Server) handleFIMSummary(w http.ResponseWriter, r *http.Request) {
	agentID := mux.Vars(r)["agentID"]
	entries, err := s.inventory.FIMResults(r.Context(), agentID)
	if err != nil {
		writeError(w, http.StatusBadGateway, "failed to fetch scan results")
		return
	}

	subject := "fim:" + models.NormalizeAgentID(agentID)
	prompt := "Summarize these file integrity scan results for a security operator. Call out anything suspicious."
	messages, err := s.summarizer.Summarize(r.Context(), subject, prompt, entries)
	if err != nil {
		writeSummaryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"subject": subject, "messages": messages})
}

type summaryRequest struct {
	Subject string      `json:"subject"`
	Prompt  string      `json:"prompt"`
	Payload interface{} `json:"payload,omitempty"`
}

// handleSummary narrates an arbitrary record payload, keyed by subject so
// follow-up requests continue the same conversation thread.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	var req summaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Subject == "" || req.Prompt == "" {
		writeError(w, http.StatusBadRequest, "subject and prompt are required")
		return
	}

	messages, err := s.summarizer.Summarize(r.Context(), req.Subject, req.Prompt, req.Payload)
	if err != nil {
		writeSummaryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"subject": req.Subject, "messages": messages})
}

func writeFetchError(w http.ResponseWriter, err error) {
	if errors.Is(err, pipeline.ErrStale) {
		writeError(w, http.StatusConflict, "superseded by a newer request")
		return
	}
	writeError(w, http.StatusInternalServerError, "fetch failed")
}

func writeSummaryError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, assistant.ErrRunTimedOut):
		writeJSON(w, http.StatusGatewayTimeout, map[string]interface{}{
			"error": "the summary took too long; try again",
			"retry": true,
		})
	case errors.Is(err, assistant.ErrRunFailed):
		writeError(w, http.StatusBadGateway, "the summary request failed")
	default:
		writeError(w, http.StatusBadGateway, "summarization unavailable")
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
