package handler

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"netaudit/internal/domain"
)

// SummaryProvider returns the most recent completed analysis
type SummaryProvider interface {
	Latest() (*domain.Summary, bool)
}

// SummaryHandler serves a read-only view of one analysis summary
type SummaryHandler struct {
	provider SummaryProvider
	logger   *zap.Logger
}

// NewSummaryHandler creates a new summary handler
func NewSummaryHandler(provider SummaryProvider, logger *zap.Logger) *SummaryHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SummaryHandler{provider: provider, logger: logger}
}

// ErrorResponse is the body of every non-2xx reply
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// EdgeView is an edge with the synthetic load routed over it
type EdgeView struct {
	*domain.Edge
	Key        string `json:"key"`
	LoadKbps   int    `json:"load_kbps"`
	Overloaded bool   `json:"overloaded"`
}

// GetSummary returns the complete summary
func (h *SummaryHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	summary, ok := h.latest(w)
	if !ok {
		return
	}
	h.writeJSON(w, summary, http.StatusOK)
}

// GetGraph returns the vis-network view of the analysed topology
func (h *SummaryHandler) GetGraph(w http.ResponseWriter, r *http.Request) {
	summary, ok := h.latest(w)
	if !ok {
		return
	}
	h.writeJSON(w, domain.DeriveGraph(summary.Topology()), http.StatusOK)
}

// ListIssues returns the issues, optionally filtered by ?type=
func (h *SummaryHandler) ListIssues(w http.ResponseWriter, r *http.Request) {
	summary, ok := h.latest(w)
	if !ok {
		return
	}

	issues := summary.Issues
	if t := r.URL.Query().Get("type"); t != "" {
		issues = summary.IssuesOfType(domain.IssueType(t))
	}
	if issues == nil {
		issues = []domain.Issue{}
	}
	h.writeJSON(w, issues, http.StatusOK)
}

// ListEdges returns every edge with its load
func (h *SummaryHandler) ListEdges(w http.ResponseWriter, r *http.Request) {
	summary, ok := h.latest(w)
	if !ok {
		return
	}

	views := make([]EdgeView, 0, len(summary.Edges))
	for _, e := range summary.Edges {
		load := summary.EdgeLoadKbps[e.Key()]
		views = append(views, EdgeView{
			Edge:       e,
			Key:        e.Key(),
			LoadKbps:   load,
			Overloaded: load > e.CapacityKbps,
		})
	}
	h.writeJSON(w, views, http.StatusOK)
}

// GetSimLog returns the discovery events received by one router
func (h *SummaryHandler) GetSimLog(w http.ResponseWriter, r *http.Request) {
	summary, ok := h.latest(w)
	if !ok {
		return
	}

	node := r.PathValue("node")
	events, found := summary.Day1SimLog[node]
	if !found {
		h.writeError(w, "Not found", "no discovery log for "+node, http.StatusNotFound)
		return
	}
	if events == nil {
		events = []domain.SimEvent{}
	}
	h.writeJSON(w, events, http.StatusOK)
}

// Healthz reports liveness and whether a summary is loaded
func (h *SummaryHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{"status": "ok", "summary": false}
	if s, ok := h.provider.Latest(); ok {
		body["summary"] = true
		body["run_id"] = s.RunID
	}
	h.writeJSON(w, body, http.StatusOK)
}

// Helper methods

func (h *SummaryHandler) latest(w http.ResponseWriter) (*domain.Summary, bool) {
	summary, ok := h.provider.Latest()
	if !ok {
		h.writeError(w, "No analysis available", "the analysis has not completed yet", http.StatusServiceUnavailable)
		return nil, false
	}
	return summary, true
}

func (h *SummaryHandler) writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode JSON", zap.Error(err))
	}
}

func (h *SummaryHandler) writeError(w http.ResponseWriter, error, details string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(ErrorResponse{
		Error:   error,
		Details: details,
	}); err != nil {
		h.logger.Error("failed to encode error response", zap.Error(err))
	}
}
