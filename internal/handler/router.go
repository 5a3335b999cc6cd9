package handler

import (
	"net/http"

	"go.uber.org/zap"
)

// NewRouter wires the read-only API. metrics may be nil to omit /metrics.
func NewRouter(h *SummaryHandler, metrics http.Handler, observer RequestObserver, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/summary", h.GetSummary)
	mux.HandleFunc("GET /api/graph", h.GetGraph)
	mux.HandleFunc("GET /api/issues", h.ListIssues)
	mux.HandleFunc("GET /api/edges", h.ListEdges)
	mux.HandleFunc("GET /api/simlog/{node}", h.GetSimLog)
	mux.HandleFunc("GET /healthz", h.Healthz)
	if metrics != nil {
		mux.Handle("GET /metrics", metrics)
	}

	return Chain(mux,
		Recover(logger),
		Logger(logger),
		Instrument(observer),
	)
}
