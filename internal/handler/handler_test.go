package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"netaudit/internal/domain"
)

type staticProvider struct {
	summary *domain.Summary
}

func (p staticProvider) Latest() (*domain.Summary, bool) {
	return p.summary, p.summary != nil
}

type recordingObserver struct {
	mu     sync.Mutex
	routes []string
	codes  []int
}

func (o *recordingObserver) ObserveHTTP(route string, code int, elapsed time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.routes = append(o.routes, route)
	o.codes = append(o.codes, code)
}

func testSummary() *domain.Summary {
	return &domain.Summary{
		RunID: "run-1",
		Nodes: []*domain.Node{
			{Name: "R1", Kind: domain.DeviceRouter, Protocols: []domain.Protocol{}},
			{Name: "R2", Kind: domain.DeviceRouter, Protocols: []domain.Protocol{}},
			{Name: "SW1", Kind: domain.DeviceSwitch, Protocols: []domain.Protocol{}},
		},
		Edges: []*domain.Edge{
			{A: "R1", B: "R2", Links: []domain.Link{domain.NewLink("R1", "e0", "R2", "e0")}, CapacityKbps: 100000, MTUPairs: []domain.MTUPair{{1500, 9000}}},
			{A: "R2", B: "SW1", Links: []domain.Link{domain.NewLink("R2", "e1", "SW1", "f0")}, CapacityKbps: 100000, MTUPairs: []domain.MTUPair{{1500, 1500}}},
		},
		Issues: []domain.Issue{
			domain.NewMTUMismatchIssue("R1-R2", 1500, 9000),
			domain.NewBGPRecommendedIssue(),
		},
		EdgeLoadKbps: domain.EdgeLoad{"R1-R2": 120000},
		Day1SimLog: domain.SimLog{
			"R1": {{From: "R2", Type: domain.MsgNeighborHello}},
			"R2": nil,
		},
	}
}

func newTestServer(t *testing.T, summary *domain.Summary, observer RequestObserver) http.Handler {
	t.Helper()
	logger := zaptest.NewLogger(t)
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("netaudit_runs_total 1\n"))
	})
	return NewRouter(NewSummaryHandler(staticProvider{summary}, logger), metrics, observer, logger)
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestGetSummary(t *testing.T) {
	rec := get(t, newTestServer(t, testSummary(), nil), "/api/summary")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got domain.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "run-1", got.RunID)
	assert.Len(t, got.Issues, 2)
}

func TestNoSummaryYet(t *testing.T) {
	srv := newTestServer(t, nil, nil)
	for _, path := range []string{"/api/summary", "/api/graph", "/api/issues", "/api/edges", "/api/simlog/R1"} {
		t.Run(path, func(t *testing.T) {
			rec := get(t, srv, path)
			assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, "No analysis available", body.Error)
		})
	}

	rec := get(t, srv, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","summary":false}`, rec.Body.String())
}

func TestGetGraph(t *testing.T) {
	rec := get(t, newTestServer(t, testSummary(), nil), "/api/graph")
	require.Equal(t, http.StatusOK, rec.Code)

	var graph domain.Graph
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &graph))
	assert.Len(t, graph.Nodes, 3)
	require.Len(t, graph.Edges, 2)
	assert.True(t, graph.Edges[0].Mismatch)
}

func TestListIssues(t *testing.T) {
	srv := newTestServer(t, testSummary(), nil)

	t.Run("all", func(t *testing.T) {
		var issues []domain.Issue
		require.NoError(t, json.Unmarshal(get(t, srv, "/api/issues").Body.Bytes(), &issues))
		assert.Len(t, issues, 2)
	})

	t.Run("filtered", func(t *testing.T) {
		var issues []domain.Issue
		require.NoError(t, json.Unmarshal(get(t, srv, "/api/issues?type=bgp_recommended").Body.Bytes(), &issues))
		require.Len(t, issues, 1)
		assert.Equal(t, domain.ReasonMultipleASN, issues[0].Reason)
	})

	t.Run("no match is an empty list", func(t *testing.T) {
		rec := get(t, srv, "/api/issues?type=duplicate_ip")
		assert.JSONEq(t, `[]`, rec.Body.String())
	})
}

func TestListEdges(t *testing.T) {
	rec := get(t, newTestServer(t, testSummary(), nil), "/api/edges")
	require.Equal(t, http.StatusOK, rec.Code)

	var edges []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &edges))
	require.Len(t, edges, 2)
	assert.Equal(t, "R1-R2", edges[0]["key"])
	assert.Equal(t, 120000.0, edges[0]["load_kbps"])
	assert.Equal(t, true, edges[0]["overloaded"])
	assert.Equal(t, "R1", edges[0]["a"])
	assert.Equal(t, 0.0, edges[1]["load_kbps"])
	assert.Equal(t, false, edges[1]["overloaded"])
}

func TestGetSimLog(t *testing.T) {
	srv := newTestServer(t, testSummary(), nil)

	rec := get(t, srv, "/api/simlog/R1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"from":"R2","type":"NEIGHBOR_HELLO"}]`, rec.Body.String())

	rec = get(t, srv, "/api/simlog/R2")
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = get(t, srv, "/api/simlog/SW1")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsAndInstrumentation(t *testing.T) {
	observer := &recordingObserver{}
	srv := newTestServer(t, testSummary(), observer)

	rec := get(t, srv, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "netaudit_runs_total")

	get(t, srv, "/api/simlog/R1")
	get(t, srv, "/nope")

	assert.Equal(t, []string{"GET /metrics", "GET /api/simlog/{node}", "unmatched"}, observer.routes)
	assert.Equal(t, []int{200, 200, 404}, observer.codes)
}

func TestRecover(t *testing.T) {
	panicking := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})
	h := Chain(panicking, Recover(zaptest.NewLogger(t)))

	rec := get(t, h, "/")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestChainOrder(t *testing.T) {
	var order []string
	mw := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}), mw("outer"), mw("inner"))
	get(t, h, "/")
	assert.Equal(t, []string{"outer", "inner"}, order)
}
