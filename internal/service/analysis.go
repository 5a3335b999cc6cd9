package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"netaudit/internal/core/demand"
	"netaudit/internal/core/detect"
	"netaudit/internal/core/discovery"
	"netaudit/internal/core/topology"
	"netaudit/internal/domain"
)

// Metrics receives run measurements
type Metrics interface {
	ObserveRun(summary *domain.Summary, elapsed time.Duration)
	ObserveDiscovery(stats discovery.Stats)
}

// Options configures the analysis components
type Options struct {
	Demand    demand.Config
	Discovery discovery.Config
	// Seed fixes the demand random source. Nil seeds from the clock.
	Seed *uint64
}

// AnalysisService runs one full analysis pass over a set of records
type AnalysisService struct {
	opts    Options
	bus     *EventBus
	metrics Metrics
	logger  *zap.Logger
	now     func() time.Time

	latest atomic.Pointer[domain.Summary]
}

// NewAnalysisService creates the service. bus and metrics may be nil.
func NewAnalysisService(opts Options, bus *EventBus, metrics Metrics, logger *zap.Logger) *AnalysisService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalysisService{
		opts:    opts,
		bus:     bus,
		metrics: metrics,
		logger:  logger.Named("analysis"),
		now:     time.Now,
	}
}

// Latest returns the summary of the last successful run
func (s *AnalysisService) Latest() (*domain.Summary, bool) {
	sum := s.latest.Load()
	return sum, sum != nil
}

// Run builds the topology and runs detection, demand simulation and
// discovery concurrently over it, then assembles the summary
func (s *AnalysisService) Run(ctx context.Context, records map[string]domain.ConfigRecord) (*domain.Summary, error) {
	start := s.now()
	runID := uuid.NewString()
	log := s.logger.With(zap.String("run_id", runID))

	s.bus.Publish(Event{Type: EventRunStarted, RunID: runID, Payload: map[string]any{"devices": len(records)}})
	log.Info("analysis started", zap.Int("devices", len(records)))

	topo := topology.NewBuilder(log).Build(records)
	s.bus.Publish(Event{Type: EventTopologyBuilt, RunID: runID, Payload: map[string]any{
		"nodes": topo.NodeCount(),
		"edges": topo.EdgeCount(),
	}})

	seed := uint64(start.UnixNano())
	if s.opts.Seed != nil {
		seed = *s.opts.Seed
	}
	demandSim := demand.NewSimulator(s.opts.Demand, demand.NewRand(seed), log)
	discoverySim := discovery.NewSimulator(s.opts.Discovery, log)

	var (
		issues    []domain.Issue
		demandRes demand.Result
		simLog    domain.SimLog
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		issues = detect.Detect(records, topo)
		s.bus.Publish(Event{Type: EventIssuesDetected, RunID: runID, Payload: map[string]any{"issues": len(issues)}})
		return nil
	})
	g.Go(func() error {
		demandRes = demandSim.Simulate(topo)
		s.bus.Publish(Event{Type: EventDemandSimulated, RunID: runID, Payload: map[string]any{"trials": len(demandRes.Trials)}})
		return nil
	})
	g.Go(func() error {
		var err error
		simLog, err = discoverySim.Run(gctx, topo)
		if err != nil {
			return fmt.Errorf("discovery: %w", err)
		}
		s.bus.Publish(Event{Type: EventDiscoveryFinished, RunID: runID, Payload: map[string]any{"routers": len(simLog)}})
		return nil
	})
	if err := g.Wait(); err != nil {
		s.bus.Publish(Event{Type: EventRunFailed, RunID: runID, Payload: map[string]any{"error": err.Error()}})
		log.Warn("analysis aborted", zap.Error(err))
		return nil, fmt.Errorf("analysis %s: %w", runID, err)
	}

	loadBalance := demand.Recommend(topo, demandRes.Load)
	summary := &domain.Summary{
		RunID:           runID,
		GeneratedAt:     start.UTC(),
		Nodes:           topo.Nodes(),
		Edges:           topo.Edges(),
		Issues:          issues,
		EdgeLoadKbps:    demandRes.Load.EdgeLoad(),
		LoadBalance:     loadBalance,
		Recommendations: Recommendations(loadBalance, issues),
		Day1SimLog:      simLog,
		DemandTrials:    demandRes.Trials,
		Notes:           domain.SummaryNotes,
	}

	elapsed := s.now().Sub(start)
	if s.metrics != nil {
		s.metrics.ObserveRun(summary, elapsed)
		s.metrics.ObserveDiscovery(discoverySim.Stats())
	}
	s.latest.Store(summary)

	s.bus.Publish(Event{Type: EventRunCompleted, RunID: runID, Payload: map[string]any{
		"issues":          len(summary.Issues),
		"recommendations": len(summary.Recommendations),
	}})
	log.Info("analysis completed",
		zap.Int("nodes", len(summary.Nodes)),
		zap.Int("edges", len(summary.Edges)),
		zap.Int("issues", len(summary.Issues)),
		zap.Duration("elapsed", elapsed))

	return summary, nil
}

// Recommendations lists load-balance strings followed by MTU fix strings
func Recommendations(loadBalance []domain.LoadRecommendation, issues []domain.Issue) []string {
	recs := lo.Map(loadBalance, func(r domain.LoadRecommendation, _ int) string {
		return r.String()
	})
	for _, i := range issues {
		if fix, ok := i.MTUFix(); ok {
			recs = append(recs, fix)
		}
	}
	return recs
}
