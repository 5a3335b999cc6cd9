// Package demand runs a coarse Monte-Carlo traffic model over a topology and
// flags edges whose synthetic load exceeds capacity.
package demand

import (
	"math/rand/v2"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/graph/path"

	"netaudit/internal/core/topology"
	"netaudit/internal/domain"
)

// Defaults for the synthetic model
const DefaultTrials = 6

// DefaultDemandsKbps is the discrete set demands are drawn from
var DefaultDemandsKbps = []int{1000, 5000, 10000, 20000, 40000}

// Config controls the trial count and demand set. Zero values use defaults.
type Config struct {
	Trials      int
	DemandsKbps []int
}

// Result is the outcome of one simulation
type Result struct {
	Load   domain.PairLoad
	Trials []domain.DemandTrial
}

// Simulator draws demands between random device pairs. It is not safe for
// concurrent use because it owns its random source.
type Simulator struct {
	trials  int
	demands []int
	rng     *rand.Rand
	logger  *zap.Logger
}

// NewRand returns a seeded PCG source
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// NewSimulator creates a simulator drawing from rng
func NewSimulator(cfg Config, rng *rand.Rand, logger *zap.Logger) *Simulator {
	if cfg.Trials <= 0 {
		cfg.Trials = DefaultTrials
	}
	if len(cfg.DemandsKbps) == 0 {
		cfg.DemandsKbps = DefaultDemandsKbps
	}
	if rng == nil {
		rng = NewRand(rand.Uint64())
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Simulator{
		trials:  cfg.Trials,
		demands: cfg.DemandsKbps,
		rng:     rng,
		logger:  logger.Named("demand"),
	}
}

// Simulate initialises every edge to zero load, then runs the trials. Each
// trial routes a demand along a minimum-hop path and adds it to every edge
// on that path. Pairs without a path are skipped.
func (s *Simulator) Simulate(t *domain.Topology) Result {
	res := Result{
		Load:   make(domain.PairLoad, t.EdgeCount()),
		Trials: make([]domain.DemandTrial, 0, s.trials),
	}
	for _, e := range t.Edges() {
		res.Load[e.Pair()] = 0
	}

	names := t.NodeNames()
	if len(names) < 2 {
		s.logger.Debug("fewer than two devices, skipping demand trials", zap.Int("nodes", len(names)))
		return res
	}
	g := topology.NewGraph(t)

	for i := 0; i < s.trials; i++ {
		si := s.rng.IntN(len(names))
		di := s.rng.IntN(len(names) - 1)
		if di >= si {
			di++
		}
		trial := domain.DemandTrial{Src: names[si], Dst: names[di]}

		src, _ := g.ID(trial.Src)
		dst, _ := g.ID(trial.Dst)
		hops, _ := path.DijkstraFrom(g.Node(src), g).To(dst)
		if len(hops) < 2 {
			s.logger.Debug("no path between devices",
				zap.Error(domain.NewError(domain.KindNoPath, "simulate", nil)),
				zap.String("src", trial.Src),
				zap.String("dst", trial.Dst))
			trial.Skipped = true
			res.Trials = append(res.Trials, trial)
			continue
		}

		trial.Path = g.Names(hops)
		trial.DemandKbps = s.demands[s.rng.IntN(len(s.demands))]
		for k := 0; k+1 < len(trial.Path); k++ {
			res.Load[domain.NewDevicePair(trial.Path[k], trial.Path[k+1])] += trial.DemandKbps
		}
		res.Trials = append(res.Trials, trial)
	}
	return res
}

// Recommend returns one recommendation per edge whose load exceeds its
// capacity, in edge key order
func Recommend(t *domain.Topology, load domain.PairLoad) []domain.LoadRecommendation {
	recs := make([]domain.LoadRecommendation, 0)
	for _, e := range t.Edges() {
		l := load[e.Pair()]
		if l <= e.CapacityKbps {
			continue
		}
		recs = append(recs, domain.LoadRecommendation{
			Link:         e.Key(),
			LoadKbps:     l,
			CapacityKbps: e.CapacityKbps,
			Suggestion:   domain.LoadAdvisory,
		})
	}
	return recs
}
