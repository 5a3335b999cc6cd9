// Package discovery simulates a day-one neighbor discovery between routers:
// one goroutine per router exchanging hello and acknowledge messages through
// mailboxes for a bounded window.
package discovery

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"netaudit/internal/domain"
)

// Timing in multiples of Config.TimeUnit
const (
	WindowUnits = 2.0
	PollUnits   = 0.1
)

// DefaultTimeUnit is one second of wall time per time unit
const DefaultTimeUnit = time.Second

// Config controls the simulation clock
type Config struct {
	TimeUnit time.Duration
}

// Window returns the per-worker active duration
func (c Config) Window() time.Duration {
	return time.Duration(WindowUnits * float64(c.unit()))
}

// Poll returns the receive timeout
func (c Config) Poll() time.Duration {
	return time.Duration(PollUnits * float64(c.unit()))
}

func (c Config) unit() time.Duration {
	if c.TimeUnit <= 0 {
		return DefaultTimeUnit
	}
	return c.TimeUnit
}

// State of a discovery worker
type State int32

const (
	StateActive State = iota
	StateDone
)

func (s State) String() string {
	if s == StateDone {
		return "DONE"
	}
	return "ACTIVE"
}

// worker owns its mailbox and log; no other goroutine mutates them
type worker struct {
	name      string
	neighbors []string
	inbox     *Mailbox
	registry  *Registry
	window    time.Duration
	poll      time.Duration
	logger    *zap.Logger

	state atomic.Int32
	log   []domain.SimEvent
	sent  int
}

func (w *worker) State() State {
	return State(w.state.Load())
}

func (w *worker) send(to string, kind domain.MessageType) {
	box, ok := w.registry.Lookup(to)
	if !ok {
		return
	}
	box.Send(Message{From: w.name, Type: kind})
	w.sent++
}

// run says hello to every neighbor, then answers hellos with acks until
// the window elapses or ctx is done
func (w *worker) run(ctx context.Context) error {
	w.state.Store(int32(StateActive))
	for _, n := range w.neighbors {
		w.send(n, domain.MsgNeighborHello)
	}

	start := time.Now()
	for time.Since(start) < w.window && ctx.Err() == nil {
		msg, ok := w.inbox.Receive(ctx, w.poll)
		if !ok {
			continue
		}
		w.log = append(w.log, domain.SimEvent{From: msg.From, Type: msg.Type})
		if msg.Type == domain.MsgNeighborHello {
			w.send(msg.From, domain.MsgNeighborAck)
		}
	}

	w.state.Store(int32(StateDone))
	w.logger.Debug("worker done",
		zap.String("router", w.name),
		zap.Int("received", len(w.log)),
		zap.Int("sent", w.sent),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

// Stats summarises message traffic of one run
type Stats struct {
	Routers  int
	Sent     int
	Received int
	// Unread counts messages still queued when their router finished
	Unread int
}

// Simulator runs the discovery protocol over the routers of a topology
type Simulator struct {
	cfg    Config
	logger *zap.Logger
	stats  Stats
}

// NewSimulator creates a simulator. A nil logger disables logging.
func NewSimulator(cfg Config, logger *zap.Logger) *Simulator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Simulator{cfg: cfg, logger: logger.Named("discovery")}
}

// Stats returns the traffic counters of the last Run
func (s *Simulator) Stats() Stats {
	return s.stats
}

// Run starts one worker per router, waits for every worker to finish and
// returns each router's log. Switches and edges touching them are ignored.
// If ctx is cancelled the workers stop early and ctx's error is returned
// together with whatever was logged.
func (s *Simulator) Run(ctx context.Context, topo *domain.Topology) (domain.SimLog, error) {
	routers := topo.Subgraph(domain.IsRouter)
	names := routers.NodeNames()
	registry := NewRegistry(names)

	workers := make([]*worker, 0, len(names))
	for _, name := range names {
		inbox, _ := registry.Lookup(name)
		workers = append(workers, &worker{
			name:      name,
			neighbors: routers.Neighbors(name),
			inbox:     inbox,
			registry:  registry,
			window:    s.cfg.Window(),
			poll:      s.cfg.Poll(),
			log:       make([]domain.SimEvent, 0),
			logger:    s.logger,
		})
	}

	s.logger.Debug("starting discovery",
		zap.Int("routers", registry.Len()),
		zap.Duration("window", s.cfg.Window()))

	var g errgroup.Group
	for _, w := range workers {
		g.Go(func() error {
			return w.run(ctx)
		})
	}
	err := g.Wait()

	out := make(domain.SimLog, len(workers))
	s.stats = Stats{Routers: registry.Len()}
	for _, w := range workers {
		out[w.name] = w.log
		s.stats.Sent += w.sent
		s.stats.Received += len(w.log)
		s.stats.Unread += w.inbox.Len()
	}
	if err == nil {
		err = ctx.Err()
	}
	return out, err
}
