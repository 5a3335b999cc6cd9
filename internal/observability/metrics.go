package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"netaudit/internal/core/discovery"
	"netaudit/internal/domain"
)

// Collector bundles the Prometheus metrics of analysis runs and the HTTP
// view. It satisfies service.Metrics.
type Collector struct {
	gatherer prometheus.Gatherer

	Runs        prometheus.Counter
	RunDuration prometheus.Histogram

	TopologyNodes   prometheus.Gauge
	TopologyEdges   prometheus.Gauge
	Issues          *prometheus.GaugeVec
	EdgeLoad        *prometheus.GaugeVec
	OverloadedLinks prometheus.Gauge

	DiscoveryRouters  prometheus.Gauge
	DiscoveryMessages *prometheus.CounterVec

	HTTPRequests  *prometheus.CounterVec
	HTTPDurations *prometheus.HistogramVec
}

// NewCollector registers the metrics against reg, defaulting to the global
// Prometheus registry when nil. Registering twice reuses the existing
// collectors.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	c := &Collector{gatherer: gatherer}
	var err error

	if c.Runs, err = registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "netaudit_runs_total",
		Help: "Completed analysis runs.",
	}), "netaudit_runs_total"); err != nil {
		return nil, err
	}
	if c.RunDuration, err = registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "netaudit_run_duration_seconds",
		Help:    "Wall time of one analysis run, discovery window included.",
		Buckets: []float64{0.1, 0.5, 1, 2, 2.5, 3, 5, 10, 30},
	}), "netaudit_run_duration_seconds"); err != nil {
		return nil, err
	}
	if c.TopologyNodes, err = registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "netaudit_topology_nodes",
		Help: "Devices in the last analysed topology.",
	}), "netaudit_topology_nodes"); err != nil {
		return nil, err
	}
	if c.TopologyEdges, err = registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "netaudit_topology_edges",
		Help: "Device adjacencies in the last analysed topology.",
	}), "netaudit_topology_edges"); err != nil {
		return nil, err
	}
	if c.Issues, err = registerGaugeVec(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "netaudit_issues",
		Help: "Issues found by the last run, labeled by type.",
	}, []string{"type"}), "netaudit_issues"); err != nil {
		return nil, err
	}
	if c.EdgeLoad, err = registerGaugeVec(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "netaudit_edge_load_kbps",
		Help: "Synthetic demand routed over each link by the last run.",
	}, []string{"link"}), "netaudit_edge_load_kbps"); err != nil {
		return nil, err
	}
	if c.OverloadedLinks, err = registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "netaudit_overloaded_links",
		Help: "Links whose synthetic load exceeds capacity.",
	}), "netaudit_overloaded_links"); err != nil {
		return nil, err
	}
	if c.DiscoveryRouters, err = registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "netaudit_discovery_routers",
		Help: "Routers that took part in the last discovery simulation.",
	}), "netaudit_discovery_routers"); err != nil {
		return nil, err
	}
	if c.DiscoveryMessages, err = registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "netaudit_discovery_messages_total",
		Help: "Discovery messages, labeled by direction.",
	}, []string{"direction"}), "netaudit_discovery_messages_total"); err != nil {
		return nil, err
	}
	if c.HTTPRequests, err = registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "netaudit_http_requests_total",
		Help: "HTTP requests served, labeled by route and status code.",
	}, []string{"route", "code"}), "netaudit_http_requests_total"); err != nil {
		return nil, err
	}
	if c.HTTPDurations, err = registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "netaudit_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}, []string{"route"}), "netaudit_http_request_duration_seconds"); err != nil {
		return nil, err
	}

	return c, nil
}

// ObserveRun records the outcome of an analysis run
func (c *Collector) ObserveRun(summary *domain.Summary, elapsed time.Duration) {
	if c == nil || summary == nil {
		return
	}
	c.Runs.Inc()
	c.RunDuration.Observe(elapsed.Seconds())
	c.ObserveSummary(summary)
}

// ObserveSummary sets the topology, issue and load gauges from summary
// without counting a run. Reopened snapshots are reported this way.
func (c *Collector) ObserveSummary(summary *domain.Summary) {
	if c == nil || summary == nil {
		return
	}
	c.TopologyNodes.Set(float64(len(summary.Nodes)))
	c.TopologyEdges.Set(float64(len(summary.Edges)))

	c.Issues.Reset()
	for _, t := range domain.AllIssueTypes {
		c.Issues.WithLabelValues(string(t)).Set(0)
	}
	for _, i := range summary.Issues {
		c.Issues.WithLabelValues(string(i.Type)).Inc()
	}

	c.EdgeLoad.Reset()
	for link, load := range summary.EdgeLoadKbps {
		c.EdgeLoad.WithLabelValues(link).Set(float64(load))
	}
	c.OverloadedLinks.Set(float64(len(summary.LoadBalance)))
}

// ObserveDiscovery records discovery simulation traffic
func (c *Collector) ObserveDiscovery(stats discovery.Stats) {
	if c == nil {
		return
	}
	c.DiscoveryRouters.Set(float64(stats.Routers))
	c.DiscoveryMessages.WithLabelValues("sent").Add(float64(stats.Sent))
	c.DiscoveryMessages.WithLabelValues("received").Add(float64(stats.Received))
	c.DiscoveryMessages.WithLabelValues("unread").Add(float64(stats.Unread))
}

// ObserveHTTP records one served request
func (c *Collector) ObserveHTTP(route string, code int, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.HTTPRequests.WithLabelValues(route, fmt.Sprint(code)).Inc()
	c.HTTPDurations.WithLabelValues(route).Observe(elapsed.Seconds())
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// WriteToTextfile dumps the current metrics in the node_exporter textfile
// format, for batch runs that exit before anything could scrape them.
func (c *Collector) WriteToTextfile(path string) error {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	if err := prometheus.WriteToTextfile(path, gatherer); err != nil {
		return domain.NewError(domain.KindExport, "WriteToTextfile", err)
	}
	return nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogram(reg prometheus.Registerer, h prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(h); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return h, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}

func registerGaugeVec(reg prometheus.Registerer, vec *prometheus.GaugeVec, name string) (*prometheus.GaugeVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.GaugeVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}
