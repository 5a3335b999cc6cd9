// Package topology reconstructs the device graph implied by a set of
// configuration records.
package topology

import (
	"sort"

	"go.uber.org/zap"

	"netaudit/internal/domain"
)

// Builder assembles a Topology from config records
type Builder struct {
	logger *zap.Logger
}

// NewBuilder creates a builder. A nil logger disables logging.
func NewBuilder(logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{logger: logger.Named("topology")}
}

// Build returns the topology for records keyed by device name
func Build(records map[string]domain.ConfigRecord) *domain.Topology {
	return NewBuilder(nil).Build(records)
}

// addressed is one interface with a resolvable IPv4 address
type addressed struct {
	device string
	iface  string
	prefix string
}

// Build adds one node per device, links from neighbor hints, links inferred
// from shared /24 prefixes, then annotates capacity and MTU pairs.
func (b *Builder) Build(records map[string]domain.ConfigRecord) *domain.Topology {
	topo := domain.NewTopology()

	devices := make([]string, 0, len(records))
	for name := range records {
		devices = append(devices, name)
	}
	sort.Strings(devices)

	for _, name := range devices {
		node := domain.NodeFromRecord(records[name])
		node.Name = name
		topo.AddNode(node)
	}

	explicit := 0
	for _, name := range devices {
		for _, iface := range records[name].Interfaces {
			hint := iface.ConnectsTo
			if hint == nil || hint.Device == name {
				continue
			}
			if _, ok := records[hint.Device]; !ok {
				b.logger.Debug("neighbor hint references unknown device",
					zap.String("device", name),
					zap.String("interface", iface.Name),
					zap.String("peer", hint.Device))
				continue
			}
			if topo.AddLink(domain.NewLink(name, iface.Name, hint.Device, hint.Interface)) {
				explicit++
			}
		}
	}

	var tuples []addressed
	for _, name := range devices {
		for _, iface := range records[name].Interfaces {
			if iface.IP == "" {
				continue
			}
			prefix, ok := domain.Prefix24(iface.IP)
			if !ok {
				continue
			}
			tuples = append(tuples, addressed{device: name, iface: iface.Name, prefix: prefix})
		}
	}

	inferred := 0
	for i := 0; i < len(tuples); i++ {
		for j := i + 1; j < len(tuples); j++ {
			a, c := tuples[i], tuples[j]
			if a.device == c.device || a.prefix != c.prefix {
				continue
			}
			if topo.AddLink(domain.NewLink(a.device, a.iface, c.device, c.iface)) {
				inferred++
			}
		}
	}

	for _, e := range topo.Edges() {
		b.annotate(e, records)
	}

	b.logger.Debug("topology built",
		zap.Int("nodes", topo.NodeCount()),
		zap.Int("edges", topo.EdgeCount()),
		zap.Int("explicit_links", explicit),
		zap.Int("inferred_links", inferred))

	return topo
}

// annotate derives capacity as the sum of per-link minimum bandwidth and
// collects one MTU pair per link in link order
func (b *Builder) annotate(e *domain.Edge, records map[string]domain.ConfigRecord) {
	capacity := 0
	pairs := make([]domain.MTUPair, 0, len(e.Links))
	for _, l := range e.Links {
		bwA, mtuA := b.resolve(records, l.ADevice, l.AInterface)
		bwB, mtuB := b.resolve(records, l.BDevice, l.BInterface)
		capacity += min(bwA, bwB)
		pairs = append(pairs, domain.MTUPair{mtuA, mtuB})
	}
	if capacity == 0 {
		capacity = domain.DefaultBandwidthKbps
	}
	e.CapacityKbps = capacity
	e.MTUPairs = pairs
}

// resolve looks up bandwidth and MTU of a named interface, falling back to
// the defaults when the name does not resolve
func (b *Builder) resolve(records map[string]domain.ConfigRecord, device, ifname string) (bw, mtu int) {
	bw, mtu = domain.DefaultBandwidthKbps, domain.DefaultMTU

	rec, ok := records[device]
	if !ok {
		return bw, mtu
	}
	iface, ok := rec.Interface(ifname)
	if !ok {
		b.logger.Debug("interface lookup failed, using defaults",
			zap.Error(domain.NewError(domain.KindUnresolvableReference, "resolve", nil)),
			zap.String("device", device),
			zap.String("interface", ifname))
		return bw, mtu
	}
	if iface.BandwidthKbps > 0 {
		bw = iface.BandwidthKbps
	}
	if iface.MTU > 0 {
		mtu = iface.MTU
	}
	return bw, mtu
}
