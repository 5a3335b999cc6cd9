package topology

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gonum.org/v1/gonum/graph/path"

	"netaudit/internal/domain"
)

func hint(device, iface string) *domain.NeighborHint {
	return &domain.NeighborHint{Device: device, Interface: iface}
}

func record(name string, ifaces ...domain.InterfaceSpec) domain.ConfigRecord {
	r := domain.ConfigRecord{Hostname: name, Kind: domain.DeviceRouter, Interfaces: ifaces}
	r.ApplyDefaults()
	return r
}

func ringRecords() map[string]domain.ConfigRecord {
	return map[string]domain.ConfigRecord{
		"R1": record("R1",
			domain.InterfaceSpec{Name: "Gi0/0", ConnectsTo: hint("R2", "Gi0/0")},
			domain.InterfaceSpec{Name: "Gi0/1", ConnectsTo: hint("R3", "Gi0/1")}),
		"R2": record("R2",
			domain.InterfaceSpec{Name: "Gi0/0", ConnectsTo: hint("R1", "Gi0/0")},
			domain.InterfaceSpec{Name: "Gi0/1", ConnectsTo: hint("R3", "Gi0/0")}),
		"R3": record("R3",
			domain.InterfaceSpec{Name: "Gi0/0", ConnectsTo: hint("R2", "Gi0/1")},
			domain.InterfaceSpec{Name: "Gi0/1", ConnectsTo: hint("R1", "Gi0/1")}),
	}
}

func TestBuildExplicitLinks(t *testing.T) {
	topo := NewBuilder(zaptest.NewLogger(t)).Build(ringRecords())

	require.Equal(t, 3, topo.NodeCount())
	require.Equal(t, 3, topo.EdgeCount())
	for _, e := range topo.Edges() {
		assert.Len(t, e.Links, 1, "reciprocal hints collapse on %s", e.Key())
		assert.Equal(t, 100000, e.CapacityKbps)
		assert.Equal(t, []domain.MTUPair{{1500, 1500}}, e.MTUPairs)
	}

	e, ok := topo.Edge("R3", "R1")
	require.True(t, ok)
	assert.Equal(t, domain.Link{ADevice: "R1", AInterface: "Gi0/1", BDevice: "R3", BInterface: "Gi0/1"}, e.Links[0])
}

func TestBuildIgnoresBadHints(t *testing.T) {
	records := map[string]domain.ConfigRecord{
		"R1": record("R1",
			domain.InterfaceSpec{Name: "Gi0/0", ConnectsTo: hint("GHOST", "Gi0/0")},
			domain.InterfaceSpec{Name: "Gi0/1", ConnectsTo: hint("R1", "Gi0/2")}),
	}
	topo := Build(records)

	assert.Equal(t, 1, topo.NodeCount())
	assert.Zero(t, topo.EdgeCount())
}

func TestBuildInferredAdjacency(t *testing.T) {
	t.Run("shared /24 on distinct devices yields one edge", func(t *testing.T) {
		records := map[string]domain.ConfigRecord{
			"A": record("A", domain.InterfaceSpec{Name: "e0", IP: "10.0.0.1", Mask: "255.255.255.0", MTU: 1500}),
			"B": record("B", domain.InterfaceSpec{Name: "e0", IP: "10.0.0.2", Mask: "255.255.255.0", MTU: 9000}),
		}
		topo := Build(records)

		require.Equal(t, 1, topo.EdgeCount())
		e, _ := topo.Edge("A", "B")
		assert.Equal(t, []domain.MTUPair{{1500, 9000}}, e.MTUPairs)
	})

	t.Run("same device pairs are not linked", func(t *testing.T) {
		records := map[string]domain.ConfigRecord{
			"A": record("A",
				domain.InterfaceSpec{Name: "e0", IP: "10.0.0.1"},
				domain.InterfaceSpec{Name: "e1", IP: "10.0.0.2"}),
		}
		assert.Zero(t, Build(records).EdgeCount())
	})

	t.Run("different prefixes are not linked", func(t *testing.T) {
		records := map[string]domain.ConfigRecord{
			"A": record("A", domain.InterfaceSpec{Name: "e0", IP: "10.0.0.1"}),
			"B": record("B", domain.InterfaceSpec{Name: "e0", IP: "10.0.1.1"}),
		}
		assert.Zero(t, Build(records).EdgeCount())
	})

	t.Run("hint and inference on the same interfaces share one link", func(t *testing.T) {
		records := map[string]domain.ConfigRecord{
			"A": record("A", domain.InterfaceSpec{Name: "e0", IP: "10.0.0.1", ConnectsTo: hint("B", "e0")}),
			"B": record("B", domain.InterfaceSpec{Name: "e0", IP: "10.0.0.2"}),
		}
		topo := Build(records)
		e, ok := topo.Edge("A", "B")
		require.True(t, ok)
		assert.Len(t, e.Links, 1)
	})
}

func TestBuildCapacity(t *testing.T) {
	t.Run("sum of per-link minimum bandwidth", func(t *testing.T) {
		records := map[string]domain.ConfigRecord{
			"A": record("A",
				domain.InterfaceSpec{Name: "e0", BandwidthKbps: 1000000, ConnectsTo: hint("B", "e0")},
				domain.InterfaceSpec{Name: "e1", BandwidthKbps: 10000, ConnectsTo: hint("B", "e1")}),
			"B": record("B",
				domain.InterfaceSpec{Name: "e0", BandwidthKbps: 100000},
				domain.InterfaceSpec{Name: "e1", BandwidthKbps: 1000000}),
		}
		e, _ := Build(records).Edge("A", "B")
		assert.Equal(t, 100000+10000, e.CapacityKbps)
		assert.Len(t, e.MTUPairs, 2)
	})

	t.Run("unresolvable interface falls back to defaults", func(t *testing.T) {
		records := map[string]domain.ConfigRecord{
			"A": record("A", domain.InterfaceSpec{Name: "e0", BandwidthKbps: 1000000, MTU: 9000, ConnectsTo: hint("B", "missing")}),
			"B": record("B"),
		}
		e, _ := NewBuilder(zaptest.NewLogger(t)).Build(records).Edge("A", "B")
		assert.Equal(t, 100000, e.CapacityKbps)
		assert.Equal(t, []domain.MTUPair{{9000, 1500}}, e.MTUPairs)
	})
}

func TestBuildIsOrderIndependent(t *testing.T) {
	records := map[string]domain.ConfigRecord{
		"C": record("C", domain.InterfaceSpec{Name: "e0", IP: "10.1.1.3"}),
		"A": record("A", domain.InterfaceSpec{Name: "e0", IP: "10.1.1.1"}),
		"B": record("B", domain.InterfaceSpec{Name: "e0", IP: "10.1.1.2"}),
	}
	first := Build(records)
	for i := 0; i < 10; i++ {
		again := Build(records)
		assert.Equal(t, first.Edges(), again.Edges())
	}
	assert.Equal(t, 3, first.EdgeCount())
}

func TestGraphAdapter(t *testing.T) {
	topo := Build(ringRecords())
	g := NewGraph(topo)

	id1, ok := g.ID("R1")
	require.True(t, ok)
	id3, _ := g.ID("R3")
	assert.Equal(t, int64(0), id1)
	assert.Equal(t, "R3", g.Name(id3))
	assert.Equal(t, "", g.Name(99))
	assert.Nil(t, g.Node(99))

	assert.Equal(t, 3, g.Nodes().Len())
	assert.Equal(t, 2, g.From(id1).Len())
	assert.True(t, g.HasEdgeBetween(id1, id3))
	assert.NotNil(t, g.EdgeBetween(id3, id1))

	p, _ := path.DijkstraFrom(g.Node(id1), g).To(id3)
	assert.Equal(t, []string{"R1", "R3"}, g.Names(p))
}
