package codec

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"netaudit/internal/domain"
)

func sampleSummary() *domain.Summary {
	asn := 65001
	return &domain.Summary{
		RunID:       "run-1",
		GeneratedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Nodes: []*domain.Node{
			{Name: "A", Kind: domain.DeviceRouter, Protocols: []domain.Protocol{domain.ProtocolBGP}, ASN: &asn},
			{Name: "B", Kind: domain.DeviceRouter, Protocols: []domain.Protocol{}},
		},
		Edges: []*domain.Edge{{
			A: "A", B: "B",
			Links:        []domain.Link{domain.NewLink("A", "e0", "B", "e0")},
			CapacityKbps: 100000,
			MTUPairs:     []domain.MTUPair{{1500, 9000}},
		}},
		Issues:       []domain.Issue{domain.NewMTUMismatchIssue("A-B", 1500, 9000)},
		EdgeLoadKbps: domain.EdgeLoad{"A-B": 120000},
		LoadBalance: []domain.LoadRecommendation{
			{Link: "A-B", LoadKbps: 120000, CapacityKbps: 100000, Suggestion: domain.LoadAdvisory},
		},
		Recommendations: []string{
			"On link A-B, load=120000 kbps > cap=100000 kbps",
			"On link A-B, set both sides MTU to 1500 to resolve mismatch.",
		},
		Day1SimLog: domain.SimLog{
			"A": {{From: "B", Type: domain.MsgNeighborHello}, {From: "B", Type: domain.MsgNeighborAck}},
			"B": {{From: "A", Type: domain.MsgNeighborHello}},
		},
		DemandTrials: []domain.DemandTrial{{Src: "A", Dst: "B", Path: []string{"A", "B"}, DemandKbps: 40000}},
		Notes:        domain.SummaryNotes,
	}
}

func TestJSONExport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewJSONCodec().Export(sampleSummary(), &buf))

	var raw map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &raw))
	for _, key := range []string{"nodes", "edges", "issues", "edge_load_kbps", "recommendations", "day1_sim_log", "run_id", "notes"} {
		assert.Contains(t, raw, key)
	}

	edge := raw["edges"].([]any)[0].(map[string]any)
	assert.Equal(t, []any{[]any{1500.0, 9000.0}}, edge["mtus"])
	assert.Equal(t, 100000.0, edge["capacity_kbps"])

	issue := raw["issues"].([]any)[0].(map[string]any)
	assert.Equal(t, map[string]any{"type": "mtu_mismatch", "link": "A-B", "mtu_a": 1500.0, "mtu_b": 9000.0}, issue)

	decoded, err := NewJSONCodec().Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, sampleSummary(), decoded)
}

func TestJSONExportGraph(t *testing.T) {
	topo := domain.NewTopology()
	topo.AddNode(domain.Node{Name: "A", Kind: domain.DeviceRouter})
	topo.AddNode(domain.Node{Name: "B", Kind: domain.DeviceSwitch})
	topo.AddLink(domain.NewLink("A", "e0", "B", "e0"))

	var buf bytes.Buffer
	require.NoError(t, NewJSONCodec().ExportGraph(domain.DeriveGraph(topo), &buf))

	var graph domain.Graph
	require.NoError(t, json.Unmarshal(buf.Bytes(), &graph))
	assert.Len(t, graph.Nodes, 2)
	assert.Len(t, graph.Edges, 1)
}

func TestYAMLExport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewYAMLCodec().Export(sampleSummary(), &buf))

	out := buf.String()
	assert.Contains(t, out, "run_id: run-1")
	assert.Contains(t, out, "edge_load_kbps:")
	assert.Contains(t, out, "type: NEIGHBOR_HELLO")

	decoded, err := NewYAMLCodec().Decode(strings.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, sampleSummary().EdgeLoadKbps, decoded.EdgeLoadKbps)
	assert.Equal(t, sampleSummary().Issues, decoded.Issues)
	assert.Equal(t, sampleSummary().Day1SimLog, decoded.Day1SimLog)
}

func TestTextExport(t *testing.T) {
	t.Run("with findings", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, NewTextCodec().Export(sampleSummary(), &buf))

		out := buf.String()
		assert.Contains(t, out, "Nodes: 2, Links: 1")
		assert.Contains(t, out, "Issues found: 1")
		assert.Contains(t, out, "[mtu_mismatch] link A-B MTU 1500 vs 9000")
		assert.Contains(t, out, " - A-B load=120000 kbps > cap=100000 kbps")
		assert.Contains(t, out, " - A: 1 hello, 1 ack")
	})

	t.Run("without load issues", func(t *testing.T) {
		s := sampleSummary()
		s.LoadBalance = nil
		var buf bytes.Buffer
		require.NoError(t, NewTextCodec().Export(s, &buf))
		assert.Contains(t, buf.String(), "No load issues detected in sample demand.")
	})
}

func TestExporterFor(t *testing.T) {
	for _, format := range []string{"json", "YAML", "yml", "text"} {
		t.Run(format, func(t *testing.T) {
			e, err := ExporterFor(format)
			require.NoError(t, err)
			assert.NotEmpty(t, e.Format())
		})
	}

	_, err := ExporterFor("png")
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindExport))
}

const inventory = `all:
  vars:
    ansible_user: netops
    ansible_network_os: ios
  hosts:
    core1:
      ansible_host: 10.255.0.1
  children:
    access:
      vars:
        ansible_user: access-admin
      hosts:
        sw1:
          ansible_host: 10.255.1.1
          ansible_port: 2222
        sw2:
          ansible_password: secret
    edge:
      hosts:
        sw1:
          ansible_host: 10.9.9.9
`

func TestAnsibleParseInventory(t *testing.T) {
	devices, err := NewAnsibleCodec().ParseInventory(strings.NewReader(inventory))
	require.NoError(t, err)
	require.Len(t, devices, 3)

	assert.Equal(t, domain.InventoryDevice{
		Name: "core1", Address: "10.255.0.1", Port: 22, Username: "netops", Platform: "ios",
	}, devices[0])
	assert.Equal(t, domain.InventoryDevice{
		Name: "sw1", Address: "10.255.1.1", Port: 2222, Username: "access-admin", Platform: "ios",
	}, devices[1], "first group alphabetically wins")
	assert.Equal(t, "sw2", devices[2].Address, "host name is the fallback address")
	assert.Equal(t, "secret", devices[2].Password)

	_, err = NewAnsibleCodec().ParseInventory(strings.NewReader("all: [broken"))
	assert.True(t, domain.IsKind(err, domain.KindParse))
}
