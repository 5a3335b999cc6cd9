package domain

import (
	"fmt"
	"strings"
)

// Graph is the derived view for vis-network visualization
type Graph struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

// GraphNode represents a device in the visualization
type GraphNode struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Group string `json:"group"` // "router" or "switch"
	Title string `json:"title"` // Tooltip content
}

// GraphEdge represents an aggregated edge in the visualization
type GraphEdge struct {
	ID           string `json:"id"`
	From         string `json:"from"`
	To           string `json:"to"`
	Label        string `json:"label"` // "100Mbps", "1Gbps", etc.
	CapacityKbps int    `json:"capacity_kbps"`
	Links        int    `json:"links"`
	Mismatch     bool   `json:"mtu_mismatch,omitempty"`
}

// DeriveGraph converts a Topology to a vis-network compatible Graph
func DeriveGraph(topo *Topology) *Graph {
	graph := &Graph{
		Nodes: make([]GraphNode, 0, topo.NodeCount()),
		Edges: make([]GraphEdge, 0, topo.EdgeCount()),
	}

	for _, n := range topo.Nodes() {
		graph.Nodes = append(graph.Nodes, GraphNode{
			ID:    n.Name,
			Label: n.Name,
			Group: string(n.Kind),
			Title: buildTooltip(n),
		})
	}

	for _, e := range topo.Edges() {
		mismatch := false
		for _, p := range e.MTUPairs {
			if p.Mismatched() {
				mismatch = true
				break
			}
		}
		graph.Edges = append(graph.Edges, GraphEdge{
			ID:           e.Key(),
			From:         e.A,
			To:           e.B,
			Label:        speedLabel(e.CapacityKbps),
			CapacityKbps: e.CapacityKbps,
			Links:        len(e.Links),
			Mismatch:     mismatch,
		})
	}

	return graph
}

func buildTooltip(n *Node) string {
	tooltip := fmt.Sprintf("%s\n%s", n.Name, n.Kind)
	if len(n.Protocols) > 0 {
		ps := make([]string, len(n.Protocols))
		for i, p := range n.Protocols {
			ps[i] = string(p)
		}
		tooltip += "\n" + strings.Join(ps, ",")
	}
	if n.ASN != nil {
		tooltip += fmt.Sprintf("\nAS%d", *n.ASN)
	}
	return tooltip
}

func speedLabel(kbps int) string {
	if kbps == 0 {
		kbps = DefaultBandwidthKbps
	}
	if kbps >= 1000000 && kbps%1000000 == 0 {
		return fmt.Sprintf("%dGbps", kbps/1000000)
	}
	if kbps >= 1000 {
		return fmt.Sprintf("%dMbps", kbps/1000)
	}
	return fmt.Sprintf("%dKbps", kbps)
}
