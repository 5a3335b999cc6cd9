package topology

import (
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/iterator"
	"gonum.org/v1/gonum/graph/simple"

	"netaudit/internal/domain"
)

// Graph adapts a domain.Topology to gonum's graph.Undirected.
// Node IDs are the indexes of the sorted device names, and every iterator
// yields nodes in that order so gonum algorithms run deterministically.
type Graph struct {
	topo  *domain.Topology
	names []string
	ids   map[string]int64
}

var _ graph.Undirected = (*Graph)(nil)

// NewGraph snapshots the node set of topo into a gonum view
func NewGraph(topo *domain.Topology) *Graph {
	names := topo.NodeNames()
	ids := make(map[string]int64, len(names))
	for i, n := range names {
		ids[n] = int64(i)
	}
	return &Graph{topo: topo, names: names, ids: ids}
}

// ID returns the gonum ID of a device
func (g *Graph) ID(name string) (int64, bool) {
	id, ok := g.ids[name]
	return id, ok
}

// Name returns the device name of a gonum ID
func (g *Graph) Name(id int64) string {
	if id < 0 || id >= int64(len(g.names)) {
		return ""
	}
	return g.names[id]
}

// Names maps a gonum node sequence back to device names
func (g *Graph) Names(nodes []graph.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = g.Name(n.ID())
	}
	return out
}

func (g *Graph) Node(id int64) graph.Node {
	if id < 0 || id >= int64(len(g.names)) {
		return nil
	}
	return simple.Node(id)
}

func (g *Graph) Nodes() graph.Nodes {
	nodes := make([]graph.Node, len(g.names))
	for i := range g.names {
		nodes[i] = simple.Node(int64(i))
	}
	return iterator.NewOrderedNodes(nodes)
}

func (g *Graph) From(id int64) graph.Nodes {
	name := g.Name(id)
	if name == "" {
		return iterator.NewOrderedNodes(nil)
	}
	peers := g.topo.Neighbors(name)
	nodes := make([]graph.Node, 0, len(peers))
	for _, p := range peers {
		if pid, ok := g.ids[p]; ok {
			nodes = append(nodes, simple.Node(pid))
		}
	}
	return iterator.NewOrderedNodes(nodes)
}

func (g *Graph) HasEdgeBetween(xid, yid int64) bool {
	x, y := g.Name(xid), g.Name(yid)
	if x == "" || y == "" {
		return false
	}
	_, ok := g.topo.Edge(x, y)
	return ok
}

func (g *Graph) Edge(uid, vid int64) graph.Edge {
	if !g.HasEdgeBetween(uid, vid) {
		return nil
	}
	return simple.Edge{F: simple.Node(uid), T: simple.Node(vid)}
}

func (g *Graph) EdgeBetween(xid, yid int64) graph.Edge {
	return g.Edge(xid, yid)
}
