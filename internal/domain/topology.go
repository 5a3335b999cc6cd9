package domain

import (
	"slices"
	"sort"
)

// Node is one device in the topology
type Node struct {
	Name      string     `json:"name" yaml:"name"`
	Kind      DeviceKind `json:"device_type" yaml:"device_type"`
	Protocols []Protocol `json:"protocols" yaml:"protocols"`
	ASN       *int       `json:"asn,omitempty" yaml:"asn,omitempty"`
}

// NodeFromRecord derives the topology node attributes of a device
func NodeFromRecord(r ConfigRecord) Node {
	n := Node{
		Name:      r.Hostname,
		Kind:      r.Kind,
		Protocols: normalizeProtocols(r.Protocols),
	}
	if n.Kind == "" {
		n.Kind = DeviceRouter
	}
	if n.Protocols == nil {
		n.Protocols = []Protocol{}
	}
	if r.ASN != nil {
		asn := *r.ASN
		n.ASN = &asn
	}
	return n
}

// MTUPair is the (side A, side B) MTU of one link
type MTUPair [2]int

// Mismatched reports whether the two sides disagree
func (p MTUPair) Mismatched() bool {
	return p[0] != p[1]
}

// Edge aggregates every link discovered between two devices. A < B.
type Edge struct {
	A            string    `json:"a" yaml:"a"`
	B            string    `json:"b" yaml:"b"`
	Links        []Link    `json:"links" yaml:"links"`
	CapacityKbps int       `json:"capacity_kbps" yaml:"capacity_kbps"`
	MTUPairs     []MTUPair `json:"mtus" yaml:"mtus"`
}

// Key returns the canonical "A-B" label
func (e *Edge) Key() string {
	return EdgeKey(e.A, e.B)
}

// Pair returns the edge's device pair
func (e *Edge) Pair() DevicePair {
	return DevicePair{e.A, e.B}
}

// Topology is a simple undirected graph of devices. It is populated by the
// topology builder and treated as read-only by every analysis afterwards.
type Topology struct {
	nodes map[string]*Node
	edges map[DevicePair]*Edge
	adj   map[string]map[string]*Edge
}

// NewTopology creates an empty topology
func NewTopology() *Topology {
	return &Topology{
		nodes: make(map[string]*Node),
		edges: make(map[DevicePair]*Edge),
		adj:   make(map[string]map[string]*Edge),
	}
}

// AddNode inserts or replaces a device node
func (t *Topology) AddNode(n Node) {
	node := n
	t.nodes[n.Name] = &node
	if _, ok := t.adj[n.Name]; !ok {
		t.adj[n.Name] = make(map[string]*Edge)
	}
}

// AddLink adds a link, creating the edge on first use. It returns false when
// the link is a self-loop, touches an unknown device, or is already present.
func (t *Topology) AddLink(l Link) bool {
	l.Normalize()
	if l.IsSelfLoop() {
		return false
	}
	if _, ok := t.nodes[l.ADevice]; !ok {
		return false
	}
	if _, ok := t.nodes[l.BDevice]; !ok {
		return false
	}

	key := l.Pair()
	e, ok := t.edges[key]
	if !ok {
		e = &Edge{A: l.ADevice, B: l.BDevice}
		t.edges[key] = e
		t.adj[e.A][e.B] = e
		t.adj[e.B][e.A] = e
	}
	if slices.Contains(e.Links, l) {
		return false
	}
	e.Links = append(e.Links, l)
	sort.Slice(e.Links, func(i, j int) bool {
		return e.Links[i].String() < e.Links[j].String()
	})
	return true
}

// Node returns a device by name
func (t *Topology) Node(name string) (*Node, bool) {
	n, ok := t.nodes[name]
	return n, ok
}

// Nodes returns all devices sorted by name
func (t *Topology) Nodes() []*Node {
	out := make([]*Node, 0, len(t.nodes))
	for _, name := range t.NodeNames() {
		out = append(out, t.nodes[name])
	}
	return out
}

// NodeNames returns the sorted device names
func (t *Topology) NodeNames() []string {
	names := make([]string, 0, len(t.nodes))
	for name := range t.nodes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Edges returns all edges sorted by key, ties broken by device pair
func (t *Topology) Edges() []*Edge {
	out := make([]*Edge, 0, len(t.edges))
	for _, e := range t.edges {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		ki, kj := out[i].Key(), out[j].Key()
		if ki != kj {
			return ki < kj
		}
		return out[i].A < out[j].A
	})
	return out
}

// Edge returns the edge between two devices in either order
func (t *Topology) Edge(a, b string) (*Edge, bool) {
	e, ok := t.edges[NewDevicePair(a, b)]
	return e, ok
}

// Neighbors returns the sorted names adjacent to a device
func (t *Topology) Neighbors(name string) []string {
	peers := t.adj[name]
	out := make([]string, 0, len(peers))
	for p := range peers {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// NodeCount returns the number of devices
func (t *Topology) NodeCount() int {
	return len(t.nodes)
}

// EdgeCount returns the number of edges
func (t *Topology) EdgeCount() int {
	return len(t.edges)
}

// Subgraph returns a copy holding only the nodes accepted by keep and the
// edges whose endpoints are both kept. Edge attributes are shared.
func (t *Topology) Subgraph(keep func(*Node) bool) *Topology {
	sub := NewTopology()
	for _, n := range t.nodes {
		if keep(n) {
			sub.AddNode(*n)
		}
	}
	for key, e := range t.edges {
		if _, ok := sub.nodes[e.A]; !ok {
			continue
		}
		if _, ok := sub.nodes[e.B]; !ok {
			continue
		}
		sub.edges[key] = e
		sub.adj[e.A][e.B] = e
		sub.adj[e.B][e.A] = e
	}
	return sub
}

// IsRouter reports whether a node participates in routing simulations
func IsRouter(n *Node) bool {
	return n.Kind == DeviceRouter
}
