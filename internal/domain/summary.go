package domain

import (
	"fmt"
	"time"
)

// MessageType is a discovery protocol message kind
type MessageType string

const (
	MsgNeighborHello MessageType = "NEIGHBOR_HELLO"
	MsgNeighborAck   MessageType = "NEIGHBOR_ACK"
)

// SimEvent is one (sender, kind) observation in a router's discovery log
type SimEvent struct {
	From string      `json:"from" yaml:"from"`
	Type MessageType `json:"type" yaml:"type"`
}

// SimLog maps router name to the ordered events it received
type SimLog map[string][]SimEvent

// EdgeLoad maps the canonical "A-B" edge key to accumulated demand in kbps.
// It is the exported form of PairLoad; edges whose keys collide share a bucket.
type EdgeLoad map[string]int

// PairLoad is accumulated demand in kbps per edge device pair
type PairLoad map[DevicePair]int

// EdgeLoad renders the loads under their "A-B" keys
func (p PairLoad) EdgeLoad() EdgeLoad {
	out := make(EdgeLoad, len(p))
	for pair, load := range p {
		out[pair.Key()] += load
	}
	return out
}

// LoadAdvisory is the fixed suggestion attached to every overloaded link
const LoadAdvisory = "Activate secondary path / move lower-priority traffic to backup (e.g., via alternate router)."

// LoadRecommendation flags an edge whose demand exceeds its capacity
type LoadRecommendation struct {
	Link         string `json:"link" yaml:"link"`
	LoadKbps     int    `json:"load_kbps" yaml:"load_kbps"`
	CapacityKbps int    `json:"capacity_kbps" yaml:"capacity_kbps"`
	Suggestion   string `json:"suggestion" yaml:"suggestion"`
}

// String renders the recommendation for the summary's string list
func (r LoadRecommendation) String() string {
	return fmt.Sprintf("On link %s, load=%d kbps > cap=%d kbps", r.Link, r.LoadKbps, r.CapacityKbps)
}

// DemandTrial records one Monte-Carlo demand draw
type DemandTrial struct {
	Src        string   `json:"src" yaml:"src"`
	Dst        string   `json:"dst" yaml:"dst"`
	Path       []string `json:"path,omitempty" yaml:"path,omitempty"`
	DemandKbps int      `json:"demand_kbps,omitempty" yaml:"demand_kbps,omitempty"`
	Skipped    bool     `json:"skipped,omitempty" yaml:"skipped,omitempty"`
}

// SummaryNotes is attached to every summary
const SummaryNotes = "Offline educational analysis: demand is synthetic and discovery is simulated."

// Summary is the complete result of one analysis pass
type Summary struct {
	RunID           string               `json:"run_id" yaml:"run_id"`
	GeneratedAt     time.Time            `json:"generated_at" yaml:"generated_at"`
	Nodes           []*Node              `json:"nodes" yaml:"nodes"`
	Edges           []*Edge              `json:"edges" yaml:"edges"`
	Issues          []Issue              `json:"issues" yaml:"issues"`
	EdgeLoadKbps    EdgeLoad             `json:"edge_load_kbps" yaml:"edge_load_kbps"`
	LoadBalance     []LoadRecommendation `json:"load_balance" yaml:"load_balance"`
	Recommendations []string             `json:"recommendations" yaml:"recommendations"`
	Day1SimLog      SimLog               `json:"day1_sim_log" yaml:"day1_sim_log"`
	DemandTrials    []DemandTrial        `json:"demand_trials" yaml:"demand_trials"`
	Notes           string               `json:"notes" yaml:"notes"`
}

// IssuesOfType filters the summary's issues by type
func (s *Summary) IssuesOfType(t IssueType) []Issue {
	var out []Issue
	for _, i := range s.Issues {
		if i.Type == t {
			out = append(out, i)
		}
	}
	return out
}

// Topology rebuilds the annotated topology the summary was produced from
func (s *Summary) Topology() *Topology {
	t := NewTopology()
	for _, n := range s.Nodes {
		t.AddNode(*n)
	}
	for _, e := range s.Edges {
		for _, l := range e.Links {
			t.AddLink(l)
		}
		if edge, ok := t.Edge(e.A, e.B); ok {
			edge.CapacityKbps = e.CapacityKbps
			edge.MTUPairs = append([]MTUPair(nil), e.MTUPairs...)
		}
	}
	return t
}
