// Package detect runs the structural validation rules over a topology and
// the records it was built from.
package detect

import (
	"slices"
	"sort"

	"github.com/samber/lo"
	"gonum.org/v1/gonum/graph/topo"

	"netaudit/internal/core/topology"
	"netaudit/internal/domain"
)

// Rule produces zero or more findings
type Rule struct {
	Name  string
	Check func(records map[string]domain.ConfigRecord, t *domain.Topology) []domain.Issue
}

// Rules returns the rule set in execution order
func Rules() []Rule {
	return []Rule{
		{Name: string(domain.IssueDuplicateIP), Check: duplicateIPs},
		{Name: string(domain.IssueWrongVLANLabel), Check: wrongVLANs},
		{Name: string(domain.IssueGatewayMismatch), Check: gatewayMismatches},
		{Name: string(domain.IssueMTUMismatch), Check: mtuMismatches},
		{Name: string(domain.IssueNetworkLoops), Check: networkLoops},
		{Name: string(domain.IssueBGPRecommended), Check: multipleASNs},
	}
}

// Detect runs every rule and concatenates the findings in rule order
func Detect(records map[string]domain.ConfigRecord, t *domain.Topology) []domain.Issue {
	issues := make([]domain.Issue, 0)
	for _, r := range Rules() {
		issues = append(issues, r.Check(records, t)...)
	}
	return issues
}

func sortedDevices(records map[string]domain.ConfigRecord) []string {
	names := lo.Keys(records)
	sort.Strings(names)
	return names
}

// duplicateIPs reports addresses configured on two or more distinct devices,
// regardless of VLAN context
func duplicateIPs(records map[string]domain.ConfigRecord, _ *domain.Topology) []domain.Issue {
	var order []string
	owners := make(map[string][]string)
	for _, name := range sortedDevices(records) {
		for _, iface := range records[name].Interfaces {
			if iface.IP == "" {
				continue
			}
			if _, seen := owners[iface.IP]; !seen {
				order = append(order, iface.IP)
			}
			owners[iface.IP] = append(owners[iface.IP], name)
		}
	}

	var issues []domain.Issue
	for _, ip := range order {
		devices := lo.Uniq(owners[ip])
		if len(devices) < 2 {
			continue
		}
		sort.Strings(devices)
		issues = append(issues, domain.NewDuplicateIPIssue(ip, devices))
	}
	return issues
}

// wrongVLANs reports switch interfaces referencing an undefined VLAN
func wrongVLANs(records map[string]domain.ConfigRecord, _ *domain.Topology) []domain.Issue {
	var issues []domain.Issue
	for _, name := range sortedDevices(records) {
		rec := records[name]
		if rec.Kind != domain.DeviceSwitch {
			continue
		}
		for _, iface := range rec.Interfaces {
			if iface.VLAN != 0 && !rec.HasVLAN(iface.VLAN) {
				issues = append(issues, domain.NewWrongVLANIssue(name, iface.Name, iface.VLAN))
			}
		}
	}
	return issues
}

// gatewayMismatches reports devices whose default gateway is not on any
// local /24
func gatewayMismatches(records map[string]domain.ConfigRecord, _ *domain.Topology) []domain.Issue {
	var issues []domain.Issue
	for _, name := range sortedDevices(records) {
		rec := records[name]
		if rec.DefaultGateway == "" {
			continue
		}
		gw, ok := domain.Prefix24(rec.DefaultGateway)
		local := ok && lo.ContainsBy(rec.Interfaces, func(i domain.InterfaceSpec) bool {
			p, ok := domain.Prefix24(i.IP)
			return ok && p == gw
		})
		if !local {
			issues = append(issues, domain.NewGatewayMismatchIssue(name, rec.DefaultGateway))
		}
	}
	return issues
}

// mtuMismatches reports one finding per link whose sides disagree
func mtuMismatches(_ map[string]domain.ConfigRecord, t *domain.Topology) []domain.Issue {
	var issues []domain.Issue
	for _, e := range t.Edges() {
		for _, p := range e.MTUPairs {
			if p.Mismatched() {
				issues = append(issues, domain.NewMTUMismatchIssue(e.Key(), p[0], p[1]))
			}
		}
	}
	return issues
}

// networkLoops reports the cycle basis of the topology when it is non-empty
func networkLoops(_ map[string]domain.ConfigRecord, t *domain.Topology) []domain.Issue {
	cycles := CycleBasis(t)
	if len(cycles) == 0 {
		return nil
	}
	return []domain.Issue{domain.NewNetworkLoopsIssue(cycles)}
}

// multipleASNs advises BGP when more than one ASN is configured
func multipleASNs(records map[string]domain.ConfigRecord, _ *domain.Topology) []domain.Issue {
	asns := make(map[int]struct{})
	for _, rec := range records {
		if rec.ASN != nil {
			asns[*rec.ASN] = struct{}{}
		}
	}
	if len(asns) > 1 {
		return []domain.Issue{domain.NewBGPRecommendedIssue()}
	}
	return nil
}

// CycleBasis returns a cycle basis of the topology. Each cycle starts at its
// smallest device name and the cycles are sorted.
func CycleBasis(t *domain.Topology) [][]string {
	g := topology.NewGraph(t)
	raw := topo.UndirectedCyclesIn(g)

	cycles := make([][]string, 0, len(raw))
	for _, c := range raw {
		names := g.Names(c)
		if len(names) > 1 && names[0] == names[len(names)-1] {
			names = names[:len(names)-1]
		}
		if len(names) < 3 {
			continue
		}
		cycles = append(cycles, canonicalCycle(names))
	}
	slices.SortFunc(cycles, func(a, b []string) int {
		return slices.Compare(a, b)
	})
	return cycles
}

// canonicalCycle rotates a cycle to begin at its smallest name and walks it
// toward the smaller of the two neighbors of that name
func canonicalCycle(c []string) []string {
	start := 0
	for i := range c {
		if c[i] < c[start] {
			start = i
		}
	}
	out := make([]string, 0, len(c))
	for i := range c {
		out = append(out, c[(start+i)%len(c)])
	}
	if len(out) > 2 && out[len(out)-1] < out[1] {
		slices.Reverse(out[1:])
	}
	return out
}
