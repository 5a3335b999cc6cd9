package domain

import (
	"fmt"
	"strings"
)

// IssueType tags the variant of an Issue
type IssueType string

const (
	IssueDuplicateIP     IssueType = "duplicate_ip"
	IssueWrongVLANLabel  IssueType = "wrong_vlan_label"
	IssueGatewayMismatch IssueType = "gateway_mismatch"
	IssueMTUMismatch     IssueType = "mtu_mismatch"
	IssueNetworkLoops    IssueType = "network_loops"
	IssueBGPRecommended  IssueType = "bgp_recommended"
)

// AllIssueTypes lists every issue type in detection order
var AllIssueTypes = []IssueType{
	IssueDuplicateIP,
	IssueWrongVLANLabel,
	IssueGatewayMismatch,
	IssueMTUMismatch,
	IssueNetworkLoops,
	IssueBGPRecommended,
}

// ReasonMultipleASN is the advisory carried by bgp_recommended
const ReasonMultipleASN = "Multiple autonomous systems detected"

// Issue is a structural finding. Only the fields of its Type are set.
type Issue struct {
	Type      IssueType  `json:"type" yaml:"type"`
	IP        string     `json:"ip,omitempty" yaml:"ip,omitempty"`
	Where     []string   `json:"where,omitempty" yaml:"where,omitempty"`
	Node      string     `json:"node,omitempty" yaml:"node,omitempty"`
	Interface string     `json:"interface,omitempty" yaml:"interface,omitempty"`
	VLAN      int        `json:"vlan,omitempty" yaml:"vlan,omitempty"`
	Gateway   string     `json:"gateway,omitempty" yaml:"gateway,omitempty"`
	Link      string     `json:"link,omitempty" yaml:"link,omitempty"`
	MTUA      int        `json:"mtu_a,omitempty" yaml:"mtu_a,omitempty"`
	MTUB      int        `json:"mtu_b,omitempty" yaml:"mtu_b,omitempty"`
	Cycles    [][]string `json:"cycles,omitempty" yaml:"cycles,omitempty"`
	Reason    string     `json:"reason,omitempty" yaml:"reason,omitempty"`
}

func NewDuplicateIPIssue(ip string, devices []string) Issue {
	return Issue{Type: IssueDuplicateIP, IP: ip, Where: devices}
}

func NewWrongVLANIssue(node, iface string, vlan int) Issue {
	return Issue{Type: IssueWrongVLANLabel, Node: node, Interface: iface, VLAN: vlan}
}

func NewGatewayMismatchIssue(node, gateway string) Issue {
	return Issue{Type: IssueGatewayMismatch, Node: node, Gateway: gateway}
}

func NewMTUMismatchIssue(link string, mtuA, mtuB int) Issue {
	return Issue{Type: IssueMTUMismatch, Link: link, MTUA: mtuA, MTUB: mtuB}
}

func NewNetworkLoopsIssue(cycles [][]string) Issue {
	return Issue{Type: IssueNetworkLoops, Cycles: cycles}
}

func NewBGPRecommendedIssue() Issue {
	return Issue{Type: IssueBGPRecommended, Reason: ReasonMultipleASN}
}

// Describe renders a one-line human readable form of the finding
func (i Issue) Describe() string {
	switch i.Type {
	case IssueDuplicateIP:
		return fmt.Sprintf("duplicate IP %s on %s", i.IP, strings.Join(i.Where, ", "))
	case IssueWrongVLANLabel:
		return fmt.Sprintf("%s %s uses VLAN %d which is not defined", i.Node, i.Interface, i.VLAN)
	case IssueGatewayMismatch:
		return fmt.Sprintf("%s default gateway %s is not on any local /24", i.Node, i.Gateway)
	case IssueMTUMismatch:
		return fmt.Sprintf("link %s MTU %d vs %d", i.Link, i.MTUA, i.MTUB)
	case IssueNetworkLoops:
		cycles := make([]string, len(i.Cycles))
		for n, c := range i.Cycles {
			cycles[n] = strings.Join(c, "->")
		}
		return fmt.Sprintf("%d loop(s): %s", len(i.Cycles), strings.Join(cycles, "; "))
	case IssueBGPRecommended:
		return i.Reason
	}
	return string(i.Type)
}

// MTUFix returns the recommendation for an mtu_mismatch issue.
// The fix value is the smaller of the two MTUs.
func (i Issue) MTUFix() (string, bool) {
	if i.Type != IssueMTUMismatch {
		return "", false
	}
	return fmt.Sprintf("On link %s, set both sides MTU to %d to resolve mismatch.", i.Link, min(i.MTUA, i.MTUB)), true
}
