package domain

import (
	"net/netip"
	"slices"
	"strings"
)

// DeviceKind classifies a device for topology and simulation purposes
type DeviceKind string

const (
	DeviceRouter DeviceKind = "router"
	DeviceSwitch DeviceKind = "switch"
)

// Protocol is a routing protocol marker found in a device configuration
type Protocol string

const (
	ProtocolOSPF Protocol = "OSPF"
	ProtocolBGP  Protocol = "BGP"
)

// Interface defaults applied when a configuration does not state them
const (
	DefaultMTU           = 1500
	DefaultBandwidthKbps = 100000
)

// NeighborHint names the peer an interface claims to be cabled to
type NeighborHint struct {
	Device    string `json:"device" yaml:"device"`
	Interface string `json:"interface" yaml:"interface"`
}

// InterfaceSpec is one interface block of a device configuration
type InterfaceSpec struct {
	Name          string        `json:"name" yaml:"name"`
	IP            string        `json:"ip,omitempty" yaml:"ip,omitempty"`
	Mask          string        `json:"mask,omitempty" yaml:"mask,omitempty"`
	VLAN          int           `json:"vlan,omitempty" yaml:"vlan,omitempty"` // 0 = untagged / no access VLAN
	MTU           int           `json:"mtu" yaml:"mtu,omitempty"`
	BandwidthKbps int           `json:"bw" yaml:"bw,omitempty"`
	ConnectsTo    *NeighborHint `json:"connects_to,omitempty" yaml:"connects_to,omitempty"`
}

// StaticRoute is an "ip route" statement
type StaticRoute struct {
	Destination string `json:"dst" yaml:"dst"`
	Mask        string `json:"mask" yaml:"mask"`
	NextHop     string `json:"nh" yaml:"nh"`
}

// ConfigRecord is the structured view of one device configuration.
// Records are produced by the loader and never mutated afterwards.
type ConfigRecord struct {
	Hostname       string          `json:"hostname" yaml:"hostname"`
	Kind           DeviceKind      `json:"device_type" yaml:"device_type"`
	Interfaces     []InterfaceSpec `json:"interfaces" yaml:"interfaces"`
	VLANs          map[int]string  `json:"vlans,omitempty" yaml:"vlans,omitempty"`
	Protocols      []Protocol      `json:"protocols,omitempty" yaml:"protocols,omitempty"`
	ASN            *int            `json:"asn,omitempty" yaml:"asn,omitempty"`
	DefaultGateway string          `json:"default_gateway,omitempty" yaml:"default_gateway,omitempty"`
	Routes         []StaticRoute   `json:"routes,omitempty" yaml:"routes,omitempty"`
}

// NewConfigRecord creates a router record with initialized collections
func NewConfigRecord(hostname string) *ConfigRecord {
	return &ConfigRecord{
		Hostname:   hostname,
		Kind:       DeviceRouter,
		Interfaces: make([]InterfaceSpec, 0),
		VLANs:      make(map[int]string),
	}
}

// ApplyDefaults fills in interface MTU/bandwidth and the device kind
func (r *ConfigRecord) ApplyDefaults() {
	if r.Kind == "" {
		r.Kind = DeviceRouter
	}
	if r.VLANs == nil {
		r.VLANs = make(map[int]string)
	}
	for i := range r.Interfaces {
		if r.Interfaces[i].MTU == 0 {
			r.Interfaces[i].MTU = DefaultMTU
		}
		if r.Interfaces[i].BandwidthKbps == 0 {
			r.Interfaces[i].BandwidthKbps = DefaultBandwidthKbps
		}
	}
	r.Protocols = normalizeProtocols(r.Protocols)
}

// AddProtocol records a protocol marker, keeping the set sorted and unique
func (r *ConfigRecord) AddProtocol(p Protocol) {
	r.Protocols = normalizeProtocols(append(r.Protocols, p))
}

// HasProtocol reports whether the marker is present
func (r *ConfigRecord) HasProtocol(p Protocol) bool {
	return slices.Contains(r.Protocols, p)
}

// Interface returns the first interface with the given name
func (r *ConfigRecord) Interface(name string) (*InterfaceSpec, bool) {
	for i := range r.Interfaces {
		if r.Interfaces[i].Name == name {
			return &r.Interfaces[i], true
		}
	}
	return nil, false
}

// HasVLAN reports whether the VLAN id is defined globally on the device
func (r *ConfigRecord) HasVLAN(id int) bool {
	_, ok := r.VLANs[id]
	return ok
}

func normalizeProtocols(ps []Protocol) []Protocol {
	if len(ps) == 0 {
		return nil
	}
	out := slices.Clone(ps)
	slices.Sort(out)
	return slices.Compact(out)
}

// Prefix24 returns the first three octets of an IPv4 address ("10.0.0").
// The second result is false when the address is not a valid IPv4 address.
func Prefix24(ip string) (string, bool) {
	addr, err := netip.ParseAddr(strings.TrimSpace(ip))
	if err != nil || !addr.Is4() {
		return "", false
	}
	prefix, err := addr.Prefix(24)
	if err != nil {
		return "", false
	}
	s := prefix.Addr().String()
	return s[:strings.LastIndexByte(s, '.')], true
}
