package domain

import "fmt"

// Link is one physical or logical connection between two named interfaces
type Link struct {
	ADevice    string `json:"a_device" yaml:"a_device"`
	AInterface string `json:"a_interface" yaml:"a_interface"`
	BDevice    string `json:"b_device" yaml:"b_device"`
	BInterface string `json:"b_interface" yaml:"b_interface"`
}

// NewLink creates a normalized link between two device interfaces
func NewLink(aDevice, aInterface, bDevice, bInterface string) Link {
	l := Link{
		ADevice:    aDevice,
		AInterface: aInterface,
		BDevice:    bDevice,
		BInterface: bInterface,
	}
	l.Normalize()
	return l
}

// Normalize orders the link so the lexicographically smaller device is side A.
// A hint declared from both ends therefore yields the same link.
func (l *Link) Normalize() {
	if l.ADevice > l.BDevice || (l.ADevice == l.BDevice && l.AInterface > l.BInterface) {
		l.ADevice, l.BDevice = l.BDevice, l.ADevice
		l.AInterface, l.BInterface = l.BInterface, l.AInterface
	}
}

// IsSelfLoop reports whether both sides sit on the same device
func (l Link) IsSelfLoop() bool {
	return l.ADevice == l.BDevice
}

// Pair returns the device pair of the edge this link belongs to
func (l Link) Pair() DevicePair {
	return NewDevicePair(l.ADevice, l.BDevice)
}

// String renders the link as "A:ifA-B:ifB"
func (l Link) String() string {
	return fmt.Sprintf("%s:%s-%s:%s", l.ADevice, l.AInterface, l.BDevice, l.BInterface)
}

// DevicePair identifies an undirected edge by its two devices, smaller first.
// Topology and the simulations key their maps by pair; the "A-B" string only
// appears in output.
type DevicePair [2]string

// NewDevicePair orders a and b
func NewDevicePair(a, b string) DevicePair {
	if a > b {
		a, b = b, a
	}
	return DevicePair{a, b}
}

// Key renders the pair as "A-B"
func (p DevicePair) Key() string {
	return p[0] + "-" + p[1]
}

// EdgeKey canonicalizes an undirected device pair as "A-B" with A < B.
// Hyphenated names can collide ("a-b" with "c" and "a" with "b-c" both give
// "a-b-c"), so the key is an output label, never a map identity.
func EdgeKey(a, b string) string {
	return NewDevicePair(a, b).Key()
}
