// Package domain defines the core types of the netaudit configuration analyzer.
//
// # Core Types
//
// ConfigRecord is the structured view of one device's running configuration:
// interfaces, VLAN labels, routing protocol markers, ASN, default gateway and
// static routes. Records come from the loader and are never mutated afterwards.
//
// Topology is a simple undirected graph of devices. Each Edge aggregates the
// Links discovered between two devices, normalized so the lexicographically
// smaller device is side A, together with derived capacity and MTU pairs.
//
// Issue is a tagged finding produced by the detector. Summary is the result of
// one analysis pass as consumed by exporters and the HTTP view.
//
// # Design Principles
//
// - No database or transport dependencies
// - Deterministic iteration order everywhere output is produced
// - Typed error kinds (see Kind) rather than sentinel strings
package domain
