package loader

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"netaudit/internal/domain"
)

// RecordsYAML represents a pre-parsed records file
type RecordsYAML struct {
	Version string                 `yaml:"version"`
	Devices map[string]*DeviceYAML `yaml:"devices"`
}

// DeviceYAML represents one device in YAML format
type DeviceYAML struct {
	Hostname       string               `yaml:"hostname,omitempty"`
	Type           string               `yaml:"type,omitempty"`
	ASN            *int                 `yaml:"asn,omitempty"`
	Protocols      []string             `yaml:"protocols,omitempty"`
	DefaultGateway string               `yaml:"default_gateway,omitempty"`
	VLANs          map[int]string       `yaml:"vlans,omitempty"`
	Interfaces     []InterfaceYAML      `yaml:"interfaces"`
	Routes         []domain.StaticRoute `yaml:"routes,omitempty"`
}

// InterfaceYAML represents an interface. ConnectsTo uses "device:interface".
type InterfaceYAML struct {
	Name       string `yaml:"name"`
	IP         string `yaml:"ip,omitempty"`
	Mask       string `yaml:"mask,omitempty"`
	VLAN       int    `yaml:"vlan,omitempty"`
	MTU        int    `yaml:"mtu,omitempty"`
	Bandwidth  int    `yaml:"bw,omitempty"`
	ConnectsTo string `yaml:"connects_to,omitempty"`
}

// LoadRecordsYAML loads config records from a YAML file
func LoadRecordsYAML(path string) (map[string]domain.ConfigRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.NewError(domain.KindConfigRoot, "LoadRecordsYAML", fmt.Errorf("failed to read file: %w", err))
	}

	return ParseRecordsYAML(data)
}

// ParseRecordsYAML parses config records from YAML bytes
func ParseRecordsYAML(data []byte) (map[string]domain.ConfigRecord, error) {
	var y RecordsYAML
	if err := yaml.Unmarshal(data, &y); err != nil {
		return nil, domain.NewError(domain.KindParse, "ParseRecordsYAML", fmt.Errorf("failed to parse YAML: %w", err))
	}

	records := make(map[string]domain.ConfigRecord, len(y.Devices))
	for name, d := range y.Devices {
		if d == nil {
			d = &DeviceYAML{}
		}
		rec, err := convertDevice(name, d)
		if err != nil {
			return nil, domain.NewError(domain.KindParse, name, err)
		}
		records[name] = rec
	}
	return records, nil
}

func convertDevice(name string, d *DeviceYAML) (domain.ConfigRecord, error) {
	rec := domain.NewConfigRecord(name)
	if d.Hostname != "" {
		rec.Hostname = d.Hostname
	}

	switch strings.ToLower(d.Type) {
	case "", string(domain.DeviceRouter):
		rec.Kind = domain.DeviceRouter
	case string(domain.DeviceSwitch):
		rec.Kind = domain.DeviceSwitch
	default:
		return domain.ConfigRecord{}, fmt.Errorf("unknown device type %q", d.Type)
	}

	for _, p := range d.Protocols {
		rec.AddProtocol(domain.Protocol(strings.ToUpper(p)))
	}
	if d.ASN != nil {
		asn := *d.ASN
		rec.ASN = &asn
		rec.AddProtocol(domain.ProtocolBGP)
	}
	rec.DefaultGateway = d.DefaultGateway
	for id, label := range d.VLANs {
		rec.VLANs[id] = label
	}
	rec.Routes = append(rec.Routes, d.Routes...)

	for _, i := range d.Interfaces {
		iface := domain.InterfaceSpec{
			Name:          i.Name,
			IP:            i.IP,
			Mask:          i.Mask,
			VLAN:          i.VLAN,
			MTU:           i.MTU,
			BandwidthKbps: i.Bandwidth,
		}
		if i.ConnectsTo != "" {
			// Parse "device:interface" format
			parts := strings.SplitN(i.ConnectsTo, ":", 2)
			if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
				return domain.ConfigRecord{}, fmt.Errorf("interface %s: connects_to %q is not device:interface", i.Name, i.ConnectsTo)
			}
			iface.ConnectsTo = &domain.NeighborHint{Device: parts[0], Interface: parts[1]}
		}
		rec.Interfaces = append(rec.Interfaces, iface)
	}

	rec.ApplyDefaults()
	return *rec, nil
}
