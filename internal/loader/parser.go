package loader

import (
	"embed"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/netxops/gotextfsm"

	"netaudit/internal/domain"
)

//go:embed templates/*.textfsm
var templateFS embed.FS

var (
	templatesOnce sync.Once
	templates     map[string]string
	templatesErr  error
)

func loadTemplate(name string) (string, error) {
	templatesOnce.Do(func() {
		templates = make(map[string]string)
		entries, err := templateFS.ReadDir("templates")
		if err != nil {
			templatesErr = err
			return
		}
		for _, e := range entries {
			data, err := templateFS.ReadFile("templates/" + e.Name())
			if err != nil {
				templatesErr = err
				return
			}
			templates[strings.TrimSuffix(e.Name(), ".textfsm")] = string(data)
		}
	})
	if templatesErr != nil {
		return "", templatesErr
	}
	tpl, ok := templates[name]
	if !ok {
		return "", fmt.Errorf("template %q: %w", name, domain.ErrNotFound)
	}
	return tpl, nil
}

// parseWith runs a named TextFSM template over text and returns its records
func parseWith(name, text string) ([]map[string]interface{}, error) {
	tpl, err := loadTemplate(name)
	if err != nil {
		return nil, err
	}

	fsm := gotextfsm.TextFSM{}
	if err := fsm.ParseString(tpl); err != nil {
		return nil, fmt.Errorf("failed to parse %s template: %w", name, err)
	}

	parser := gotextfsm.ParserOutput{}
	if err := parser.ParseTextString(text, fsm, true); err != nil {
		return nil, fmt.Errorf("failed to parse configuration with %s template: %w", name, err)
	}
	return parser.Dict, nil
}

// Parse extracts a ConfigRecord from Cisco-style running configuration.
// node is the device directory name and doubles as the hostname fallback.
func Parse(node, text string) (domain.ConfigRecord, error) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	rec := domain.NewConfigRecord(node)

	facts, err := parseWith("device", text)
	if err != nil {
		return domain.ConfigRecord{}, domain.NewError(domain.KindParse, node, err)
	}
	if len(facts) > 0 {
		f := facts[0]
		if h := getString(f, "HOSTNAME"); h != "" {
			rec.Hostname = h
		}
		if len(getStrings(f, "SWITCHING")) > 0 {
			rec.Kind = domain.DeviceSwitch
		}
		rec.DefaultGateway = getString(f, "GATEWAY")
		if asn, ok := getInt(f, "ASN"); ok {
			rec.ASN = &asn
			rec.AddProtocol(domain.ProtocolBGP)
		}
		if getString(f, "OSPF") != "" {
			rec.AddProtocol(domain.ProtocolOSPF)
		}
	}

	ifaces, err := parseWith("interfaces", text)
	if err != nil {
		return domain.ConfigRecord{}, domain.NewError(domain.KindParse, node, err)
	}
	for _, r := range ifaces {
		iface := domain.InterfaceSpec{
			Name: getString(r, "NAME"),
			IP:   getString(r, "IP"),
			Mask: getString(r, "MASK"),
		}
		iface.VLAN, _ = getInt(r, "VLAN")
		iface.MTU, _ = getInt(r, "MTU")
		iface.BandwidthKbps, _ = getInt(r, "BANDWIDTH")
		if peer := getString(r, "PEER"); peer != "" {
			iface.ConnectsTo = &domain.NeighborHint{Device: peer, Interface: getString(r, "PEER_IF")}
		}
		rec.Interfaces = append(rec.Interfaces, iface)
	}

	vlans, err := parseWith("vlans", text)
	if err != nil {
		return domain.ConfigRecord{}, domain.NewError(domain.KindParse, node, err)
	}
	for _, r := range vlans {
		if id, ok := getInt(r, "ID"); ok {
			rec.VLANs[id] = getString(r, "NAME")
		}
	}

	routes, err := parseWith("routes", text)
	if err != nil {
		return domain.ConfigRecord{}, domain.NewError(domain.KindParse, node, err)
	}
	for _, r := range routes {
		rec.Routes = append(rec.Routes, domain.StaticRoute{
			Destination: getString(r, "DESTINATION"),
			Mask:        getString(r, "MASK"),
			NextHop:     getString(r, "NEXTHOP"),
		})
	}

	rec.ApplyDefaults()
	return *rec, nil
}

func getString(record map[string]interface{}, key string) string {
	switch v := record[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case []string:
		if len(v) > 0 {
			return strings.TrimSpace(v[0])
		}
	case []interface{}:
		if len(v) > 0 {
			if s, ok := v[0].(string); ok {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}

func getStrings(record map[string]interface{}, key string) []string {
	switch v := record[key].(type) {
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func getInt(record map[string]interface{}, key string) (int, bool) {
	s := getString(record, key)
	if s == "" {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}
