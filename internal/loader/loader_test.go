package loader

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"netaudit/internal/domain"
)

const routerConfig = `hostname R1
!
interface GigabitEthernet0/0
 description link to R2:Gi0/0
 ip address 10.0.12.1 255.255.255.0
 mtu 9000
 bandwidth 1000000
!
interface GigabitEthernet0/1
 ip address 10.0.13.1 255.255.255.0
 ip mtu 1400
!
interface Loopback0
 ip address 1.1.1.1 255.255.255.255
!
router ospf 1
 network 10.0.0.0 0.255.255.255 area 0
!
router bgp 65001
 neighbor 10.0.12.2 remote-as 65002
!
ip route 0.0.0.0 0.0.0.0 10.0.12.2
ip route 192.168.0.0 255.255.0.0 10.0.13.3
ip default-gateway 10.0.12.254
`

const switchConfig = `hostname SW1
!
vlan 10
 name USERS
!
vlan 20 name VOICE
!
interface FastEthernet0/1
 switchport access vlan 10
 switchport mode access
!
interface FastEthernet0/2
 description uplink to R1:Gi0/2
 switchport access vlan 30
!
spanning-tree mode rapid-pvst
`

func TestParseRouter(t *testing.T) {
	rec, err := Parse("R1-dir", routerConfig)
	require.NoError(t, err)

	assert.Equal(t, "R1", rec.Hostname)
	assert.Equal(t, domain.DeviceRouter, rec.Kind)
	assert.Equal(t, []domain.Protocol{domain.ProtocolBGP, domain.ProtocolOSPF}, rec.Protocols)
	require.NotNil(t, rec.ASN)
	assert.Equal(t, 65001, *rec.ASN)
	assert.Equal(t, "10.0.12.254", rec.DefaultGateway)

	require.Len(t, rec.Interfaces, 3)
	gi0 := rec.Interfaces[0]
	assert.Equal(t, "GigabitEthernet0/0", gi0.Name)
	assert.Equal(t, "10.0.12.1", gi0.IP)
	assert.Equal(t, "255.255.255.0", gi0.Mask)
	assert.Equal(t, 9000, gi0.MTU)
	assert.Equal(t, 1000000, gi0.BandwidthKbps)
	assert.Equal(t, &domain.NeighborHint{Device: "R2", Interface: "Gi0/0"}, gi0.ConnectsTo)

	gi1 := rec.Interfaces[1]
	assert.Equal(t, 1400, gi1.MTU)
	assert.Equal(t, domain.DefaultBandwidthKbps, gi1.BandwidthKbps)
	assert.Nil(t, gi1.ConnectsTo)

	assert.Equal(t, "Loopback0", rec.Interfaces[2].Name)
	assert.Equal(t, domain.DefaultMTU, rec.Interfaces[2].MTU)

	assert.Equal(t, []domain.StaticRoute{
		{Destination: "0.0.0.0", Mask: "0.0.0.0", NextHop: "10.0.12.2"},
		{Destination: "192.168.0.0", Mask: "255.255.0.0", NextHop: "10.0.13.3"},
	}, rec.Routes)
}

func TestParseSwitch(t *testing.T) {
	rec, err := Parse("SW1", switchConfig)
	require.NoError(t, err)

	assert.Equal(t, domain.DeviceSwitch, rec.Kind)
	assert.Equal(t, map[int]string{10: "USERS", 20: "VOICE"}, rec.VLANs)
	require.Len(t, rec.Interfaces, 2)
	assert.Equal(t, 10, rec.Interfaces[0].VLAN)
	assert.Equal(t, 30, rec.Interfaces[1].VLAN)
	assert.Equal(t, "R1", rec.Interfaces[1].ConnectsTo.Device)
	assert.Nil(t, rec.ASN)
	assert.Empty(t, rec.Protocols)
}

func TestParseEdgeCases(t *testing.T) {
	t.Run("hostname falls back to directory name", func(t *testing.T) {
		rec, err := Parse("EDGE7", "interface Gi0/0\n ip address 10.1.1.1 255.255.255.0\n")
		require.NoError(t, err)
		assert.Equal(t, "EDGE7", rec.Hostname)
		require.Len(t, rec.Interfaces, 1)
		assert.Equal(t, "10.1.1.1", rec.Interfaces[0].IP)
	})

	t.Run("empty config yields an empty router", func(t *testing.T) {
		rec, err := Parse("X", "")
		require.NoError(t, err)
		assert.Equal(t, "X", rec.Hostname)
		assert.Equal(t, domain.DeviceRouter, rec.Kind)
		assert.Empty(t, rec.Interfaces)
	})

	t.Run("windows line endings", func(t *testing.T) {
		rec, err := Parse("R1", strings.ReplaceAll(routerConfig, "\n", "\r\n"))
		require.NoError(t, err)
		assert.Equal(t, "R1", rec.Hostname)
		assert.Len(t, rec.Interfaces, 3)
	})
}

func writeConfig(t *testing.T, root, device, text string) {
	t.Helper()
	dir := filepath.Join(root, device)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(text), 0o644))
}

func TestLoadDir(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "R1", routerConfig)
	writeConfig(t, root, "SW1", switchConfig)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "EMPTY"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "README"), []byte("notes"), 0o644))

	records, err := New(zaptest.NewLogger(t)).LoadDir(root)
	require.NoError(t, err)

	assert.Len(t, records, 2)
	assert.Contains(t, records, "R1")
	assert.Contains(t, records, "SW1")
	assert.NotContains(t, records, "EMPTY")
}

func TestLoadDirSkipsUnparsableDevice(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "R1", routerConfig)
	writeConfig(t, root, "BAD", "hostname BAD\n")

	core, logs := observer.New(zapcore.WarnLevel)
	l := New(zap.New(core))
	l.parse = func(node, text string) (domain.ConfigRecord, error) {
		if node == "BAD" {
			return domain.ConfigRecord{}, errors.New("unexpected token")
		}
		return Parse(node, text)
	}

	records, err := l.LoadDir(root)
	require.NoError(t, err)
	assert.Contains(t, records, "R1")
	assert.NotContains(t, records, "BAD")

	skipped := logs.FilterMessage("skipping device with unparsable config").All()
	require.Len(t, skipped, 1)
	fields := skipped[0].ContextMap()
	assert.Equal(t, "BAD", fields["device"])
	assert.Contains(t, fields["error"], "unexpected token")
}

func TestLoadDirMissingRoot(t *testing.T) {
	_, err := LoadDir(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindConfigRoot))

	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	_, err = LoadDir(file)
	assert.True(t, domain.IsKind(err, domain.KindConfigRoot))
}

const recordsYAML = `version: "1"
devices:
  R1:
    asn: 100
    protocols: [ospf]
    interfaces:
      - name: Gi0/0
        ip: 10.0.0.1
        mask: 255.255.255.0
        connects_to: R2:Gi0/0
  R2:
    type: router
    asn: 200
    interfaces:
      - name: Gi0/0
        ip: 10.0.0.2
        mtu: 9000
        bw: 1000000
  SW1:
    type: switch
    vlans:
      10: USERS
    default_gateway: 10.0.0.254
    interfaces:
      - name: Fa0/1
        vlan: 10
    routes:
      - dst: 0.0.0.0
        mask: 0.0.0.0
        nh: 10.0.0.254
`

func TestParseRecordsYAML(t *testing.T) {
	records, err := ParseRecordsYAML([]byte(recordsYAML))
	require.NoError(t, err)
	require.Len(t, records, 3)

	r1 := records["R1"]
	assert.Equal(t, "R1", r1.Hostname)
	assert.Equal(t, []domain.Protocol{domain.ProtocolBGP, domain.ProtocolOSPF}, r1.Protocols)
	assert.Equal(t, &domain.NeighborHint{Device: "R2", Interface: "Gi0/0"}, r1.Interfaces[0].ConnectsTo)
	assert.Equal(t, domain.DefaultMTU, r1.Interfaces[0].MTU)

	r2 := records["R2"]
	assert.Equal(t, 9000, r2.Interfaces[0].MTU)
	assert.Equal(t, 1000000, r2.Interfaces[0].BandwidthKbps)

	sw := records["SW1"]
	assert.Equal(t, domain.DeviceSwitch, sw.Kind)
	assert.True(t, sw.HasVLAN(10))
	assert.Equal(t, "10.0.0.254", sw.DefaultGateway)
	assert.Equal(t, "10.0.0.254", sw.Routes[0].NextHop)
}

func TestParseRecordsYAMLErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"malformed yaml", "devices: [unclosed"},
		{"unknown device type", "devices:\n  X:\n    type: firewall\n"},
		{"bad connects_to", "devices:\n  X:\n    interfaces:\n      - name: e0\n        connects_to: nocolon\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRecordsYAML([]byte(tt.data))
			require.Error(t, err)
			assert.True(t, domain.IsKind(err, domain.KindParse))
		})
	}
}

func TestLoadRecordsYAMLMissingFile(t *testing.T) {
	_, err := LoadRecordsYAML(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindConfigRoot))
}
