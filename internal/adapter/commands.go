package adapter

import (
	"strings"
)

// DefaultCommand is used for platforms without an entry in PlatformCommands
const DefaultCommand = "show running-config"

// PlatformCommands maps an inventory network OS to the command that prints
// its running configuration
var PlatformCommands = map[string]string{
	"ios":   "show running-config",
	"iosxe": "show running-config",
	"nxos":  "show running-config",
	"eos":   "show running-config",
	"asa":   "more system:running-config",
}

// commandFor picks the configuration dump command for a device platform.
// Ansible style names such as "cisco.ios.ios" resolve by their last segment.
func commandFor(platform string) string {
	p := strings.ToLower(platform)
	if i := strings.LastIndex(p, "."); i >= 0 {
		p = p[i+1:]
	}
	if cmd, ok := PlatformCommands[p]; ok {
		return cmd
	}
	return DefaultCommand
}

// cleanOutput normalizes line endings and drops the pager banner lines
// some platforms print before the configuration
func cleanOutput(output string) string {
	output = strings.ReplaceAll(output, "\r\n", "\n")
	lines := strings.Split(output, "\n")

	start := 0
	for start < len(lines) {
		l := strings.TrimSpace(lines[start])
		if l == "" || strings.HasPrefix(l, "Building configuration") || strings.HasPrefix(l, "Current configuration") {
			start++
			continue
		}
		break
	}

	out := strings.TrimRight(strings.Join(lines[start:], "\n"), " \n")
	if out == "" {
		return ""
	}
	return out + "\n"
}
