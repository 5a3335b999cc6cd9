package codec

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"gopkg.in/yaml.v3"

	"netaudit/internal/domain"
)

// AnsibleCodec reads device inventories in Ansible YAML inventory format
type AnsibleCodec struct{}

// NewAnsibleCodec creates a new Ansible codec
func NewAnsibleCodec() *AnsibleCodec {
	return &AnsibleCodec{}
}

// Format returns the codec format identifier
func (c *AnsibleCodec) Format() string {
	return "ansible-inventory"
}

// ansibleInventory represents the Ansible inventory structure
type ansibleInventory struct {
	All ansibleGroup `yaml:"all"`
}

type ansibleGroup struct {
	Children map[string]ansibleGroupDef `yaml:"children,omitempty"`
	Hosts    map[string]ansibleHost     `yaml:"hosts,omitempty"`
	Vars     map[string]interface{}     `yaml:"vars,omitempty"`
}

type ansibleGroupDef struct {
	Hosts map[string]ansibleHost `yaml:"hosts,omitempty"`
	Vars  map[string]interface{} `yaml:"vars,omitempty"`
}

type ansibleHost struct {
	AnsibleHost string                 `yaml:"ansible_host,omitempty"`
	Vars        map[string]interface{} `yaml:",inline"`
}

// ParseInventory returns one device per inventory host, sorted by name.
// Host vars override group vars, which override "all" vars.
func (c *AnsibleCodec) ParseInventory(r io.Reader) ([]domain.InventoryDevice, error) {
	var inv ansibleInventory
	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(&inv); err != nil {
		return nil, domain.NewError(domain.KindParse, "ParseInventory", fmt.Errorf("failed to parse Ansible inventory: %w", err))
	}

	devices := make(map[string]domain.InventoryDevice)
	add := func(name string, host ansibleHost, groupVars map[string]interface{}) {
		if _, exists := devices[name]; exists {
			return
		}
		vars := mergeVars(inv.All.Vars, groupVars, host.Vars)
		if host.AnsibleHost != "" {
			vars["ansible_host"] = host.AnsibleHost
		}
		devices[name] = c.hostToDevice(name, vars)
	}

	groups := make([]string, 0, len(inv.All.Children))
	for g := range inv.All.Children {
		groups = append(groups, g)
	}
	sort.Strings(groups)
	for _, g := range groups {
		group := inv.All.Children[g]
		for name, host := range group.Hosts {
			add(name, host, group.Vars)
		}
	}
	for name, host := range inv.All.Hosts {
		add(name, host, nil)
	}

	out := make([]domain.InventoryDevice, 0, len(devices))
	for _, d := range devices {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// hostToDevice converts merged Ansible vars to an inventory device
func (c *AnsibleCodec) hostToDevice(name string, vars map[string]interface{}) domain.InventoryDevice {
	d := domain.InventoryDevice{
		Name:     name,
		Address:  stringVar(vars, "ansible_host"),
		Username: stringVar(vars, "ansible_user"),
		Password: stringVar(vars, "ansible_password"),
		KeyFile:  stringVar(vars, "ansible_ssh_private_key_file"),
		Platform: stringVar(vars, "ansible_network_os"),
	}
	if d.Address == "" {
		d.Address = name
	}
	if port, err := strconv.Atoi(stringVar(vars, "ansible_port")); err == nil && port > 0 {
		d.Port = port
	} else {
		d.Port = domain.DefaultSSHPort
	}
	return d
}

func mergeVars(layers ...map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{})
	for _, layer := range layers {
		for k, v := range layer {
			out[k] = v
		}
	}
	return out
}

func stringVar(vars map[string]interface{}, key string) string {
	switch v := vars[key].(type) {
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}
