package domain

// InventoryDevice is a live device the collector can fetch a configuration from
type InventoryDevice struct {
	Name     string `json:"name" yaml:"name"`
	Address  string `json:"address" yaml:"address"`
	Port     int    `json:"port,omitempty" yaml:"port,omitempty"`
	Username string `json:"username,omitempty" yaml:"username,omitempty"`
	Password string `json:"-" yaml:"-"`
	KeyFile  string `json:"key_file,omitempty" yaml:"key_file,omitempty"`
	Platform string `json:"platform,omitempty" yaml:"platform,omitempty"`
}

// DefaultSSHPort is used when an inventory entry has no port
const DefaultSSHPort = 22
