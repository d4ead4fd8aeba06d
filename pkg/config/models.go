package config

import (
	"time"

	"github.com/veesix-networks/dhcpkit/pkg/logger"
)

type Config struct {
	Logging Logging `yaml:"logging"`
	DHCP4   DHCP4   `yaml:"dhcp4"`
	DHCP6   DHCP6   `yaml:"dhcp6"`
}

type Logging struct {
	Format     string            `yaml:"format"`
	Level      string            `yaml:"level"`
	Components map[string]string `yaml:"components,omitempty"`
}

// Apply installs the logging settings process-wide.
func (l Logging) Apply() {
	components := make(map[string]logger.LogLevel, len(l.Components))
	for name, lvl := range l.Components {
		components[name] = logger.LogLevel(lvl)
	}
	logger.Configure(l.Format, logger.LogLevel(l.Level), components)
}

// DHCP4 configures the v4 transport: which interfaces get sockets, whether
// the raw-socket path is used for direct responses, and the bound port.
type DHCP4 struct {
	Port             uint16        `yaml:"port,omitempty"`
	Broadcast        bool          `yaml:"broadcast"`
	RawSocket        bool          `yaml:"raw_socket"`
	Interfaces       []string      `yaml:"interfaces,omitempty"`
	UnusedInterfaces []string      `yaml:"unused_interfaces,omitempty"`
	ReceiveTimeout   time.Duration `yaml:"receive_timeout,omitempty"`
}

type DHCP6 struct {
	Port             uint16        `yaml:"port,omitempty"`
	Interfaces       []string      `yaml:"interfaces,omitempty"`
	UnusedInterfaces []string      `yaml:"unused_interfaces,omitempty"`
	ReceiveTimeout   time.Duration `yaml:"receive_timeout,omitempty"`
}
