package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultPort4          = 67
	defaultPort6          = 547
	defaultReceiveTimeout = time.Second
)

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

func (c *Config) applyDefaults() {
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.DHCP4.Port == 0 {
		c.DHCP4.Port = defaultPort4
	}
	if c.DHCP6.Port == 0 {
		c.DHCP6.Port = defaultPort6
	}
	if c.DHCP4.ReceiveTimeout == 0 {
		c.DHCP4.ReceiveTimeout = defaultReceiveTimeout
	}
	if c.DHCP6.ReceiveTimeout == 0 {
		c.DHCP6.ReceiveTimeout = defaultReceiveTimeout
	}
}

func (c *Config) Validate() error {
	if c.DHCP4.Port == c.DHCP6.Port {
		return fmt.Errorf("dhcp4 and dhcp6 cannot share port %d", c.DHCP4.Port)
	}
	if err := disjoint("dhcp4", c.DHCP4.Interfaces, c.DHCP4.UnusedInterfaces); err != nil {
		return err
	}
	if err := disjoint("dhcp6", c.DHCP6.Interfaces, c.DHCP6.UnusedInterfaces); err != nil {
		return err
	}
	return nil
}

func disjoint(section string, used, unused []string) error {
	for _, u := range used {
		for _, x := range unused {
			if u == x {
				return fmt.Errorf("%s: interface %q listed as both used and unused", section, u)
			}
		}
	}
	return nil
}
