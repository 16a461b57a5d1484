// Package config loads the server configuration from an optional YAML file.
// Missing file or missing fields fall back to defaults; command-line flags
// override whatever the file says.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds everything the server needs at startup.
type Config struct {
	Transport string         `yaml:"transport"`
	Port      string         `yaml:"port"`
	Database  DatabaseConfig `yaml:"database"`
}

// DatabaseConfig configures the SQLite store.
type DatabaseConfig struct {
	Path string `yaml:"path"`
	// BusyTimeoutMS bounds how long a statement waits on a locked
	// database before failing.
	BusyTimeoutMS int `yaml:"busy_timeout_ms"`
	// ConnectRetries is how many times Open retries the initial
	// connection before giving up.
	ConnectRetries int `yaml:"connect_retries"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Transport: "stdio",
		Port:      "8081",
		Database: DatabaseConfig{
			Path:           "./data/kgraph.db",
			BusyTimeoutMS:  5000,
			ConnectRetries: 3,
		},
	}
}

// Load reads a YAML config file. An empty path returns defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	d := Default()
	if c.Transport == "" {
		c.Transport = d.Transport
	}
	if c.Port == "" {
		c.Port = d.Port
	}
	if c.Database.Path == "" {
		c.Database.Path = d.Database.Path
	}
	if c.Database.BusyTimeoutMS == 0 {
		c.Database.BusyTimeoutMS = d.Database.BusyTimeoutMS
	}
	if c.Database.ConnectRetries == 0 {
		c.Database.ConnectRetries = d.Database.ConnectRetries
	}
}
