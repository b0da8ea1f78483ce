// Package nodeapp wires together a complete ledgerd node: persistent
// store, state source, consensus/forging loop, gossip transport, and
// longest-chain sync, mirroring the wiring order and shutdown pattern of
// a typical P2P daemon's main package.
package nodeapp

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigFileName is the default config file name inside a data directory.
const ConfigFileName = "config.yaml"

// NodeConfig holds everything a node needs to run: where its data lives,
// how it's reached, who its peers are, and how fast it forges.
type NodeConfig struct {
	NodeName          string        `yaml:"node_name"`
	ListenAddr        string        `yaml:"listen_addr"`
	DataDir           string        `yaml:"data_dir"`
	KeyFile           string        `yaml:"key_file"`
	Peers             []string      `yaml:"peers"`
	SlotInterval      time.Duration `yaml:"slot_interval"`
	DelegateCount     int           `yaml:"delegate_count"`
	LivenessBumpSlots int           `yaml:"liveness_bump_slots"`
	LogLevel          string        `yaml:"log_level"`
}

// DefaultConfig returns a NodeConfig with sensible defaults for local
// development.
func DefaultConfig() *NodeConfig {
	return &NodeConfig{
		NodeName:          "node",
		ListenAddr:        "127.0.0.1:8080",
		DataDir:           "~/.ledgerd",
		KeyFile:           "node.key",
		Peers:             []string{},
		SlotInterval:      5 * time.Second,
		DelegateCount:     3,
		LivenessBumpSlots: 0,
		LogLevel:          "info",
	}
}

// LoadConfig reads path as YAML into a NodeConfig seeded with defaults.
// If path does not exist, a default config is written there and returned.
func LoadConfig(path string) (*NodeConfig, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := DefaultConfig()
		if err := cfg.Save(path); err != nil {
			return nil, fmt.Errorf("nodeapp: write default config: %w", err)
		}
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("nodeapp: read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("nodeapp: parse config file: %w", err)
	}
	return cfg, nil
}

// Save writes cfg to path as YAML, creating parent directories as needed.
func (c *NodeConfig) Save(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("nodeapp: create config directory: %w", err)
		}
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("nodeapp: marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("nodeapp: write config file: %w", err)
	}
	return nil
}

// ExpandDataDir expands a leading ~ to the user's home directory.
func ExpandDataDir(path string) string {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[1:])
	}
	return path
}
