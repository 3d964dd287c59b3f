package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// PortConfig selects the controller input and synth output by name
type PortConfig struct {
	// Input and Output are case-insensitive substrings of the port name
	Input  string `json:"input,omitempty"`
	Output string `json:"output,omitempty"`
}

// SerialConfig sends to a UART instead of a MIDI port when Device is set
type SerialConfig struct {
	Device string `json:"device,omitempty"`
	Baud   int    `json:"baud,omitempty"`
}

// UIConfig stores UI preferences
type UIConfig struct {
	Headless bool   `json:"headless,omitempty"`
	Palette  string `json:"palette,omitempty"` // path to a .gpl file
}

// Config is the main configuration structure
type Config struct {
	Profile     string       `json:"profile"`
	ProfileFile string       `json:"profileFile,omitempty"` // YAML override, wins over Profile
	Param       *float64     `json:"param,omitempty"`       // nil means the profile default
	Ports       PortConfig   `json:"ports"`
	Serial      SerialConfig `json:"serial,omitempty"`
	UI          UIConfig     `json:"ui,omitempty"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Profile: "cello",
		Ports: PortConfig{
			Input:  "EWI",
			Output: "IAC",
		},
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "swam-ewi"), nil
}

// ConfigPath returns the full path to config.json
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config from the default path, or returns defaults if not found
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads the config at path. Fields missing from the file keep
// their defaults.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	return cfg, nil
}

// Save writes the config to the default path
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the config to path, creating its directory
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// SetParam records an explicit parameter value
func (c *Config) SetParam(v float64) {
	c.Param = &v
}
