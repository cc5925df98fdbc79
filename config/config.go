package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// RenderConfig stores offline render preferences
type RenderConfig struct {
	SampleRate int     `json:"sampleRate,omitempty"`
	Tempo      float64 `json:"tempo,omitempty"`
	Mood       string  `json:"mood,omitempty"`
	OutputDir  string  `json:"outputDir,omitempty"`
}

// PreviewConfig stores live MIDI preview preferences
type PreviewConfig struct {
	PortName string `json:"portName,omitempty"`
}

// Config is the main configuration structure
type Config struct {
	Render  RenderConfig  `json:"render,omitempty"`
	Preview PreviewConfig `json:"preview,omitempty"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Render: RenderConfig{
			SampleRate: 44100,
			Tempo:      72,
			Mood:       "calm",
			OutputDir:  ".",
		},
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "aria"), nil
}

// ConfigPath returns the full path to config.json
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config from disk, or returns defaults if not found
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the config to disk
func (c *Config) Save() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	path, err := ConfigPath()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
