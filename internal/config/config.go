package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/menta2k/datacrop/pkg/discovery"
	"github.com/menta2k/datacrop/pkg/processing"
)

// Config holds the application configuration
type Config struct {
	Discovery DiscoveryConfig `yaml:"discovery"`
	Export    ExportConfig    `yaml:"export"`
	Vision    VisionConfig    `yaml:"vision"`
	Store     StoreConfig     `yaml:"store"`
}

// DiscoveryConfig holds configuration for directory scans
type DiscoveryConfig struct {
	Extensions []string `yaml:"extensions"`
	IgnoreCase bool     `yaml:"ignore_case"`
	// OnError is "skip" or "fail"
	OnError string `yaml:"on_error"`
}

// ExportConfig holds configuration for writing crops
type ExportConfig struct {
	Format     string `yaml:"format"`
	Quality    int    `yaml:"quality"`
	Lossless   bool   `yaml:"lossless"`
	OutputDir  string `yaml:"output_dir"`
	Classified bool   `yaml:"classified"`
	Index      bool   `yaml:"index"`
	Jobs       int    `yaml:"jobs"`
}

// VisionConfig holds configuration for crop suggestions
type VisionConfig struct {
	// Backend is "ollama" or "local"
	Backend  string `yaml:"backend"`
	URL      string `yaml:"url"`
	Model    string `yaml:"model"`
	SendSize int    `yaml:"send_size"`
}

// StoreConfig holds configuration for crop persistence
type StoreConfig struct {
	Path string `yaml:"path"`
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Discovery: DiscoveryConfig{
			Extensions: append([]string(nil), discovery.ImageExtensions...),
			IgnoreCase: false,
			OnError:    "skip",
		},
		Export: ExportConfig{
			Format:     "png",
			Quality:    90,
			OutputDir:  "./output",
			Classified: true,
			Jobs:       4,
		},
		Vision: VisionConfig{
			Backend:  "ollama",
			URL:      "http://localhost:11434",
			Model:    "openbmb/minicpm-v4.5",
			SendSize: 1536,
		},
		Store: StoreConfig{
			Path: "crops.db",
		},
	}
}

// LoadFromFile loads configuration from a YAML file. Keys missing from the
// file keep their default values.
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(filename string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if len(c.Discovery.Extensions) == 0 {
		return fmt.Errorf("discovery.extensions cannot be empty")
	}

	if _, ok := discovery.ParsePolicy(c.Discovery.OnError); !ok {
		return fmt.Errorf("discovery.on_error must be \"skip\" or \"fail\", got %q", c.Discovery.OnError)
	}

	if _, err := processing.FormatExtension(c.Export.Format); err != nil {
		return fmt.Errorf("export.format: %w", err)
	}

	if c.Export.Quality < 1 || c.Export.Quality > 100 {
		return fmt.Errorf("export.quality must be between 1 and 100")
	}

	if c.Export.Jobs < 1 {
		return fmt.Errorf("export.jobs must be positive")
	}

	switch c.Vision.Backend {
	case "ollama", "local":
	default:
		return fmt.Errorf("vision.backend must be \"ollama\" or \"local\", got %q", c.Vision.Backend)
	}

	if c.Vision.SendSize < 0 {
		return fmt.Errorf("vision.send_size must not be negative")
	}

	return nil
}

// DiscoveryScanner builds a scanner from the discovery section
func (c *Config) DiscoveryScanner() *discovery.Scanner {
	policy, _ := discovery.ParsePolicy(c.Discovery.OnError)
	return discovery.NewWithConfig(discovery.Config{
		CaseInsensitive: c.Discovery.IgnoreCase,
		Policy:          policy,
	})
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./datacrop.yaml"
	}
	return filepath.Join(home, ".config", "datacrop", "config.yaml")
}
