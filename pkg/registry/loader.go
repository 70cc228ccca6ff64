package registry

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Loader handles loading endpoint configurations
type Loader struct {
	configPath string
}

// NewLoader creates a new configuration loader
func NewLoader(configPath string) *Loader {
	return &Loader{
		configPath: configPath,
	}
}

// LoadRegistry loads the endpoint registry from the configuration file.
// The EMBEDKIT_CONFIG environment variable overrides the configured path;
// a missing file yields an empty registry rather than an error.
func (l *Loader) LoadRegistry() (*Registry, error) {
	if configPath := os.Getenv("EMBEDKIT_CONFIG"); configPath != "" {
		l.configPath = configPath
	}

	if l.configPath == "" {
		l.configPath = "embedkit.yaml"
	}

	if _, err := os.Stat(l.configPath); os.IsNotExist(err) {
		return &Registry{Endpoints: []EndpointConfig{}}, nil
	}

	data, err := os.ReadFile(l.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", l.configPath, err)
	}

	return LoadRegistryFromBytes(data)
}

// LoadRegistryFromBytes loads a registry from byte data
func LoadRegistryFromBytes(data []byte) (*Registry, error) {
	var registry Registry
	if err := yaml.Unmarshal(data, &registry); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	return &registry, nil
}
