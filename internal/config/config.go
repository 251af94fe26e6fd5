// Package config loads the optional .envscout.yaml project configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileName is the config file probed for in the scan root.
const FileName = ".envscout.yaml"

// Config mirrors .envscout.yaml.
type Config struct {
	PublicPrefixes []string        `yaml:"publicPrefixes"`
	Include        []string        `yaml:"include"`
	Exclude        []string        `yaml:"exclude"`
	ExcludeDirs    []string        `yaml:"excludeDirs"`
	MaxFileSize    int64           `yaml:"maxFileSize"`
	Providers      ProvidersConfig `yaml:"providers"`
}

// ProvidersConfig toggles providers by name. Include, when set, wins.
type ProvidersConfig struct {
	Include []string `yaml:"include"`
	Exclude []string `yaml:"exclude"`
}

// Load reads .envscout.yaml from rootPath. A missing file yields the zero
// config, not an error.
func Load(rootPath string) (*Config, error) {
	path := filepath.Join(rootPath, FileName)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Config{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", FileName, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", FileName, err)
	}
	return &cfg, nil
}
