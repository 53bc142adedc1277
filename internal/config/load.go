package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads a yaml configuration file. Knobs the document omits keep their
// defaults; sizes are left to Validate.
func Load(path string) (*MemoryConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg, err := LoadBytes(data)
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadBytes parses a yaml document into a MemoryConfig on top of Default().
func LoadBytes(data []byte) (*MemoryConfig, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal memory config: %w", err)
	}
	for i := range cfg.Regions {
		cfg.Regions[i].applyDefaults()
	}
	return cfg, nil
}
