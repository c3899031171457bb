// Package config loads the project-local pasc.yaml defaults that the CLI
// flags in cmd/pasc override.
package config

import (
	"os"

	"github.com/goccy/go-yaml"
)

// Config holds the defaults a pasc.yaml file may supply.
type Config struct {
	Outdir   string `yaml:"outdir"`
	Optimize *bool  `yaml:"optimize"`
	Color    string `yaml:"color"`
	Format   string `yaml:"format"`
}

// Default returns the built-in defaults used when no pasc.yaml is found.
func Default() *Config {
	optimize := true
	return &Config{
		Outdir:   "../outputs",
		Optimize: &optimize,
		Color:    "auto",
		Format:   "text",
	}
}

// Load reads pasc.yaml at path, falling back to Default() values for any
// field the file omits. A missing file is not an error: it simply returns
// the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	overlay := &Config{}
	if err := yaml.Unmarshal(data, overlay); err != nil {
		return nil, err
	}

	if overlay.Outdir != "" {
		cfg.Outdir = overlay.Outdir
	}
	if overlay.Optimize != nil {
		cfg.Optimize = overlay.Optimize
	}
	if overlay.Color != "" {
		cfg.Color = overlay.Color
	}
	if overlay.Format != "" {
		cfg.Format = overlay.Format
	}
	return cfg, nil
}
