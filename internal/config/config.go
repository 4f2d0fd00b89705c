// Package config loads the optional YAML configuration for the corpus tools.
// Everything has a working default; the file exists so a corpus checkout can
// pin its layout and record formatting.
package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/maktaba-project/maktaba/core/errors"
	"github.com/maktaba-project/maktaba/core/metadata"
	"github.com/maktaba-project/maktaba/core/pathmap"
)

// DefaultName is the config filename looked up under the corpus root.
const DefaultName = ".maktaba.yml"

// Config is the tool configuration.
type Config struct {
	// BasePath is the default corpus root for bare identifiers.
	BasePath string `yaml:"base_path"`
	// FlatLayout skips the bucket/data indirection.
	FlatLayout bool `yaml:"flat_layout"`
	// BucketSize is the death-date sharding width in years; 0 means the
	// default of 25.
	BucketSize int `yaml:"bucket_size"`
	// WrapWidth is the record value wrap column; 0 means the default.
	WrapWidth int `yaml:"wrap_width"`
	// RelationsIndex is the path of the optional book-relations JSON file.
	RelationsIndex string `yaml:"relations_index"`
	// BackupDir receives pre-rename snapshots when set.
	BackupDir string `yaml:"backup_dir"`
}

// Default returns the zero-config defaults.
func Default() *Config {
	return &Config{}
}

// Load reads a config file. A missing file is not an error; the defaults
// come back instead.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, errors.NewIO("read", path, err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "parse config")
	}
	return cfg, nil
}

// Discover loads the config from root, falling back to defaults.
func Discover(root string) (*Config, error) {
	if root == "" {
		return Default(), nil
	}
	return Load(filepath.Join(root, DefaultName))
}

// Layout returns the pathmap layout the config selects.
func (c *Config) Layout() pathmap.Layout {
	return pathmap.Layout{Flat: c.FlatLayout, BucketSize: c.BucketSize}
}

// Store returns a record store with the configured wrap width.
func (c *Config) Store() *metadata.Store {
	return &metadata.Store{WrapWidth: c.WrapWidth}
}
