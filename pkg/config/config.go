// Package config loads the packer configuration.
//
// Configuration comes from a single YAML file named by the --config flag
// or the MAPPAK_CONFIG environment variable. Without either, Default is
// used. Relative paths in the file are resolved against the working
// directory, the same way the packer has always found its assets.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/klauspost/compress/zlib"
	"gopkg.in/yaml.v3"
)

// EnvVar names the environment variable holding the config file path.
const EnvVar = "MAPPAK_CONFIG"

// Config is the packer configuration.
type Config struct {
	// HeadersDir holds one header template file per map name.
	HeadersDir string `yaml:"headers_dir"`

	// Background is the prebuilt world-map background asset added to every archive.
	Background string `yaml:"background"`

	// CompressionLevel is the zlib level for compressed archives (-1 is the zlib default).
	CompressionLevel int `yaml:"compression_level"`

	// Workers is the number of goroutines compressing blocks of one record.
	Workers int `yaml:"workers"`

	// Resize scales decoded images to the texture size instead of rejecting them.
	Resize bool `yaml:"resize"`

	// Encoder configures the external BC7 encoder.
	Encoder EncoderConfig `yaml:"encoder"`
}

// EncoderConfig configures the external BC7 encoder command.
type EncoderConfig struct {
	// Command is the encoder executable. Empty disables image packing.
	Command string `yaml:"command"`

	// Args are passed to Command; {width} and {height} are substituted.
	Args []string `yaml:"args"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		HeadersDir:       "assets/headers",
		Background:       "assets/WorldMapBG.uasset",
		CompressionLevel: zlib.DefaultCompression,
		Workers:          1,
	}
}

// Load reads the config file at path over the defaults. An empty path
// falls back to MAPPAK_CONFIG, and then to Default.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvVar)
	}
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks field ranges. It does not touch the filesystem.
func (c *Config) Validate() error {
	var errs []error
	if c.HeadersDir == "" {
		errs = append(errs, errors.New("headers_dir is required"))
	}
	if c.Background == "" {
		errs = append(errs, errors.New("background is required"))
	}
	if c.CompressionLevel < zlib.HuffmanOnly || c.CompressionLevel > zlib.BestCompression {
		errs = append(errs, fmt.Errorf("compression_level %d out of range [%d, %d]",
			c.CompressionLevel, zlib.HuffmanOnly, zlib.BestCompression))
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must not be negative, got %d", c.Workers))
	}
	return errors.Join(errs...)
}
