// Package config loads run settings from a TOML or YAML file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"jinterp/pkg/bytecode"
	"jinterp/pkg/interpreter"
)

// DefaultRounds bounds the abstract interpretation when nothing else does.
const DefaultRounds = 50

var ErrUnknownFormat = errors.New("unknown config format")

// Config holds the settings a config file may override.
type Config struct {
	Marker   string `toml:"marker" yaml:"marker"`
	MaxSteps int    `toml:"max_steps" yaml:"max_steps"`
	MaxDepth int    `toml:"max_depth" yaml:"max_depth"`
	Rounds   int    `toml:"rounds" yaml:"rounds"`
	Verbose  bool   `toml:"verbose" yaml:"verbose"`
	NoColor  bool   `toml:"no_color" yaml:"no_color"`
}

// Default returns the settings used without a config file.
func Default() Config {
	return Config{
		Marker:   bytecode.DefaultMarker,
		MaxDepth: interpreter.DefaultMaxDepth,
		Rounds:   DefaultRounds,
	}
}

// Load reads the config file at path on top of the defaults. The format
// follows the extension: .toml, .yaml or .yml. Unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("cannot read %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		md, err := toml.Decode(string(data), &cfg)
		if err != nil {
			return cfg, fmt.Errorf("parse error in %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return cfg, fmt.Errorf("parse error in %s: unknown key %q", path, undecoded[0].String())
		}

	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil {
			return cfg, fmt.Errorf("parse error in %s: %w", path, err)
		}

	default:
		return cfg, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}

	if cfg.Rounds < 0 || cfg.MaxSteps < 0 || cfg.MaxDepth < 0 {
		return cfg, fmt.Errorf("%s: rounds, max_steps and max_depth must not be negative", path)
	}

	return cfg, nil
}
