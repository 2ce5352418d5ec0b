package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/drone/envsubst"
	"gopkg.in/yaml.v3"
)

// config is the optional YAML configuration file. Command-line flags take
// precedence over every setting.
type config struct {
	// Encoding is the text encoding applied to string fields.
	Encoding string `yaml:"encoding"`

	// LogLevel is one of debug, info, warn or error.
	LogLevel string `yaml:"log_level"`

	// Schemas lists definition files loaded when a command has no --schema
	// flag. Relative paths are resolved against the config file directory.
	Schemas []string `yaml:"schemas"`

	// Hex selects hex text instead of raw bytes for encoded data.
	Hex bool `yaml:"hex"`
}

// loadConfig reads the config file at path. With expandEnv set, ${VAR}
// references are replaced by environment values before parsing.
func loadConfig(path string, expandEnv bool) (config, error) {
	var cfg config
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if expandEnv {
		s, err := envsubst.EvalEnv(string(data))
		if err != nil {
			return cfg, fmt.Errorf("expand config: %w", err)
		}
		data = []byte(s)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	for i, p := range cfg.Schemas {
		if !filepath.IsAbs(p) {
			cfg.Schemas[i] = filepath.Join(dir, p)
		}
	}
	return cfg, nil
}
