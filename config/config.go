// Package config loads the holder frontend's optional YAML configuration
// file and merges it with command-line flags, flags always
// winning over the file, and the file always winning over built-in
// defaults.
package config

import (
	"os"

	"gopkg.in/yaml.v3"

	rerr "github.com/rulexdb/rulexdb/error"
)

// Config holds settings the holder sources from a file, a flag, or a
// default.
type Config struct {
	// LogLevel is one of "debug", "info", "warn", "error".
	LogLevel string `yaml:"log_level"`
	// MaxKeySize is loaded and merged but not read by either frontend;
	// the stream filter bounds runs by lexicon.MaxKeySize.
	MaxKeySize int `yaml:"max_key_size"`
	// MaxLineSize is loaded and merged but not read by the holder, which
	// bounds record lines by its own 256-byte constant.
	MaxLineSize int `yaml:"max_line_size"`
}

// Default returns the built-in configuration used when no file and no
// flag override a setting.
func Default() Config {
	return Config{
		LogLevel:    "info",
		MaxKeySize:  50,
		MaxLineSize: 256,
	}
}

// Load reads a YAML config file at path and merges it over Default; a
// zero-valued field in the file leaves the default in place. An empty
// path returns Default unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, rerr.New(rerr.NotFound, "config file %q not found", path)
		}
		return Config{}, rerr.Wrap(rerr.Failure, err)
	}
	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return Config{}, rerr.Wrap(rerr.Parameter, err)
	}
	if file.LogLevel != "" {
		cfg.LogLevel = file.LogLevel
	}
	if file.MaxKeySize != 0 {
		cfg.MaxKeySize = file.MaxKeySize
	}
	if file.MaxLineSize != 0 {
		cfg.MaxLineSize = file.MaxLineSize
	}
	return cfg, nil
}

// ApplyFlagOverrides overlays non-zero-valued flag settings on top of cfg,
// giving flags the final word.
func ApplyFlagOverrides(cfg Config, logLevel string) Config {
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	return cfg
}
