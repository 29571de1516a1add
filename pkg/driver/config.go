// Package driver loads run configuration: resource limits and the policy
// knobs the interpreter leaves configurable.
package driver

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/WebSims/jstrace/pkg/interpreter"
)

// Config mirrors the jstrace.yml layout.
type Config struct {
	Limits  LimitsConfig  `yaml:"limits"`
	Policy  PolicyConfig  `yaml:"policy"`
	Storage StorageConfig `yaml:"storage"`
}

// LimitsConfig bounds a run. Zero values fall back to the interpreter
// defaults.
type LimitsConfig struct {
	MaxSteps     int `yaml:"max_steps"`
	MaxCallDepth int `yaml:"max_call_depth"`
}

// PolicyConfig fixes behavior the language spec leaves open.
type PolicyConfig struct {
	// ImplicitGlobalDeclare controls whether assigning an undeclared
	// identifier declares a program-scope var (sloppy mode) or throws.
	// Unset means enabled.
	ImplicitGlobalDeclare *bool `yaml:"implicit_global_declare"`
}

// StorageConfig locates the trace database.
type StorageConfig struct {
	Path string `yaml:"path"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	opts := interpreter.DefaultOptions()
	return Config{
		Limits: LimitsConfig{
			MaxSteps:     opts.MaxSteps,
			MaxCallDepth: opts.MaxCallDepth,
		},
	}
}

// Load reads a YAML config file and fills unset fields from Default.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("driver: read config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("driver: parse config %s: %w", path, err)
	}
	if cfg.Limits.MaxSteps <= 0 {
		cfg.Limits.MaxSteps = Default().Limits.MaxSteps
	}
	if cfg.Limits.MaxCallDepth <= 0 {
		cfg.Limits.MaxCallDepth = Default().Limits.MaxCallDepth
	}
	return cfg, nil
}

// Options translates the config into interpreter options.
func (c Config) Options() interpreter.Options {
	opts := interpreter.Options{
		MaxSteps:              c.Limits.MaxSteps,
		MaxCallDepth:          c.Limits.MaxCallDepth,
		ImplicitGlobalDeclare: true,
	}
	if c.Policy.ImplicitGlobalDeclare != nil {
		opts.ImplicitGlobalDeclare = *c.Policy.ImplicitGlobalDeclare
	}
	return opts
}
