// Package config loads, validates, and normalizes xbench run configurations.
//
// A configuration file is YAML or JSON deserializing to a mapping; the
// workloads value follows a nested grammar (bare name, parallel group, or
// name-with-overrides) parsed once into the closed WorkloadEntry variant
// before any scheduling logic runs.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Configuration mapping keys shared by the loader, validator, and builder.
const (
	KeyName              = "name"
	KeyDescription       = "description"
	KeyNodes             = "nodes"
	KeyAccelerators      = "accelerators"
	KeyWorkloads         = "workloads"
	KeyOptionalWorkloads = "optional_workloads"
	KeyWorkload          = "workload"
	KeyArgs              = "args"
	KeyDebug             = "debug"
	KeyDelay             = "delay"
	KeyDuration          = "duration"
	KeyLogLevel          = "log_level"
	KeySeed              = "seed"
	KeyTimeout           = "timeout"
	KeyMaximumCores      = "maximum_cores"
	KeyMaximumMemory     = "maximum_memory"
	KeyMaximumThreads    = "maximum_threads"
	KeyMaximumWorkloads  = "maximum_workloads"
	KeyMinimumCores      = "minimum_cores"
	KeyMinimumMemory     = "minimum_memory"
	KeyMinimumThreads    = "minimum_threads"
	KeyMinimumWorkloads  = "minimum_workloads"
)

// MandatoryKeys must be present in every configuration mapping.
var MandatoryKeys = []string{KeyName, KeyDescription, KeyAccelerators, KeyWorkloads, KeyTimeout}

// Default values applied by the schedule builder for omitted optional fields.
const (
	DefaultSeed         int64 = 12345
	DefaultDelay              = 0
	DefaultDuration           = 5 * 60 // seconds
	DefaultTimeout            = 60 * 60
	DefaultAccelerators       = 8
	DefaultMinMemory          = 2 // GB
	DefaultMinCores           = 1
	DefaultMinThreads         = 1
	DefaultMinWorkloads       = 1
	DefaultMaxWorkloads       = 100
	DefaultLogLevel           = "INFO"
)

// Config is a validated, typed configuration. Optional numeric fields are
// pointers so the builder can tell an omitted value (apply default) from an
// explicit zero (constraint violation).
type Config struct {
	Name              string          `yaml:"name" json:"name"`
	Description       string          `yaml:"description" json:"description"`
	Nodes             []string        `yaml:"nodes" json:"nodes"`
	Accelerators      *int            `yaml:"accelerators" json:"accelerators"`
	Workloads         []WorkloadEntry `yaml:"workloads" json:"workloads"`
	OptionalWorkloads []WorkloadEntry `yaml:"optional_workloads" json:"optional_workloads,omitempty"`
	Args              string          `yaml:"args" json:"args,omitempty"`
	Debug             bool            `yaml:"debug" json:"debug"`
	LogLevel          string          `yaml:"log_level" json:"log_level,omitempty"`
	Seed              *int64          `yaml:"seed" json:"seed,omitempty"`
	Delay             *int            `yaml:"delay" json:"delay,omitempty"`
	Duration          *int            `yaml:"duration" json:"duration,omitempty"`
	Timeout           *int            `yaml:"timeout" json:"timeout"`
	MaximumCores      *int            `yaml:"maximum_cores" json:"maximum_cores,omitempty"`
	MaximumMemory     *int            `yaml:"maximum_memory" json:"maximum_memory,omitempty"`
	MaximumThreads    *int            `yaml:"maximum_threads" json:"maximum_threads,omitempty"`
	MaximumWorkloads  *int            `yaml:"maximum_workloads" json:"maximum_workloads,omitempty"`
	MinimumCores      *int            `yaml:"minimum_cores" json:"minimum_cores,omitempty"`
	MinimumMemory     *int            `yaml:"minimum_memory" json:"minimum_memory,omitempty"`
	MinimumThreads    *int            `yaml:"minimum_threads" json:"minimum_threads,omitempty"`
	MinimumWorkloads  *int            `yaml:"minimum_workloads" json:"minimum_workloads,omitempty"`

	// File is the path the configuration was loaded from, when applicable.
	File string `yaml:"-" json:"-"`
}

// Load reads, validates, and decodes a configuration file. JSON parses fine
// through the YAML decoder, so both extensions share one path. The raw
// mapping is validated before decoding; a file that fails validation never
// yields a Config.
func Load(path string, v *Validator) (*Config, error) {
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml", ".json":
	default:
		return nil, fmt.Errorf("invalid configuration file %q: unsupported extension %q", path, ext)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg, err := Parse(data, v)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	cfg.File = path
	return cfg, nil
}

// Parse validates raw configuration bytes and decodes them into a Config.
func Parse(data []byte, v *Validator) (*Config, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := v.Validate(raw); err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}
