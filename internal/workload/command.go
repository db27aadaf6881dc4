package workload

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/me/xbench/pkg/model"
)

// ConfigFileName is the file a workload folder must expose.
const ConfigFileName = "config.yaml"

// Config is a workload folder's own configuration, loaded at construction
// time.
type Config struct {
	Name        string               `yaml:"name"`
	Binary      string               `yaml:"binary"`
	Description string               `yaml:"description"`
	Run         string               `yaml:"run"`
	Download    string               `yaml:"download,omitempty"`
	Parameters  map[string]Parameter `yaml:"parameters,omitempty"`
}

// Parameter describes one tunable exposed by a workload.
type Parameter struct {
	Description string `yaml:"description"`
	Type        string `yaml:"type"`
	Default     any    `yaml:"default"`
}

// LoadConfig reads and decodes a workload folder's config file.
func LoadConfig(dir string) (*Config, error) {
	path := filepath.Join(dir, ConfigFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read workload config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("decode workload config %s: %w", path, err)
	}
	return &cfg, nil
}

// Command is the folder-backed workload: its behavior is driven entirely by
// the run command in its config file. Custom workloads embed Command and
// override the phases they need.
type Command struct {
	Cfg Config
	Dir string

	last *model.WorkloadOutput
}

// FromDir constructs a Command workload from a workload folder.
func FromDir(dir string) (*Command, error) {
	cfg, err := LoadConfig(dir)
	if err != nil {
		return nil, err
	}
	return &Command{Cfg: *cfg, Dir: dir}, nil
}

func (c *Command) Name() string        { return c.Cfg.Name }
func (c *Command) Binary() string      { return c.Cfg.Binary }
func (c *Command) Description() string { return c.Cfg.Description }

// Setup verifies the workload binary is present in the folder.
func (c *Command) Setup(ctx context.Context, env *Env) error {
	if c.Cfg.Binary == "" {
		return nil
	}
	if _, err := os.Stat(filepath.Join(c.Dir, c.Cfg.Binary)); err != nil {
		if c.Cfg.Download != "" {
			return fmt.Errorf("workload %s: binary %q missing; download from %s first", c.Cfg.Name, c.Cfg.Binary, c.Cfg.Download)
		}
		return fmt.Errorf("workload %s: binary %q missing: %w", c.Cfg.Name, c.Cfg.Binary, err)
	}
	return nil
}

// Run executes the configured run command, appending the load's extra args.
func (c *Command) Run(ctx context.Context, env *Env) (*model.WorkloadOutput, error) {
	command := c.Cfg.Run
	if command == "" {
		return nil, fmt.Errorf("workload %s: no run command configured", c.Cfg.Name)
	}
	if env.Info != nil && env.Info.Args != "" {
		command += " " + env.Info.Args
	}
	res, err := env.Proc.Run(ctx, c.Dir, command)
	if err != nil {
		return nil, fmt.Errorf("workload %s: %w", c.Cfg.Name, err)
	}
	c.last = &model.WorkloadOutput{
		Stdout:     res.Stdout,
		Stderr:     res.Stderr,
		ReturnCode: res.ReturnCode,
		Folder:     c.Dir,
		Log:        filepath.Join(env.OutDir, c.Cfg.Name+".log"),
	}
	return c.last, nil
}

// Teardown has nothing to clean up for a plain command workload.
func (c *Command) Teardown(ctx context.Context, env *Env) error {
	return nil
}

// Verify passes when the last run exited zero. A Command that never ran has
// nothing to judge and passes. Workloads with their own pass/fail semantics
// override this.
func (c *Command) Verify(ctx context.Context, env *Env) error {
	if c.last != nil && c.last.ReturnCode != 0 {
		return fmt.Errorf("workload %s: run exited with code %d", c.Cfg.Name, c.last.ReturnCode)
	}
	return nil
}
