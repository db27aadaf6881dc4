// Package schedule turns validated configurations into executable Schedules
// and round-trips them through files.
package schedule

import (
	"fmt"
	"log/slog"

	"github.com/me/xbench/internal/config"
	"github.com/me/xbench/internal/netprobe"
	"github.com/me/xbench/pkg/model"
)

// Builder converts a configuration's nested workload grammar into a
// Schedule of Steps and Loads, applying defaults and invariant checks.
type Builder struct {
	validator *config.Validator
	logger    *slog.Logger
}

// NewBuilder creates a Builder routing inputs through the given validator.
func NewBuilder(v *config.Validator, logger *slog.Logger) *Builder {
	return &Builder{validator: v, logger: logger.With("component", "schedule-builder")}
}

// BuildFile loads, validates, and builds a schedule from a config file.
func (b *Builder) BuildFile(path string) (*model.Schedule, error) {
	cfg, err := config.Load(path, b.validator)
	if err != nil {
		return nil, err
	}
	return b.Build(cfg)
}

// BuildBytes validates and builds a schedule from raw config bytes.
func (b *Builder) BuildBytes(data []byte) (*model.Schedule, error) {
	cfg, err := config.Parse(data, b.validator)
	if err != nil {
		return nil, err
	}
	return b.Build(cfg)
}

// Build constructs a Schedule from a validated Config. Construction is
// all-or-nothing: any Info invariant failure or override reconciliation
// failure aborts the build, and no partial Schedule is ever returned.
// Step order follows configuration order; that order is the sequencing
// contract for execution.
func (b *Builder) Build(cfg *config.Config) (*model.Schedule, error) {
	info, err := b.topInfo(cfg)
	if err != nil {
		return nil, err
	}

	if len(cfg.Workloads) == 0 {
		return nil, model.NewConstraintError("config %q: empty workloads list", cfg.Name)
	}

	var steps []*model.Step
	totalLoads := 0
	for n, entry := range cfg.Workloads {
		step, err := b.buildStep(info, entry)
		if err != nil {
			return nil, fmt.Errorf("workloads[%d]: %w", n, err)
		}
		steps = append(steps, step)
		totalLoads += len(step.Workloads)
	}

	if totalLoads < info.MinWorkloads || totalLoads > info.MaxWorkloads {
		return nil, model.NewConstraintError(
			"config %q: %d workloads outside the permitted range [%d, %d]",
			cfg.Name, totalLoads, info.MinWorkloads, info.MaxWorkloads)
	}

	sched := &model.Schedule{Steps: steps, Info: info}
	if err := sched.Verify(); err != nil {
		return nil, err
	}
	b.logger.Info("schedule built", "name", info.Name, "steps", len(steps), "loads", totalLoads, "seed", info.Seed)
	return sched, nil
}

// buildStep maps one workloads entry onto a Step: a bare name or override
// mapping becomes a single-load step, a group becomes one step with one
// load per member.
func (b *Builder) buildStep(parent *model.Info, entry config.WorkloadEntry) (*model.Step, error) {
	var members []config.WorkloadEntry
	if entry.Kind == config.EntryGroup {
		members = entry.Group
	} else {
		members = []config.WorkloadEntry{entry}
	}

	loads := make([]*model.Load, 0, len(members))
	for _, member := range members {
		loadInfo := parent
		if member.Overrides != nil {
			derived, err := b.deriveInfo(parent, member.Workload, member.Overrides)
			if err != nil {
				return nil, err
			}
			loadInfo = derived
		}
		loads = append(loads, &model.Load{Workload: member.Workload, Info: loadInfo})
	}
	return &model.Step{Workloads: loads, Info: parent}, nil
}

// topInfo assembles the top-level Info from the config's constraint fields,
// applying declared defaults for omitted optional fields.
func (b *Builder) topInfo(cfg *config.Config) (*model.Info, error) {
	nodes := cfg.Nodes
	if len(nodes) == 0 {
		nodes = []string{netprobe.LocalNode}
	}
	level := cfg.LogLevel
	if level == "" {
		level = config.DefaultLogLevel
	}
	return model.NewInfo(model.Info{
		Name:         cfg.Name,
		Description:  cfg.Description,
		Nodes:        nodes,
		Debug:        cfg.Debug,
		LogLevel:     model.LogLevel(level),
		Seed:         int64Or(cfg.Seed, config.DefaultSeed),
		Args:         cfg.Args,
		MaxDuration:  intOr(cfg.Duration, config.DefaultDuration),
		Accelerators: intOr(cfg.Accelerators, config.DefaultAccelerators),
		MaxCores:     intOr(cfg.MaximumCores, 0),
		MaxThreads:   intOr(cfg.MaximumThreads, 0),
		MaxMemory:    intOr(cfg.MaximumMemory, 0),
		MinMemory:    intOr(cfg.MinimumMemory, config.DefaultMinMemory),
		MinCores:     intOr(cfg.MinimumCores, config.DefaultMinCores),
		MinThreads:   intOr(cfg.MinimumThreads, config.DefaultMinThreads),
		MinWorkloads: intOr(cfg.MinimumWorkloads, config.DefaultMinWorkloads),
		MaxWorkloads: intOr(cfg.MaximumWorkloads, config.DefaultMaxWorkloads),
		Delay:        intOr(cfg.Delay, config.DefaultDelay),
		Timeout:      intOr(cfg.Timeout, config.DefaultTimeout),
	})
}

// deriveInfo applies per-load override metadata on top of the parent Info
// and reconciles the result: a numeric override may tighten but never exceed
// the parent's value for the same field, and the derived Info must pass the
// full Info invariants. Violations are build-time constraint errors.
func (b *Builder) deriveInfo(parent *model.Info, workload string, ov *config.Overrides) (*model.Info, error) {
	derived := *parent

	if ov.Description != nil {
		derived.Description = *ov.Description
	}
	if ov.Args != nil {
		derived.Args = *ov.Args
	}
	if ov.Node != nil {
		derived.Nodes = []string{*ov.Node}
	}
	if ov.Debug != nil {
		derived.Debug = *ov.Debug
	}
	if ov.LogLevel != nil {
		derived.LogLevel = model.LogLevel(*ov.LogLevel)
	}

	type ceiling struct {
		field    string
		override *int
		parent   int
		dst      *int
	}
	for _, c := range []ceiling{
		{"max_duration", ov.MaxDuration, parent.MaxDuration, &derived.MaxDuration},
		{"timeout", ov.Timeout, parent.Timeout, &derived.Timeout},
		{"accelerators", ov.Accelerators, parent.Accelerators, &derived.Accelerators},
		{"max_cores", ov.MaxCores, parent.MaxCores, &derived.MaxCores},
		{"max_threads", ov.MaxThreads, parent.MaxThreads, &derived.MaxThreads},
		{"max_memory", ov.MaxMemory, parent.MaxMemory, &derived.MaxMemory},
	} {
		if c.override == nil {
			continue
		}
		if c.parent != 0 && *c.override > c.parent {
			return nil, model.NewConstraintError(
				"workload %q: %s override %d exceeds the schedule's %d",
				workload, c.field, *c.override, c.parent)
		}
		*c.dst = *c.override
	}

	return model.NewInfo(derived)
}

func intOr(v *int, def int) int {
	if v != nil {
		return *v
	}
	return def
}

func int64Or(v *int64, def int64) int64 {
	if v != nil {
		return *v
	}
	return def
}
