package runner

import (
	"context"
	"fmt"

	"github.com/me/xbench/internal/config"
	"github.com/me/xbench/internal/netprobe"
	"github.com/me/xbench/pkg/model"
)

// RunWorkload drives a single named workload through its full lifecycle
// (setup, run, teardown, verify) on the local node, outside any schedule.
// It backs the check/setup/teardown/verify CLI verbs. info may be nil, in
// which case a minimal default context is used.
func (r *Runner) RunWorkload(ctx context.Context, name string, info *model.Info) (*model.WorkloadOutput, error) {
	mod, err := r.registry.Resolve(name)
	if err != nil {
		return nil, err
	}
	load := &model.Load{Workload: name, Info: defaultInfo(name, info)}
	env := r.env(load, "")

	if err := mod.Setup(ctx, env); err != nil {
		return nil, fmt.Errorf("workload %s: setup: %w", name, err)
	}
	out, err := mod.Run(ctx, env)
	if err != nil {
		return nil, fmt.Errorf("workload %s: run: %w", name, err)
	}
	if err := mod.Teardown(ctx, env); err != nil {
		return out, fmt.Errorf("workload %s: teardown: %w", name, err)
	}
	if err := mod.Verify(ctx, env); err != nil {
		return out, fmt.Errorf("workload %s: verify: %w", name, err)
	}
	return out, nil
}

// LifecyclePhase invokes a single named lifecycle phase of a workload on the
// local node.
func (r *Runner) LifecyclePhase(ctx context.Context, name, phase string, info *model.Info) error {
	mod, err := r.registry.Resolve(name)
	if err != nil {
		return err
	}
	load := &model.Load{Workload: name, Info: defaultInfo(name, info)}
	env := r.env(load, "")

	switch phase {
	case "setup":
		return mod.Setup(ctx, env)
	case "run":
		_, err := mod.Run(ctx, env)
		return err
	case "teardown":
		return mod.Teardown(ctx, env)
	case "verify":
		return mod.Verify(ctx, env)
	default:
		return fmt.Errorf("unknown lifecycle phase %q", phase)
	}
}

// defaultInfo substitutes a minimal local-node context when no Info was given.
func defaultInfo(name string, info *model.Info) *model.Info {
	if info != nil {
		return info
	}
	return &model.Info{
		Name:         name,
		Description:  "ad hoc " + name,
		Nodes:        []string{netprobe.LocalNode},
		LogLevel:     model.LogLevel(config.DefaultLogLevel),
		Seed:         config.DefaultSeed,
		MaxDuration:  config.DefaultDuration,
		Accelerators: config.DefaultAccelerators,
		MinMemory:    config.DefaultMinMemory,
		MinCores:     config.DefaultMinCores,
		MinThreads:   config.DefaultMinThreads,
		MinWorkloads: config.DefaultMinWorkloads,
		MaxWorkloads: config.DefaultMaxWorkloads,
		Timeout:      config.DefaultTimeout,
	}
}
