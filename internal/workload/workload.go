// Package workload defines the four-phase lifecycle contract every
// benchmarking workload implements, the registry that resolves workload
// names to constructors, and the filesystem workload-folder contract.
package workload

import (
	"context"
	"log/slog"

	"github.com/me/xbench/internal/proc"
	"github.com/me/xbench/internal/random"
	"github.com/me/xbench/pkg/model"
)

// Env is the execution environment handed to every lifecycle phase: the
// constraints governing the load, the node it runs on, the shared seeded
// random stream, and the command runner.
type Env struct {
	Info   *model.Info
	Node   string
	Rand   *random.Stream
	Proc   proc.Runner
	Logger *slog.Logger
	OutDir string
}

// Workload is the lifecycle contract: setup, run, teardown, verify, plus
// the three identity attributes. The runner only ever sees instrumented
// workloads (see Instrument), so phase-entry bookkeeping cannot be skipped
// by an implementation.
type Workload interface {
	Name() string
	Binary() string
	Description() string

	Setup(ctx context.Context, env *Env) error
	Run(ctx context.Context, env *Env) (*model.WorkloadOutput, error)
	Teardown(ctx context.Context, env *Env) error
	Verify(ctx context.Context, env *Env) error
}

// instrumented wraps a Workload so the common phase-entry logging always
// happens before the implementation's own phase body.
type instrumented struct {
	w      Workload
	logger *slog.Logger
}

// Instrument returns w wrapped with unskippable phase bookkeeping.
func Instrument(w Workload, logger *slog.Logger) Workload {
	return &instrumented{w: w, logger: logger.With("workload", w.Name())}
}

func (i *instrumented) Name() string        { return i.w.Name() }
func (i *instrumented) Binary() string      { return i.w.Binary() }
func (i *instrumented) Description() string { return i.w.Description() }

func (i *instrumented) Setup(ctx context.Context, env *Env) error {
	i.logger.Info("setting up workload", "node", env.Node)
	return i.w.Setup(ctx, env)
}

func (i *instrumented) Run(ctx context.Context, env *Env) (*model.WorkloadOutput, error) {
	i.logger.Info("running workload", "node", env.Node)
	return i.w.Run(ctx, env)
}

func (i *instrumented) Teardown(ctx context.Context, env *Env) error {
	i.logger.Info("tearing down workload", "node", env.Node)
	return i.w.Teardown(ctx, env)
}

func (i *instrumented) Verify(ctx context.Context, env *Env) error {
	i.logger.Info("verifying workload", "node", env.Node)
	return i.w.Verify(ctx, env)
}
