// Package runner walks a verified Schedule: it checks node reachability,
// then drives every load through setup, run, and teardown, step by step.
// Steps are strict barriers; the loads of one step execute concurrently.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/me/xbench/internal/netprobe"
	"github.com/me/xbench/internal/proc"
	"github.com/me/xbench/internal/random"
	"github.com/me/xbench/internal/workload"
	"github.com/me/xbench/pkg/model"
)

// Runner executes schedules. All collaborators are injected; the shared
// random stream is reseeded at every step entry for reproducibility.
type Runner struct {
	registry *workload.Registry
	prober   netprobe.Prober
	proc     proc.Runner
	deployer Deployer
	rand     *random.Stream
	outDir   string
	logger   *slog.Logger
}

// Option configures optional Runner collaborators.
type Option func(*Runner)

// WithProc substitutes the command runner handed to workloads.
func WithProc(p proc.Runner) Option {
	return func(r *Runner) { r.proc = p }
}

// WithDeployer substitutes the remote-dispatch collaborator.
func WithDeployer(d Deployer) Option {
	return func(r *Runner) { r.deployer = d }
}

// WithRand substitutes the shared random stream.
func WithRand(s *random.Stream) Option {
	return func(r *Runner) { r.rand = s }
}

// WithOutDir sets the directory workload logs and outputs land in.
func WithOutDir(dir string) Option {
	return func(r *Runner) { r.outDir = dir }
}

// New creates a Runner.
func New(reg *workload.Registry, prober netprobe.Prober, logger *slog.Logger, opts ...Option) *Runner {
	r := &Runner{
		registry: reg,
		prober:   prober,
		proc:     proc.NewExecRunner(logger),
		deployer: NewStubDeployer(logger),
		rand:     random.New(0),
		outDir:   "results",
		logger:   logger.With("component", "runner"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Rand exposes the shared stream, mainly so determinism can be observed in
// tests and by workloads resolved outside a run.
func (r *Runner) Rand() *random.Stream {
	return r.rand
}

// Run executes a schedule and returns the aggregated per-load outputs. Any
// unreachable node aborts before a single workload starts. A lifecycle error
// aborts the remaining phases of the current step and every later step; the
// partial result collected so far is returned alongside the error.
func (r *Runner) Run(ctx context.Context, sched *model.Schedule) (*model.RunResult, error) {
	if err := sched.Verify(); err != nil {
		return nil, err
	}
	for _, node := range sched.Info.Nodes {
		if !r.prober.Reachable(ctx, node) {
			return nil, &model.APIError{
				Code:    model.ErrConnectivity,
				Message: fmt.Sprintf("cannot connect to node %q", node),
			}
		}
	}

	result := &model.RunResult{}
	mods := newResolutionTable()
	for n, step := range sched.Steps {
		if n > 0 && sched.Info.Delay > 0 {
			select {
			case <-time.After(sched.Info.DelayDuration()):
			case <-ctx.Done():
				return result, ctx.Err()
			}
		}
		if err := r.runStep(ctx, n, step, mods, result); err != nil {
			return result, fmt.Errorf("step %d: %w", n, err)
		}
	}
	r.logger.Info("schedule complete", "name", sched.Info.Name, "results", len(result.Results))
	return result, nil
}

// runStep reseeds the shared stream, then sweeps setup, run, and teardown
// across the step's loads. Each phase is a barrier: the next phase starts
// only after every load finished the current one, and a phase error stops
// the step there. The step's phases share a timeout derived from its Info.
func (r *Runner) runStep(ctx context.Context, n int, step *model.Step, mods *resolutionTable, result *model.RunResult) error {
	r.rand.Seed(step.Info.Seed)
	r.logger.Info("step starting", "step", n, "loads", len(step.Workloads), "seed", step.Info.Seed)

	stepCtx, cancel := context.WithTimeout(ctx, step.Info.TimeoutDuration())
	defer cancel()

	if err := r.phase(stepCtx, step, r.setupLoad(mods)); err != nil {
		return fmt.Errorf("setup: %w", err)
	}
	if err := r.phase(stepCtx, step, r.runLoad(n, mods, result)); err != nil {
		return fmt.Errorf("run: %w", err)
	}
	if err := r.phase(stepCtx, step, r.teardownLoad(mods)); err != nil {
		return fmt.Errorf("teardown: %w", err)
	}
	return nil
}

// phase applies fn to every load of the step concurrently and waits for all
// of them. Errors from concurrent loads are joined.
func (r *Runner) phase(ctx context.Context, step *model.Step, fn func(ctx context.Context, load *model.Load) error) error {
	var wg sync.WaitGroup
	errs := make([]error, len(step.Workloads))
	for i, load := range step.Workloads {
		wg.Add(1)
		go func(i int, load *model.Load) {
			defer wg.Done()
			errs[i] = fn(ctx, load)
		}(i, load)
	}
	wg.Wait()
	return errors.Join(errs...)
}

// setupLoad resolves the workload for each local node (once per load per
// run) and invokes its setup. Non-local nodes go to the deployer.
func (r *Runner) setupLoad(mods *resolutionTable) func(ctx context.Context, load *model.Load) error {
	return func(ctx context.Context, load *model.Load) error {
		for _, node := range load.Info.Nodes {
			if !netprobe.IsLocal(node) {
				if err := r.deployer.Deploy(ctx, node, load); err != nil {
					return err
				}
				continue
			}
			mod, err := mods.resolve(r.registry, load)
			if err != nil {
				return err
			}
			if err := mod.Setup(ctx, r.env(load, node)); err != nil {
				return fmt.Errorf("workload %s on %s: %w", load.Workload, node, err)
			}
		}
		return nil
	}
}

// runLoad invokes run on every locally resolved load and records the output.
func (r *Runner) runLoad(step int, mods *resolutionTable, result *model.RunResult) func(ctx context.Context, load *model.Load) error {
	var mu sync.Mutex
	return func(ctx context.Context, load *model.Load) error {
		for _, node := range load.Info.Nodes {
			if !netprobe.IsLocal(node) {
				continue // dispatched by the deployer during setup
			}
			mod, ok := mods.get(load)
			if !ok {
				return fmt.Errorf("workload %s was never set up", load.Workload)
			}
			out, err := mod.Run(ctx, r.env(load, node))
			if err != nil {
				return fmt.Errorf("workload %s on %s: %w", load.Workload, node, err)
			}
			if out != nil {
				mu.Lock()
				result.Results = append(result.Results, model.LoadResult{
					Step:     step,
					Node:     node,
					Workload: load.Workload,
					Output:   *out,
				})
				mu.Unlock()
			}
		}
		return nil
	}
}

func (r *Runner) teardownLoad(mods *resolutionTable) func(ctx context.Context, load *model.Load) error {
	return func(ctx context.Context, load *model.Load) error {
		for _, node := range load.Info.Nodes {
			if !netprobe.IsLocal(node) {
				continue
			}
			mod, ok := mods.get(load)
			if !ok {
				continue
			}
			if err := mod.Teardown(ctx, r.env(load, node)); err != nil {
				return fmt.Errorf("workload %s on %s: %w", load.Workload, node, err)
			}
		}
		return nil
	}
}

func (r *Runner) env(load *model.Load, node string) *workload.Env {
	return &workload.Env{
		Info:   load.Info,
		Node:   node,
		Rand:   r.rand,
		Proc:   r.proc,
		Logger: r.logger,
		OutDir: r.outDir,
	}
}

// resolutionTable is the side lookup table workload resolution caches into,
// keyed by load identity. Keeping it on the runner leaves Load values
// immutable and trivially serializable.
type resolutionTable struct {
	mu   sync.Mutex
	mods map[*model.Load]workload.Workload
}

func newResolutionTable() *resolutionTable {
	return &resolutionTable{mods: make(map[*model.Load]workload.Workload)}
}

// resolve returns the cached workload for load, constructing it on first use.
func (t *resolutionTable) resolve(reg *workload.Registry, load *model.Load) (workload.Workload, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if mod, ok := t.mods[load]; ok {
		return mod, nil
	}
	mod, err := reg.Resolve(load.Workload)
	if err != nil {
		return nil, err
	}
	t.mods[load] = mod
	return mod, nil
}

func (t *resolutionTable) get(load *model.Load) (workload.Workload, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	mod, ok := t.mods[load]
	return mod, ok
}
