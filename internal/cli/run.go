package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/me/xbench/internal/logging"
	"github.com/me/xbench/internal/random"
	"github.com/me/xbench/internal/runner"
	"github.com/me/xbench/internal/schedule"
	"github.com/me/xbench/internal/store"
	"github.com/me/xbench/pkg/model"
)

func newRunCmd() *cobra.Command {
	var (
		fromSchedule bool
		outDir       string
		seed         int64
	)

	cmd := &cobra.Command{
		Use:   "run <config-file>",
		Short: "Build a schedule from a config and run it",
		Long: `Builds a schedule from the given configuration file and executes it.
With --from-schedule the file is treated as a previously saved schedule
instead of a configuration.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var sched *model.Schedule
			var err error
			if fromSchedule {
				sched, err = schedule.Load(args[0])
			} else {
				sched, err = builder.BuildFile(args[0])
			}
			if err != nil {
				return err
			}
			// The config's log_level applies unless the flags already chose
			// one. The registry and builder are rebuilt so the components
			// involved in the run follow it as well.
			if !cmd.Flags().Changed("log-level") && !flagDebug {
				logger = logging.NewLogger(logging.FromInfoLevel(sched.Info.LogLevel), flagLogFormat)
				initComponents()
			}
			if cmd.Flags().Changed("seed") {
				if seed < 0 || seed > model.MaxSeed {
					return fmt.Errorf("seed %d out of range [0, %d]", seed, model.MaxSeed)
				}
				reseed(sched, seed)
			}

			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return fmt.Errorf("create output dir: %w", err)
			}

			r := runner.New(registry, proberFor(), logger,
				runner.WithOutDir(outDir),
				runner.WithRand(random.New(sched.Info.Seed)),
			)
			return executeAndRecord(cmd.Context(), r, sched)
		},
	}

	cmd.Flags().BoolVar(&fromSchedule, "from-schedule", false, "Treat the input file as a saved schedule")
	cmd.Flags().StringVarP(&outDir, "out", "o", "results", "Output directory for workload results")
	cmd.Flags().Int64VarP(&seed, "seed", "S", 0, "Override the schedule seed")

	return cmd
}

// executeAndRecord runs the schedule and, when a results database is
// configured, records the run and every workload output in it. The run
// error, if any, is surfaced verbatim after recording.
func executeAndRecord(ctx context.Context, r *runner.Runner, sched *model.Schedule) error {
	var st store.Store
	if flagDBPath != "" {
		var err error
		st, err = store.NewSQLiteStore(flagDBPath, logger)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.Migrate(ctx); err != nil {
			return err
		}
	}

	run := &model.Run{
		ID:        "run_" + uuid.New().String(),
		Name:      sched.Info.Name,
		Seed:      sched.Info.Seed,
		State:     model.RunStateRunning,
		CreatedAt: time.Now().UTC(),
	}
	if st != nil {
		if err := st.CreateRun(ctx, run); err != nil {
			return fmt.Errorf("record run: %w", err)
		}
	}

	result, runErr := r.Run(ctx, sched)

	now := time.Now().UTC()
	run.CompletedAt = &now
	if runErr != nil {
		run.State = model.RunStateFailed
		run.Error = runErr.Error()
	} else {
		run.State = model.RunStateCompleted
	}

	if st != nil {
		if result != nil {
			for _, lr := range result.Results {
				if err := st.AddResult(ctx, run.ID, lr); err != nil {
					logger.Error("record result", "workload", lr.Workload, "error", err)
				}
			}
		}
		if err := st.UpdateRun(ctx, run); err != nil {
			logger.Error("finalize run record", "run_id", run.ID, "error", err)
		}
	}

	if runErr != nil {
		return runErr
	}

	fmt.Printf("Run %s completed: %d workload results\n", run.ID, len(result.Results))
	for _, lr := range result.Results {
		fmt.Printf("  step %d  %-12s node=%-10s rc=%d\n", lr.Step, lr.Workload, displayNode(lr.Node), lr.Output.ReturnCode)
	}
	return nil
}

// reseed pushes an overriding seed into every Info of the schedule.
func reseed(sched *model.Schedule, seed int64) {
	sched.Info.Seed = seed
	for _, step := range sched.Steps {
		step.Info.Seed = seed
		for _, load := range step.Workloads {
			load.Info.Seed = seed
		}
	}
}

func displayNode(node string) string {
	if node == "" || node == "." {
		return "local"
	}
	return node
}
