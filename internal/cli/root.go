// Package cli implements the xbench command verbs on top of the scheduling
// engine: run, schedule, list, check, the single-phase lifecycle verbs, the
// status server, and version.
package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/me/xbench/internal/config"
	"github.com/me/xbench/internal/logging"
	"github.com/me/xbench/internal/netprobe"
	"github.com/me/xbench/internal/runner"
	"github.com/me/xbench/internal/schedule"
	"github.com/me/xbench/internal/workload"
)

var (
	flagDebug        bool
	flagLogLevel     string
	flagLogFormat    string
	flagWorkloadsDir string
	flagDBPath       string

	logger   *slog.Logger
	registry *workload.Registry
	builder  *schedule.Builder
)

// Version is the program version reported by the version verb.
const Version = "0.1"

// NewRootCmd creates the root cobra command for the xbench CLI.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "xbench",
		Short: "xbench is a cluster benchmarking and validation scheduler",
		Long:  "xbench schedules and runs validation workloads across cluster nodes.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if flagDebug {
				flagLogLevel = "debug"
			}
			logger = logging.NewLogger(logging.ParseLevel(flagLogLevel), flagLogFormat)
			initComponents()
			return nil
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flagLogFormat, "log-format", "text", "Log format (text, json)")
	root.PersistentFlags().StringVar(&flagWorkloadsDir, "workloads-dir", "workloads", "Directory containing workload folders")
	root.PersistentFlags().StringVar(&flagDBPath, "db", "", "SQLite results database path (disabled when empty)")

	root.AddCommand(
		newRunCmd(),
		newScheduleCmd(),
		newListCmd(),
		newCheckCmd(),
		newGenerateCmd(),
		newServeCmd(),
		newVersionCmd(),
	)
	for _, phase := range []string{"setup", "teardown", "verify"} {
		root.AddCommand(newPhaseCmd(phase))
	}

	return root
}

// initComponents (re)builds the registry and builder against the current
// logger. The run verb calls it again once the config's log_level takes over,
// so the components in the running schedule log at that level too.
func initComponents() {
	registry = workload.NewRegistry(logger)
	if err := registry.LoadDir(flagWorkloadsDir); err != nil {
		logger.Warn("no workload folders loaded", "dir", flagWorkloadsDir, "error", err)
	}
	validator := config.NewValidator(logger)
	if names := registry.Names(); len(names) > 0 {
		validator = validator.WithKnownWorkloads(names)
	}
	builder = schedule.NewBuilder(validator, logger)
}

// proberFor builds the node reachability prober shared by the run verbs.
func proberFor() netprobe.Prober {
	return netprobe.New(logger, 0)
}

// newRunner wires a Runner for the single-workload verbs.
func newRunner(outDir string) *runner.Runner {
	return runner.New(registry, proberFor(), logger, runner.WithOutDir(outDir))
}
