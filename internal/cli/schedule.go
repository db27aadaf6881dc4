package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/me/xbench/internal/schedule"
)

func newScheduleCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "schedule <config-file>",
		Short: "Build a schedule from a config and save it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sched, err := builder.BuildFile(args[0])
			if err != nil {
				return err
			}
			if err := schedule.Save(sched, out); err != nil {
				return err
			}
			fmt.Printf("Schedule %q saved to %s: %d steps, seed %d, min memory %s, timeout %s\n",
				sched.Info.Name, out, len(sched.Steps), sched.Info.Seed,
				humanize.IBytes(uint64(sched.Info.MinMemory)<<30), sched.Info.TimeoutDuration())
			for n, names := range sched.WorkloadNames() {
				fmt.Printf("  step %d: %v\n", n, names)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", schedule.DefaultFileName, "Schedule output file")
	return cmd
}
