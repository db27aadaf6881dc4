package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newPhaseCmd builds one of the single-phase verbs (setup, teardown,
// verify) that drive a lone workload through that lifecycle phase locally.
func newPhaseCmd(phase string) *cobra.Command {
	return &cobra.Command{
		Use:   fmt.Sprintf("%s <workload>", phase),
		Short: fmt.Sprintf("Run the %s phase of a workload", phase),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r := newRunner("results")
			if err := r.LifecyclePhase(cmd.Context(), args[0], phase, nil); err != nil {
				return err
			}
			fmt.Printf("Workload %q %s complete.\n", args[0], phase)
			return nil
		},
	}
}
