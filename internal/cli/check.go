package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/me/xbench/internal/workload"
)

func newCheckCmd() *cobra.Command {
	var (
		example  bool
		exercise bool
	)

	cmd := &cobra.Command{
		Use:   "check <workload>",
		Short: "Check a workload folder is in a good state",
		Long: `Checks the workload folder contract: the folder exists, its config
decodes, and the identity attributes are present. With --exercise the
workload is additionally driven through its full lifecycle locally.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := workload.CheckIntegrity(flagWorkloadsDir, args[0], example); err != nil {
				return err
			}
			fmt.Printf("Workload %q is valid.\n", args[0])

			if !exercise {
				return nil
			}
			out, err := newRunner("results").RunWorkload(cmd.Context(), args[0], nil)
			if err != nil {
				return err
			}
			fmt.Printf("Workload %q lifecycle complete (rc=%d).\n", args[0], out.ReturnCode)
			return nil
		},
	}

	cmd.Flags().BoolVar(&example, "example", false, "Apply the relaxed example-folder binary rules")
	cmd.Flags().BoolVar(&exercise, "exercise", false, "Run the full workload lifecycle after checking")
	return cmd
}

func newGenerateCmd() *cobra.Command {
	var example string

	cmd := &cobra.Command{
		Use:   "generate <name>",
		Short: "Scaffold a new workload folder from the example",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := workload.Generate(flagWorkloadsDir, args[0], example); err != nil {
				return err
			}
			fmt.Printf("Workload %q generated under %s.\n", args[0], flagWorkloadsDir)
			return nil
		},
	}

	cmd.Flags().StringVar(&example, "example", workload.ExampleName, "Workload folder to copy from")
	return cmd
}
