package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/me/xbench/internal/store"
	"github.com/me/xbench/internal/workload"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available workloads and recorded runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := workload.List(flagWorkloadsDir)
			if err != nil {
				return err
			}
			if len(names) == 0 {
				fmt.Println("No workloads found.")
			} else {
				fmt.Printf("%-16s  %-12s  %s\n", "WORKLOAD", "BINARY", "DESCRIPTION")
				for _, name := range names {
					cfg, err := workload.LoadConfig(flagWorkloadsDir + "/" + name)
					if err != nil {
						fmt.Printf("%-16s  (invalid: %v)\n", name, err)
						continue
					}
					fmt.Printf("%-16s  %-12s  %s\n", cfg.Name, cfg.Binary, cfg.Description)
				}
			}

			if flagDBPath == "" {
				return nil
			}
			st, err := store.NewSQLiteStore(flagDBPath, logger)
			if err != nil {
				return err
			}
			defer st.Close()
			if err := st.Migrate(cmd.Context()); err != nil {
				return err
			}
			runs, err := st.ListRuns(cmd.Context())
			if err != nil {
				return fmt.Errorf("list runs: %w", err)
			}
			if len(runs) == 0 {
				fmt.Println("\nNo runs recorded.")
				return nil
			}
			fmt.Printf("\n%-40s  %-10s  %-20s  %s\n", "RUN", "STATE", "NAME", "STARTED")
			for _, run := range runs {
				fmt.Printf("%-40s  %-10s  %-20s  %s\n", run.ID, run.State, run.Name, humanize.Time(run.CreatedAt))
			}
			return nil
		},
	}
}
