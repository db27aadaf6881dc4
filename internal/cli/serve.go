package cli

import (
	"github.com/spf13/cobra"

	"github.com/me/xbench/internal/server"
	"github.com/me/xbench/internal/store"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the read-only status and results API",
		RunE: func(cmd *cobra.Command, args []string) error {
			var st store.Store
			if flagDBPath != "" {
				sqlStore, err := store.NewSQLiteStore(flagDBPath, logger)
				if err != nil {
					return err
				}
				defer sqlStore.Close()
				if err := sqlStore.Migrate(cmd.Context()); err != nil {
					return err
				}
				st = sqlStore
			}

			srv := server.New(server.Config{Addr: addr}, st, registry, builder, logger)
			return srv.ListenAndServe()
		},
	}

	cmd.Flags().StringVar(&addr, "addr", server.DefaultConfig().Addr, "Listen address")
	return cmd
}
