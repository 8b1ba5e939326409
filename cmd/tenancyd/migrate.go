package main

import (
	"github.com/spf13/cobra"
)

func newMigrateCommand(load func() (*config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := setup(cmd.Context(), load)
			if err != nil {
				return err
			}
			defer rt.close()

			if err := rt.store.Migrate(cmd.Context()); err != nil {
				return err
			}
			rt.zap.Info("migrations applied")
			return nil
		},
	}
}
