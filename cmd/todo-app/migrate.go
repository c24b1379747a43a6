package main

import (
	"github.com/spf13/cobra"

	"tasks-api/internal/logger"
)

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			s, err := a.openStorage(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.Migrate(ctx); err != nil {
				return err
			}
			logger.Info(ctx, "migration finished", "driver", a.cfg.DBDriver)
			return nil
		},
	}
}
