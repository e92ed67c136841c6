package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/workpulse/work-pulse/internal/migrations"
	"github.com/workpulse/work-pulse/pkg/database"
)

func newMigrateCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := root.load()
			if err != nil {
				return err
			}
			defer func() { _ = log.Close() }()

			ctx := cmd.Context()
			db, err := database.NewPostgres(ctx, database.FromAppConfig(cfg.Database))
			if err != nil {
				return fmt.Errorf("failed to connect to postgres: %w", err)
			}
			defer db.Close()

			applied, err := migrations.Apply(ctx, db.Pool(), log)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(applied) == 0 {
				fmt.Fprintln(out, "schema is up to date")
				return nil
			}
			for _, name := range applied {
				fmt.Fprintln(out, "applied", name)
			}
			return nil
		},
	}
}
