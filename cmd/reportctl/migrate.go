package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"medreport-backend/internal/bootstrap"
	"medreport-backend/internal/shared/config"
)

func newMigrateCmd(load func() config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply SQL migrations to the configured store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			cfg := load()
			if err := bootstrap.Migrate(ctx, cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "migrated %s\n", cfg.ReportStore)
			return nil
		},
	}
}
