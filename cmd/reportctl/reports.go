package main

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"medreport-backend/internal/reports"
	"medreport-backend/internal/shared/config"
)

func newReportsCmd(build buildFunc, load func() config.Config) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "reports <userId>",
		Short: "List the most recent reports of a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			app, err := build(ctx, load())
			if err != nil {
				return err
			}
			defer app.Close()

			items, err := app.ReportsRepo.ListByUser(ctx, args[0], limit)
			if err != nil {
				return err
			}
			if items == nil {
				items = []reports.Report{}
			}
			return writeJSON(cmd.OutOrStdout(), gin.H{"success": true, "reports": items})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", reports.HistoryLimit, "maximum number of reports")
	return cmd
}
