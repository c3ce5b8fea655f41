package main

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"medreport-backend/internal/ocr"
	"medreport-backend/internal/pipeline"
	"medreport-backend/internal/shared/config"
	"medreport-backend/internal/uploads"
)

func newAnalyzeCmd(build buildFunc, load func() config.Config) *cobra.Command {
	var (
		userID string
		save   bool
	)
	cmd := &cobra.Command{
		Use:   "analyze <image>",
		Short: "Run the analysis pipeline on a local image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			upload, err := uploads.FromFile(args[0])
			if err != nil {
				return err
			}
			app, err := build(ctx, load())
			if err != nil {
				return err
			}
			defer app.Close()

			p := app.Pipeline
			if !save {
				p = pipeline.New(ocr.NewExtractor(app.OCR), app.Completer, nil)
			}
			run := p.Execute(ctx, userID, upload)
			if run.Failure != nil {
				_ = writeJSON(cmd.OutOrStdout(), gin.H{
					"success": false,
					"error":   run.Failure.Message,
					"details": run.Failure.Details,
				})
				return fmt.Errorf("analysis failed at %s: %s", run.Failure.Stage, run.Failure.Kind)
			}
			if save && !run.Saved {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning: report was not saved")
			}
			return writeJSON(cmd.OutOrStdout(), pipeline.Response(run))
		},
	}
	cmd.Flags().StringVar(&userID, "user", "cli", "user id the report belongs to")
	cmd.Flags().BoolVar(&save, "save", false, "persist the report to the configured store")
	return cmd
}
