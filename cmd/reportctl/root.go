package main

import (
	"context"
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"medreport-backend/internal/bootstrap"
	"medreport-backend/internal/shared/config"
)

// buildFunc assembles the application for one command invocation.
type buildFunc func(ctx context.Context, cfg config.Config) (*bootstrap.App, error)

var version = "dev"

func newRootCmd(build buildFunc) *cobra.Command {
	var store string
	root := &cobra.Command{
		Use:           "reportctl",
		Short:         "Analyze medical report images and inspect stored reports",
		SilenceUsage:  true,
		SilenceErrors: false,
		Version:       version,
	}
	root.PersistentFlags().StringVar(&store, "store", "", "override REPORT_STORE (memory, sqlite, postgres, mongo)")

	load := func() config.Config {
		cfg := config.Load()
		if store != "" {
			cfg.ReportStore = store
		}
		return cfg
	}

	root.AddCommand(newAnalyzeCmd(build, load))
	root.AddCommand(newReportsCmd(build, load))
	root.AddCommand(newMigrateCmd(load))
	return root
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
