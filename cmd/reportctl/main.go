package main

import (
	"context"
	"os"

	"medreport-backend/internal/bootstrap"
	"medreport-backend/internal/shared/config"
)

func main() {
	root := newRootCmd(func(ctx context.Context, cfg config.Config) (*bootstrap.App, error) {
		return bootstrap.BuildWith(ctx, cfg, bootstrap.Options{})
	})
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
