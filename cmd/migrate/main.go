package main

// Run database migrations:
//   go run ./cmd/migrate
//   REPORT_STORE=sqlite go run ./cmd/migrate

import (
	"context"
	"os"

	"medreport-backend/internal/bootstrap"
	"medreport-backend/internal/shared/config"
	"medreport-backend/internal/shared/telemetry"
)

func main() {
	cfg := config.Load()
	if err := bootstrap.Migrate(context.Background(), cfg); err != nil {
		telemetry.Error("migrate.failed", map[string]any{"store": cfg.ReportStore, "error": err})
		os.Exit(1)
	}
	telemetry.Info("migrate.done", map[string]any{"store": cfg.ReportStore})
}
