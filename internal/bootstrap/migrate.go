package bootstrap

import (
	"context"
	"database/sql"
	"fmt"

	"medreport-backend/internal/shared/config"
	"medreport-backend/internal/shared/storage/db"
)

// Migrate applies the SQL migrations of the configured report store.
func Migrate(ctx context.Context, cfg config.Config) error {
	var (
		conn    *sql.DB
		dialect db.Dialect
		err     error
	)
	switch cfg.ReportStore {
	case "postgres":
		dialect = db.DialectPostgres
		conn, err = db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultMigrateOptions()))
	case "sqlite":
		dialect = db.DialectSQLite
		conn, err = db.ConnectSQLite(ctx, cfg.SQLitePath, db.SQLiteOptions())
	default:
		return fmt.Errorf("store %q has no SQL migrations", cfg.ReportStore)
	}
	if err != nil {
		return err
	}
	defer conn.Close()
	return db.RunMigrations(ctx, conn, dialect)
}
