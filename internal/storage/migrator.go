package storage

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrations embed.FS

func RunMigrations(ctx context.Context, db *sql.DB, logger *zap.Logger) error {
	const operation = "storage.RunMigrations"

	logger.Info("Running database migrations...")

	goose.SetBaseFS(migrations)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("%s: failed to set dialect: %w", operation, err)
	}

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("%s: failed to run migrations: %w", operation, err)
	}

	logger.Info("Database migrations completed successfully")
	return nil
}
