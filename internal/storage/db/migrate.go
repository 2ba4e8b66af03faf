package db

import (
	"context"
	"embed"
	"fmt"
	"slices"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

const migrationsDir = "migrations"

// MigrateCommands lists the goose commands accepted by RunMigration.
var MigrateCommands = []string{"up", "up-by-one", "down", "redo", "reset", "status", "version"}

// Migrate applies every pending embedded migration.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	return RunMigration(ctx, pool, "up")
}

// RunMigration runs a goose command against the embedded migrations.
func RunMigration(ctx context.Context, pool *pgxpool.Pool, command string, args ...string) error {
	if !slices.Contains(MigrateCommands, command) {
		return fmt.Errorf("unsupported migrate command %q", command)
	}

	sqlDB := stdlib.OpenDBFromPool(pool)
	defer sqlDB.Close()

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	if err := goose.RunContext(ctx, command, sqlDB, migrationsDir, args...); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}

	return nil
}
