// Command seed applies migrations and upserts the built-in course catalog.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"qadamsafe/internal/config"
	"qadamsafe/internal/database"
	"qadamsafe/internal/logger"
	"qadamsafe/internal/seed"
	"qadamsafe/pkg/migration"

	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "seed failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig(".env")
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(logger.Config{Level: cfg.LogLevel, Encoding: cfg.LogEncoding, Service: "qadamsafe-seed"})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := database.ConnectPostgres(ctx, database.PostgresOptions{DSN: cfg.PostgresDSN(), MaxConns: 2}, log)
	if err != nil {
		return err
	}
	defer pool.Close()

	migrator := migration.NewMigrator(migration.Config{
		MigrationsFS:   database.MigrationsFS,
		MigrationsPath: database.MigrationsPath,
	}, pool)
	if err := migrator.Up(ctx); err != nil {
		return err
	}

	catalog, err := seed.LoadCatalog()
	if err != nil {
		return err
	}
	seeder := seed.NewSeeder(
		database.NewPgScenarioRepository(pool, log),
		database.NewPgAchievementRepository(pool, log),
		log,
	)
	if err := seeder.Run(ctx, catalog); err != nil {
		return err
	}
	log.Info("Seed finished", zap.Int("scenarios", len(catalog.Scenarios)))
	return nil
}
