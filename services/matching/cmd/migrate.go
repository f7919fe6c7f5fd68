package main

import (
	"fmt"

	"skillmatch/common/database/schema"
	"skillmatch/common/database/schema/migrations"
	"skillmatch/services/matching/internal/config"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rollback bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending ClickHouse migrations",
	RunE:  runMigrate,
}

func init() {
	migrateCmd.Flags().BoolVar(&rollback, "rollback", false, "roll back the most recently applied migration")
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	db, err := openDatabase(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	migrator := schema.NewMigrator(db.Conn(), logger)

	if rollback {
		return rollbackLatest(cmd, migrator, logger)
	}

	applied, err := migrator.Migrate(cmd.Context(), migrations.All)
	if err != nil {
		return err
	}
	logger.Info("migrations complete", zap.Int("applied", applied))
	return nil
}

func rollbackLatest(cmd *cobra.Command, migrator *schema.Migrator, logger *zap.Logger) error {
	if err := migrator.CreateMigrationsTable(cmd.Context()); err != nil {
		return err
	}
	applied, err := migrator.GetAppliedMigrations(cmd.Context())
	if err != nil {
		return err
	}

	latest := -1
	for version := range applied {
		latest = max(latest, version)
	}
	if latest < 0 {
		logger.Info("no migrations to roll back")
		return nil
	}

	for _, m := range migrations.All {
		if m.Version == latest {
			if err := migrator.RollbackMigration(cmd.Context(), m); err != nil {
				return err
			}
			logger.Info("rolled back migration", zap.Int("version", m.Version))
			return nil
		}
	}
	return fmt.Errorf("applied migration %d is not known to this binary", latest)
}
