package main

import (
	"fmt"

	"skillmatch/services/matching/internal/config"
	"skillmatch/services/matching/internal/dataset"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var importCmd = &cobra.Command{
	Use:   "import [csv]",
	Short: "Load a job dataset CSV into the ClickHouse job_catalog table",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	path := cfg.DatasetPath
	if len(args) == 1 {
		path = args[0]
	}

	postings, err := dataset.NewCSVSource(path).Load(cmd.Context())
	if err != nil {
		return err
	}

	db, err := openDatabase(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := dataset.NewClickHouseSource(db.Conn(), logger).Import(cmd.Context(), postings); err != nil {
		return fmt.Errorf("importing %s: %w", path, err)
	}

	logger.Info("dataset imported", zap.String("path", path), zap.Int("postings", len(postings)))
	return nil
}
