package main

import (
	"context"

	"skillmatch/services/matching/internal/catalog"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

var embedCmd = &cobra.Command{
	Use:   "embed",
	Short: "Validate the embedding cache, rebuilding it when stale",
	RunE:  runEmbed,
}

func init() {
	rootCmd.AddCommand(embedCmd)
}

// runEmbed builds the catalog and exits; the cache file is the product.
func runEmbed(cmd *cobra.Command, args []string) error {
	app := fx.New(
		catalogModule,
		fx.Invoke(func(*catalog.Catalog) {}),
	)
	if err := app.Err(); err != nil {
		return err
	}
	if err := app.Start(cmd.Context()); err != nil {
		return err
	}
	return app.Stop(context.Background())
}
