package main

import (
	"context"
	"fmt"

	"github.com/clem/episcan/internal/config"
	"github.com/clem/episcan/internal/report"
	"github.com/clem/episcan/internal/store"
	"github.com/clem/episcan/internal/tmdb"
	"github.com/clem/episcan/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var metadataCmd = &cobra.Command{
	Use:   "metadata",
	Short: "Fetch show metadata from TMDB for scanned shows",
	Long: `Fetch rating, overview and genres from TMDB for every show recorded in
the database. Shows with complete metadata younger than
--metadata-cache-hours are skipped.

Requires --tmdb-api-key (or EPISCAN_TMDB_API_KEY).`,
	RunE: runMetadata,
}

func init() {
	rootCmd.AddCommand(metadataCmd)
}

func runMetadata(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	util.SetVerbose(viper.GetBool("verbose"))
	util.SetQuiet(viper.GetBool("quiet"))

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.TMDBAPIKey == "" {
		return fmt.Errorf("tmdb-api-key is required for metadata fetching")
	}

	db, err := store.Open(cfg.DatabaseFile)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	client, err := tmdb.NewClient(cfg.TMDBAPIKey)
	if err != nil {
		return err
	}

	logger, err := report.NewEventLogger("artifacts", report.LevelInfo)
	if err != nil {
		logger = report.NullLogger()
	}
	defer logger.Close()

	updater := tmdb.NewUpdater(db, client, cfg.MetadataTTL, logger)
	result, err := updater.Run(ctx)
	if err != nil {
		return fmt.Errorf("metadata update failed: %w", err)
	}

	util.SuccessLog("Metadata update complete: %d updated, %d skipped, %d failed",
		result.Updated, result.Skipped, result.Failed)
	return nil
}
