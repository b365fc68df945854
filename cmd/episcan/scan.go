package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/clem/episcan/internal/classify"
	"github.com/clem/episcan/internal/config"
	"github.com/clem/episcan/internal/report"
	"github.com/clem/episcan/internal/scan"
	"github.com/clem/episcan/internal/state"
	"github.com/clem/episcan/internal/store"
	"github.com/clem/episcan/internal/util"
	"github.com/clem/episcan/internal/webdav"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Crawl the configured roots and report new episodes",
	Long: `Crawl every configured root breadth-first, classify video files by the
language rules, and print the matched episodes as a JSON array on stdout.

With --only-new (the default) only files absent from the seen-state are
printed. On the very first run nothing is reported new; the existing library
is recorded as the baseline instead.

Directories whose remote fingerprint is unchanged and whose last scan is
younger than --scan-cache-hours are skipped without touching the remote.`,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().String("event-log-dir", "artifacts", "directory for the JSONL event log")
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	util.SetVerbose(viper.GetBool("verbose"))
	util.SetQuiet(viper.GetBool("quiet"))

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	util.InfoLog("Opening database: %s", cfg.DatabaseFile)
	db, err := store.Open(cfg.DatabaseFile)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	tracker, err := state.Load(cfg.StateFile)
	if err != nil {
		return fmt.Errorf("failed to load seen-state: %w", err)
	}

	client, err := webdav.NewClient(&webdav.Options{
		BaseURL:     cfg.BaseURL,
		Username:    cfg.Username,
		Password:    cfg.Password,
		Timeout:     cfg.Timeout,
		InsecureTLS: cfg.InsecureTLS,
	})
	if err != nil {
		return err
	}

	classifier, err := classify.New(cfg.VideoExts, cfg.LangRules)
	if err != nil {
		return err
	}

	logLevel := report.LevelInfo
	if viper.GetBool("quiet") {
		logLevel = report.LevelWarning
	} else if viper.GetBool("verbose") {
		logLevel = report.LevelDebug
	}

	eventLogDir, _ := cmd.Flags().GetString("event-log-dir")
	logger, err := report.NewEventLogger(eventLogDir, logLevel)
	if err != nil {
		util.WarnLog("Failed to create event logger: %v", err)
		logger = report.NullLogger()
	}
	defer logger.Close()

	if logger.Path() != "" {
		util.InfoLog("Event log: %s", logger.Path())
	}

	scanner := scan.New(&scan.Deps{
		Config:     cfg,
		Client:     client,
		Store:      db,
		Tracker:    tracker,
		Classifier: classifier,
		Logger:     logger,
	})

	startTime := time.Now()
	result, err := scanner.Run(ctx)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}
	duration := time.Since(startTime)

	output := result.Episodes
	if cfg.OnlyNew {
		output = result.NewEpisodes
	}

	payload, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	fmt.Fprintln(os.Stdout, string(payload))

	util.SuccessLog("Scan complete in %v", duration.Round(time.Millisecond))
	util.InfoLog("  Directories walked: %d", result.DirsWalked)
	util.InfoLog("  Directories cached: %d", result.DirsSkipped)
	util.InfoLog("  Episodes matched: %d (%s)", len(result.Episodes), humanize.Bytes(uint64(result.TotalBytes)))
	if cfg.OnlyNew {
		util.InfoLog("  New episodes: %d", len(result.NewEpisodes))
	}
	if result.FetchErrors > 0 {
		util.WarnLog("  Fetch errors: %d", result.FetchErrors)
	}
	util.InfoLog("Seen-state: %s (%d paths)", cfg.StateFile, tracker.Len())

	return nil
}
