package main

import (
	"context"
	"fmt"
	"os"

	"github.com/clem/episcan/internal/config"
	"github.com/clem/episcan/internal/state"
	"github.com/clem/episcan/internal/store"
	"github.com/clem/episcan/internal/util"
	"github.com/clem/episcan/internal/webdav"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run diagnostic checks on the environment and configuration",
	Long: `Run diagnostic checks to ensure episcan can operate correctly.

This command checks:
- Configuration validity
- SQLite version and database integrity
- Seen-state snapshot readability
- WebDAV connectivity for every configured root

Use this command to troubleshoot issues before running a scan.`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

type checkResult struct {
	name    string
	message string
	error   bool
	warning bool
}

func runDoctor(cmd *cobra.Command, args []string) error {
	util.SetVerbose(viper.GetBool("verbose"))

	util.InfoLog("=== episcan doctor ===")
	util.InfoLog("")

	results := []checkResult{}

	cfg, err := config.Load()
	if err != nil {
		results = append(results, checkResult{name: "Configuration", message: err.Error(), error: true})
		printResults(results)
		return fmt.Errorf("configuration invalid")
	}
	results = append(results, checkResult{
		name:    "Configuration",
		message: fmt.Sprintf("%d roots, %d skip paths, %d lang rules", len(cfg.Roots), len(cfg.SkipPaths), len(cfg.LangRules)),
	})

	results = append(results, checkSQLite())
	results = append(results, checkDatabase(cfg.DatabaseFile))
	results = append(results, checkSeenState(cfg.StateFile))
	results = append(results, checkWebDAV(cfg)...)

	util.InfoLog("")
	hasErrors := printResults(results)
	if hasErrors {
		return fmt.Errorf("diagnostics found errors")
	}
	util.SuccessLog("All checks passed")
	return nil
}

func printResults(results []checkResult) bool {
	hasErrors := false
	for _, r := range results {
		symbol := "✓"
		if r.error {
			symbol = "✗"
			hasErrors = true
		} else if r.warning {
			symbol = "⚠"
		}

		line := fmt.Sprintf("[%s] %s", symbol, r.name)
		if r.message != "" {
			line += fmt.Sprintf(": %s", r.message)
		}

		switch {
		case r.error:
			util.ErrorLog("%s", line)
		case r.warning:
			util.WarnLog("%s", line)
		default:
			util.InfoLog("%s", line)
		}
	}
	return hasErrors
}

func checkSQLite() checkResult {
	version := store.SQLiteVersion()
	if version == "" {
		return checkResult{name: "SQLite", message: "driver not functional", error: true}
	}
	return checkResult{name: "SQLite", message: version}
}

func checkDatabase(dbPath string) checkResult {
	db, err := store.Open(dbPath)
	if err != nil {
		return checkResult{name: "Database", message: err.Error(), error: true}
	}
	defer db.Close()

	if err := db.CheckIntegrity(); err != nil {
		return checkResult{name: "Database", message: err.Error(), error: true}
	}

	episodes, _ := db.CountEpisodes()
	facts, _ := db.CountScanFacts()
	return checkResult{
		name:    "Database",
		message: fmt.Sprintf("%s (%d episodes, %d scan facts)", dbPath, episodes, facts),
	}
}

func checkSeenState(statePath string) checkResult {
	if _, err := os.Stat(statePath); os.IsNotExist(err) {
		return checkResult{name: "Seen-state", message: "not created yet (first run pending)", warning: true}
	}

	tracker, err := state.Load(statePath)
	if err != nil {
		return checkResult{name: "Seen-state", message: err.Error(), error: true}
	}
	if tracker.FirstRun() {
		return checkResult{name: "Seen-state", message: "present but empty or unreadable", warning: true}
	}
	return checkResult{name: "Seen-state", message: fmt.Sprintf("%d paths tracked", tracker.Len())}
}

func checkWebDAV(cfg *config.Config) []checkResult {
	client, err := webdav.NewClient(&webdav.Options{
		BaseURL:     cfg.BaseURL,
		Username:    cfg.Username,
		Password:    cfg.Password,
		Timeout:     cfg.Timeout,
		InsecureTLS: cfg.InsecureTLS,
	})
	if err != nil {
		return []checkResult{{name: "WebDAV", message: err.Error(), error: true}}
	}

	ctx := context.Background()
	var results []checkResult
	for _, root := range cfg.Roots {
		name := fmt.Sprintf("WebDAV %s", root)
		if _, err := client.ListDirectory(ctx, root, 0); err != nil {
			results = append(results, checkResult{name: name, message: err.Error(), error: true})
			continue
		}
		results = append(results, checkResult{name: name, message: "reachable"})
	}
	return results
}
