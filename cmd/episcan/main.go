package main

import (
	"fmt"
	"os"

	"github.com/clem/episcan/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Version is set at build time
	Version = "dev"

	cfgFile string

	rootCmd = &cobra.Command{
		Use:   "episcan",
		Short: "Incremental WebDAV episode scanner",
		Long: `episcan incrementally crawls a WebDAV directory tree, classifies video
files by language rules, and reports the files that appeared since the
previous run. Unchanged remote directories are skipped using a per-directory
scan cache keyed by the remote change fingerprint and a TTL.`,
		Version: Version,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./episcan.yaml)")
	rootCmd.PersistentFlags().String("base-url", "", "WebDAV base URL, e.g. http://nas:5344/dav")
	rootCmd.PersistentFlags().String("username", "", "WebDAV username")
	rootCmd.PersistentFlags().String("password", "", "WebDAV password")
	rootCmd.PersistentFlags().StringSlice("roots", nil, "root paths to scan")
	rootCmd.PersistentFlags().String("db", "episcan.db", "state database file")
	rootCmd.PersistentFlags().String("state-file", "state.json", "seen-state snapshot file")
	rootCmd.PersistentFlags().String("skip-paths-file", "", "JSON file with path prefixes to skip")
	rootCmd.PersistentFlags().Int("timeout", 20, "request timeout in seconds")
	rootCmd.PersistentFlags().Int("scan-cache-hours", 24, "directory scan cache TTL in hours (0 disables)")
	rootCmd.PersistentFlags().Int("metadata-cache-hours", 0, "show metadata cache TTL in hours")
	rootCmd.PersistentFlags().Bool("only-new", true, "report only files not seen before")
	rootCmd.PersistentFlags().Bool("insecure-tls", false, "skip TLS certificate verification")
	rootCmd.PersistentFlags().String("tmdb-api-key", "", "TMDB API key for metadata enrichment")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "quiet output (errors only)")

	// Bind flags to viper
	viper.BindPFlags(rootCmd.PersistentFlags())
}

func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName("episcan")
		viper.SetConfigType("yaml")
	}

	// Read in environment variables that match
	viper.SetEnvPrefix("EPISCAN")
	viper.AutomaticEnv()

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil && !viper.GetBool("quiet") {
		util.InfoLog("Using config file: %s", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
