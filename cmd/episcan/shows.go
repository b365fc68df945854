package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/clem/episcan/internal/store"
	"github.com/clem/episcan/internal/util"
	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var showsCmd = &cobra.Command{
	Use:   "shows",
	Short: "List scanned shows with their cached metadata",
	RunE:  runShows,
}

func init() {
	rootCmd.AddCommand(showsCmd)
}

func runShows(cmd *cobra.Command, args []string) error {
	util.SetQuiet(viper.GetBool("quiet"))

	db, err := store.Open(viper.GetString("db"))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	entries, err := db.ListShowEntries()
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		util.InfoLog("No shows recorded yet; run a scan first")
		return nil
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Show", "Lang", "Title", "Rating", "Genres", "Updated"})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, Align: text.AlignRight},
	})

	for _, entry := range entries {
		title, rating, genres, updated := "-", "-", "-", "-"

		metadata, err := db.GetShowMetadata(entry.ShowPath)
		if err != nil {
			return err
		}
		if metadata != nil {
			if metadata.Title != "" {
				title = metadata.Title
			}
			if metadata.Rating != nil {
				rating = fmt.Sprintf("%.1f", *metadata.Rating)
			}
			if len(metadata.Genres) > 0 {
				genres = strings.Join(metadata.Genres, ", ")
			}
			updated = humanize.Time(time.Unix(metadata.UpdatedAt, 0))
		}

		tw.AppendRow(table.Row{entry.ShowPath, entry.Lang, title, rating, genres, updated})
	}

	tw.Render()
	return nil
}
