package main

import (
	"fmt"

	"github.com/matsen/episodegraph/internal/config"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(rebuildCmd)
}

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the query layer from source data",
	Long: `Rebuild the SQLite query database from episodes.jsonl.

Use this after pulling changes from git or if the database becomes corrupted.`,
	RunE: runRebuild,
}

// RebuildResult is the response for the rebuild command.
type RebuildResult struct {
	Status   string `json:"status"`
	Episodes int    `json:"episodes"`
	Links    int    `json:"links"`
}

func runRebuild(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()

	db := mustOpenDatabase(repoRoot)
	defer db.Close()

	episodes, links, err := db.RebuildFromJSONL(config.EpisodesPath(repoRoot))
	if err != nil {
		exitWithError(ExitDataError, "rebuilding database: %v", err)
	}

	if humanOutput {
		fmt.Printf("Rebuilt query database with %d episodes and %d links\n", episodes, links)
	} else {
		outputJSON(RebuildResult{
			Status:   "rebuilt",
			Episodes: episodes,
			Links:    links,
		})
	}

	return nil
}
