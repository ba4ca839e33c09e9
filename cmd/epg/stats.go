package main

import (
	"fmt"

	"github.com/matsen/episodegraph/internal/storage"
	"github.com/spf13/cobra"
)

var statsTop int

func init() {
	statsCmd.Flags().IntVar(&statsTop, "top", DefaultBacklinksLimit, "Number of most-referenced targets to list")
	rootCmd.AddCommand(statsCmd)
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize the query database",
	Long: `Summarize the query database: episode and link counts plus the most
referenced link targets, internal or external.

Reads the SQLite cache; run 'epg rebuild' after editing episodes.jsonl.`,
	Args: cobra.NoArgs,
	RunE: runStats,
}

// StatsResult is the response for the stats command.
type StatsResult struct {
	Episodes int                   `json:"episodes"`
	Links    int                   `json:"links"`
	Top      []storage.BacklinkRow `json:"top"`
}

func runStats(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	db := mustOpenDatabase(repoRoot)
	defer db.Close()

	episodes, err := db.Count()
	if err != nil {
		exitWithError(ExitError, "counting episodes: %v", err)
	}
	links, err := db.CountLinks()
	if err != nil {
		exitWithError(ExitError, "counting links: %v", err)
	}
	top, err := db.BacklinkCounts(statsTop)
	if err != nil {
		exitWithError(ExitError, "counting backlinks: %v", err)
	}
	if top == nil {
		top = []storage.BacklinkRow{}
	}

	if humanOutput {
		fmt.Printf("%d episodes, %d links\n", episodes, links)
		if len(top) > 0 {
			fmt.Println("\nMost referenced:")
			for _, r := range top {
				name := r.Title
				if name == "" {
					name = r.TargetURL
				}
				fmt.Printf("%5d  %s\n", r.Count, truncateString(name, URLMaxLen))
			}
		}
	} else {
		outputJSON(StatsResult{Episodes: episodes, Links: links, Top: top})
	}
	return nil
}
