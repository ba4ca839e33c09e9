package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var searchLimit int

func init() {
	searchCmd.Flags().IntVar(&searchLimit, "limit", DefaultSearchLimit, "Maximum results to return")
	rootCmd.AddCommand(searchCmd)
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Full-text search over episode titles and article text",
	Long: `Full-text search over episode titles and article text.

Examples:
  epg search compilers
  epg search "garbage collection" --limit 5`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

// SearchResult is one episode in search output.
type SearchResult struct {
	ID          int       `json:"id"`
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	PublishedAt time.Time `json:"published_at"`
}

func runSearch(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	db := mustOpenDatabase(repoRoot)
	defer db.Close()

	episodes, err := db.Search(args[0], searchLimit)
	if err != nil {
		exitWithError(ExitError, "searching: %v", err)
	}

	results := make([]SearchResult, 0, len(episodes))
	for _, e := range episodes {
		results = append(results, SearchResult{
			ID:          e.ID,
			URL:         e.URL,
			Title:       e.DisplayTitle(),
			PublishedAt: e.PublishedAt,
		})
	}

	if humanOutput {
		if len(results) == 0 {
			fmt.Println("No episodes found")
			return nil
		}
		fmt.Printf("Found %d episodes:\n\n", len(results))
		for _, r := range results {
			fmt.Printf("  #%-5d %s  %s\n", r.ID, r.PublishedAt.Format("2006-01-02"), truncateString(r.Title, SearchTitleMaxLen))
		}
	} else {
		outputJSON(results)
	}

	return nil
}
