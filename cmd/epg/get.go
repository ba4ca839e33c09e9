package main

import (
	"fmt"
	"strconv"

	"github.com/matsen/episodegraph/internal/episode"
	"github.com/matsen/episodegraph/internal/storage"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(getCmd)
}

var getCmd = &cobra.Command{
	Use:   "get <id|url>",
	Short: "Show an episode and the pages that link to it",
	Long: `Show one episode by number or URL, with its outgoing links and the
episodes that mention it.

Examples:
  epg get 42
  epg get https://example.fm/episodes/42`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

// GetResult is the response for the get command.
type GetResult struct {
	Episode   *episode.Episode `json:"episode"`
	Backlinks []storage.Link   `json:"backlinks"`
}

func runGet(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	db := mustOpenDatabase(repoRoot)
	defer db.Close()

	var e *episode.Episode
	var err error
	if id, convErr := strconv.Atoi(args[0]); convErr == nil {
		e, err = db.GetByID(id)
	} else {
		e, err = db.GetByURL(args[0])
	}
	if err != nil {
		exitWithError(ExitError, "getting episode: %v", err)
	}
	if e == nil {
		exitWithError(ExitDataError, "episode not found: %s (run 'epg rebuild' if episodes.jsonl changed)", args[0])
	}

	backlinks, err := db.GetLinksByTarget(e.URL)
	if err != nil {
		exitWithError(ExitError, "getting backlinks: %v", err)
	}
	if backlinks == nil {
		backlinks = []storage.Link{}
	}

	if humanOutput {
		fmt.Printf("#%d %s\n", e.ID, truncateString(e.DisplayTitle(), DetailTitleMaxLen))
		fmt.Printf("  URL:       %s\n", e.URL)
		fmt.Printf("  Published: %s\n", e.PublishedAt.Format("2006-01-02 15:04 MST"))
		fmt.Printf("  Links:     %d\n", len(e.Links))
		for _, l := range e.Links {
			fmt.Printf("    -> %s\n", truncateString(l, URLMaxLen))
		}
		fmt.Printf("  Mentioned by: %d\n", len(backlinks))
		for _, b := range backlinks {
			fmt.Printf("    <- %s\n", truncateString(b.SourceURL, URLMaxLen))
		}
	} else {
		outputJSON(GetResult{Episode: e, Backlinks: backlinks})
	}

	return nil
}
