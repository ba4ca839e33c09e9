package main

import (
	"fmt"

	"github.com/matsen/episodegraph/internal/graph"
	"github.com/spf13/cobra"
)

var (
	backlinksSameSite bool
	backlinksLimit    int
)

func init() {
	backlinksCmd.Flags().BoolVar(&backlinksSameSite, "same-site", false, "Only count links to pages on site_url (default from same_site_only)")
	backlinksCmd.Flags().IntVar(&backlinksLimit, "limit", DefaultBacklinksLimit, "Maximum rows to return (0 for all)")
	rootCmd.AddCommand(backlinksCmd)
}

var backlinksCmd = &cobra.Command{
	Use:   "backlinks [url]",
	Short: "Count inbound references per page",
	Long: `Count inbound references per page, computed from episodes.jsonl.

Every mention counts, including repeats from the same episode. Without a
URL, lists the most referenced pages first.

Examples:
  epg backlinks
  epg backlinks --same-site=false --limit 0
  epg backlinks https://example.fm/episodes/42`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBacklinks,
}

// BacklinkDetail is the response for a single-page backlinks query.
type BacklinkDetail struct {
	Key     string   `json:"key"`
	Label   string   `json:"label,omitempty"`
	Count   int      `json:"count"`
	Sources []string `json:"sources"`
}

func runBacklinks(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	cfg := mustLoadConfig(repoRoot)
	episodes := mustReadEpisodes(repoRoot)

	sameSite := sameSiteFlag(cmd.Flags().Changed("same-site"), backlinksSameSite, cfg)
	g := buildGraph(episodes, cfg, sameSite)

	if len(args) == 1 {
		key := args[0]
		detail := BacklinkDetail{
			Key:     key,
			Count:   graph.BacklinkCount(g, key),
			Sources: []string{},
		}
		if v, ok := g.Vertex(key); ok {
			detail.Label = v.Label
			for _, e := range g.InEdges(key) {
				detail.Sources = append(detail.Sources, e.Source)
			}
		}

		if humanOutput {
			title := detail.Label
			if title == "" {
				title = key
			}
			fmt.Printf("%s: %d backlinks\n", title, detail.Count)
			for _, s := range detail.Sources {
				fmt.Printf("  <- %s\n", truncateString(s, URLMaxLen))
			}
		} else {
			outputJSON(detail)
		}
		return nil
	}

	entries := graph.Backlinks(g)
	if backlinksLimit > 0 && len(entries) > backlinksLimit {
		entries = entries[:backlinksLimit]
	}

	if humanOutput {
		for _, e := range entries {
			name := e.Label
			if name == "" {
				name = e.Key
			}
			fmt.Printf("%5d  %s\n", e.Count, truncateString(name, URLMaxLen))
		}
	} else {
		outputJSON(entries)
	}
	return nil
}
