package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sort"

	"github.com/matsen/episodegraph/internal/config"
	"github.com/matsen/episodegraph/internal/crawl"
	"github.com/matsen/episodegraph/internal/extract"
	"github.com/matsen/episodegraph/internal/fetch"
	"github.com/matsen/episodegraph/internal/storage"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	crawlFrom        int
	crawlTo          int
	crawlConcurrency int
	crawlNoRebuild   bool
)

func init() {
	crawlCmd.Flags().IntVar(&crawlFrom, "from", 0, "First episode number (default from config)")
	crawlCmd.Flags().IntVar(&crawlTo, "to", 0, "Last episode number (default from config)")
	crawlCmd.Flags().IntVar(&crawlConcurrency, "concurrency", 0, "Pages fetched at once (default from config)")
	crawlCmd.Flags().BoolVar(&crawlNoRebuild, "no-rebuild", false, "Skip rebuilding the query database afterwards")
	rootCmd.AddCommand(crawlCmd)
}

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Fetch and extract episode pages",
	Long: `Fetch each episode page in the configured range, extract title, publish
time, links and article text, and upsert the results into episodes.jsonl.

A page that fails to fetch, parse or validate is reported and skipped; the
rest of the range still completes. Exit code 4 signals a partial crawl.

Examples:
  epg crawl
  epg crawl --from 100 --to 120
  epg crawl --concurrency 2 --log-level info`,
	RunE: runCrawl,
}

// CrawlResult is the response for the crawl command.
type CrawlResult struct {
	RunID     string          `json:"run_id"`
	Requested int             `json:"requested"`
	Added     int             `json:"added"`
	Updated   int             `json:"updated"`
	Episodes  int             `json:"episodes"`
	Failures  []crawl.Failure `json:"failures"`
}

// newFetcher builds the page fetcher from repository settings.
func newFetcher(fc config.FetchConfig) *fetch.Client {
	userAgent := fc.UserAgent
	if ua := config.GetUserAgent(); ua != "" {
		userAgent = ua
	}
	return fetch.NewClient(
		fetch.WithHTTPClient(&http.Client{Timeout: fc.Timeout()}),
		fetch.WithRateLimit(fc.RateLimit),
		fetch.WithRetries(fc.MaxRetries, fc.Backoff()),
		fetch.WithCacheSize(fc.CacheSize),
		fetch.WithUserAgent(userAgent),
		fetch.WithLogger(logger.Named("fetch")),
	)
}

func runCrawl(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	cfg := mustLoadConfig(repoRoot)

	if crawlFrom > 0 {
		cfg.FirstEpisode = crawlFrom
	}
	if crawlTo > 0 {
		cfg.LastEpisode = crawlTo
	}
	if crawlConcurrency > 0 {
		cfg.Fetch.Concurrency = crawlConcurrency
	}
	if err := cfg.Validate(); err != nil {
		exitWithError(ExitConfigError, "invalid config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	req := crawl.Request{
		IDs:         crawl.IDRange(cfg.FirstEpisode, cfg.LastEpisode),
		URLTemplate: cfg.EpisodeURLTemplate,
		Concurrency: cfg.Fetch.Concurrency,
		Extract:     extract.Options{ResolveRelative: cfg.ResolveRelativeLinks},
	}
	result, err := crawl.Run(ctx, newFetcher(cfg.Fetch), req, logger.Named("crawl"))
	if err != nil {
		exitWithError(ExitError, "crawling: %v", err)
	}

	episodesPath := config.EpisodesPath(repoRoot)
	episodes := mustReadEpisodes(repoRoot)

	added, updated := 0, 0
	for _, e := range result.Episodes {
		var replaced bool
		episodes, replaced = storage.UpsertInSlice(episodes, e)
		if replaced {
			updated++
		} else {
			added++
		}
	}
	sort.SliceStable(episodes, func(i, j int) bool { return episodes[i].ID < episodes[j].ID })

	if err := storage.WriteAll(episodesPath, episodes); err != nil {
		exitWithError(ExitError, "writing episodes: %v", err)
	}

	if !crawlNoRebuild {
		db := mustOpenDatabase(repoRoot)
		n, links, err := db.Rebuild(episodes)
		db.Close()
		if err != nil {
			exitWithError(ExitDataError, "rebuilding database: %v", err)
		}
		logger.Debug("query database rebuilt", zap.Int("episodes", n), zap.Int("links", links))
	}

	out := CrawlResult{
		RunID:     result.RunID,
		Requested: len(req.IDs),
		Added:     added,
		Updated:   updated,
		Episodes:  len(episodes),
		Failures:  result.Failures,
	}

	if humanOutput {
		fmt.Printf("Crawled %d pages: %d added, %d updated, %d failed\n",
			out.Requested, out.Added, out.Updated, len(out.Failures))
		for _, f := range out.Failures {
			fmt.Printf("  [FAIL] #%d %s (%s): %s\n", f.ID, f.URL, f.Stage, f.Error)
		}
	} else {
		outputJSON(out)
	}

	if len(out.Failures) > 0 {
		_ = logger.Sync()
		os.Exit(ExitPartialCrawl)
	}
	return nil
}
