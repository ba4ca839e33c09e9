package main

import (
	"github.com/matsen/episodegraph/internal/config"
	"github.com/matsen/episodegraph/internal/episode"
	"github.com/matsen/episodegraph/internal/graph"
	"go.uber.org/zap"
)

// sameSiteFlag resolves a --same-site flag against the same_site_only setting.
func sameSiteFlag(changed, value bool, cfg *config.Config) bool {
	if changed {
		return value
	}
	return cfg.SameSiteOnly
}

// buildGraph builds the reference graph, optionally restricted to links on the
// configured site.
func buildGraph(episodes []episode.Episode, cfg *config.Config, sameSite bool) *graph.Graph {
	g, stats := graph.Build(episodes)
	logger.Debug("graph built",
		zap.Int("episodes", stats.Episodes),
		zap.Int("edges", stats.Edges),
		zap.Int("skipped_links", stats.SkippedLinks))

	if !sameSite {
		return g
	}
	if err := config.ValidateSiteURL(cfg.SiteURL); err != nil {
		exitWithError(ExitConfigError, "same-site filtering needs site_url: %v", err)
	}
	filtered := graph.Filter(g, graph.SameHost(cfg.SiteURL))
	logger.Debug("graph filtered to site",
		zap.String("site_url", cfg.SiteURL),
		zap.Int("vertices", filtered.Len()),
		zap.Int("edges", filtered.EdgeCount()))
	if stats.Edges > 0 && filtered.EdgeCount() == 0 {
		logger.Warn("same-site filter removed every link; check site_url and resolve_relative_links",
			zap.String("site_url", cfg.SiteURL),
			zap.Bool("resolve_relative_links", cfg.ResolveRelativeLinks),
			zap.Int("edges_before", stats.Edges))
	}
	return filtered
}

// filterEpisodeLinks returns copies of episodes keeping only links matching pred.
func filterEpisodeLinks(episodes []episode.Episode, pred graph.Predicate) []episode.Episode {
	out := make([]episode.Episode, len(episodes))
	for i, e := range episodes {
		kept := make([]string, 0, len(e.Links))
		for _, l := range e.Links {
			if l != "" && pred(l) {
				kept = append(kept, l)
			}
		}
		e.Links = kept
		out[i] = e
	}
	return out
}
