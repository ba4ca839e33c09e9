package main

import (
	"strings"
	"testing"

	"github.com/matsen/episodegraph/internal/config"
	"github.com/matsen/episodegraph/internal/episode"
	"github.com/matsen/episodegraph/internal/graph"
)

func TestBacklinks_RepeatedMentionsCount(t *testing.T) {
	cfg := config.Default()
	cfg.SiteURL = "https://example.fm"
	episodes := []episode.Episode{
		{ID: 1, URL: "https://example.fm/1", Title: "One", Links: []string{
			"https://example.fm/2", "https://example.fm/2",
		}},
		{ID: 2, URL: "https://example.fm/2", Title: "Two"},
	}

	g := buildGraph(episodes, cfg, true)
	if got := graph.BacklinkCount(g, "https://example.fm/2"); got != 2 {
		t.Errorf("BacklinkCount() = %d, want 2", got)
	}
	if !strings.Contains(backlinksCmd.Long, "including repeats from the same episode") {
		t.Errorf("backlinks help should say repeats count:\n%s", backlinksCmd.Long)
	}
}
